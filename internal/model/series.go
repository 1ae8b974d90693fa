package model

// NormalizedSeries is a min-max scaled price series.
// Values[i] = (price[i]-Min)/(Max-Min), Max > Min.
type NormalizedSeries struct {
	Values []float64
	Min    float64
	Max    float64
}

// Denormalize maps a value from the 0..1 domain back to prices.
func (s NormalizedSeries) Denormalize(v float64) float64 {
	// The conversion keeps the product rounded, so no fused multiply-add.
	return float64(v*(s.Max-s.Min)) + s.Min
}

// Normalize maps a price into the 0..1 domain of this series.
func (s NormalizedSeries) Normalize(price float64) float64 {
	return (price - s.Min) / (s.Max - s.Min)
}

// WindowSample is one supervised training pair: W consecutive values and the value that follows.
type WindowSample struct {
	Input  []float64
	Target float64
}
