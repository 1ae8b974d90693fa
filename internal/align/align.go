// Package align merges live prices and stored predictions onto one calendar axis.
package align

import (
	"sort"

	"PricePulse/internal/model"
)

// Dated is one value keyed by canonical calendar date (YYYY-MM-DD).
type Dated struct {
	Date  string
	Value float64
}

// FromPrices keys each price by its UTC calendar date.
func FromPrices(points []model.PricePoint) []Dated {
	out := make([]Dated, len(points))
	for i, p := range points {
		out[i] = Dated{Date: model.DateKeyOf(p.Time), Value: p.Price}
	}
	return out
}

// FromPredictions keys each stored prediction by the calendar date it was created.
func FromPredictions(preds []model.Prediction) []Dated {
	out := make([]Dated, len(preds))
	for i, p := range preds {
		out[i] = Dated{Date: model.DateKeyOf(p.CreatedAt), Value: p.Value}
	}
	return out
}

// Align builds the union of dates from both inputs, sorted by calendar order,
// and looks up each track independently. Missing values are absent, not zero.
// When one input repeats a date the later entry wins.
// A valid forecast is appended as a final ForecastKey point with no price.
func Align(prices, predictions []Dated, forecast model.OptionalFloat) model.AlignedSeries {
	priceByDate := index(prices)
	predByDate := index(predictions)

	dates := make([]string, 0, len(priceByDate)+len(predByDate))
	for d := range priceByDate {
		dates = append(dates, d)
	}
	for d := range predByDate {
		if _, ok := priceByDate[d]; !ok {
			dates = append(dates, d)
		}
	}
	// Canonical keys are zero-padded ISO dates, so lexical order is calendar order.
	sort.Strings(dates)

	n := len(dates)
	if forecast.Valid {
		n++
	}
	out := model.AlignedSeries{
		Dates:           make([]string, 0, n),
		PriceTrack:      make([]model.OptionalFloat, 0, n),
		PredictionTrack: make([]model.OptionalFloat, 0, n),
	}
	for _, d := range dates {
		out.Dates = append(out.Dates, d)
		out.PriceTrack = append(out.PriceTrack, lookup(priceByDate, d))
		out.PredictionTrack = append(out.PredictionTrack, lookup(predByDate, d))
	}
	if forecast.Valid {
		out.Dates = append(out.Dates, model.ForecastKey)
		out.PriceTrack = append(out.PriceTrack, model.None())
		out.PredictionTrack = append(out.PredictionTrack, forecast)
		out.HasForecastPoint = true
	}
	return out
}

func index(in []Dated) map[string]float64 {
	m := make(map[string]float64, len(in))
	for _, d := range in {
		m[d.Date] = d.Value
	}
	return m
}

func lookup(m map[string]float64, date string) model.OptionalFloat {
	if v, ok := m[date]; ok {
		return model.Some(v)
	}
	return model.None()
}

// Parse adapts a string-dated value in any supported layout to a canonical Dated.
func Parse(date string, value float64) (Dated, error) {
	key, err := model.ParseDateKey(date)
	if err != nil {
		return Dated{}, err
	}
	return Dated{Date: key, Value: value}, nil
}
