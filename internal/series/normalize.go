package series

import (
	"fmt"
	"math"

	"PricePulse/internal/model"
)

// Normalize min-max scales prices into [0,1].
// min and max are taken over the whole input, so every call is self-contained.
func Normalize(prices []float64) (model.NormalizedSeries, error) {
	if len(prices) == 0 {
		return model.NormalizedSeries{}, fmt.Errorf("normalize: empty series: %w", model.ErrInsufficientData)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, p := range prices {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return model.NormalizedSeries{}, fmt.Errorf("normalize: price[%d]=%v: %w", i, p, model.ErrInvalidValue)
		}
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	if hi == lo {
		return model.NormalizedSeries{}, fmt.Errorf("normalize: all %d prices equal %v: %w", len(prices), lo, model.ErrDegenerateSeries)
	}

	s := model.NormalizedSeries{Values: make([]float64, len(prices)), Min: lo, Max: hi}
	span := hi - lo
	for i, p := range prices {
		s.Values[i] = (p - lo) / span
	}
	return s, nil
}
