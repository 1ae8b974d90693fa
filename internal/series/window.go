package series

import (
	"fmt"

	"PricePulse/internal/model"
)

// DefaultWindow is the number of consecutive values fed to the regressor.
const DefaultWindow = 3

// BuildWindows slides a window of size w over values.
// It returns len(values)-w samples, or none when there are not more than w values.
func BuildWindows(values []float64, w int) []model.WindowSample {
	if w <= 0 || len(values) <= w {
		return []model.WindowSample{}
	}
	samples := make([]model.WindowSample, 0, len(values)-w)
	for i := 0; i+w < len(values); i++ {
		input := make([]float64, w)
		copy(input, values[i:i+w])
		samples = append(samples, model.WindowSample{Input: input, Target: values[i+w]})
	}
	return samples
}

// TrailingWindow returns the last w values, the inference input for the next period.
func TrailingWindow(values []float64, w int) ([]float64, error) {
	if w <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", w)
	}
	if len(values) < w {
		return nil, fmt.Errorf("trailing window: have %d values, need %d: %w", len(values), w, model.ErrInsufficientData)
	}
	out := make([]float64, w)
	copy(out, values[len(values)-w:])
	return out, nil
}
