package model

import "errors"

var (
	// ErrDegenerateSeries is returned when every price is identical and min-max scaling is undefined.
	ErrDegenerateSeries = errors.New("degenerate series: max equals min")

	// ErrInsufficientData is returned when there are too few points to build a training sample.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidValue is returned for non-finite or non-numeric values.
	ErrInvalidValue = errors.New("invalid value")

	// ErrUpstreamFetch is returned when the price feed or a remote endpoint fails.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrStoreUnavailable is returned when the prediction store cannot be read or written.
	ErrStoreUnavailable = errors.New("prediction store unavailable")
)

// IsStructural reports whether err aborts a run rather than degrading it.
func IsStructural(err error) bool {
	return errors.Is(err, ErrDegenerateSeries) || errors.Is(err, ErrInsufficientData) || errors.Is(err, ErrInvalidValue)
}
