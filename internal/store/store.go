// Package store persists forecasts. Stores are append-only: a prediction is
// written once and never updated or deleted here.
package store

import (
	"context"
	"fmt"
	"math"

	"PricePulse/internal/model"
)

// PredictionStore persists forecast values and lists them back.
type PredictionStore interface {
	// Save writes exactly one row. Retrying a failed call may leave a duplicate.
	Save(ctx context.Context, value float64) (model.Prediction, error)
	// ListAll returns every prediction ordered by creation time ascending.
	ListAll(ctx context.Context) ([]model.Prediction, error)
	Close() error
}

// CheckValue rejects values that cannot be stored.
func CheckValue(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("prediction value %v: %w", value, model.ErrInvalidValue)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
}
