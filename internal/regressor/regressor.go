// Package regressor trains a small feed-forward network on windowed price samples.
package regressor

import (
	"context"

	"PricePulse/internal/model"
)

// Regressor trains a model from window samples.
type Regressor interface {
	Train(ctx context.Context, samples []model.WindowSample, epochs int) (Predictor, error)
}

// Predictor maps one input window to a scalar in the normalized domain of the training targets.
type Predictor interface {
	Predict(input []float64) (float64, error)
}

// TrainingReport summarizes a finished training run.
type TrainingReport struct {
	Samples      int
	Epochs       int
	InitialError float64
	FinalError   float64
}
