package model

import "time"

// Prediction is a persisted forecast value.
type Prediction struct {
	ID        int64     `json:"id"`
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}
