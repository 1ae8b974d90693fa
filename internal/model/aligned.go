package model

import (
	"encoding/json"
	"strconv"
)

// ForecastKey labels the synthetic trailing point of an AlignedSeries.
const ForecastKey = "next period"

// OptionalFloat is a float that may be absent. Absent values encode as JSON null.
type OptionalFloat struct {
	Value float64
	Valid bool
}

// Some returns a present OptionalFloat.
func Some(v float64) OptionalFloat { return OptionalFloat{Value: v, Valid: true} }

// None returns an absent OptionalFloat.
func None() OptionalFloat { return OptionalFloat{} }

func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(o.Value, 'f', -1, 64)), nil
}

func (o *OptionalFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = OptionalFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// AlignedSeries holds two parallel tracks over one sorted date axis.
type AlignedSeries struct {
	Dates            []string        `json:"dates"`
	PriceTrack       []OptionalFloat `json:"price_track"`
	PredictionTrack  []OptionalFloat `json:"prediction_track"`
	HasForecastPoint bool            `json:"has_forecast_point"`
}

// Len returns the number of points on the axis.
func (a AlignedSeries) Len() int { return len(a.Dates) }
