package series

import (
	"fmt"

	"github.com/shopspring/decimal"

	"PricePulse/internal/model"
)

// displayPlaces is the number of decimals shown for prices.
const displayPlaces = 2

// Round converts a price to a display decimal.
func Round(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(displayPlaces)
}

// Summarize picks the start, middle, previous and latest prices of the period.
func Summarize(points []model.PricePoint) (*model.Summary, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("summary needs at least 2 prices, got %d: %w", len(points), model.ErrInsufficientData)
	}
	n := len(points)
	closes := model.Closes(points)
	high, low, _ := PeriodRange(closes)
	s := &model.Summary{
		StartOfPeriod:  Round(points[0].Price),
		MidPeriod:      Round(points[n/2].Price),
		PreviousPeriod: Round(points[n-2].Price),
		Latest:         Round(points[n-1].Price),
		PeriodHigh:     Round(high),
		PeriodLow:      Round(low),
		RangePosition:  decimal.NewFromFloat(RangePosition(closes[n-1], high, low)).Round(4),
	}
	if ma, err := SMA(closes, DefaultMAPeriod); err == nil {
		r := Round(ma)
		s.MovingAverage = &r
	}
	return s, nil
}

// WithForecast returns a copy of s carrying the rounded forecast.
func WithForecast(s *model.Summary, forecast float64) *model.Summary {
	out := *s
	f := Round(forecast)
	out.Forecast = &f
	return &out
}
