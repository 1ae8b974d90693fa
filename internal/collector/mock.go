package collector

import (
	"context"
	"time"

	"PricePulse/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price  float64
	Prices []model.PricePoint
	Err    error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyPrices(ctx context.Context, _ string, days int) ([]model.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, upstream(m.Name(), err)
	}
	if m.Err != nil {
		return nil, upstream(m.Name(), m.Err)
	}
	if m.Prices != nil {
		out := make([]model.PricePoint, len(m.Prices))
		copy(out, m.Prices)
		return out, nil
	}
	return generateMockPrices(m.Price, days), nil
}

// generateMockPrices produces a gently oscillating daily series ending today.
func generateMockPrices(basePrice float64, count int) []model.PricePoint {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	points := make([]model.PricePoint, count)
	for i := 0; i < count; i++ {
		drift := float64(i-count/2) * 0.001
		wobble := float64(i%5-2) * 0.004
		points[i] = model.PricePoint{
			Time:  today.AddDate(0, 0, -(count - 1 - i)),
			Price: basePrice * (1 + drift + wobble),
		}
	}
	return points
}
