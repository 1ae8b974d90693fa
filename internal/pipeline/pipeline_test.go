package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PricePulse/internal/collector"
	"PricePulse/internal/metrics"
	"PricePulse/internal/model"
	"PricePulse/internal/regressor"
	"PricePulse/internal/store"
)

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func pricesOf(values ...float64) []model.PricePoint {
	out := make([]model.PricePoint, len(values))
	for i, v := range values {
		out[i] = model.PricePoint{Time: day0.AddDate(0, 0, i), Price: v}
	}
	return out
}

var history = pricesOf(100, 110, 105, 108, 112, 109, 115, 118, 114, 120)

func fixedClock() time.Time { return day0.AddDate(0, 0, 9).Add(12 * time.Hour) }

// failingStore fails the configured operations.
type failingStore struct {
	*store.MemoryStore
	failSave bool
	failList bool
}

func (s *failingStore) Save(ctx context.Context, v float64) (model.Prediction, error) {
	if s.failSave {
		return model.Prediction{}, errors.Join(model.ErrStoreUnavailable, errors.New("disk full"))
	}
	return s.MemoryStore.Save(ctx, v)
}

func (s *failingStore) ListAll(ctx context.Context) ([]model.Prediction, error) {
	if s.failList {
		return nil, errors.Join(model.ErrStoreUnavailable, errors.New("connection reset"))
	}
	return s.MemoryStore.ListAll(ctx)
}

type brokenRegressor struct{}

func (brokenRegressor) Train(context.Context, []model.WindowSample, int) (regressor.Predictor, error) {
	return nil, errors.New("diverged")
}

func newMLP() regressor.Regressor {
	return regressor.NewMLP(regressor.Config{Seed: 7})
}

func TestRun_Forecast(t *testing.T) {
	st := store.NewMemoryStore().WithClock(fixedClock)
	p := New(&collector.MockFetcher{Prices: history}, st, newMLP(), WithEpochs(200), WithClock(fixedClock))

	d, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d)

	assert.False(t, d.Degraded)
	assert.NotEmpty(t, d.RunID)
	assert.Equal(t, DefaultSymbol, d.Symbol)
	require.True(t, d.Forecast.Valid)
	assert.GreaterOrEqual(t, d.Forecast.Value, 100.0)
	assert.LessOrEqual(t, d.Forecast.Value, 120.0)

	require.NotNil(t, d.Summary)
	require.NotNil(t, d.Summary.Forecast)
	assert.Equal(t, "100", d.Summary.StartOfPeriod.String())
	assert.Equal(t, "114", d.Summary.PreviousPeriod.String())
	assert.Equal(t, "120", d.Summary.Latest.String())

	rows, err := st.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, d.Forecast.Value, rows[0].Value)

	require.NotNil(t, d.Chart)
	n := d.Chart.Len()
	require.Equal(t, 11, n)
	assert.Equal(t, model.ForecastKey, d.Chart.Dates[n-1])
	assert.False(t, d.Chart.PriceTrack[n-1].Valid)
	assert.Equal(t, d.Forecast, d.Chart.PredictionTrack[n-1])
	assert.Equal(t, "2024-01-10", d.Chart.Dates[n-2])
	assert.Equal(t, model.Some(120), d.Chart.PriceTrack[n-2])
	assert.Equal(t, model.None(), d.Chart.PredictionTrack[n-2], "fresh forecast is charted once, as the next period")
}

func TestRun_FreshForecastChartedOnce(t *testing.T) {
	st := store.NewMemoryStore().WithClock(fixedClock)
	_, err := st.Save(context.Background(), 117)
	require.NoError(t, err)

	p := New(&collector.MockFetcher{Prices: history}, st, newMLP(), WithEpochs(100), WithClock(fixedClock))
	d, err := p.Run(context.Background())
	require.NoError(t, err)
	require.True(t, d.Forecast.Valid)

	hits := 0
	for _, v := range d.Chart.PredictionTrack {
		if v.Valid && v.Value == d.Forecast.Value {
			hits++
		}
	}
	assert.Equal(t, 1, hits)

	n := d.Chart.Len()
	assert.Equal(t, "2024-01-10", d.Chart.Dates[n-2])
	assert.Equal(t, model.Some(117), d.Chart.PredictionTrack[n-2], "earlier row for the same date is kept")
}

func TestRun_IsDeterministicForSeed(t *testing.T) {
	run := func() float64 {
		p := New(&collector.MockFetcher{Prices: history}, store.NewMemoryStore(), newMLP(), WithEpochs(100))
		d, err := p.Run(context.Background())
		require.NoError(t, err)
		return d.Forecast.Value
	}
	assert.Equal(t, run(), run())
}

func TestRun_NoForecastMode(t *testing.T) {
	st := store.NewMemoryStore().WithClock(func() time.Time { return day0.AddDate(0, 0, 1) })
	_, err := st.Save(context.Background(), 108)
	require.NoError(t, err)

	p := New(&collector.MockFetcher{Prices: history[:2]}, st, nil)
	assert.False(t, p.ForecastEnabled())

	d, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, d.Degraded)
	assert.False(t, d.Forecast.Valid)
	assert.Nil(t, d.Summary.Forecast)

	require.NotNil(t, d.Chart)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, d.Chart.Dates)
	assert.Equal(t, []model.OptionalFloat{model.Some(100), model.Some(110)}, d.Chart.PriceTrack)
	assert.Equal(t, []model.OptionalFloat{model.None(), model.Some(108)}, d.Chart.PredictionTrack)
	assert.False(t, d.Chart.HasForecastPoint)

	rows, _ := st.ListAll(context.Background())
	assert.Len(t, rows, 1)
}

func TestRun_FetchFailureDegrades(t *testing.T) {
	st := store.NewMemoryStore()
	p := New(&collector.MockFetcher{Err: errors.New("timeout")}, st, newMLP())

	d, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.True(t, d.Degraded)
	require.Len(t, d.Issues, 1)
	assert.Contains(t, d.Issues[0], "price feed unavailable")
	assert.Nil(t, d.Summary)
	assert.Nil(t, d.Chart)
	assert.False(t, d.Forecast.Valid)

	rows, _ := st.ListAll(context.Background())
	assert.Empty(t, rows)
}

func TestRun_CancelledContextDegrades(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(&collector.MockFetcher{Prices: history}, store.NewMemoryStore(), newMLP())
	d, err := p.Run(ctx)
	require.NoError(t, err)
	assert.True(t, d.Degraded)
}

// cancellingFetcher cancels the run right after handing back prices.
type cancellingFetcher struct {
	collector.MockFetcher
	cancel context.CancelFunc
}

func (f *cancellingFetcher) FetchDailyPrices(ctx context.Context, symbol string, days int) ([]model.PricePoint, error) {
	prices, err := f.MockFetcher.FetchDailyPrices(ctx, symbol, days)
	f.cancel()
	return prices, err
}

func TestRun_TrainingFailureDegrades(t *testing.T) {
	tests := []struct {
		name string
		run  func(st store.PredictionStore) (*model.Dashboard, error)
	}{
		{"cancelled after fetch", func(st store.PredictionStore) (*model.Dashboard, error) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			f := &cancellingFetcher{MockFetcher: collector.MockFetcher{Prices: history}, cancel: cancel}
			return New(f, st, newMLP(), WithEpochs(50)).Run(ctx)
		}},
		{"regressor error", func(st store.PredictionStore) (*model.Dashboard, error) {
			return New(&collector.MockFetcher{Prices: history}, st, brokenRegressor{}).Run(context.Background())
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemoryStore()
			d, err := tt.run(st)
			require.NoError(t, err)
			require.NotNil(t, d)

			assert.True(t, d.Degraded)
			assert.Contains(t, d.Issues[0], "could not compute forecast")
			assert.NotContains(t, d.Issues[0], "train: train:")
			assert.Len(t, d.Prices, len(history))
			require.NotNil(t, d.Summary)
			assert.Nil(t, d.Summary.Forecast)
			assert.False(t, d.Forecast.Valid)
			assert.Nil(t, d.Chart)

			rows, _ := st.ListAll(context.Background())
			assert.Empty(t, rows, "no forecast may be written")
		})
	}
}

func TestRun_StructuralErrorsAbort(t *testing.T) {
	tests := []struct {
		name   string
		prices []model.PricePoint
		reg    regressor.Regressor
		want   error
	}{
		{"flat series", pricesOf(100, 100, 100, 100, 100), newMLP(), model.ErrDegenerateSeries},
		{"shorter than window", pricesOf(100, 110, 105), newMLP(), model.ErrInsufficientData},
		{"single price", pricesOf(100), newMLP(), model.ErrInsufficientData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemoryStore()
			p := New(&collector.MockFetcher{Prices: tt.prices}, st, tt.reg)

			d, err := p.Run(context.Background())
			require.Error(t, err)
			assert.Nil(t, d)
			assert.ErrorIs(t, err, tt.want)

			rows, _ := st.ListAll(context.Background())
			assert.Empty(t, rows, "no forecast may be written")
		})
	}
}

func TestRun_SaveFailureDegrades(t *testing.T) {
	st := &failingStore{MemoryStore: store.NewMemoryStore(), failSave: true}
	p := New(&collector.MockFetcher{Prices: history}, st, newMLP(), WithEpochs(50))

	d, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, d.Degraded)
	assert.Contains(t, d.Issues[0], "could not save forecast")
	require.NotNil(t, d.Summary)
	assert.Nil(t, d.Summary.Forecast)
	assert.False(t, d.Forecast.Valid)
	assert.Nil(t, d.Chart)
	assert.Len(t, d.Prices, len(history))
}

func TestRun_ListFailureDegrades(t *testing.T) {
	st := &failingStore{MemoryStore: store.NewMemoryStore(), failList: true}
	p := New(&collector.MockFetcher{Prices: history}, st, newMLP(), WithEpochs(50))

	d, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, d.Degraded)
	assert.Contains(t, d.Issues[0], "could not load stored forecasts")
	assert.Nil(t, d.Chart)
	assert.False(t, d.Forecast.Valid)

	// The forecast was persisted before the read failed.
	rows, _ := st.MemoryStore.ListAll(context.Background())
	assert.Len(t, rows, 1)
}

func TestRun_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	ok := New(&collector.MockFetcher{Prices: history}, store.NewMemoryStore(), newMLP(), WithEpochs(20), WithMetrics(m))
	_, err := ok.Run(context.Background())
	require.NoError(t, err)

	bad := New(&collector.MockFetcher{Err: errors.New("down")}, store.NewMemoryStore(), newMLP(), WithMetrics(m))
	_, err = bad.Run(context.Background())
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "pricepulse_pipeline_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	count, err = testutil.GatherAndCount(reg, "pricepulse_predictions_saved_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
