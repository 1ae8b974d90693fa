// Package pipeline runs one fetch, train, persist and align cycle.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"PricePulse/internal/align"
	"PricePulse/internal/collector"
	"PricePulse/internal/logger"
	"PricePulse/internal/metrics"
	"PricePulse/internal/model"
	"PricePulse/internal/regressor"
	"PricePulse/internal/series"
	"PricePulse/internal/store"
)

const (
	DefaultSymbol = "bitcoin"
	DefaultDays   = 30
)

// Pipeline produces dashboards. It holds no per-run state, so one value may
// serve concurrent runs.
type Pipeline struct {
	fetcher collector.Fetcher
	store   store.PredictionStore
	reg     regressor.Regressor

	symbol  string
	days    int
	window  int
	epochs  int
	log     *logger.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithSymbol(symbol string) Option { return func(p *Pipeline) { p.symbol = symbol } }

// WithDays sets how many trailing days of history are fetched.
func WithDays(days int) Option { return func(p *Pipeline) { p.days = days } }

func WithWindow(w int) Option { return func(p *Pipeline) { p.window = w } }

// WithEpochs sets the training epoch budget; <= 0 leaves the regressor default.
func WithEpochs(n int) Option { return func(p *Pipeline) { p.epochs = n } }

func WithLogger(l *logger.Logger) Option { return func(p *Pipeline) { p.log = l } }

func WithMetrics(m *metrics.Recorder) Option { return func(p *Pipeline) { p.metrics = m } }

func WithClock(now func() time.Time) Option { return func(p *Pipeline) { p.now = now } }

// New creates a Pipeline. A nil reg disables forecasting: stored predictions
// are still charted but nothing is trained or written.
func New(fetcher collector.Fetcher, st store.PredictionStore, reg regressor.Regressor, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher: fetcher,
		store:   st,
		reg:     reg,
		symbol:  DefaultSymbol,
		days:    DefaultDays,
		window:  series.DefaultWindow,
		log:     logger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ForecastEnabled reports whether runs train and persist a forecast.
func (p *Pipeline) ForecastEnabled() bool { return p.reg != nil }

// Run executes one cycle. Structural failures (flat or too short history,
// training errors) return a nil dashboard and the error. Feed and store
// failures return a degraded dashboard and a nil error.
func (p *Pipeline) Run(ctx context.Context) (*model.Dashboard, error) {
	runID := uuid.NewString()
	log := p.log.With(logger.String("run_id", runID), logger.String("symbol", p.symbol))
	start := p.now()

	d := &model.Dashboard{
		RunID:       runID,
		Symbol:      p.symbol,
		GeneratedAt: start.UTC(),
		Forecast:    model.None(),
	}

	prices, err := p.fetcher.FetchDailyPrices(ctx, p.symbol, p.days)
	if err != nil {
		return p.degrade(log, d, "fetch", "price feed unavailable", err), nil
	}
	d.Prices = prices
	log.Debug("prices fetched", logger.Int("count", len(prices)), logger.String("source", p.fetcher.Name()))

	summary, err := series.Summarize(prices)
	if err != nil {
		return nil, p.fail(log, "summary", err)
	}
	d.Summary = summary

	forecast := model.None()
	var saved model.Prediction
	if p.reg != nil {
		value, err := p.forecast(ctx, log, prices)
		if err != nil {
			if model.IsStructural(err) {
				return nil, p.fail(log, "train", err)
			}
			return p.degrade(log, d, "train", "could not compute forecast", err), nil
		}
		saved, err = p.store.Save(ctx, value)
		if err != nil {
			if model.IsStructural(err) {
				return nil, p.fail(log, "store", err)
			}
			return p.degrade(log, d, "store", "could not save forecast", err), nil
		}
		p.metrics.RecordSaved()
		p.metrics.RecordForecast(value)
		forecast = model.Some(value)
	}

	stored, err := p.store.ListAll(ctx)
	if err != nil {
		return p.degrade(log, d, "store", "could not load stored forecasts", err), nil
	}

	if forecast.Valid {
		stored = withoutSaved(stored, saved)
	}
	chart := align.Align(align.FromPrices(prices), align.FromPredictions(stored), forecast)
	d.Chart = &chart
	d.Forecast = forecast
	if forecast.Valid {
		d.Summary = series.WithForecast(summary, forecast.Value)
	}

	p.metrics.RecordRun(metrics.OutcomeOK)
	log.Info("pipeline run complete",
		logger.Int("points", chart.Len()),
		logger.Int("stored", len(stored)),
		logger.Bool("forecast", forecast.Valid),
		logger.Duration("elapsed", p.now().Sub(start)),
	)
	return d, nil
}

// forecast trains on the fetched closes and predicts the next one.
func (p *Pipeline) forecast(ctx context.Context, log *logger.Logger, prices []model.PricePoint) (float64, error) {
	norm, err := series.Normalize(model.Closes(prices))
	if err != nil {
		return 0, err
	}
	samples := series.BuildWindows(norm.Values, p.window)
	if len(samples) == 0 {
		return 0, fmt.Errorf("%d prices for window %d: %w", len(norm.Values), p.window, model.ErrInsufficientData)
	}

	trainStart := time.Now()
	predictor, err := p.reg.Train(ctx, samples, p.epochs)
	if err != nil {
		return 0, err
	}
	p.metrics.RecordTraining(time.Since(trainStart).Seconds())

	fields := []logger.Field{
		logger.Int("samples", len(samples)),
		logger.Duration("took", time.Since(trainStart)),
	}
	if r, ok := predictor.(interface{ Report() regressor.TrainingReport }); ok {
		rep := r.Report()
		fields = append(fields,
			logger.Int("epochs", rep.Epochs),
			logger.Float("initial_error", rep.InitialError),
			logger.Float("final_error", rep.FinalError),
		)
	}
	log.Info("regressor trained", fields...)

	tail, err := series.TrailingWindow(norm.Values, p.window)
	if err != nil {
		return 0, err
	}
	out, err := predictor.Predict(tail)
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	value := norm.Denormalize(out)
	log.Info("forecast computed", logger.Float("normalized", out), logger.Float("value", value))
	return value, nil
}

// withoutSaved drops the row written by this run; it is charted as the
// next-period point instead of under its creation date.
func withoutSaved(stored []model.Prediction, saved model.Prediction) []model.Prediction {
	for i := len(stored) - 1; i >= 0; i-- {
		r := stored[i]
		match := r.ID == saved.ID
		if saved.ID == 0 {
			match = r.Value == saved.Value && r.CreatedAt.Equal(saved.CreatedAt)
		}
		if match {
			out := make([]model.Prediction, 0, len(stored)-1)
			out = append(out, stored[:i]...)
			return append(out, stored[i+1:]...)
		}
	}
	return stored
}

func (p *Pipeline) degrade(log *logger.Logger, d *model.Dashboard, stage, issue string, err error) *model.Dashboard {
	log.Warn("pipeline degraded", logger.String("stage", stage), logger.Error(err))
	p.metrics.RecordStageError(stage)
	p.metrics.RecordRun(metrics.OutcomeDegraded)
	d.Degrade(fmt.Sprintf("%s: %v", issue, err))
	return d
}

func (p *Pipeline) fail(log *logger.Logger, stage string, err error) error {
	log.Error("pipeline aborted", logger.String("stage", stage), logger.Error(err))
	p.metrics.RecordStageError(stage)
	p.metrics.RecordRun(metrics.OutcomeFailed)
	return err
}
