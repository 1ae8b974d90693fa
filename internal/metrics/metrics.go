package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes reported by RecordRun.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeFailed   = "failed"
)

// Recorder collects pipeline metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	runs         *prometheus.CounterVec
	forecast     prometheus.Gauge
	trainSeconds prometheus.Histogram
	predictions  prometheus.Counter
	stageErrors  *prometheus.CounterVec
}

// New registers the pipeline metrics with reg. Passing prometheus.DefaultRegisterer
// exposes them on the default /metrics handler.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricepulse_pipeline_runs_total",
				Help: "Total number of pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		forecast: f.NewGauge(prometheus.GaugeOpts{
			Name: "pricepulse_forecast_value",
			Help: "Most recent denormalized forecast",
		}),
		trainSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricepulse_training_seconds",
			Help:    "Duration of regressor training in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		predictions: f.NewCounter(prometheus.CounterOpts{
			Name: "pricepulse_predictions_saved_total",
			Help: "Total number of forecasts persisted",
		}),
		stageErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricepulse_stage_errors_total",
				Help: "Total number of errors by pipeline stage",
			},
			[]string{"stage"},
		),
	}
}

func (r *Recorder) RecordRun(outcome string) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordForecast(value float64) {
	if r == nil {
		return
	}
	r.forecast.Set(value)
}

func (r *Recorder) RecordTraining(seconds float64) {
	if r == nil {
		return
	}
	r.trainSeconds.Observe(seconds)
}

func (r *Recorder) RecordSaved() {
	if r == nil {
		return
	}
	r.predictions.Inc()
}

func (r *Recorder) RecordStageError(stage string) {
	if r == nil {
		return
	}
	r.stageErrors.WithLabelValues(stage).Inc()
}
