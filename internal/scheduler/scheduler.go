package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"PricePulse/internal/logger"
	"PricePulse/internal/model"
	"PricePulse/internal/notifier"
	"PricePulse/internal/store"
)

// Runner executes one forecast cycle; *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context) (*model.Dashboard, error)
}

// Sender is satisfied by *notifier.TelegramNotifier.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

const sendRetries = 3

// Scheduler triggers forecast runs on a cron schedule so at least one
// forecast per period is recorded even when nobody loads the dashboard.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	Store    store.PredictionStore
	Notifier Sender
	Symbol   string
	Log      *logger.Logger
	Ctx      context.Context

	// running skips a tick while the previous run is still in progress.
	running sync.Mutex
}

// NewScheduler creates a new Scheduler. notifier may be nil.
func NewScheduler(ctx context.Context, runner Runner, st store.PredictionStore, n Sender, symbol string, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Runner:   runner,
		Store:    st,
		Notifier: n,
		Symbol:   symbol,
		Log:      log,
		Ctx:      ctx,
	}
}

// RegisterForecast schedules the forecast task. spec has six fields, seconds first.
func (s *Scheduler) RegisterForecast(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.forecastTask); err != nil {
		return fmt.Errorf("register forecast task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started", logger.Int("entries", len(s.Cron.Entries())))
}

// Stop stops the scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("scheduler stopped")
}

// RunForecastNow executes the forecast task immediately (RUN_ON_START, /forecast).
func (s *Scheduler) RunForecastNow() {
	s.forecastTask()
}

func (s *Scheduler) forecastTask() {
	if !s.running.TryLock() {
		s.Log.Warn("forecast task still running, skipping tick")
		return
	}
	defer s.running.Unlock()

	s.Log.Info("running forecast task")
	s.trySend(s.forecastReport(s.Ctx))
}

// forecastReport runs the pipeline and renders the outcome.
func (s *Scheduler) forecastReport(ctx context.Context) string {
	d, err := s.Runner.Run(ctx)
	if err != nil {
		s.Log.Error("forecast task failed", logger.Error(err))
		return notifier.FormatFailure(s.Symbol, err)
	}
	return notifier.FormatForecastReport(d)
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/forecast":
		return s.forecastReport(ctx)
	case "/history":
		if s.Store == nil {
			return "History is not available."
		}
		preds, err := s.Store.ListAll(ctx)
		if err != nil {
			s.Log.Warn("history command failed", logger.Error(err))
			return fmt.Sprintf("Could not load history: %v", err)
		}
		return notifier.FormatHistory(preds, 10)
	default:
		return "Available commands:\n• /forecast run a forecast now\n• /history last 10 stored forecasts"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		s.Log.Error("send notification", logger.Error(err))
	}
}
