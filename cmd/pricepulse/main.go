package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"PricePulse/internal/collector"
	"PricePulse/internal/config"
	"PricePulse/internal/logger"
	"PricePulse/internal/metrics"
	"PricePulse/internal/notifier"
	"PricePulse/internal/pipeline"
	"PricePulse/internal/regressor"
	"PricePulse/internal/scheduler"
	"PricePulse/internal/server"
	"PricePulse/internal/store"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Error("pricepulse exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	log.Info("pricepulse starting", logger.String("symbol", cfg.Feed.Symbol))

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fetcher, err := collector.New(collector.Options{
		Source:     cfg.Feed.Source,
		BaseURL:    cfg.Feed.BaseURL,
		APIKey:     cfg.Feed.APIKey,
		VsCurrency: cfg.Feed.VsCurrency,
		RPS:        cfg.Feed.RPS,
		ProxyURL:   cfg.Proxy,
	})
	if err != nil {
		return fmt.Errorf("init fetcher: %w", err)
	}
	log.Info("data source ready", logger.String("source", fetcher.Name()))

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	var reg regressor.Regressor
	if cfg.Model.Enabled {
		reg = regressor.NewMLP(regressor.Config{
			HiddenLayers:   cfg.Model.HiddenLayers,
			LearningRate:   cfg.Model.LearningRate,
			Momentum:       cfg.Model.Momentum,
			ErrorThreshold: cfg.Model.ErrorThreshold,
			Seed:           cfg.Model.Seed,
			OnEpoch: func(epoch int, meanError float64) {
				log.Debug("training epoch", logger.Int("epoch", epoch), logger.Float("error", meanError))
			},
		})
	} else {
		log.Warn("forecasting disabled, charts show stored predictions only")
	}

	rec := metrics.New(prometheus.DefaultRegisterer)
	pipe := pipeline.New(fetcher, st, reg,
		pipeline.WithSymbol(cfg.Feed.Symbol),
		pipeline.WithDays(cfg.Feed.Days),
		pipeline.WithWindow(cfg.Model.Window),
		pipeline.WithEpochs(cfg.Model.Epochs),
		pipeline.WithLogger(log.With(logger.String("component", "pipeline"))),
		pipeline.WithMetrics(rec),
	)

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.Telegram.Enabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy,
			log.With(logger.String("component", "telegram")))
		sender = tn
	}

	sched := scheduler.NewScheduler(ctx, pipe, st, sender, cfg.Feed.Symbol,
		log.With(logger.String("component", "scheduler")))
	if pipe.ForecastEnabled() {
		if err := sched.RegisterForecast(cfg.Schedule.ForecastCron); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	if cfg.Server.Enabled {
		srv := server.New(
			server.NewHandler(st, pipe, log.With(logger.String("component", "api"))),
			server.WithHost(cfg.Server.Host),
			server.WithPort(cfg.Server.Port),
			server.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
			server.WithLogger(log.With(logger.String("component", "http"))),
		)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("start http server: %w", err)
		}
		defer func() {
			if err := srv.Stop(context.Background()); err != nil {
				log.Error("http server shutdown", logger.Error(err))
			}
		}()
	}

	if cfg.Schedule.RunOnStart && pipe.ForecastEnabled() {
		log.Info("run_on_start enabled, executing forecast now")
		go sched.RunForecastNow()
	}

	log.Info("pricepulse is running, press Ctrl+C to stop")
	<-ctx.Done()
	log.Info("shutdown signal received, stopping")
	return nil
}

// openStore builds the configured backend, wrapped in the Redis read cache when enabled.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.PredictionStore, error) {
	var (
		st  store.PredictionStore
		err error
	)
	switch cfg.Store.Backend {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Store.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		st, err = store.NewSQLiteStore(cfg.Store.SQLitePath)
	case "postgres":
		st, err = store.NewPostgresStore(ctx, cfg.Store.DatabaseURL)
	case "http":
		st = store.NewHTTPStore(cfg.Store.HTTPBaseURL, nil)
	default:
		log.Warn("using in-memory prediction store, forecasts are lost on restart")
		st = store.NewMemoryStore()
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	log.Info("prediction store ready", logger.String("backend", cfg.Store.Backend))

	if !cfg.Cache.Enabled {
		return st, nil
	}
	cache, err := store.NewRedisCache(ctx, store.RedisConfig{
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})
	if err != nil {
		log.Warn("redis cache unavailable, reading the store directly", logger.Error(err))
		return st, nil
	}
	return &cachedWithClose{
		CachedStore: store.NewCachedStore(st, cache, cfg.Cache.TTL, log.With(logger.String("component", "cache"))),
		cache:       cache,
	}, nil
}

// cachedWithClose also releases the Redis connection on Close.
type cachedWithClose struct {
	*store.CachedStore
	cache *store.RedisCache
}

func (c *cachedWithClose) Close() error {
	err := c.CachedStore.Close()
	if cerr := c.cache.Close(); err == nil {
		err = cerr
	}
	return err
}
