package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Feed     FeedConfig     `yaml:"feed"`
	Model    ModelConfig    `yaml:"model"`
	Store    StoreConfig    `yaml:"store"`
	Cache    CacheConfig    `yaml:"cache"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Telegram TelegramConfig `yaml:"telegram"`
	Log      LogConfig      `yaml:"log"`
	Proxy    string         `yaml:"proxy"`
}

type ServerConfig struct {
	Enabled         bool          `yaml:"enabled" default:"true"`
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

type FeedConfig struct {
	Source     string  `yaml:"source" default:"coingecko"`
	Symbol     string  `yaml:"symbol" default:"bitcoin"`
	VsCurrency string  `yaml:"vs_currency" default:"usd"`
	Days       int     `yaml:"days" default:"30"`
	BaseURL    string  `yaml:"base_url"`
	APIKey     string  `yaml:"api_key"`
	RPS        float64 `yaml:"rps" default:"0.5"`
}

type ModelConfig struct {
	Enabled        bool    `yaml:"enabled" default:"true"`
	Window         int     `yaml:"window" default:"3"`
	Epochs         int     `yaml:"epochs" default:"1000"`
	HiddenLayers   []int   `yaml:"hidden_layers" default:"[5,5]"`
	LearningRate   float64 `yaml:"learning_rate" default:"0.3"`
	Momentum       float64 `yaml:"momentum" default:"0.1"`
	ErrorThreshold float64 `yaml:"error_threshold" default:"0.005"`
	Seed           int64   `yaml:"seed" default:"1"`
}

type StoreConfig struct {
	Backend     string `yaml:"backend" default:"sqlite"`
	SQLitePath  string `yaml:"sqlite_path" default:"data/pricepulse.db"`
	DatabaseURL string `yaml:"database_url"`
	HTTPBaseURL string `yaml:"http_base_url"`
}

type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr" default:"localhost:6379"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl" default:"5m"`
}

type ScheduleConfig struct {
	// ForecastCron uses the six-field format with seconds.
	ForecastCron string `yaml:"forecast_cron" default:"0 5 0 * * *"`
	RunOnStart   bool   `yaml:"run_on_start"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"console"`
	Output string `yaml:"output" default:"stdout"`
}

// Path returns $CONFIG_PATH or DefaultPath.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads .env and the YAML file at path, then applies environment
// variable overrides. Missing files are not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Store.DatabaseURL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Store.SQLitePath = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Addr = v
		c.Cache.Enabled = true
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("PRICE_SYMBOL"); v != "" {
		c.Feed.Symbol = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("CRON_FORECAST"); v != "" {
		c.Schedule.ForecastCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks field ranges and backend-specific requirements.
func (c *Config) Validate() error {
	switch c.Feed.Source {
	case "coingecko", "yahoo", "mock":
	default:
		return fmt.Errorf("feed.source must be coingecko, yahoo or mock, got %q", c.Feed.Source)
	}
	if c.Feed.Symbol == "" {
		return fmt.Errorf("feed.symbol is required")
	}
	if c.Model.Window < 1 {
		return fmt.Errorf("model.window must be at least 1")
	}
	if c.Feed.Days <= c.Model.Window {
		return fmt.Errorf("feed.days (%d) must exceed model.window (%d)", c.Feed.Days, c.Model.Window)
	}
	if c.Model.Enabled {
		if len(c.Model.HiddenLayers) == 0 {
			return fmt.Errorf("model.hidden_layers must not be empty")
		}
		for _, n := range c.Model.HiddenLayers {
			if n < 1 {
				return fmt.Errorf("model.hidden_layers entries must be positive")
			}
		}
	}

	switch c.Store.Backend {
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite backend")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("store.database_url is required for the postgres backend")
		}
	case "http":
		if c.Store.HTTPBaseURL == "" {
			return fmt.Errorf("store.http_base_url is required for the http backend")
		}
	case "memory":
	default:
		return fmt.Errorf("store.backend must be sqlite, postgres, http or memory, got %q", c.Store.Backend)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Schedule.ForecastCron == "" {
		return fmt.Errorf("schedule.forecast_cron is required")
	}
	return nil
}
