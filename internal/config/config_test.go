package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Feed.Symbol != "bitcoin" || cfg.Feed.VsCurrency != "usd" || cfg.Feed.Days != 30 {
		t.Errorf("feed defaults = %+v", cfg.Feed)
	}
	if !cfg.Model.Enabled || cfg.Model.Window != 3 || cfg.Model.Epochs != 1000 {
		t.Errorf("model defaults = %+v", cfg.Model)
	}
	if !reflect.DeepEqual(cfg.Model.HiddenLayers, []int{5, 5}) {
		t.Errorf("hidden layers = %v", cfg.Model.HiddenLayers)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Schedule.ForecastCron != "0 5 0 * * *" {
		t.Errorf("store/schedule defaults = %+v %+v", cfg.Store, cfg.Schedule)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("cache ttl = %v", cfg.Cache.TTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
feed:
  source: yahoo
  symbol: BTC-USD
  days: 60
model:
  enabled: false
  hidden_layers: [8]
store:
  backend: memory
cache:
  ttl: 30s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Feed.Source != "yahoo" || cfg.Feed.Symbol != "BTC-USD" || cfg.Feed.Days != 60 {
		t.Errorf("feed = %+v", cfg.Feed)
	}
	if cfg.Model.Enabled {
		t.Error("model.enabled: false should be kept")
	}
	if !reflect.DeepEqual(cfg.Model.HiddenLayers, []int{8}) {
		t.Errorf("hidden layers = %v", cfg.Model.HiddenLayers)
	}
	if cfg.Model.Window != 3 {
		t.Errorf("unset window should keep default, got %d", cfg.Model.Window)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("ttl = %v", cfg.Cache.TTL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db/pricepulse")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("PRICE_SYMBOL", "ethereum")
	t.Setenv("CRON_FORECAST", "0 0 * * * *")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "store:\n  backend: sqlite\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Backend != "postgres" || cfg.Store.DatabaseURL != "postgres://u:p@db/pricepulse" {
		t.Errorf("store = %+v", cfg.Store)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Addr != "redis:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Server.Port != 9090 || cfg.Feed.Symbol != "ethereum" || cfg.Log.Level != "debug" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Schedule.ForecastCron != "0 0 * * * *" {
		t.Errorf("cron = %q", cfg.Schedule.ForecastCron)
	}
}

func TestLoad_BadInput(t *testing.T) {
	if _, err := Load(writeConfig(t, "feed: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
	t.Setenv("HTTP_PORT", "eighty")
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected HTTP_PORT error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "mongo" }, "store.backend"},
		{"postgres without url", func(c *Config) { c.Store.Backend = "postgres" }, "database_url"},
		{"http without url", func(c *Config) { c.Store.Backend = "http" }, "http_base_url"},
		{"zero window", func(c *Config) { c.Model.Window = 0 }, "model.window"},
		{"days not above window", func(c *Config) { c.Feed.Days = 3 }, "feed.days"},
		{"no hidden layers", func(c *Config) { c.Model.HiddenLayers = nil }, "hidden_layers"},
		{"unknown source", func(c *Config) { c.Feed.Source = "binance" }, "feed.source"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ForecastDisabledSkipsModelChecks(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Model.Enabled = false
	cfg.Model.HiddenLayers = nil
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTelegramEnabled(t *testing.T) {
	if (TelegramConfig{BotToken: "t"}).Enabled() {
		t.Error("token without chat id should be disabled")
	}
	if !(TelegramConfig{BotToken: "t", ChatID: "1"}).Enabled() {
		t.Error("expected enabled")
	}
}
