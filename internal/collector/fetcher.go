package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"PricePulse/internal/model"
)

// Fetcher loads a trailing window of daily prices.
type Fetcher interface {
	// FetchDailyPrices returns prices sorted by time ascending. Failures wrap model.ErrUpstreamFetch.
	FetchDailyPrices(ctx context.Context, symbol string, days int) ([]model.PricePoint, error)
	Name() string
}

// Options selects and configures a Fetcher.
type Options struct {
	Source     string // coingecko, yahoo or mock
	BaseURL    string
	APIKey     string
	VsCurrency string
	RPS        float64
	ProxyURL   string
}

// New builds the fetcher named by opts.Source.
func New(opts Options) (Fetcher, error) {
	switch opts.Source {
	case "", "coingecko":
		return NewCoinGeckoFetcher(opts), nil
	case "yahoo":
		return NewYahooFetcher(opts.ProxyURL), nil
	case "mock":
		return &MockFetcher{Price: 60000}, nil
	default:
		return nil, fmt.Errorf("unknown feed source %q", opts.Source)
	}
}

func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

func upstream(source string, err error) error {
	return fmt.Errorf("%s: %w: %w", source, model.ErrUpstreamFetch, err)
}
