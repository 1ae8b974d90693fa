package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"PricePulse/internal/model"
)

func TestCoinGeckoFetcher(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("x-cg-demo-api-key")
		w.Write([]byte(`{"prices":[[1704153600000,110.5],[1704067200000,100.25]],"market_caps":[],"total_volumes":[]}`))
	}))
	defer srv.Close()

	f := NewCoinGeckoFetcher(Options{BaseURL: srv.URL, APIKey: "k", RPS: 100})
	points, err := f.FetchDailyPrices(context.Background(), "bitcoin", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/coins/bitcoin/market_chart" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "days=30&interval=daily&vs_currency=usd" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotKey != "k" {
		t.Errorf("api key header = %q", gotKey)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2", len(points))
	}
	if points[0].Price != 100.25 || model.DateKeyOf(points[0].Time) != "2024-01-01" {
		t.Errorf("first point = %+v, want 2024-01-01 100.25", points[0])
	}
	if points[1].Price != 110.5 {
		t.Errorf("second price = %v", points[1].Price)
	}
}

func TestCoinGeckoFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusTooManyRequests, `{"status":{"error_code":429}}`},
		{"bad json", http.StatusOK, `not json`},
		{"no prices", http.StatusOK, `{"prices":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewCoinGeckoFetcher(Options{BaseURL: srv.URL, RPS: 100})
			_, err := f.FetchDailyPrices(context.Background(), "bitcoin", 30)
			if !errors.Is(err, model.ErrUpstreamFetch) {
				t.Fatalf("err = %v, want ErrUpstreamFetch", err)
			}
		})
	}
}

func TestCoinGeckoFetcher_CancelledContext(t *testing.T) {
	f := NewCoinGeckoFetcher(Options{BaseURL: "http://127.0.0.1:0", RPS: 100})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.FetchDailyPrices(ctx, "bitcoin", 30)
	if !errors.Is(err, model.ErrUpstreamFetch) {
		t.Fatalf("err = %v, want ErrUpstreamFetch", err)
	}
}

func TestYahooFetcher(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[1704240000,1704067200,1704153600],
			"indicators":{"quote":[{"close":[103.0,101.0,null]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	points, err := f.FetchDailyPrices(context.Background(), "bitcoin", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v8/finance/chart/BTC-USD" {
		t.Errorf("path = %q", gotPath)
	}
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2 (null bar skipped)", len(points))
	}
	if points[0].Price != 101 || points[1].Price != 103 {
		t.Errorf("points not sorted: %+v", points)
	}
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	if _, err := f.FetchDailyPrices(context.Background(), "NOPE", 30); !errors.Is(err, model.ErrUpstreamFetch) {
		t.Fatalf("err = %v, want ErrUpstreamFetch", err)
	}
}

func TestMockFetcher(t *testing.T) {
	m := &MockFetcher{Price: 100}
	points, err := m.FetchDailyPrices(context.Background(), "bitcoin", 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 30 {
		t.Fatalf("got %d points, want 30", len(points))
	}
	for i := 1; i < len(points); i++ {
		if !points[i-1].Time.Before(points[i].Time) {
			t.Fatalf("points not ascending at %d", i)
		}
	}

	m.Err = errors.New("boom")
	if _, err := m.FetchDailyPrices(context.Background(), "bitcoin", 30); !errors.Is(err, model.ErrUpstreamFetch) {
		t.Fatalf("err = %v, want ErrUpstreamFetch", err)
	}
}

func TestNew(t *testing.T) {
	for _, src := range []string{"", "coingecko", "yahoo", "mock"} {
		if _, err := New(Options{Source: src}); err != nil {
			t.Errorf("New(%q): %v", src, err)
		}
	}
	if _, err := New(Options{Source: "binance"}); err == nil {
		t.Error("expected error for unknown source")
	}
}
