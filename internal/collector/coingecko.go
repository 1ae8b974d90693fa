package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"PricePulse/internal/model"
)

const defaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGeckoFetcher reads daily closes from the CoinGecko market_chart endpoint.
type CoinGeckoFetcher struct {
	BaseURL    string
	APIKey     string
	VsCurrency string
	Client     *http.Client
	limiter    *rate.Limiter
}

// NewCoinGeckoFetcher creates a fetcher limited to opts.RPS requests per second.
// The public API allows roughly one call every few seconds without a key.
func NewCoinGeckoFetcher(opts Options) *CoinGeckoFetcher {
	base := opts.BaseURL
	if base == "" {
		base = defaultCoinGeckoURL
	}
	vs := opts.VsCurrency
	if vs == "" {
		vs = "usd"
	}
	rps := opts.RPS
	if rps <= 0 {
		rps = 0.5
	}
	return &CoinGeckoFetcher{
		BaseURL:    strings.TrimRight(base, "/"),
		APIKey:     opts.APIKey,
		VsCurrency: vs,
		Client:     newHTTPClient(opts.ProxyURL),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

type marketChart struct {
	Prices [][2]float64 `json:"prices"`
}

func (f *CoinGeckoFetcher) FetchDailyPrices(ctx context.Context, symbol string, days int) ([]model.PricePoint, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, upstream(f.Name(), err)
	}

	q := url.Values{}
	q.Set("vs_currency", f.VsCurrency)
	q.Set("days", strconv.Itoa(days))
	q.Set("interval", "daily")
	u := fmt.Sprintf("%s/coins/%s/market_chart?%s", f.BaseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, upstream(f.Name(), err)
	}
	req.Header.Set("Accept", "application/json")
	if f.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", f.APIKey)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, upstream(f.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, upstream(f.Name(), fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, upstream(f.Name(), fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(body, 200)))
	}

	var chart marketChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, upstream(f.Name(), fmt.Errorf("decode: %w", err))
	}
	if len(chart.Prices) == 0 {
		return nil, upstream(f.Name(), fmt.Errorf("no prices for %s", symbol))
	}

	points := make([]model.PricePoint, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		points = append(points, model.PricePoint{
			Time:  time.UnixMilli(int64(p[0])).UTC(),
			Price: p[1],
		})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
