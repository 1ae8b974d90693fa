package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"PricePulse/internal/model"
)

const predictionsPath = "/api/bitcoin"

// HTTPStore talks to a remote persistence endpoint that speaks the
// /api/bitcoin contract served by internal/server.
type HTTPStore struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

var _ PredictionStore = (*HTTPStore)(nil)

// NewHTTPStore creates a client for the endpoint at baseURL. A nil client
// gets a 10s timeout default.
func NewHTTPStore(baseURL string, client *http.Client) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		now:     time.Now,
	}
}

type wirePrediction struct {
	ID        int64   `json:"id"`
	Value     float64 `json:"value"`
	CreatedAt string  `json:"created_at"`
}

func (w wirePrediction) toModel() (model.Prediction, error) {
	t, err := model.ParseTime(w.CreatedAt)
	if err != nil {
		return model.Prediction{}, err
	}
	return model.Prediction{ID: w.ID, Value: w.Value, CreatedAt: t}, nil
}

type saveResponse struct {
	Success bool            `json:"success"`
	Value   float64         `json:"value"`
	Data    *wirePrediction `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type listResponse struct {
	Success bool             `json:"success"`
	Data    []wirePrediction `json:"data"`
	Error   string           `json:"error,omitempty"`
}

func (s *HTTPStore) Save(ctx context.Context, value float64) (model.Prediction, error) {
	if err := CheckValue(value); err != nil {
		return model.Prediction{}, err
	}

	body, err := json.Marshal(map[string]float64{"value": value})
	if err != nil {
		return model.Prediction{}, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+predictionsPath, bytes.NewReader(body))
	if err != nil {
		return model.Prediction{}, unavailable("build save request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out saveResponse
	status, err := s.do(req, &out)
	if err != nil {
		return model.Prediction{}, unavailable("save prediction", err)
	}
	switch {
	case status == http.StatusBadRequest:
		return model.Prediction{}, fmt.Errorf("remote rejected %v (%s): %w", value, out.Error, model.ErrInvalidValue)
	case status >= 300:
		return model.Prediction{}, unavailable("save prediction", fmt.Errorf("status %d: %s", status, out.Error))
	case !out.Success:
		return model.Prediction{}, unavailable("save prediction", fmt.Errorf("endpoint reported failure"))
	}

	// Endpoints that only echo the value get a locally stamped row.
	if out.Data == nil {
		return model.Prediction{Value: out.Value, CreatedAt: s.now().UTC()}, nil
	}
	p, err := out.Data.toModel()
	if err != nil {
		return model.Prediction{}, unavailable("decode saved prediction", err)
	}
	return p, nil
}

func (s *HTTPStore) ListAll(ctx context.Context) ([]model.Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+predictionsPath, nil)
	if err != nil {
		return nil, unavailable("build list request", err)
	}

	var out listResponse
	status, err := s.do(req, &out)
	if err != nil {
		return nil, unavailable("list predictions", err)
	}
	if status != http.StatusOK || !out.Success {
		return nil, unavailable("list predictions", fmt.Errorf("status %d: %s", status, out.Error))
	}

	preds := make([]model.Prediction, 0, len(out.Data))
	for _, w := range out.Data {
		p, err := w.toModel()
		if err != nil {
			return nil, unavailable("decode prediction", err)
		}
		preds = append(preds, p)
	}
	sort.SliceStable(preds, func(i, j int) bool {
		if preds[i].CreatedAt.Equal(preds[j].CreatedAt) {
			return preds[i].ID < preds[j].ID
		}
		return preds[i].CreatedAt.Before(preds[j].CreatedAt)
	})
	return preds, nil
}

// do executes req and decodes the JSON body into out regardless of status.
func (s *HTTPStore) do(req *http.Request, out any) (int, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil && resp.StatusCode < 300 {
			return resp.StatusCode, fmt.Errorf("decode body: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (s *HTTPStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
