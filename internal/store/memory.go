package store

import (
	"context"
	"sync"
	"time"

	"PricePulse/internal/model"
)

// MemoryStore keeps predictions in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   []model.Prediction
	nextID int64
	now    func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1, now: time.Now}
}

// WithClock overrides the timestamp source.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

var _ PredictionStore = (*MemoryStore)(nil)

func (s *MemoryStore) Save(_ context.Context, value float64) (model.Prediction, error) {
	if err := CheckValue(value); err != nil {
		return model.Prediction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p := model.Prediction{ID: s.nextID, Value: value, CreatedAt: s.now().UTC()}
	s.nextID++
	s.rows = append(s.rows, p)
	return p, nil
}

// ListAll returns a copy; rows are appended in creation order already.
func (s *MemoryStore) ListAll(_ context.Context) ([]model.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Prediction, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
