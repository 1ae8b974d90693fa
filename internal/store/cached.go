package store

import (
	"context"
	"encoding/json"
	"time"

	"PricePulse/internal/logger"
	"PricePulse/internal/model"
)

const listAllKey = "predictions:all"

// Cache is a byte-oriented key/value cache with TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CachedStore serves ListAll from a cache and invalidates it on Save.
// Cache failures never fail a call; the underlying store is consulted instead.
type CachedStore struct {
	next  PredictionStore
	cache Cache
	ttl   time.Duration
	log   *logger.Logger
}

var _ PredictionStore = (*CachedStore)(nil)

// NewCachedStore wraps next. A nil log discards cache warnings.
func NewCachedStore(next PredictionStore, cache Cache, ttl time.Duration, log *logger.Logger) *CachedStore {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedStore{next: next, cache: cache, ttl: ttl, log: log}
}

func (s *CachedStore) Save(ctx context.Context, value float64) (model.Prediction, error) {
	p, err := s.next.Save(ctx, value)
	if err != nil {
		return p, err
	}
	if err := s.cache.Delete(ctx, listAllKey); err != nil {
		s.log.Warn("invalidate prediction cache", logger.Error(err))
	}
	return p, nil
}

func (s *CachedStore) ListAll(ctx context.Context) ([]model.Prediction, error) {
	data, ok, err := s.cache.Get(ctx, listAllKey)
	if err != nil {
		s.log.Warn("read prediction cache", logger.Error(err))
	}
	if ok {
		var preds []model.Prediction
		if err := json.Unmarshal(data, &preds); err == nil {
			return preds, nil
		}
		s.log.Warn("discard corrupt prediction cache entry")
	}

	preds, err := s.next.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(preds); err == nil {
		if err := s.cache.Set(ctx, listAllKey, data, s.ttl); err != nil {
			s.log.Warn("write prediction cache", logger.Error(err))
		}
	}
	return preds, nil
}

// Close closes the wrapped store. The cache is owned by the caller.
func (s *CachedStore) Close() error {
	return s.next.Close()
}
