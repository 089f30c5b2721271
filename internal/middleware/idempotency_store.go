package middleware

import (
	"time"

	"github.com/guttosm/hackathon-service/internal/cache"
	"github.com/guttosm/hackathon-service/internal/logger"
)

// DefaultIdempotencyMaxSize bounds the number of replayable responses.
const DefaultIdempotencyMaxSize = 10000

// IdempotencyStore keeps replayable responses in a Manager of their own, so
// page-cache eviction, Clear and pattern invalidation never touch them.
// Expired records are dropped lazily on lookup and ahead of older ones when
// the store is full.
type IdempotencyStore struct {
	m   *cache.Manager
	ttl time.Duration
}

// NewIdempotencyStore creates a store whose records live for ttl.
// Non-positive arguments fall back to the defaults.
func NewIdempotencyStore(ttl time.Duration, maxSize int) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultIdempotencyMaxSize
	}
	m := cache.NewManager(cache.Config{
		DefaultTTL: ttl,
		StaleTime:  ttl,
		MaxSize:    maxSize,
	}, cache.WithoutGC(), cache.WithLogger(logger.Component("idempotency")))
	return &IdempotencyStore{m: m, ttl: ttl}
}

func (s *IdempotencyStore) get(key string) (storedResponse, bool) {
	entry, ok := s.m.Get(key)
	if !ok {
		return storedResponse{}, false
	}
	resp, ok := entry.Data.(storedResponse)
	return resp, ok
}

func (s *IdempotencyStore) put(key string, resp storedResponse) {
	s.m.Set(key, resp, s.ttl)
}

// Len returns the number of records held, expired ones included until
// they are looked up or evicted.
func (s *IdempotencyStore) Len() int {
	return s.m.Stats().Size
}

// Close drops every record.
func (s *IdempotencyStore) Close() {
	s.m.Destroy()
}
