package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

// Store implements ports.Store in process memory. Values do not survive a restart.
type Store struct {
	mu    sync.RWMutex // Makes SetMany and Update atomic with respect to readers
	cache *cache.Cache
}

// NewStore creates an in-memory store that evicts expired keys every cleanupInterval.
func NewStore(cleanupInterval time.Duration) *Store {
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}
	return &Store{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, found := s.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	return clone(v.([]byte)), true, nil
}

// GetMany returns copies of the live values under keys.
func (s *Store) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot(keys), nil
}

// Set stores a copy of value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.SetMany(ctx, []ports.Entry{{Key: key, Value: value}}, ttl)
}

// SetMany stores every entry while holding the write lock.
func (s *Store) SetMany(ctx context.Context, entries []ports.Entry, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(entries, ttl)
	return nil
}

// Update holds the write lock across the read, fn and the write.
func (s *Store) Update(ctx context.Context, keys []string, ttl time.Duration, fn ports.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := fn(s.snapshot(keys))
	if err != nil {
		return err
	}
	s.write(entries, ttl)
	return nil
}

func (s *Store) snapshot(keys []string) map[string][]byte {
	values := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, found := s.cache.Get(k); found {
			values[k] = clone(v.([]byte))
		}
	}
	return values
}

func (s *Store) write(entries []ports.Entry, ttl time.Duration) {
	expiration := ttl
	if ttl <= 0 {
		expiration = cache.NoExpiration
	}
	for _, e := range entries {
		s.cache.Set(e.Key, clone(e.Value), expiration)
	}
}

// Close drops every key.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Flush()
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
