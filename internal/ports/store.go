package ports

import (
	"context"
	"time"
)

// Entry is a single key/value pair written by Store.SetMany.
type Entry struct {
	Key   string
	Value []byte
}

// UpdateFunc receives the live values of the keys passed to Store.Update, absent and expired
// keys omitted, and returns the entries to write. A non-nil error aborts the update and is
// returned by Update unchanged.
type UpdateFunc func(current map[string][]byte) ([]Entry, error)

// Store is a durable key-value map with a per-key time-to-live.
// Expired keys behave exactly like absent keys.
type Store interface {
	// Get returns the value stored under key. found is false when the key is absent or expired.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// GetMany reads keys as one consistent snapshot. Absent and expired keys are omitted.
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
	// Set stores value under key. A ttl <= 0 means the key never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetMany stores all entries atomically: either every entry is written or none is.
	SetMany(ctx context.Context, entries []Entry, ttl time.Duration) error
	// Update reads keys, calls fn and writes the returned entries in one transaction.
	// Updates are serialized against every other writer of the same store, including
	// writers in other processes sharing the database.
	Update(ctx context.Context, keys []string, ttl time.Duration, fn UpdateFunc) error
	// Close releases the underlying resources.
	Close() error
}
