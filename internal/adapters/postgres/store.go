package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

// Store implements ports.Store on a PostgreSQL key-value table.
type Store struct {
	pool   *pgxpool.Pool
	logger ports.Logger
}

// Config holds configuration for the PostgreSQL store.
type Config struct {
	DatabaseURL string
	Logger      ports.Logger
}

// NewStore connects to PostgreSQL, verifies connectivity and ensures the schema exists.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for PostgreSQL store")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database url is required: %w", ports.ErrConfigurationError)
	}

	config, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w: %w", ports.ErrConfigurationError, err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w: %w", ports.ErrDBConnection, err)
	}
	// Ensure the connection is established.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w: %w", ports.ErrDBConnection, err)
	}

	s := &Store{pool: pool, logger: cfg.Logger}
	if err := s.initializeSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	cfg.Logger.Info(ctx, "PostgreSQL connection established", ports.Fields{
		"host":     config.ConnConfig.Host,
		"database": config.ConnConfig.Database,
	})
	return s, nil
}

func (s *Store) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value BYTEA NOT NULL,
		expires_at TIMESTAMPTZ NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w: %w", ports.ErrQueryFailed, err)
	}
	return nil
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.logger.Info(context.Background(), "Closing PostgreSQL pool")
	s.pool.Close()
	return nil
}

// Get returns the value stored under key, treating expired rows as absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const query = `SELECT value FROM kv_store WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`

	var value []byte
	if err := s.pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read key %s: %w: %w", key, ports.ErrQueryFailed, err)
	}
	return value, true, nil
}

// GetMany reads keys with a single statement, so the result is one snapshot.
func (s *Store) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	return readKeys(ctx, s.pool, keys)
}

// Set upserts a single key.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.SetMany(ctx, []ports.Entry{{Key: key, Value: value}}, ttl)
}

// SetMany upserts all entries in one transaction, locking their keys like Update does.
func (s *Store) SetMany(ctx context.Context, entries []ports.Entry, ttl time.Duration) error {
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return s.Update(ctx, keys, ttl, func(map[string][]byte) ([]ports.Entry, error) {
		return entries, nil
	})
}

// Update takes a transaction-scoped advisory lock per key, in sorted order, then reads,
// calls fn and writes before committing. Keys that do not exist yet are locked too.
func (s *Store) Update(ctx context.Context, keys []string, ttl time.Duration, fn ports.UpdateFunc) error {
	const query = `
	INSERT INTO kv_store (key, value, expires_at, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (key) DO UPDATE SET
		value = EXCLUDED.value,
		expires_at = EXCLUDED.expires_at,
		updated_at = EXCLUDED.updated_at`

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w: %w", ports.ErrUpdateFailed, err)
	}
	defer tx.Rollback(ctx) // No-op after a successful commit

	locked := append([]string(nil), keys...)
	sort.Strings(locked)
	for _, k := range locked {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, k); err != nil {
			return fmt.Errorf("failed to lock key %s: %w: %w", k, ports.ErrUpdateFailed, err)
		}
	}

	current, err := readKeys(ctx, tx, keys)
	if err != nil {
		return err
	}
	entries, err := fn(current)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl).UTC()
		expiresAt = &t
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query, e.Key, e.Value, expiresAt)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to write %d keys: %w: %w", len(entries), ports.ErrUpdateFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %d keys: %w: %w", len(entries), ports.ErrUpdateFailed, err)
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func readKeys(ctx context.Context, q querier, keys []string) (map[string][]byte, error) {
	const query = `SELECT key, value FROM kv_store WHERE key = ANY($1) AND (expires_at IS NULL OR expires_at > now())`

	values := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	rows, err := q.Query(ctx, query, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to read %d keys: %w: %w", len(keys), ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan key row: %w: %w", ports.ErrQueryFailed, err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating key rows: %w: %w", ports.ErrQueryFailed, err)
	}
	return values, nil
}
