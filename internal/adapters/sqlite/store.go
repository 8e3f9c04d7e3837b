package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pawankumargali/pnl-tracker/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store implements the ports.Store interface on a single SQLite key-value table.
type Store struct {
	db     *sql.DB
	logger ports.Logger
	now    func() time.Time
}

// Config holds configuration for the SQLite store.
type Config struct {
	DBPath string
	Logger ports.Logger
	Clock  func() time.Time // Defaults to time.Now
}

// NewStore creates a new SQLite store, creating the database file and schema if needed.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite store")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/pnl_tracker.db"
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	// _txlock=immediate takes the database write lock at BEGIN, so a read-modify-write in
	// Update cannot interleave with another connection, in this process or any other.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	// A single connection serializes writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", ports.Fields{"path": dbPath})

	s := &Store{db: db, logger: cfg.Logger, now: clock}

	if err := s.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	purged, err := s.PurgeExpired(context.Background())
	if err != nil {
		db.Close()
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "Database schema initialized/verified", ports.Fields{"purgedExpired": purged})

	return s, nil
}

func (s *Store) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER NULL, -- unix nanoseconds, NULL means no expiry
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_kv_store_expires_at ON kv_store (expires_at);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		s.logger.Info(context.Background(), "Closing SQLite database connection")
		return s.db.Close()
	}
	return nil
}

// Get returns the value stored under key, treating expired rows as absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const query = `SELECT value, expires_at FROM kv_store WHERE key = ?`

	var value []byte
	var expiresAt sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug(ctx, "Key not found", ports.Fields{"key": key})
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read key %s: %w: %w", key, ports.ErrQueryFailed, err)
	}

	if expiresAt.Valid && expiresAt.Int64 <= s.now().UnixNano() {
		s.logger.Debug(ctx, "Key expired", ports.Fields{"key": key})
		return nil, false, nil
	}
	return value, true, nil
}

// GetMany reads keys with a single statement, so the result is one snapshot.
func (s *Store) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	values, err := readKeys(ctx, s.db, keys, s.now())
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Set upserts a single key.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.SetMany(ctx, []ports.Entry{{Key: key, Value: value}}, ttl)
}

// SetMany upserts all entries in one transaction.
func (s *Store) SetMany(ctx context.Context, entries []ports.Entry, ttl time.Duration) error {
	return s.Update(ctx, nil, ttl, func(map[string][]byte) ([]ports.Entry, error) {
		return entries, nil
	})
}

// Update runs read, fn and write inside one IMMEDIATE transaction.
func (s *Store) Update(ctx context.Context, keys []string, ttl time.Duration, fn ports.UpdateFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w: %w", ports.ErrUpdateFailed, err)
	}
	defer tx.Rollback() // No-op after a successful commit

	now := s.now()
	current := map[string][]byte{}
	if len(keys) > 0 {
		if current, err = readKeys(ctx, tx, keys, now); err != nil {
			return err
		}
	}

	entries, err := fn(current)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	if err := writeEntries(ctx, tx, entries, ttl, now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %d keys: %w: %w", len(entries), ports.ErrUpdateFailed, err)
	}
	s.logger.Debug(ctx, "Keys written", ports.Fields{"count": len(entries), "ttl": ttl.String()})
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func readKeys(ctx context.Context, q querier, keys []string, now time.Time) (map[string][]byte, error) {
	values := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	query := `SELECT key, value FROM kv_store
	WHERE key IN (?` + strings.Repeat(", ?", len(keys)-1) + `)
	AND (expires_at IS NULL OR expires_at > ?)`
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		args = append(args, k)
	}
	args = append(args, now.UnixNano())

	rows, err := q.QueryContext(ctx, query, args...)
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

func writeEntries(ctx context.Context, tx *sql.Tx, entries []ports.Entry, ttl time.Duration, now time.Time) error {
	const query = `
	INSERT INTO kv_store (key, value, expires_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		expires_at = excluded.expires_at,
		updated_at = excluded.updated_at`

	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(ttl).UnixNano(), Valid: true}
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, query, e.Key, e.Value, expiresAt, now.UnixNano()); err != nil {
			return fmt.Errorf("failed to write key %s: %w: %w", e.Key, ports.ErrUpdateFailed, err)
		}
	}
	return nil
}

// PurgeExpired deletes every expired row and returns how many were removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM kv_store WHERE expires_at IS NOT NULL AND expires_at <= ?`
	result, err := s.db.ExecContext(ctx, query, s.now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired keys: %w: %w", ports.ErrUpdateFailed, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for purge: %w", err)
	}
	return n, nil
}
