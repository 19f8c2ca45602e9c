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

	sqlitemigrate "github.com/payetonkawa/storefront/internal/platform/storage/sqlitemigrate"
	"github.com/payetonkawa/storefront/internal/services/storefront/storage"
	"github.com/payetonkawa/storefront/internal/services/storefront/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for client state and cache data.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ storage.Store = (*Store)(nil)

// Open creates the parent directory if needed, then opens and migrates the
// database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	dsn := "file:" + cleanPath +
		"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return storage.ErrNotConfigured
	}
	return s.sqlDB.PingContext(ctx)
}

// GetState loads a client document.
func (s *Store) GetState(ctx context.Context, clientID, key string) ([]byte, bool, error) {
	if s == nil || s.sqlDB == nil {
		return nil, false, storage.ErrNotConfigured
	}
	clientID, key, err := stateKey(clientID, key)
	if err != nil {
		return nil, false, err
	}

	var value []byte
	err = s.sqlDB.QueryRowContext(ctx,
		`SELECT value FROM client_state WHERE client_id = ? AND state_key = ?`,
		clientID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get client state: %w", err)
	}
	return value, true, nil
}

// PutState upserts a client document.
func (s *Store) PutState(ctx context.Context, clientID, key string, value []byte) error {
	if s == nil || s.sqlDB == nil {
		return storage.ErrNotConfigured
	}
	clientID, key, err := stateKey(clientID, key)
	if err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO client_state (client_id, state_key, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(client_id, state_key) DO UPDATE SET
		    value = excluded.value,
		    updated_at = excluded.updated_at`,
		clientID, key, value, timeToUnixMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("put client state: %w", err)
	}
	return nil
}

// DeleteState removes a client document. Missing documents are not an error.
func (s *Store) DeleteState(ctx context.Context, clientID, key string) error {
	if s == nil || s.sqlDB == nil {
		return storage.ErrNotConfigured
	}
	clientID, key, err := stateKey(clientID, key)
	if err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM client_state WHERE client_id = ? AND state_key = ?`, clientID, key,
	); err != nil {
		return fmt.Errorf("delete client state: %w", err)
	}
	return nil
}

// PurgeStaleState deletes client documents untouched since before cutoff and
// returns the number removed.
func (s *Store) PurgeStaleState(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.sqlDB == nil {
		return 0, storage.ErrNotConfigured
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM client_state WHERE updated_at < ?`, timeToUnixMillis(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("purge client state: %w", err)
	}
	return result.RowsAffected()
}

// GetCacheEntry loads a cache payload and metadata by key.
func (s *Store) GetCacheEntry(ctx context.Context, cacheKey string) (storage.CacheEntry, bool, error) {
	if s == nil || s.sqlDB == nil {
		return storage.CacheEntry{}, false, storage.ErrNotConfigured
	}
	cacheKey = strings.TrimSpace(cacheKey)
	if cacheKey == "" {
		return storage.CacheEntry{}, false, errors.New("cache key is required")
	}

	var entry storage.CacheEntry
	var checkedAt, expiresAt int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT cache_key, scope, payload_json, checked_at, expires_at
		 FROM cache_entries
		 WHERE cache_key = ?`,
		cacheKey,
	).Scan(&entry.CacheKey, &entry.Scope, &entry.PayloadBytes, &checkedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.CacheEntry{}, false, nil
	}
	if err != nil {
		return storage.CacheEntry{}, false, fmt.Errorf("get cache entry: %w", err)
	}
	entry.CheckedAt = unixMillisToTime(checkedAt)
	entry.ExpiresAt = unixMillisToTime(expiresAt)
	return entry, true, nil
}

// PutCacheEntry upserts a cache payload and metadata by key.
func (s *Store) PutCacheEntry(ctx context.Context, entry storage.CacheEntry) error {
	if s == nil || s.sqlDB == nil {
		return storage.ErrNotConfigured
	}
	entry.CacheKey = strings.TrimSpace(entry.CacheKey)
	if entry.CacheKey == "" {
		return errors.New("cache key is required")
	}
	entry.Scope = strings.TrimSpace(entry.Scope)
	if entry.Scope == "" {
		return errors.New("cache scope is required")
	}
	if len(entry.PayloadBytes) == 0 {
		return errors.New("cache payload is required")
	}
	if entry.CheckedAt.IsZero() {
		entry.CheckedAt = s.now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO cache_entries (cache_key, scope, payload_json, checked_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
		    scope = excluded.scope,
		    payload_json = excluded.payload_json,
		    checked_at = excluded.checked_at,
		    expires_at = excluded.expires_at`,
		entry.CacheKey,
		entry.Scope,
		entry.PayloadBytes,
		timeToUnixMillis(entry.CheckedAt),
		timeToUnixMillis(entry.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// DeleteCacheEntry removes a cache entry by key.
func (s *Store) DeleteCacheEntry(ctx context.Context, cacheKey string) error {
	if s == nil || s.sqlDB == nil {
		return storage.ErrNotConfigured
	}
	cacheKey = strings.TrimSpace(cacheKey)
	if cacheKey == "" {
		return errors.New("cache key is required")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_key = ?`, cacheKey); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// DeleteCacheScope removes every entry in scope.
func (s *Store) DeleteCacheScope(ctx context.Context, scope string) error {
	if s == nil || s.sqlDB == nil {
		return storage.ErrNotConfigured
	}
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return errors.New("cache scope is required")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM cache_entries WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("delete cache scope: %w", err)
	}
	return nil
}

// PurgeExpiredCache deletes entries expired at now and returns the count.
func (s *Store) PurgeExpiredCache(ctx context.Context, now time.Time) (int64, error) {
	if s == nil || s.sqlDB == nil {
		return 0, storage.ErrNotConfigured
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at > 0 AND expires_at <= ?`, timeToUnixMillis(now),
	)
	if err != nil {
		return 0, fmt.Errorf("purge cache entries: %w", err)
	}
	return result.RowsAffected()
}

func stateKey(clientID, key string) (string, string, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return "", "", errors.New("client id is required")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", errors.New("state key is required")
	}
	return clientID, key, nil
}

func timeToUnixMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func unixMillisToTime(value int64) time.Time {
	if value <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}
