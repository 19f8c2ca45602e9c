// Package redis provides a Redis-backed client state and cache store for
// deployments running several storefront replicas.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/payetonkawa/storefront/internal/services/storefront/storage"
)

const defaultPrefix = "storefront"

// Config selects the Redis server.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store keeps client documents as plain keys and cache entries as JSON
// values with a native TTL. Each cache scope is a set of member keys so a
// scope can be dropped at once.
type Store struct {
	client *goredis.Client
	prefix string
	now    func() time.Time
}

var _ storage.Store = (*Store)(nil)

type cacheRecord struct {
	Scope     string    `json:"scope"`
	Payload   []byte    `json:"payload"`
	CheckedAt time.Time `json:"checked_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, cfg.Prefix), nil
}

// New wraps an existing client.
func New(client *goredis.Client, prefix string) *Store {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix, now: time.Now}
}

// Close releases the client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Ping reports whether Redis answers.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return storage.ErrNotConfigured
	}
	return s.client.Ping(ctx).Err()
}

func (s *Store) stateKey(clientID, key string) (string, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return "", errors.New("client id is required")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("state key is required")
	}
	return s.prefix + ":state:" + clientID + ":" + key, nil
}

func (s *Store) cacheKey(key string) string {
	return s.prefix + ":cache:" + key
}

func (s *Store) scopeKey(scope string) string {
	return s.prefix + ":cache-scope:" + scope
}

// GetState loads a client document.
func (s *Store) GetState(ctx context.Context, clientID, key string) ([]byte, bool, error) {
	if s == nil || s.client == nil {
		return nil, false, storage.ErrNotConfigured
	}
	redisKey, err := s.stateKey(clientID, key)
	if err != nil {
		return nil, false, err
	}
	value, err := s.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get client state: %w", err)
	}
	return value, true, nil
}

// PutState stores a client document without expiry.
func (s *Store) PutState(ctx context.Context, clientID, key string, value []byte) error {
	if s == nil || s.client == nil {
		return storage.ErrNotConfigured
	}
	redisKey, err := s.stateKey(clientID, key)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey, value, 0).Err(); err != nil {
		return fmt.Errorf("put client state: %w", err)
	}
	return nil
}

// DeleteState removes a client document.
func (s *Store) DeleteState(ctx context.Context, clientID, key string) error {
	if s == nil || s.client == nil {
		return storage.ErrNotConfigured
	}
	redisKey, err := s.stateKey(clientID, key)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, redisKey).Err(); err != nil {
		return fmt.Errorf("delete client state: %w", err)
	}
	return nil
}

// GetCacheEntry loads a cache entry. Redis drops expired entries itself.
func (s *Store) GetCacheEntry(ctx context.Context, cacheKey string) (storage.CacheEntry, bool, error) {
	if s == nil || s.client == nil {
		return storage.CacheEntry{}, false, storage.ErrNotConfigured
	}
	cacheKey = strings.TrimSpace(cacheKey)
	if cacheKey == "" {
		return storage.CacheEntry{}, false, errors.New("cache key is required")
	}
	raw, err := s.client.Get(ctx, s.cacheKey(cacheKey)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return storage.CacheEntry{}, false, nil
	}
	if err != nil {
		return storage.CacheEntry{}, false, fmt.Errorf("get cache entry: %w", err)
	}
	var record cacheRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return storage.CacheEntry{}, false, fmt.Errorf("decode cache entry: %w", err)
	}
	return storage.CacheEntry{
		CacheKey:     cacheKey,
		Scope:        record.Scope,
		PayloadBytes: record.Payload,
		CheckedAt:    record.CheckedAt,
		ExpiresAt:    record.ExpiresAt,
	}, true, nil
}

// PutCacheEntry stores a cache entry with a TTL derived from ExpiresAt and
// records it under its scope.
func (s *Store) PutCacheEntry(ctx context.Context, entry storage.CacheEntry) error {
	if s == nil || s.client == nil {
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
	now := s.now()
	if entry.CheckedAt.IsZero() {
		entry.CheckedAt = now.UTC()
	}
	ttl := time.Duration(0)
	if !entry.ExpiresAt.IsZero() {
		ttl = entry.ExpiresAt.Sub(now)
		if ttl <= 0 {
			return s.DeleteCacheEntry(ctx, entry.CacheKey)
		}
	}

	raw, err := json.Marshal(cacheRecord{
		Scope:     entry.Scope,
		Payload:   entry.PayloadBytes,
		CheckedAt: entry.CheckedAt,
		ExpiresAt: entry.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.cacheKey(entry.CacheKey), raw, ttl)
		pipe.SAdd(ctx, s.scopeKey(entry.Scope), entry.CacheKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// DeleteCacheEntry removes a cache entry. Its scope membership is left for
// DeleteCacheScope to sweep.
func (s *Store) DeleteCacheEntry(ctx context.Context, cacheKey string) error {
	if s == nil || s.client == nil {
		return storage.ErrNotConfigured
	}
	cacheKey = strings.TrimSpace(cacheKey)
	if cacheKey == "" {
		return errors.New("cache key is required")
	}
	if err := s.client.Del(ctx, s.cacheKey(cacheKey)).Err(); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// DeleteCacheScope removes every entry recorded under scope.
func (s *Store) DeleteCacheScope(ctx context.Context, scope string) error {
	if s == nil || s.client == nil {
		return storage.ErrNotConfigured
	}
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return errors.New("cache scope is required")
	}
	members, err := s.client.SMembers(ctx, s.scopeKey(scope)).Result()
	if err != nil {
		return fmt.Errorf("list cache scope: %w", err)
	}
	keys := make([]string, 0, len(members)+1)
	for _, member := range members {
		keys = append(keys, s.cacheKey(member))
	}
	keys = append(keys, s.scopeKey(scope))
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cache scope: %w", err)
	}
	return nil
}
