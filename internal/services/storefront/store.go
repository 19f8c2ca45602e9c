package storefront

import (
	"context"
	"fmt"
	"strings"

	"github.com/payetonkawa/storefront/internal/services/storefront/storage"
	"github.com/payetonkawa/storefront/internal/services/storefront/storage/redis"
	"github.com/payetonkawa/storefront/internal/services/storefront/storage/sqlite"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// StoreConfig selects where client state and cached reads live.
type StoreConfig struct {
	Backend    string
	SQLitePath string
	Redis      redis.Config
}

// OpenStore opens the configured backend. An empty backend means sqlite.
func OpenStore(ctx context.Context, cfg StoreConfig) (storage.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case BackendRedis:
		store, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
