package storage

import (
	"context"
	"fmt"

	"github.com/solvetrack/tagstat-engine/internal/config"
)

// Store is the key->string persistence capability used for cached snapshots.
// Implementations must treat a missing key as (value="", found=false, nil).
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
	Close() error
}

// Open creates the store backend selected by configuration
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "redis":
		return NewRedisStore(ctx, cfg.Redis)
	case "postgres":
		return NewPostgresStore(ctx, cfg.Postgres)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Backend)
	}
}
