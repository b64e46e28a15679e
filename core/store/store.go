// Package store provides the key-value persistence used by the relay:
// plain get/set plus an atomic increment, backed by either Redis or a
// Postgres table. All callers are expected to treat failures as transient
// and degrade to defaults via Resilient.
package store

import (
	"context"
	"fmt"

	coreconfig "ventbot/core/config"
)

// KV is the minimal contract the relay needs from a remote store.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes the value unconditionally.
	Set(ctx context.Context, key, value string) error
	// Incr atomically increments the integer value at key (absent -> 0)
	// and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	Close() error
}

// Open builds the configured KV backend and verifies connectivity.
func Open(cfg coreconfig.StoreConfig) (KV, error) {
	switch cfg.Backend {
	case coreconfig.StoreBackendRedis:
		return openRedis(cfg.Redis)
	case coreconfig.StoreBackendPostgres:
		return openPostgres(cfg.Postgres)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}
