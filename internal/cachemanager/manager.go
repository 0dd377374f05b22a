// Package cachemanager provides a typed in-memory cache with a read-through
// wrapper. Month calendars and holiday lookups are cached here because TUI
// navigation and exports revisit the same months repeatedly.
package cachemanager

import (
	"context"
	"time"
)

const DefaultExpiration = 10 * time.Minute
const DefaultCleanupInterval = 30 * time.Minute

// CacheManager is the cache access contract.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K)
	Flush(ctx context.Context)
}
