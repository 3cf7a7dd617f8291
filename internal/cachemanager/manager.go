// Package cachemanager provides typed in-memory caches with per-entry expiry.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager is a keyed cache with per-entry expiry. Implementations are
// safe for concurrent use.
type CacheManager[K ~string, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K)
	// DeleteFunc removes every entry for which fn returns true and reports
	// how many were removed.
	DeleteFunc(ctx context.Context, fn func(key K, value V) bool) int
	Flush(ctx context.Context)
	Len() int
}
