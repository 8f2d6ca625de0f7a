// Package provider defines the backing store abstraction routed by routedcache.
//
// A Provider is a byte store with TTLs. Values are opaque: Get must return
// exactly the bytes previously passed to Set for a key. Counters written by
// Incr/Decr are stored as decimal ASCII so they stay readable through Get and
// compatible with Redis INCRBY semantics.
//
// Optional capabilities (TTL query, key-pattern scan) are expressed as separate
// interfaces. A store either implements them or it does not; callers discover
// them with a type assertion on the interface, never on a concrete type.
package provider

import (
	"context"
	"time"
)

// NoExpiry is reported by TTLReader.TTL for keys stored without expiry.
const NoExpiry time.Duration = -1

// Provider is the mandatory capability set of every backing store.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value unconditionally. ttl <= 0 means no expiry.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// Add stores value only when key is absent.
	Add(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// Replace stores value only when key is present.
	Replace(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// Del removes a key and reports whether it existed.
	Del(ctx context.Context, key string) (bool, error)

	// Incr and Decr adjust a counter and return the new value.
	// A missing key counts from 0.
	Incr(ctx context.Context, key string, delta uint64) (int64, error)
	Decr(ctx context.Context, key string, delta uint64) (int64, error)

	// GetMany returns the hits among keys. Misses are absent from the map.
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)

	// SetMany stores every item with the same ttl.
	SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) error

	// DelMany removes keys (best-effort, missing keys are ignored).
	DelMany(ctx context.Context, keys []string) error

	// Flush removes every key held by the store.
	Flush(ctx context.Context) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// TTLReader is implemented by stores that can report remaining time to live.
type TTLReader interface {
	// TTL returns (remaining, true, nil) for a live key, (NoExpiry, true, nil)
	// for a key without expiry and (0, false, nil) on miss.
	TTL(ctx context.Context, key string) (time.Duration, bool, error)
}

// KeyScanner is implemented by stores that can list keys by glob pattern
// (`*`, `?`, `[...]`).
type KeyScanner interface {
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// Extended is a Provider with every optional capability.
type Extended interface {
	Provider
	TTLReader
	KeyScanner
}
