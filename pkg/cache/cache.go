// Package cache provides pluggable byte caches and cache-key construction
// for the Permitscope pipeline.
//
// Three backends are available:
//   - [FileCache]: directory-backed, for CLI usage
//   - [RedisCache]: Redis-backed, for multi-instance server deployments
//   - [NullCache]: no-op, for tests or disabled caching
//
// Keys are built by a [Keyer] so that every component derives them the same
// way: a typed option struct is hashed together with the resource identity,
// which keeps distinct option combinations (e.g. layout direction) in
// distinct cache slots.
package cache

import (
	"context"
	"time"
)

// TTLs for the cached pipeline stages. Directory snapshots go stale as
// permissions change, so they expire quickly; layouts are pure functions of
// their inputs and can live longer.
const (
	// TTLSnapshot is the lifetime of cached directory responses.
	TTLSnapshot = 15 * time.Minute

	// TTLLayout is the lifetime of cached layout results.
	TTLLayout = 24 * time.Hour
)

// Cache is the interface for byte-oriented cache backends.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was present
	// and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// SnapshotKeyOpts distinguishes cached directory snapshots.
type SnapshotKeyOpts struct {
	// Kind is the snapshot kind: "pages", "user", or "users".
	Kind string
	// ID is the selection identity (user id), empty for global snapshots.
	ID string
}

// LayoutKeyOpts distinguishes cached layout results.
type LayoutKeyOpts struct {
	Direction string
}

// Keyer generates cache keys for the cached pipeline stages.
type Keyer interface {
	// HTTPKey generates a key for raw HTTP response caching.
	HTTPKey(namespace, key string) string

	// SnapshotKey generates a key for a normalized directory snapshot.
	SnapshotKey(opts SnapshotKeyOpts) string

	// LayoutKey generates a key for a layout computed over the graph with
	// the given content hash.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer hashes resource identity and options into stable keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return hashKey("http", namespace, key)
}

// SnapshotKey generates a key for a directory snapshot.
func (k *DefaultKeyer) SnapshotKey(opts SnapshotKeyOpts) string {
	return hashKey("snapshot", opts)
}

// LayoutKey generates a key for a layout result.
func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}
