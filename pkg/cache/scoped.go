package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// Server deployments use it to keep per-operator cache namespaces apart
// while sharing one Redis instance.
//
// Example usage:
//
//	// Operator-specific keys
//	opKeyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "op:alice:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// SnapshotKey generates a prefixed key for directory snapshot caching.
func (k *ScopedKeyer) SnapshotKey(opts SnapshotKeyOpts) string {
	return k.prefix + k.inner.SnapshotKey(opts)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(graphHash, opts)
}
