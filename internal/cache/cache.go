// Package cache provides a byte-oriented block cache for immutable blobs.
package cache

// Key identifies one fixed-size block of a named blob.
type Key struct {
	// Path identifies the source blob.
	Path string
	// Block is the block ordinal (byte offset / block size).
	Block int64
}

// BlockCache is a cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(key Key) (b []byte, ok bool)
	// Set caches a block. The caller must treat b as immutable afterwards.
	Set(key Key, b []byte)
	// Stats returns hit/miss counters.
	Stats() (hits, misses int64)
}
