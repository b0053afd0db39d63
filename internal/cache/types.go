package cache

import "context"

// Kind separates key spaces.
type Kind uint8

const (
	KindUnknown   Kind = iota
	KindBlobBlock      // fixed-size block of a remote blob
)

// Key identifies a cached block. Generation distinguishes successive
// contents written under the same path, such as a rewritten pointer file.
type Key struct {
	Kind       Kind
	Path       string
	Generation uint64
	Offset     uint64
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(ctx context.Context, key Key) (b []byte, ok bool)
	// Set caches a block. The cache retains b; callers must not modify it.
	Set(ctx context.Context, key Key, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key Key) bool)
	// Stats returns hit and miss counts.
	Stats() (hits, misses int64)
	// Size returns the cached bytes.
	Size() int64
}
