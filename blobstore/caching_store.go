package blobstore

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vectable/internal/cache"
)

// CachingStore wraps a BlobStore and adds block-level caching of reads.
//
// Every Put through the store gives the name a new generation, and blobs
// opened afterwards only see blocks cached under that generation. A reader
// that opened the previous content may keep caching it, but nobody who
// opens the blob after the write is served those blocks.
type CachingStore struct {
	inner     BlobStore
	cache     cache.BlockCache
	blockSize int64

	mu   sync.Mutex
	gens map[string]uint64 // live names written through this store
	next atomic.Uint64
}

// NewCachingStore creates a new CachingStore.
// blockSize defaults to 64KiB if <= 0.
func NewCachingStore(inner BlobStore, c cache.BlockCache, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = 64 << 10
	}
	return &CachingStore{
		inner:     inner,
		cache:     c,
		blockSize: blockSize,
		gens:      make(map[string]uint64),
	}
}

func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	// The generation is read before the blob: content opened now is at
	// least as new as the generation it is cached under.
	s.mu.Lock()
	gen := s.gens[name]
	s.mu.Unlock()

	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{
		inner:     b,
		cache:     s.cache,
		name:      name,
		gen:       gen,
		blockSize: s.blockSize,
	}, nil
}

func (s *CachingStore) invalidate(match func(name string) bool) {
	s.cache.Invalidate(func(key cache.Key) bool {
		return key.Kind == cache.KindBlobBlock && match(key.Path)
	})
}

// Put writes the blob, then moves the name to a fresh generation and drops
// every block cached for it, including blocks re-cached during the write.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	err := s.inner.Put(ctx, name, data)

	s.mu.Lock()
	s.gens[name] = s.next.Add(1)
	s.mu.Unlock()
	s.invalidate(func(p string) bool { return p == name })
	return err
}

func (s *CachingStore) Delete(ctx context.Context, name string) error {
	err := s.inner.Delete(ctx, name)

	s.mu.Lock()
	delete(s.gens, name)
	s.mu.Unlock()
	s.invalidate(func(p string) bool { return p == name })
	return err
}

func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// RemoveAll removes every blob under prefix and drops their cached blocks.
func (s *CachingStore) RemoveAll(ctx context.Context, prefix string) error {
	err := DeletePrefix(ctx, s.inner, prefix)

	s.mu.Lock()
	for name := range s.gens {
		if hasPrefix(name, prefix) {
			delete(s.gens, name)
		}
	}
	s.mu.Unlock()
	s.invalidate(func(p string) bool { return hasPrefix(p, prefix) })
	return err
}

// cachingBlob serves reads from the block cache, fetching missing runs of
// blocks from the inner blob.
type cachingBlob struct {
	inner     Blob
	cache     cache.BlockCache
	name      string
	gen       uint64
	blockSize int64
}

func (b *cachingBlob) Close() error { return b.inner.Close() }

func (b *cachingBlob) Size() int64 { return b.inner.Size() }

func (b *cachingBlob) key(blk int64) cache.Key {
	return cache.Key{Kind: cache.KindBlobBlock, Path: b.name, Generation: b.gen, Offset: uint64(blk)}
}

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	size := b.Size()
	if off < 0 || off >= size {
		return 0, io.EOF
	}

	want := min(int64(len(p)), size-off)
	startBlock := off / b.blockSize
	endBlock := (off + want - 1) / b.blockSize

	blocks, err := b.fetch(ctx, startBlock, endBlock)
	if err != nil {
		return 0, err
	}

	total := 0
	for i, data := range blocks {
		blkStart := (startBlock + int64(i)) * b.blockSize
		lo := max(off, blkStart) - blkStart
		hi := min(off+want, blkStart+int64(len(data))) - blkStart
		if hi <= lo {
			break
		}
		total += copy(p[total:], data[lo:hi])
	}

	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

// fetch returns blocks [start, end], reading contiguous runs of missing
// blocks from the inner blob in parallel.
func (b *cachingBlob) fetch(ctx context.Context, start, end int64) ([][]byte, error) {
	blocks := make([][]byte, end-start+1)

	type run struct{ start, count int64 }
	var missing []run
	for blk := start; blk <= end; blk++ {
		if data, ok := b.cache.Get(ctx, b.key(blk)); ok {
			blocks[blk-start] = data
			continue
		}
		if n := len(missing); n > 0 && missing[n-1].start+missing[n-1].count == blk {
			missing[n-1].count++
		} else {
			missing = append(missing, run{start: blk, count: 1})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, r := range missing {
		g.Go(func() error {
			byteStart := r.start * b.blockSize
			byteSize := min(r.count*b.blockSize, b.Size()-byteStart)
			buf := make([]byte, byteSize)
			n, err := b.inner.ReadAt(gctx, buf, byteStart)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			buf = buf[:n]

			for i := range r.count {
				lo := i * b.blockSize
				if lo >= int64(len(buf)) {
					break
				}
				hi := min(lo+b.blockSize, int64(len(buf)))
				// Copy so a cached block does not pin the whole run.
				blk := make([]byte, hi-lo)
				copy(blk, buf[lo:hi])
				blocks[r.start-start+i] = blk
				b.cache.Set(gctx, b.key(r.start+i), blk)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blocks, nil
}
