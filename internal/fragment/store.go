package fragment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/vectable/batch"
	"github.com/hupe1980/vectable/blobstore"
	"github.com/hupe1980/vectable/internal/codec"
	"github.com/hupe1980/vectable/internal/conv"
	"github.com/hupe1980/vectable/internal/manifest"
	"github.com/hupe1980/vectable/internal/resource"
	"github.com/hupe1980/vectable/model"
	"github.com/hupe1980/vectable/schema"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const defaultLoadConcurrency = 8

// Store owns the fragments, tombstones and manifests of one table.
type Store struct {
	blobs     blobstore.BlobStore
	manifests *manifest.Store

	compression     codec.Compression
	logger          *slog.Logger
	rc              *resource.Controller
	loadConcurrency int

	mu      sync.Mutex // serializes writers
	current atomic.Pointer[Snapshot]
	dropped atomic.Bool

	cacheMu sync.RWMutex
	cache   map[model.FragmentID]*codec.Fragment
	charged int64
	loads   singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithCompression sets the column compression of new fragments.
func WithCompression(c codec.Compression) Option {
	return func(s *Store) {
		s.compression = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithResourceController accounts cached fragments against the
// controller's memory limit and throttles blob writes.
func WithResourceController(rc *resource.Controller) Option {
	return func(s *Store) {
		s.rc = rc
	}
}

// WithLoadConcurrency bounds parallel fragment loads.
func WithLoadConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.loadConcurrency = n
		}
	}
}

func newStore(blobs blobstore.BlobStore, optFns []Option) *Store {
	s := &Store{
		blobs:           blobs,
		manifests:       manifest.NewStore(blobs),
		compression:     codec.CompressionLZ4,
		logger:          slog.New(slog.DiscardHandler),
		loadConcurrency: defaultLoadConcurrency,
		cache:           make(map[model.FragmentID]*codec.Fragment),
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// Create initializes an empty table in blobs. It fails with ErrExists if
// blobs already holds a table.
func Create(ctx context.Context, blobs blobstore.BlobStore, sch *schema.Schema, optFns ...Option) (*Store, error) {
	s := newStore(blobs, optFns)

	exists, err := s.manifests.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrExists
	}

	m := manifest.New(sch)
	if err := s.manifests.Save(ctx, m); err != nil {
		return nil, err
	}
	s.current.Store(&Snapshot{store: s, m: m})

	s.logger.Debug("fragment store created", "version", m.ID, "schema", sch.String())
	return s, nil
}

// Open loads the committed state of the table in blobs.
func Open(ctx context.Context, blobs blobstore.BlobStore, optFns ...Option) (*Store, error) {
	s := newStore(blobs, optFns)

	m, err := s.manifests.Load(ctx)
	if err != nil {
		if errors.Is(err, manifest.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	deleted := make(map[model.FragmentID]*roaring.Bitmap)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.loadConcurrency)
	for _, f := range m.Fragments {
		if f.Deletions.Path == "" {
			continue
		}
		g.Go(func() error {
			bm, err := loadDeletions(gctx, blobs, f.Deletions.Path)
			if err != nil {
				return err
			}
			mu.Lock()
			deleted[f.ID] = bm
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.current.Store(&Snapshot{store: s, m: m, deleted: deleted})

	s.logger.Debug("fragment store opened", "version", m.ID, "fragments", len(m.Fragments), "rows", m.LiveRows())
	return s, nil
}

// Snapshot returns the latest committed snapshot without locking.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Append writes each non-empty batch as a new fragment and commits them
// together. Batches must already be projected onto the table schema.
// Nothing becomes visible unless every fragment is written and the
// manifest is committed.
func (s *Store) Append(ctx context.Context, batches ...*batch.Batch) ([]model.FragmentID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropped.Load() {
		return nil, ErrDropped
	}

	cur := s.current.Load()
	m := cur.m.Clone()

	var ids []model.FragmentID
	for _, b := range batches {
		if b.NumRows() == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := conv.Uint32(b.NumRows())
		if err != nil {
			return nil, err
		}

		id := m.NextFragmentID
		data, err := codec.Encode(m.Schema, b, m.NextRowID, s.compression)
		if err != nil {
			return nil, err
		}

		path := dataPath(id)
		if err := s.put(ctx, path, data); err != nil {
			return nil, err
		}

		m.Fragments = append(m.Fragments, manifest.FragmentInfo{
			ID:         id,
			FirstRowID: m.NextRowID,
			Rows:       rows,
			Size:       int64(len(data)),
			Path:       path,
		})
		m.NextRowID += model.RowID(rows)
		m.NextFragmentID++
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	// Blobs written so far are unreferenced; the next append reuses their
	// names.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.commit(ctx, m, cur.deleted); err != nil {
		return nil, err
	}

	s.logger.Debug("fragments appended", "fragments", len(ids), "version", m.ID, "next_row_id", m.NextRowID)
	return ids, nil
}

// Tombstone marks the given rows deleted and returns how many were not
// deleted before. Unknown and already deleted ids are ignored; if nothing
// changes no version is committed.
func (s *Store) Tombstone(ctx context.Context, ids []model.RowID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropped.Load() {
		return 0, ErrDropped
	}

	cur := s.current.Load()

	byFragment := make(map[model.FragmentID][]uint32)
	for _, id := range ids {
		loc, ok := cur.Locate(id)
		if !ok {
			continue
		}
		byFragment[loc.Fragment] = append(byFragment[loc.Fragment], loc.Offset)
	}
	if len(byFragment) == 0 {
		return 0, nil
	}

	m := cur.m.Clone()
	version := m.ID + 1
	deleted := maps.Clone(cur.deleted)
	if deleted == nil {
		deleted = make(map[model.FragmentID]*roaring.Bitmap, len(byFragment))
	}

	total := 0
	for _, fid := range slices.Sorted(maps.Keys(byFragment)) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		var bm *roaring.Bitmap
		if old := cur.deleted[fid]; old != nil {
			bm = old.Clone()
		} else {
			bm = roaring.New()
		}

		before := bm.GetCardinality()
		bm.AddMany(byFragment[fid])
		added := int(bm.GetCardinality() - before)
		if added == 0 {
			continue
		}
		bm.RunOptimize()

		data, err := encodeDeletions(bm)
		if err != nil {
			return 0, err
		}
		path := deletionPath(fid, version)
		if err := s.put(ctx, path, data); err != nil {
			return 0, err
		}

		i := fragmentIndex(m, fid)
		m.Fragments[i].Deletions = manifest.DeletionInfo{
			Version: version,
			Count:   conv.MustUint32(bm.GetCardinality()),
			Path:    path,
		}
		deleted[fid] = bm
		total += added
	}

	if total == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if err := s.commit(ctx, m, deleted); err != nil {
		return 0, err
	}

	s.logger.Debug("rows tombstoned", "rows", total, "version", m.ID)
	return total, nil
}

// CommitIndex stores an encoded vector index and commits it as the
// table's index. The returned descriptor carries the blob path.
func (s *Store) CommitIndex(ctx context.Context, data []byte, info manifest.IndexInfo) (manifest.IndexInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropped.Load() {
		return manifest.IndexInfo{}, ErrDropped
	}

	cur := s.current.Load()
	m := cur.m.Clone()

	info.Path = IndexPath(m.ID + 1)
	if err := s.put(ctx, info.Path, data); err != nil {
		return manifest.IndexInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return manifest.IndexInfo{}, err
	}

	m.Index = &info
	if err := s.commit(ctx, m, cur.deleted); err != nil {
		return manifest.IndexInfo{}, err
	}

	s.logger.Debug("index committed", "path", info.Path, "watermark", info.Watermark, "version", m.ID)
	return info, nil
}

// ReadIndex returns the content of a committed index blob.
func (s *Store) ReadIndex(ctx context.Context, path string) ([]byte, error) {
	if s.dropped.Load() {
		return nil, ErrDropped
	}
	return blobstore.ReadAll(ctx, s.blobs, path)
}

// Drop removes every blob of the table. CURRENT goes first, so a partially
// completed drop still leaves the table absent.
func (s *Store) Drop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropped.Load() {
		return ErrDropped
	}

	if err := s.blobs.Delete(ctx, manifest.CurrentFileName); err != nil {
		return fmt.Errorf("fragment: drop: %w", err)
	}
	s.dropped.Store(true)
	s.release()

	if err := blobstore.DeletePrefix(ctx, s.blobs, ""); err != nil {
		return fmt.Errorf("fragment: drop: %w", err)
	}

	s.logger.Debug("fragment store dropped")
	return nil
}

// Dropped reports whether Drop has removed the table.
func (s *Store) Dropped() bool {
	return s.dropped.Load()
}

// Close releases cached fragments.
func (s *Store) Close() error {
	s.release()
	return nil
}

// CachedBytes returns the decoded size of all cached fragments.
func (s *Store) CachedBytes() int64 {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.charged
}

func (s *Store) put(ctx context.Context, path string, data []byte) error {
	if err := s.rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	if err := s.blobs.Put(ctx, path, data); err != nil {
		return fmt.Errorf("fragment: write %s: %w", path, err)
	}
	return nil
}

// commit saves m and publishes it. The manifest write is not cancellable:
// once started, a commit either lands or fails on its own.
func (s *Store) commit(ctx context.Context, m *manifest.Manifest, deleted map[model.FragmentID]*roaring.Bitmap) error {
	if err := s.manifests.Save(context.WithoutCancel(ctx), m); err != nil {
		return err
	}
	s.current.Store(&Snapshot{store: s, m: m, deleted: deleted})
	return nil
}

// load returns the decoded fragment, from cache when possible. Concurrent
// loads of the same fragment share one read, which runs to completion even
// when the caller that started it gives up.
func (s *Store) load(ctx context.Context, sch *schema.Schema, info manifest.FragmentInfo) (*codec.Fragment, error) {
	if s.dropped.Load() {
		return nil, ErrDropped
	}

	s.cacheMu.RLock()
	f, ok := s.cache[info.ID]
	s.cacheMu.RUnlock()
	if ok {
		return f, nil
	}

	// The shared read outlives any single caller: a cancelled caller stops
	// waiting, the others still get the fragment.
	readCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan(strconv.FormatUint(uint64(info.ID), 10), func() (any, error) {
		var f *codec.Fragment
		err := blobstore.View(readCtx, s.blobs, info.Path, func(data []byte) error {
			var err error
			f, err = codec.Decode(data, sch)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("fragment: load %s: %w", info.Path, err)
		}

		if s.rc.TryAcquireMemory(f.SizeBytes()) {
			s.cacheMu.Lock()
			if _, dup := s.cache[info.ID]; dup {
				s.rc.ReleaseMemory(f.SizeBytes())
			} else {
				s.cache[info.ID] = f
				s.charged += f.SizeBytes()
			}
			s.cacheMu.Unlock()
		} else {
			s.logger.Debug("fragment not cached, memory limit reached", "fragment", info.ID, "bytes", f.SizeBytes())
		}
		return f, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*codec.Fragment), nil
	}
}

func (s *Store) release() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rc.ReleaseMemory(s.charged)
	s.charged = 0
	clear(s.cache)
}

func fragmentIndex(m *manifest.Manifest, id model.FragmentID) int {
	i, _ := slices.BinarySearchFunc(m.Fragments, id, func(f manifest.FragmentInfo, id model.FragmentID) int {
		switch {
		case f.ID < id:
			return -1
		case f.ID > id:
			return 1
		}
		return 0
	})
	return i
}
