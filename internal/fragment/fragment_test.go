package fragment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hupe1980/vectable/batch"
	"github.com/hupe1980/vectable/blobstore"
	"github.com/hupe1980/vectable/internal/fs"
	"github.com/hupe1980/vectable/internal/manifest"
	"github.com/hupe1980/vectable/internal/resource"
	"github.com/hupe1980/vectable/model"
	"github.com/hupe1980/vectable/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *schema.Schema {
	return schema.MustDefine(
		schema.Column{Name: "id", Type: schema.Int32()},
		schema.Column{Name: "name", Type: schema.Utf8(), Nullable: true},
		schema.Column{Name: "vector", Type: schema.Vector(2)},
	)
}

func makeBatch(t *testing.T, s *schema.Schema, start, n int) *batch.Batch {
	t.Helper()
	b := batch.NewBuilder(s)
	for i := start; i < start+n; i++ {
		var name any
		if i%3 != 0 {
			name = "row"
		}
		require.NoError(t, b.Append(i, name, []float32{float32(i), float32(-i)}))
	}
	out, err := b.Build()
	require.NoError(t, err)
	return out
}

func collect(t *testing.T, ctx context.Context, snap *Snapshot) []model.Row {
	t.Helper()
	var rows []model.Row
	for row, err := range Scan(ctx, snap, nil) {
		require.NoError(t, err)
		rows = append(rows, row)
	}
	return rows
}

func ids(rows []model.Row) []model.RowID {
	out := make([]model.RowID, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestCreateOpen(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()

	_, err := Open(ctx, mem)
	require.ErrorIs(t, err, ErrNotFound)

	st, err := Create(ctx, mem, testSchema())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), st.Snapshot().Version())
	assert.Zero(t, st.Snapshot().NumRows())

	_, err = Create(ctx, mem, testSchema())
	require.ErrorIs(t, err, ErrExists)

	reopened, err := Open(ctx, mem)
	require.NoError(t, err)
	assert.True(t, reopened.Snapshot().Schema().Equal(testSchema()))
}

func TestAppendAndScan(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	s := testSchema()

	st, err := Create(ctx, mem, s)
	require.NoError(t, err)

	fids, err := st.Append(ctx, makeBatch(t, s, 0, 5), makeBatch(t, s, 5, 0), makeBatch(t, s, 5, 3))
	require.NoError(t, err)
	assert.Equal(t, []model.FragmentID{1, 2}, fids)

	snap := st.Snapshot()
	assert.Equal(t, uint64(2), snap.Version())
	assert.Equal(t, uint64(8), snap.NumRows())
	assert.Equal(t, model.RowID(8), snap.NextRowID())

	rows := collect(t, ctx, snap)
	assert.Equal(t, []model.RowID{0, 1, 2, 3, 4, 5, 6, 7}, ids(rows))

	v, _ := rows[6].Get("id")
	assert.Equal(t, model.Int32(6), v)
	v, _ = rows[6].Get("name")
	assert.True(t, v.IsNull())
	v, _ = rows[7].Get("vector")
	assert.Equal(t, []float32{7, -7}, v.Vec)

	reopened, err := Open(ctx, mem)
	require.NoError(t, err)
	assert.Equal(t, rows, collect(t, ctx, reopened.Snapshot()))

	// Empty appends commit nothing.
	fids, err = st.Append(ctx, makeBatch(t, s, 8, 0))
	require.NoError(t, err)
	assert.Empty(t, fids)
	assert.Equal(t, uint64(2), st.Snapshot().Version())
}

func TestLocate(t *testing.T) {
	ctx := context.Background()
	s := testSchema()
	st, err := Create(ctx, blobstore.NewMemoryStore(), s)
	require.NoError(t, err)
	_, err = st.Append(ctx, makeBatch(t, s, 0, 4), makeBatch(t, s, 4, 4))
	require.NoError(t, err)

	snap := st.Snapshot()
	loc, ok := snap.Locate(5)
	require.True(t, ok)
	assert.Equal(t, model.Location{Fragment: 2, Offset: 1}, loc)

	loc, ok = snap.Locate(0)
	require.True(t, ok)
	assert.Equal(t, model.Location{Fragment: 1, Offset: 0}, loc)

	_, ok = snap.Locate(8)
	assert.False(t, ok)
	assert.True(t, snap.IsDeleted(8))
}

func TestTombstone(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	s := testSchema()

	st, err := Create(ctx, mem, s)
	require.NoError(t, err)
	_, err = st.Append(ctx, makeBatch(t, s, 0, 5), makeBatch(t, s, 5, 5))
	require.NoError(t, err)

	before := st.Snapshot()

	n, err := st.Tombstone(ctx, []model.RowID{1, 3, 6, 42})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	snap := st.Snapshot()
	assert.Equal(t, uint64(7), snap.NumRows())
	assert.True(t, snap.IsDeleted(3))
	assert.False(t, snap.IsDeleted(4))
	assert.Equal(t, []model.RowID{0, 2, 4, 5, 7, 8, 9}, ids(collect(t, ctx, snap)))

	// The earlier snapshot is unaffected.
	assert.False(t, before.IsDeleted(3))
	assert.Len(t, collect(t, ctx, before), 10)

	t.Run("Idempotent", func(t *testing.T) {
		version := st.Snapshot().Version()
		n, err := st.Tombstone(ctx, []model.RowID{1, 3})
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, version, st.Snapshot().Version())

		n, err = st.Tombstone(ctx, []model.RowID{3, 4})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("Persisted", func(t *testing.T) {
		reopened, err := Open(ctx, mem)
		require.NoError(t, err)
		assert.Equal(t, []model.RowID{0, 2, 5, 7, 8, 9}, ids(collect(t, ctx, reopened.Snapshot())))

		info, ok := reopened.Snapshot().m.Fragment(1)
		require.True(t, ok)
		assert.Equal(t, uint32(3), info.Deletions.Count)
		assert.Equal(t, deletionPath(1, info.Deletions.Version), info.Deletions.Path)
	})

	t.Run("WholeFragment", func(t *testing.T) {
		n, err := st.Tombstone(ctx, []model.RowID{0, 2})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []model.RowID{5, 7, 8, 9}, ids(collect(t, ctx, st.Snapshot())))
	})
}

func TestScanFilter(t *testing.T) {
	ctx := context.Background()
	s := testSchema()
	st, err := Create(ctx, blobstore.NewMemoryStore(), s)
	require.NoError(t, err)
	_, err = st.Append(ctx, makeBatch(t, s, 0, 10))
	require.NoError(t, err)

	even := func(r model.Row) bool {
		v, _ := r.Get("id")
		return v.I32%2 == 0
	}

	var got []model.RowID
	for row, err := range Scan(ctx, st.Snapshot(), even) {
		require.NoError(t, err)
		got = append(got, row.ID)
		if len(got) == 3 {
			break
		}
	}
	assert.Equal(t, []model.RowID{0, 2, 4}, got)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	for _, err := range Scan(cancelled, st.Snapshot(), nil) {
		require.ErrorIs(t, err, context.Canceled)
	}
}

func TestAppendCancelled(t *testing.T) {
	s := testSchema()
	st, err := Create(context.Background(), blobstore.NewMemoryStore(), s)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = st.Append(ctx, makeBatch(t, s, 0, 3))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(1), st.Snapshot().Version())
	assert.Zero(t, st.Snapshot().NumRows())
}

func TestAppendCommitFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fsys := fs.NewFaultyFS(nil)
	local := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(fsys))
	s := testSchema()

	st, err := Create(ctx, local, s)
	require.NoError(t, err)
	_, err = st.Append(ctx, makeBatch(t, s, 0, 2))
	require.NoError(t, err)

	fsys.AddRule(manifest.CurrentFileName, fs.Fault{FailAfterBytes: -1, FailOnRename: true})
	_, err = st.Append(ctx, makeBatch(t, s, 2, 2))
	require.ErrorIs(t, err, fs.ErrInjected)
	fsys.Clear()

	assert.Equal(t, uint64(2), st.Snapshot().NumRows())

	reopened, err := Open(ctx, blobstore.NewLocalStore(dir))
	require.NoError(t, err)
	assert.Equal(t, []model.RowID{0, 1}, ids(collect(t, ctx, reopened.Snapshot())))

	// The next append reuses the fragment id of the failed one.
	fids, err := st.Append(ctx, makeBatch(t, s, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, []model.FragmentID{2}, fids)
	assert.Equal(t, []model.RowID{0, 1, 2, 3}, ids(collect(t, ctx, st.Snapshot())))
}

func TestCommitIndex(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	s := testSchema()
	st, err := Create(ctx, mem, s)
	require.NoError(t, err)
	_, err = st.Append(ctx, makeBatch(t, s, 0, 3))
	require.NoError(t, err)

	info, err := st.CommitIndex(ctx, []byte("index-bytes"), manifest.IndexInfo{Watermark: 1, Metric: "L2", Partitions: 1, Rows: 3})
	require.NoError(t, err)
	assert.Equal(t, IndexPath(3), info.Path)

	reopened, err := Open(ctx, mem)
	require.NoError(t, err)
	require.NotNil(t, reopened.Snapshot().Index())
	assert.Equal(t, model.FragmentID(1), reopened.Snapshot().Index().Watermark)

	data, err := reopened.ReadIndex(ctx, info.Path)
	require.NoError(t, err)
	assert.Equal(t, "index-bytes", string(data))
}

func TestViewsMemoryAccounting(t *testing.T) {
	ctx := context.Background()
	s := testSchema()
	rc := resource.NewController(resource.Config{})
	st, err := Create(ctx, blobstore.NewMemoryStore(), s, WithResourceController(rc))
	require.NoError(t, err)
	_, err = st.Append(ctx, makeBatch(t, s, 0, 4), makeBatch(t, s, 4, 4))
	require.NoError(t, err)

	views, err := st.Snapshot().Views(ctx, nil)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, model.RowID(4), views[1].Data.FirstRowID())
	assert.Equal(t, 4, views[1].LiveRows())

	assert.Positive(t, st.CachedBytes())
	assert.Equal(t, st.CachedBytes(), rc.MemoryUsage())

	// Cached fragments are shared between loads.
	again, err := st.Snapshot().View(ctx, 2)
	require.NoError(t, err)
	assert.Same(t, views[1].Data, again.Data)

	require.NoError(t, st.Close())
	assert.Zero(t, rc.MemoryUsage())
}

func TestViewsOverMemoryLimit(t *testing.T) {
	ctx := context.Background()
	s := testSchema()
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1})
	st, err := Create(ctx, blobstore.NewMemoryStore(), s, WithResourceController(rc))
	require.NoError(t, err)
	_, err = st.Append(ctx, makeBatch(t, s, 0, 4))
	require.NoError(t, err)

	views, err := st.Snapshot().Views(ctx, nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Zero(t, st.CachedBytes())
	assert.Zero(t, rc.MemoryUsage())
}

func TestDrop(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	s := testSchema()
	st, err := Create(ctx, mem, s)
	require.NoError(t, err)
	_, err = st.Append(ctx, makeBatch(t, s, 0, 3))
	require.NoError(t, err)
	_, err = st.Tombstone(ctx, []model.RowID{1})
	require.NoError(t, err)

	require.NoError(t, st.Drop(ctx))
	assert.True(t, st.Dropped())
	assert.Zero(t, mem.Len())

	_, err = Open(ctx, mem)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = st.Append(ctx, makeBatch(t, s, 3, 1))
	require.ErrorIs(t, err, ErrDropped)
	_, err = st.Tombstone(ctx, []model.RowID{0})
	require.ErrorIs(t, err, ErrDropped)
	require.ErrorIs(t, st.Drop(ctx), ErrDropped)

	// A table can be recreated under the same prefix.
	_, err = Create(ctx, mem, s)
	require.NoError(t, err)
}

func TestDeletionFileCorruption(t *testing.T) {
	_, err := decodeDeletions([]byte{1, 2})
	require.ErrorIs(t, err, ErrCorrupt)

	_, err = decodeDeletions([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.ErrorIs(t, err, ErrCorrupt)
}

// gatedStore blocks fragment reads until gate is closed.
type gatedStore struct {
	blobstore.BlobStore
	opened chan struct{}
	gate   chan struct{}
}

func (g *gatedStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if strings.HasPrefix(name, "data/") {
		select {
		case g.opened <- struct{}{}:
		default:
		}
		<-g.gate
	}
	return g.BlobStore.Open(ctx, name)
}

func TestSharedLoadSurvivesCancelledCaller(t *testing.T) {
	ctx := context.Background()
	s := testSchema()
	mem := blobstore.NewMemoryStore()
	st, err := Create(ctx, mem, s)
	require.NoError(t, err)
	_, err = st.Append(ctx, makeBatch(t, s, 0, 4))
	require.NoError(t, err)
	require.NoError(t, st.Close())

	gated := &gatedStore{BlobStore: mem, opened: make(chan struct{}, 1), gate: make(chan struct{})}
	reopened, err := Open(ctx, gated)
	require.NoError(t, err)
	snap := reopened.Snapshot()

	ctxA, cancelA := context.WithCancel(ctx)
	errA := make(chan error, 1)
	go func() {
		_, err := snap.View(ctxA, 1)
		errA <- err
	}()
	<-gated.opened

	type result struct {
		view *View
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		v, err := snap.View(ctx, 1)
		resB <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	// The cancelled caller returns while the read is still blocked.
	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled load did not return")
	}

	close(gated.gate)
	r := <-resB
	require.NoError(t, r.err)
	assert.Equal(t, 4, r.view.LiveRows())
}
