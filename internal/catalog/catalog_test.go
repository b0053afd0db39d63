package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vectable/batch"
	"github.com/hupe1980/vectable/blobstore"
	"github.com/hupe1980/vectable/internal/table"
	"github.com/hupe1980/vectable/schema"
)

func testSchema() *schema.Schema {
	return schema.MustDefine(
		schema.Column{Name: "id", Type: schema.Int32()},
		schema.Column{Name: "name", Type: schema.Utf8()},
	)
}

func rows(t *testing.T, ids ...int) batch.Source {
	t.Helper()
	b := batch.NewBuilder(testSchema())
	for _, id := range ids {
		require.NoError(t, b.Append(id, "x"))
	}
	out, err := b.Build()
	require.NoError(t, err)
	return batch.Of(out)
}

func TestCreateOpenDrop(t *testing.T) {
	ctx := context.Background()
	c := New("memory://test", blobstore.NewMemoryStore(), nil)

	tbl, err := c.CreateTable(ctx, "people", testSchema(), rows(t, 1, 2))
	require.NoError(t, err)

	_, err = c.CreateTable(ctx, "people", testSchema(), nil)
	assert.ErrorIs(t, err, table.ErrAlreadyExists)

	opened, err := c.OpenTable(ctx, "people")
	require.NoError(t, err)
	assert.Same(t, tbl, opened)

	names, err := c.TableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"people"}, names)

	require.NoError(t, c.DropTable(ctx, "people"))
	assert.Equal(t, table.StateDropped, tbl.State())

	_, err = c.OpenTable(ctx, "people")
	assert.ErrorIs(t, err, table.ErrNotFound)
	assert.ErrorIs(t, c.DropTable(ctx, "people"), table.ErrNotFound)

	// The name is free again.
	_, err = c.CreateTable(ctx, "people", testSchema(), nil)
	assert.NoError(t, err)
}

func TestOpenFromAnotherCatalog(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()

	_, err := New("a", mem, nil).CreateTable(ctx, "t1", testSchema(), rows(t, 1, 2, 3))
	require.NoError(t, err)

	tbl, err := New("b", mem, nil).OpenTable(ctx, "t1")
	require.NoError(t, err)
	n, err := tbl.CountRows(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestTableNames(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	c := New("memory://names", mem, nil)

	for _, name := range []string{"zeta", "alpha", "my-table.v2"} {
		_, err := c.CreateTable(ctx, name, testSchema(), nil)
		require.NoError(t, err)
	}
	require.NoError(t, mem.Put(ctx, "stray/file", []byte("x")))
	require.NoError(t, mem.Put(ctx, "nested/deeper/CURRENT", []byte("x")))

	names, err := c.TableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "my-table.v2", "zeta"}, names)
}

func TestInvalidNames(t *testing.T) {
	ctx := context.Background()
	c := New("memory://invalid", blobstore.NewMemoryStore(), nil)

	for _, name := range []string{"", ".hidden", "a/b", "with space", "ümlaut"} {
		_, err := c.CreateTable(ctx, name, testSchema(), nil)
		assert.ErrorIs(t, err, ErrInvalidName, name)
		_, err = c.OpenTable(ctx, name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestConcurrentCreateSameName(t *testing.T) {
	ctx := context.Background()
	c := New("memory://race", blobstore.NewMemoryStore(), nil)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.CreateTable(ctx, "t", testSchema(), nil)
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, table.ErrAlreadyExists), err)
	}
	assert.Equal(t, 1, ok)
}

func TestDropDatabase(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	c := New("memory://drop", mem, nil)

	t1, err := c.CreateTable(ctx, "t1", testSchema(), rows(t, 1))
	require.NoError(t, err)
	_, err = c.CreateTable(ctx, "t2", testSchema(), rows(t, 2))
	require.NoError(t, err)
	require.NoError(t, mem.Put(ctx, "leftover", []byte("x")))

	require.NoError(t, c.DropDatabase(ctx))
	assert.Zero(t, mem.Len())
	assert.Equal(t, table.StateDropped, t1.State())

	_, err = t1.CountRows(ctx, "")
	assert.ErrorIs(t, err, table.ErrTableDropped)

	names, err := c.TableNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = c.CreateTable(ctx, "t1", testSchema(), nil)
	assert.NoError(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry[*Catalog]()
	calls := 0
	open := func() (*Catalog, error) {
		calls++
		return New("memory://x", blobstore.NewMemoryStore(), nil), nil
	}

	a, err := r.Get("memory://x", open)
	require.NoError(t, err)
	b, err := r.Get("memory://x", open)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)

	_, err = r.Get("memory://bad", func() (*Catalog, error) { return nil, errors.New("boom") })
	require.Error(t, err)
	assert.Equal(t, 1, r.Len())

	r.Remove("memory://x")
	assert.Zero(t, r.Len())
}
