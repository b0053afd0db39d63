package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/vectable/batch"
	"github.com/hupe1980/vectable/blobstore"
	"github.com/hupe1980/vectable/internal/codec"
	"github.com/hupe1980/vectable/internal/fragment"
	"github.com/hupe1980/vectable/internal/index"
	"github.com/hupe1980/vectable/internal/resource"
	"github.com/hupe1980/vectable/schema"
)

// State is the lifecycle state of a table.
type State int32

const (
	StateCreating State = iota
	StateReady
	StateDropping
	StateDropped
)

func (s State) String() string {
	switch s {
	case StateCreating:
		return "Creating"
	case StateReady:
		return "Ready"
	case StateDropping:
		return "Dropping"
	case StateDropped:
		return "Dropped"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Table is a handle to one table. It is safe for concurrent use.
type Table struct {
	name   string
	store  *fragment.Store
	logger *slog.Logger
	rc     *resource.Controller

	compression     codec.Compression
	loadConcurrency int

	mu    sync.Mutex // serializes mutations
	state atomic.Int32
	index atomic.Pointer[index.Index]
}

// Option configures a Table.
type Option func(*Table)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Table) {
		t.logger = l
	}
}

// WithResourceController bounds cached fragment memory, blob write
// throughput and concurrent index builds.
func WithResourceController(rc *resource.Controller) Option {
	return func(t *Table) {
		t.rc = rc
	}
}

// WithCompression sets the column compression of new fragments.
func WithCompression(c codec.Compression) Option {
	return func(t *Table) {
		t.compression = c
	}
}

// WithLoadConcurrency bounds parallel fragment loads.
func WithLoadConcurrency(n int) Option {
	return func(t *Table) {
		t.loadConcurrency = n
	}
}

func newTable(name string, optFns []Option) *Table {
	t := &Table{
		name:        name,
		logger:      slog.New(slog.DiscardHandler),
		compression: codec.CompressionLZ4,
	}
	for _, fn := range optFns {
		fn(t)
	}
	t.logger = t.logger.With("table", name)
	return t
}

func (t *Table) fragmentOptions() []fragment.Option {
	return []fragment.Option{
		fragment.WithLogger(t.logger),
		fragment.WithResourceController(t.rc),
		fragment.WithCompression(t.compression),
		fragment.WithLoadConcurrency(t.loadConcurrency),
	}
}

// Create creates a table in blobs. When sch is nil the schema is taken from
// src. If src is given its rows are added before the table is returned; a
// failed initial add removes the table again.
func Create(ctx context.Context, blobs blobstore.BlobStore, name string, sch *schema.Schema, src batch.Source, optFns ...Option) (*Table, error) {
	if sch == nil {
		if src == nil || src.Schema() == nil {
			return nil, ErrNoSchema
		}
		sch = src.Schema()
	}

	t := newTable(name, optFns)
	t.state.Store(int32(StateCreating))

	store, err := fragment.Create(ctx, blobs, sch, t.fragmentOptions()...)
	if err != nil {
		if errors.Is(err, fragment.ErrExists) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	t.store = store

	if src != nil {
		if _, err := t.add(ctx, src); err != nil {
			if dropErr := store.Drop(context.WithoutCancel(ctx)); dropErr != nil {
				t.logger.Warn("cleanup after failed create", "error", dropErr)
			}
			return nil, err
		}
	}

	t.state.Store(int32(StateReady))
	t.logger.Info("table created", "schema", sch.String(), "rows", store.Snapshot().NumRows())
	return t, nil
}

// Open opens the table stored in blobs, including its vector index if one
// was built.
func Open(ctx context.Context, blobs blobstore.BlobStore, name string, optFns ...Option) (*Table, error) {
	t := newTable(name, optFns)

	store, err := fragment.Open(ctx, blobs, t.fragmentOptions()...)
	if err != nil {
		if errors.Is(err, fragment.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.store = store

	if info := store.Snapshot().Index(); info != nil {
		data, err := store.ReadIndex(ctx, info.Path)
		if err != nil {
			return nil, err
		}
		ix, err := index.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("table %s: load index: %w", name, err)
		}
		t.index.Store(ix)
	}

	t.state.Store(int32(StateReady))
	t.logger.Debug("table opened", "version", t.store.Snapshot().Version())
	return t, nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// State returns the lifecycle state.
func (t *Table) State() State { return State(t.state.Load()) }

// Schema returns the table schema.
func (t *Table) Schema() *schema.Schema { return t.store.Snapshot().Schema() }

// Version returns the committed manifest version. Every add, delete and
// index build that changes the table increments it.
func (t *Table) Version() uint64 { return t.store.Snapshot().Version() }

func (t *Table) String() string {
	return fmt.Sprintf("Table(%s, %s)", t.name, t.Schema())
}

// Drop removes the table and all of its data. Later operations on t fail
// with ErrTableDropped.
func (t *Table) Drop(ctx context.Context) error {
	if !t.state.CompareAndSwap(int32(StateReady), int32(StateDropping)) {
		return ErrTableDropped
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.store.Drop(ctx)
	if !t.store.Dropped() {
		// CURRENT is still in place, so the table is intact.
		t.state.Store(int32(StateReady))
		return err
	}

	t.index.Store(nil)
	t.state.Store(int32(StateDropped))
	if err != nil {
		return err
	}
	t.logger.Info("table dropped")
	return nil
}

// Close releases cached data. The table stays on disk.
func (t *Table) Close() error {
	return t.store.Close()
}

func (t *Table) checkReady() error {
	if t.State() != StateReady {
		return ErrTableDropped
	}
	return nil
}

// translate maps storage errors caused by a concurrent drop.
func translate(err error) error {
	if errors.Is(err, fragment.ErrDropped) {
		return ErrTableDropped
	}
	return err
}
