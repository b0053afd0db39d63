// Package catalog maps database locations to their tables.
//
// A Catalog is one database: a blob store namespace in which every table
// lives under "<name>/". Tables are discovered by their CURRENT pointer.
// The catalog's lock only guards its name map; table operations run
// outside of it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/vectable/batch"
	"github.com/hupe1980/vectable/blobstore"
	"github.com/hupe1980/vectable/internal/manifest"
	"github.com/hupe1980/vectable/internal/table"
	"github.com/hupe1980/vectable/schema"
)

// ErrInvalidName is returned for table names that cannot be used as a
// storage namespace.
var ErrInvalidName = errors.New("invalid table name")

// Catalog is the set of tables of one database.
type Catalog struct {
	uri       string
	blobs     blobstore.BlobStore
	logger    *slog.Logger
	tableOpts []table.Option

	mu       sync.Mutex
	tables   map[string]*table.Table
	creating map[string]struct{}
}

// New returns the catalog of the database stored in blobs. Table handles
// are created with tableOpts.
func New(uri string, blobs blobstore.BlobStore, logger *slog.Logger, tableOpts ...table.Option) *Catalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Catalog{
		uri:       uri,
		blobs:     blobs,
		logger:    logger.With("database", uri),
		tableOpts: append(slices.Clone(tableOpts), table.WithLogger(logger)),
		tables:    make(map[string]*table.Table),
		creating:  make(map[string]struct{}),
	}
}

// URI returns the normalized location of the database.
func (c *Catalog) URI() string { return c.uri }

// ValidateName checks that name is a usable table name: ASCII letters,
// digits, '_', '-' and '.', not starting with '.'.
func ValidateName(name string) error {
	if name == "" || name[0] == '.' {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == '.':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

func (c *Catalog) tableStore(name string) blobstore.BlobStore {
	return blobstore.Prefixed(c.blobs, name)
}

// CreateTable creates a table. sch may be nil when src carries the schema.
// It fails with table.ErrAlreadyExists if the name is taken.
func (c *Catalog) CreateTable(ctx context.Context, name string, sch *schema.Schema, src batch.Source) (*table.Table, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if _, busy := c.creating[name]; busy {
		c.mu.Unlock()
		return nil, table.ErrAlreadyExists
	}
	if t, ok := c.tables[name]; ok && t.State() == table.StateReady {
		c.mu.Unlock()
		return nil, table.ErrAlreadyExists
	}
	c.creating[name] = struct{}{}
	c.mu.Unlock()

	t, err := table.Create(ctx, c.tableStore(name), name, sch, src, c.tableOpts...)

	c.mu.Lock()
	delete(c.creating, name)
	if err == nil {
		c.tables[name] = t
	}
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return t, nil
}

// OpenTable returns the handle of an existing table. Repeated opens return
// the same handle.
func (c *Catalog) OpenTable(ctx context.Context, name string) (*table.Table, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if t, ok := c.tables[name]; ok && t.State() == table.StateReady {
		c.mu.Unlock()
		return t, nil
	}
	c.mu.Unlock()

	t, err := table.Open(ctx, c.tableStore(name), name, c.tableOpts...)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.tables[name]; ok && cur.State() == table.StateReady {
		_ = t.Close()
		return cur, nil
	}
	c.tables[name] = t
	return t, nil
}

// DropTable drops the named table. Open handles of it become unusable.
func (c *Catalog) DropTable(ctx context.Context, name string) error {
	t, err := c.OpenTable(ctx, name)
	if err != nil {
		return err
	}
	if err := t.Drop(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	if c.tables[name] == t {
		delete(c.tables, name)
	}
	c.mu.Unlock()

	c.logger.Info("table dropped", "table", name)
	return nil
}

// TableNames returns the names of all tables, sorted.
func (c *Catalog) TableNames(ctx context.Context) ([]string, error) {
	blobs, err := c.blobs.List(ctx, "")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, b := range blobs {
		name, ok := strings.CutSuffix(b, "/"+manifest.CurrentFileName)
		if !ok || strings.Contains(name, "/") || ValidateName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// DropDatabase drops every table and removes all remaining blobs of the
// database. The catalog stays usable and is empty afterwards.
func (c *Catalog) DropDatabase(ctx context.Context) error {
	names, err := c.TableNames(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := c.DropTable(ctx, name); err != nil && !errors.Is(err, table.ErrNotFound) {
			return fmt.Errorf("drop table %s: %w", name, err)
		}
	}

	if err := blobstore.DeletePrefix(ctx, c.blobs, ""); err != nil {
		return err
	}

	c.mu.Lock()
	stale := c.tables
	c.tables = make(map[string]*table.Table)
	c.mu.Unlock()
	for _, t := range stale {
		_ = t.Close()
	}

	c.logger.Info("database dropped", "tables", len(names))
	return nil
}

// Close releases the cached data of all open tables.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for _, t := range c.tables {
		errs = append(errs, t.Close())
	}
	return errors.Join(errs...)
}
