package vectable

import (
	"context"
	"fmt"

	"github.com/hupe1980/vectable/batch"
	"github.com/hupe1980/vectable/internal/catalog"
	"github.com/hupe1980/vectable/internal/resource"
	"github.com/hupe1980/vectable/internal/table"
	"github.com/hupe1980/vectable/schema"
)

// databases holds every database connected in this process, keyed by
// normalized URI.
var databases = catalog.NewRegistry[*Database]()

// Database is a set of tables stored under one URI.
type Database struct {
	loc     location
	catalog *catalog.Catalog
	logger  *Logger
	metrics MetricsCollector
}

// Connect opens the database at uri. Connecting twice to the same
// location returns the same Database, so tables created through one handle
// are visible through the other.
//
// Supported URIs:
//
//	./data, /abs/path, file:///abs/path   local directory (created if missing)
//	memory://name                         process-local, lost on exit
//	s3://bucket/prefix                    Amazon S3
//
// Any other scheme requires WithBlobStore.
func Connect(ctx context.Context, uri string, optFns ...Option) (*Database, error) {
	loc, err := parseURI(uri)
	if err != nil {
		return nil, err
	}

	return databases.Get(loc.String(), func() (*Database, error) {
		o := applyOptions(optFns)

		rc := resource.NewController(resource.Config{
			MemoryLimitBytes:   o.memoryLimit,
			MaxIndexBuilds:     o.maxBuilds,
			IOLimitBytesPerSec: o.ioLimit,
		})

		blobs, err := openStore(ctx, loc, &o, rc)
		if err != nil {
			return nil, err
		}

		tableOpts := []table.Option{
			table.WithResourceController(rc),
			table.WithCompression(o.compression),
		}
		if o.loadConcurrency > 0 {
			tableOpts = append(tableOpts, table.WithLoadConcurrency(o.loadConcurrency))
		}

		o.logger.InfoContext(ctx, "database connected", "uri", loc.String())

		return &Database{
			loc:     loc,
			catalog: catalog.New(loc.String(), blobs, o.logger.Logger, tableOpts...),
			logger:  o.logger,
			metrics: o.metricsCollector,
		}, nil
	})
}

// URI returns the normalized location of the database.
func (db *Database) URI() string { return db.loc.String() }

// String implements fmt.Stringer.
func (db *Database) String() string {
	return fmt.Sprintf("Database(%s)", db.loc)
}

// CreateTableOption configures CreateTable.
type CreateTableOption func(*createTableOptions)

type createTableOptions struct {
	schema *schema.Schema
}

// WithSchema sets the table schema explicitly instead of taking it from the
// data source. The source must then match it by column name.
func WithSchema(s *schema.Schema) CreateTableOption {
	return func(o *createTableOptions) {
		o.schema = s
	}
}

// CreateTable creates a table named name holding the rows of src. The table
// schema is the schema of src unless WithSchema says otherwise.
//
// Creation is atomic: if src fails part way, no table is left behind.
func (db *Database) CreateTable(ctx context.Context, name string, src batch.Source, optFns ...CreateTableOption) (*Table, error) {
	var o createTableOptions
	for _, fn := range optFns {
		fn(&o)
	}
	t, err := db.catalog.CreateTable(ctx, name, o.schema, src)
	if err != nil {
		err = translateError(err)
		db.logger.LogCreate(ctx, name, 0, err)
		return nil, err
	}

	rows, err := t.CountRows(ctx, "")
	if err != nil {
		return nil, translateError(err)
	}
	db.logger.LogCreate(ctx, name, rows, nil)

	return db.wrap(t), nil
}

// CreateEmptyTable creates a table without rows. s must not be nil.
func (db *Database) CreateEmptyTable(ctx context.Context, name string, s *schema.Schema) (*Table, error) {
	return db.CreateTable(ctx, name, nil, WithSchema(s))
}

// OpenTable returns the table named name.
func (db *Database) OpenTable(ctx context.Context, name string) (*Table, error) {
	t, err := db.catalog.OpenTable(ctx, name)
	if err != nil {
		return nil, translateError(err)
	}
	return db.wrap(t), nil
}

// TableNames returns the names of all tables in lexical order.
func (db *Database) TableNames(ctx context.Context) ([]string, error) {
	names, err := db.catalog.TableNames(ctx)
	return names, translateError(err)
}

// DropTable deletes the table named name and all of its data. Handles to
// the table held elsewhere fail with ErrTableDropped afterwards.
func (db *Database) DropTable(ctx context.Context, name string) error {
	err := translateError(db.catalog.DropTable(ctx, name))
	db.logger.LogDrop(ctx, name, err)
	return err
}

// DropDatabase deletes every table and everything else stored under the
// database URI. The Database stays usable and is empty afterwards.
func (db *Database) DropDatabase(ctx context.Context) error {
	err := translateError(db.catalog.DropDatabase(ctx))
	db.logger.LogDrop(ctx, "", err)
	return err
}

// Close releases the table handles of the database and disconnects it;
// the next Connect to the same URI opens it afresh.
func (db *Database) Close() error {
	if db == nil {
		return nil
	}
	databases.Remove(db.loc.String())
	return db.catalog.Close()
}

func (db *Database) wrap(t *table.Table) *Table {
	return &Table{
		t:       t,
		logger:  db.logger,
		metrics: db.metrics,
	}
}
