package vectable

import (
	"context"
	"iter"
	"time"

	"github.com/hupe1980/vectable/batch"
	"github.com/hupe1980/vectable/distance"
	"github.com/hupe1980/vectable/internal/index"
	"github.com/hupe1980/vectable/internal/table"
	"github.com/hupe1980/vectable/model"
	"github.com/hupe1980/vectable/schema"
)

// Table is a handle to a named table of a Database. Handles are safe for
// concurrent use; writes to one table are serialized, reads never wait for
// writes.
type Table struct {
	t       *table.Table
	logger  *Logger
	metrics MetricsCollector
}

// Name returns the table name.
func (t *Table) Name() string { return t.t.Name() }

// Schema returns the table schema.
func (t *Table) Schema() *schema.Schema { return t.t.Schema() }

// Version returns the version of the latest commit. It starts at 1 and
// grows by one with every add, delete and index build.
func (t *Table) Version() uint64 { return t.t.Version() }

// String implements fmt.Stringer.
func (t *Table) String() string { return t.t.String() }

// Add appends the rows of src and returns the number of live rows
// afterwards. Every batch must match the table schema by column name; a
// failing batch aborts the whole add and nothing becomes visible.
//
// Add does not update the vector index. New rows are searched exactly until
// the next CreateIndex.
func (t *Table) Add(ctx context.Context, src batch.Source) (int, error) {
	start := time.Now()
	n, err := t.t.Add(ctx, src)
	err = translateError(err)

	t.metrics.RecordAdd(n, time.Since(start), err)
	t.logger.LogAdd(ctx, t.Name(), n, err)
	return n, err
}

// Delete removes the rows matching where, for example "id > 24" or
// "name = 'bob' AND age < 30", and returns how many rows it removed.
// Deleting is idempotent: rows that are already gone are not counted.
func (t *Table) Delete(ctx context.Context, where string) (int, error) {
	start := time.Now()
	n, err := t.t.Delete(ctx, where)
	err = translateError(err)

	t.metrics.RecordDelete(n, time.Since(start), err)
	t.logger.LogDelete(ctx, t.Name(), where, n, err)
	return n, err
}

// CountRows returns the number of live rows matching where. An empty
// filter counts all rows.
func (t *Table) CountRows(ctx context.Context, where string) (int, error) {
	n, err := t.t.CountRows(ctx, where)
	return n, translateError(err)
}

// Scan returns the live rows matching where in insertion order. The
// sequence reads one consistent snapshot and can be ranged over more than
// once.
//
//	rows, err := tbl.Scan(ctx, "id < 10")
//	if err != nil { ... }
//	for row, err := range rows {
//	    if err != nil { break }
//	    fmt.Println(row)
//	}
func (t *Table) Scan(ctx context.Context, where string) (iter.Seq2[model.Row, error], error) {
	seq, err := t.t.Scan(ctx, where)
	if err != nil {
		return nil, translateError(err)
	}
	return func(yield func(model.Row, error) bool) {
		for row, err := range seq {
			if !yield(row, translateError(err)) {
				return
			}
		}
	}, nil
}

// IndexOption configures CreateIndex.
type IndexOption func(*table.IndexOptions)

// WithIndexMetric sets the metric the index is trained for. Only queries
// using the same metric use the index. Default: distance.MetricL2.
func WithIndexMetric(m distance.Metric) IndexOption {
	return func(o *table.IndexOptions) {
		o.Metric = m
	}
}

// WithPartitions sets the number of IVF partitions. By default it is
// derived from the row count (about the square root).
func WithPartitions(n int) IndexOption {
	return func(o *table.IndexOptions) {
		o.Partitions = n
	}
}

// WithIndexSeed fixes the seed of k-means training so builds over the same
// data are reproducible.
func WithIndexSeed(seed uint64) IndexOption {
	return func(o *table.IndexOptions) {
		o.Seed = seed
	}
}

// IndexStats describes how much of a table its vector index covers.
type IndexStats struct {
	// Indexed is false when the table has never been indexed. An index
	// built over a table without live rows counts as indexed.
	Indexed       bool
	IndexedRows   uint64
	UnindexedRows uint64
	Partitions    int
	Metric        distance.Metric
}

func toIndexStats(st index.Stats) IndexStats {
	return IndexStats{
		Indexed:       st.Indexed,
		IndexedRows:   st.IndexedRows,
		UnindexedRows: st.UnindexedRows,
		Partitions:    st.Partitions,
		Metric:        st.Metric,
	}
}

// CreateIndex trains an IVF index over the vector column and replaces the
// previous index of the table. Rows added later stay searchable; they are
// scanned exactly until the index is rebuilt.
func (t *Table) CreateIndex(ctx context.Context, optFns ...IndexOption) (IndexStats, error) {
	var opts table.IndexOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	start := time.Now()
	st, err := t.t.BuildIndex(ctx, opts)
	err = translateError(err)

	t.metrics.RecordIndexBuild(int(st.IndexedRows), time.Since(start), err)
	t.logger.LogIndexBuild(ctx, t.Name(), st.IndexedRows, err)
	if err != nil {
		return IndexStats{}, err
	}
	return toIndexStats(st), nil
}

// IndexStats reports the coverage of the current index.
func (t *Table) IndexStats() (IndexStats, error) {
	st, err := t.t.IndexStats()
	if err != nil {
		return IndexStats{}, translateError(err)
	}
	return toIndexStats(st), nil
}

// Close releases cached fragment data. The handle stays usable.
func (t *Table) Close() error {
	return t.t.Close()
}
