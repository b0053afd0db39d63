package vectable

import (
	"context"
	"iter"
	"time"

	"github.com/hupe1980/vectable/distance"
	"github.com/hupe1980/vectable/internal/table"
	"github.com/hupe1980/vectable/model"
)

// DefaultLimit is the number of neighbours a vector query returns when
// Limit is not called.
const DefaultLimit = 10

// Result is one row returned by a query.
type Result struct {
	RowID model.RowID
	// Distance to the query vector under the query metric; smaller is
	// nearer. Zero for queries without a vector.
	Distance float32
	Row      model.Row
}

// Query starts a fluent query on the table.
//
// Example:
//
//	results, err := tbl.Query().
//	    NearestTo(vec).
//	    Limit(5).
//	    Where("age > 30").
//	    Execute(ctx)
//
// Without NearestTo the query returns the matching rows in insertion order.
func (t *Table) Query() *QueryBuilder {
	return &QueryBuilder{tbl: t}
}

// QueryBuilder is a fluent builder for table queries.
type QueryBuilder struct {
	tbl      *Table
	q        table.Query
	limitSet bool
}

// NearestTo makes the query a k nearest neighbour search around vec.
// The length of vec must match the dimension of the vector column.
func (qb *QueryBuilder) NearestTo(vec []float32) *QueryBuilder {
	qb.q.Vector = vec
	return qb
}

// Limit sets the maximum number of results. For vector queries it must be
// positive and defaults to DefaultLimit; for plain queries 0 means all rows.
func (qb *QueryBuilder) Limit(k int) *QueryBuilder {
	qb.q.Limit = k
	qb.limitSet = true
	return qb
}

// Offset skips the first n results.
func (qb *QueryBuilder) Offset(n int) *QueryBuilder {
	qb.q.Offset = n
	return qb
}

// Where restricts the query to rows matching the filter expression, for
// example "id > 24 AND name != 'bob'".
func (qb *QueryBuilder) Where(filter string) *QueryBuilder {
	qb.q.Where = filter
	return qb
}

// Metric sets the distance metric. Default: distance.MetricL2.
func (qb *QueryBuilder) Metric(m distance.Metric) *QueryBuilder {
	qb.q.Metric = m
	return qb
}

// NProbes sets how many IVF partitions an indexed search visits. Higher
// values improve recall but slow down search. 0 uses the index default.
func (qb *QueryBuilder) NProbes(n int) *QueryBuilder {
	qb.q.NProbes = n
	return qb
}

// Execute runs the query and returns the results, nearest first for
// vector queries.
func (qb *QueryBuilder) Execute(ctx context.Context) ([]Result, error) {
	q := qb.q
	if q.Vector != nil && !qb.limitSet {
		q.Limit = DefaultLimit
	}

	start := time.Now()
	rs, err := qb.tbl.t.Query(ctx, q)
	err = translateError(err)

	qb.tbl.metrics.RecordQuery(q.Limit, time.Since(start), err)
	qb.tbl.logger.LogQuery(ctx, qb.tbl.Name(), q.Limit, len(rs), err)
	if err != nil {
		return nil, err
	}

	out := make([]Result, len(rs))
	for i, r := range rs {
		out[i] = Result{RowID: r.RowID, Distance: r.Distance, Row: r.Row}
	}
	return out, nil
}

// MustExecute runs the query, panicking on error.
// Use this only in tests or when you're certain the query is valid.
func (qb *QueryBuilder) MustExecute(ctx context.Context) []Result {
	results, err := qb.Execute(ctx)
	if err != nil {
		panic(err)
	}
	return results
}

// Stream returns an iterator over the query results. A failed query yields
// a single error.
func (qb *QueryBuilder) Stream(ctx context.Context) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		results, err := qb.Execute(ctx)
		if err != nil {
			yield(Result{}, err)
			return
		}
		for _, r := range results {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// First returns only the first result, or ErrNotFound if nothing matches.
func (qb *QueryBuilder) First(ctx context.Context) (Result, error) {
	qb.Limit(1)
	results, err := qb.Execute(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(results) == 0 {
		return Result{}, ErrNotFound
	}
	return results[0], nil
}
