package vectable

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// observability package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordAdd is called after each add. rows is the live row count of the
	// table afterwards, duration is the total time taken, err is nil if
	// successful.
	RecordAdd(rows int, duration time.Duration, err error)

	// RecordDelete is called after each delete. deleted is the number of
	// rows tombstoned.
	RecordDelete(deleted int, duration time.Duration, err error)

	// RecordQuery is called after each query. k is the requested limit.
	RecordQuery(k int, duration time.Duration, err error)

	// RecordIndexBuild is called after each index build. rows is the number
	// of rows the new index covers.
	RecordIndexBuild(rows int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordDelete(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordIndexBuild(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount         atomic.Int64
	AddRows          atomic.Int64
	AddErrors        atomic.Int64
	AddTotalNanos    atomic.Int64
	DeleteCount      atomic.Int64
	DeletedRows      atomic.Int64
	DeleteErrors     atomic.Int64
	QueryCount       atomic.Int64
	QueryErrors      atomic.Int64
	QueryTotalNanos  atomic.Int64
	IndexBuildCount  atomic.Int64
	IndexBuildErrors atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(rows int, duration time.Duration, err error) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddErrors.Add(1)
		return
	}
	b.AddRows.Add(int64(rows))
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(deleted int, _ time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
		return
	}
	b.DeletedRows.Add(int64(deleted))
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_ int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordIndexBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexBuild(_ int, _ time.Duration, err error) {
	b.IndexBuildCount.Add(1)
	if err != nil {
		b.IndexBuildErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:         b.AddCount.Load(),
		AddRows:          b.AddRows.Load(),
		AddErrors:        b.AddErrors.Load(),
		AddAvgNanos:      avg(b.AddTotalNanos.Load(), b.AddCount.Load()),
		DeleteCount:      b.DeleteCount.Load(),
		DeletedRows:      b.DeletedRows.Load(),
		DeleteErrors:     b.DeleteErrors.Load(),
		QueryCount:       b.QueryCount.Load(),
		QueryErrors:      b.QueryErrors.Load(),
		QueryAvgNanos:    avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		IndexBuildCount:  b.IndexBuildCount.Load(),
		IndexBuildErrors: b.IndexBuildErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount         int64
	AddRows          int64
	AddErrors        int64
	AddAvgNanos      int64
	DeleteCount      int64
	DeletedRows      int64
	DeleteErrors     int64
	QueryCount       int64
	QueryErrors      int64
	QueryAvgNanos    int64
	IndexBuildCount  int64
	IndexBuildErrors int64
}
