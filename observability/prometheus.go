// Package observability exports vectable operation metrics to Prometheus.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/vectable"
)

var _ vectable.MetricsCollector = (*PrometheusCollector)(nil)

// PrometheusCollector implements vectable.MetricsCollector with Prometheus
// counters and histograms.
type PrometheusCollector struct {
	opLatency *prometheus.HistogramVec
	ops       *prometheus.CounterVec
	rows      *prometheus.CounterVec
	tableRows prometheus.Gauge
	queryK    prometheus.Histogram
}

// NewPrometheusCollector creates the collector and registers its metrics
// with reg. A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vectable",
			Name:      "operation_duration_seconds",
			Help:      "Duration of table operations in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"op"}),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vectable",
			Name:      "operations_total",
			Help:      "Total number of table operations",
		}, []string{"op", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vectable",
			Name:      "rows_total",
			Help:      "Rows deleted or indexed",
		}, []string{"op"}),
		tableRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vectable",
			Name:      "last_add_table_rows",
			Help:      "Live row count of the table written by the latest add",
		}),
		queryK: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vectable",
			Name:      "query_limit",
			Help:      "Requested result limit of queries",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}

	reg.MustRegister(c.opLatency, c.ops, c.rows, c.tableRows, c.queryK)
	return c
}

func (c *PrometheusCollector) observe(op string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.opLatency.WithLabelValues(op).Observe(d.Seconds())
	c.ops.WithLabelValues(op, status).Inc()
}

// RecordAdd implements vectable.MetricsCollector.
func (c *PrometheusCollector) RecordAdd(rows int, d time.Duration, err error) {
	c.observe("add", d, err)
	if err == nil {
		c.tableRows.Set(float64(rows))
	}
}

// RecordDelete implements vectable.MetricsCollector.
func (c *PrometheusCollector) RecordDelete(deleted int, d time.Duration, err error) {
	c.observe("delete", d, err)
	if err == nil {
		c.rows.WithLabelValues("delete").Add(float64(deleted))
	}
}

// RecordQuery implements vectable.MetricsCollector.
func (c *PrometheusCollector) RecordQuery(k int, d time.Duration, err error) {
	c.observe("query", d, err)
	if k > 0 {
		c.queryK.Observe(float64(k))
	}
}

// RecordIndexBuild implements vectable.MetricsCollector.
func (c *PrometheusCollector) RecordIndexBuild(rows int, d time.Duration, err error) {
	c.observe("index_build", d, err)
	if err == nil {
		c.rows.WithLabelValues("index").Add(float64(rows))
	}
}
