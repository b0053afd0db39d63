package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewPrometheusCollector(reg)

	c.RecordAdd(42, time.Millisecond, nil)
	c.RecordAdd(0, time.Millisecond, errors.New("boom"))
	c.RecordDelete(3, time.Millisecond, nil)
	c.RecordQuery(10, 2*time.Millisecond, nil)
	c.RecordIndexBuild(100, time.Second, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("add", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ops.WithLabelValues("add", "error")))
	assert.Equal(t, 42.0, testutil.ToFloat64(c.tableRows))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.rows.WithLabelValues("delete")))
	assert.Equal(t, 100.0, testutil.ToFloat64(c.rows.WithLabelValues("index")))

	n, err := testutil.GatherAndCount(reg, "vectable_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestRegisterTwicePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusCollector(reg)
	assert.Panics(t, func() { NewPrometheusCollector(reg) })
}
