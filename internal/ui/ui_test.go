package ui

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "null", FormatVector(nil))
	assert.Equal(t, "[1 2 3]", FormatVector([]float32{1, 2, 3}))
	assert.Equal(t, "[1 2 3 ... 6 7 8] (8)", FormatVector([]float32{1, 2, 3, 4, 5, 6, 7, 8}))
}

func TestTable(t *testing.T) {
	out := Table([]string{"id", "name"}, [][]string{{"1", "Alice"}, {"2", "Bob"}})
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "name")
}

func TestKeyValue(t *testing.T) {
	out := KeyValue([2]string{"rows", "3"}, [2]string{"partitions", "4"})
	assert.Contains(t, out, "rows")
	assert.Contains(t, out, "4")
}

func TestLibraryLogger(t *testing.T) {
	l := LibraryLogger(slog.LevelDebug, "text")
	require.NotNil(t, l)
	assert.True(t, l.Enabled(t.Context(), slog.LevelDebug))

	j := LibraryLogger(slog.LevelWarn, "json")
	assert.False(t, j.Enabled(t.Context(), slog.LevelInfo))
}
