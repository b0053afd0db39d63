package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vectable/batch"
	"github.com/hupe1980/vectable/distance"
)

func TestUniformVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UniformVectors(8, 32)

	assert.Equal(t, 8, len(v))
	assert.Equal(t, 32, len(v[0]))
	assert.LessOrEqual(t, v[0][0], float32(1.0))
	assert.GreaterOrEqual(t, v[1][0], float32(0.0))
}

func TestUnitVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UnitVectors(8, 32)

	assert.Equal(t, 8, len(v))
	for _, vec := range v {
		var sum float32
		for _, val := range vec {
			sum += val * val
		}
		assert.InDelta(t, float32(1.0), sum, 1e-5)
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(1)
	a := rng.UniformVectors(2, 4)
	rng.Reset()
	b := rng.UniformVectors(2, 4)
	assert.Equal(t, a, b)
	assert.Equal(t, uint64(1), rng.Seed())
}

func TestClusteredVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.ClusteredVectors(100, 16, 4, 0.01)
	require.Len(t, v, 100)

	// Members of one cluster are much closer to each other than to others.
	same := distance.SquaredL2(v[0], v[4])
	other := distance.SquaredL2(v[0], v[1])
	assert.Less(t, same, other)
}

func TestBruteForceSearchAndRecall(t *testing.T) {
	vecs := [][]float32{{0, 0}, {1, 0}, {1, 0}, {5, 5}}

	got := BruteForceSearch(vecs, []float32{1, 0}, 3, distance.MetricL2)
	require.Len(t, got, 3)
	assert.EqualValues(t, 1, got[0].ID)
	assert.EqualValues(t, 2, got[1].ID)
	assert.EqualValues(t, 0, got[2].ID)

	assert.Equal(t, 1.0, ComputeRecall(got, got))
	assert.InDelta(t, 2.0/3.0, ComputeRecall(got, []SearchResult{{ID: 1}, {ID: 2}, {ID: 3}}), 1e-9)
	assert.Equal(t, 1.0, ComputeRecall(nil, nil))
	assert.Equal(t, 0.0, ComputeRecall(got, nil))
}

func TestVectorSource(t *testing.T) {
	src := VectorSource(10, [][]float32{{1, 2}, {3, 4}})
	batches, err := batch.Collect(src)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 2, batches[0].NumRows())
	assert.Equal(t, int32(11), batches[0].Row(1)[0].I32)
}
