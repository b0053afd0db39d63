package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt32(t *testing.T) {
	got, err := Int32(123)
	require.NoError(t, err)
	assert.Equal(t, int32(123), got)

	got, err = Int32(int64(math.MinInt32))
	require.NoError(t, err)
	assert.Equal(t, int32(math.MinInt32), got)

	_, err = Int32(int64(math.MaxInt32) + 1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Int32(int64(math.MinInt32) - 1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Int32(uint64(math.MaxUint64))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestUint32(t *testing.T) {
	got, err := Uint32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), got)

	got, err = Uint32(uint64(math.MaxUint32))
	require.NoError(t, err)
	assert.Equal(t, uint32(math.MaxUint32), got)

	_, err = Uint32(-1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Uint32(uint64(math.MaxUint32) + 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestMustUint32(t *testing.T) {
	assert.Equal(t, uint32(9), MustUint32(9))
	assert.Panics(t, func() { MustUint32(-1) })
}
