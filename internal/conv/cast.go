package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when a value does not fit the target type.
var ErrOverflow = errors.New("integer overflow")

// Integer is the set of integer types the checked casts accept.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func overflow[T Integer](v T, target string) error {
	return fmt.Errorf("%w: %d does not fit %s", ErrOverflow, v, target)
}

// Int32 converts v to int32.
func Int32[T Integer](v T) (int32, error) {
	if v < 0 {
		if int64(v) < math.MinInt32 {
			return 0, overflow(v, "int32")
		}
		return int32(v), nil
	}
	if uint64(v) > math.MaxInt32 {
		return 0, overflow(v, "int32")
	}
	return int32(v), nil
}

// Uint32 converts v to uint32.
func Uint32[T Integer](v T) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, overflow(v, "uint32")
	}
	return uint32(v), nil
}

// MustUint32 is like Uint32 but panics on overflow. Use it only where the
// bound is already enforced by the caller.
func MustUint32[T Integer](v T) uint32 {
	u, err := Uint32(v)
	if err != nil {
		panic(err)
	}
	return u
}
