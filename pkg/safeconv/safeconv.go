// Package safeconv provides saturating integer conversions for wire formats
// with narrower unsigned types.
package safeconv

import "math"

// MaxUint32 is the maximum value for uint32 type.
const MaxUint32 = uint32(math.MaxUint32)

// ClampUint32 converts v to uint32, saturating at 0 and MaxUint32.
func ClampUint32(v int) uint32 {
	switch {
	case v <= 0:
		return 0
	case uint64(v) > uint64(MaxUint32):
		return MaxUint32
	default:
		return uint32(v)
	}
}

// ClampUint64 converts v to uint64, mapping negative values to 0.
func ClampUint64(v int64) uint64 {
	if v < 0 {
		return 0
	}

	return uint64(v)
}
