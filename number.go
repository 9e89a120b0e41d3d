package bundlebase

import "math"

// leUint64 decodes a little-endian integer of arbitrary byte width.
// Byte 0 is least significant.  The accumulation is checked: a value
// that doesn't fit in a uint64 returns ErrOverflow instead of wrapping.
func leUint64(buf []byte) (val uint64, err error) {
	for i := len(buf) - 1; i >= 0; i-- {
		b := uint64(buf[i])
		if val > (math.MaxUint64-b)/256 {
			return 0, ErrOverflow
		}
		val = val*256 + b
	}
	return
}
