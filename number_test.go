package bundlebase

import (
	"bytes"
	"math"
	"testing"
)

func TestLeUint64WithinRange(t *testing.T) {
	val, err := leUint64([]byte{0x01, 0x00, 0x00, 0x00})
	tassert(t, err == nil, "err %v", err)
	tassert(t, val == 1, "expected 1 got %d", val)

	val, err = leUint64([]byte{0x00, 0x01})
	tassert(t, err == nil, "err %v", err)
	tassert(t, val == 256, "expected 256 got %d", val)
}

func TestLeUint64Empty(t *testing.T) {
	val, err := leUint64([]byte{})
	tassert(t, err == nil, "err %v", err)
	tassert(t, val == 0, "expected 0 got %d", val)
}

func TestLeUint64ExactMax(t *testing.T) {
	val, err := leUint64(bytes.Repeat([]byte{0xff}, 8))
	tassert(t, err == nil, "err %v", err)
	tassert(t, val == math.MaxUint64, "expected max got %d", val)

	// high bytes present but zero must not overflow
	val, err = leUint64(append(bytes.Repeat([]byte{0xff}, 8), make([]byte, 24)...))
	tassert(t, err == nil, "err %v", err)
	tassert(t, val == math.MaxUint64, "expected max got %d", val)
}

func TestLeUint64Overflow(t *testing.T) {
	// 2^64 exactly
	buf := make([]byte, 9)
	buf[8] = 1
	_, err := leUint64(buf)
	tassert(t, err == ErrOverflow, "expected ErrOverflow got %v", err)

	// all ones, 9 bytes
	_, err = leUint64(bytes.Repeat([]byte{0xff}, 9))
	tassert(t, err == ErrOverflow, "expected ErrOverflow got %v", err)

	// a full 32-byte header field with a high bit set
	field := le(32, 1)
	field[31] = 0x80
	_, err = leUint64(field)
	tassert(t, err == ErrOverflow, "expected ErrOverflow got %v", err)
}
