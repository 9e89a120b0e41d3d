package bundlebase

import (
	"bytes"
	"runtime"
	"strconv"
)

// GetGID returns the current goroutine id; used by log formatters to
// tell the producer and consumer sides of a walk apart.
func GetGID() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	b = b[:bytes.IndexByte(b, ' ')]
	n, _ := strconv.ParseUint(string(b), 10, 64)
	return n
}
