package bundlebase

import (
	"io"
)

// Entry is one directory row: the declared byte size of one item and
// its 32-byte identifier.  Size is the sole resynchronization anchor
// for the item and is trusted even when the item body is malformed.
// The identifier is opaque at this stage; nothing verifies it.
type Entry struct {
	Size uint64
	ID   [32]byte
}

// Bundle is the decoded directory of one nesting level.  It is decoded
// once per level and immutable afterwards.
type Bundle struct {
	ItemCount uint64
	Entries   []Entry
}

// ParseBundle decodes a bundle directory from the current stream
// position: a 32-byte little-endian entry count, then one 32-byte
// little-endian size plus 32 raw identifier bytes per entry.  An entry
// size of zero is legal here; it fails later, at item decode.
func ParseBundle(rd io.Reader) (bundle *Bundle, err error) {
	countBuf := make([]byte, 32)
	if _, err = io.ReadFull(rd, countBuf); err != nil {
		return nil, &ReadError{Err: err}
	}
	count, err := leUint64(countBuf)
	if err != nil {
		return
	}

	// don't trust a hostile count for preallocation; 64 bytes per
	// entry means a real directory can't outrun the stream for long
	prealloc := count
	if prealloc > 1024 {
		prealloc = 1024
	}
	bundle = &Bundle{ItemCount: count}
	bundle.Entries = make([]Entry, 0, prealloc)
	for i := uint64(0); i < count; i++ {
		sizeBuf := make([]byte, 32)
		if _, err = io.ReadFull(rd, sizeBuf); err != nil {
			return nil, &ReadError{Err: err}
		}
		size, err := leUint64(sizeBuf)
		if err != nil {
			return nil, err
		}

		var entry Entry
		entry.Size = size
		if _, err = io.ReadFull(rd, entry.ID[:]); err != nil {
			return nil, &ReadError{Err: err}
		}

		bundle.Entries = append(bundle.Entries, entry)
	}

	return
}
