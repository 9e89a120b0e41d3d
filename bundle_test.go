package bundlebase

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseBundle(t *testing.T) {
	a := testEntry{id: entryID(0x01), data: make([]byte, 120)}
	b := testEntry{id: entryID(0x02), data: make([]byte, 300)}
	data := buildBundle(a, b)

	rd := bytes.NewReader(data)
	bundle, err := ParseBundle(rd)
	tassert(t, err == nil, "err %v", err)
	tassert(t, bundle.ItemCount == 2, "item count %d", bundle.ItemCount)
	tassert(t, len(bundle.Entries) == 2, "entries %d", len(bundle.Entries))
	tassert(t, bundle.Entries[0].Size == 120, "entry 0 size %d", bundle.Entries[0].Size)
	tassert(t, bundle.Entries[0].ID == entryID(0x01), "entry 0 id mangled")
	tassert(t, bundle.Entries[1].Size == 300, "entry 1 size %d", bundle.Entries[1].Size)
	tassert(t, bundle.Entries[1].ID == entryID(0x02), "entry 1 id mangled")
	// the directory decode stops at the first item's bytes
	tassert(t, rd.Len() == 120+300, "cursor off by %d", rd.Len()-(120+300))
}

func TestParseBundleEmpty(t *testing.T) {
	bundle, err := ParseBundle(bytes.NewReader(le(32, 0)))
	tassert(t, err == nil, "err %v", err)
	tassert(t, bundle.ItemCount == 0, "item count %d", bundle.ItemCount)
	tassert(t, len(bundle.Entries) == 0, "entries %d", len(bundle.Entries))
}

// a zero declared size is legal at directory level; it fails later, at
// item decode
func TestParseBundleZeroSizeEntry(t *testing.T) {
	data := buildBundle(testEntry{id: entryID(0x03), data: nil})
	bundle, err := ParseBundle(bytes.NewReader(data))
	tassert(t, err == nil, "err %v", err)
	tassert(t, bundle.Entries[0].Size == 0, "size %d", bundle.Entries[0].Size)
}

func TestParseBundleCountOverflow(t *testing.T) {
	count := make([]byte, 32)
	count[8] = 1 // 2^64
	_, err := ParseBundle(bytes.NewReader(count))
	tassert(t, errors.Is(err, ErrOverflow), "expected ErrOverflow, got %v", err)
}

func TestParseBundleSizeOverflow(t *testing.T) {
	buf := &bytes.Buffer{}
	buf.Write(le(32, 1))
	size := le(32, 0)
	size[31] = 0x80
	buf.Write(size)
	buf.Write(make([]byte, 32))

	_, err := ParseBundle(bytes.NewReader(buf.Bytes()))
	tassert(t, errors.Is(err, ErrOverflow), "expected ErrOverflow, got %v", err)
}

func TestParseBundleShort(t *testing.T) {
	// directory claims two entries, stream holds half of one
	buf := &bytes.Buffer{}
	buf.Write(le(32, 2))
	buf.Write(le(32, 100)[:16])

	_, err := ParseBundle(bytes.NewReader(buf.Bytes()))
	var rerr *ReadError
	tassert(t, errors.As(err, &rerr), "expected ReadError, got %v", err)
}
