package bundlebase

import (
	"bytes"
	"testing"

	"github.com/hamba/avro/v2"
)

// test boolean condition
func tassert(t *testing.T, cond bool, txt string, args ...interface{}) {
	t.Helper() // cause file:line info to show caller
	if !cond {
		t.Fatalf(txt, args...)
	}
}

func mkbuf(s string) []byte {
	tmp := []byte(s)
	return tmp
}

// le renders val as a little-endian field of the given byte width.
func le(width int, val uint64) (buf []byte) {
	buf = make([]byte, width)
	for i := range buf {
		buf[i] = byte(val)
		val >>= 8
	}
	return
}

// encodeTags produces an Avro tag blob with the same schema the
// decoder uses.
func encodeTags(t *testing.T, tags []Tag) (buf []byte) {
	t.Helper()
	buf, err := avro.Marshal(tagsSchema, tags)
	tassert(t, err == nil, "encode tags: %v", err)
	return
}

// bundleTags is the marker pair that classifies an item as a nested
// bundle.
func bundleTags() []Tag {
	return []Tag{
		{Name: mkbuf("Bundle-Format"), Value: mkbuf("binary")},
		{Name: mkbuf("Bundle-Version"), Value: mkbuf("2.0.0")},
	}
}

// buildItem assembles one item's wire bytes: 2-byte signature type,
// signature and owner sized per the type, presence-flagged target and
// anchor, 8-byte tag count and blob length, tag blob, then payload.
func buildItem(t *testing.T, sigType int, signature, owner, target, anchor []byte, tags []Tag, payload []byte) (out []byte) {
	t.Helper()
	buf := &bytes.Buffer{}
	buf.Write(le(2, uint64(sigType)))
	buf.Write(signature)
	buf.Write(owner)
	for _, opt := range [][]byte{target, anchor} {
		if opt != nil {
			buf.WriteByte(1)
			buf.Write(opt)
		} else {
			buf.WriteByte(0)
		}
	}
	var blob []byte
	if len(tags) > 0 {
		blob = encodeTags(t, tags)
	}
	buf.Write(le(8, uint64(len(tags))))
	buf.Write(le(8, uint64(len(blob))))
	buf.Write(blob)
	buf.Write(payload)
	return buf.Bytes()
}

// ed25519Item builds a minimal signature-type-2 item.
func ed25519Item(t *testing.T, sig byte, tags []Tag, payload []byte) []byte {
	t.Helper()
	signature := bytes.Repeat([]byte{sig}, 64)
	owner := bytes.Repeat([]byte{0xaa}, 32)
	return buildItem(t, 2, signature, owner, nil, nil, tags, payload)
}

type testEntry struct {
	id   [32]byte
	data []byte
}

// buildBundle assembles one bundle: the entry directory followed by
// the entries' item bytes in directory order.
func buildBundle(entries ...testEntry) (out []byte) {
	buf := &bytes.Buffer{}
	buf.Write(le(32, uint64(len(entries))))
	for _, e := range entries {
		buf.Write(le(32, uint64(len(e.data))))
		buf.Write(e.id[:])
	}
	for _, e := range entries {
		buf.Write(e.data)
	}
	return buf.Bytes()
}

func entryID(b byte) (id [32]byte) {
	for i := range id {
		id[i] = b
	}
	return
}
