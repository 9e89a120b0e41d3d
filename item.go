package bundlebase

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// DataItem is one decoded item.  It is constructed only when its
// header has fully decoded, is never mutated afterwards, and has no
// stored id -- the id is derived from the signature on demand.
type DataItem struct {
	Signature []byte
	Owner     []byte
	Target    []byte // 32 bytes, or nil when absent
	Anchor    []byte // 32 bytes, or nil when absent
	Tags      []Tag
	BundledIn string
	IsBundle  bool
}

// ID returns SHA-256 of the item's signature.
func (item *DataItem) ID() [sha256.Size]byte {
	return sha256.Sum256(item.Signature)
}

// MarshalJSON renders the item with binary fields base64url encoded
// and absent target/anchor as empty strings.
func (item *DataItem) MarshalJSON() (buf []byte, err error) {
	id := item.ID()
	out := struct {
		ID        string `json:"id"`
		Signature string `json:"signature"`
		Owner     string `json:"owner"`
		Target    string `json:"target"`
		Anchor    string `json:"anchor"`
		Tags      []Tag  `json:"tags"`
		BundledIn string `json:"bundled_in"`
		IsBundle  bool   `json:"is_bundle"`
	}{
		ID:        base64.RawURLEncoding.EncodeToString(id[:]),
		Signature: base64.RawURLEncoding.EncodeToString(item.Signature),
		Owner:     base64.RawURLEncoding.EncodeToString(item.Owner),
		Tags:      item.Tags,
		BundledIn: item.BundledIn,
		IsBundle:  item.IsBundle,
	}
	if item.Tags == nil {
		out.Tags = []Tag{}
	}
	if item.Target != nil {
		out.Target = base64.RawURLEncoding.EncodeToString(item.Target)
	}
	if item.Anchor != nil {
		out.Anchor = base64.RawURLEncoding.EncodeToString(item.Anchor)
	}
	return json.Marshal(out)
}

// entryReader tracks the cursor within one entry's byte region.  Every
// header read is bounded by the entry's declared size: a read that
// would cross it fails with a ParseError at the current offset, so
// a truncated or zero-size entry resynchronizes cleanly instead of
// stealing bytes from its siblings.  Failures of the underlying stream
// are ReadErrors and fatal.
type entryReader struct {
	rd   io.Reader
	size uint64 // declared entry size
	n    uint64 // bytes consumed so far
}

func (er *entryReader) read(buf []byte) (err error) {
	if er.n+uint64(len(buf)) > er.size {
		return &ParseError{
			Msg:       fmt.Sprintf("header truncated by declared size %d", er.size),
			BytesRead: er.n,
		}
	}
	_, err = io.ReadFull(er.rd, buf)
	if err != nil {
		return &ReadError{Err: err}
	}
	er.n += uint64(len(buf))
	return
}

func (er *entryReader) remaining() uint64 {
	return er.size - er.n
}

// discard reads and drops exactly n bytes from rd.
func discard(rd io.Reader, n uint64) (err error) {
	for n > 0 {
		step := n
		if step > 1<<30 {
			step = 1 << 30
		}
		_, err = io.CopyN(io.Discard, rd, int64(step))
		if err != nil {
			return &ReadError{Err: err}
		}
		n -= step
	}
	return
}

// ParseItem decodes one item header from rd.  size is the entry's
// declared byte size, covering the header and any payload.  For an
// ordinary item the trailing payload is consumed and dropped, leaving
// the cursor exactly at the next sibling entry.  For an item that is
// itself a bundle, ParseItem stops without consuming further bytes:
// the remaining declared bytes are the nested bundle's directory and
// items, and the caller reinterprets them.
//
// Structural violations return *ParseError with the entry offset where
// they were detected; stream failures return *ReadError.  Tags that
// fail validation are dropped and reported through obs (which may be
// nil).
func ParseItem(rd io.Reader, bundledIn string, size uint64, obs Observer) (item *DataItem, err error) {
	er := &entryReader{rd: rd, size: size}

	sigTypeBuf := make([]byte, 2)
	if err = er.read(sigTypeBuf); err != nil {
		return
	}
	sigType := binary.LittleEndian.Uint16(sigTypeBuf)

	var sigLen, ownerLen int
	switch sigType {
	case 1: // RSA
		sigLen, ownerLen = 512, 512
	case 2: // ED25519
		sigLen, ownerLen = 64, 32
	default:
		return nil, &ParseError{
			Msg:       fmt.Sprintf("unknown signature type: %d", sigType),
			BytesRead: er.n,
		}
	}

	signature := make([]byte, sigLen)
	if err = er.read(signature); err != nil {
		return
	}

	owner := make([]byte, ownerLen)
	if err = er.read(owner); err != nil {
		return
	}

	target, err := readOptional(er, "target")
	if err != nil {
		return
	}
	anchor, err := readOptional(er, "anchor")
	if err != nil {
		return
	}

	countBuf := make([]byte, 8)
	if err = er.read(countBuf); err != nil {
		return
	}
	tagCount, err := leUint64(countBuf)
	if err != nil {
		// unreachable for 8-byte fields, but keep the contract
		return nil, &ParseError{Msg: err.Error(), BytesRead: er.n}
	}
	if tagCount > MaxTags {
		return nil, &ParseError{
			Msg:       fmt.Sprintf("too many tags: %d", tagCount),
			BytesRead: er.n,
		}
	}

	lengthBuf := make([]byte, 8)
	if err = er.read(lengthBuf); err != nil {
		return
	}
	tagsLength, err := leUint64(lengthBuf)
	if err != nil {
		return nil, &ParseError{Msg: err.Error(), BytesRead: er.n}
	}
	if tagsLength > er.remaining() {
		return nil, &ParseError{
			Msg:       fmt.Sprintf("tags length %d exceeds declared size", tagsLength),
			BytesRead: er.n,
		}
	}

	tagsBuf := make([]byte, tagsLength)
	if err = er.read(tagsBuf); err != nil {
		return
	}

	var onDrop func(Tag, error)
	if obs != nil {
		onDrop = obs.DropTag
	}
	tags, isBundle, terr := parseTags(tagsBuf, tagCount, onDrop)
	if terr != nil {
		return nil, &ParseError{
			Msg:       fmt.Sprintf("failed to parse tags: %v", terr),
			BytesRead: er.n,
		}
	}

	item = &DataItem{
		Signature: signature,
		Owner:     owner,
		Target:    target,
		Anchor:    anchor,
		Tags:      tags,
		BundledIn: bundledIn,
		IsBundle:  isBundle,
	}

	if !isBundle {
		// drop the payload so the cursor lands on the next entry
		if err = discard(er.rd, er.remaining()); err != nil {
			return nil, err
		}
	}

	return
}

// readOptional consumes a presence byte and, when it is 1, a 32-byte
// field value.  Any presence byte other than 0 or 1 is a ParseError.
func readOptional(er *entryReader, name string) (val []byte, err error) {
	presence := make([]byte, 1)
	if err = er.read(presence); err != nil {
		return
	}
	switch presence[0] {
	case 0:
	case 1:
		val = make([]byte, 32)
		if err = er.read(val); err != nil {
			return nil, err
		}
	default:
		return nil, &ParseError{
			Msg:       fmt.Sprintf("invalid %s presence byte", name),
			BytesRead: er.n,
		}
	}
	return
}
