package bundlebase

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/hamba/avro/v2"
)

// MaxTags is the most tags one item may carry.
const MaxTags = 128

// tag name/value size bounds, in bytes
const (
	maxTagName  = 1024
	maxTagValue = 3072
)

// The tag blob is an Avro datum.  The schema is fixed by the format
// and is never read from the stream.
var tagsSchema = avro.MustParse(`{
	"type": "array",
	"items": {
		"type": "record",
		"name": "Tag",
		"fields": [
			{ "name": "name", "type": "bytes" },
			{ "name": "value", "type": "bytes" }
		]
	}
}`)

// Tag is one name/value byte pair attached to an item.  Neither field
// is required to be valid UTF-8.
type Tag struct {
	Name  []byte `avro:"name"`
	Value []byte `avro:"value"`
}

// Validate checks the size and non-emptiness bounds for one tag.
func (tag Tag) Validate() (err error) {
	if len(tag.Name) > maxTagName {
		return &ValidationError{Msg: fmt.Sprintf("tag name exceeds %d bytes", maxTagName)}
	}
	if len(tag.Value) > maxTagValue {
		return &ValidationError{Msg: fmt.Sprintf("tag value exceeds %d bytes", maxTagValue)}
	}
	if len(tag.Name) == 0 || len(tag.Value) == 0 {
		return &ValidationError{Msg: "tag name and value must not be empty"}
	}
	return
}

// MarshalJSON renders both fields as UTF-8 strings when both decode
// cleanly, and falls back to base64url for both otherwise.
func (tag Tag) MarshalJSON() (buf []byte, err error) {
	var name, value string
	if utf8.Valid(tag.Name) && utf8.Valid(tag.Value) {
		name = string(tag.Name)
		value = string(tag.Value)
	} else {
		name = base64.RawURLEncoding.EncodeToString(tag.Name)
		value = base64.RawURLEncoding.EncodeToString(tag.Value)
	}
	return json.Marshal(struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}{name, value})
}

// parseTags decodes an Avro tag blob and classifies whether the item
// carrying it is itself a bundle.  The raw decoded array length must
// equal count -- that check runs before any per-tag validation.  Tags
// violating the size bounds are dropped, not fatal; each drop is
// reported through onDrop.  Classification only considers the tags
// that survive validation.
func parseTags(buf []byte, count uint64, onDrop func(Tag, error)) (tags []Tag, isBundle bool, err error) {
	// a zero-tag item carries a zero-length blob, not an encoded
	// empty array
	var raw []Tag
	if len(buf) > 0 {
		err = avro.Unmarshal(tagsSchema, buf, &raw)
		if err != nil {
			return nil, false, fmt.Errorf("avro parse error: %v", err)
		}
	}

	if len(raw) > MaxTags {
		return nil, false, fmt.Errorf("too many tags: %d", len(raw))
	}
	if uint64(len(raw)) != count {
		return nil, false, fmt.Errorf("tag count mismatch: expected %d, found %d", count, len(raw))
	}

	var formatFound, versionFound bool
	tags = make([]Tag, 0, len(raw))
	for _, tag := range raw {
		if verr := tag.Validate(); verr != nil {
			if onDrop != nil {
				onDrop(tag, verr)
			}
			continue
		}

		// byte-exact match; non-UTF-8 names or values simply can't
		// match the markers
		if string(tag.Name) == "Bundle-Format" && string(tag.Value) == "binary" {
			formatFound = true
		}
		if string(tag.Name) == "Bundle-Version" && string(tag.Value) == "2.0.0" {
			versionFound = true
		}

		tags = append(tags, tag)
	}

	isBundle = formatFound && versionFound
	return
}
