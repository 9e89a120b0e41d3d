package bundlebase

import (
	"context"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultMaxDepth bounds bundle nesting for a Walker unless the caller
// overrides it.
const DefaultMaxDepth = 64

// Observer receives the non-fatal events of a walk: entries skipped
// during resynchronization and tags dropped during validation.  The
// decoder core never logs on its own; callers that don't care can
// leave the Walker's default, which warns through logrus.
type Observer interface {
	// SkipEntry is called when a structural error makes the Walker
	// discard the remainder of one entry.  skipped is the number of
	// bytes discarded past the failure point.
	SkipEntry(bundledIn string, id [32]byte, skipped uint64, cause error)

	// DropTag is called for each tag dropped by validation.
	DropTag(tag Tag, cause error)
}

// logObserver is the default Observer.
type logObserver struct{}

func (logObserver) SkipEntry(bundledIn string, id [32]byte, skipped uint64, cause error) {
	log.Warnf("%v, skipping %d bytes for entry %s in %s",
		cause, skipped, base64.RawURLEncoding.EncodeToString(id[:]), bundledIn)
}

func (logObserver) DropTag(tag Tag, cause error) {
	log.Warnf("invalid tag found: %q=%q, error: %v", tag.Name, tag.Value, cause)
}

// frame is one suspended nesting level: the decoded directory plus the
// index of the next entry to decode.
type frame struct {
	label   string
	entries []Entry
	next    int
}

// Walker decodes a bundle stream depth-first and emits items to Out in
// the order their headers complete.  Exactly one goroutine runs Walk
// at a time per stream: entries at every depth are interleaved in one
// physical byte sequence, so decoding is inherently single-reader and
// sequential.  Out is the only backpressure mechanism -- when the
// consumer falls behind, the send suspends the decode loop.
type Walker struct {
	Out      chan<- *DataItem
	MaxDepth int
	Obs      Observer
}

// New fills in defaults.  Out is required.
func (w Walker) New(out chan<- *DataItem) *Walker {
	w.Out = out
	if w.MaxDepth == 0 {
		w.MaxDepth = DefaultMaxDepth
	}
	if w.Obs == nil {
		w.Obs = logObserver{}
	}
	return &w
}

// Walk decodes the bundle at the current position of rd, emitting each
// item to w.Out.  txid labels the root bundle; nested bundles label
// their items with the base64url identifier of the parent entry.
//
// Nesting is traversed with an explicit frame stack rather than
// recursion, bounded by MaxDepth; exceeding it fails the walk with
// ErrTooDeep.  A ParseError inside one entry skips that entry using
// its declared size and continues with the next sibling.  A ReadError
// aborts the walk.  Cancelling ctx (the consumer dropping its end)
// aborts the walk on the next send.
//
// Walk does not close w.Out; the caller owns the channel and closes it
// once Walk returns, so a draining consumer observes a finite ordered
// sequence followed by end-of-stream.
func (w *Walker) Walk(ctx context.Context, rd io.Reader, txid string) (err error) {
	root, err := ParseBundle(rd)
	if err != nil {
		return errors.Wrap(err, "parse bundle fatal error")
	}
	log.Infof("processing bundle with %d entries, bundled in %s", root.ItemCount, txid)

	stack := []*frame{{label: txid, entries: root.Entries}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.next >= len(f.entries) {
			stack = stack[:len(stack)-1]
			continue
		}
		entry := f.entries[f.next]
		f.next++

		item, perr := ParseItem(rd, f.label, entry.Size, w.Obs)
		if perr != nil {
			var parseErr *ParseError
			if !errors.As(perr, &parseErr) {
				// stream-level failure; bytes_read is not trustworthy
				return perr
			}
			remaining := entry.Size - parseErr.BytesRead
			w.Obs.SkipEntry(f.label, entry.ID, remaining, parseErr)
			if err = discard(rd, remaining); err != nil {
				return errors.Wrap(err, "failed to skip bytes")
			}
			continue
		}

		if err = w.send(ctx, item); err != nil {
			return
		}

		if item.IsBundle {
			if len(stack) >= w.MaxDepth {
				return errors.Wrapf(ErrTooDeep, "entry %s",
					base64.RawURLEncoding.EncodeToString(entry.ID[:]))
			}
			// the cursor sits exactly at the nested directory header
			child, cerr := ParseBundle(rd)
			if cerr != nil {
				return errors.Wrap(cerr, "parse bundle fatal error")
			}
			label := base64.RawURLEncoding.EncodeToString(entry.ID[:])
			log.Infof("processing bundle with %d entries, bundled in %s", child.ItemCount, label)
			stack = append(stack, &frame{label: label, entries: child.Entries})
		}
	}

	return nil
}

// send delivers one item, suspending while the channel is full.  ctx
// cancellation is the consumer-drop signal and is fatal.
func (w *Walker) send(ctx context.Context, item *DataItem) (err error) {
	select {
	case w.Out <- item:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "channel send error")
	}
}
