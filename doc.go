/*

Bundlebase is a streaming decoder for the nested binary bundle format
used to pack many independently signed data items into one transaction
byte stream.  It walks the stream depth-first, recovering each item and
its metadata, skipping past corrupt items using their declared sizes,
and handing decoded items to a bounded channel as they complete.

Vocabulary:

- bundle: one nesting level of the format; a directory of entries
	followed by the entries' item bytes, in directory order
- entry: one directory row; the declared byte size of an item plus a
	32-byte opaque identifier
- item: one decoded record: signature, owner, optional target and
	anchor, tags, and an id derived from the signature
- tag: a name/value byte pair attached to an item; tags are packed as
	an Avro-encoded array inside the item header
- bundled_in: the label of the enclosing bundle -- the root transaction
	id, or the base64url identifier of the parent entry for nested
	bundles
- resynchronization: recovering stream alignment after a corrupt item
	by discarding the remainder of its declared size
- spool: a durable on-disk FIFO queue of decoded items (see db/)

*/

package bundlebase
