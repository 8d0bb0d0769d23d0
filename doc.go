/*
Package geodoc converts fixed-size numeric types, such as vectors and
quaternions, and records built out of them to and from kvo document trees.

We implement:

1. Aggregates, adapters of types with a fixed number of scalar components
(see Aggregate).

2. Records, adapters of composite types that own values of other adapted
types under named fields (see Record).

3. Registries, explicit caller-owned maps from Go types to adapters
(see Registry). Nothing is registered implicitly; an application builds its
registry once at startup.

4. Encodings of document trees into JSON, JSONC, MessagePack, CBOR and YAML.

5. Stores, which keep adapted values in a Bolt database.

# Wire Format

Component i of an aggregate is stored under the key strconv.Itoa(i):

	{"0": x, "1": y, "2": z}

Aggregates are limited to MaxArity (10) components, so keys are always
"0" to "9"; a definition with more components fails. Components are written
as IEEE 754 doubles; float32 components are widened on encode and must fit
back into float32 on decode.

A record is a map with one entry per field, each holding the document
produced by the field's adapter:

	{"V": {"0": x, "1": y, "2": z}, "Q": {"0": x, "1": y, "2": z, "3": w}}

Decoding requires every component and every field to be present, and ignores
unknown keys. It either returns a complete value or fails with a
*DecodeError that wraps ErrMissingKey or ErrTypeMismatch and names the
offending location, e.g. pose.V.2.

# Writes

Every ToDocument call returns a fresh map node that it has built on its own.
A record attaches each field subtree with a single Set, so no subtree is
written twice and adapters never touch keys outside of their own result.

# Stored Values

Store values are the 8-byte big-endian xxhash fingerprint of the document
(see kvo.Fingerprint) followed by the MessagePack encoding of the document.
Values of each adapter live in a bucket named after the adapter.
*/
package geodoc
