// Package wire defines the byte-tag vocabulary shared by every formatter of
// the dCodec serialization engine. It is a leaf package without dependencies
// on the rest of the module.
//
// The package focuses on:
//   - A small, MessagePack-like set of single-byte tags
//   - Making the byte values of those tags reconfigurable without touching
//     any formatter logic
//   - Choosing the smallest header width for a given length or integer
//
// Key Components:
//
//   - Options: The byte value of every tag. DefaultOptions returns the
//     MessagePack values; ParseOverrides applies name=value overrides on top.
//     Fingerprint returns a blake3 digest so consumers can pin a table.
//
//   - Table: The validated, compiled form of Options with O(1) lookups in
//     both directions. Formatters never hard-code tag values, they always go
//     through a Table.
//
//   - Decode / Append: A dynamic tree codec used by tooling (inspect, tests)
//     to look at encoded bytes without knowing the Go type that produced them.
//
// Encoding Rules:
//
//   - An absent value (nil pointer, nil slice, nil map) is the single Nil byte.
//   - Integers use the smallest tag of their signedness that fits, followed by
//     the value in big endian.
//   - Strings are a Str8/16/32 length prefix followed by UTF-8 bytes.
//   - Collections are an Array16/32 count followed by the elements.
//     Dictionaries use the same header with the entry count and write key,
//     then value, for every entry.
package wire
