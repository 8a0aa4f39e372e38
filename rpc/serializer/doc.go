// Package serializer converts common.Message values to bytes and back. It
// defines one interface with several implementations, so the formatter
// engine can be compared against the usual Go encodings on the same data.
//
// The package focuses on:
//   - Providing a consistent interface for different serialization formats
//   - Measuring the formatter engine against established formats
//   - Optional compression of any format's output
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - formatterSerializerImpl: Uses the formatter package over the versioned
//     Message registrations of common. Encoding writes the version marker the
//     policy asks for, then the fields positionally behind a field count, so
//     payloads hold no field names. Distinguishes nil from empty slices and
//     maps.
//
//   - cborSerializerImpl: Deterministic CBOR (fxamacker/cbor). Self-describing,
//     keyed by field name.
//
//   - jsonSerializerImpl: JSON encoding, useful for debugging or
//     interoperability with other systems.
//
//   - gobSerializerImpl: Go's gob encoding. Each payload carries its type
//     description, which makes single messages large.
//
//   - compressedSerializerImpl: Wraps any serializer and compresses its output
//     with zstd (klauspost/compress) or lz4 (pierrec/lz4). Short or
//     incompressible payloads are stored as they are.
//
// Thread Safety:
//
//	All serializer implementations are safe for concurrent use across
//	multiple goroutines without additional synchronization.
//
// Usage:
//
//	Serializers are typically created once and reused throughout the application:
//
//	  s := serializer.NewFormatterSerializer()
//	  data, err := s.Serialize(message)
//	  // ... send data ...
//	  var received common.Message
//	  err = s.Deserialize(data, &received)
package serializer
