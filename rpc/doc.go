// Package rpc holds the message layer built on top of the formatter engine.
// It is the consumer side of the codec: a concrete message envelope and the
// serializers that move it between bytes and values.
//
// The package is organized into two subpackages:
//
//   - common: The Message envelope, the resolved configuration of the command
//     line tools, and logging.
//
//   - serializer: Message serialization with multiple format options
//     (formatter engine, CBOR, JSON, GOB) and optional zstd or lz4
//     compression of any of them.
package rpc
