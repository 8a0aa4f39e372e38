// Package common provides the data structures and utilities shared by the
// serializers and the command line tools. It defines the message envelope
// used to exercise the codecs, the resolved configuration, and logging.
//
// The package focuses on:
//   - Message definition for producer/consumer communication
//   - Configuration shared by the command line tools
//   - Custom logging implementation integrated with dragonboat's logger package
//
// Key Components:
//
//   - Message: Envelope for a published payload and its responses. Its
//     schema versions are registered by RegisterFormatters; every version is
//     synthesized by the formatter package. Batch groups several messages
//     into one payload.
//
//   - MessageType: Enumeration of all message kinds, encoded as a number by
//     the binary formats and as its name in JSON.
//
//   - CodecConfig: Tag table overrides, map key ordering, version policy,
//     compression and log level. Converts itself into formatter options.
//
//   - Logger: Custom logger factory for dragonboat's logger package, so every
//     package logs through logger.GetLogger(name) with consistent formatting.
package common
