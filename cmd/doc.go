// Package cmd implements the dcodec command-line interface. It provides
// tooling around the binary format: reading payloads, converting messages
// between serializers, and measuring them.
//
// The package is organized into several subpackages:
//
//   - tags: Prints the effective tag table and its fingerprint
//   - inspect: Decodes any payload into a readable tree, without knowing its type
//   - convert: Re-encodes a message from one serializer's format into another's
//   - perf: Benchmarks all serializers on a fixed set of messages
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See dcodec -help for a list of all commands.
package cmd
