package formatter

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/dCodec/lib/wire"
)

var (
	// ErrNotEncodable is returned when no formatter can be registered,
	// versioned or synthesized for a type
	ErrNotEncodable = errors.New("type is not encodable")

	// ErrMalformed is returned for input that cannot be decoded (truncated
	// data, unexpected tags, inconsistent length headers, integer overflow)
	ErrMalformed = wire.ErrMalformed

	// ErrAlreadyRegistered is returned by the Store for a second registration
	// of the same type
	ErrAlreadyRegistered = errors.New("type already registered")

	// ErrTrailingBytes is returned by Unmarshal when the input holds more
	// than one value
	ErrTrailingBytes = errors.New("trailing bytes after value")

	// ErrUnknownVersion is returned when a schema-versioned value cannot be
	// matched to any registered version
	ErrUnknownVersion = errors.New("unknown schema version")
)

// malformed wraps ErrMalformed with a formatted description
func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// unexpectedTag describes a tag that does not belong to the expected family
func unexpectedTag(t *wire.Table, want string, tag byte) error {
	return malformed("expected %s, got tag 0x%02x (%s)", want, tag, t.Kind(tag))
}
