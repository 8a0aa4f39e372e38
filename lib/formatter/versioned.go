package formatter

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/ValentinKolb/dCodec/lib/buffer"
	"github.com/ValentinKolb/dCodec/lib/wire"
)

// VersionPolicy decides how a schema-versioned value records which version
// wrote it and how the decoder picks the version to read it with
type VersionPolicy interface {
	// Name identifies the policy in logs and the CLI
	Name() string

	// WriteMarker writes whatever precedes the payload of version
	WriteMarker(buf *buffer.Buffer, t *wire.Table, version int)

	// MarkerLength is the number of bytes WriteMarker writes
	MarkerLength(version int) int64

	// Decode reads the marker, if any, and calls attempt with the version to
	// decode the payload with. attempt resets the target before it runs.
	Decode(buf *buffer.Buffer, t *wire.Table, versions int, attempt func(version int) error) error
}

// TaggedVersions writes the zero based version index as an unsigned integer
// in front of the payload. Encoding always uses the newest version.
func TaggedVersions() VersionPolicy {
	return taggedPolicy{}
}

// TrialVersions writes no marker. The decoder tries the newest version
// first and falls back to older ones, rewinding the input between attempts.
// It is only reliable when versions differ in shape, for instance in their
// field count.
func TrialVersions() VersionPolicy {
	return trialPolicy{}
}

type taggedPolicy struct{}

func (taggedPolicy) Name() string { return "tagged" }

func (taggedPolicy) WriteMarker(buf *buffer.Buffer, t *wire.Table, version int) {
	WriteUint(buf, t, uint64(version))
}

func (taggedPolicy) MarkerLength(version int) int64 {
	return UintLength(uint64(version))
}

func (taggedPolicy) Decode(buf *buffer.Buffer, t *wire.Table, versions int, attempt func(version int) error) error {
	v, err := ReadUint(buf, t)
	if err != nil {
		return fmt.Errorf("version marker: %w", err)
	}
	if v >= uint64(versions) {
		return fmt.Errorf("%w: version %d, %d registered", ErrUnknownVersion, v, versions)
	}
	return attempt(int(v))
}

type trialPolicy struct{}

func (trialPolicy) Name() string { return "trial" }

func (trialPolicy) WriteMarker(*buffer.Buffer, *wire.Table, int) {}

func (trialPolicy) MarkerLength(int) int64 { return 0 }

func (trialPolicy) Decode(buf *buffer.Buffer, _ *wire.Table, versions int, attempt func(version int) error) error {
	start := buf.Consumed()
	var last error
	for v := versions - 1; v >= 0; v-- {
		buf.Seek(start)
		err := attempt(v)
		if err == nil {
			return nil
		}
		plog.Debugf("version %d rejected input: %v", v, err)
		last = err
	}
	return fmt.Errorf("%w: no version accepts the input: %w", ErrUnknownVersion, last)
}

// versionManager holds the formatters of every registered schema version of
// T, oldest first. A nil value is written as a bare Nil without a version
// marker, and a bare Nil decodes to the zero value under every policy.
type versionManager[T any] struct {
	t        *wire.Table
	policy   VersionPolicy
	versions []Codec
	// isNil is set when T has a nil state
	isNil func(p unsafe.Pointer) bool
}

func newVersionManager[T any](b *Builder, ctors []Constructor[T]) (Codec, error) {
	m := &versionManager[T]{t: b.Table(), policy: b.r.policy, isNil: nilCheck(reflect.TypeFor[T]())}
	for i, ctor := range ctors {
		f, err := ctor(b)
		if err != nil {
			return nil, fmt.Errorf("version %d: %w", i, err)
		}
		if f == nil {
			return nil, fmt.Errorf("version %d: constructor returned no formatter", i)
		}
		m.versions = append(m.versions, Erase(f))
	}
	return m, nil
}

func (m *versionManager[T]) latest() int {
	return len(m.versions) - 1
}

func (m *versionManager[T]) encode(buf *buffer.Buffer, p unsafe.Pointer) error {
	if m.isNil != nil && m.isNil(p) {
		WriteNil(buf, m.t)
		return nil
	}
	v := m.latest()
	m.policy.WriteMarker(buf, m.t, v)
	return m.versions[v].encode(buf, p)
}

func (m *versionManager[T]) decode(buf *buffer.Buffer, p unsafe.Pointer) error {
	if TryReadNil(buf, m.t) {
		var zero T
		*(*T)(p) = zero
		return nil
	}
	return m.policy.Decode(buf, m.t, len(m.versions), func(v int) error {
		var zero T
		*(*T)(p) = zero
		return m.versions[v].decode(buf, p)
	})
}

func (m *versionManager[T]) length(p unsafe.Pointer) int64 {
	if m.isNil != nil && m.isNil(p) {
		return 1
	}
	v := m.latest()
	return m.policy.MarkerLength(v) + m.versions[v].length(p)
}

func (m *versionManager[T]) defaultLength() int64 {
	v := m.latest()
	return m.policy.MarkerLength(v) + m.versions[v].defaultLength()
}
