package formatter

import (
	"encoding/binary"
	"math"

	"github.com/ValentinKolb/dCodec/lib/buffer"
	"github.com/ValentinKolb/dCodec/lib/wire"
)

// --------------------------------------------------------------------------
// Low level helpers for hand-written formatters. Every helper goes through
// the table, none of them hard-codes a tag value.
// --------------------------------------------------------------------------

// writeHeader writes the tag of kind followed by n in the width of the kind
func writeHeader(buf *buffer.Buffer, t *wire.Table, kind wire.Kind, n uint64) {
	size := wire.HeaderSize(kind)
	span := buf.GetSpan(size)
	span[0] = t.Tag(kind)
	switch size {
	case 2:
		span[1] = byte(n)
	case 3:
		binary.BigEndian.PutUint16(span[1:], uint16(n))
	case 5:
		binary.BigEndian.PutUint32(span[1:], uint32(n))
	case 9:
		binary.BigEndian.PutUint64(span[1:], n)
	}
	buf.WriteAdvance(size)
}

// readHeader reads one tag and its fixed width payload
func readHeader(buf *buffer.Buffer, t *wire.Table) (wire.Kind, byte, uint64, error) {
	tag, ok := buf.TryRead()
	if !ok {
		return wire.KindInvalid, 0, 0, malformed("unexpected end of input")
	}
	kind := t.Kind(tag)
	size := wire.HeaderSize(kind)
	if size == 0 {
		return kind, tag, 0, malformed("unknown tag 0x%02x", tag)
	}

	payload, ok := buf.ReadSlice(size - 1)
	if !ok {
		return kind, tag, 0, malformed("truncated %s (%d bytes remaining)", kind, buf.Remaining())
	}
	switch size - 1 {
	case 0:
		return kind, tag, 0, nil
	case 1:
		return kind, tag, uint64(payload[0]), nil
	case 2:
		return kind, tag, uint64(binary.BigEndian.Uint16(payload)), nil
	case 4:
		return kind, tag, uint64(binary.BigEndian.Uint32(payload)), nil
	default:
		return kind, tag, binary.BigEndian.Uint64(payload), nil
	}
}

// WriteNil writes the Nil tag
func WriteNil(buf *buffer.Buffer, t *wire.Table) {
	writeHeader(buf, t, wire.KindNil, 0)
}

// TryReadNil consumes the next byte if it is the Nil tag
func TryReadNil(buf *buffer.Buffer, t *wire.Table) bool {
	c, ok := buf.TryPeek()
	if !ok || t.Kind(c) != wire.KindNil {
		return false
	}
	buf.ReadAdvance(1)
	return true
}

// WriteBool writes the True or False tag
func WriteBool(buf *buffer.Buffer, t *wire.Table, v bool) {
	if v {
		writeHeader(buf, t, wire.KindTrue, 0)
	} else {
		writeHeader(buf, t, wire.KindFalse, 0)
	}
}

// ReadBool reads a True or False tag
func ReadBool(buf *buffer.Buffer, t *wire.Table) (bool, error) {
	kind, tag, _, err := readHeader(buf, t)
	if err != nil {
		return false, err
	}
	switch kind {
	case wire.KindTrue:
		return true, nil
	case wire.KindFalse:
		return false, nil
	default:
		return false, unexpectedTag(t, "bool", tag)
	}
}

// WriteInt writes v with the smallest signed tag that holds it
func WriteInt(buf *buffer.Buffer, t *wire.Table, v int64) {
	writeHeader(buf, t, wire.IntKind(v), uint64(v))
}

// ReadInt reads any integer tag into an int64
func ReadInt(buf *buffer.Buffer, t *wire.Table) (int64, error) {
	kind, tag, n, err := readHeader(buf, t)
	if err != nil {
		return 0, err
	}
	switch kind {
	case wire.KindInt8:
		return int64(int8(n)), nil
	case wire.KindInt16:
		return int64(int16(n)), nil
	case wire.KindInt32:
		return int64(int32(n)), nil
	case wire.KindInt64:
		return int64(n), nil
	case wire.KindUInt8, wire.KindUInt16, wire.KindUInt32:
		return int64(n), nil
	case wire.KindUInt64:
		if n > math.MaxInt64 {
			return 0, malformed("%d overflows int64", n)
		}
		return int64(n), nil
	default:
		return 0, unexpectedTag(t, "integer", tag)
	}
}

// WriteUint writes v with the smallest unsigned tag that holds it
func WriteUint(buf *buffer.Buffer, t *wire.Table, v uint64) {
	writeHeader(buf, t, wire.UintKind(v), v)
}

// ReadUint reads any non-negative integer into a uint64
func ReadUint(buf *buffer.Buffer, t *wire.Table) (uint64, error) {
	kind, tag, n, err := readHeader(buf, t)
	if err != nil {
		return 0, err
	}
	var signed int64
	switch kind {
	case wire.KindUInt8, wire.KindUInt16, wire.KindUInt32, wire.KindUInt64:
		return n, nil
	case wire.KindInt8:
		signed = int64(int8(n))
	case wire.KindInt16:
		signed = int64(int16(n))
	case wire.KindInt32:
		signed = int64(int32(n))
	case wire.KindInt64:
		signed = int64(n)
	default:
		return 0, unexpectedTag(t, "integer", tag)
	}
	if signed < 0 {
		return 0, malformed("negative value %d for unsigned integer", signed)
	}
	return uint64(signed), nil
}

// WriteFloat32 writes the Float32 tag and the IEEE 754 bits
func WriteFloat32(buf *buffer.Buffer, t *wire.Table, v float32) {
	writeHeader(buf, t, wire.KindFloat32, uint64(math.Float32bits(v)))
}

// ReadFloat32 reads a Float32 value
func ReadFloat32(buf *buffer.Buffer, t *wire.Table) (float32, error) {
	kind, tag, n, err := readHeader(buf, t)
	if err != nil {
		return 0, err
	}
	if kind != wire.KindFloat32 {
		return 0, unexpectedTag(t, "float32", tag)
	}
	return math.Float32frombits(uint32(n)), nil
}

// WriteFloat64 writes the Float64 tag and the IEEE 754 bits
func WriteFloat64(buf *buffer.Buffer, t *wire.Table, v float64) {
	writeHeader(buf, t, wire.KindFloat64, math.Float64bits(v))
}

// ReadFloat64 reads a Float64 value; Float32 values are widened
func ReadFloat64(buf *buffer.Buffer, t *wire.Table) (float64, error) {
	kind, tag, n, err := readHeader(buf, t)
	if err != nil {
		return 0, err
	}
	switch kind {
	case wire.KindFloat64:
		return math.Float64frombits(n), nil
	case wire.KindFloat32:
		return float64(math.Float32frombits(uint32(n))), nil
	default:
		return 0, unexpectedTag(t, "float64", tag)
	}
}

// WriteString writes a length prefix and the UTF-8 bytes of s
func WriteString(buf *buffer.Buffer, t *wire.Table, s string) {
	writeHeader(buf, t, wire.StrHeaderKind(len(s)), uint64(len(s)))
	_, _ = buf.WriteString(s)
}

// ReadString reads a length prefixed string
func ReadString(buf *buffer.Buffer, t *wire.Table) (string, error) {
	raw, err := readStrSlice(buf, t)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// WriteBytes writes b like a string; a nil slice is written as Nil
func WriteBytes(buf *buffer.Buffer, t *wire.Table, b []byte) {
	if b == nil {
		WriteNil(buf, t)
		return
	}
	writeHeader(buf, t, wire.StrHeaderKind(len(b)), uint64(len(b)))
	_, _ = buf.Write(b)
}

// ReadBytes reads a copy of a length prefixed byte sequence; Nil yields nil
func ReadBytes(buf *buffer.Buffer, t *wire.Table) ([]byte, error) {
	if TryReadNil(buf, t) {
		return nil, nil
	}
	raw, err := readStrSlice(buf, t)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

// readStrSlice returns a view on the payload of a string-class value
func readStrSlice(buf *buffer.Buffer, t *wire.Table) ([]byte, error) {
	kind, tag, n, err := readHeader(buf, t)
	if err != nil {
		return nil, err
	}
	if !kind.IsStr() {
		return nil, unexpectedTag(t, "string", tag)
	}
	if n > uint64(buf.Remaining()) {
		return nil, malformed("string of %d bytes with %d remaining", n, buf.Remaining())
	}
	raw, _ := buf.ReadSlice(int(n))
	return raw, nil
}

// WriteArrayHeader writes the count of a collection or dictionary
func WriteArrayHeader(buf *buffer.Buffer, t *wire.Table, n int) {
	writeHeader(buf, t, wire.ArrayHeaderKind(n), uint64(n))
}

// ReadArrayHeader reads a collection count. Every element occupies at least
// one byte, so counts larger than the remaining input are rejected before
// anything is allocated.
func ReadArrayHeader(buf *buffer.Buffer, t *wire.Table) (int, error) {
	kind, tag, n, err := readHeader(buf, t)
	if err != nil {
		return 0, err
	}
	if !kind.IsArray() {
		return 0, unexpectedTag(t, "array", tag)
	}
	if n > uint64(buf.Remaining()) {
		return 0, malformed("%d elements announced with %d bytes remaining", n, buf.Remaining())
	}
	return int(n), nil
}

// --------------------------------------------------------------------------
// Lengths
// --------------------------------------------------------------------------

// IntLength returns the encoded size of v
func IntLength(v int64) int64 {
	return int64(wire.HeaderSize(wire.IntKind(v)))
}

// UintLength returns the encoded size of v
func UintLength(v uint64) int64 {
	return int64(wire.HeaderSize(wire.UintKind(v)))
}

// StringLength returns the encoded size of a string of n bytes
func StringLength(n int) int64 {
	return int64(wire.HeaderSize(wire.StrHeaderKind(n)) + n)
}

// ArrayHeaderLength returns the encoded size of a collection header
func ArrayHeaderLength(n int) int64 {
	return int64(wire.HeaderSize(wire.ArrayHeaderKind(n)))
}
