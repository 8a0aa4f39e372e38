package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrMalformed is returned for input that cannot be decoded: truncated
// data, unexpected tags or length headers that promise more than is there.
var ErrMalformed = errors.New("malformed input")

// maxDepth bounds the nesting accepted by Decode
const maxDepth = 512

// Decode reads one value from data into a generic tree and returns the
// unconsumed rest. The tree uses nil, bool, int64, uint64, float32, float64,
// string and []any. Dictionaries share the array header on the wire and
// therefore decode as flat [k0, v0, k1, v1, ...] arrays only when the caller
// knows the shape; Decode cannot tell them apart.
func Decode(data []byte, t *Table) (any, []byte, error) {
	return decodeTree(data, t, 0)
}

func decodeTree(data []byte, t *Table, depth int) (any, []byte, error) {
	if depth > maxDepth {
		return nil, nil, fmt.Errorf("%w: nesting deeper than %d", ErrMalformed, maxDepth)
	}
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%w: unexpected end of input", ErrMalformed)
	}

	kind := t.Kind(data[0])
	size := HeaderSize(kind)
	if size == 0 {
		return nil, nil, fmt.Errorf("%w: unknown tag 0x%02x", ErrMalformed, data[0])
	}
	if len(data) < size {
		return nil, nil, fmt.Errorf("%w: truncated %s", ErrMalformed, kind)
	}
	head, rest := data[1:size], data[size:]

	switch kind {
	case KindNil:
		return nil, rest, nil
	case KindFalse:
		return false, rest, nil
	case KindTrue:
		return true, rest, nil
	case KindFloat32:
		return math.Float32frombits(binary.BigEndian.Uint32(head)), rest, nil
	case KindFloat64:
		return math.Float64frombits(binary.BigEndian.Uint64(head)), rest, nil
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64:
		return readUnsigned(head), rest, nil
	case KindInt8:
		return int64(int8(head[0])), rest, nil
	case KindInt16:
		return int64(int16(binary.BigEndian.Uint16(head))), rest, nil
	case KindInt32:
		return int64(int32(binary.BigEndian.Uint32(head))), rest, nil
	case KindInt64:
		return int64(binary.BigEndian.Uint64(head)), rest, nil
	case KindStr8, KindStr16, KindStr32:
		n := readUnsigned(head)
		if n > uint64(len(rest)) {
			return nil, nil, fmt.Errorf("%w: string of %d bytes with %d remaining", ErrMalformed, n, len(rest))
		}
		return string(rest[:n]), rest[n:], nil
	default: // arrays
		n := readUnsigned(head)
		if n > uint64(len(rest)) {
			return nil, nil, fmt.Errorf("%w: array of %d elements with %d bytes remaining", ErrMalformed, n, len(rest))
		}
		items := make([]any, 0, n)
		for i := uint64(0); i < n; i++ {
			var item any
			var err error
			item, rest, err = decodeTree(rest, t, depth+1)
			if err != nil {
				return nil, nil, err
			}
			items = append(items, item)
		}
		return items, rest, nil
	}
}

// readUnsigned interprets 1, 2, 4 or 8 big endian bytes
func readUnsigned(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.BigEndian.Uint16(b))
	case 4:
		return uint64(binary.BigEndian.Uint32(b))
	default:
		return binary.BigEndian.Uint64(b)
	}
}

// Append encodes a generic tree (as produced by Decode, plus the common Go
// integer widths and map[string]any) and appends it to dst.
func Append(dst []byte, t *Table, v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return append(dst, t.Tag(KindNil)), nil
	case bool:
		if x {
			return append(dst, t.Tag(KindTrue)), nil
		}
		return append(dst, t.Tag(KindFalse)), nil
	case int:
		return AppendInt(dst, t, int64(x)), nil
	case int32:
		return AppendInt(dst, t, int64(x)), nil
	case int64:
		return AppendInt(dst, t, x), nil
	case uint:
		return AppendUint(dst, t, uint64(x)), nil
	case uint32:
		return AppendUint(dst, t, uint64(x)), nil
	case uint64:
		return AppendUint(dst, t, x), nil
	case float32:
		dst = append(dst, t.Tag(KindFloat32))
		return binary.BigEndian.AppendUint32(dst, math.Float32bits(x)), nil
	case float64:
		dst = append(dst, t.Tag(KindFloat64))
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(x)), nil
	case string:
		dst = AppendHeader(dst, t, StrHeaderKind(len(x)), uint64(len(x)))
		return append(dst, x...), nil
	case []any:
		dst = AppendHeader(dst, t, ArrayHeaderKind(len(x)), uint64(len(x)))
		var err error
		for _, item := range x {
			if dst, err = Append(dst, t, item); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case map[string]any:
		dst = AppendHeader(dst, t, ArrayHeaderKind(len(x)), uint64(len(x)))
		var err error
		for key, item := range x {
			dst = AppendHeader(dst, t, StrHeaderKind(len(key)), uint64(len(key)))
			dst = append(dst, key...)
			if dst, err = Append(dst, t, item); err != nil {
				return nil, err
			}
		}
		return dst, nil
	default:
		return nil, fmt.Errorf("wire: cannot encode %T", v)
	}
}

// AppendInt appends v using the smallest signed tag
func AppendInt(dst []byte, t *Table, v int64) []byte {
	kind := IntKind(v)
	return AppendHeader(dst, t, kind, uint64(v))
}

// AppendUint appends v using the smallest unsigned tag
func AppendUint(dst []byte, t *Table, v uint64) []byte {
	return AppendHeader(dst, t, UintKind(v), v)
}

// AppendHeader appends the tag of kind followed by n in the width the kind
// implies. n is truncated to that width.
func AppendHeader(dst []byte, t *Table, kind Kind, n uint64) []byte {
	dst = append(dst, t.Tag(kind))
	switch HeaderSize(kind) {
	case 2:
		return append(dst, byte(n))
	case 3:
		return binary.BigEndian.AppendUint16(dst, uint16(n))
	case 5:
		return binary.BigEndian.AppendUint32(dst, uint32(n))
	case 9:
		return binary.BigEndian.AppendUint64(dst, n)
	default:
		return dst
	}
}
