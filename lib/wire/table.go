package wire

import "math"

// Table is the compiled, read-only form of Options. It is safe for
// concurrent use and is what every formatter consults.
type Table struct {
	opts  Options
	tags  [kindCount]byte
	kinds [256]Kind
}

// NewTable validates the options and builds the lookup tables
func NewTable(opts Options) (*Table, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	t := &Table{opts: opts}
	slots := opts.slots()
	for k := KindNil; k < kindCount; k++ {
		t.tags[k] = *slots[k]
		t.kinds[*slots[k]] = k
	}
	return t, nil
}

// DefaultTable returns a table built from DefaultOptions
func DefaultTable() *Table {
	t, err := NewTable(DefaultOptions())
	if err != nil {
		panic("wire: default options are invalid: " + err.Error())
	}
	return t
}

// Options returns the options the table was built from
func (t *Table) Options() Options {
	return t.opts
}

// Tag returns the byte for a kind
func (t *Table) Tag(k Kind) byte {
	return t.tags[k]
}

// Kind returns the kind of a tag byte, KindInvalid for unassigned bytes
func (t *Table) Kind(b byte) Kind {
	return t.kinds[b]
}

// --------------------------------------------------------------------------
// Header sizing
// --------------------------------------------------------------------------

// HeaderSize returns the number of bytes a header of the given kind occupies
// (tag byte included). Nil, bools and fixed width numbers count as headers
// with no payload length.
func HeaderSize(k Kind) int {
	switch k {
	case KindNil, KindFalse, KindTrue:
		return 1
	case KindUInt8, KindInt8, KindStr8:
		return 2
	case KindUInt16, KindInt16, KindStr16, KindArray16:
		return 3
	case KindUInt32, KindInt32, KindStr32, KindArray32, KindFloat32:
		return 5
	case KindUInt64, KindInt64, KindFloat64:
		return 9
	default:
		return 0
	}
}

// StrHeaderKind returns the smallest string prefix able to hold n bytes
func StrHeaderKind(n int) Kind {
	switch {
	case n <= math.MaxUint8:
		return KindStr8
	case n <= math.MaxUint16:
		return KindStr16
	default:
		return KindStr32
	}
}

// ArrayHeaderKind returns the smallest array prefix able to hold n elements
func ArrayHeaderKind(n int) Kind {
	if n <= math.MaxUint16 {
		return KindArray16
	}
	return KindArray32
}

// IntKind returns the smallest signed tag that holds v
func IntKind(v int64) Kind {
	switch {
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return KindInt8
	case v >= math.MinInt16 && v <= math.MaxInt16:
		return KindInt16
	case v >= math.MinInt32 && v <= math.MaxInt32:
		return KindInt32
	default:
		return KindInt64
	}
}

// UintKind returns the smallest unsigned tag that holds v
func UintKind(v uint64) Kind {
	switch {
	case v <= math.MaxUint8:
		return KindUInt8
	case v <= math.MaxUint16:
		return KindUInt16
	case v <= math.MaxUint32:
		return KindUInt32
	default:
		return KindUInt64
	}
}
