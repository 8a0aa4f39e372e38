package wire

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
)

// --------------------------------------------------------------------------
// Tag Kinds
// --------------------------------------------------------------------------

// Kind is the meaning of a single tag byte.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNil
	KindFalse
	KindTrue
	KindFloat32
	KindFloat64
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindStr8
	KindStr16
	KindStr32
	KindArray16
	KindArray32

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid: "invalid",
	KindNil:     "nil",
	KindFalse:   "false",
	KindTrue:    "true",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindUInt8:   "uint8",
	KindUInt16:  "uint16",
	KindUInt32:  "uint32",
	KindUInt64:  "uint64",
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindStr8:    "str8",
	KindStr16:   "str16",
	KindStr32:   "str32",
	KindArray16: "array16",
	KindArray32: "array32",
}

// String returns the lower-case name of the kind (as used by ParseOverrides)
func (k Kind) String() string {
	if k >= kindCount {
		return "invalid"
	}
	return kindNames[k]
}

// Kinds returns every valid kind in tag table order
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for k := KindNil; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// IsInt reports whether the kind is one of the signed or unsigned integer tags
func (k Kind) IsInt() bool {
	return k >= KindUInt8 && k <= KindInt64
}

// IsStr reports whether the kind is a string length prefix
func (k Kind) IsStr() bool {
	return k >= KindStr8 && k <= KindStr32
}

// IsArray reports whether the kind is an array (or map) length prefix
func (k Kind) IsArray() bool {
	return k == KindArray16 || k == KindArray32
}

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options is the byte value of every tag. A consumer that persists encoded
// bytes must pin its Options (see Fingerprint), since no table is implied by
// the payload itself.
type Options struct {
	Nil     byte
	False   byte
	True    byte
	Float32 byte
	Float64 byte
	UInt8   byte
	UInt16  byte
	UInt32  byte
	UInt64  byte
	Int8    byte
	Int16   byte
	Int32   byte
	Int64   byte
	Str8    byte
	Str16   byte
	Str32   byte
	Array16 byte
	Array32 byte
}

// DefaultOptions returns the tag values used by MessagePack for the same shapes
func DefaultOptions() Options {
	return Options{
		Nil:     0xc0,
		False:   0xc2,
		True:    0xc3,
		Float32: 0xca,
		Float64: 0xcb,
		UInt8:   0xcc,
		UInt16:  0xcd,
		UInt32:  0xce,
		UInt64:  0xcf,
		Int8:    0xd0,
		Int16:   0xd1,
		Int32:   0xd2,
		Int64:   0xd3,
		Str8:    0xd9,
		Str16:   0xda,
		Str32:   0xdb,
		Array16: 0xdc,
		Array32: 0xdd,
	}
}

// slots returns pointers to every tag, indexed by Kind
func (o *Options) slots() [kindCount]*byte {
	return [kindCount]*byte{
		KindNil:     &o.Nil,
		KindFalse:   &o.False,
		KindTrue:    &o.True,
		KindFloat32: &o.Float32,
		KindFloat64: &o.Float64,
		KindUInt8:   &o.UInt8,
		KindUInt16:  &o.UInt16,
		KindUInt32:  &o.UInt32,
		KindUInt64:  &o.UInt64,
		KindInt8:    &o.Int8,
		KindInt16:   &o.Int16,
		KindInt32:   &o.Int32,
		KindInt64:   &o.Int64,
		KindStr8:    &o.Str8,
		KindStr16:   &o.Str16,
		KindStr32:   &o.Str32,
		KindArray16: &o.Array16,
		KindArray32: &o.Array32,
	}
}

// Tag returns the byte assigned to the given kind
func (o Options) Tag(k Kind) byte {
	if k == KindInvalid || k >= kindCount {
		panic(fmt.Sprintf("wire: no tag for kind %d", k))
	}
	return *o.slots()[k]
}

// Validate checks that every kind has its own byte
func (o Options) Validate() error {
	var seen [256]Kind
	slots := o.slots()
	for k := KindNil; k < kindCount; k++ {
		b := *slots[k]
		if prev := seen[b]; prev != KindInvalid {
			return fmt.Errorf("wire: tag 0x%02x assigned to both %s and %s", b, prev, k)
		}
		seen[b] = k
	}
	return nil
}

// Bytes returns the tag values in Kind order
func (o Options) Bytes() []byte {
	out := make([]byte, 0, kindCount-1)
	slots := o.slots()
	for k := KindNil; k < kindCount; k++ {
		out = append(out, *slots[k])
	}
	return out
}

// Fingerprint returns a short blake3 digest of the table. Two tables with the
// same fingerprint produce identical bytes for the same values.
func (o Options) Fingerprint() string {
	sum := blake3.Sum256(o.Bytes())
	return hex.EncodeToString(sum[:8])
}

// String renders the table as name=0xNN pairs (the format read by ParseOverrides)
func (o Options) String() string {
	var sb strings.Builder
	slots := o.slots()
	for k := KindNil; k < kindCount; k++ {
		if k > KindNil {
			sb.WriteString(",")
		}
		sb.WriteString(fmt.Sprintf("%s=0x%02x", k, *slots[k]))
	}
	return sb.String()
}

// ParseOverrides applies a comma-separated list of name=value pairs on top of
// the default table. Values may be decimal or 0x-prefixed hex.
func ParseOverrides(list string) (Options, error) {
	opts := DefaultOptions()
	list = strings.TrimSpace(list)
	if list == "" {
		return opts, nil
	}

	slots := opts.slots()
	for _, pair := range strings.Split(list, ",") {
		parts := strings.Split(pair, "=")
		if len(parts) != 2 {
			return opts, fmt.Errorf("invalid tag override: %s (expected NAME=VALUE)", pair)
		}

		name := strings.ToLower(strings.TrimSpace(parts[0]))
		kind := KindInvalid
		for k := KindNil; k < kindCount; k++ {
			if kindNames[k] == name {
				kind = k
				break
			}
		}
		if kind == KindInvalid {
			return opts, fmt.Errorf("unknown tag name: %s", name)
		}

		value, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 0, 8)
		if err != nil {
			return opts, fmt.Errorf("invalid value for tag %s: %v", name, err)
		}
		*slots[kind] = byte(value)
	}

	return opts, opts.Validate()
}
