package formatter

import (
	"reflect"
	"time"
	"unsafe"

	"github.com/ValentinKolb/dCodec/lib/buffer"
	"github.com/ValentinKolb/dCodec/lib/wire"
)

// primitiveCodec returns the codec for a scalar kind, or nil
func primitiveCodec(t *wire.Table, typ reflect.Type) Codec {
	switch typ.Kind() {
	case reflect.Bool:
		return boolCodec{t: t}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intCodec{t: t, bits: typ.Bits()}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintCodec{t: t, bits: typ.Bits()}
	case reflect.Float32:
		return float32Codec{t: t}
	case reflect.Float64:
		return float64Codec{t: t}
	case reflect.String:
		return stringCodec{t: t}
	default:
		return nil
	}
}

// bool

type boolCodec struct{ t *wire.Table }

func (c boolCodec) encode(buf *buffer.Buffer, p unsafe.Pointer) error {
	WriteBool(buf, c.t, *(*bool)(p))
	return nil
}

func (c boolCodec) decode(buf *buffer.Buffer, p unsafe.Pointer) error {
	if TryReadNil(buf, c.t) {
		return nil
	}
	v, err := ReadBool(buf, c.t)
	if err != nil {
		return err
	}
	*(*bool)(p) = v
	return nil
}

func (c boolCodec) length(unsafe.Pointer) int64 { return 1 }
func (c boolCodec) defaultLength() int64        { return 1 }

// signed integers

type intCodec struct {
	t    *wire.Table
	bits int
}

func (c intCodec) load(p unsafe.Pointer) int64 {
	switch c.bits {
	case 8:
		return int64(*(*int8)(p))
	case 16:
		return int64(*(*int16)(p))
	case 32:
		return int64(*(*int32)(p))
	default:
		return *(*int64)(p)
	}
}

func (c intCodec) encode(buf *buffer.Buffer, p unsafe.Pointer) error {
	WriteInt(buf, c.t, c.load(p))
	return nil
}

func (c intCodec) decode(buf *buffer.Buffer, p unsafe.Pointer) error {
	if TryReadNil(buf, c.t) {
		return nil
	}
	v, err := ReadInt(buf, c.t)
	if err != nil {
		return err
	}
	if c.bits < 64 {
		limit := int64(1) << (c.bits - 1)
		if v < -limit || v >= limit {
			return malformed("%d overflows int%d", v, c.bits)
		}
	}
	switch c.bits {
	case 8:
		*(*int8)(p) = int8(v)
	case 16:
		*(*int16)(p) = int16(v)
	case 32:
		*(*int32)(p) = int32(v)
	default:
		*(*int64)(p) = v
	}
	return nil
}

func (c intCodec) length(p unsafe.Pointer) int64 { return IntLength(c.load(p)) }
func (c intCodec) defaultLength() int64          { return int64(1 + c.bits/8) }

// unsigned integers

type uintCodec struct {
	t    *wire.Table
	bits int
}

func (c uintCodec) load(p unsafe.Pointer) uint64 {
	switch c.bits {
	case 8:
		return uint64(*(*uint8)(p))
	case 16:
		return uint64(*(*uint16)(p))
	case 32:
		return uint64(*(*uint32)(p))
	default:
		return *(*uint64)(p)
	}
}

func (c uintCodec) encode(buf *buffer.Buffer, p unsafe.Pointer) error {
	WriteUint(buf, c.t, c.load(p))
	return nil
}

func (c uintCodec) decode(buf *buffer.Buffer, p unsafe.Pointer) error {
	if TryReadNil(buf, c.t) {
		return nil
	}
	v, err := ReadUint(buf, c.t)
	if err != nil {
		return err
	}
	if c.bits < 64 && v >= uint64(1)<<c.bits {
		return malformed("%d overflows uint%d", v, c.bits)
	}
	switch c.bits {
	case 8:
		*(*uint8)(p) = uint8(v)
	case 16:
		*(*uint16)(p) = uint16(v)
	case 32:
		*(*uint32)(p) = uint32(v)
	default:
		*(*uint64)(p) = v
	}
	return nil
}

func (c uintCodec) length(p unsafe.Pointer) int64 { return UintLength(c.load(p)) }
func (c uintCodec) defaultLength() int64          { return int64(1 + c.bits/8) }

// floats

type float32Codec struct{ t *wire.Table }

func (c float32Codec) encode(buf *buffer.Buffer, p unsafe.Pointer) error {
	WriteFloat32(buf, c.t, *(*float32)(p))
	return nil
}

func (c float32Codec) decode(buf *buffer.Buffer, p unsafe.Pointer) error {
	if TryReadNil(buf, c.t) {
		return nil
	}
	v, err := ReadFloat32(buf, c.t)
	if err != nil {
		return err
	}
	*(*float32)(p) = v
	return nil
}

func (c float32Codec) length(unsafe.Pointer) int64 { return 5 }
func (c float32Codec) defaultLength() int64        { return 5 }

type float64Codec struct{ t *wire.Table }

func (c float64Codec) encode(buf *buffer.Buffer, p unsafe.Pointer) error {
	WriteFloat64(buf, c.t, *(*float64)(p))
	return nil
}

func (c float64Codec) decode(buf *buffer.Buffer, p unsafe.Pointer) error {
	if TryReadNil(buf, c.t) {
		return nil
	}
	v, err := ReadFloat64(buf, c.t)
	if err != nil {
		return err
	}
	*(*float64)(p) = v
	return nil
}

func (c float64Codec) length(unsafe.Pointer) int64 { return 9 }
func (c float64Codec) defaultLength() int64        { return 9 }

// strings and byte slices

type stringCodec struct{ t *wire.Table }

func (c stringCodec) encode(buf *buffer.Buffer, p unsafe.Pointer) error {
	WriteString(buf, c.t, *(*string)(p))
	return nil
}

func (c stringCodec) decode(buf *buffer.Buffer, p unsafe.Pointer) error {
	if TryReadNil(buf, c.t) {
		return nil
	}
	v, err := ReadString(buf, c.t)
	if err != nil {
		return err
	}
	*(*string)(p) = v
	return nil
}

func (c stringCodec) length(p unsafe.Pointer) int64 { return StringLength(len(*(*string)(p))) }
func (c stringCodec) defaultLength() int64          { return 1 }

// bytesCodec encodes []byte (and named byte slices) as one string-class value
type bytesCodec struct{ t *wire.Table }

func (c bytesCodec) encode(buf *buffer.Buffer, p unsafe.Pointer) error {
	WriteBytes(buf, c.t, *(*[]byte)(p))
	return nil
}

func (c bytesCodec) decode(buf *buffer.Buffer, p unsafe.Pointer) error {
	v, err := ReadBytes(buf, c.t)
	if err != nil {
		return err
	}
	*(*[]byte)(p) = v
	return nil
}

func (c bytesCodec) length(p unsafe.Pointer) int64 {
	b := *(*[]byte)(p)
	if b == nil {
		return 1
	}
	return StringLength(len(b))
}

func (c bytesCodec) defaultLength() int64 { return 1 }

// --------------------------------------------------------------------------
// Built-in Formatters
// --------------------------------------------------------------------------

// timeFormatter writes time.Time in its binary marshalling as one
// string-class value. The zone offset survives, the monotonic reading does not.
type timeFormatter struct{ t *wire.Table }

func (f timeFormatter) Serialize(buf *buffer.Buffer, v time.Time) error {
	data, err := v.MarshalBinary()
	if err != nil {
		return err
	}
	WriteBytes(buf, f.t, data)
	return nil
}

func (f timeFormatter) Deserialize(buf *buffer.Buffer) (time.Time, error) {
	var v time.Time
	if TryReadNil(buf, f.t) {
		return v, nil
	}
	raw, err := readStrSlice(buf, f.t)
	if err != nil {
		return v, err
	}
	if err := v.UnmarshalBinary(raw); err != nil {
		return time.Time{}, malformed("time: %v", err)
	}
	return v, nil
}

func (f timeFormatter) GetLength(v time.Time) int64 {
	data, err := v.MarshalBinary()
	if err != nil {
		return f.DefaultLength()
	}
	return StringLength(len(data))
}

func (f timeFormatter) DefaultLength() int64 { return StringLength(15) }

// builtins are consulted after the store and before synthesis
var builtins = map[reflect.Type]func(t *wire.Table) Codec{
	reflect.TypeFor[time.Time](): func(t *wire.Table) Codec {
		return Erase[time.Time](timeFormatter{t: t})
	},
}
