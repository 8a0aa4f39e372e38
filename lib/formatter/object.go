package formatter

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/ValentinKolb/dCodec/lib/buffer"
	"github.com/ValentinKolb/dCodec/lib/wire"
)

// field is one member of a synthesized object formatter
type field struct {
	name   string
	offset uintptr
	codec  Codec
}

// objectCodec writes a struct as an array of its exported fields in
// declaration order. The field list is built once from reflection; encoding
// and decoding only follow the precomputed offsets.
type objectCodec struct {
	t      *wire.Table
	typ    reflect.Type
	fields []field
}

func (o *objectCodec) encode(buf *buffer.Buffer, p unsafe.Pointer) error {
	WriteArrayHeader(buf, o.t, len(o.fields))
	for _, f := range o.fields {
		if err := f.codec.encode(buf, unsafe.Add(p, f.offset)); err != nil {
			return fmt.Errorf("%s.%s: %w", o.typ, f.name, err)
		}
	}
	return nil
}

func (o *objectCodec) decode(buf *buffer.Buffer, p unsafe.Pointer) error {
	if TryReadNil(buf, o.t) {
		return nil
	}
	n, err := ReadArrayHeader(buf, o.t)
	if err != nil {
		return err
	}
	if n != len(o.fields) {
		return malformed("%s has %d fields, input has %d", o.typ, len(o.fields), n)
	}
	for _, f := range o.fields {
		if err := f.codec.decode(buf, unsafe.Add(p, f.offset)); err != nil {
			return fmt.Errorf("%s.%s: %w", o.typ, f.name, err)
		}
	}
	return nil
}

func (o *objectCodec) length(p unsafe.Pointer) int64 {
	total := ArrayHeaderLength(len(o.fields))
	for _, f := range o.fields {
		total += f.codec.length(unsafe.Add(p, f.offset))
	}
	return total
}

func (o *objectCodec) defaultLength() int64 {
	total := ArrayHeaderLength(len(o.fields))
	for _, f := range o.fields {
		total += f.codec.defaultLength()
	}
	return total
}

// buildObject inspects a struct type once and composes the codecs of its
// fields. A `codec:"-"` tag excludes a field.
func (r *Resolver) buildObject(b *Builder, typ reflect.Type) (Codec, error) {
	r.metrics.inspections.Inc()

	fields := make([]field, 0, typ.NumField())
	hidden := 0
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.IsExported() {
			hidden++
			continue
		}
		if sf.Tag.Get("codec") == "-" {
			continue
		}
		c, err := b.Codec(sf.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", typ, sf.Name, err)
		}
		fields = append(fields, field{name: sf.Name, offset: sf.Offset, codec: c})
	}
	// a struct with state but no exported fields would silently lose it
	if len(fields) == 0 && hidden > 0 {
		return nil, fmt.Errorf("%w: %s has no exported fields", ErrNotEncodable, typ)
	}

	r.metrics.objects.Inc()
	plog.Debugf("compiled object formatter for %s with %d fields", typ, len(fields))
	return &objectCodec{t: b.Table(), typ: typ, fields: fields}, nil
}

// --------------------------------------------------------------------------
// Pointers
// --------------------------------------------------------------------------

// pointerCodec writes nil as Nil and anything else as the pointee. Decoding
// allocates a fresh pointee, so a pointer whose target encodes as Nil (a nil
// slice behind a non-nil pointer) comes back as a nil pointer.
type pointerCodec struct {
	t    *wire.Table
	elem reflect.Type
	c    Codec
}

func (pc *pointerCodec) encode(buf *buffer.Buffer, p unsafe.Pointer) error {
	target := *(*unsafe.Pointer)(p)
	if target == nil {
		WriteNil(buf, pc.t)
		return nil
	}
	return pc.c.encode(buf, target)
}

func (pc *pointerCodec) decode(buf *buffer.Buffer, p unsafe.Pointer) error {
	if TryReadNil(buf, pc.t) {
		return nil
	}
	// typed allocation, the target may hold pointers
	target := reflect.New(pc.elem).UnsafePointer()
	if err := pc.c.decode(buf, target); err != nil {
		return err
	}
	*(*unsafe.Pointer)(p) = target
	return nil
}

func (pc *pointerCodec) length(p unsafe.Pointer) int64 {
	target := *(*unsafe.Pointer)(p)
	if target == nil {
		return 1
	}
	return pc.c.length(target)
}

func (pc *pointerCodec) defaultLength() int64 { return 1 }
