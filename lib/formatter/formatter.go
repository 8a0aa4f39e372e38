package formatter

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/ValentinKolb/dCodec/lib/buffer"
)

// --------------------------------------------------------------------------
// Formatter Contract
// --------------------------------------------------------------------------

// Formatter converts values of one type to and from the wire format.
//
// Implementations must be safe for concurrent use; the resolver hands the
// same instance to every caller.
type Formatter[T any] interface {
	// Serialize appends the encoding of value to buf
	Serialize(buf *buffer.Buffer, value T) error

	// Deserialize consumes exactly one encoded value from buf. On failure the
	// position of buf is unspecified.
	Deserialize(buf *buffer.Buffer) (T, error)

	// GetLength returns the exact number of bytes Serialize writes for value
	GetLength(value T) int64

	// DefaultLength returns a size estimate that does not depend on a value
	DefaultLength() int64
}

// Untyped is a Formatter for a type only known at runtime. Values are boxed
// in interfaces and checked against Type.
type Untyped interface {
	Type() reflect.Type
	Serialize(buf *buffer.Buffer, value any) error
	Deserialize(buf *buffer.Buffer) (any, error)
	GetLength(value any) (int64, error)
	DefaultLength() int64
}

// Codec is the type-erased form of a formatter. Codecs work on a pointer to
// the value's storage, which lets nested formatters be composed for types
// that are only known at runtime. A Codec is obtained from Erase, from the
// collection helpers or from a Builder.
type Codec interface {
	encode(buf *buffer.Buffer, p unsafe.Pointer) error
	// decode writes into zeroed storage at p
	decode(buf *buffer.Buffer, p unsafe.Pointer) error
	length(p unsafe.Pointer) int64
	defaultLength() int64
}

// Erase turns a typed formatter into a Codec
func Erase[T any](f Formatter[T]) Codec {
	if v, ok := f.(*view[T]); ok {
		return v.c
	}
	return adapted[T]{f: f}
}

// Convert adapts the formatter of W to T. It lets an older schema version
// of T be described by a separate struct with its own field set.
func Convert[T, W any](f Formatter[W], to func(T) W, from func(W) T) Formatter[T] {
	return converted[T, W]{f: f, to: to, from: from}
}

type converted[T, W any] struct {
	f    Formatter[W]
	to   func(T) W
	from func(W) T
}

func (c converted[T, W]) Serialize(buf *buffer.Buffer, value T) error {
	return c.f.Serialize(buf, c.to(value))
}

func (c converted[T, W]) Deserialize(buf *buffer.Buffer) (T, error) {
	w, err := c.f.Deserialize(buf)
	if err != nil {
		var zero T
		return zero, err
	}
	return c.from(w), nil
}

func (c converted[T, W]) GetLength(value T) int64 {
	return c.f.GetLength(c.to(value))
}

func (c converted[T, W]) DefaultLength() int64 {
	return c.f.DefaultLength()
}

// typed returns the Formatter[T] behind c
func typed[T any](c Codec) Formatter[T] {
	if a, ok := c.(adapted[T]); ok {
		return a.f
	}
	return &view[T]{c: c}
}

// --------------------------------------------------------------------------
// Wrappers
// --------------------------------------------------------------------------

// adapted exposes a typed formatter as a Codec
type adapted[T any] struct {
	f Formatter[T]
}

func (a adapted[T]) encode(buf *buffer.Buffer, p unsafe.Pointer) error {
	return a.f.Serialize(buf, *(*T)(p))
}

func (a adapted[T]) decode(buf *buffer.Buffer, p unsafe.Pointer) error {
	v, err := a.f.Deserialize(buf)
	if err != nil {
		return err
	}
	*(*T)(p) = v
	return nil
}

func (a adapted[T]) length(p unsafe.Pointer) int64 {
	return a.f.GetLength(*(*T)(p))
}

func (a adapted[T]) defaultLength() int64 {
	return a.f.DefaultLength()
}

// view exposes a Codec as a typed formatter
type view[T any] struct {
	c Codec
}

func (v *view[T]) Serialize(buf *buffer.Buffer, value T) error {
	return v.c.encode(buf, unsafe.Pointer(&value))
}

func (v *view[T]) Deserialize(buf *buffer.Buffer) (T, error) {
	var value T
	if err := v.c.decode(buf, unsafe.Pointer(&value)); err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

func (v *view[T]) GetLength(value T) int64 {
	return v.c.length(unsafe.Pointer(&value))
}

func (v *view[T]) DefaultLength() int64 {
	return v.c.defaultLength()
}

// untyped boxes values through reflection
type untyped struct {
	typ reflect.Type
	c   Codec
}

func (u *untyped) Type() reflect.Type {
	return u.typ
}

// pointerTo copies value into fresh storage of the formatter's type
func (u *untyped) pointerTo(value any) (unsafe.Pointer, error) {
	ptr := reflect.New(u.typ)
	if value == nil {
		if !nilable(u.typ) {
			return nil, fmt.Errorf("nil is not a value of %s", u.typ)
		}
		return ptr.UnsafePointer(), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type() != u.typ {
		return nil, fmt.Errorf("value of %s passed to formatter for %s", rv.Type(), u.typ)
	}
	ptr.Elem().Set(rv)
	return ptr.UnsafePointer(), nil
}

func (u *untyped) Serialize(buf *buffer.Buffer, value any) error {
	p, err := u.pointerTo(value)
	if err != nil {
		return err
	}
	return u.c.encode(buf, p)
}

func (u *untyped) Deserialize(buf *buffer.Buffer) (any, error) {
	ptr := reflect.New(u.typ)
	if err := u.c.decode(buf, ptr.UnsafePointer()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

func (u *untyped) GetLength(value any) (int64, error) {
	p, err := u.pointerTo(value)
	if err != nil {
		return 0, err
	}
	return u.c.length(p), nil
}

func (u *untyped) DefaultLength() int64 {
	return u.c.defaultLength()
}

// nilable reports whether the zero value of typ is a nil reference
func nilable(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

// pointerShaped reports whether values of typ are a single machine pointer
func pointerShaped(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

// nilCheck returns a function reporting whether the value of typ stored at
// p is nil, or nil if typ has no nil state
func nilCheck(typ reflect.Type) func(p unsafe.Pointer) bool {
	switch {
	case pointerShaped(typ):
		return func(p unsafe.Pointer) bool { return *(*unsafe.Pointer)(p) == nil }
	case typ.Kind() == reflect.Slice:
		return func(p unsafe.Pointer) bool { return (*sliceHeader)(p).data == nil }
	case typ.Kind() == reflect.Interface:
		return func(p unsafe.Pointer) bool { return reflect.NewAt(typ, p).Elem().IsNil() }
	default:
		return nil
	}
}

// forward stands in for a codec that is still being built, which happens
// for recursive types
type forward struct {
	typ    reflect.Type
	target Codec
}

func (f *forward) encode(buf *buffer.Buffer, p unsafe.Pointer) error {
	return f.target.encode(buf, p)
}

func (f *forward) decode(buf *buffer.Buffer, p unsafe.Pointer) error {
	return f.target.decode(buf, p)
}

func (f *forward) length(p unsafe.Pointer) int64 {
	return f.target.length(p)
}

func (f *forward) defaultLength() int64 {
	if f.target == nil {
		return 1
	}
	return f.target.defaultLength()
}
