package formatter

import (
	"cmp"
	"fmt"
	"iter"
	"reflect"
	"slices"
	"unsafe"

	"github.com/ValentinKolb/dCodec/lib/buffer"
	"github.com/ValentinKolb/dCodec/lib/wire"
)

// --------------------------------------------------------------------------
// Shared Collection Algorithm
//
// Every collection is written as an array header with the element count
// followed by the elements in iteration order. Dictionaries write each entry
// as key then value. A nil container is written as Nil. The kinds only
// differ in how a container is iterated, created and filled, which is what
// the container interface captures.
// --------------------------------------------------------------------------

type container interface {
	// nilable reports whether the container has a nil state
	nilable() bool
	isNil(p unsafe.Pointer) bool
	count(p unsafe.Pointer) int
	// each calls fn for every entry; value is nil for sequences and sets
	each(p unsafe.Pointer, fn func(key, value unsafe.Pointer) error) error
	// create stores an empty container with room for n entries at p
	create(p unsafe.Pointer, n int) error
	// add lets fill decode entry index into zeroed storage and adds it
	add(p unsafe.Pointer, index int, fill func(key, value unsafe.Pointer) error) error
}

// collectionCodec drives a container. For sequences and sets elem encodes
// the elements and value is nil; for dictionaries elem encodes the keys.
type collectionCodec struct {
	t     *wire.Table
	typ   reflect.Type
	c     container
	elem  Codec
	value Codec
}

func (cc *collectionCodec) encode(buf *buffer.Buffer, p unsafe.Pointer) error {
	if cc.c.nilable() && cc.c.isNil(p) {
		WriteNil(buf, cc.t)
		return nil
	}
	n := cc.c.count(p)
	WriteArrayHeader(buf, cc.t, n)
	written := 0
	err := cc.c.each(p, func(key, value unsafe.Pointer) error {
		written++
		if err := cc.elem.encode(buf, key); err != nil {
			return err
		}
		if cc.value != nil {
			return cc.value.encode(buf, value)
		}
		return nil
	})
	if err != nil {
		return err
	}
	// concurrent containers may change between count and iteration
	if written != n {
		return fmt.Errorf("%s changed during encoding: header says %d entries, wrote %d", cc.typ, n, written)
	}
	return nil
}

func (cc *collectionCodec) decode(buf *buffer.Buffer, p unsafe.Pointer) error {
	if TryReadNil(buf, cc.t) {
		return nil
	}
	n, err := ReadArrayHeader(buf, cc.t)
	if err != nil {
		return err
	}
	if err := cc.c.create(p, n); err != nil {
		return err
	}

	fill := func(key, value unsafe.Pointer) error {
		if err := cc.elem.decode(buf, key); err != nil {
			return err
		}
		if cc.value != nil {
			return cc.value.decode(buf, value)
		}
		return nil
	}
	for i := 0; i < n; i++ {
		if err := cc.c.add(p, i, fill); err != nil {
			return fmt.Errorf("%s entry %d: %w", cc.typ, i, err)
		}
	}
	return nil
}

func (cc *collectionCodec) length(p unsafe.Pointer) int64 {
	if cc.c.nilable() && cc.c.isNil(p) {
		return 1
	}
	total := ArrayHeaderLength(cc.c.count(p))
	_ = cc.c.each(p, func(key, value unsafe.Pointer) error {
		total += cc.elem.length(key)
		if cc.value != nil {
			total += cc.value.length(value)
		}
		return nil
	})
	return total
}

func (cc *collectionCodec) defaultLength() int64 {
	if a, ok := cc.c.(arrayContainer); ok {
		return ArrayHeaderLength(a.n) + int64(a.n)*cc.elem.defaultLength()
	}
	if cc.c.nilable() {
		return 1
	}
	return ArrayHeaderLength(0)
}

// --------------------------------------------------------------------------
// Slices and Arrays
// --------------------------------------------------------------------------

// sliceHeader is the runtime layout of a slice
type sliceHeader struct {
	data unsafe.Pointer
	len  int
	cap  int
}

type sliceContainer struct {
	typ      reflect.Type
	elemSize uintptr
}

func (s sliceContainer) nilable() bool { return true }

func (s sliceContainer) isNil(p unsafe.Pointer) bool {
	return (*sliceHeader)(p).data == nil
}

func (s sliceContainer) count(p unsafe.Pointer) int {
	return (*sliceHeader)(p).len
}

func (s sliceContainer) each(p unsafe.Pointer, fn func(key, value unsafe.Pointer) error) error {
	h := (*sliceHeader)(p)
	for i := 0; i < h.len; i++ {
		if err := fn(unsafe.Add(h.data, uintptr(i)*s.elemSize), nil); err != nil {
			return err
		}
	}
	return nil
}

// create allocates the backing array through reflect so that its element
// type is known to the garbage collector
func (s sliceContainer) create(p unsafe.Pointer, n int) error {
	reflect.NewAt(s.typ, p).Elem().Set(reflect.MakeSlice(s.typ, n, n))
	return nil
}

func (s sliceContainer) add(p unsafe.Pointer, index int, fill func(key, value unsafe.Pointer) error) error {
	h := (*sliceHeader)(p)
	if index >= h.len {
		return malformed("index %d beyond slice of %d", index, h.len)
	}
	return fill(unsafe.Add(h.data, uintptr(index)*s.elemSize), nil)
}

type arrayContainer struct {
	typ      reflect.Type
	n        int
	elemSize uintptr
}

func (a arrayContainer) nilable() bool             { return false }
func (a arrayContainer) isNil(unsafe.Pointer) bool { return false }
func (a arrayContainer) count(unsafe.Pointer) int  { return a.n }

func (a arrayContainer) each(p unsafe.Pointer, fn func(key, value unsafe.Pointer) error) error {
	for i := 0; i < a.n; i++ {
		if err := fn(unsafe.Add(p, uintptr(i)*a.elemSize), nil); err != nil {
			return err
		}
	}
	return nil
}

func (a arrayContainer) create(_ unsafe.Pointer, n int) error {
	if n != a.n {
		return malformed("%s expects %d elements, input has %d", a.typ, a.n, n)
	}
	return nil
}

func (a arrayContainer) add(p unsafe.Pointer, index int, fill func(key, value unsafe.Pointer) error) error {
	return fill(unsafe.Add(p, uintptr(index)*a.elemSize), nil)
}

// --------------------------------------------------------------------------
// Maps and Sets
// --------------------------------------------------------------------------

// mapContainer covers map[K]V and, with set, map[K]struct{}. Go offers no
// way to iterate a map of a runtime type without reflection, so this is the
// one container whose hot path goes through reflect.
type mapContainer struct {
	typ    reflect.Type
	set    bool
	sorted bool
}

func (m mapContainer) nilable() bool { return true }

func (m mapContainer) isNil(p unsafe.Pointer) bool {
	return *(*unsafe.Pointer)(p) == nil
}

func (m mapContainer) count(p unsafe.Pointer) int {
	return reflect.NewAt(m.typ, p).Elem().Len()
}

func (m mapContainer) each(p unsafe.Pointer, fn func(key, value unsafe.Pointer) error) error {
	mv := reflect.NewAt(m.typ, p).Elem()
	k := reflect.New(m.typ.Key())
	var v reflect.Value
	var vp unsafe.Pointer
	if !m.set {
		v = reflect.New(m.typ.Elem())
		vp = v.UnsafePointer()
	}

	if m.sorted && orderedKey(m.typ.Key()) {
		keys := mv.MapKeys()
		slices.SortFunc(keys, compareKeys)
		for _, key := range keys {
			k.Elem().Set(key)
			if !m.set {
				v.Elem().Set(mv.MapIndex(key))
			}
			if err := fn(k.UnsafePointer(), vp); err != nil {
				return err
			}
		}
		return nil
	}

	it := mv.MapRange()
	for it.Next() {
		k.Elem().SetIterKey(it)
		if !m.set {
			v.Elem().SetIterValue(it)
		}
		if err := fn(k.UnsafePointer(), vp); err != nil {
			return err
		}
	}
	return nil
}

func (m mapContainer) create(p unsafe.Pointer, n int) error {
	reflect.NewAt(m.typ, p).Elem().Set(reflect.MakeMapWithSize(m.typ, n))
	return nil
}

func (m mapContainer) add(p unsafe.Pointer, _ int, fill func(key, value unsafe.Pointer) error) error {
	k := reflect.New(m.typ.Key())
	v := reflect.New(m.typ.Elem())
	var vp unsafe.Pointer
	if !m.set {
		vp = v.UnsafePointer()
	}
	if err := fill(k.UnsafePointer(), vp); err != nil {
		return err
	}
	reflect.NewAt(m.typ, p).Elem().SetMapIndex(k.Elem(), v.Elem())
	return nil
}

// orderedKey reports whether keys of typ can be sorted for deterministic output
func orderedKey(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func compareKeys(a, b reflect.Value) int {
	switch a.Kind() {
	case reflect.String:
		return cmp.Compare(a.String(), b.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cmp.Compare(a.Uint(), b.Uint())
	default:
		return cmp.Compare(a.Float(), b.Float())
	}
}

// isSet reports whether a map type only carries keys
func isSet(typ reflect.Type) bool {
	elem := typ.Elem()
	return elem.Kind() == reflect.Struct && elem.Size() == 0
}

// --------------------------------------------------------------------------
// Typed Containers
//
// Container types outside this package plug into the shared algorithm by
// describing how to iterate, create and fill them. C must have reference
// semantics (a pointer or map type), since Add mutates it in place.
// --------------------------------------------------------------------------

// Sequence is a container that can be walked element by element
type Sequence[E any] interface {
	Len() int
	All() iter.Seq[E]
}

// SequenceHooks create and fill a Sequence while decoding
type SequenceHooks[C Sequence[E], E any] struct {
	// New returns an empty container with room for capacity elements
	New func(capacity int) C
	// Add appends an element; elements arrive in encoded order
	Add func(c C, e E)
}

// Dictionary is a container of key value pairs
type Dictionary[K comparable, V any] interface {
	Len() int
	All() iter.Seq2[K, V]
}

// DictionaryHooks create and fill a Dictionary while decoding
type DictionaryHooks[C Dictionary[K, V], K comparable, V any] struct {
	New func(capacity int) C
	Add func(c C, k K, v V)
}

// SequenceCodec builds a Codec for a Sequence type from its hooks. It is
// meant to be called from a Provider.
func SequenceCodec[C Sequence[E], E any](b *Builder, hooks SequenceHooks[C, E]) (Codec, error) {
	elem, err := b.Codec(reflect.TypeFor[E]())
	if err != nil {
		return nil, err
	}
	typ := reflect.TypeFor[C]()
	return &collectionCodec{
		t:    b.Table(),
		typ:  typ,
		c:    &sequenceContainer[C, E]{hooks: hooks, pointer: pointerShaped(typ)},
		elem: elem,
	}, nil
}

// DictionaryCodec builds a Codec for a Dictionary type from its hooks
func DictionaryCodec[C Dictionary[K, V], K comparable, V any](b *Builder, hooks DictionaryHooks[C, K, V]) (Codec, error) {
	key, err := b.Codec(reflect.TypeFor[K]())
	if err != nil {
		return nil, err
	}
	value, err := b.Codec(reflect.TypeFor[V]())
	if err != nil {
		return nil, err
	}
	typ := reflect.TypeFor[C]()
	return &collectionCodec{
		t:     b.Table(),
		typ:   typ,
		c:     &dictionaryContainer[C, K, V]{hooks: hooks, pointer: pointerShaped(typ)},
		elem:  key,
		value: value,
	}, nil
}

type sequenceContainer[C Sequence[E], E any] struct {
	hooks   SequenceHooks[C, E]
	pointer bool
}

func (s *sequenceContainer[C, E]) nilable() bool { return s.pointer }

func (s *sequenceContainer[C, E]) isNil(p unsafe.Pointer) bool {
	return s.pointer && *(*unsafe.Pointer)(p) == nil
}

func (s *sequenceContainer[C, E]) count(p unsafe.Pointer) int {
	return (*(*C)(p)).Len()
}

func (s *sequenceContainer[C, E]) each(p unsafe.Pointer, fn func(key, value unsafe.Pointer) error) error {
	for e := range (*(*C)(p)).All() {
		if err := fn(unsafe.Pointer(&e), nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *sequenceContainer[C, E]) create(p unsafe.Pointer, n int) error {
	*(*C)(p) = s.hooks.New(n)
	return nil
}

func (s *sequenceContainer[C, E]) add(p unsafe.Pointer, _ int, fill func(key, value unsafe.Pointer) error) error {
	var e E
	if err := fill(unsafe.Pointer(&e), nil); err != nil {
		return err
	}
	s.hooks.Add(*(*C)(p), e)
	return nil
}

type dictionaryContainer[C Dictionary[K, V], K comparable, V any] struct {
	hooks   DictionaryHooks[C, K, V]
	pointer bool
}

func (d *dictionaryContainer[C, K, V]) nilable() bool { return d.pointer }

func (d *dictionaryContainer[C, K, V]) isNil(p unsafe.Pointer) bool {
	return d.pointer && *(*unsafe.Pointer)(p) == nil
}

func (d *dictionaryContainer[C, K, V]) count(p unsafe.Pointer) int {
	return (*(*C)(p)).Len()
}

func (d *dictionaryContainer[C, K, V]) each(p unsafe.Pointer, fn func(key, value unsafe.Pointer) error) error {
	for k, v := range (*(*C)(p)).All() {
		if err := fn(unsafe.Pointer(&k), unsafe.Pointer(&v)); err != nil {
			return err
		}
	}
	return nil
}

func (d *dictionaryContainer[C, K, V]) create(p unsafe.Pointer, n int) error {
	*(*C)(p) = d.hooks.New(n)
	return nil
}

func (d *dictionaryContainer[C, K, V]) add(p unsafe.Pointer, _ int, fill func(key, value unsafe.Pointer) error) error {
	var k K
	var v V
	if err := fill(unsafe.Pointer(&k), unsafe.Pointer(&v)); err != nil {
		return err
	}
	d.hooks.Add(*(*C)(p), k, v)
	return nil
}
