package collections

import (
	"iter"

	"github.com/ValentinKolb/dCodec/lib/formatter"
	"github.com/puzpuzpuz/xsync/v3"
)

// ConcurrentMap is a map that is safe for concurrent use, backed by
// xsync.MapOf.
//
// It may be encoded while other goroutines write to it. The encoding is not
// a snapshot: if the number of entries changes while the map is being
// written, Serialize fails and the caller should retry.
type ConcurrentMap[K comparable, V any] struct {
	m *xsync.MapOf[K, V]
}

// NewConcurrentMap creates an empty map presized for capacity entries
func NewConcurrentMap[K comparable, V any](capacity int) *ConcurrentMap[K, V] {
	if capacity < 1 {
		return &ConcurrentMap[K, V]{m: xsync.NewMapOf[K, V]()}
	}
	return &ConcurrentMap[K, V]{m: xsync.NewMapOf[K, V](xsync.WithPresize(capacity))}
}

// Load returns the value stored for key
func (c *ConcurrentMap[K, V]) Load(key K) (V, bool) {
	return c.m.Load(key)
}

// Store sets the value for key
func (c *ConcurrentMap[K, V]) Store(key K, value V) {
	c.m.Store(key, value)
}

// LoadOrStore returns the existing value for key if present, otherwise it
// stores value. loaded reports which of the two happened.
func (c *ConcurrentMap[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	return c.m.LoadOrStore(key, value)
}

// Delete removes key
func (c *ConcurrentMap[K, V]) Delete(key K) {
	c.m.Delete(key)
}

// Len returns the number of entries
func (c *ConcurrentMap[K, V]) Len() int {
	return c.m.Size()
}

// All yields every entry in no particular order
func (c *ConcurrentMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		c.m.Range(yield)
	}
}

// ProvideCodec implements formatter.Provider
func (*ConcurrentMap[K, V]) ProvideCodec(b *formatter.Builder) (formatter.Codec, error) {
	return formatter.DictionaryCodec(b, formatter.DictionaryHooks[*ConcurrentMap[K, V], K, V]{
		New: NewConcurrentMap[K, V],
		Add: (*ConcurrentMap[K, V]).Store,
	})
}
