package collections

import (
	"iter"
	"maps"

	"github.com/ValentinKolb/dCodec/lib/formatter"
)

// HashSet is an unordered set. Adding an element twice keeps one copy, which
// is also what happens to duplicates in decoded input.
type HashSet[E comparable] struct {
	m map[E]struct{}
}

// NewHashSet creates an empty set with room for capacity elements
func NewHashSet[E comparable](capacity int) *HashSet[E] {
	return &HashSet[E]{m: make(map[E]struct{}, capacity)}
}

// Add inserts e
func (s *HashSet[E]) Add(e E) {
	s.m[e] = struct{}{}
}

// Remove deletes e and reports whether it was present
func (s *HashSet[E]) Remove(e E) bool {
	_, ok := s.m[e]
	delete(s.m, e)
	return ok
}

// Contains reports whether e is in the set
func (s *HashSet[E]) Contains(e E) bool {
	_, ok := s.m[e]
	return ok
}

// Len returns the number of elements
func (s *HashSet[E]) Len() int {
	return len(s.m)
}

// All yields the elements in no particular order
func (s *HashSet[E]) All() iter.Seq[E] {
	return maps.Keys(s.m)
}

// ProvideCodec implements formatter.Provider
func (*HashSet[E]) ProvideCodec(b *formatter.Builder) (formatter.Codec, error) {
	return formatter.SequenceCodec(b, formatter.SequenceHooks[*HashSet[E], E]{
		New: NewHashSet[E],
		Add: (*HashSet[E]).Add,
	})
}
