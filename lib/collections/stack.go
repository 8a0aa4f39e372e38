package collections

import (
	"iter"
	"slices"

	"github.com/ValentinKolb/dCodec/lib/formatter"
)

// Stack is a LIFO container backed by a slice
type Stack[E any] struct {
	items []E
}

// NewStack creates an empty stack with room for capacity elements
func NewStack[E any](capacity int) *Stack[E] {
	return &Stack[E]{items: make([]E, 0, capacity)}
}

// Push puts e on top of the stack
func (s *Stack[E]) Push(e E) {
	s.items = append(s.items, e)
}

// Pop removes and returns the top element
func (s *Stack[E]) Pop() (E, bool) {
	var zero E
	if len(s.items) == 0 {
		return zero, false
	}
	last := len(s.items) - 1
	e := s.items[last]
	s.items[last] = zero
	s.items = s.items[:last]
	return e, true
}

// Peek returns the top element without removing it
func (s *Stack[E]) Peek() (E, bool) {
	if len(s.items) == 0 {
		var zero E
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

// Len returns the number of elements
func (s *Stack[E]) Len() int {
	return len(s.items)
}

// All yields the elements from the bottom to the top, which is the order
// that rebuilds the same stack when pushed again
func (s *Stack[E]) All() iter.Seq[E] {
	return slices.Values(s.items)
}

// ProvideCodec implements formatter.Provider
func (*Stack[E]) ProvideCodec(b *formatter.Builder) (formatter.Codec, error) {
	return formatter.SequenceCodec(b, formatter.SequenceHooks[*Stack[E], E]{
		New: NewStack[E],
		Add: (*Stack[E]).Push,
	})
}
