package collections

import (
	"iter"

	"github.com/ValentinKolb/dCodec/lib/formatter"
)

// element is one link of a LinkedList
type element[E any] struct {
	value      E
	prev, next *element[E]
}

// LinkedList is a doubly linked list. Removing from either end is O(1).
type LinkedList[E any] struct {
	front, back *element[E]
	size        int
}

// NewLinkedList creates an empty list. Linked lists cannot preallocate, the
// capacity only exists to match the decoding hook.
func NewLinkedList[E any](int) *LinkedList[E] {
	return &LinkedList[E]{}
}

// PushBack appends e
func (l *LinkedList[E]) PushBack(e E) {
	el := &element[E]{value: e, prev: l.back}
	if l.back != nil {
		l.back.next = el
	} else {
		l.front = el
	}
	l.back = el
	l.size++
}

// PushFront prepends e
func (l *LinkedList[E]) PushFront(e E) {
	el := &element[E]{value: e, next: l.front}
	if l.front != nil {
		l.front.prev = el
	} else {
		l.back = el
	}
	l.front = el
	l.size++
}

// PopFront removes and returns the first element
func (l *LinkedList[E]) PopFront() (E, bool) {
	var zero E
	if l.front == nil {
		return zero, false
	}
	el := l.front
	l.front = el.next
	if l.front != nil {
		l.front.prev = nil
	} else {
		l.back = nil
	}
	l.size--
	return el.value, true
}

// PopBack removes and returns the last element
func (l *LinkedList[E]) PopBack() (E, bool) {
	var zero E
	if l.back == nil {
		return zero, false
	}
	el := l.back
	l.back = el.prev
	if l.back != nil {
		l.back.next = nil
	} else {
		l.front = nil
	}
	l.size--
	return el.value, true
}

// Len returns the number of elements
func (l *LinkedList[E]) Len() int {
	return l.size
}

// All yields the elements from front to back
func (l *LinkedList[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for el := l.front; el != nil; el = el.next {
			if !yield(el.value) {
				return
			}
		}
	}
}

// Backward yields the elements from back to front
func (l *LinkedList[E]) Backward() iter.Seq[E] {
	return func(yield func(E) bool) {
		for el := l.back; el != nil; el = el.prev {
			if !yield(el.value) {
				return
			}
		}
	}
}

// ProvideCodec implements formatter.Provider
func (*LinkedList[E]) ProvideCodec(b *formatter.Builder) (formatter.Codec, error) {
	return formatter.SequenceCodec(b, formatter.SequenceHooks[*LinkedList[E], E]{
		New: NewLinkedList[E],
		Add: (*LinkedList[E]).PushBack,
	})
}
