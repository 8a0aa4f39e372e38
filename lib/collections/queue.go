package collections

import (
	"iter"

	"github.com/ValentinKolb/dCodec/lib/formatter"
)

// Queue is a FIFO container backed by a growable ring buffer
type Queue[E any] struct {
	ring []E
	head int
	size int
}

// NewQueue creates an empty queue with room for capacity elements
func NewQueue[E any](capacity int) *Queue[E] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[E]{ring: make([]E, capacity)}
}

// Enqueue appends e at the back
func (q *Queue[E]) Enqueue(e E) {
	if q.size == len(q.ring) {
		q.grow()
	}
	q.ring[(q.head+q.size)%len(q.ring)] = e
	q.size++
}

// Dequeue removes and returns the front element
func (q *Queue[E]) Dequeue() (E, bool) {
	var zero E
	if q.size == 0 {
		return zero, false
	}
	e := q.ring[q.head]
	q.ring[q.head] = zero
	q.head = (q.head + 1) % len(q.ring)
	q.size--
	return e, true
}

// Peek returns the front element without removing it
func (q *Queue[E]) Peek() (E, bool) {
	if q.size == 0 {
		var zero E
		return zero, false
	}
	return q.ring[q.head], true
}

// Len returns the number of queued elements
func (q *Queue[E]) Len() int {
	return q.size
}

// All yields the elements from front to back
func (q *Queue[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for i := 0; i < q.size; i++ {
			if !yield(q.ring[(q.head+i)%len(q.ring)]) {
				return
			}
		}
	}
}

func (q *Queue[E]) grow() {
	ring := make([]E, max(2*len(q.ring), 1))
	for i := 0; i < q.size; i++ {
		ring[i] = q.ring[(q.head+i)%len(q.ring)]
	}
	q.ring = ring
	q.head = 0
}

// ProvideCodec implements formatter.Provider
func (*Queue[E]) ProvideCodec(b *formatter.Builder) (formatter.Codec, error) {
	return formatter.SequenceCodec(b, formatter.SequenceHooks[*Queue[E], E]{
		New: NewQueue[E],
		Add: (*Queue[E]).Enqueue,
	})
}
