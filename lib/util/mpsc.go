package util

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// node is one element of the queue's linked list
type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// MPSC is an unbounded multi-producer single-consumer queue. Producers append
// to a linked list with compare-and-swap and never block; one goroutine owned
// by the queue moves the values to the channel returned by Recv.
//
// Items pushed by a single producer arrive in order. Items of concurrent
// producers are ordered by whichever append completes first.
type MPSC[T any] struct {
	head   atomic.Pointer[node[T]]
	tail   atomic.Pointer[node[T]]
	out    chan T
	closed atomic.Bool
	done   sync.WaitGroup

	mu   sync.Mutex
	cond *sync.Cond
}

// NewMPSC creates a queue and starts its delivery goroutine
func NewMPSC[T any]() *MPSC[T] {
	sentinel := &node[T]{}
	q := &MPSC[T]{out: make(chan T)}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	q.done.Add(1)
	go q.deliver()
	return q
}

// Push appends value. It returns false if the queue is closed.
func (q *MPSC[T]) Push(value T) bool {
	if q.closed.Load() {
		return false
	}
	n := &node[T]{value: value}

	for spins := 0; ; spins++ {
		tail := q.tail.Load()
		next := tail.next.Load()
		if next != nil {
			// another producer appended but has not moved tail yet
			q.tail.CompareAndSwap(tail, next)
		} else if tail.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(tail, n)
			q.wake()
			return true
		}
		if spins > 4 {
			runtime.Gosched()
		}
	}
}

// wake signals the consumer. Taking the lock orders the signal after the
// consumer's emptiness check, so a push cannot slip between check and wait.
func (q *MPSC[T]) wake() {
	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}

func (q *MPSC[T]) deliver() {
	defer q.done.Done()
	defer close(q.out)

	var zero T
	for {
		head := q.head.Load()
		if next := head.next.Load(); next != nil {
			q.head.Store(next)
			q.out <- next.value
			next.value = zero
			continue
		}
		if q.closed.Load() {
			return
		}

		q.mu.Lock()
		if q.head.Load().next.Load() == nil && !q.closed.Load() {
			q.cond.Wait()
		}
		q.mu.Unlock()
	}
}

// Recv returns the channel the values are delivered on. It is closed once the
// queue is closed and drained.
func (q *MPSC[T]) Recv() <-chan T {
	return q.out
}

// Close stops accepting values. Values already pushed are still delivered.
// Producers must have returned from Push before Close is called.
func (q *MPSC[T]) Close() {
	q.closed.Store(true)
	q.wake()
}

// Wait blocks until every value has been delivered after Close
func (q *MPSC[T]) Wait() {
	q.done.Wait()
}

// Len counts the values not yet handed to the consumer. It walks the list and
// is meant for debugging.
func (q *MPSC[T]) Len() int {
	count := 0
	for n := q.head.Load().next.Load(); n != nil; n = n.next.Load() {
		count++
	}
	return count
}
