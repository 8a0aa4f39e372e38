package collections

import (
	"cmp"
	"container/heap"
	"iter"

	"github.com/ValentinKolb/dCodec/lib/formatter"
)

// entry is a key with its priority and position in the heap
type entry[K comparable, P cmp.Ordered] struct {
	key      K
	priority P
	index    int
}

// PriorityMap combines a binary min-heap with a map, so entries can be taken
// in priority order and also found or removed by key.
//
//   - O(log n) Set, Remove and PopMin
//   - O(1) Get, Contains and Peek
//
// It is not safe for concurrent use.
type PriorityMap[K comparable, P cmp.Ordered] struct {
	h entryHeap[K, P]
	m map[K]*entry[K, P]
}

// NewPriorityMap creates an empty map with room for capacity entries
func NewPriorityMap[K comparable, P cmp.Ordered](capacity int) *PriorityMap[K, P] {
	return &PriorityMap[K, P]{
		h: make(entryHeap[K, P], 0, capacity),
		m: make(map[K]*entry[K, P], capacity),
	}
}

// Set adds key with priority, or moves an existing key to the new priority
func (pm *PriorityMap[K, P]) Set(key K, priority P) {
	if e, ok := pm.m[key]; ok {
		e.priority = priority
		heap.Fix(&pm.h, e.index)
		return
	}
	e := &entry[K, P]{key: key, priority: priority}
	heap.Push(&pm.h, e)
	pm.m[key] = e
}

// Get returns the priority of key
func (pm *PriorityMap[K, P]) Get(key K) (P, bool) {
	if e, ok := pm.m[key]; ok {
		return e.priority, true
	}
	var zero P
	return zero, false
}

// Contains reports whether key is present
func (pm *PriorityMap[K, P]) Contains(key K) bool {
	_, ok := pm.m[key]
	return ok
}

// Remove deletes key and returns its priority
func (pm *PriorityMap[K, P]) Remove(key K) (P, bool) {
	e, ok := pm.m[key]
	if !ok {
		var zero P
		return zero, false
	}
	heap.Remove(&pm.h, e.index)
	delete(pm.m, key)
	return e.priority, true
}

// Peek returns the entry with the lowest priority without removing it
func (pm *PriorityMap[K, P]) Peek() (K, P, bool) {
	if len(pm.h) == 0 {
		var k K
		var p P
		return k, p, false
	}
	return pm.h[0].key, pm.h[0].priority, true
}

// PopMin removes and returns the entry with the lowest priority
func (pm *PriorityMap[K, P]) PopMin() (K, P, bool) {
	if len(pm.h) == 0 {
		var k K
		var p P
		return k, p, false
	}
	e := heap.Pop(&pm.h).(*entry[K, P])
	delete(pm.m, e.key)
	return e.key, e.priority, true
}

// Len returns the number of entries
func (pm *PriorityMap[K, P]) Len() int {
	return len(pm.h)
}

// All yields the entries in heap layout order. Setting them in that order
// rebuilds an identical heap, so an encoded map decodes to the same layout.
func (pm *PriorityMap[K, P]) All() iter.Seq2[K, P] {
	return func(yield func(K, P) bool) {
		for _, e := range pm.h {
			if !yield(e.key, e.priority) {
				return
			}
		}
	}
}

// ProvideCodec implements formatter.Provider
func (*PriorityMap[K, P]) ProvideCodec(b *formatter.Builder) (formatter.Codec, error) {
	return formatter.DictionaryCodec(b, formatter.DictionaryHooks[*PriorityMap[K, P], K, P]{
		New: NewPriorityMap[K, P],
		Add: (*PriorityMap[K, P]).Set,
	})
}

// --------------------------------------------------------------------------
// heap.Interface
// --------------------------------------------------------------------------

type entryHeap[K comparable, P cmp.Ordered] []*entry[K, P]

func (h entryHeap[K, P]) Len() int           { return len(h) }
func (h entryHeap[K, P]) Less(i, j int) bool { return h[i].priority < h[j].priority }

func (h entryHeap[K, P]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap[K, P]) Push(x any) {
	e := x.(*entry[K, P])
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap[K, P]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
