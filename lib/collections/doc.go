// Package collections provides generic containers that the formatter
// package can encode without hand-written formatters.
//
// Every container implements formatter.Provider and only describes how it is
// created and filled; the encoding itself is the shared collection algorithm
// of the formatter package (a count header followed by the elements).
//
// Key Components:
//
//   - Stack: LIFO backed by a slice. Encoded bottom to top, so a decoded
//     stack has the same top element.
//
//   - Queue: FIFO backed by a ring buffer. Encoded front to back.
//
//   - LinkedList: Doubly linked list with O(1) operations at both ends.
//
//   - HashSet: Unordered set; duplicates in decoded input collapse.
//
//   - ConcurrentMap: Map safe for concurrent use, backed by xsync.MapOf.
//
//   - PriorityMap: Min-heap with key access, for work that has to be taken in
//     priority order but also cancelled or re-prioritized by key.
//
// All containers are used through pointers. A nil pointer encodes as Nil and
// decodes back to nil.
package collections
