// Package buffer provides the pooled byte buffer every formatter reads from
// and writes to.
//
// Key Components:
//
//   - Pool: Hands out byte blocks in power-of-two size classes backed by
//     sync.Pool. Requests above the largest class are allocated and dropped.
//     Every rent produces a Lease carrying the block's generation, so
//     returning a block twice panics instead of corrupting the pool.
//
//   - Buffer: A cursor with a read side (TryPeek, TryRead, Read, ReadSlice,
//     ReadAdvance, Rewind, Seek) and a write side (GetSpan, WriteAdvance and
//     the io.Writer family). Read operations never move the cursor outside
//     the committed bytes and report failure instead of partially reading.
//     Writers grow transparently by renting a bigger block, copying the
//     committed bytes and returning the old block.
//
// Ownership:
//
//	A Buffer is created for one serialize or deserialize call, used by a
//	single goroutine and released exactly once on the owner's completion
//	path:
//
//	  buf := buffer.NewWriter(pool, 64)
//	  defer buf.Release()
//	  // ... write ...
//	  out := bytes.Clone(buf.Bytes())
//
//	Use after release, double release and writes to a reader are
//	programming errors and panic.
package buffer
