package buffer

import "errors"

// minSpan is the size of the region GetSpan grants when no hint is given
const minSpan = 16

// ErrReadOnly is the panic value for writes to a buffer created by NewReader
var ErrReadOnly = errors.New("buffer: write to a read-only buffer")

// Buffer is a cursor over a byte region. A writer owns a pooled, growable
// block; a reader wraps caller-owned input. Reads always see the committed
// bytes, so a writer can be read back after Seek(0).
//
// A Buffer belongs to a single serialize or deserialize call and must not be
// shared between goroutines.
type Buffer struct {
	data     []byte // backing memory, len(data) is the capacity
	n        int    // committed length
	pos      int    // read cursor
	pool     *Pool
	lease    Lease
	leased   bool
	readOnly bool
	released bool
}

// NewReader creates a read-only buffer over data. The caller keeps ownership
// of data; Release only marks the buffer as unusable.
func NewReader(data []byte) *Buffer {
	return &Buffer{
		data:     data,
		n:        len(data),
		readOnly: true,
	}
}

// NewWriter creates a buffer backed by a block rented from pool that can hold
// at least sizeHint bytes before it grows
func NewWriter(pool *Pool, sizeHint int) *Buffer {
	if sizeHint < minSpan {
		sizeHint = minSpan
	}
	lease := pool.Rent(sizeHint)
	return &Buffer{
		data:   lease.Bytes(),
		pool:   pool,
		lease:  lease,
		leased: true,
	}
}

// NewSegmentReader creates a read-only buffer over the concatenation of
// segments. The segments are copied into one pooled block, so the caller
// may reuse them right away.
func NewSegmentReader(pool *Pool, segments ...[]byte) *Buffer {
	total := 0
	for _, s := range segments {
		total += len(s)
	}
	b := NewWriter(pool, total)
	b.WriteSegments(segments...)
	b.readOnly = true
	return b
}

// --------------------------------------------------------------------------
// State
// --------------------------------------------------------------------------

// Consumed returns the number of bytes read so far
func (b *Buffer) Consumed() int {
	b.check()
	return b.pos
}

// Remaining returns the number of committed bytes not read yet
func (b *Buffer) Remaining() int {
	b.check()
	return b.n - b.pos
}

// WrittenCount returns the number of committed bytes
func (b *Buffer) WrittenCount() int {
	b.check()
	return b.n
}

// WritableBytes returns how many bytes can be written before the buffer has
// to grow. It is always 0 for read-only buffers.
func (b *Buffer) WritableBytes() int {
	b.check()
	if b.readOnly {
		return 0
	}
	return len(b.data) - b.n
}

// ReadOnly reports whether the buffer rejects writes
func (b *Buffer) ReadOnly() bool {
	return b.readOnly
}

// Bytes returns the committed bytes. The slice aliases the buffer's memory
// and is only valid until the buffer grows or is released.
func (b *Buffer) Bytes() []byte {
	b.check()
	return b.data[:b.n:b.n]
}

// Reset discards all committed bytes and rewinds the cursor
func (b *Buffer) Reset() {
	b.check()
	if b.readOnly {
		panic(ErrReadOnly)
	}
	b.n = 0
	b.pos = 0
}

// Release returns the backing block to its pool. The buffer must not be used
// afterwards; releasing twice panics.
func (b *Buffer) Release() {
	if b.released {
		panic("buffer: released twice")
	}
	b.released = true
	if b.leased {
		b.pool.Return(b.lease)
	}
	b.data = nil
	b.n = 0
	b.pos = 0
}

func (b *Buffer) check() {
	if b.released {
		panic("buffer: use after release")
	}
}

// --------------------------------------------------------------------------
// Read Side
// --------------------------------------------------------------------------

// TryPeek returns the next byte without advancing the cursor
func (b *Buffer) TryPeek() (byte, bool) {
	b.check()
	if b.pos >= b.n {
		return 0, false
	}
	return b.data[b.pos], true
}

// TryRead returns the next byte and advances the cursor by one
func (b *Buffer) TryRead() (byte, bool) {
	c, ok := b.TryPeek()
	if ok {
		b.pos++
	}
	return c, ok
}

// Read copies len(dst) bytes into dst. It returns false and leaves the cursor
// untouched when fewer bytes remain.
func (b *Buffer) Read(dst []byte) bool {
	src, ok := b.ReadSlice(len(dst))
	if ok {
		copy(dst, src)
	}
	return ok
}

// ReadSlice returns a view on the next n bytes and advances past them. The
// view aliases the buffer and must be copied if it outlives the buffer.
func (b *Buffer) ReadSlice(n int) ([]byte, bool) {
	b.check()
	if n < 0 || n > b.n-b.pos {
		return nil, false
	}
	start := b.pos
	b.pos += n
	return b.data[start:b.pos:b.pos], true
}

// ReadAdvance skips n bytes
func (b *Buffer) ReadAdvance(n int) bool {
	b.check()
	if n < 0 || n > b.n-b.pos {
		return false
	}
	b.pos += n
	return true
}

// Rewind moves the cursor back by n bytes
func (b *Buffer) Rewind(n int) bool {
	b.check()
	if n < 0 || n > b.pos {
		return false
	}
	b.pos -= n
	return true
}

// Seek moves the cursor to an absolute position within the committed bytes
func (b *Buffer) Seek(pos int) bool {
	b.check()
	if pos < 0 || pos > b.n {
		return false
	}
	b.pos = pos
	return true
}

// --------------------------------------------------------------------------
// Write Side
// --------------------------------------------------------------------------

// GetSpan returns a writable region of at least hint bytes directly after
// the committed bytes. A hint <= 0 yields a small non-empty region. Nothing
// is committed until WriteAdvance is called.
func (b *Buffer) GetSpan(hint int) []byte {
	b.check()
	if b.readOnly {
		panic(ErrReadOnly)
	}
	if hint <= 0 {
		hint = minSpan
	}
	if len(b.data)-b.n < hint {
		b.grow(hint)
	}
	return b.data[b.n:]
}

// GetMemory is GetSpan; Go has one slice type for both
func (b *Buffer) GetMemory(hint int) []byte {
	return b.GetSpan(hint)
}

// WriteAdvance commits n bytes written into the region returned by GetSpan
func (b *Buffer) WriteAdvance(n int) {
	b.check()
	if b.readOnly {
		panic(ErrReadOnly)
	}
	if n < 0 || n > len(b.data)-b.n {
		panic("buffer: advance beyond the granted region")
	}
	b.n += n
}

// WriteByte commits a single byte (implements io.ByteWriter)
func (b *Buffer) WriteByte(c byte) error {
	span := b.GetSpan(1)
	span[0] = c
	b.WriteAdvance(1)
	return nil
}

// Write commits p (implements io.Writer)
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		b.check()
		return 0, nil
	}
	span := b.GetSpan(len(p))
	copy(span, p)
	b.WriteAdvance(len(p))
	return len(p), nil
}

// WriteString commits the bytes of s (implements io.StringWriter)
func (b *Buffer) WriteString(s string) (int, error) {
	if len(s) == 0 {
		b.check()
		return 0, nil
	}
	span := b.GetSpan(len(s))
	copy(span, s)
	b.WriteAdvance(len(s))
	return len(s), nil
}

// WriteSegments commits every segment in order
func (b *Buffer) WriteSegments(segments ...[]byte) {
	total := 0
	for _, s := range segments {
		total += len(s)
	}
	span := b.GetSpan(total)
	offset := 0
	for _, s := range segments {
		offset += copy(span[offset:], s)
	}
	b.WriteAdvance(total)
}

// grow replaces the backing block with one that has at least need free
// bytes, keeping the committed bytes
func (b *Buffer) grow(need int) {
	size := 2 * len(b.data)
	if size < b.n+need {
		size = b.n + need
	}

	if b.pool == nil {
		b.pool = NewPool()
	}
	lease := b.pool.Rent(size)
	data := lease.Bytes()
	copy(data, b.data[:b.n])

	if b.leased {
		b.pool.Return(b.lease)
	}
	plog.Debugf("grew buffer from %d to %d bytes (%d committed)", len(b.data), len(data), b.n)

	b.data = data
	b.lease = lease
	b.leased = true
}
