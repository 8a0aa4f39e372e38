package buffer

import (
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger("buffer")

const (
	// DefaultMinBlock is the smallest block handed out by a pool (256 B)
	DefaultMinBlock = 1 << 8
	// DefaultMaxBlock is the largest pooled block (4 MB); larger requests are
	// allocated and dropped instead of pooled
	DefaultMaxBlock = 1 << 22
)

// --------------------------------------------------------------------------
// Blocks and Leases
// --------------------------------------------------------------------------

// block is one pooled allocation. gen is bumped every time the block is
// returned, which invalidates every lease handed out for the previous rent.
type block struct {
	data  []byte
	class int // index into Pool.classes, -1 for unpooled blocks
	gen   atomic.Uint64
}

// Lease is the exclusive right to use a rented block until it is returned.
// Leases are small values; copying one does not allow a second return.
type Lease struct {
	b   *block
	gen uint64
}

// Valid reports whether the lease still owns its block
func (l Lease) Valid() bool {
	return l.b != nil && l.b.gen.Load() == l.gen
}

// Bytes returns the rented memory. It panics when the lease was already returned.
func (l Lease) Bytes() []byte {
	if !l.Valid() {
		panic("buffer: use of a returned lease")
	}
	return l.b.data
}

// --------------------------------------------------------------------------
// Pool
// --------------------------------------------------------------------------

// Pool hands out byte blocks in power-of-two size classes. It is safe for
// concurrent use; the blocks it hands out are not.
type Pool struct {
	minShift int
	classes  []*sync.Pool

	rents     *metrics.Counter
	returns   *metrics.Counter
	allocs    *metrics.Counter
	oversized *metrics.Counter
}

// PoolOption configures a Pool
type PoolOption func(*poolConfig)

type poolConfig struct {
	minBlock int
	maxBlock int
	set      *metrics.Set
}

// WithBlockSizes sets the smallest and largest pooled block size. Both are
// rounded up to a power of two.
func WithBlockSizes(minBlock, maxBlock int) PoolOption {
	return func(c *poolConfig) {
		c.minBlock = minBlock
		c.maxBlock = maxBlock
	}
}

// WithPoolMetrics registers the pool counters in the given set
func WithPoolMetrics(set *metrics.Set) PoolOption {
	return func(c *poolConfig) {
		c.set = set
	}
}

// NewPool creates a new block pool
func NewPool(opts ...PoolOption) *Pool {
	conf := poolConfig{
		minBlock: DefaultMinBlock,
		maxBlock: DefaultMaxBlock,
	}
	for _, opt := range opts {
		opt(&conf)
	}
	if conf.set == nil {
		conf.set = metrics.NewSet()
	}
	if conf.minBlock < 1 {
		conf.minBlock = 1
	}
	if conf.maxBlock < conf.minBlock {
		conf.maxBlock = conf.minBlock
	}

	minShift := ceilLog2(conf.minBlock)
	maxShift := ceilLog2(conf.maxBlock)

	p := &Pool{
		minShift:  minShift,
		classes:   make([]*sync.Pool, maxShift-minShift+1),
		rents:     conf.set.GetOrCreateCounter(`dcodec_pool_rents_total`),
		returns:   conf.set.GetOrCreateCounter(`dcodec_pool_returns_total`),
		allocs:    conf.set.GetOrCreateCounter(`dcodec_pool_allocations_total`),
		oversized: conf.set.GetOrCreateCounter(`dcodec_pool_oversized_total`),
	}
	for i := range p.classes {
		size := 1 << (minShift + i)
		class := i
		p.classes[i] = &sync.Pool{
			New: func() any {
				p.allocs.Inc()
				return &block{data: make([]byte, size), class: class}
			},
		}
	}

	plog.Debugf("created pool with %d size classes (%d B - %d B)", len(p.classes), 1<<minShift, 1<<maxShift)
	return p
}

// Rent returns a lease on a block of at least size bytes
func (p *Pool) Rent(size int) Lease {
	p.rents.Inc()
	class := p.classFor(size)

	var b *block
	if class < 0 {
		p.oversized.Inc()
		b = &block{data: make([]byte, size), class: -1}
	} else {
		b = p.classes[class].Get().(*block)
	}
	return Lease{b: b, gen: b.gen.Load()}
}

// Return gives a leased block back to the pool. Returning the same lease
// twice (or any copy of it) is a programming error and panics.
func (p *Pool) Return(l Lease) {
	if l.b == nil {
		panic("buffer: return of an empty lease")
	}
	if !l.b.gen.CompareAndSwap(l.gen, l.gen+1) {
		panic(fmt.Sprintf("buffer: block of %d bytes returned twice", len(l.b.data)))
	}
	p.returns.Inc()

	if l.b.class >= 0 && l.b.class < len(p.classes) {
		p.classes[l.b.class].Put(l.b)
	}
}

// MaxBlock returns the size of the largest pooled class
func (p *Pool) MaxBlock() int {
	return 1 << (p.minShift + len(p.classes) - 1)
}

// classFor returns the smallest class holding size bytes, -1 if none does
func (p *Pool) classFor(size int) int {
	if size < 1 {
		size = 1
	}
	class := ceilLog2(size) - p.minShift
	if class < 0 {
		class = 0
	}
	if class >= len(p.classes) {
		return -1
	}
	return class
}

// ceilLog2 returns the smallest s with 1<<s >= n (n >= 1)
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}
