package formatter

import (
	"fmt"
	"io"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dCodec/lib/buffer"
	"github.com/ValentinKolb/dCodec/lib/wire"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var plog = logger.GetLogger("formatter")

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Option configures a Resolver
type Option func(*Resolver)

// WithTable sets the tag table every formatter of the resolver writes with
func WithTable(t *wire.Table) Option {
	return func(r *Resolver) { r.table = t }
}

// WithPool sets the block pool Marshal rents its buffers from
func WithPool(p *buffer.Pool) Option {
	return func(r *Resolver) { r.pool = p }
}

// WithMetrics registers the resolver counters in set instead of a private one
func WithMetrics(set *metrics.Set) Option {
	return func(r *Resolver) { r.set = set }
}

// WithVersionPolicy sets how schema-versioned types mark their version
func WithVersionPolicy(p VersionPolicy) Option {
	return func(r *Resolver) { r.policy = p }
}

// WithSortedMapKeys writes map entries ordered by key, which makes the
// encoding of a map deterministic. Keys must be strings or numbers.
func WithSortedMapKeys(sorted bool) Option {
	return func(r *Resolver) { r.sortKeys = sorted }
}

// --------------------------------------------------------------------------
// Resolver
// --------------------------------------------------------------------------

// resolverMetrics counts the work done on the slow path. None of them move
// once every type in use has been resolved.
type resolverMetrics struct {
	resolutions *metrics.Counter
	builds      *metrics.Counter
	inspections *metrics.Counter
	objects     *metrics.Counter
	failures    *metrics.Counter
}

// Stats is a snapshot of the resolver counters
type Stats struct {
	// Resolutions counts cache misses that took the lock
	Resolutions uint64
	// Builds counts codecs created, one per type
	Builds uint64
	// Inspections counts struct types examined through reflection
	Inspections uint64
	// Objects counts synthesized object formatters
	Objects uint64
	// Failures counts resolutions that ended in an error
	Failures uint64
	// Cached is the number of types with a published formatter
	Cached int
}

// entry is a published resolution. The typed view is created on first use
// and then shared, so every lookup for a type returns the same instance.
type entry struct {
	codec   Codec
	untyped *untyped
	typed   atomic.Pointer[any]
}

// Resolver maps a type to its formatter. Lookups after the first one for a
// type are a single concurrent map read; the first one builds the formatter
// under a lock and publishes it together with every nested formatter it
// needed. A resolution that fails publishes nothing.
type Resolver struct {
	store    *Store
	table    *wire.Table
	pool     *buffer.Pool
	policy   VersionPolicy
	sortKeys bool
	set      *metrics.Set

	cache   *xsync.MapOf[reflect.Type, *entry]
	mu      sync.Mutex
	metrics resolverMetrics
}

// NewResolver creates a resolver over store. A nil store behaves like an
// empty one.
func NewResolver(store *Store, opts ...Option) *Resolver {
	if store == nil {
		store = NewStore()
	}
	r := &Resolver{
		store:  store,
		table:  wire.DefaultTable(),
		pool:   buffer.NewPool(),
		policy: TaggedVersions(),
		set:    metrics.NewSet(),
		cache:  xsync.NewMapOf[reflect.Type, *entry](),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.metrics = resolverMetrics{
		resolutions: r.set.GetOrCreateCounter(`dcodec_resolver_resolutions_total`),
		builds:      r.set.GetOrCreateCounter(`dcodec_resolver_builds_total`),
		inspections: r.set.GetOrCreateCounter(`dcodec_resolver_inspections_total`),
		objects:     r.set.GetOrCreateCounter(`dcodec_resolver_objects_total`),
		failures:    r.set.GetOrCreateCounter(`dcodec_resolver_failures_total`),
	}
	return r
}

// Table returns the tag table of the resolver
func (r *Resolver) Table() *wire.Table {
	return r.table
}

// Pool returns the block pool of the resolver
func (r *Resolver) Pool() *buffer.Pool {
	return r.pool
}

// Store returns the store the resolver consults first
func (r *Resolver) Store() *Store {
	return r.store
}

// Stats returns a snapshot of the resolver counters
func (r *Resolver) Stats() Stats {
	return Stats{
		Resolutions: r.metrics.resolutions.Get(),
		Builds:      r.metrics.builds.Get(),
		Inspections: r.metrics.inspections.Get(),
		Objects:     r.metrics.objects.Get(),
		Failures:    r.metrics.failures.Get(),
		Cached:      r.cache.Size(),
	}
}

// WriteMetrics writes the resolver counters in Prometheus text format
func (r *Resolver) WriteMetrics(w io.Writer) {
	r.set.WritePrometheus(w)
}

// GetFormatter returns the formatter for T. Repeated calls return the same
// instance.
func GetFormatter[T any](r *Resolver) (Formatter[T], error) {
	e, err := r.resolve(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	if f := e.typed.Load(); f != nil {
		return (*f).(Formatter[T]), nil
	}
	var f any = typed[T](e.codec)
	if e.typed.CompareAndSwap(nil, &f) {
		return f.(Formatter[T]), nil
	}
	return (*e.typed.Load()).(Formatter[T]), nil
}

// MustGetFormatter is GetFormatter for types known to be encodable
func MustGetFormatter[T any](r *Resolver) Formatter[T] {
	f, err := GetFormatter[T](r)
	if err != nil {
		panic(err)
	}
	return f
}

// GetFormatter returns the formatter for a type only known at runtime
func (r *Resolver) GetFormatter(typ reflect.Type) (Untyped, error) {
	if typ == nil {
		return nil, fmt.Errorf("%w: nil type", ErrNotEncodable)
	}
	e, err := r.resolve(typ)
	if err != nil {
		return nil, err
	}
	return e.untyped, nil
}

// resolve returns the published entry for typ, building it on first use
func (r *Resolver) resolve(typ reflect.Type) (*entry, error) {
	if e, ok := r.cache.Load(typ); ok {
		return e, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.cache.Load(typ); ok {
		return e, nil
	}
	r.metrics.resolutions.Inc()

	b := &Builder{
		r:        r,
		built:    make(map[reflect.Type]Codec),
		building: make(map[reflect.Type]*forward),
	}
	if _, err := b.Codec(typ); err != nil {
		r.metrics.failures.Inc()
		plog.Warningf("no formatter for %s: %v", typ, err)
		return nil, err
	}

	// nested formatters become visible together with the requested one
	for t, c := range b.built {
		r.cache.Store(t, &entry{codec: c, untyped: &untyped{typ: t, c: c}})
	}
	plog.Debugf("resolved %s (%d formatters published)", typ, len(b.built))
	e, _ := r.cache.Load(typ)
	return e, nil
}

// --------------------------------------------------------------------------
// Builder
// --------------------------------------------------------------------------

// Builder is handed to constructors and providers while a resolution is in
// progress. It resolves nested types within the same resolution, which is
// what makes recursive types work. Constructors must use the Builder rather
// than GetFormatter for nested types.
type Builder struct {
	r        *Resolver
	built    map[reflect.Type]Codec
	building map[reflect.Type]*forward
	// owner is the type whose constructor or provider is running right now
	owner reflect.Type
}

// Table returns the tag table formatters must write with
func (b *Builder) Table() *wire.Table {
	return b.r.table
}

// Codec returns the codec for typ, building it if needed. While typ itself
// is being built a forwarding codec is returned that delegates once the
// build completes.
func (b *Builder) Codec(typ reflect.Type) (Codec, error) {
	if b.owner != nil && b.owner == typ {
		return nil, fmt.Errorf("%w: the constructor for %s asked for its own formatter", ErrNotEncodable, typ)
	}
	if e, ok := b.r.cache.Load(typ); ok {
		return e.codec, nil
	}
	if c, ok := b.built[typ]; ok {
		return c, nil
	}
	if f, ok := b.building[typ]; ok {
		return f, nil
	}

	fwd := &forward{typ: typ}
	b.building[typ] = fwd
	owner := b.owner
	b.owner = nil
	c, err := b.r.build(b, typ)
	b.owner = owner
	delete(b.building, typ)
	if err != nil {
		return nil, err
	}
	fwd.target = c
	b.built[typ] = c
	b.r.metrics.builds.Inc()
	return c, nil
}

// Sub returns the formatter for E within the resolution of b
func Sub[E any](b *Builder) (Formatter[E], error) {
	c, err := b.Codec(reflect.TypeFor[E]())
	if err != nil {
		return nil, err
	}
	return typed[E](c), nil
}

// Provider is implemented by types that know how to build their own
// formatter, typically generic containers that call SequenceCodec or
// DictionaryCodec. ProvideCodec is called on the zero value of the type.
type Provider interface {
	ProvideCodec(b *Builder) (Codec, error)
}

var providerType = reflect.TypeFor[Provider]()

// build creates the codec for typ: an explicit registration wins, then the
// built-in formatters, then a provider, then synthesis from the type's shape
func (r *Resolver) build(b *Builder, typ reflect.Type) (Codec, error) {
	if reg, ok := r.store.lookup(typ); ok {
		b.owner = typ
		c, err := reg.build(b)
		b.owner = nil
		if err != nil {
			return nil, fmt.Errorf("formatter for %s: %w", typ, err)
		}
		return c, nil
	}
	if ctor, ok := builtins[typ]; ok {
		return ctor(r.table), nil
	}
	if typ.Implements(providerType) {
		p, _ := reflect.Zero(typ).Interface().(Provider)
		b.owner = typ
		c, err := p.ProvideCodec(b)
		b.owner = nil
		if err != nil {
			return nil, fmt.Errorf("formatter for %s: %w", typ, err)
		}
		return c, nil
	}
	return r.synthesize(b, typ)
}

// synthesize derives a codec from the kind of typ
func (r *Resolver) synthesize(b *Builder, typ reflect.Type) (Codec, error) {
	if c := primitiveCodec(r.table, typ); c != nil {
		return c, nil
	}

	switch typ.Kind() {
	case reflect.Slice:
		if typ.Elem().Kind() == reflect.Uint8 {
			return bytesCodec{t: r.table}, nil
		}
		elem, err := b.Codec(typ.Elem())
		if err != nil {
			return nil, err
		}
		return &collectionCodec{
			t:    r.table,
			typ:  typ,
			c:    sliceContainer{typ: typ, elemSize: typ.Elem().Size()},
			elem: elem,
		}, nil

	case reflect.Array:
		elem, err := b.Codec(typ.Elem())
		if err != nil {
			return nil, err
		}
		return &collectionCodec{
			t:    r.table,
			typ:  typ,
			c:    arrayContainer{typ: typ, n: typ.Len(), elemSize: typ.Elem().Size()},
			elem: elem,
		}, nil

	case reflect.Map:
		key, err := b.Codec(typ.Key())
		if err != nil {
			return nil, err
		}
		cc := &collectionCodec{
			t:    r.table,
			typ:  typ,
			c:    mapContainer{typ: typ, set: isSet(typ), sorted: r.sortKeys},
			elem: key,
		}
		if !isSet(typ) {
			if cc.value, err = b.Codec(typ.Elem()); err != nil {
				return nil, err
			}
		}
		return cc, nil

	case reflect.Pointer:
		elem, err := b.Codec(typ.Elem())
		if err != nil {
			return nil, err
		}
		return &pointerCodec{t: r.table, elem: typ.Elem(), c: elem}, nil

	case reflect.Struct:
		return r.buildObject(b, typ)

	default:
		return nil, fmt.Errorf("%w: %s (kind %s)", ErrNotEncodable, typ, typ.Kind())
	}
}
