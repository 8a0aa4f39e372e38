package formatter

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Constructor creates the formatter for one type. It receives the Builder of
// the resolution in progress, so it can ask for the formatters of nested
// types with Sub.
type Constructor[T any] func(b *Builder) (Formatter[T], error)

// Descriptor describes a registration in a Store
type Descriptor struct {
	Type      reflect.Type
	Versioned bool
	// Versions is 1 for plain registrations
	Versions int
}

// registration is immutable once it is in the store; AddVersion replaces it
type registration struct {
	Descriptor
	build func(b *Builder) (Codec, error)
	// ctors holds the typed version constructors of a versioned registration
	ctors any
}

// Store maps types to formatter constructors. Registrations are meant to
// happen before the store is handed to a Resolver; later registrations are
// only seen for types that have not been resolved yet.
type Store struct {
	mu            sync.RWMutex
	registrations map[reflect.Type]*registration
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{registrations: make(map[reflect.Type]*registration)}
}

// Add registers the formatter constructor for T
func Add[T any](s *Store, ctor func(b *Builder) (Formatter[T], error)) error {
	typ := reflect.TypeFor[T]()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.registrations[typ]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, typ)
	}
	s.registrations[typ] = &registration{
		Descriptor: Descriptor{Type: typ, Versions: 1},
		build: func(b *Builder) (Codec, error) {
			f, err := ctor(b)
			if err != nil {
				return nil, err
			}
			if f == nil {
				return nil, fmt.Errorf("constructor for %s returned no formatter", typ)
			}
			return Erase(f), nil
		},
	}
	return nil
}

// AddFormatter registers a ready formatter instance for T
func AddFormatter[T any](s *Store, f Formatter[T]) error {
	return Add(s, func(*Builder) (Formatter[T], error) { return f, nil })
}

// AddVersion registers the next schema version of T. Versions are numbered
// from zero in registration order; the last one is used for encoding.
func AddVersion[T any](s *Store, ctor func(b *Builder) (Formatter[T], error)) error {
	typ := reflect.TypeFor[T]()
	s.mu.Lock()
	defer s.mu.Unlock()

	var ctors []Constructor[T]
	if prev, ok := s.registrations[typ]; ok {
		if !prev.Versioned {
			return fmt.Errorf("%w: %s has a plain formatter", ErrAlreadyRegistered, typ)
		}
		ctors = slices.Clone(prev.ctors.([]Constructor[T]))
	}
	ctors = append(ctors, ctor)

	s.registrations[typ] = &registration{
		Descriptor: Descriptor{Type: typ, Versioned: true, Versions: len(ctors)},
		build: func(b *Builder) (Codec, error) {
			return newVersionManager(b, ctors)
		},
		ctors: ctors,
	}
	return nil
}

// Lookup returns the registration for typ
func (s *Store) Lookup(typ reflect.Type) (Descriptor, bool) {
	r, ok := s.lookup(typ)
	if !ok {
		return Descriptor{}, false
	}
	return r.Descriptor, true
}

func (s *Store) lookup(typ reflect.Type) (*registration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.registrations[typ]
	return r, ok
}

// Descriptors lists every registration ordered by type name
func (s *Store) Descriptors() []Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Descriptor, 0, len(s.registrations))
	for _, r := range s.registrations {
		out = append(out, r.Descriptor)
	}
	slices.SortFunc(out, func(a, b Descriptor) int {
		return cmp.Compare(a.Type.String(), b.Type.String())
	})
	return out
}
