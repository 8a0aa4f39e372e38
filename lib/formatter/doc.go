// Package formatter implements the per-type serialization engine of dCodec.
// Every Go type is handled by a Formatter that knows how to write values of
// that type to a buffer.Buffer and read them back, using the tags of a
// wire.Table.
//
// The package focuses on:
//   - A small contract that hand-written formatters implement
//   - Resolving the formatter of any type once and sharing it afterwards
//   - Synthesizing formatters for structs, slices, arrays, maps and pointers
//     so most types never need a hand-written one
//   - Reading data written by older schema versions of a type
//
// Key Components:
//
//   - Formatter[T]: Serialize, Deserialize, GetLength (exact byte count) and
//     DefaultLength (a value independent estimate). Untyped is the same for
//     types only known at runtime.
//
//   - Store: Explicit registrations. Add binds a constructor to a type,
//     AddVersion appends a schema version. Registrations win over synthesis.
//
//   - Resolver: Maps a type to its formatter. The first lookup of a type
//     builds the formatter and everything it depends on under a lock and
//     publishes the result atomically; later lookups are a lock-free map read
//     that returns the same instance.
//
//   - Builder: Passed to constructors and providers during a resolution.
//     Nested formatters must be requested through it (Sub, Builder.Codec),
//     which also makes recursive types possible.
//
//   - Collections: Slices, arrays, maps, sets and any type implementing
//     Provider share one algorithm: an array header with the count followed
//     by the elements, or by key and value for dictionaries. SequenceCodec and
//     DictionaryCodec connect container types from other packages to it.
//
//   - Objects: A struct is written as an array of its exported fields in
//     declaration order. The field list is computed once with reflection,
//     after that only precomputed offsets are used.
//
//   - Versioning: A VersionPolicy decides how the version of a value is
//     recorded. TaggedVersions writes the version index in front of the
//     payload, TrialVersions tries the newest version first and falls back.
//
// Nil Handling:
//
//	Types with a nil state (pointers, slices, maps, pointer-shaped
//	containers) write nil as the single Nil byte. Every decoder accepts Nil
//	and yields the zero value of its type. Empty and nil collections are
//	distinguished on the wire.
//
// Reflection:
//
//	Types are inspected only while a formatter is built. Encoding and
//	decoding work on unsafe pointers and precomputed offsets, with two
//	exceptions. Decoding allocates pointer targets with reflect.New and
//	slice backing arrays with reflect.MakeSlice, so the garbage collector
//	knows the layout of the memory. Maps are read and written through
//	reflect.Value in both directions, since Go has no other generic map
//	access. Neither looks at the fields of a type again. Untyped
//	formatters box values through reflect as well.
//
// Usage:
//
//	store := formatter.NewStore()
//	_ = formatter.Add(store, newPointFormatter)
//	r := formatter.NewResolver(store)
//
//	data, err := formatter.Marshal(r, Item{Name: "x", Count: 5})
//	item, err := formatter.Unmarshal[Item](r, data)
package formatter
