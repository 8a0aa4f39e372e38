package formatter

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/ValentinKolb/dCodec/lib/buffer"
)

// Marshal encodes value with the formatter the resolver has for T. The
// buffer is sized up front from GetLength and returned to the pool before
// Marshal returns; the result is an independent copy.
func Marshal[T any](r *Resolver, value T) ([]byte, error) {
	f, err := GetFormatter[T](r)
	if err != nil {
		return nil, err
	}
	buf := buffer.NewWriter(r.pool, int(f.GetLength(value)))
	defer buf.Release()

	if err := f.Serialize(buf, value); err != nil {
		return nil, err
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Unmarshal decodes exactly one value of T from data. Bytes left over after
// the value are an error.
func Unmarshal[T any](r *Resolver, data []byte) (T, error) {
	var zero T
	f, err := GetFormatter[T](r)
	if err != nil {
		return zero, err
	}
	buf := buffer.NewReader(data)
	defer buf.Release()

	v, err := f.Deserialize(buf)
	if err != nil {
		return zero, err
	}
	if rest := buf.Remaining(); rest > 0 {
		return zero, fmt.Errorf("%w: %d bytes after %s", ErrTrailingBytes, rest, reflect.TypeFor[T]())
	}
	return v, nil
}

// MarshalAppend appends the encoding of value to dst
func MarshalAppend[T any](r *Resolver, dst []byte, value T) ([]byte, error) {
	data, err := Marshal(r, value)
	if err != nil {
		return dst, err
	}
	return append(dst, data...), nil
}
