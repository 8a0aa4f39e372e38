package wire

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptionsAreValid(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate())
	assert.Equal(t, byte(0xc0), opts.Nil)
	assert.Len(t, opts.Bytes(), int(kindCount)-1)
}

func TestValidateRejectsDuplicates(t *testing.T) {
	opts := DefaultOptions()
	opts.True = opts.False

	err := opts.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0xc2")

	_, err = NewTable(opts)
	assert.Error(t, err)
}

func TestTableLookups(t *testing.T) {
	table := DefaultTable()
	for k := KindNil; k < kindCount; k++ {
		assert.Equal(t, k, table.Kind(table.Tag(k)), "kind %s", k)
	}
	assert.Equal(t, KindInvalid, table.Kind(0x00))

	kinds := Kinds()
	assert.Len(t, kinds, int(kindCount)-1)
	assert.Equal(t, KindNil, kinds[0])
	assert.Equal(t, KindArray32, kinds[len(kinds)-1])
}

func TestParseOverrides(t *testing.T) {
	opts, err := ParseOverrides("nil=0x01, true=2,false=0x03")
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), opts.Nil)
	assert.Equal(t, byte(0x02), opts.True)
	assert.Equal(t, byte(0x03), opts.False)
	assert.Equal(t, DefaultOptions().Int64, opts.Int64)

	testCases := []struct {
		name      string
		overrides string
	}{
		{name: "missing value", overrides: "nil"},
		{name: "unknown name", overrides: "bogus=0x01"},
		{name: "value too large", overrides: "nil=0x100"},
		{name: "duplicate byte", overrides: "nil=0xc3"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseOverrides(tc.overrides)
			assert.Error(t, err)
		})
	}
}

func TestStringRoundTripsThroughParseOverrides(t *testing.T) {
	opts := DefaultOptions()
	opts.Nil = 0x10
	parsed, err := ParseOverrides(opts.String())
	require.NoError(t, err)
	assert.Equal(t, opts, parsed)
}

func TestFingerprint(t *testing.T) {
	a := DefaultOptions()
	b := DefaultOptions()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint(), 16)

	b.Nil = 0x01
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestHeaderKinds(t *testing.T) {
	assert.Equal(t, KindStr8, StrHeaderKind(0))
	assert.Equal(t, KindStr8, StrHeaderKind(255))
	assert.Equal(t, KindStr16, StrHeaderKind(256))
	assert.Equal(t, KindStr32, StrHeaderKind(math.MaxUint16+1))

	assert.Equal(t, KindArray16, ArrayHeaderKind(0))
	assert.Equal(t, KindArray16, ArrayHeaderKind(math.MaxUint16))
	assert.Equal(t, KindArray32, ArrayHeaderKind(math.MaxUint16+1))

	assert.Equal(t, KindInt8, IntKind(-128))
	assert.Equal(t, KindInt16, IntKind(128))
	assert.Equal(t, KindInt32, IntKind(math.MinInt16-1))
	assert.Equal(t, KindInt64, IntKind(math.MaxInt64))

	assert.Equal(t, KindUInt8, UintKind(255))
	assert.Equal(t, KindUInt16, UintKind(256))
	assert.Equal(t, KindUInt32, UintKind(math.MaxUint32))
	assert.Equal(t, KindUInt64, UintKind(math.MaxUint32+1))
}

func TestTreeRoundTrip(t *testing.T) {
	table := DefaultTable()
	tree := []any{
		nil, true, false,
		int64(-1), int64(math.MinInt64), uint64(math.MaxUint64),
		float32(1.5), 2.25,
		"hello",
		[]any{int64(1), "nested", []any{}},
	}

	data, err := Append(nil, table, tree)
	require.NoError(t, err)

	decoded, rest, err := Decode(data, table)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, tree, decoded)
}

func TestAppendDictionaryBytes(t *testing.T) {
	table := DefaultTable()
	data, err := Append(nil, table, map[string]any{"a": int64(1)})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xdc, 0x00, 0x01, 0xd9, 0x01, 'a', 0xd0, 0x01}, data)
}

func TestDecodeMalformed(t *testing.T) {
	table := DefaultTable()
	testCases := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: []byte{}},
		{name: "unknown tag", data: []byte{0x00}},
		{name: "truncated int", data: []byte{0xd1, 0x01}},
		{name: "string longer than input", data: []byte{0xd9, 0x05, 'a'}},
		{name: "array longer than input", data: []byte{0xdc, 0xff, 0xff}},
		{name: "truncated element", data: []byte{0xdc, 0x00, 0x01, 0xcd}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Decode(tc.data, table)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
		})
	}
}

func TestCustomTableChangesBytesOnly(t *testing.T) {
	opts := DefaultOptions()
	opts.Str8 = 0x01
	table, err := NewTable(opts)
	require.NoError(t, err)

	data, err := Append(nil, table, "x")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x01, 'x'}, data)

	decoded, _, err := Decode(data, table)
	require.NoError(t, err)
	assert.Equal(t, "x", decoded)
}
