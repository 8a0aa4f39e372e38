package formatter

import (
	"math"
	"testing"

	"github.com/ValentinKolb/dCodec/lib/buffer"
	"github.com/ValentinKolb/dCodec/lib/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(fn func(buf *buffer.Buffer)) []byte {
	buf := buffer.NewWriter(buffer.NewPool(), 0)
	defer buf.Release()
	fn(buf)
	out := make([]byte, buf.WrittenCount())
	copy(out, buf.Bytes())
	return out
}

func TestIntegersUseSmallestTag(t *testing.T) {
	table := wire.DefaultTable()
	testCases := []struct {
		value    int64
		expected []byte
	}{
		{0, []byte{0xd0, 0x00}},
		{-1, []byte{0xd0, 0xff}},
		{127, []byte{0xd0, 0x7f}},
		{128, []byte{0xd1, 0x00, 0x80}},
		{-129, []byte{0xd1, 0xff, 0x7f}},
		{math.MaxInt32, []byte{0xd2, 0x7f, 0xff, 0xff, 0xff}},
		{math.MinInt64, []byte{0xd3, 0x80, 0, 0, 0, 0, 0, 0, 0}},
	}
	for _, tc := range testCases {
		data := write(func(buf *buffer.Buffer) { WriteInt(buf, table, tc.value) })
		assert.Equal(t, tc.expected, data, "value %d", tc.value)
		assert.Equal(t, IntLength(tc.value), int64(len(data)))

		got, err := ReadInt(buffer.NewReader(data), table)
		require.NoError(t, err)
		assert.Equal(t, tc.value, got)
	}

	data := write(func(buf *buffer.Buffer) { WriteUint(buf, table, 300) })
	assert.Equal(t, []byte{0xcd, 0x01, 0x2c}, data)
}

func TestReadIntegersAcrossFamilies(t *testing.T) {
	table := wire.DefaultTable()

	// signed reader accepts unsigned tags in range
	v, err := ReadInt(buffer.NewReader([]byte{0xcc, 0xff}), table)
	require.NoError(t, err)
	assert.Equal(t, int64(255), v)

	_, err = ReadInt(buffer.NewReader([]byte{0xcf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}), table)
	assert.ErrorIs(t, err, ErrMalformed)

	// unsigned reader accepts non-negative signed tags
	u, err := ReadUint(buffer.NewReader([]byte{0xd0, 0x05}), table)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), u)

	_, err = ReadUint(buffer.NewReader([]byte{0xd0, 0xff}), table)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ReadInt(buffer.NewReader([]byte{0xd9, 0x00}), table)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestStringsAndBytes(t *testing.T) {
	table := wire.DefaultTable()

	data := write(func(buf *buffer.Buffer) { WriteString(buf, table, "hi") })
	assert.Equal(t, []byte{0xd9, 0x02, 'h', 'i'}, data)
	assert.Equal(t, StringLength(2), int64(len(data)))

	long := string(make([]byte, 300))
	data = write(func(buf *buffer.Buffer) { WriteString(buf, table, long) })
	assert.Equal(t, []byte{0xda, 0x01, 0x2c}, data[:3])
	s, err := ReadString(buffer.NewReader(data), table)
	require.NoError(t, err)
	assert.Equal(t, long, s)

	data = write(func(buf *buffer.Buffer) { WriteBytes(buf, table, nil) })
	assert.Equal(t, []byte{0xc0}, data)
	b, err := ReadBytes(buffer.NewReader(data), table)
	require.NoError(t, err)
	assert.Nil(t, b)

	data = write(func(buf *buffer.Buffer) { WriteBytes(buf, table, []byte{}) })
	b, err = ReadBytes(buffer.NewReader(data), table)
	require.NoError(t, err)
	assert.NotNil(t, b)
	assert.Empty(t, b)
}

func TestFloatsAndBools(t *testing.T) {
	table := wire.DefaultTable()

	data := write(func(buf *buffer.Buffer) { WriteFloat32(buf, table, 1.5) })
	assert.Equal(t, []byte{0xca, 0x3f, 0xc0, 0x00, 0x00}, data)
	widened, err := ReadFloat64(buffer.NewReader(data), table)
	require.NoError(t, err)
	assert.Equal(t, 1.5, widened)

	data = write(func(buf *buffer.Buffer) {
		WriteBool(buf, table, true)
		WriteBool(buf, table, false)
	})
	assert.Equal(t, []byte{0xc3, 0xc2}, data)
}

func TestMalformedHeaders(t *testing.T) {
	table := wire.DefaultTable()
	testCases := []struct {
		name string
		data []byte
		read func(buf *buffer.Buffer) error
	}{
		{"empty input", nil, func(buf *buffer.Buffer) error { _, err := ReadInt(buf, table); return err }},
		{"unknown tag", []byte{0x01}, func(buf *buffer.Buffer) error { _, err := ReadBool(buf, table); return err }},
		{"truncated int", []byte{0xd2, 0x00}, func(buf *buffer.Buffer) error { _, err := ReadInt(buf, table); return err }},
		{"string longer than input", []byte{0xd9, 0x05, 'a'}, func(buf *buffer.Buffer) error { _, err := ReadString(buf, table); return err }},
		{"count larger than input", []byte{0xdc, 0xff, 0xff}, func(buf *buffer.Buffer) error { _, err := ReadArrayHeader(buf, table); return err }},
		{"array expected", []byte{0xd0, 0x01}, func(buf *buffer.Buffer) error { _, err := ReadArrayHeader(buf, table); return err }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.read(buffer.NewReader(tc.data))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestTryReadNil(t *testing.T) {
	table := wire.DefaultTable()
	buf := buffer.NewReader([]byte{0xc0, 0xd0, 0x01})

	assert.True(t, TryReadNil(buf, table))
	assert.False(t, TryReadNil(buf, table))
	assert.Equal(t, 1, buf.Consumed())
}
