package serializer

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/dCodec/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressedSerializer(t *testing.T) {
	large := common.Message{
		MsgType: common.MsgTPublish,
		Topic:   "bulk",
		Payload: bytes.Repeat([]byte("abcd"), 1024),
	}
	small := common.Message{MsgType: common.MsgTPing}

	for _, algo := range []Compression{CompressionZstd, CompressionLZ4} {
		t.Run(algo.String(), func(t *testing.T) {
			s := NewCompressedSerializer(NewFormatterSerializer(), algo)
			assert.Equal(t, "formatter+"+algo.String(), s.Name())

			data, err := s.Serialize(large)
			require.NoError(t, err)
			assert.Equal(t, byte(algo), data[0])
			assert.Less(t, len(data), len(large.Payload)/4)

			var got common.Message
			require.NoError(t, s.Deserialize(data, &got))
			assert.Equal(t, large, got)

			// short payloads are stored
			data, err = s.Serialize(small)
			require.NoError(t, err)
			assert.Equal(t, byte(CompressionNone), data[0])
			require.NoError(t, s.Deserialize(data, &got))
			assert.Equal(t, small, got)
		})
	}
}

func TestCompressedSerializerReadsAnyAlgorithm(t *testing.T) {
	msg := common.Message{MsgType: common.MsgTPublish, Payload: bytes.Repeat([]byte{7}, 512)}

	data, err := NewCompressedSerializer(NewJSONSerializer(), CompressionZstd).Serialize(msg)
	require.NoError(t, err)

	var got common.Message
	require.NoError(t, NewCompressedSerializer(NewJSONSerializer(), CompressionLZ4).Deserialize(data, &got))
	assert.Equal(t, msg.Payload, got.Payload)
}

func TestCompressedSerializerRejectsCorruptData(t *testing.T) {
	s := NewCompressedSerializer(NewFormatterSerializer(), CompressionZstd)
	var msg common.Message

	testCases := map[string][]byte{
		"empty":            {},
		"header only":      {byte(CompressionZstd)},
		"size mismatch":    {byte(CompressionNone), 0x05, 0xc0},
		"unknown algo":     {0x7f, 0x01, 0xc0},
		"garbage zstd":     {byte(CompressionZstd), 0x10, 1, 2, 3, 4},
		"garbage lz4":      {byte(CompressionLZ4), 0x10, 0xff, 0xff},
		"size above limit": {byte(CompressionNone), 0xff, 0xff, 0xff, 0xff, 0x0f},
	}
	for name, data := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.Deserialize(data, &msg))
		})
	}
}

func TestParseCompression(t *testing.T) {
	for _, name := range []string{"none", "zstd", "lz4"} {
		c, err := ParseCompression(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.String())
	}
	c, err := ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, c)

	_, err = ParseCompression("brotli")
	assert.Error(t, err)
}
