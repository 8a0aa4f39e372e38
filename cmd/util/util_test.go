package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/dCodec/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, "short text", WrapString("  short   text "))
	assert.Equal(t, "", WrapString(""))
}

func TestGetSerializer(t *testing.T) {
	conf := &common.CodecConfig{}
	for _, name := range SerializerNames {
		s, err := GetSerializer(name, conf)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}

	conf.Compression = "lz4"
	s, err := GetSerializer("formatter", conf)
	require.NoError(t, err)
	assert.Equal(t, "formatter+lz4", s.Name())

	_, err = GetSerializer("xml", conf)
	assert.Error(t, err)

	conf.Compression = "brotli"
	_, err = GetSerializer("json", conf)
	assert.Error(t, err)

	_, err = GetSerializer("formatter", &common.CodecConfig{Tags: "bogus=1"})
	assert.Error(t, err)
}

func TestGetSerializerVersionPolicy(t *testing.T) {
	msg := *common.NewAck(1)

	tagged, err := GetSerializer("formatter", &common.CodecConfig{VersionPolicy: "tagged"})
	require.NoError(t, err)
	withMarker, err := tagged.Serialize(msg)
	require.NoError(t, err)

	trial, err := GetSerializer("formatter", &common.CodecConfig{VersionPolicy: "trial"})
	require.NoError(t, err)
	withoutMarker, err := trial.Serialize(msg)
	require.NoError(t, err)

	assert.Equal(t, []byte{0xcc, 0x01}, withMarker[:2])
	assert.Equal(t, withMarker[2:], withoutMarker)

	// each policy only reads its own layout
	var out common.Message
	assert.Error(t, tagged.Deserialize(withoutMarker, &out))
	require.NoError(t, trial.Deserialize(withoutMarker, &out))
	assert.Equal(t, msg, out)
}

func TestReadInput(t *testing.T) {
	data, err := ReadInput(nil, strings.NewReader("dc 00 01\n c0"), true)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xdc, 0x00, 0x01, 0xc0}, data)

	_, err = ReadInput([]string{"-"}, strings.NewReader("zz"), true)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xc3}, 0o600))
	data, err = ReadInput([]string{path}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xc3}, data)
}
