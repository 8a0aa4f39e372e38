package serializer

import (
	"reflect"
	"testing"
	"time"

	"github.com/ValentinKolb/dCodec/lib/formatter"
	"github.com/ValentinKolb/dCodec/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"Formatter": func() IRPCSerializer { return NewFormatterSerializer() },
	"JSON":      NewJSONSerializer,
	"GOB":       NewGOBSerializer,
	"CBOR":      NewCBORSerializer,
	"Formatter+zstd": func() IRPCSerializer {
		return NewCompressedSerializer(NewFormatterSerializer(), CompressionZstd)
	},
	"JSON+lz4": func() IRPCSerializer {
		return NewCompressedSerializer(NewJSONSerializer(), CompressionLZ4)
	},
}

var sentAt = time.Unix(1700000000, 123456789).UTC()

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Publish request
		{
			MsgType: common.MsgTPublish,
			ID:      1,
			Topic:   "orders",
			Payload: []byte("test-value"),
			SentAt:  sentAt,
		},

		// Fetch response
		{
			MsgType: common.MsgTFetch,
			ID:      2,
			Payload: []byte("test-value"),
			Ok:      true,
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Err:     "test error message",
		},

		// Message with all fields filled
		{
			MsgType: common.MsgTPublish,
			ID:      1<<40 + 3,
			Topic:   "audit/log",
			Headers: map[string]string{"content-type": "text/plain", "trace": "abc"},
			Payload: []byte("test-lock-value"),
			SentAt:  sentAt,
			TTL:     90 * time.Second,
			Ok:      true,
			Err:     "partial",
		},
	}
}

// assertSameMessage compares two messages, with time compared by instant
func assertSameMessage(t *testing.T, want, got common.Message) {
	t.Helper()
	assert.True(t, want.SentAt.Equal(got.SentAt), "SentAt: want %v, got %v", want.SentAt, got.SentAt)
	want.SentAt, got.SentAt = time.Time{}, time.Time{}
	assert.Equal(t, want, got)
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				data, err := serializer.Serialize(msg)
				require.NoError(t, err, "message %d", i)

				var result common.Message
				require.NoError(t, serializer.Deserialize(data, &result), "message %d", i)
				assertSameMessage(t, msg, result)
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// MsgTUnknown has no JSON name, so it is left out
			for msgType := common.MsgTSuccess; msgType <= common.MsgTNack; msgType++ {
				data, err := serializer.Serialize(common.Message{MsgType: msgType})
				require.NoError(t, err, msgType.String())

				var result common.Message
				require.NoError(t, serializer.Deserialize(data, &result), msgType.String())
				assert.Equal(t, msgType, result.MsgType)
			}
		})
	}
}

// TestDeserializeResetsMessage checks that fields of a reused message do not
// leak into the next result
func TestDeserializeResetsMessage(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()
			data, err := serializer.Serialize(common.Message{MsgType: common.MsgTPing})
			require.NoError(t, err)

			result := common.Message{Topic: "stale", Payload: []byte("stale")}
			require.NoError(t, serializer.Deserialize(data, &result))
			assert.Equal(t, common.Message{MsgType: common.MsgTPing}, result)
		})
	}
}

// TestFormatterSerializerSpecific tests edge cases only the formatter
// serializer preserves
func TestFormatterSerializerSpecific(t *testing.T) {
	serializer := NewFormatterSerializer()

	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Empty payload slice but not nil",
			msg:  common.Message{MsgType: common.MsgTPublish, Payload: []byte{}},
		},
		{
			name: "Empty headers map but not nil",
			msg:  common.Message{MsgType: common.MsgTPublish, Headers: map[string]string{}},
		},
		{
			name: "Negative TTL",
			msg:  common.Message{MsgType: common.MsgTPublish, TTL: -time.Second},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := serializer.Serialize(tc.msg)
			require.NoError(t, err)

			var result common.Message
			require.NoError(t, serializer.Deserialize(data, &result))
			assert.True(t, reflect.DeepEqual(tc.msg, result), "want %+v, got %+v", tc.msg, result)
			assert.Equal(t, tc.msg.Payload == nil, result.Payload == nil)
			assert.Equal(t, tc.msg.Headers == nil, result.Headers == nil)
		})
	}
}

// TestFormatterSerializerLayout pins the start of the encoding: the version
// marker, a field count and the fields in declaration order, without field
// names
func TestFormatterSerializerLayout(t *testing.T) {
	serializer := NewFormatterSerializer()
	data, err := serializer.Serialize(common.Message{MsgType: common.MsgTAck, ID: 300})
	require.NoError(t, err)

	assert.Equal(t, []byte{
		0xcc, 0x01, // version 1
		0xdc, 0x00, 0x09, // 9 fields
		0xcc, 0x07, // MsgType
		0xcd, 0x01, 0x2c, // ID
		0xd9, 0x00, // Topic
		0xc0, // Headers
		0xc0, // Payload
	}, data[:14])
}

func TestFormatterSerializerUsesTable(t *testing.T) {
	opts, err := (&common.CodecConfig{Tags: "array16=0x90,uint8=0x91"}).ResolverOptions()
	require.NoError(t, err)
	serializer := NewFormatterSerializer(opts...)

	data, err := serializer.Serialize(common.Message{MsgType: common.MsgTAck})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x91, 0x01, 0x90, 0x00, 0x09, 0x91, 0x07}, data[:7])

	// the default table reads it as garbage
	var result common.Message
	assert.ErrorIs(t, NewFormatterSerializer().Deserialize(data, &result), formatter.ErrMalformed)
}

func TestFormatterSerializerVersionPolicy(t *testing.T) {
	msg := *common.NewAck(3)

	trialOpts, err := (&common.CodecConfig{VersionPolicy: "trial"}).ResolverOptions()
	require.NoError(t, err)
	trial := NewFormatterSerializer(trialOpts...)
	untagged, err := trial.Serialize(msg)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xdc, 0x00, 0x09}, untagged[:3])

	tagged, err := NewFormatterSerializer().Serialize(msg)
	require.NoError(t, err)
	assert.Equal(t, append([]byte{0xcc, 0x01}, untagged...), tagged)

	var result common.Message
	require.NoError(t, trial.Deserialize(untagged, &result))
	assert.Equal(t, msg, result)
}

// TestInvalidFormatterData tests how the formatter serializer handles corrupt
// or invalid data
func TestInvalidFormatterData(t *testing.T) {
	serializer := NewFormatterSerializer()
	valid, err := serializer.Serialize(testMessages()[4])
	require.NoError(t, err)

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{name: "Empty data", data: []byte{}, expectError: true},
		{name: "Nil payload decodes to zero message", data: []byte{0xc0}, expectError: false},
		{name: "Wrong field count", data: []byte{0xcc, 0x01, 0xdc, 0x00, 0x02, 0xcc, 0x01, 0xcc, 0x01}, expectError: true},
		{name: "Unknown version", data: append([]byte{0xcc, 0x05}, valid[2:]...), expectError: true},
		{name: "Missing version marker", data: valid[2:], expectError: true},
		{name: "Truncated", data: valid[:len(valid)-3], expectError: true},
		{name: "Trailing bytes", data: append(append([]byte{}, valid...), 0xc0), expectError: true},
		{name: "Valid", data: valid, expectError: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
