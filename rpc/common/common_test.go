package common

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ValentinKolb/dCodec/lib/formatter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageTypeNames(t *testing.T) {
	for mt := MsgTSuccess; mt <= MsgTNack; mt++ {
		parsed, err := ParseMessageType(mt.String())
		require.NoError(t, err)
		assert.Equal(t, mt, parsed)
	}
	assert.Equal(t, "unknown", MessageType(200).String())

	_, err := ParseMessageType("unknown")
	assert.Error(t, err)
}

func TestMessageTypeJSON(t *testing.T) {
	data, err := json.Marshal(NewAck(3))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg_type":"ack"`)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MsgTAck, msg.MsgType)

	assert.Error(t, json.Unmarshal([]byte(`{"msg_type":"bogus"}`), &msg))
}

func TestFactories(t *testing.T) {
	pub := NewPublish(1, "topic", []byte("x"), map[string]string{"k": "v"})
	assert.Equal(t, MsgTPublish, pub.MsgType)
	assert.False(t, pub.SentAt.IsZero())

	nack := NewNack(9, errors.New("full"))
	assert.Equal(t, "full", nack.Err)
	assert.False(t, nack.Ok)

	fetch := NewFetchResponse(2, nil, false, nil)
	assert.Empty(t, fetch.Err)

	assert.Equal(t, "boom", NewErrorResponse(errors.New("boom")).Err)
	assert.Equal(t, MsgTSubscribe, NewSubscribe(4, "t").MsgType)
}

func TestExpired(t *testing.T) {
	now := time.Unix(1000, 0)
	msg := Message{SentAt: now.Add(-time.Minute), TTL: 30 * time.Second}
	assert.True(t, msg.Expired(now))

	msg.TTL = 0
	assert.False(t, msg.Expired(now), "no ttl")

	msg = Message{TTL: time.Second}
	assert.False(t, msg.Expired(now), "unsent")
}

func TestSampleMessagesRoundTrip(t *testing.T) {
	for _, policy := range []formatter.VersionPolicy{formatter.TaggedVersions(), formatter.TrialVersions()} {
		t.Run(policy.Name(), func(t *testing.T) {
			r := formatter.NewResolver(NewStore(), formatter.WithVersionPolicy(policy))
			for name, msg := range SampleMessages(time.Unix(1700000000, 0).UTC()) {
				data, err := formatter.Marshal(r, msg)
				require.NoError(t, err, name)
				got, err := formatter.Unmarshal[Message](r, data)
				require.NoError(t, err, name)
				assert.Equal(t, msg, got, name)
			}

			batch := Batch{Messages: []Message{*NewAck(1), *NewNack(2, errors.New("x"))}}
			data, err := formatter.Marshal(r, batch)
			require.NoError(t, err)
			got, err := formatter.Unmarshal[Batch](r, data)
			require.NoError(t, err)
			assert.Equal(t, batch, got)
		})
	}
}

func TestMessageVersionsRegistered(t *testing.T) {
	store := NewStore()
	desc, ok := store.Lookup(reflect.TypeFor[Message]())
	require.True(t, ok)
	assert.True(t, desc.Versioned)
	assert.Equal(t, 2, desc.Versions)

	plain := formatter.NewStore()
	require.NoError(t, formatter.AddFormatter[Message](plain, nil))
	assert.ErrorIs(t, RegisterFormatters(plain), formatter.ErrAlreadyRegistered)
}

func TestMessageEncodingFollowsPolicy(t *testing.T) {
	msg := *NewAck(7)

	tagged := formatter.NewResolver(NewStore(), formatter.WithVersionPolicy(formatter.TaggedVersions()))
	data, err := formatter.Marshal(tagged, msg)
	require.NoError(t, err)
	// uint8 marker 1, then the nine fields
	assert.Equal(t, []byte{0xcc, 0x01, 0xdc, 0x00, 0x09}, data[:5])

	trial := formatter.NewResolver(NewStore(), formatter.WithVersionPolicy(formatter.TrialVersions()))
	data, err = formatter.Marshal(trial, msg)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xdc, 0x00, 0x09}, data[:3])
}

func TestLegacyMessageDecodes(t *testing.T) {
	sentAt := time.Unix(1600000000, 0).UTC()
	legacy := messageV0{
		MsgType: MsgTPublish,
		ID:      11,
		Topic:   "orders",
		Payload: []byte("v0"),
		SentAt:  sentAt,
	}
	want := Message{MsgType: MsgTPublish, ID: 11, Topic: "orders", Payload: []byte("v0"), SentAt: sentAt}

	// the old envelope as it was written without a registration
	body, err := formatter.Marshal(formatter.NewResolver(nil), legacy)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xdc, 0x00, 0x07}, body[:3])

	t.Run("tagged", func(t *testing.T) {
		r := formatter.NewResolver(NewStore(), formatter.WithVersionPolicy(formatter.TaggedVersions()))
		got, err := formatter.Unmarshal[Message](r, append([]byte{0xcc, 0x00}, body...))
		require.NoError(t, err)
		assert.Equal(t, want, got)

		_, err = formatter.Unmarshal[Message](r, append([]byte{0xcc, 0x02}, body...))
		assert.ErrorIs(t, err, formatter.ErrUnknownVersion)
	})

	t.Run("trial", func(t *testing.T) {
		r := formatter.NewResolver(NewStore(), formatter.WithVersionPolicy(formatter.TrialVersions()))
		got, err := formatter.Unmarshal[Message](r, body)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestCodecConfig(t *testing.T) {
	cfg := CodecConfig{LogLevel: "info"}
	opts, err := cfg.ResolverOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, "tagged", policy.Name())

	cfg.VersionPolicy = "trial"
	policy, err = cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, "trial", policy.Name())

	cfg.VersionPolicy = "guess"
	_, err = cfg.ResolverOptions()
	assert.Error(t, err)

	cfg = CodecConfig{Tags: "nil=0xc3"} // collides with true
	_, err = cfg.ResolverOptions()
	assert.Error(t, err)
	assert.Contains(t, cfg.String(), "invalid")
}

func TestCodecConfigString(t *testing.T) {
	cfg := CodecConfig{LogLevel: "warn", SortedMapKeys: true}
	out := cfg.String()
	assert.Contains(t, out, "WIRE FORMAT")
	assert.Contains(t, out, "Fingerprint")
	assert.Contains(t, out, "tagged")
	assert.Contains(t, out, "none")
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "warning", "error"} {
		_, err := ParseLogLevel(level)
		assert.NoError(t, err, level)
	}
	_, err := ParseLogLevel("loud")
	assert.Error(t, err)

	assert.Error(t, InitLoggers("loud"))
	assert.NoError(t, InitLoggers("error"))
}
