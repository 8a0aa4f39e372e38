package common

import (
	"time"

	"github.com/ValentinKolb/dCodec/lib/formatter"
)

// --------------------------------------------------------------------------
// Message Schema Versions
// --------------------------------------------------------------------------

// messageV0 is the envelope before Headers and TTL were added
type messageV0 struct {
	MsgType MessageType
	ID      uint64
	Topic   string
	Payload []byte
	SentAt  time.Time
	Ok      bool
	Err     string
}

// messageV1 has the field set of Message without its methods, so the
// resolver synthesizes it instead of finding the versioned registration
type messageV1 Message

// RegisterFormatters adds the schema versions of Message to s. Version 0
// payloads decode with empty Headers and no TTL; encoding always writes
// version 1.
func RegisterFormatters(s *formatter.Store) error {
	err := formatter.AddVersion(s, func(b *formatter.Builder) (formatter.Formatter[Message], error) {
		f, err := formatter.Sub[messageV0](b)
		if err != nil {
			return nil, err
		}
		return formatter.Convert(f, toMessageV0, fromMessageV0), nil
	})
	if err != nil {
		return err
	}
	return formatter.AddVersion(s, func(b *formatter.Builder) (formatter.Formatter[Message], error) {
		f, err := formatter.Sub[messageV1](b)
		if err != nil {
			return nil, err
		}
		return formatter.Convert(f,
			func(m Message) messageV1 { return messageV1(m) },
			func(m messageV1) Message { return Message(m) },
		), nil
	})
}

// NewStore returns a store holding every registration of this package
func NewStore() *formatter.Store {
	s := formatter.NewStore()
	if err := RegisterFormatters(s); err != nil {
		// a fresh store has no conflicting registrations
		panic(err)
	}
	return s
}

func toMessageV0(m Message) messageV0 {
	return messageV0{
		MsgType: m.MsgType,
		ID:      m.ID,
		Topic:   m.Topic,
		Payload: m.Payload,
		SentAt:  m.SentAt,
		Ok:      m.Ok,
		Err:     m.Err,
	}
}

func fromMessageV0(m messageV0) Message {
	return Message{
		MsgType: m.MsgType,
		ID:      m.ID,
		Topic:   m.Topic,
		Payload: m.Payload,
		SentAt:  m.SentAt,
		Ok:      m.Ok,
		Err:     m.Err,
	}
}
