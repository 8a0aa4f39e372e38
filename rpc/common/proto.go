package common

import (
	"encoding/json"
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message is the envelope exchanged by producers and consumers of encoded
// payloads. Which fields are used depends on the type of message.
//
// The binary encoding is versioned (see RegisterFormatters): each version is
// synthesized from a struct with the matching field set, in declaration
// order. Adding a field means adding a version.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	ID      uint64            `json:"id,omitempty"`      // Used for: all messages, echoed in Ack and Nack
	Topic   string            `json:"topic,omitempty"`   // Used for: Publish, Subscribe
	Headers map[string]string `json:"headers,omitempty"` // Used for: Publish
	Payload []byte            `json:"payload,omitempty"` // Used for: Publish (request), Fetch (response)

	// Delivery
	SentAt time.Time     `json:"sent_at"`       // Set by the producer
	TTL    time.Duration `json:"ttl,omitempty"` // Zero means no expiry

	// Response only fields
	Ok  bool   `json:"ok,omitempty"`  // Used for: Ack, Fetch responses
	Err string `json:"err,omitempty"` // Empty if no error, otherwise contains the error message
}

// Batch groups messages that travel as one payload
type Batch struct {
	Messages []Message `json:"messages"`
}

// Expired reports whether the message outlived its TTL at now
func (m *Message) Expired(now time.Time) bool {
	return m.TTL > 0 && !m.SentAt.IsZero() && now.Sub(m.SentAt) > m.TTL
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewPublish creates a new Publish request
func NewPublish(id uint64, topic string, payload []byte, headers map[string]string) *Message {
	return &Message{
		MsgType: MsgTPublish,
		ID:      id,
		Topic:   topic,
		Headers: headers,
		Payload: payload,
		SentAt:  time.Now().UTC(),
	}
}

// NewSubscribe creates a new Subscribe request
func NewSubscribe(id uint64, topic string) *Message {
	return &Message{
		MsgType: MsgTSubscribe,
		ID:      id,
		Topic:   topic,
	}
}

// NewFetchResponse creates the response to a Fetch request
func NewFetchResponse(id uint64, payload []byte, ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTFetch,
		ID:      id,
		Payload: payload,
		Ok:      ok,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewAck acknowledges message id
func NewAck(id uint64) *Message {
	return &Message{
		MsgType: MsgTAck,
		ID:      id,
		Ok:      true,
	}
}

// NewNack rejects message id with err
func NewNack(id uint64, err error) *Message {
	msg := &Message{
		MsgType: MsgTNack,
		ID:      id,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err error) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err.Error(),
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message.
type MessageType uint8

const (
	MsgTUnknown MessageType = iota
	MsgTSuccess
	MsgTError
	MsgTPing
	MsgTPublish
	MsgTSubscribe
	MsgTFetch
	MsgTAck
	MsgTNack
)

var messageTypeNames = map[MessageType]string{
	MsgTSuccess:   "success",
	MsgTError:     "error",
	MsgTPing:      "ping",
	MsgTPublish:   "publish",
	MsgTSubscribe: "subscribe",
	MsgTFetch:     "fetch",
	MsgTAck:       "ack",
	MsgTNack:      "nack",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseMessageType is the inverse of MessageType.String
func ParseMessageType(s string) (MessageType, error) {
	for t, name := range messageTypeNames {
		if name == s {
			return t, nil
		}
	}
	return MsgTUnknown, fmt.Errorf("unknown message type: %s", s)
}

// MarshalJSON implements the json.Marshaler interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMessageType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
