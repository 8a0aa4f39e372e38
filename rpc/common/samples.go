package common

import (
	"bytes"
	"time"
)

// SampleMessages returns a fixed set of messages of increasing size, keyed by
// name. They are the workload of the benchmarks and of `dcodec perf`.
func SampleMessages(sentAt time.Time) map[string]Message {
	return map[string]Message{
		"Empty": {
			MsgType: MsgTSuccess,
		},
		"Ack": {
			MsgType: MsgTAck,
			ID:      42,
			Ok:      true,
		},
		"SmallPublish": {
			MsgType: MsgTPublish,
			ID:      1,
			Topic:   "t",
			Payload: []byte("v"),
			SentAt:  sentAt,
		},
		"MediumPublish": {
			MsgType: MsgTPublish,
			ID:      1 << 20,
			Topic:   "orders/eu-west/created",
			Headers: map[string]string{"content-type": "application/octet-stream"},
			Payload: []byte("medium length value for testing serialization"),
			SentAt:  sentAt,
			TTL:     time.Minute,
		},
		"LargePublish": {
			MsgType: MsgTPublish,
			ID:      1 << 40,
			Topic:   "orders/eu-west/created",
			Headers: map[string]string{
				"content-type": "application/octet-stream",
				"trace-id":     "4bf92f3577b34da6a3ce929d0e0e4736",
				"span-id":      "00f067aa0ba902b7",
			},
			Payload: bytes.Repeat([]byte("0123456789abcdef"), 64), // 1KB
			SentAt:  sentAt,
			TTL:     time.Hour,
		},
		"VeryLargePublish": {
			MsgType: MsgTPublish,
			ID:      1 << 60,
			Topic:   "blobs",
			Payload: make([]byte, 1024*16), // 16KB
			SentAt:  sentAt,
		},
		"ErrorMessage": {
			MsgType: MsgTError,
			Err:     "Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
		},
	}
}
