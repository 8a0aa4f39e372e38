package serializer

import (
	"github.com/ValentinKolb/dCodec/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger("serializer")

// IRPCSerializer is the interface for all Message Serializers
type IRPCSerializer interface {
	// Name identifies the format, e.g. in benchmark output
	Name() string
	// Serialize serializes a Message into a byte array
	// It returns the serialized byte array and an error if any
	Serialize(msg common.Message) ([]byte, error)
	// Deserialize deserializes a byte array into a Message
	// It takes a byte array and a pointer to a Message as parameters
	// It returns an error if any
	Deserialize(b []byte, msg *common.Message) error
}
