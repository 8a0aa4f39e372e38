package serializer

import (
	"github.com/ValentinKolb/dCodec/rpc/common"
	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses Core Deterministic Encoding (RFC 8949 §4.2), so the same
// message always produces identical bytes.
var cborEncMode cbor.EncMode

var cborDecMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// the default writes whole seconds
	encOptions.Time = cbor.TimeRFC3339Nano
	cborEncMode, err = encOptions.EncMode()
	if err != nil {
		panic("serializer: CBOR encoder initialization failed: " + err.Error())
	}

	cborDecMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("serializer: CBOR decoder initialization failed: " + err.Error())
	}
}

// NewCBORSerializer creates a new serializer using deterministic CBOR
func NewCBORSerializer() IRPCSerializer {
	return &cborSerializerImpl{}
}

// cborSerializerImpl implements the IRPCSerializer interface using CBOR.
// Field names are part of every payload, as in JSON.
type cborSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (c cborSerializerImpl) Name() string { return "cbor" }

func (c cborSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	return cborEncMode.Marshal(msg)
}

func (c cborSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	*msg = common.Message{}
	return cborDecMode.Unmarshal(b, msg)
}
