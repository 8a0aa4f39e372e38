package serializer

import (
	"github.com/ValentinKolb/dCodec/lib/formatter"
	"github.com/ValentinKolb/dCodec/rpc/common"
)

// NewFormatterSerializer creates a serializer backed by the formatter package.
// The resolver works over the versioned Message registrations of common and
// builds the Message formatter once, here. opts configure the resolver (tag
// table, version policy, map ordering, pool).
func NewFormatterSerializer(opts ...formatter.Option) IRPCSerializer {
	r := formatter.NewResolver(common.NewStore(), opts...)
	formatter.MustGetFormatter[common.Message](r)
	return &formatterSerializerImpl{r: r}
}

// formatterSerializerImpl implements IRPCSerializer with the versioned
// Message formatter. Fields are written positionally, so the payload holds no
// field names.
type formatterSerializerImpl struct {
	r *formatter.Resolver
}

// Resolver returns the resolver the serializer encodes with
func (s *formatterSerializerImpl) Resolver() *formatter.Resolver {
	return s.r
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (s *formatterSerializerImpl) Name() string { return "formatter" }

func (s *formatterSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	return formatter.Marshal(s.r, msg)
}

func (s *formatterSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	m, err := formatter.Unmarshal[common.Message](s.r, b)
	if err != nil {
		return err
	}
	*msg = m
	return nil
}
