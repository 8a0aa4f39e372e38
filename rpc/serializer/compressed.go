package serializer

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ValentinKolb/dCodec/rpc/common"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how the body of a compressed payload is stored. It
// is the first byte of every payload written by a compressed serializer.
type Compression byte

const (
	CompressionNone Compression = 0
	CompressionZstd Compression = 1
	CompressionLZ4  Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", byte(c))
	}
}

// ParseCompression parses the name of a compression algorithm
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return CompressionNone, fmt.Errorf("unknown compression: %s. must be one of none, zstd, lz4", name)
	}
}

const (
	// payloads shorter than this are always stored
	minCompressSize = 64
	// upper bound for the declared size of a compressed body
	maxDecompressedSize = 64 << 20
)

var errIncompressible = errors.New("incompressible")

// zstd.Encoder and zstd.Decoder are safe for concurrent use through
// EncodeAll and DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("serializer: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecompressedSize))
	if err != nil {
		panic("serializer: zstd decoder initialization failed: " + err.Error())
	}
}

// NewCompressedSerializer wraps inner and compresses its output with algo.
//
// Payload layout: one Compression byte, the uncompressed length as uvarint,
// then the body. Payloads that are short or do not shrink are stored with
// CompressionNone, so Deserialize accepts output of any algorithm.
func NewCompressedSerializer(inner IRPCSerializer, algo Compression) IRPCSerializer {
	return &compressedSerializerImpl{inner: inner, algo: algo}
}

type compressedSerializerImpl struct {
	inner IRPCSerializer
	algo  Compression
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (c *compressedSerializerImpl) Name() string {
	return c.inner.Name() + "+" + c.algo.String()
}

func (c *compressedSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	raw, err := c.inner.Serialize(msg)
	if err != nil {
		return nil, err
	}

	tag := c.algo
	body, err := compress(tag, raw)
	if errors.Is(err, errIncompressible) {
		tag, body = CompressionNone, raw
	} else if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 1+binary.MaxVarintLen64+len(body))
	out = append(out, byte(tag))
	out = binary.AppendUvarint(out, uint64(len(raw)))
	return append(out, body...), nil
}

func (c *compressedSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	if len(b) < 2 {
		return fmt.Errorf("data too short for compression header")
	}
	tag := Compression(b[0])
	size, n := binary.Uvarint(b[1:])
	if n <= 0 {
		return fmt.Errorf("invalid uncompressed length")
	}
	if size > maxDecompressedSize {
		return fmt.Errorf("uncompressed length %d exceeds limit %d", size, maxDecompressedSize)
	}

	raw, err := decompress(tag, b[1+n:], int(size))
	if err != nil {
		return err
	}
	return c.inner.Deserialize(raw, msg)
}

// --------------------------------------------------------------------------
// Algorithms
// --------------------------------------------------------------------------

func compress(tag Compression, data []byte) ([]byte, error) {
	if tag == CompressionNone || len(data) < minCompressSize {
		return nil, errIncompressible
	}

	var out []byte
	switch tag {
	case CompressionZstd:
		out = zstdEncoder.EncodeAll(data, nil)
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		written, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		// 0 means lz4 found nothing to compress
		if written == 0 {
			return nil, errIncompressible
		}
		out = dst[:written]
	default:
		return nil, fmt.Errorf("unsupported compression: %s", tag)
	}

	if len(out) >= len(data) {
		plog.Debugf("%s did not shrink %d byte payload, storing it", tag, len(data))
		return nil, errIncompressible
	}
	return out, nil
}

func decompress(tag Compression, body []byte, size int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(body) != size {
			return nil, fmt.Errorf("stored body: size %d does not match expected %d", len(body), size)
		}
		return body, nil

	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(body, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(out) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(out), size)
		}
		return out, nil

	case CompressionLZ4:
		out := make([]byte, size)
		read, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported compression: %s", tag)
	}
}
