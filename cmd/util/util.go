package util

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ValentinKolb/dCodec/rpc/common"
	"github.com/ValentinKolb/dCodec/rpc/serializer"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables, e.g. DCODEC_TAGS
	EnvPrefix = "dcodec"
)

// SerializerNames lists the names accepted by GetSerializer
var SerializerNames = []string{"formatter", "cbor", "json", "gob"}

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var lines []string
	var line strings.Builder

	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > Wrap {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// InitConfig loads .env files and binds environment variables to viper
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags (including inherited ones) to viper
func BindCommandFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.InheritedFlags()); err != nil {
		return err
	}
	return viper.BindPFlags(cmd.Flags())
}

// GetCodecConfig reads the codec configuration from viper
func GetCodecConfig() *common.CodecConfig {
	return &common.CodecConfig{
		Tags:          viper.GetString("tags"),
		SortedMapKeys: viper.GetBool("sorted-map-keys"),
		VersionPolicy: viper.GetString("version-policy"),
		Compression:   viper.GetString("compression"),
		LogLevel:      viper.GetString("log-level"),
	}
}

// GetSerializer creates the serializer called name, configured by conf and
// wrapped in the configured compression
func GetSerializer(name string, conf *common.CodecConfig) (serializer.IRPCSerializer, error) {
	var s serializer.IRPCSerializer
	switch name {
	case "formatter":
		opts, err := conf.ResolverOptions()
		if err != nil {
			return nil, err
		}
		s = serializer.NewFormatterSerializer(opts...)
	case "cbor":
		s = serializer.NewCBORSerializer()
	case "json":
		s = serializer.NewJSONSerializer()
	case "gob":
		s = serializer.NewGOBSerializer()
	default:
		return nil, fmt.Errorf("invalid serializer %s. must be one of %s", name, strings.Join(SerializerNames, ", "))
	}

	algo, err := serializer.ParseCompression(conf.Compression)
	if err != nil {
		return nil, err
	}
	if algo != serializer.CompressionNone {
		s = serializer.NewCompressedSerializer(s, algo)
	}
	return s, nil
}

// ReadInput reads the file named by args[0], or stdin if there is none or it
// is "-". With hexInput the content is hex text (whitespace is ignored).
func ReadInput(args []string, stdin io.Reader, hexInput bool) ([]byte, error) {
	var data []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, err
	}
	if !hexInput {
		return data, nil
	}

	decoded, err := hex.DecodeString(strings.Join(strings.Fields(string(data)), ""))
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return decoded, nil
}
