package convert

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/ValentinKolb/dCodec/cmd/util"
	"github.com/ValentinKolb/dCodec/rpc/common"
	"github.com/ValentinKolb/dCodec/rpc/serializer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConvertCmd re-encodes a message in another serializer's format
var ConvertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Convert a message between serializer formats",
	Long: util.WrapString(`Read one message (from a file, or stdin if no file or
- is given) in the --from format and write it in the --to format. Compression
settings apply to both sides. Example: echo '{"msg_type":"ping"}' | dcodec convert
--from json --to formatter --hex-out`),
	Args: cobra.MaximumNArgs(1),
	RunE: run,
}

func init() {
	key := "from"
	ConvertCmd.Flags().String(key, "json", util.WrapString("Format of the input (formatter, cbor, json, gob)"))
	key = "to"
	ConvertCmd.Flags().String(key, "formatter", util.WrapString("Format of the output (formatter, cbor, json, gob)"))
	key = "hex"
	ConvertCmd.Flags().Bool(key, false, util.WrapString("The input is hex text instead of raw bytes"))
	key = "hex-out"
	ConvertCmd.Flags().Bool(key, false, util.WrapString("Write the output as hex text"))
}

func run(cmd *cobra.Command, args []string) error {
	conf := util.GetCodecConfig()
	from, err := util.GetSerializer(viper.GetString("from"), conf)
	if err != nil {
		return err
	}
	to, err := util.GetSerializer(viper.GetString("to"), conf)
	if err != nil {
		return err
	}

	data, err := util.ReadInput(args, cmd.InOrStdin(), viper.GetBool("hex"))
	if err != nil {
		return err
	}
	return convert(cmd.OutOrStdout(), data, from, to, viper.GetBool("hex-out"))
}

func convert(w io.Writer, data []byte, from, to serializer.IRPCSerializer, hexOut bool) error {
	var msg common.Message
	if err := from.Deserialize(data, &msg); err != nil {
		return fmt.Errorf("read %s: %w", from.Name(), err)
	}
	out, err := to.Serialize(msg)
	if err != nil {
		return fmt.Errorf("write %s: %w", to.Name(), err)
	}

	if hexOut {
		_, err = fmt.Fprintln(w, hex.EncodeToString(out))
		return err
	}
	_, err = w.Write(out)
	return err
}
