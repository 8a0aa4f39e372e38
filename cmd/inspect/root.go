package inspect

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ValentinKolb/dCodec/cmd/util"
	"github.com/ValentinKolb/dCodec/lib/wire"
	"github.com/fxamacker/cbor/v2"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var plog = logger.GetLogger("cmd")

// InspectCmd decodes payloads without knowing their type
var InspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Decode a payload into a readable tree",
	Long: util.WrapString(`Decode every value in the input (a file, or stdin if
no file or - is given) with the configured tag table and print it as a tree.
Objects show up as arrays of their fields in declaration order, dictionaries as
arrays of alternating keys and values.`),
	Args: cobra.MaximumNArgs(1),
	RunE: run,
}

func init() {
	key := "hex"
	InspectCmd.Flags().Bool(key, false, util.WrapString("The input is hex text instead of raw bytes"))
	key = "cbor"
	InspectCmd.Flags().Bool(key, false, util.WrapString("Print each value in CBOR diagnostic notation instead of as a tree"))
}

func run(cmd *cobra.Command, args []string) error {
	table, err := util.GetCodecConfig().Table()
	if err != nil {
		return err
	}
	data, err := util.ReadInput(args, cmd.InOrStdin(), viper.GetBool("hex"))
	if err != nil {
		return err
	}
	return inspect(cmd.OutOrStdout(), data, table, viper.GetBool("cbor"))
}

// inspect decodes and prints values until data is exhausted
func inspect(w io.Writer, data []byte, table *wire.Table, diagnostic bool) error {
	total := len(data)
	for i := 0; len(data) > 0; i++ {
		offset := total - len(data)
		tree, rest, err := wire.Decode(data, table)
		if err != nil {
			return fmt.Errorf("value %d at offset %d: %w", i, offset, err)
		}
		plog.Debugf("value %d: %d bytes at offset %d", i, len(data)-len(rest), offset)
		data = rest

		fmt.Fprintf(w, "# value %d (offset %d)\n", i, offset)
		if diagnostic {
			notation, err := diagnose(tree)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, notation)
			continue
		}
		printTree(w, tree, 0)
	}
	return nil
}

// diagnose renders tree in CBOR diagnostic notation (RFC 8949 §8)
func diagnose(tree any) (string, error) {
	encoded, err := cbor.Marshal(tree)
	if err != nil {
		return "", fmt.Errorf("cbor encode: %w", err)
	}
	return cbor.Diagnose(encoded)
}

func printTree(w io.Writer, v any, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v := v.(type) {
	case nil:
		fmt.Fprintf(w, "%snil\n", indent)
	case []any:
		fmt.Fprintf(w, "%sarray(%d)\n", indent, len(v))
		for _, e := range v {
			printTree(w, e, depth+1)
		}
	case string:
		fmt.Fprintf(w, "%sstr %s\n", indent, strconv.Quote(v))
	case int64:
		fmt.Fprintf(w, "%sint %d\n", indent, v)
	case uint64:
		fmt.Fprintf(w, "%suint %d\n", indent, v)
	case float32:
		fmt.Fprintf(w, "%sfloat32 %g\n", indent, v)
	case float64:
		fmt.Fprintf(w, "%sfloat64 %g\n", indent, v)
	case bool:
		fmt.Fprintf(w, "%s%t\n", indent, v)
	default:
		fmt.Fprintf(w, "%s%v\n", indent, v)
	}
}
