package tags

import (
	"fmt"
	"io"

	"github.com/ValentinKolb/dCodec/cmd/util"
	"github.com/ValentinKolb/dCodec/lib/wire"
	"github.com/spf13/cobra"
)

// TagsCmd prints the tag table selected by --tags
var TagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Print the effective tag table and its fingerprint",
	Long: util.WrapString(`Print the byte assigned to every tag kind. Two sides
can exchange payloads if their fingerprints match.`),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		table, err := util.GetCodecConfig().Table()
		if err != nil {
			return err
		}
		printTable(cmd.OutOrStdout(), table)
		return nil
	},
}

func printTable(w io.Writer, table *wire.Table) {
	opts := table.Options()
	def := wire.DefaultOptions()

	fmt.Fprintf(w, "%-10s %-6s %s\n", "KIND", "TAG", "DEFAULT")
	for _, k := range wire.Kinds() {
		marker := ""
		if opts.Tag(k) != def.Tag(k) {
			marker = fmt.Sprintf("(0x%02x)", def.Tag(k))
		}
		fmt.Fprintf(w, "%-10s 0x%02x   %s\n", k, opts.Tag(k), marker)
	}
	fmt.Fprintf(w, "\nfingerprint: %s\n", opts.Fingerprint())
}
