package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dCodec/cmd/convert"
	"github.com/ValentinKolb/dCodec/cmd/inspect"
	"github.com/ValentinKolb/dCodec/cmd/perf"
	"github.com/ValentinKolb/dCodec/cmd/tags"
	"github.com/ValentinKolb/dCodec/cmd/util"
	"github.com/ValentinKolb/dCodec/rpc/common"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dcodec",
		Short: "pluggable binary serialization toolkit",
		Long: fmt.Sprintf(`dCodec (v%s)

Tools for the dCodec binary format: inspect encoded payloads, convert
messages between formats, print the tag table and benchmark the
formatter engine against CBOR, JSON and gob.

Every flag can also be set as an environment variable DCODEC_<FLAG>
(e.g. DCODEC_SORTED_MAP_KEYS=true), or in a .env / .env.local file.`, Version),
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dCodec",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dCodec v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(tags.TagsCmd)
	RootCmd.AddCommand(inspect.InspectCmd)
	RootCmd.AddCommand(convert.ConvertCmd)
	RootCmd.AddCommand(perf.PerfCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
	key = "tags"
	RootCmd.PersistentFlags().String(key, "", util.WrapString("Overrides of the default tag table as comma-separated NAME=VALUE pairs (e.g. nil=0xc1,array16=0x90)"))
	key = "sorted-map-keys"
	RootCmd.PersistentFlags().Bool(key, false, util.WrapString("Write map entries ordered by key, which makes the encoding of maps deterministic"))
	key = "version-policy"
	RootCmd.PersistentFlags().String(key, "tagged", util.WrapString("How versioned types mark their schema version (tagged, trial)"))
	key = "compression"
	RootCmd.PersistentFlags().String(key, "none", util.WrapString("Compression applied to serialized messages (none, zstd, lz4)"))
}

// setup binds the flags of the command being run and configures logging
func setup(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	return common.InitLoggers(util.GetCodecConfig().LogLevel)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
