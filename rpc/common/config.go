package common

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/dCodec/lib/formatter"
	"github.com/ValentinKolb/dCodec/lib/wire"
)

// --------------------------------------------------------------------------
// Codec configuration struct
// --------------------------------------------------------------------------

// CodecConfig holds the resolved configuration of the command line tools.
// The zero value (apart from LogLevel) selects the defaults of every layer.
type CodecConfig struct {
	// Tags overrides single entries of the default tag table, as NAME=VALUE
	// pairs (see wire.ParseOverrides)
	Tags string

	// SortedMapKeys writes map entries ordered by key
	SortedMapKeys bool

	// VersionPolicy is "tagged" (default) or "trial"
	VersionPolicy string

	// Compression is "", "none", "zstd" or "lz4"
	Compression string

	// Logging configuration
	LogLevel string
}

// Table compiles the tag table described by Tags
func (c *CodecConfig) Table() (*wire.Table, error) {
	opts, err := wire.ParseOverrides(c.Tags)
	if err != nil {
		return nil, err
	}
	return wire.NewTable(opts)
}

// Policy returns the version policy named by VersionPolicy
func (c *CodecConfig) Policy() (formatter.VersionPolicy, error) {
	switch strings.ToLower(c.VersionPolicy) {
	case "", "tagged":
		return formatter.TaggedVersions(), nil
	case "trial":
		return formatter.TrialVersions(), nil
	default:
		return nil, fmt.Errorf("invalid version policy: %s. must be one of tagged, trial", c.VersionPolicy)
	}
}

// ResolverOptions converts the configuration into formatter options
func (c *CodecConfig) ResolverOptions() ([]formatter.Option, error) {
	table, err := c.Table()
	if err != nil {
		return nil, fmt.Errorf("tag table: %w", err)
	}
	policy, err := c.Policy()
	if err != nil {
		return nil, err
	}
	return []formatter.Option{
		formatter.WithTable(table),
		formatter.WithVersionPolicy(policy),
		formatter.WithSortedMapKeys(c.SortedMapKeys),
	}, nil
}

// String returns a formatted string representation of the configuration
func (c *CodecConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Wire Format")
	if table, err := c.Table(); err != nil {
		addField("Tag Table", "invalid ("+err.Error()+")")
	} else {
		opts := table.Options()
		addField("Tag Overrides", orDefault(c.Tags, "none"))
		addField("Fingerprint", opts.Fingerprint())
	}
	addField("Sorted Map Keys", fmt.Sprintf("%t", c.SortedMapKeys))
	addField("Version Policy", orDefault(c.VersionPolicy, "tagged"))

	addSection("Transport")
	addField("Compression", orDefault(c.Compression, "none"))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
