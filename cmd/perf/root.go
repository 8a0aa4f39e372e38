package perf

import (
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/dCodec/cmd/util"
	"github.com/ValentinKolb/dCodec/rpc/common"
	"github.com/ValentinKolb/dCodec/rpc/serializer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// PerfCmd benchmarks the serializers against each other
	PerfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Benchmark all serializers on a fixed set of messages",
		Long:    util.WrapString(`Serialize and deserialize the sample messages with every selected serializer in parallel and report throughput, sampled latency percentiles and payload sizes. Compression settings apply to every serializer.`),
		Args:    cobra.NoArgs,
		PreRunE: processPerfConfig,
		RunE:    run,
	}
	perfSerializers = util.SerializerNames
	perfNumThreads  = 4
	perfSampleEvery = 64
	perfSkip        = make([]string, 0)
)

func init() {
	key := "serializers"
	PerfCmd.Flags().String(key, strings.Join(util.SerializerNames, ","), util.WrapString("Serializers to benchmark (comma separated)"))
	key = "skip"
	PerfCmd.Flags().String(key, "", util.WrapString("Operations to skip (comma separated - serialize, deserialize)"))
	key = "threads"
	PerfCmd.Flags().Int(key, 4, util.WrapString("Number of goroutines per CPU used by the benchmark"))
	key = "sample-every"
	PerfCmd.Flags().Int(key, 64, util.WrapString("Record latency and size of every n-th operation"))
	key = "csv"
	PerfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
	key = "metrics"
	PerfCmd.Flags().Bool(key, false, util.WrapString("Print the resolver counters of the formatter serializer after the run"))
}

func processPerfConfig(_ *cobra.Command, _ []string) error {
	perfSerializers = splitList(viper.GetString("serializers"))
	perfSkip = splitList(viper.GetString("skip"))
	perfNumThreads = max(1, viper.GetInt("threads"))
	perfSampleEvery = max(1, viper.GetInt("sample-every"))
	return nil
}

func run(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	conf := util.GetCodecConfig()

	fmt.Fprintln(w, "Performance testing tool for dCodec serializers")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprint(w, conf.String())
	fmt.Fprintf(w, "\nThreads: %d per CPU, sampling every %d ops\n\n", perfNumThreads, perfSampleEvery)

	serializers := make([]serializer.IRPCSerializer, 0, len(perfSerializers))
	for _, name := range perfSerializers {
		s, err := util.GetSerializer(name, conf)
		if err != nil {
			return err
		}
		serializers = append(serializers, s)
	}

	messages := common.SampleMessages(time.Now().UTC())
	names := slices.Sorted(maps.Keys(messages))
	workload := make([]common.Message, len(names))
	for i, name := range names {
		workload[i] = messages[name]
	}

	rec := newRecorder()
	var results []result
	for _, s := range serializers {
		for _, op := range []string{"serialize", "deserialize"} {
			if slices.Contains(perfSkip, op) {
				continue
			}
			res, err := benchmark(s, op, workload, rec)
			if err != nil {
				return err
			}
			results = append(results, res)
			printResult(w, res)
		}
	}
	rec.close()

	fmt.Fprintln(w)
	printSummary(w, serializers, rec, workload)

	if viper.GetBool("metrics") {
		for _, s := range serializers {
			if r, ok := resolverOf(s); ok {
				fmt.Fprintf(w, "\nResolver metrics (%s):\n", s.Name())
				r.WriteMetrics(w)
			}
		}
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Fprintf(w, "\nExporting results to CSV: %s\n", csvPath)
		file, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("failed to create CSV file: %w", err)
		}
		defer file.Close()
		if err := writeResultsToCSV(file, results, rec, conf); err != nil {
			return fmt.Errorf("failed to export results to CSV: %w", err)
		}
		fmt.Fprintln(w, "Export complete")
	}
	return nil
}

// benchmark runs one operation of s over the workload in parallel
func benchmark(s serializer.IRPCSerializer, op string, workload []common.Message, rec *recorder) (result, error) {
	encoded := make([][]byte, len(workload))
	for i, msg := range workload {
		data, err := s.Serialize(msg)
		if err != nil {
			return result{}, fmt.Errorf("%s: %w", s.Name(), err)
		}
		encoded[i] = data
	}

	var (
		failed     error
		failedOnce sync.Once
	)
	bench := testing.Benchmark(func(b *testing.B) {
		b.ReportAllocs()
		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				i := counter % len(workload)
				sampled := counter%perfSampleEvery == 0
				counter++

				var start time.Time
				if sampled {
					start = time.Now()
				}

				var size int
				var err error
				if op == "serialize" {
					var data []byte
					data, err = s.Serialize(workload[i])
					size = len(data)
				} else {
					var msg common.Message
					err = s.Deserialize(encoded[i], &msg)
					size = len(encoded[i])
				}
				if err != nil {
					failedOnce.Do(func() { failed = err })
					return
				}
				if sampled {
					rec.push(sample{serializer: s.Name(), op: op, latency: time.Since(start), size: size})
				}
			}
		})
	})
	if failed != nil {
		return result{}, fmt.Errorf("%s %s: %w", s.Name(), op, failed)
	}
	return result{serializer: s.Name(), op: op, bench: bench}, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(w io.Writer, res result) {
	nsPerOp := math.Max(float64(res.bench.NsPerOp()), 1)
	opsPerSec := 1.0 / (nsPerOp / 1e9)
	fmt.Fprintf(w, "%-28s%8.0fns/op (%s/op)\t%10.0f ops/sec\t%4d allocs/op\n",
		res.serializer+" "+res.op, nsPerOp, time.Duration(nsPerOp), opsPerSec, res.bench.AllocsPerOp())
}
