package perf

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/ValentinKolb/dCodec/lib/formatter"
	"github.com/ValentinKolb/dCodec/lib/util"
	"github.com/ValentinKolb/dCodec/rpc/common"
	"github.com/ValentinKolb/dCodec/rpc/serializer"
	gometrics "github.com/rcrowley/go-metrics"
)

// sample is one measured operation
type sample struct {
	serializer string
	op         string
	latency    time.Duration
	size       int
}

// result is the outcome of one benchmark run
type result struct {
	serializer string
	op         string
	bench      testing.BenchmarkResult
}

// recorder collects samples from the benchmark goroutines. Workers push into
// a lock-free queue; one goroutine owns the timers and histograms.
type recorder struct {
	queue      *util.MPSC[sample]
	registry   gometrics.Registry
	histograms map[string]*util.SizeHistogram
	done       chan struct{}
}

func newRecorder() *recorder {
	r := &recorder{
		queue:      util.NewMPSC[sample](),
		registry:   gometrics.NewRegistry(),
		histograms: make(map[string]*util.SizeHistogram),
		done:       make(chan struct{}),
	}
	go r.consume()
	return r
}

func (r *recorder) push(s sample) {
	r.queue.Push(s)
}

func (r *recorder) consume() {
	defer close(r.done)
	for s := range r.queue.Recv() {
		gometrics.GetOrRegisterTimer(timerName(s.serializer, s.op), r.registry).Update(s.latency)

		h, ok := r.histograms[s.serializer]
		if !ok {
			h = util.NewSizeHistogram()
			r.histograms[s.serializer] = h
		}
		h.AddSample(s.size)
	}
}

// close waits until every pushed sample has been recorded. The recorder must
// not be used for pushing afterwards.
func (r *recorder) close() {
	r.queue.Close()
	<-r.done
}

// timer returns the latency timer of one serializer and operation
func (r *recorder) timer(serializerName, op string) gometrics.Timer {
	return gometrics.GetOrRegisterTimer(timerName(serializerName, op), r.registry)
}

func (r *recorder) histogram(serializerName string) *util.SizeHistogram {
	if h, ok := r.histograms[serializerName]; ok {
		return h
	}
	return util.NewSizeHistogram()
}

func timerName(serializerName, op string) string {
	return serializerName + "." + op
}

// --------------------------------------------------------------------------
// Reporting
// --------------------------------------------------------------------------

// printSummary prints sampled latencies and the exact payload sizes of the
// workload for every serializer
func printSummary(w io.Writer, serializers []serializer.IRPCSerializer, rec *recorder, workload []common.Message) {
	fmt.Fprintf(w, "%-20s %10s %10s %10s %10s %10s %8s\n",
		"SERIALIZER", "SER p50", "SER p99", "DES p50", "DES p99", "AVG SIZE", "CV SIZE")

	for _, s := range serializers {
		sizes := make([]float64, 0, len(workload))
		for _, msg := range workload {
			if data, err := s.Serialize(msg); err == nil {
				sizes = append(sizes, float64(len(data)))
			}
		}
		stats := util.NewStats(sizes)

		ser := rec.timer(s.Name(), "serialize")
		des := rec.timer(s.Name(), "deserialize")
		fmt.Fprintf(w, "%-20s %10s %10s %10s %10s %10.0f %8.2f\n",
			s.Name(),
			percentile(ser, 0.5), percentile(ser, 0.99),
			percentile(des, 0.5), percentile(des, 0.99),
			stats.Mean, stats.CoefficientOfVariation())
	}
}

func percentile(t gometrics.Timer, p float64) time.Duration {
	if t.Count() == 0 {
		return 0
	}
	return time.Duration(t.Percentile(p))
}

// resolverOf returns the resolver behind a formatter serializer
func resolverOf(s serializer.IRPCSerializer) (*formatter.Resolver, bool) {
	rs, ok := s.(interface{ Resolver() *formatter.Resolver })
	if !ok {
		return nil, false
	}
	return rs.Resolver(), true
}

// writeResultsToCSV writes benchmark results as CSV
func writeResultsToCSV(out io.Writer, results []result, rec *recorder, conf *common.CodecConfig) error {
	writer := csv.NewWriter(out)

	header := []string{
		"Serializer", "Operation", "NsPerOp", "DurationPerOp", "OpsPerSec", "AllocsPerOp", "BytesPerOp",
		"SampledP50Ns", "SampledP99Ns", "MedianSizeEstimate", "MaxSize",
		"Compression", "SortedMapKeys", "TagFingerprint", "Threads",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	fingerprint := ""
	if table, err := conf.Table(); err == nil {
		fingerprint = table.Options().Fingerprint()
	}

	for _, res := range results {
		nsPerOp := math.Max(float64(res.bench.NsPerOp()), 1)
		timer := rec.timer(res.serializer, res.op)
		hist := rec.histogram(res.serializer)

		row := []string{
			res.serializer,
			res.op,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", 1.0/(nsPerOp/1e9)),
			strconv.FormatInt(res.bench.AllocsPerOp(), 10),
			strconv.FormatInt(res.bench.AllocedBytesPerOp(), 10),
			strconv.FormatInt(int64(percentile(timer, 0.5)), 10),
			strconv.FormatInt(int64(percentile(timer, 0.99)), 10),
			strconv.Itoa(hist.MedianEstimate()),
			strconv.Itoa(hist.MaxSize()),
			conf.Compression,
			strconv.FormatBool(conf.SortedMapKeys),
			fingerprint,
			strconv.Itoa(perfNumThreads),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for %s %s: %w", res.serializer, res.op, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
