// Package util provides the measurement helpers used by the perf tooling.
//
// The package contains:
//   - stats: Summary statistics (mean, deviation, min/max) of a series
//   - histogram: SizeHistogram, an exponential histogram of payload sizes
//   - mpsc: MPSC, a lock-free multi-producer single-consumer queue used to
//     collect samples from concurrent benchmark workers on one goroutine
package util
