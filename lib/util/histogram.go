package util

import (
	"math"
	"sort"
	"sync"
)

// ----------------------------------------------------------------------------
// SizeHistogram
// ----------------------------------------------------------------------------

// Bucket is one bucket of a SizeHistogram. UpperBound is inclusive; the last
// bucket has no upper bound and reports math.MaxInt.
type Bucket struct {
	UpperBound int
	Count      int64
}

// SizeHistogram tracks the distribution of payload sizes in exponential
// buckets from 16 bytes to 4 GiB (each bound four times the previous one),
// plus one bucket for everything larger.
//
// All methods are safe for concurrent use.
type SizeHistogram struct {
	mutex      sync.RWMutex
	boundaries []int
	buckets    []int64
	count      int64
	sum        int64
	max        int
}

// NewSizeHistogram creates an empty histogram
func NewSizeHistogram() *SizeHistogram {
	var boundaries []int
	for b := 16; b <= 1<<32; b *= 4 {
		boundaries = append(boundaries, b)
	}
	return &SizeHistogram{
		boundaries: boundaries,
		buckets:    make([]int64, len(boundaries)+1),
	}
}

// AddSample records one payload size
func (h *SizeHistogram) AddSample(size int) {
	i := sort.SearchInts(h.boundaries, size)

	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.buckets[i]++
	h.count++
	h.sum += int64(size)
	h.max = max(h.max, size)
}

// Count returns the number of samples
func (h *SizeHistogram) Count() int64 {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.count
}

// AverageSize returns the mean size across all samples
func (h *SizeHistogram) AverageSize() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	if h.count == 0 {
		return 0
	}
	return int(h.sum / h.count)
}

// MaxSize returns the largest sample
func (h *SizeHistogram) MaxSize() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.max
}

// MedianEstimate estimates the median size
func (h *SizeHistogram) MedianEstimate() int {
	return h.PercentileEstimate(50)
}

// PercentileEstimate estimates the given percentile (0-100). The estimate is
// the midpoint of the bucket the percentile falls into, capped by the
// largest sample.
func (h *SizeHistogram) PercentileEstimate(percentile int) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if h.count == 0 || percentile < 0 || percentile > 100 {
		return 0
	}

	target := max(1, int64(math.Ceil(float64(h.count)*float64(percentile)/100.0)))
	var cumulative int64
	for i, n := range h.buckets {
		cumulative += n
		if cumulative < target {
			continue
		}
		var estimate int
		switch {
		case i == 0:
			estimate = h.boundaries[0] / 2
		case i < len(h.boundaries):
			estimate = (h.boundaries[i-1] + h.boundaries[i]) / 2
		default:
			estimate = h.max
		}
		return min(estimate, h.max)
	}
	return h.max
}

// Buckets returns a copy of all buckets, including empty ones
func (h *SizeHistogram) Buckets() []Bucket {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	out := make([]Bucket, len(h.buckets))
	for i, n := range h.buckets {
		bound := math.MaxInt
		if i < len(h.boundaries) {
			bound = h.boundaries[i]
		}
		out[i] = Bucket{UpperBound: bound, Count: n}
	}
	return out
}

// Reset clears all samples
func (h *SizeHistogram) Reset() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.count, h.sum, h.max = 0, 0, 0
	clear(h.buckets)
}
