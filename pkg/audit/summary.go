package audit

import (
	"fmt"
	"math"

	"github.com/codahale/hdrhistogram"
	"github.com/skypies/util/histogram"
)

// Delta E values are tracked in thousandths, as the histograms want ints
const (
	milliDeltaE    = 1000.0
	maxMilliDeltaE = 200 * 1000

	histBuckets = 50
	histMax     = 100 // ΔE of 10.0
)

// A Summary rolls up the mean Delta E of every successful run in a batch.
type Summary struct {
	Jobs   int
	Failed int
	Passed int

	P50, P90, P99 float64 // Of the per-image mean Delta E
	Mean, Max     float64

	Hist histogram.Histogram // Mean Delta E, in tenths
}

func Summarize(results []BatchResult) Summary {
	s := Summary{
		Jobs: len(results),
		Hist: histogram.Histogram{NumBuckets: histBuckets, ValMin: 0, ValMax: histMax},
	}
	h := hdrhistogram.New(0, maxMilliDeltaE, 3)

	for _, br := range results {
		if br.Failed() || br.Result == nil {
			s.Failed++
			continue
		}
		if br.Result.Record.Pass {
			s.Passed++
		}
		de := br.Result.Record.MeanDeltaE
		v := int64(math.Min(de*milliDeltaE, maxMilliDeltaE))
		if err := h.RecordValue(v); err != nil {
			continue
		}
		s.Hist.Add(histogram.ScalarVal(int(math.Min(de*10, histMax-1))))
	}

	if h.TotalCount() > 0 {
		s.P50 = float64(h.ValueAtQuantile(50)) / milliDeltaE
		s.P90 = float64(h.ValueAtQuantile(90)) / milliDeltaE
		s.P99 = float64(h.ValueAtQuantile(99)) / milliDeltaE
		s.Mean = h.Mean() / milliDeltaE
		s.Max = float64(h.Max()) / milliDeltaE
	}
	return s
}

func (s Summary) String() string {
	str := fmt.Sprintf("batch: %d jobs, %d passed, %d failed\n", s.Jobs, s.Passed, s.Failed)
	str += fmt.Sprintf("mean ΔE per image: p50=%.3f p90=%.3f p99=%.3f mean=%.3f max=%.3f\n",
		s.P50, s.P90, s.P99, s.Mean, s.Max)
	str += fmt.Sprintf("histogram (ΔE x10): %v\n", s.Hist)
	return str
}
