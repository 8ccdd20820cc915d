package audit

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// An Aggregator reduces a patch's pixels to a single color, per channel. It
// must not depend on anything but the order of its input.
type Aggregator func(px []emath.Vec3) emath.Vec3

func channel(px []emath.Vec3, c int) []float64 {
	vals := make([]float64, len(px))
	for i, v := range px {
		vals[i] = v[c]
	}
	return vals
}

func perChannel(px []emath.Vec3, f func([]float64) float64) emath.Vec3 {
	if len(px) == 0 {
		return emath.Vec3{}
	}
	return emath.Vec3{f(channel(px, 0)), f(channel(px, 1)), f(channel(px, 2))}
}

func Mean(px []emath.Vec3) emath.Vec3 {
	return perChannel(px, func(vals []float64) float64 { return stat.Mean(vals, nil) })
}

func Median(px []emath.Vec3) emath.Vec3 {
	return perChannel(px, median)
}

func median(vals []float64) float64 {
	sort.Float64s(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2.0
}

// TrimmedMean sorts each channel, drops the lowest and highest ratio of
// values, and averages the rest. If trimming would leave nothing, it
// degrades to the median.
func TrimmedMean(ratio float64) Aggregator {
	return func(px []emath.Vec3) emath.Vec3 {
		return perChannel(px, func(vals []float64) float64 {
			sort.Float64s(vals)
			k := int(ratio * float64(len(vals)))
			if len(vals)-2*k < 1 {
				return median(vals)
			}
			return stat.Mean(vals[k:len(vals)-k], nil)
		})
	}
}

// StdDev is the per-channel sample standard deviation.
func StdDev(px []emath.Vec3) emath.Vec3 {
	if len(px) < 2 {
		return emath.Vec3{}
	}
	return perChannel(px, func(vals []float64) float64 { return stat.StdDev(vals, nil) })
}
