package audit

import (
	"fmt"

	"github.com/ggvfx/precision-color-auditor/pkg/ecolor"
	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// Normalize moves a sample into another color space. Each collected pixel
// goes through the transformer and the result is re-aggregated, so robust
// means are taken in the target space. Validity is passed through as is.
func Normalize(s PatchSample, from, to ecolor.Space, tr ecolor.Transformer, agg Aggregator) (PatchSample, error) {
	out := s
	out.Space = to

	if len(s.Pixels) == 0 {
		m, err := tr.Transform(s.Mean, from, to)
		if err != nil {
			return s, fmt.Errorf("normalize patch %d: %w", s.Index, err)
		}
		out.Mean = m
		return out, nil
	}

	out.Pixels = make([]emath.Vec3, len(s.Pixels))
	for i, px := range s.Pixels {
		v, err := tr.Transform(px, from, to)
		if err != nil {
			return s, fmt.Errorf("normalize patch %d: %w", s.Index, err)
		}
		out.Pixels[i] = v
	}
	out.Mean = agg(out.Pixels)
	out.StdDev = StdDev(out.Pixels)

	return out, nil
}

func NormalizeAll(samples []PatchSample, from, to ecolor.Space, tr ecolor.Transformer, agg Aggregator) ([]PatchSample, error) {
	out := make([]PatchSample, len(samples))
	for i, s := range samples {
		n, err := Normalize(s, from, to, tr, agg)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
