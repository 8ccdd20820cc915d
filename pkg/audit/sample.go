package audit

import (
	"fmt"
	"image"
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/stat"

	"github.com/ggvfx/precision-color-auditor/pkg/chart"
	"github.com/ggvfx/precision-color-auditor/pkg/ecolor"
	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// Why a patch sample was thrown out
const (
	ReasonOutsideImage = "outside_image"
	ReasonTooFewPixels = "too_few_pixels"
	ReasonHighVariance = "high_variance"
)

// A PatchSample is what we measured for one patch. An invalid sample still
// carries whatever pixels were found, so it can be inspected.
type PatchSample struct {
	Index         int
	Space         ecolor.Space
	Mean          emath.Vec3   // The robust mean
	StdDev        emath.Vec3   // Per channel
	Count         int          // Pixels collected
	Pixels        []emath.Vec3 // Row-major, in Space
	Valid         bool
	InvalidReason string
}

func (ps PatchSample) String() string {
	if !ps.Valid {
		return fmt.Sprintf("patch[%02d %s n=%d INVALID:%s]", ps.Index, ps.Space, ps.Count, ps.InvalidReason)
	}
	return fmt.Sprintf("patch[%02d %s n=%d mean=%s sd=%s]", ps.Index, ps.Space, ps.Count, ps.Mean, ps.StdDev)
}

// The denominator floor for relative variation, so near-black patches
// aren't thrown out for their noise.
const minVariationBase = 1e-3

// Sample measures every patch in the layout. Patch windows are computed in
// rectified space, shrunk by the inset ratio, then pulled back into the
// image; a source pixel is used if its center projects into the window.
// Pixels are visited in row-major order, so the result is bit-identical
// for identical inputs.
func Sample(buf *Buffer, h emath.Homography, layout chart.Layout, cfg Config) ([]PatchSample, error) {
	if buf.Empty() {
		return nil, &SamplingError{Reason: "empty image"}
	}

	agg, err := cfg.GetAggregator()
	if err != nil {
		return nil, err
	}
	space, err := ecolor.ParseSpace(cfg.SourceColorSpace)
	if err != nil {
		return nil, err
	}

	w, ht := layout.RectifiedSize(cfg.RectifiedWidth)
	chartInImage, ok := pullBackQuad(h, orb.Bound{Max: orb.Point{w, ht}})
	if !ok {
		return nil, &SamplingError{Reason: "chart maps to infinity", Bounds: buf.Rect}
	}
	if !chartInImage.Overlaps(imageBound(buf.Rect)) {
		return nil, &SamplingError{Reason: fmt.Sprintf("chart %s lies entirely outside the image", chartInImage), Bounds: buf.Rect}
	}

	inset := cfg.InsetRatio(layout)
	samples := make([]PatchSample, len(layout.Patches))
	for i := range layout.Patches {
		window := chart.Inset(layout.PatchRect(i, w, ht), inset)
		samples[i] = samplePatch(buf, h, window, cfg)
		samples[i].Index = i
		samples[i].Space = space

		if samples[i].Count > 0 {
			samples[i].Mean = agg(samples[i].Pixels)
			samples[i].StdDev = StdDev(samples[i].Pixels)
		}
		if samples[i].Valid && cfg.MaxPatchVariation > 0 && relativeVariation(samples[i].Pixels) > cfg.MaxPatchVariation {
			samples[i].Valid = false
			samples[i].InvalidReason = ReasonHighVariance
		}
	}

	return samples, nil
}

func samplePatch(buf *Buffer, h emath.Homography, window orb.Bound, cfg Config) PatchSample {
	ps := PatchSample{}

	inImage, ok := pullBack(h, window)
	if !ok {
		ps.InvalidReason = ReasonOutsideImage
		return ps
	}

	// The pixels whose centers might project into the window
	x0 := int(math.Max(math.Floor(inImage.Min[0]), float64(buf.Rect.Min.X)))
	y0 := int(math.Max(math.Floor(inImage.Min[1]), float64(buf.Rect.Min.Y)))
	x1 := int(math.Min(math.Ceil(inImage.Max[0]), float64(buf.Rect.Max.X)))
	y1 := int(math.Min(math.Ceil(inImage.Max[1]), float64(buf.Rect.Max.Y)))
	if x0 >= x1 || y0 >= y1 {
		ps.InvalidReason = ReasonOutsideImage
		return ps
	}

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			p, ok := h.Forward(orb.Point{float64(x) + 0.5, float64(y) + 0.5})
			if ok && window.Contains(p) {
				ps.Pixels = append(ps.Pixels, buf.RGB(x, y))
			}
		}
	}
	ps.Count = len(ps.Pixels)

	if ps.Count < cfg.MinPatchPixels {
		if !imageBound(buf.Rect).Contains(inImage.Min) || !imageBound(buf.Rect).Contains(inImage.Max) {
			ps.InvalidReason = ReasonOutsideImage
		} else {
			ps.InvalidReason = ReasonTooFewPixels
		}
		return ps
	}

	ps.Valid = true
	return ps
}

// pullBack maps a rectified box into the image, returning the bounding box
// of the resulting quadrilateral.
// pullBackQuad maps a rectified box back into the image, corner by corner.
func pullBackQuad(h emath.Homography, b orb.Bound) (emath.Quad, bool) {
	quad := emath.Quad{}
	for i, p := range []orb.Point{b.Min, {b.Max[0], b.Min[1]}, b.Max, {b.Min[0], b.Max[1]}} {
		q, ok := h.Inverse(p)
		if !ok {
			return emath.Quad{}, false
		}
		quad[i] = q
	}
	return quad, true
}

func pullBack(h emath.Homography, b orb.Bound) (orb.Bound, bool) {
	quad, ok := pullBackQuad(h, b)
	if !ok {
		return orb.Bound{}, false
	}
	return orb.MultiPoint(quad[:]).Bound(), true
}

func imageBound(r image.Rectangle) orb.Bound {
	return orb.Bound{
		Min: orb.Point{float64(r.Min.X), float64(r.Min.Y)},
		Max: orb.Point{float64(r.Max.X), float64(r.Max.Y)},
	}
}

// relativeVariation is the std dev of luminance over its mean.
func relativeVariation(px []emath.Vec3) float64 {
	if len(px) < 2 {
		return 0
	}
	lums := make([]float64, len(px))
	for i, v := range px {
		lums[i] = emath.Luminance(v)
	}
	mean, sd := stat.MeanStdDev(lums, nil)
	return sd / math.Max(math.Abs(mean), minVariationBase)
}
