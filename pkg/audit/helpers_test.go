package audit

import (
	"image"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/ggvfx/precision-color-auditor/pkg/chart"
	"github.com/ggvfx/precision-color-auditor/pkg/ecolor"
	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

var (
	squareCorners = emath.Quad{{100, 100}, {500, 100}, {500, 500}, {100, 500}}
	perfectBounds = image.Rect(0, 0, 600, 600)
)

func testConfig() Config {
	cfg := NewConfig()
	cfg.ToleranceDeltaE = Float64(2.0)
	return cfg
}

// referenceColors returns each patch's reference value in linear sRGB.
func referenceColors(t *testing.T, ch chart.Chart) []emath.Vec3 {
	t.Helper()
	tr := ecolor.NewBuiltin()
	out := []emath.Vec3{}
	for _, lab := range ch.Reference.Lab {
		v, err := tr.Transform(lab, ecolor.LabD50, ecolor.LinearSRGB)
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

// paintChart renders a synthetic photo of a chart: every pixel whose center
// projects into a patch gets paint(patch, x, y), everything else is dark.
func paintChart(t *testing.T, bounds image.Rectangle, corners emath.Quad, layout chart.Layout, cfg Config, paint func(i, x, y int) emath.Vec3) *Buffer {
	t.Helper()
	h, err := Rectify(corners, layout, cfg)
	require.NoError(t, err)
	w, ht := layout.RectifiedSize(cfg.RectifiedWidth)

	buf := NewBuffer(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := emath.Vec3{0.02, 0.02, 0.02}
			if p, ok := h.Forward(orb.Point{float64(x) + 0.5, float64(y) + 0.5}); ok {
				if i, inPatch := layout.CellAt(orb.Point{p[0] / w, p[1] / ht}); inPatch {
					v = paint(i, x, y)
				}
			}
			buf.Set(x, y, v)
		}
	}
	return buf
}

func perfectChart(t *testing.T, cfg Config) (*Buffer, chart.Chart) {
	t.Helper()
	ch, err := chart.Lookup(cfg.ChartType)
	require.NoError(t, err)
	colors := referenceColors(t, ch)
	buf := paintChart(t, perfectBounds, squareCorners, ch.Layout, cfg, func(i, x, y int) emath.Vec3 {
		return colors[i]
	})
	return buf, ch
}
