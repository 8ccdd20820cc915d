package audit

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggvfx/precision-color-auditor/pkg/chart"
	"github.com/ggvfx/precision-color-auditor/pkg/ecolor"
	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

func TestRobustMeans(t *testing.T) {
	px := []emath.Vec3{}
	for i := 1; i <= 9; i++ {
		px = append(px, emath.Vec3{float64(i), 1, 2})
	}
	px = append(px, emath.Vec3{1000, 1, 2}) // a specular highlight

	assert.Equal(t, emath.Vec3{104.5, 1, 2}, Mean(px))
	assert.Equal(t, emath.Vec3{5.5, 1, 2}, Median(px))
	// Drops 1 and 1000
	assert.Equal(t, emath.Vec3{5.5, 1, 2}, TrimmedMean(0.1)(px))
	// Heavy trimming keeps only the middle value
	assert.Equal(t, emath.Vec3{2, 0, 0}, TrimmedMean(0.4)([]emath.Vec3{{1, 0, 0}, {2, 0, 0}, {3, 0, 0}}))

	// The input order must not be disturbed
	assert.Equal(t, 1000.0, px[9][0])
}

func TestSampleIsDeterministic(t *testing.T) {
	cfg := testConfig()
	buf, ch := perfectChart(t, cfg)
	h, err := Rectify(squareCorners, ch.Layout, cfg)
	require.NoError(t, err)

	s1, err := Sample(buf, h, ch.Layout, cfg)
	require.NoError(t, err)
	s2, err := Sample(buf, h, ch.Layout, cfg)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)

	colors := referenceColors(t, ch)
	for i, s := range s1 {
		require.True(t, s.Valid, "%s", s)
		assert.Equal(t, i, s.Index)
		assert.Equal(t, ecolor.LinearSRGB, s.Space)
		assert.Greater(t, s.Count, 500)
		for c := 0; c < 3; c++ {
			assert.InDelta(t, colors[i][c], s.Mean[c], 1e-12)
		}
	}
}

func TestSampleMarksNoisyPatches(t *testing.T) {
	cfg := testConfig()
	ch, _ := chart.Lookup(cfg.ChartType)
	colors := referenceColors(t, ch)
	buf := paintChart(t, image.Rect(0, 0, 600, 600), squareCorners, ch.Layout, cfg, func(i, x, y int) emath.Vec3 {
		if i == 3 && (x+y)%2 == 0 {
			return emath.Vec3{0.9, 0.9, 0.9}
		}
		return colors[i]
	})
	h, err := Rectify(squareCorners, ch.Layout, cfg)
	require.NoError(t, err)

	samples, err := Sample(buf, h, ch.Layout, cfg)
	require.NoError(t, err)
	assert.False(t, samples[3].Valid)
	assert.Equal(t, ReasonHighVariance, samples[3].InvalidReason)
	assert.True(t, samples[4].Valid)
}

func TestSampleTooFewPixels(t *testing.T) {
	cfg := testConfig()
	buf, ch := perfectChart(t, cfg)
	h, _ := Rectify(squareCorners, ch.Layout, cfg)

	cfg.MinPatchPixels = 1000000
	samples, err := Sample(buf, h, ch.Layout, cfg)
	require.NoError(t, err)
	for _, s := range samples {
		assert.False(t, s.Valid)
		assert.Equal(t, ReasonTooFewPixels, s.InvalidReason)
	}
}

func TestSampleStructuralErrors(t *testing.T) {
	cfg := testConfig()
	ch, _ := chart.Lookup(cfg.ChartType)
	h, err := Rectify(squareCorners, ch.Layout, cfg)
	require.NoError(t, err)

	var serr *SamplingError

	_, err = Sample(NewBuffer(image.Rectangle{}), h, ch.Layout, cfg)
	assert.True(t, errors.As(err, &serr), "empty image")

	_, err = Sample(NewBuffer(image.Rect(0, 0, 50, 50)), h, ch.Layout, cfg)
	assert.True(t, errors.As(err, &serr), "chart entirely off the image")

	// A thin chart lying diagonally past the bottom-right corner: its
	// bounding box overlaps the image, the chart itself does not
	diagonal := emath.Quad{{170, 50}, {180, 60}, {60, 180}, {50, 170}}
	h, err = Rectify(diagonal, ch.Layout, cfg)
	require.NoError(t, err)
	_, err = Sample(NewBuffer(image.Rect(0, 0, 100, 100)), h, ch.Layout, cfg)
	assert.True(t, errors.As(err, &serr), "diagonal chart past the corner, got %v", err)
}

func TestNormalizePassesValidityThrough(t *testing.T) {
	tr := ecolor.NewBuiltin()
	agg := TrimmedMean(0.1)

	valid := PatchSample{Index: 2, Space: ecolor.LinearSRGB, Valid: true,
		Pixels: []emath.Vec3{{0.2, 0.2, 0.2}, {0.2, 0.2, 0.2}, {0.2, 0.2, 0.2}}}
	valid.Mean = agg(valid.Pixels)
	valid.Count = 3

	same, err := Normalize(valid, ecolor.LinearSRGB, ecolor.LinearSRGB, tr, agg)
	require.NoError(t, err)
	assert.Equal(t, valid.Mean, same.Mean)
	assert.True(t, same.Valid)

	lab, err := Normalize(valid, ecolor.LinearSRGB, ecolor.LabD50, tr, agg)
	require.NoError(t, err)
	assert.Equal(t, ecolor.LabD50, lab.Space)
	assert.True(t, lab.Valid)
	assert.InDelta(t, 0.0, lab.Mean[1], 0.05) // gray stays gray
	assert.Equal(t, 0.2, valid.Pixels[0][0], "input untouched")

	invalid := PatchSample{Index: 5, Space: ecolor.LinearSRGB, InvalidReason: ReasonOutsideImage}
	out, err := Normalize(invalid, ecolor.LinearSRGB, ecolor.SRGB, tr, agg)
	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.Equal(t, ReasonOutsideImage, out.InvalidReason)

	_, err = Normalize(valid, ecolor.LinearSRGB, ecolor.Space("p3"), tr, agg)
	assert.Error(t, err)
}
