package ecolor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

func assertVecNear(t *testing.T, want, got emath.Vec3, tol float64) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], tol, "component %d: want %s, got %s", i, want, got)
	}
}

func TestIdentityTransformIsExact(t *testing.T) {
	b := NewBuiltin()
	px := emath.Vec3{0.123456789, 7.5, -0.25}
	for sp := range knownSpaces {
		out, err := b.Transform(px, sp, sp)
		require.NoError(t, err)
		assert.Equal(t, px, out, "space %s", sp)
	}
}

func TestUnknownSpace(t *testing.T) {
	b := NewBuiltin()
	_, err := b.Transform(emath.Vec3{}, Space("aces-cg"), LinearSRGB)
	assert.Error(t, err)
	_, err = b.Transform(emath.Vec3{}, LinearSRGB, Space("rec2020"))
	assert.Error(t, err)
	_, err = b.Transform(emath.Vec3{}, Space("nope"), Space("nope"))
	assert.Error(t, err)
}

func TestWhiteMapsToD50White(t *testing.T) {
	b := NewBuiltin()

	xyz, err := b.Transform(emath.Vec3{1, 1, 1}, LinearSRGB, XYZD50)
	require.NoError(t, err)
	assertVecNear(t, emath.Vec3{0.96422, 1.0, 0.82521}, xyz, 2e-3)

	lab, err := b.Transform(emath.Vec3{1, 1, 1}, LinearSRGB, LabD50)
	require.NoError(t, err)
	assertVecNear(t, emath.Vec3{100, 0, 0}, lab, 0.2)
}

func TestRoundTrips(t *testing.T) {
	b := NewBuiltin()
	px := emath.Vec3{0.18, 0.42, 0.07}
	for _, sp := range []Space{SRGB, XYZD65, XYZD50, LabD50} {
		there, err := b.Transform(px, LinearSRGB, sp)
		require.NoError(t, err)
		back, err := b.Transform(there, sp, LinearSRGB)
		require.NoError(t, err)
		assertVecNear(t, px, back, 1e-6)
	}
}

func TestSRGBCurve(t *testing.T) {
	b := NewBuiltin()
	// 18% grey is about 0.46 after the sRGB curve
	out, err := b.Transform(emath.Vec3{0.18, 0.18, 0.18}, LinearSRGB, SRGB)
	require.NoError(t, err)
	assertVecNear(t, emath.Vec3{0.4613, 0.4613, 0.4613}, out, 1e-3)
}

func TestCameraNative(t *testing.T) {
	b := NewBuiltin()
	_, err := b.Transform(emath.Vec3{0.5, 0.5, 0.5}, CameraNative, LinearSRGB)
	assert.Error(t, err, "camera space without matrices")

	b.AsShotNeutral = emath.Vec3{0.5, 1.0, 0.8}
	b.ForwardMatrix = linear_sRGBD65_to_XYZD50

	// The neutral itself should come out as white
	out, err := b.Transform(b.AsShotNeutral, CameraNative, LinearSRGB)
	require.NoError(t, err)
	assertVecNear(t, emath.Vec3{1, 1, 1}, out, 1e-9)

	back, err := b.Transform(out, LinearSRGB, CameraNative)
	require.NoError(t, err)
	assertVecNear(t, b.AsShotNeutral, back, 1e-9)
}

func TestParseSpace(t *testing.T) {
	sp, err := ParseSpace("  Lab-D50 ")
	require.NoError(t, err)
	assert.Equal(t, LabD50, sp)

	_, err = ParseSpace("cmyk")
	assert.Error(t, err)
	assert.Contains(t, ListSpaces(), "linear-srgb")
}

func TestIsRGB(t *testing.T) {
	for _, sp := range []Space{SRGB, LinearSRGB, CameraNative} {
		assert.True(t, sp.IsRGB(), sp)
	}
	for _, sp := range []Space{XYZD65, XYZD50, LabD50} {
		assert.False(t, sp.IsRGB(), sp)
	}
}
