package emath

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMat3Inverse(t *testing.T) {
	m := Mat3{
		2, 0, 1,
		1, 3, 0,
		0, 1, 4,
	}
	inv, ok := m.Inverse()
	require.True(t, ok)
	id := m.Mult(inv)
	for i, v := range Identity() {
		assert.InDelta(t, v, id[i], 1e-12)
	}

	_, ok = Mat3{1, 2, 3, 2, 4, 6, 0, 0, 1}.Inverse()
	assert.False(t, ok)
}

var square = Quad{{100, 100}, {300, 100}, {300, 300}, {100, 300}}

func TestHomographyMapsCornersExactly(t *testing.T) {
	src := Quad{{120, 80}, {410, 110}, {395, 330}, {90, 300}}
	dst := [4]orb.Point{{0, 0}, {600, 0}, {600, 400}, {0, 400}}

	h, err := NewHomography(src, dst)
	require.NoError(t, err)

	for i := range src {
		p, ok := h.Forward(src[i])
		require.True(t, ok)
		assert.InDelta(t, dst[i][0], p[0], 1e-6)
		assert.InDelta(t, dst[i][1], p[1], 1e-6)
	}
	assert.InDelta(t, 1.0, h.Fwd[8], 1e-12)
}

func TestHomographyRoundTrip(t *testing.T) {
	src := Quad{{120, 80}, {410, 110}, {395, 330}, {90, 300}}
	dst := [4]orb.Point{{0, 0}, {600, 0}, {600, 400}, {0, 400}}
	h, err := NewHomography(src, dst)
	require.NoError(t, err)

	for _, p := range []orb.Point{{200, 200}, {130, 90}, {380, 310}, {250.5, 150.25}} {
		r, ok := h.Forward(p)
		require.True(t, ok)
		back, ok := h.Inverse(r)
		require.True(t, ok)
		assert.InDelta(t, p[0], back[0], 1e-6)
		assert.InDelta(t, p[1], back[1], 1e-6)
	}
}

func TestHomographyOfSquareIsAffine(t *testing.T) {
	h, err := NewHomography(square, [4]orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	require.NoError(t, err)
	p, ok := h.Forward(orb.Point{200, 150})
	require.True(t, ok)
	assert.InDelta(t, 0.5, p[0], 1e-9)
	assert.InDelta(t, 0.25, p[1], 1e-9)
}

func TestHomographyDegenerate(t *testing.T) {
	src := Quad{{0, 0}, {0, 0}, {0, 0}, {0, 0}}
	_, err := NewHomography(src, [4]orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	var gerr *GeometryError
	assert.True(t, errors.As(err, &gerr))
}

func TestQuadValidate(t *testing.T) {
	assert.NoError(t, square.Validate(1))

	tests := []struct {
		name   string
		q      Quad
		reason string
	}{
		{"nan", Quad{{math.NaN(), 0}, {1, 0}, {1, 1}, {0, 1}}, "non-finite"},
		{"zero area", Quad{{5, 5}, {5, 5}, {5, 5}, {5, 5}}, "near-zero area"},
		{"collinear", Quad{{0, 0}, {50, 0}, {100, 0}, {50, 80}}, "collinear"},
		{"bowtie", Quad{{0, 0}, {100, 0}, {0, 100}, {60, 120}}, "self-intersecting"},
		{"concave", Quad{{0, 0}, {100, 0}, {30, 30}, {0, 100}}, "not convex"},
		{"anticlockwise", Quad{{100, 100}, {100, 300}, {300, 300}, {300, 100}}, "not clockwise"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.q.Validate(1)
			var gerr *GeometryError
			require.True(t, errors.As(err, &gerr), "want GeometryError, got %v", err)
			assert.Contains(t, gerr.Reason, tc.reason)
		})
	}
}

func TestQuadCanonical(t *testing.T) {
	shuffled := Quad{square[2], square[0], square[3], square[1]}
	assert.Equal(t, square, shuffled.Canonical())

	reversed := Quad{square[0], square[3], square[2], square[1]}
	c := reversed.Canonical()
	assert.Equal(t, square, c)
	assert.NoError(t, c.Validate(1))
}

func TestFloatGridStats(t *testing.T) {
	fg := NewFloatGrid(4, 2)
	for x := 0; x < 4; x++ {
		for y := 0; y < 2; y++ {
			fg.Set(x, y, float64(x+4*y))
		}
	}
	fg.Set(0, 0, math.NaN())

	min, max := fg.MinMax()
	assert.Equal(t, 1.0, min)
	assert.Equal(t, 7.0, max)
	assert.Equal(t, 4, fg.Dx())
	assert.Equal(t, 2, fg.Dy())

	img := fg.ToImage()
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestQuadOverlaps(t *testing.T) {
	img := orb.Bound{Max: orb.Point{100, 100}}

	tests := map[string]struct {
		q    Quad
		want bool
	}{
		"inside":          {Quad{{10, 10}, {90, 10}, {90, 90}, {10, 90}}, true},
		"covers":          {Quad{{-10, -10}, {200, -10}, {200, 200}, {-10, 200}}, true},
		"clips an edge":   {Quad{{99.5, 10}, {300, 10}, {300, 90}, {99.5, 90}}, true},
		"crosses only":    {Quad{{50, -20}, {60, -20}, {60, 120}, {50, 120}}, true},
		"far away":        {Quad{{200, 200}, {300, 200}, {300, 300}, {200, 300}}, false},
		"past the corner": {Quad{{170, 50}, {180, 60}, {60, 180}, {50, 170}}, false},
	}

	for name, tc := range tests {
		assert.Equal(t, tc.want, tc.q.Overlaps(img), name)
	}
}
