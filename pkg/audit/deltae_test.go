package audit

import (
	"testing"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"

	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// Test pairs from Sharma, Wu & Dalal's CIEDE2000 data set
var sharmaPairs = []struct {
	lab1, lab2 emath.Vec3
	want       float64
}{
	{emath.Vec3{50, 2.6772, -79.7751}, emath.Vec3{50, 0, -82.7485}, 2.0425},
	{emath.Vec3{50, 3.1571, -77.2803}, emath.Vec3{50, 0, -82.7485}, 2.8615},
	{emath.Vec3{50, 2.8361, -74.0200}, emath.Vec3{50, 0, -82.7485}, 3.4412},
	{emath.Vec3{50, 0, 0}, emath.Vec3{50, -1, 2}, 2.3669},
	{emath.Vec3{50, 2.5, 0}, emath.Vec3{73, 25, -18}, 27.1492},
	{emath.Vec3{60.2574, -34.0099, 36.2677}, emath.Vec3{60.4626, -34.1751, 39.4387}, 1.2644},
}

func TestDeltaE2000KnownPairs(t *testing.T) {
	for _, p := range sharmaPairs {
		assert.InDelta(t, p.want, DeltaE2000(p.lab1, p.lab2), 1e-4, "%s vs %s", p.lab1, p.lab2)
	}
}

func TestDeltaE2000IdenticalIsZero(t *testing.T) {
	for _, lab := range []emath.Vec3{{0, 0, 0}, {50, 0, 0}, {62.661, 36.067, 57.096}, {28.778, 14.179, -50.297}} {
		assert.Equal(t, 0.0, DeltaE2000(lab, lab))
	}
}

func TestDeltaE2000IsSymmetric(t *testing.T) {
	for _, p := range sharmaPairs {
		assert.InDelta(t, DeltaE2000(p.lab1, p.lab2), DeltaE2000(p.lab2, p.lab1), 1e-12)
	}
}

func TestDeltaE2000AgreesWithColorful(t *testing.T) {
	pairs := [][2]emath.Vec3{
		{{37.986, 13.555, 14.059}, {39.1, 11.2, 16.0}},
		{{51.038, -28.631, -28.638}, {49.5, -25.0, -31.2}},
		{{81.257, -0.638, -0.335}, {80.0, 1.5, 2.0}},
	}
	for _, p := range pairs {
		c1 := colorful.Lab(p[0][0]/100, p[0][1]/100, p[0][2]/100)
		c2 := colorful.Lab(p[1][0]/100, p[1][1]/100, p[1][2]/100)
		assert.InDelta(t, c1.DistanceCIEDE2000(c2)*100, DeltaE2000(p[0], p[1]), 1e-6)
	}
}
