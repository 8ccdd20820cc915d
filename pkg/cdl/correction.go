package cdl

import (
	"fmt"
	"math"

	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// A Correction is an ASC-CDL style slope/offset/power, per channel. It is
// only ever metadata; nothing here touches source pixels.
type Correction struct {
	Slope      emath.Vec3
	Offset     emath.Vec3
	Power      emath.Vec3
	Saturation float64 // Always 1.0, the ASC no-op

	Residual       emath.Vec3 // RMS error per channel, after correction
	RMS            float64    // RMS error over all channels
	Converged      [3]bool
	Iterations     [3]int
	DidNotConverge bool
	NumPatches     int
}

func Identity() Correction {
	return Correction{
		Slope:      emath.Vec3{1, 1, 1},
		Power:      emath.Vec3{1, 1, 1},
		Saturation: 1.0,
	}
}

// Apply corrects one channel value: clamp0(in*slope + offset) ^ power.
// Values above 1.0 are left alone; scene-linear data goes there.
func (c Correction) Apply(in float64, ch int) float64 {
	return transfer(in, c.Slope[ch], c.Offset[ch], c.Power[ch])
}

func (c Correction) ApplyVec(v emath.Vec3) emath.Vec3 {
	return emath.Vec3{c.Apply(v[0], 0), c.Apply(v[1], 1), c.Apply(v[2], 2)}
}

func transfer(in, slope, offset, power float64) float64 {
	return math.Pow(math.Max(0, in*slope+offset), power)
}

// String renders the familiar SOP text, e.g. as found inside a .cc file.
func (c Correction) String() string {
	str := fmt.Sprintf("(%.6f %.6f %.6f)(%.6f %.6f %.6f)(%.6f %.6f %.6f) sat %.1f",
		c.Slope[0], c.Slope[1], c.Slope[2],
		c.Offset[0], c.Offset[1], c.Offset[2],
		c.Power[0], c.Power[1], c.Power[2],
		c.Saturation)
	str += fmt.Sprintf(" rms=%.6f", c.RMS)
	if c.DidNotConverge {
		str += " DID-NOT-CONVERGE"
	}
	return str
}
