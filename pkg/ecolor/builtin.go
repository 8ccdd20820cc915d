package ecolor

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

var (
	// Translates XYZ(D50) to sRGB(D65)
	//
	// https://sites.google.com/site/crossstereo/raw-converting/dng
	// http://www.brucelindbloom.com/index.html?Eqn_RGB_XYZ_Matrix.html
	//
	// We use the second table on Bruce Lindblooms's site; it bundles in
	// the chromatic adaptation transform that we need to move from D50
	// to D65 reference whites without seeing the image's white balance
	// shift. (Most XYZ->sRGB matrices on the web ignore the change to
	// reference white, so come out looking wrong)
	XYZD50_to_linear_sRGBD65 = emath.Mat3{
		3.1338561, -1.6168667, -0.4906146,
		-0.9787684, 1.9161415, 0.0334540,
		0.0719453, -0.2289914, 1.4052427,
	}

	linear_sRGBD65_to_XYZD50 = mustInvert(XYZD50_to_linear_sRGBD65)
)

// Builtin is the default Transformer. Every conversion goes through
// XYZ(D50), the profile connection space (PCS), the same way a DNG
// developer does. The sRGB curve and the Lab math come from go-colorful.
//
// The two camera fields are only needed for CameraNative; they come from
// the DNG tags of the same name.
type Builtin struct {
	AsShotNeutral emath.Vec3 // A white/neutral color in camera native RGB space
	ForwardMatrix emath.Mat3 // Maps white-balanced camera native RGB into XYZ(D50).
}

func NewBuiltin() *Builtin { return &Builtin{} }

// Transform implements Transformer. If from == to the pixel is returned
// untouched, so an identity normalization is exact.
func (b *Builtin) Transform(px emath.Vec3, from, to Space) (emath.Vec3, error) {
	if from == to {
		if !knownSpaces[from] {
			return px, fmt.Errorf("transform: unknown color space %q", from)
		}
		return px, nil
	}

	pcs, err := b.ToPCS(px, from)
	if err != nil {
		return emath.Vec3{}, err
	}
	return b.FromPCS(pcs, to)
}

// ToPCS maps a pixel into XYZ(D50).
func (b *Builtin) ToPCS(px emath.Vec3, from Space) (emath.Vec3, error) {
	switch from {
	case XYZD50:
		return px, nil

	case LinearSRGB:
		return linear_sRGBD65_to_XYZD50.Apply(px), nil

	case SRGB:
		r, g, bb := colorful.Color{R: px[0], G: px[1], B: px[2]}.LinearRgb()
		return linear_sRGBD65_to_XYZD50.Apply(emath.Vec3{r, g, bb}), nil

	case XYZD65:
		r, g, bb := colorful.XyzToLinearRgb(px[0], px[1], px[2])
		return linear_sRGBD65_to_XYZD50.Apply(emath.Vec3{r, g, bb}), nil

	case LabD50:
		// go-colorful keeps L in [0,1], we keep it in [0,100]
		x, y, z := colorful.LabToXyzWhiteRef(px[0]/100.0, px[1]/100.0, px[2]/100.0, colorful.D50)
		return emath.Vec3{x, y, z}, nil

	case CameraNative:
		if err := b.checkCamera(); err != nil {
			return emath.Vec3{}, err
		}
		wb := b.AsShotNeutral.InvertDiag().Apply(px)
		return b.ForwardMatrix.Apply(wb), nil
	}

	return emath.Vec3{}, fmt.Errorf("transform: unknown source color space %q", from)
}

// FromPCS maps an XYZ(D50) value into the target space.
func (b *Builtin) FromPCS(xyz emath.Vec3, to Space) (emath.Vec3, error) {
	switch to {
	case XYZD50:
		return xyz, nil

	case LinearSRGB:
		return XYZD50_to_linear_sRGBD65.Apply(xyz), nil

	case SRGB:
		lin := XYZD50_to_linear_sRGBD65.Apply(xyz)
		c := colorful.LinearRgb(lin[0], lin[1], lin[2])
		return emath.Vec3{c.R, c.G, c.B}, nil

	case XYZD65:
		lin := XYZD50_to_linear_sRGBD65.Apply(xyz)
		x, y, z := colorful.LinearRgbToXyz(lin[0], lin[1], lin[2])
		return emath.Vec3{x, y, z}, nil

	case LabD50:
		l, a, bb := colorful.XyzToLabWhiteRef(xyz[0], xyz[1], xyz[2], colorful.D50)
		return emath.Vec3{l * 100.0, a * 100.0, bb * 100.0}, nil

	case CameraNative:
		if err := b.checkCamera(); err != nil {
			return emath.Vec3{}, err
		}
		fmInv, ok := b.ForwardMatrix.Inverse()
		if !ok {
			return emath.Vec3{}, fmt.Errorf("transform: ForwardMatrix is singular")
		}
		wb := fmInv.Apply(xyz)
		return emath.Vec3{wb[0] * b.AsShotNeutral[0], wb[1] * b.AsShotNeutral[1], wb[2] * b.AsShotNeutral[2]}, nil
	}

	return emath.Vec3{}, fmt.Errorf("transform: unknown target color space %q", to)
}

func (b *Builtin) checkCamera() error {
	if b.AsShotNeutral[0] == 0 || b.AsShotNeutral[1] == 0 || b.AsShotNeutral[2] == 0 {
		return fmt.Errorf("transform: camera space needs a non-zero AsShotNeutral, have %s", b.AsShotNeutral)
	}
	if b.ForwardMatrix.Det() == 0 {
		return fmt.Errorf("transform: camera space needs a ForwardMatrix")
	}
	return nil
}

func mustInvert(m emath.Mat3) emath.Mat3 {
	inv, ok := m.Inverse()
	if !ok {
		panic(fmt.Sprintf("matrix not invertible:\n%s", m))
	}
	return inv
}
