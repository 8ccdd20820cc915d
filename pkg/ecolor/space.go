package ecolor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// A Space names a color space. The core treats these as opaque
// identifiers and hands them to a Transformer; only the backend knows
// what they mean.
type Space string

const (
	SRGB         Space = "srgb"        // sRGB primaries, D65, with the sRGB transfer curve
	LinearSRGB   Space = "linear-srgb" // scene-linear Rec.709 primaries, D65
	XYZD65       Space = "xyz-d65"
	XYZD50       Space = "xyz-d50"     // the profile connection space
	LabD50       Space = "lab-d50"     // CIE L*a*b*, L in [0,100], D50 reference white
	CameraNative Space = "camera"      // camera RGB, developed via AsShotNeutral + ForwardMatrix
)

var knownSpaces = map[Space]bool{
	SRGB:         true,
	LinearSRGB:   true,
	XYZD65:       true,
	XYZD50:       true,
	LabD50:       true,
	CameraNative: true,
}

// IsRGB is true for the spaces whose channels are red, green and blue
// light, i.e. the ones a CDL can be applied in.
func (s Space) IsRGB() bool {
	return s == SRGB || s == LinearSRGB || s == CameraNative
}

// A Transformer is the color-math capability. Anything that can move a
// pixel between named spaces can be plugged in here (an OCIO or lcms
// wrapper, say); Builtin is what we ship.
type Transformer interface {
	Transform(px emath.Vec3, from, to Space) (emath.Vec3, error)
}

// ParseSpace is lenient about case and surrounding whitespace.
func ParseSpace(s string) (Space, error) {
	sp := Space(strings.ToLower(strings.TrimSpace(s)))
	if !knownSpaces[sp] {
		return "", fmt.Errorf("unknown color space %q, wanted one of %s", s, ListSpaces())
	}
	return sp, nil
}

func ListSpaces() string {
	names := []string{}
	for sp := range knownSpaces {
		names = append(names, string(sp))
	}
	sort.Strings(names)
	return fmt.Sprintf("%v", names)
}
