package chart

import (
	"fmt"

	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// Reference holds the expected color of each patch, as CIE L*a*b* (L in
// [0,100]) under the named illuminant. Lab[i] belongs to Layout.Patches[i].
type Reference struct {
	Chart      string
	Illuminant string
	Source     string // Where the numbers came from
	Lab        []emath.Vec3
}

func (r Reference) Validate(l Layout) error {
	if r.Illuminant != "D50" {
		return fmt.Errorf("reference %q: illuminant %q, only D50 is supported", r.Chart, r.Illuminant)
	}
	if len(r.Lab) != len(l.Patches) {
		return fmt.Errorf("reference %q: %d values for %d patches", r.Chart, len(r.Lab), len(l.Patches))
	}
	for i, lab := range r.Lab {
		if !lab.IsFinite() || lab[0] < 0 || lab[0] > 100 {
			return fmt.Errorf("reference %q: patch %d has bad value %s", r.Chart, i, lab)
		}
	}
	return nil
}

// Neutrals returns the reference values of the layout's neutral patches, in
// the order the layout lists them.
func (r Reference) Neutrals(l Layout) []emath.Vec3 {
	out := []emath.Vec3{}
	for _, i := range l.Neutrals {
		out = append(out, r.Lab[i])
	}
	return out
}
