package chart

import (
	"fmt"
	"math"
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// A Chart pairs a layout with its reference values.
type Chart struct {
	Layout    Layout
	Reference Reference
}

// Populated during init, read-only afterwards; safe for concurrent readers.
var registry = map[string]Chart{}

func register(c Chart) {
	if err := c.Layout.Validate(); err != nil {
		panic(err)
	}
	if err := c.Reference.Validate(c.Layout); err != nil {
		panic(err)
	}
	registry[c.Layout.Name] = c
}

// Lookup returns the named chart. Names are case insensitive.
func Lookup(name string) (Chart, error) {
	c, exists := registry[strings.ToLower(strings.TrimSpace(name))]
	if !exists {
		return Chart{}, fmt.Errorf("chart type %q not known, wanted one of %v", name, Names())
	}
	return c, nil
}

func Names() []string {
	names := []string{}
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

const (
	Macbeth24 = "macbeth24"
	Gray12    = "gray12"
)

var macbethNames = []string{
	"dark skin", "light skin", "blue sky", "foliage", "blue flower", "bluish green",
	"orange", "purplish blue", "moderate red", "purple", "yellow green", "orange yellow",
	"blue", "green", "red", "yellow", "magenta", "cyan",
	"white 9.5", "neutral 8", "neutral 6.5", "neutral 5", "neutral 3.5", "black 2",
}

// X-Rite ColorChecker Classic, pre-November 2014 formulation, D50.
var macbethLab = []emath.Vec3{
	{37.986, 13.555, 14.059},
	{65.711, 18.130, 17.810},
	{49.927, -4.880, -21.925},
	{43.139, -13.095, 21.905},
	{55.112, 8.844, -25.399},
	{70.719, -33.397, -0.199},
	{62.661, 36.067, 57.096},
	{40.020, 10.410, -45.964},
	{51.124, 48.239, 16.248},
	{30.325, 22.976, -21.587},
	{72.532, -23.709, 57.255},
	{71.941, 19.363, 67.857},
	{28.778, 14.179, -50.297},
	{55.261, -38.342, 31.370},
	{42.101, 53.378, 28.190},
	{81.733, 4.039, 79.819},
	{51.935, 49.986, -14.574},
	{51.038, -28.631, -28.638},
	{96.539, -0.425, 1.186},
	{81.257, -0.638, -0.335},
	{66.766, -0.734, -0.504},
	{50.867, -0.153, -0.270},
	{35.656, -0.421, -1.231},
	{20.461, -0.079, -0.973},
}

// gray12Lab is a half-stop ramp down from 90% reflectance; every patch is
// a perfect neutral.
func gray12Lab() []emath.Vec3 {
	out := []emath.Vec3{}
	for i := 0; i < 12; i++ {
		y := 0.9 * math.Pow(2, -0.5*float64(i))
		l, _, _ := colorful.XyzToLabWhiteRef(y*colorful.D50[0], y, y*colorful.D50[2], colorful.D50)
		out = append(out, emath.Vec3{l * 100.0, 0, 0})
	}
	return out
}

func init() {
	macbeth, err := NewGridLayout(GridSpec{
		Name:       Macbeth24,
		Rows:       4,
		Cols:       6,
		Aspect:     279.4 / 215.9,
		MarginX:    0.035,
		MarginY:    0.045,
		Gap:        0.12,
		InsetRatio: 0.2,
		Names:      macbethNames,
		Neutrals:   []int{18, 19, 20, 21, 22, 23},
	})
	if err != nil {
		panic(err)
	}
	register(Chart{
		Layout:    macbeth,
		Reference: Reference{Chart: Macbeth24, Illuminant: "D50", Source: "X-Rite ColorChecker Classic (pre-2014)", Lab: macbethLab},
	})

	gray, err := NewGridLayout(GridSpec{
		Name:       Gray12,
		Rows:       2,
		Cols:       6,
		Aspect:     2.8,
		MarginX:    0.03,
		MarginY:    0.06,
		Gap:        0.1,
		InsetRatio: 0.2,
		Neutrals:   []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
	})
	if err != nil {
		panic(err)
	}
	register(Chart{
		Layout:    gray,
		Reference: Reference{Chart: Gray12, Illuminant: "D50", Source: "half-stop ramp from 90% reflectance", Lab: gray12Lab()},
	})
}
