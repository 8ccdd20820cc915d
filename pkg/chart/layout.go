package chart

import (
	"fmt"

	"github.com/paulmach/orb"
)

// A Patch is one colored square on a chart. Bounds are fractions of the
// rectified canvas: (0,0) is the top-left corner of the chart, (1,1) the
// bottom-right.
type Patch struct {
	Index    int
	Name     string
	Row, Col int
	Bounds   orb.Bound
}

// A Layout describes where the patches of one chart type sit. Layouts are
// built once, when the package initializes, and must never be mutated.
type Layout struct {
	Name       string
	Rows, Cols int
	Aspect     float64 // Chart width / height, as printed
	InsetRatio float64 // Default fraction of each patch dimension to discard, per side
	Patches    []Patch // Row-major: top to bottom, left to right
	Neutrals   []int   // Indices of the grayscale patches, darkest last or first, we don't care
}

// GridSpec is the physical description of a regular patch grid, from which
// NewGridLayout computes the fractional bounds.
type GridSpec struct {
	Name       string
	Rows, Cols int
	Aspect     float64
	MarginX    float64 // Fraction of the chart width outside the grid, each side
	MarginY    float64 // Fraction of the chart height outside the grid, top and bottom
	Gap        float64 // Fraction of each cell that is black border between patches
	InsetRatio float64
	Names      []string
	Neutrals   []int
}

func NewGridLayout(g GridSpec) (Layout, error) {
	if g.Rows <= 0 || g.Cols <= 0 {
		return Layout{}, fmt.Errorf("chart %q: bad grid %dx%d", g.Name, g.Rows, g.Cols)
	}
	if len(g.Names) != 0 && len(g.Names) != g.Rows*g.Cols {
		return Layout{}, fmt.Errorf("chart %q: %d names for %d patches", g.Name, len(g.Names), g.Rows*g.Cols)
	}

	cellW := (1.0 - 2*g.MarginX) / float64(g.Cols)
	cellH := (1.0 - 2*g.MarginY) / float64(g.Rows)

	l := Layout{
		Name:       g.Name,
		Rows:       g.Rows,
		Cols:       g.Cols,
		Aspect:     g.Aspect,
		InsetRatio: g.InsetRatio,
		Neutrals:   append([]int{}, g.Neutrals...),
	}

	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			i := r*g.Cols + c
			name := fmt.Sprintf("patch_%02d", i+1)
			if len(g.Names) > 0 {
				name = g.Names[i]
			}

			x0 := g.MarginX + float64(c)*cellW
			y0 := g.MarginY + float64(r)*cellH
			gx, gy := cellW*g.Gap/2.0, cellH*g.Gap/2.0

			l.Patches = append(l.Patches, Patch{
				Index: i,
				Name:  name,
				Row:   r,
				Col:   c,
				Bounds: orb.Bound{
					Min: orb.Point{x0 + gx, y0 + gy},
					Max: orb.Point{x0 + cellW - gx, y0 + cellH - gy},
				},
			})
		}
	}

	return l, l.Validate()
}

func (l Layout) NumPatches() int { return len(l.Patches) }

func (l Layout) String() string {
	return fmt.Sprintf("%s[%dx%d, aspect %.3f, %d neutrals]", l.Name, l.Rows, l.Cols, l.Aspect, len(l.Neutrals))
}

func (l Layout) Validate() error {
	if l.Aspect <= 0 {
		return fmt.Errorf("chart %q: aspect must be positive", l.Name)
	}
	if l.InsetRatio < 0 || l.InsetRatio >= 0.5 {
		return fmt.Errorf("chart %q: inset ratio %f not in [0, 0.5)", l.Name, l.InsetRatio)
	}
	for _, p := range l.Patches {
		b := p.Bounds
		if b.Min[0] < 0 || b.Min[1] < 0 || b.Max[0] > 1 || b.Max[1] > 1 || b.Min[0] >= b.Max[0] || b.Min[1] >= b.Max[1] {
			return fmt.Errorf("chart %q: patch %d has bad bounds %v", l.Name, p.Index, b)
		}
	}
	for _, n := range l.Neutrals {
		if n < 0 || n >= len(l.Patches) {
			return fmt.Errorf("chart %q: neutral index %d out of range", l.Name, n)
		}
	}
	return nil
}

func (l Layout) IsNeutral(i int) bool {
	for _, n := range l.Neutrals {
		if n == i {
			return true
		}
	}
	return false
}

// RectifiedSize returns the canvas dimensions for a given width, keeping
// the chart's aspect ratio.
func (l Layout) RectifiedSize(width float64) (float64, float64) {
	return width, width / l.Aspect
}

// PatchRect scales a patch's fractional bounds onto a w x h canvas.
func (l Layout) PatchRect(i int, w, h float64) orb.Bound {
	b := l.Patches[i].Bounds
	return orb.Bound{
		Min: orb.Point{b.Min[0] * w, b.Min[1] * h},
		Max: orb.Point{b.Max[0] * w, b.Max[1] * h},
	}
}

// Centers returns the patch centers on a w x h canvas, row-major.
func (l Layout) Centers(w, h float64) []orb.Point {
	pts := make([]orb.Point, len(l.Patches))
	for i := range l.Patches {
		pts[i] = l.PatchRect(i, w, h).Center()
	}
	return pts
}

// CellAt returns the index of the patch containing the fractional point p.
// Points in the margins or the gaps between patches return false.
func (l Layout) CellAt(p orb.Point) (int, bool) {
	for _, patch := range l.Patches {
		if patch.Bounds.Contains(p) {
			return patch.Index, true
		}
	}
	return -1, false
}

// Inset shrinks a box by ratio r of its own width and height, on every side.
func Inset(b orb.Bound, r float64) orb.Bound {
	dx := (b.Max[0] - b.Min[0]) * r
	dy := (b.Max[1] - b.Min[1]) * r
	return orb.Bound{
		Min: orb.Point{b.Min[0] + dx, b.Min[1] + dy},
		Max: orb.Point{b.Max[0] - dx, b.Max[1] - dy},
	}
}
