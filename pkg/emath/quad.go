package emath

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// A Quad is the four corners of a chart, in image pixel coordinates
// (y grows downwards). The order is top-left, top-right, bottom-right,
// bottom-left, i.e. clockwise as seen on screen.
type Quad [4]orb.Point

// A GeometryError means the corners can't describe a chart; nothing
// downstream of it can run.
type GeometryError struct {
	Reason  string
	Corners Quad
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry: %s (corners %s)", e.Reason, e.Corners)
}

func (q Quad) String() string {
	return fmt.Sprintf("[(%.2f,%.2f) (%.2f,%.2f) (%.2f,%.2f) (%.2f,%.2f)]",
		q[0][0], q[0][1], q[1][0], q[1][1], q[2][0], q[2][1], q[3][0], q[3][1])
}

// Ring returns the closed ring for the quad, for use with orb/planar.
func (q Quad) Ring() orb.Ring {
	return orb.Ring{q[0], q[1], q[2], q[3], q[0]}
}

func (q Quad) Bound() orb.Bound { return q.Ring().Bound() }

// SignedArea is positive when the corners run clockwise on screen. (orb
// thinks of that as counter-clockwise, since it assumes y grows upwards.)
func (q Quad) SignedArea() float64 {
	_, a := planar.CentroidArea(q.Ring())
	return a
}

func (q Quad) Centroid() orb.Point {
	c := orb.Point{}
	for _, p := range q {
		c[0] += p[0] / 4.0
		c[1] += p[1] / 4.0
	}
	return c
}

// Validate rejects corner sets that would give a meaningless (or
// numerically singular) projective transform. minArea is in square pixels.
func (q Quad) Validate(minArea float64) error {
	for _, p := range q {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return &GeometryError{Reason: "non-finite corner", Corners: q}
		}
	}

	area := q.SignedArea()
	if math.Abs(area) < minArea {
		return &GeometryError{Reason: fmt.Sprintf("near-zero area (%g px^2)", area), Corners: q}
	}

	for i := 0; i < 4; i++ {
		a, b, c := q[i], q[(i+1)%4], q[(i+2)%4]
		e1 := sub(b, a)
		e2 := sub(c, b)
		if math.Abs(cross(e1, e2)) <= 1e-9*norm(e1)*norm(e2) {
			return &GeometryError{Reason: fmt.Sprintf("corners %d,%d,%d are collinear", i, (i+1)%4, (i+2)%4), Corners: q}
		}
	}

	if segmentsCross(q[0], q[1], q[2], q[3]) || segmentsCross(q[1], q[2], q[3], q[0]) {
		return &GeometryError{Reason: "quadrilateral is self-intersecting", Corners: q}
	}

	// All the turns must go the same way, else the quad is concave
	sign := 0.0
	for i := 0; i < 4; i++ {
		a, b, c := q[i], q[(i+1)%4], q[(i+2)%4]
		turn := cross(sub(b, a), sub(c, b))
		if sign == 0 {
			sign = math.Copysign(1, turn)
		} else if math.Copysign(1, turn) != sign {
			return &GeometryError{Reason: "quadrilateral is not convex", Corners: q}
		}
	}

	if area < 0 {
		return &GeometryError{Reason: "corners are not clockwise from top-left", Corners: q}
	}

	return nil
}

// Overlaps is true if the quad and the bound share any area. A quad that
// only overlaps the bound's bounding box, such as a thin rotated chart
// sitting off past a corner, does not count.
func (q Quad) Overlaps(b orb.Bound) bool {
	for _, p := range q {
		if b.Contains(p) {
			return true
		}
	}
	ring := q.Ring()
	box := [4]orb.Point{b.Min, {b.Max[0], b.Min[1]}, b.Max, {b.Min[0], b.Max[1]}}
	for _, p := range box {
		if planar.RingContains(ring, p) {
			return true
		}
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if segmentsCross(q[i], q[(i+1)%4], box[j], box[(j+1)%4]) {
				return true
			}
		}
	}
	return false
}

// Canonical reorders the corners into clockwise order starting at the
// top-left (the corner with the smallest x+y). Localizers don't always
// agree on a winding, so this lets callers normalize before Validate.
func (q Quad) Canonical() Quad {
	c := q.Centroid()
	pts := []orb.Point{q[0], q[1], q[2], q[3]}

	// With y pointing down, ascending atan2 sweeps clockwise on screen
	sort.SliceStable(pts, func(i, j int) bool {
		return math.Atan2(pts[i][1]-c[1], pts[i][0]-c[0]) < math.Atan2(pts[j][1]-c[1], pts[j][0]-c[0])
	})

	start := 0
	for i := 1; i < 4; i++ {
		if pts[i][0]+pts[i][1] < pts[start][0]+pts[start][1] {
			start = i
		}
	}

	out := Quad{}
	for i := 0; i < 4; i++ {
		out[i] = pts[(start+i)%4]
	}
	return out
}

func sub(a, b orb.Point) orb.Point { return orb.Point{a[0] - b[0], a[1] - b[1]} }
func cross(a, b orb.Point) float64 { return a[0]*b[1] - a[1]*b[0] }
func norm(a orb.Point) float64 { return math.Hypot(a[0], a[1]) }
func orient(a, b, c orb.Point) float64 { return cross(sub(b, a), sub(c, a)) }

// segmentsCross is true if p1p2 and p3p4 properly intersect.
func segmentsCross(p1, p2, p3, p4 orb.Point) bool {
	d1 := orient(p3, p4, p1)
	d2 := orient(p3, p4, p2)
	d3 := orient(p1, p2, p3)
	d4 := orient(p1, p2, p4)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}
