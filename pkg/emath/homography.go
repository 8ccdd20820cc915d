package emath

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/mat"
)

// A Homography is a projective transform between the image and a flat,
// rectified canvas. Four point correspondences fully determine it, so we
// solve for it exactly rather than doing any least-squares fitting.
type Homography struct {
	Fwd Mat3 // image -> rectified
	Inv Mat3 // rectified -> image
}

// Below this, a homogeneous coordinate is treated as being at infinity
const wEpsilon = 1e-12

// NewHomography returns the transform that maps each src[i] exactly onto
// dst[i]. Both point sets are normalized (Hartley style) before solving, so
// that pixel coordinates in the thousands don't wreck the conditioning.
func NewHomography(src, dst [4]orb.Point) (Homography, error) {
	tSrc := normalizingTransform(src)
	tDst := normalizingTransform(dst)

	A := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		s := applyPoint(tSrc, src[i])
		d := applyPoint(tDst, dst[i])
		x, y, u, v := s[0], s[1], d[0], d[1]

		A.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		A.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	if det := mat.Det(A); math.Abs(det) < 1e-12 || math.IsNaN(det) {
		return Homography{}, &GeometryError{Reason: fmt.Sprintf("singular correspondence system (det=%g)", det), Corners: src}
	}

	var h mat.VecDense
	if err := h.SolveVec(A, b); err != nil {
		return Homography{}, &GeometryError{Reason: fmt.Sprintf("solve: %v", err), Corners: src}
	}

	hn := Mat3{
		h.AtVec(0), h.AtVec(1), h.AtVec(2),
		h.AtVec(3), h.AtVec(4), h.AtVec(5),
		h.AtVec(6), h.AtVec(7), 1,
	}
	if math.Abs(hn.Det()) < 1e-12 {
		return Homography{}, &GeometryError{Reason: "transform is numerically singular", Corners: src}
	}

	// Undo the normalization: H = inv(Tdst) * Hn * Tsrc
	tDstInv, ok := tDst.Inverse()
	if !ok {
		return Homography{}, &GeometryError{Reason: "degenerate target rectangle", Corners: src}
	}
	fwd := tDstInv.Mult(hn).Mult(tSrc)
	if fwd[8] != 0 {
		fwd = fwd.Scale(1.0 / fwd[8])
	}

	inv, ok := fwd.Inverse()
	if !ok {
		return Homography{}, &GeometryError{Reason: "transform is not invertible", Corners: src}
	}
	if inv[8] != 0 {
		inv = inv.Scale(1.0 / inv[8])
	}

	return Homography{Fwd: fwd, Inv: inv}, nil
}

// Forward maps an image point into the rectified canvas. The bool is false
// if the point maps to infinity.
func (h Homography) Forward(p orb.Point) (orb.Point, bool) { return project(h.Fwd, p) }

// Inverse maps a rectified point back into the image.
func (h Homography) Inverse(p orb.Point) (orb.Point, bool) { return project(h.Inv, p) }

func (h Homography) String() string {
	return fmt.Sprintf("Homography[\n%s]", h.Fwd)
}

func project(m Mat3, p orb.Point) (orb.Point, bool) {
	v := m.Apply(Vec3{p[0], p[1], 1})
	if math.Abs(v[2]) < wEpsilon {
		return orb.Point{}, false
	}
	return orb.Point{v[0] / v[2], v[1] / v[2]}, true
}

func applyPoint(m Mat3, p orb.Point) orb.Point {
	v := m.Apply(Vec3{p[0], p[1], 1})
	return orb.Point{v[0], v[1]}
}

// normalizingTransform translates the points to their centroid and scales
// them so the mean distance from it is sqrt(2).
func normalizingTransform(pts [4]orb.Point) Mat3 {
	cx, cy := 0.0, 0.0
	for _, p := range pts {
		cx += p[0] / 4.0
		cy += p[1] / 4.0
	}
	meanDist := 0.0
	for _, p := range pts {
		meanDist += math.Hypot(p[0]-cx, p[1]-cy) / 4.0
	}
	s := 1.0
	if meanDist > 0 {
		s = math.Sqrt2 / meanDist
	}
	return Mat3{
		s, 0, -s * cx,
		0, s, -s * cy,
		0, 0, 1,
	}
}
