package audit

import (
	"math"

	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// CIEDE2000, after Sharma, Wu & Dalal (2005):
// http://www2.ece.rochester.edu/~gsharma/ciede2000/ciede2000noteCRNA.pdf

var pow25to7 = math.Pow(25, 7)

func rad(deg float64) float64 { return deg * math.Pi / 180.0 }
func deg(rad float64) float64 { return rad * 180.0 / math.Pi }

// hueAngle in degrees, [0,360)
func hueAngle(b, ap float64) float64 {
	if b == 0 && ap == 0 {
		return 0
	}
	h := deg(math.Atan2(b, ap))
	if h < 0 {
		h += 360
	}
	return h
}

// DeltaE2000 is the CIEDE2000 difference between two L*a*b* colors, with
// kL = kC = kH = 1. It is symmetric in its arguments.
func DeltaE2000(lab1, lab2 emath.Vec3) float64 {
	l1, a1, b1 := lab1[0], lab1[1], lab1[2]
	l2, a2, b2 := lab2[0], lab2[1], lab2[2]

	cBar := (math.Hypot(a1, b1) + math.Hypot(a2, b2)) / 2.0
	cBar7 := math.Pow(cBar, 7)
	g := 0.5 * (1 - math.Sqrt(cBar7/(cBar7+pow25to7)))

	a1p, a2p := (1+g)*a1, (1+g)*a2
	c1p, c2p := math.Hypot(a1p, b1), math.Hypot(a2p, b2)
	h1p, h2p := hueAngle(b1, a1p), hueAngle(b2, a2p)

	dLp := l2 - l1
	dCp := c2p - c1p

	dhp := 0.0
	if c1p*c2p != 0 {
		dhp = h2p - h1p
		if dhp > 180 {
			dhp -= 360
		} else if dhp < -180 {
			dhp += 360
		}
	}
	dHp := 2 * math.Sqrt(c1p*c2p) * math.Sin(rad(dhp/2.0))

	lBarp := (l1 + l2) / 2.0
	cBarp := (c1p + c2p) / 2.0

	hBarp := h1p + h2p
	if c1p*c2p != 0 {
		switch {
		case math.Abs(h1p-h2p) <= 180:
			hBarp = (h1p + h2p) / 2.0
		case h1p+h2p < 360:
			hBarp = (h1p + h2p + 360) / 2.0
		default:
			hBarp = (h1p + h2p - 360) / 2.0
		}
	}

	t := 1 -
		0.17*math.Cos(rad(hBarp-30)) +
		0.24*math.Cos(rad(2*hBarp)) +
		0.32*math.Cos(rad(3*hBarp+6)) -
		0.20*math.Cos(rad(4*hBarp-63))

	dTheta := 30 * math.Exp(-math.Pow((hBarp-275)/25, 2))
	cBarp7 := math.Pow(cBarp, 7)
	rC := 2 * math.Sqrt(cBarp7/(cBarp7+pow25to7))

	lm50 := (lBarp - 50) * (lBarp - 50)
	sL := 1 + 0.015*lm50/math.Sqrt(20+lm50)
	sC := 1 + 0.045*cBarp
	sH := 1 + 0.015*cBarp*t
	rT := -math.Sin(rad(2*dTheta)) * rC

	dl := dLp / sL
	dc := dCp / sC
	dh := dHp / sH

	return math.Sqrt(dl*dl + dc*dc + dh*dh + rT*dc*dh)
}
