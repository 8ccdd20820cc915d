package audit

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"

	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// A Buffer is a float RGB image, typically linear light. It implements
// hdr.Image, so it can be written out as a Radiance .hdr file. The values
// are never modified by the audit.
type Buffer struct {
	Rect image.Rectangle
	Pix  []float64 // Row-major, three floats per pixel
}

func NewBuffer(r image.Rectangle) *Buffer {
	return &Buffer{
		Rect: r,
		Pix:  make([]float64, 3*r.Dx()*r.Dy()),
	}
}

// NewBufferFromImage copies an image into a Buffer. HDR images keep their
// float values; anything else is scaled from [0,0xFFFF] to [0,1] without
// any linearization (the caller declares what the numbers mean).
func NewBufferFromImage(img image.Image) *Buffer {
	b := NewBuffer(img.Bounds())
	hdrImg, isHDR := img.(hdr.Image)

	for y := b.Rect.Min.Y; y < b.Rect.Max.Y; y++ {
		for x := b.Rect.Min.X; x < b.Rect.Max.X; x++ {
			if isHDR {
				r, g, bl, _ := hdrImg.HDRAt(x, y).HDRRGBA()
				b.Set(x, y, emath.Vec3{r, g, bl})
			} else {
				r, g, bl, _ := img.At(x, y).RGBA() // channel values in range [0, 0xFFFF]
				b.Set(x, y, emath.Vec3{float64(r) / 0xFFFF, float64(g) / 0xFFFF, float64(bl) / 0xFFFF})
			}
		}
	}
	return b
}

// Implement image.Image
func (b *Buffer) ColorModel() color.Model { return hdrcolor.RGBModel }
func (b *Buffer) Bounds() image.Rectangle { return b.Rect }
func (b *Buffer) At(x, y int) color.Color { return b.HDRAt(x, y) }

// Implement hdr.Image
func (b *Buffer) HDRAt(x, y int) hdrcolor.Color {
	v := b.RGB(x, y)
	return hdrcolor.RGB{R: v[0], G: v[1], B: v[2]}
}
func (b *Buffer) Size() int { return b.Rect.Dx() * b.Rect.Dy() }

func (b *Buffer) Empty() bool { return b == nil || b.Rect.Empty() }

func (b *Buffer) offset(x, y int) int {
	return 3 * ((y-b.Rect.Min.Y)*b.Rect.Dx() + (x - b.Rect.Min.X))
}

func (b *Buffer) RGB(x, y int) emath.Vec3 {
	if !(image.Point{x, y}.In(b.Rect)) {
		return emath.Vec3{}
	}
	i := b.offset(x, y)
	return emath.Vec3{b.Pix[i], b.Pix[i+1], b.Pix[i+2]}
}

func (b *Buffer) Set(x, y int, v emath.Vec3) {
	if !(image.Point{x, y}.In(b.Rect)) {
		return
	}
	i := b.offset(x, y)
	b.Pix[i], b.Pix[i+1], b.Pix[i+2] = v[0], v[1], v[2]
}

// Fill paints a rectangle; mostly useful for building test charts.
func (b *Buffer) Fill(r image.Rectangle, v emath.Vec3) {
	r = r.Intersect(b.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			b.Set(x, y, v)
		}
	}
}

func (b *Buffer) String() string {
	return fmt.Sprintf("Buffer[%v]", b.Rect)
}

// SignalRange summarizes the pixel values on ingest, so obviously wrong
// inputs (clipped, display-referred, nearly black) get flagged early.
type SignalRange struct {
	Min, Max      float64 // Over all channels
	MeanLuminance float64
	NonFinite     int
	Warnings      []string
}

const lowSignalLuminance = 0.01

func (b *Buffer) SignalRange() SignalRange {
	sr := SignalRange{Min: math.MaxFloat64, Max: -math.MaxFloat64}
	if b.Empty() {
		sr.Min, sr.Max = 0, 0
		sr.Warnings = append(sr.Warnings, "empty image")
		return sr
	}

	lumSum, n := 0.0, 0
	for y := b.Rect.Min.Y; y < b.Rect.Max.Y; y++ {
		for x := b.Rect.Min.X; x < b.Rect.Max.X; x++ {
			v := b.RGB(x, y)
			if !v.IsFinite() {
				sr.NonFinite++
				continue
			}
			for _, f := range v {
				sr.Min = math.Min(sr.Min, f)
				sr.Max = math.Max(sr.Max, f)
			}
			lumSum += emath.Luminance(v)
			n++
		}
	}

	if n > 0 {
		sr.MeanLuminance = lumSum / float64(n)
	} else {
		sr.Min, sr.Max = 0, 0
	}

	if sr.NonFinite > 0 {
		sr.Warnings = append(sr.Warnings, fmt.Sprintf("%d pixels have non-finite values", sr.NonFinite))
	}
	if sr.Max > 1.0 {
		sr.Warnings = append(sr.Warnings, fmt.Sprintf("values above 1.0 (max %.3f), treating as scene-linear HDR", sr.Max))
	}
	if sr.Min < 0 {
		sr.Warnings = append(sr.Warnings, fmt.Sprintf("negative values (min %.4f)", sr.Min))
	}
	if sr.MeanLuminance < lowSignalLuminance {
		sr.Warnings = append(sr.Warnings, fmt.Sprintf("very low signal (mean luminance %.5f)", sr.MeanLuminance))
	}
	return sr
}

func (sr SignalRange) String() string {
	return fmt.Sprintf("signal[%.4f..%.4f, meanY=%.4f, %d warnings]", sr.Min, sr.Max, sr.MeanLuminance, len(sr.Warnings))
}
