package emath

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/fogleman/gg" // Move to https://pkg.go.dev/golang.org/x/image/font#Drawer sometime
)

// A FloatGrid is a grid of floats, with some operations. We use it for
// single-channel views of a rectified chart (e.g. luminance), mostly so a
// human can eyeball whether the corners were any good.
type FloatGrid struct {
	stride int
	values []float64
}

func NewFloatGrid(w, h int) FloatGrid {
	return FloatGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

func (fg *FloatGrid) Set(x, y int, v float64) { fg.values[fg.stride*y+x] = v }
func (fg *FloatGrid) Get(x, y int) float64    { return fg.values[fg.stride*y+x] }
func (fg *FloatGrid) Dx() int                 { return fg.stride }
func (fg *FloatGrid) Dy() int {
	if fg.stride == 0 {
		return 0
	}
	return len(fg.values) / fg.stride
}

// MinMax ignores NaNs, which we use to mark cells that fell off the source image.
func (fg *FloatGrid) MinMax() (float64, float64) {
	min := math.MaxFloat64
	max := -1.0 * min
	for _, v := range fg.values {
		if math.IsNaN(v) {
			continue
		}
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return min, max
}

// Percentile returns the value at fraction p (0.0->1.0) of the sorted,
// non-NaN values.
func (fg *FloatGrid) Percentile(p float64) float64 {
	vals := []float64{}
	for _, v := range fg.values {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)

	i := int(p * float64(len(vals)))
	if i < 0 {
		i = 0
	}
	if i >= len(vals) {
		i = len(vals) - 1
	}
	return vals[i]
}

func (fg *FloatGrid) Stats() string {
	min, max := fg.MinMax()
	return fmt.Sprintf("fg[%dx%d, vals{%f,%f}]", fg.Dx(), fg.Dy(), min, max)
}

// ToImage renders a grayscale, based on the range of values in the grid,
// gamma scaling the gray to look normal for human vision. NaN cells come out black.
func (fg *FloatGrid) ToImage() *image.RGBA64 {
	min, max := fg.MinMax()
	span := max - min
	if span <= 0 {
		span = 1
	}

	img := image.NewRGBA64(image.Rectangle{Max: image.Point{fg.Dx(), fg.Dy()}})
	for x := 0; x < fg.Dx(); x++ {
		for y := 0; y < fg.Dy(); y++ {
			lum := fg.Get(x, y)
			if math.IsNaN(lum) {
				img.Set(x, y, color.RGBA64{0, 0, 0, 0xFFFF})
				continue
			}
			gray := GammaExpand_F64(Clamp((lum-min)/span, 0, 1))
			img.Set(x, y, color.RGBA64{uint16(gray * 65535.0), uint16(gray * 65535.0), uint16(gray * 65535.0), 0xFFFF})
		}
	}
	return img
}

// ToImg saves the grid as a PNG, with a title written on it
func (fg *FloatGrid) ToImg(title, filename string) error {
	dc := gg.NewContextForImage(fg.ToImage())
	dc.SetRGB(1, 0, 0)
	dc.DrawString(title, 10, 20)
	return dc.SavePNG(filename)
}
