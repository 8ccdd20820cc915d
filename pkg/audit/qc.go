package audit

// Images for a human to check that the corners and patch windows landed
// where they should. None of this feeds back into the audit.

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/fogleman/gg"
	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/paulmach/orb"

	"github.com/ggvfx/precision-color-auditor/pkg/chart"
	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// RectifiedCrop materializes the rectified canvas, by pulling each canvas
// pixel back into the image (nearest neighbour). Canvas pixels that fall
// outside the image stay black.
func RectifiedCrop(buf *Buffer, h emath.Homography, layout chart.Layout, cfg Config) *Buffer {
	w, ht := layout.RectifiedSize(cfg.RectifiedWidth)
	crop := NewBuffer(image.Rect(0, 0, int(math.Round(w)), int(math.Round(ht))))

	for y := 0; y < crop.Rect.Dy(); y++ {
		for x := 0; x < crop.Rect.Dx(); x++ {
			p, ok := h.Inverse(orb.Point{float64(x) + 0.5, float64(y) + 0.5})
			if !ok {
				continue
			}
			src := image.Point{int(math.Floor(p[0])), int(math.Floor(p[1]))}
			if src.In(buf.Rect) {
				crop.Set(x, y, buf.RGB(src.X, src.Y))
			}
		}
	}
	return crop
}

// LuminanceGrid is a single channel view of a buffer.
func LuminanceGrid(buf *Buffer) emath.FloatGrid {
	fg := emath.NewFloatGrid(buf.Rect.Dx(), buf.Rect.Dy())
	for y := 0; y < buf.Rect.Dy(); y++ {
		for x := 0; x < buf.Rect.Dx(); x++ {
			fg.Set(x, y, emath.Luminance(buf.RGB(buf.Rect.Min.X+x, buf.Rect.Min.Y+y)))
		}
	}
	return fg
}

// DisplayImage renders linear light values as 16 bit sRGB, clipping at 1.0.
func DisplayImage(buf *Buffer) *image.RGBA64 {
	img := image.NewRGBA64(buf.Rect)
	for y := buf.Rect.Min.Y; y < buf.Rect.Max.Y; y++ {
		for x := buf.Rect.Min.X; x < buf.Rect.Max.X; x++ {
			v := buf.RGB(x, y)
			v.FloorAt(0)
			v.CeilingAt(1)
			v = emath.GammaExpand_sRGB(v)
			img.Set(x, y, color.RGBA64{uint16(v[0] * 0xFFFF), uint16(v[1] * 0xFFFF), uint16(v[2] * 0xFFFF), 0xFFFF})
		}
	}
	return img
}

// DrawOverlay draws the chart outline and every patch's sampling window
// over the image; valid windows in green, invalid ones in red.
func DrawOverlay(buf *Buffer, h emath.Homography, layout chart.Layout, cfg Config, samples []PatchSample) (image.Image, error) {
	base, err := Tonemap(buf, cfg.QCTonemapper)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContextForImage(base)
	w, ht := layout.RectifiedSize(cfg.RectifiedWidth)

	dc.SetLineWidth(2)
	dc.SetRGB(1, 1, 0)
	drawRectifiedBox(dc, h, orb.Bound{Max: orb.Point{w, ht}}, -buf.Rect.Min.X, -buf.Rect.Min.Y)
	dc.Stroke()

	inset := cfg.InsetRatio(layout)
	for i := range layout.Patches {
		valid := i < len(samples) && samples[i].Valid
		if valid {
			dc.SetRGB(0, 1, 0)
		} else {
			dc.SetRGB(1, 0, 0)
		}
		window := chart.Inset(layout.PatchRect(i, w, ht), inset)
		drawRectifiedBox(dc, h, window, -buf.Rect.Min.X, -buf.Rect.Min.Y)
		dc.Stroke()

		if c, ok := h.Inverse(window.Center()); ok {
			dc.DrawStringAnchored(fmt.Sprintf("%d", i+1), c[0]-float64(buf.Rect.Min.X), c[1]-float64(buf.Rect.Min.Y), 0.5, 0.5)
		}
	}

	return dc.Image(), nil
}

func drawRectifiedBox(dc *gg.Context, h emath.Homography, b orb.Bound, dx, dy int) {
	for i, p := range []orb.Point{b.Min, {b.Max[0], b.Min[1]}, b.Max, {b.Min[0], b.Max[1]}} {
		q, ok := h.Inverse(p)
		if !ok {
			return
		}
		if i == 0 {
			dc.MoveTo(q[0]+float64(dx), q[1]+float64(dy))
		} else {
			dc.LineTo(q[0]+float64(dx), q[1]+float64(dy))
		}
	}
	dc.ClosePath()
}

func WritePNG(img image.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return png.Encode(writer, img)
	}
}

// WriteToHDR outputs a Radiance HDR image, which keeps values above 1.0.
func WriteToHDR(img hdr.Image, filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("WriteToHDR, open+w '%s': %v", filename, err)
	} else {
		defer writer.Close()
		return rgbe.Encode(writer, img)
	}
}

// WriteQC writes the overlay, the rectified crop (as .hdr) and a luminance
// map of the crop, all named after prefix.
func WriteQC(res Result, buf *Buffer, layout chart.Layout, cfg Config, prefix string) error {
	overlay, err := DrawOverlay(buf, res.Homography, layout, cfg, res.Samples)
	if err != nil {
		return err
	}
	if err := WritePNG(overlay, prefix+"-overlay.png"); err != nil {
		return err
	}
	crop := RectifiedCrop(buf, res.Homography, layout, cfg)
	if err := WriteToHDR(crop, prefix+"-rectified.hdr"); err != nil {
		return err
	}
	lum := LuminanceGrid(crop)
	return lum.ToImg(fmt.Sprintf("%s luminance %s", res.Chart, lum.Stats()), prefix+"-luminance.png")
}
