package audit

import (
	"fmt"
	"image"

	"github.com/mdouchement/hdr/tmo"
)

var (
	// "clip" is no tone mapping at all; values above 1.0 just saturate.
	Tonemappers = []string{"clip", "drago03", "durand", "icam06", "linear", "reinhard05"}
)

func ListTonemappers() string {
	return fmt.Sprintf("%v", Tonemappers)
}

func validTonemapper(name string) bool {
	for _, tm := range Tonemappers {
		if tm == name {
			return true
		}
	}
	return name == ""
}

// Tonemap renders a buffer for display. Charts shot for audit rarely have
// much dynamic range, so "clip" is usually fine; the tmo operators help
// when the chart sits in a dark corner of an HDR plate.
func Tonemap(buf *Buffer, name string) (image.Image, error) {
	if name == "" || name == "clip" {
		return DisplayImage(buf), nil
	}
	op, err := setupTonemapper(buf, name)
	if err != nil {
		return nil, err
	}
	return op.Perform(), nil
}

// The tmo defaults tend to blow out the brightest patches, so some are
// reined in.
func setupTonemapper(buf *Buffer, name string) (tmo.ToneMappingOperator, error) {
	switch name {
	case "drago03":
		op := tmo.NewDefaultDrago03(buf)
		op.Bias = 1.0
		return op, nil

	case "durand":
		return tmo.NewDefaultDurand(buf), nil

	case "icam06":
		op := tmo.NewDefaultICam06(buf)
		op.Contrast = 0.65
		op.MaxClipping = 0.99999
		return op, nil

	case "linear":
		return tmo.NewLinear(buf), nil

	case "reinhard05":
		op := tmo.NewDefaultReinhard05(buf)
		op.Chromatic = 0.005
		op.Light = 0.005
		return op, nil
	}

	return nil, fmt.Errorf("tonemapper %q not recognized, wanted one of %s", name, ListTonemappers())
}
