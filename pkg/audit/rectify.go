package audit

import (
	"github.com/paulmach/orb"

	"github.com/ggvfx/precision-color-auditor/pkg/chart"
	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// Rectify validates the corners and solves for the transform that maps them
// onto the chart's rectified canvas (rectified_width wide, with the chart's
// aspect ratio).
func Rectify(q emath.Quad, layout chart.Layout, cfg Config) (emath.Homography, error) {
	if cfg.ReorderCorners {
		q = q.Canonical()
	}
	if err := q.Validate(cfg.MinQuadArea); err != nil {
		return emath.Homography{}, err
	}

	w, h := layout.RectifiedSize(cfg.RectifiedWidth)
	dst := [4]orb.Point{{0, 0}, {w, 0}, {w, h}, {0, h}}

	return emath.NewHomography(q, dst)
}
