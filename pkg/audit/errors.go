package audit

import (
	"fmt"
	"image"

	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// GeometryError is raised by corner validation and by the homography solve.
type GeometryError = emath.GeometryError

// A SamplingError is a structural failure: there is nothing to sample at all.
type SamplingError struct {
	Reason string
	Bounds image.Rectangle
}

func (e *SamplingError) Error() string {
	return fmt.Sprintf("sampling: %s (image %v)", e.Reason, e.Bounds)
}

// An InsufficientDataError means too few patches could be measured for the
// audit to mean anything. The samples and the partially filled record are
// kept so callers can see which patches failed.
type InsufficientDataError struct {
	Reason  string
	Samples []PatchSample
	Partial *Record
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s", e.Reason)
}
