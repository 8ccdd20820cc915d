package audit

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ggvfx/precision-color-auditor/pkg/cdl"
	"github.com/ggvfx/precision-color-auditor/pkg/chart"
	"github.com/ggvfx/precision-color-auditor/pkg/ecolor"
	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// A Result is everything one audit run produced.
type Result struct {
	RunID      string
	Name       string
	Chart      string
	Corners    emath.Quad
	Homography emath.Homography
	Signal     SignalRange
	Samples    []PatchSample // In the audit space
	Record     Record
	Correction cdl.Correction
	CDLSpace   ecolor.Space // Where Correction applies; the audit space if that is RGB
	Elapsed    time.Duration
}

func (r Result) String() string {
	return fmt.Sprintf("run %s [%s] %s\n  CDL (%s) %s", r.RunID, r.Name, r.Record, r.CDLSpace, r.Correction)
}

// Run audits one image: rectify, sample, normalize, audit, solve. Geometry
// and sampling errors are fatal and come back with an empty Result. An
// InsufficientDataError comes back with the Result filled in as far as it
// got, but no Correction.
func Run(buf *Buffer, corners emath.Quad, cfg Config) (Result, error) {
	tStart := time.Now()
	res := Result{RunID: uuid.New().String(), Corners: corners}

	if err := cfg.Validate(); err != nil {
		return res, fmt.Errorf("config: %w", err)
	}
	ch, err := chart.Lookup(cfg.ChartType)
	if err != nil {
		return res, err
	}
	res.Chart = ch.Layout.Name
	from, to, err := cfg.Spaces()
	if err != nil {
		return res, err
	}
	agg, err := cfg.GetAggregator()
	if err != nil {
		return res, err
	}
	tr := cfg.GetTransformer()

	res.Signal = buf.SignalRange()
	if cfg.Verbosity > 0 {
		log.Printf("[%s] %s %s\n", res.RunID, buf, res.Signal)
		for _, w := range res.Signal.Warnings {
			log.Printf("[%s] warning: %s\n", res.RunID, w)
		}
	}

	if res.Homography, err = Rectify(corners, ch.Layout, cfg); err != nil {
		return res, err
	}
	if cfg.Verbosity > 1 {
		log.Printf("[%s] %s\n", res.RunID, res.Homography)
	}

	samples, err := Sample(buf, res.Homography, ch.Layout, cfg)
	if err != nil {
		return res, err
	}
	if res.Samples, err = NormalizeAll(samples, from, to, tr, agg); err != nil {
		return res, err
	}
	if cfg.Verbosity > 1 {
		for _, s := range res.Samples {
			log.Printf("[%s] %s\n", res.RunID, s)
		}
	}

	res.Record, err = Audit(res.Samples, ch.Layout, ch.Reference, tr, cfg)
	if err != nil {
		var ide *InsufficientDataError
		if errors.As(err, &ide) && cfg.Verbosity > 0 {
			log.Printf("[%s] %s: %v\n", res.RunID, res.Record, err)
		}
		res.Elapsed = time.Since(tStart)
		return res, err
	}

	sampled, refs := res.Record.NeutralPairs()
	if res.CDLSpace, err = correctionPairs(sampled, refs, to, tr); err != nil {
		res.Elapsed = time.Since(tStart)
		return res, err
	}
	solverCfg := cfg.SolverConfig()
	solverCfg.Verbosity = cfg.Verbosity
	res.Correction = cdl.Solve(sampled, refs, solverCfg)

	res.Elapsed = time.Since(tStart)
	if cfg.Verbosity > 0 {
		log.Printf("[%s] %s, CDL %s (%s)\n", res.RunID, res.Record, res.Correction, res.Elapsed)
	}

	return res, nil
}

// correctionPairs moves the neutral pairs into an RGB space for the CDL
// solve, in place. Slope/offset/power only mean something on RGB light, so
// a Lab or XYZ audit is corrected in linear sRGB.
func correctionPairs(sampled, refs []emath.Vec3, space ecolor.Space, tr ecolor.Transformer) (ecolor.Space, error) {
	if space.IsRGB() {
		return space, nil
	}
	for _, vals := range [][]emath.Vec3{sampled, refs} {
		for i, v := range vals {
			rgb, err := tr.Transform(v, space, ecolor.LinearSRGB)
			if err != nil {
				return "", fmt.Errorf("cdl pairs: %w", err)
			}
			vals[i] = rgb
		}
	}
	return ecolor.LinearSRGB, nil
}
