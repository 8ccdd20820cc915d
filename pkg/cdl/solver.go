package cdl

import (
	"fmt"
	"log"
	"math"

	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// Bounds on the fitted parameters
const (
	MinPower = 0.1
	MaxPower = 10.0
	MinSlope = 1e-6

	penalty = 1e10
)

type Config struct {
	MaxIterations int
	Tolerance     float64   // Stop once the squared error improves by less than this
	Optimizer     Optimizer // nil means NelderMead
	Verbosity     int
}

func (c Config) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("solver_max_iterations must be at least 1")
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("solver_convergence_tolerance must be positive")
	}
	return nil
}

func (c Config) optimizer() Optimizer {
	if c.Optimizer == nil {
		return NelderMead{}
	}
	return c.Optimizer
}

// Solve fits a Correction that takes the sampled neutrals onto their
// references, each channel on its own. Samples and references must be in
// the same (linear) space, paired by index.
func Solve(samples, refs []emath.Vec3, cfg Config) Correction {
	return SolveWeighted(samples, refs, nil, cfg)
}

// SolveWeighted is Solve with a weight per patch; nil weights are all 1.
// A failure to converge is reported in the Correction, never as an error;
// the best parameters found are returned regardless.
func SolveWeighted(samples, refs []emath.Vec3, weights []float64, cfg Config) Correction {
	c := Identity()
	n := len(samples)
	if len(refs) < n {
		n = len(refs)
	}
	c.NumPatches = n
	if n == 0 {
		c.DidNotConverge = true
		return c
	}

	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0
		if i < len(weights) {
			w[i] = weights[i]
		}
	}

	totalSq, totalW := 0.0, 0.0
	for ch := 0; ch < 3; ch++ {
		in := make([]float64, n)
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			in[i] = samples[i][ch]
			out[i] = refs[i][ch]
		}

		sse := func(x []float64) float64 {
			slope, offset, power := x[0], x[1], x[2]
			if slope < MinSlope || power < MinPower || power > MaxPower {
				// Out of bounds; push the simplex back in
				return penalty * (1 + outOfBounds(slope, power))
			}
			return weightedSSE(in, out, w, slope, offset, power)
		}

		res, err := cfg.optimizer().Minimize(sse, []float64{1, 0, 1}, cfg.MaxIterations, cfg.Tolerance)
		if err != nil && cfg.Verbosity > 0 {
			log.Printf("cdl: channel %d optimizer: %v\n", ch, err)
		}

		x := res.X
		if len(x) != 3 {
			x = []float64{1, 0, 1}
		}
		slope := math.Max(x[0], MinSlope)
		power := emath.Clamp(x[2], MinPower, MaxPower)

		c.Slope[ch], c.Offset[ch], c.Power[ch] = slope, x[1], power
		c.Converged[ch] = res.Converged
		c.Iterations[ch] = res.Iterations
		if !res.Converged {
			c.DidNotConverge = true
		}

		sq := weightedSSE(in, out, w, slope, x[1], power)
		sumW := 0.0
		for _, wi := range w {
			sumW += wi
		}
		if sumW > 0 {
			c.Residual[ch] = math.Sqrt(sq / sumW)
		}
		totalSq += sq
		totalW += sumW

		if cfg.Verbosity > 1 {
			log.Printf("cdl: channel %d %s after %d iters (%d evals): s=%f o=%f p=%f rms=%g\n",
				ch, res.Status, res.Iterations, res.Evaluations, slope, x[1], power, c.Residual[ch])
		}
	}

	if totalW > 0 {
		c.RMS = math.Sqrt(totalSq / totalW)
	}
	return c
}

func weightedSSE(in, out, w []float64, slope, offset, power float64) float64 {
	sum := 0.0
	for i := range in {
		d := transfer(in[i], slope, offset, power) - out[i]
		sum += w[i] * d * d
	}
	return sum
}

func outOfBounds(slope, power float64) float64 {
	d := 0.0
	if slope < MinSlope {
		d += MinSlope - slope
	}
	if power < MinPower {
		d += MinPower - power
	}
	if power > MaxPower {
		d += power - MaxPower
	}
	return d
}
