package cdl

import (
	"gonum.org/v1/gonum/optimize"
)

// An Objective is minimized by an Optimizer.
type Objective func(x []float64) float64

// OptResult is what an Optimizer found. X is always the best point seen,
// even when Converged is false.
type OptResult struct {
	X           []float64
	F           float64
	Iterations  int
	Evaluations int
	Converged   bool
	Status      string
}

// An Optimizer is a local minimizer. It stops when the objective has
// improved by less than tol for a while, or after maxIter iterations.
type Optimizer interface {
	Minimize(f Objective, seed []float64, maxIter int, tol float64) (OptResult, error)
}

// NelderMead is the default Optimizer, gonum's downhill simplex.
type NelderMead struct {
	// How many iterations in a row must improve by less than tol before we
	// call it converged.
	StallIterations int
}

const defaultStallIterations = 25

func (nm NelderMead) Minimize(f Objective, seed []float64, maxIter int, tol float64) (OptResult, error) {
	stall := nm.StallIterations
	if stall <= 0 {
		stall = defaultStallIterations
	}

	p := optimize.Problem{Func: f}
	settings := &optimize.Settings{
		MajorIterations: maxIter,
		Converger: &optimize.FunctionConverge{
			Absolute:   tol,
			Iterations: stall,
		},
	}

	res, err := optimize.Minimize(p, seed, settings, &optimize.NelderMead{})
	if res == nil {
		return OptResult{X: append([]float64{}, seed...), F: f(seed)}, err
	}

	return OptResult{
		X:           res.X,
		F:           res.F,
		Iterations:  res.Stats.MajorIterations,
		Evaluations: res.Stats.FuncEvaluations,
		Converged:   err == nil && !res.Status.Early(),
		Status:      res.Status.String(),
	}, err
}
