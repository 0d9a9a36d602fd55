package vdensetrack

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// SolvingMethod selects the optimizer for the per-level linear step.
type SolvingMethod int

const (
	// GaussNewton is the only implemented method.
	GaussNewton SolvingMethod = iota
	// LevenbergMarquardt is reserved and rejected at construction.
	LevenbergMarquardt
	// GradientDescent is reserved and rejected at construction.
	GradientDescent
)

// AssemblyMethod selects how the 6x6 normal equations are reduced.
type AssemblyMethod int

const (
	// AssemblyDense forms J^T*W explicitly and uses dense gonum products.
	AssemblyDense AssemblyMethod = iota
	// AssemblyReduce accumulates grouped partial sums per entry.
	AssemblyReduce
)

// AccumulationMethod selects how per-frame motion folds into the running
// pose. The inverse-incremental form is what downstream consumers of this
// tracker integrate against; do not change the default casually.
type AccumulationMethod int

const (
	// AccumulateInverseIncremental applies xiTotal = log(exp(xiTotal) * exp(xi)^-1).
	AccumulateInverseIncremental AccumulationMethod = iota
	// AccumulateForwardIncremental applies xiTotal = log(exp(xi) * exp(xiTotal)).
	AccumulateForwardIncremental
)

// Options configures a Tracker.
type Options struct {
	// MinLevel is the finest pyramid level used; 0 is full resolution.
	MinLevel int
	// MaxLevel is the coarsest pyramid level index; the pyramid has
	// MaxLevel+1 levels.
	MaxLevel int
	// UseTDistWeights enables Student-t residual weighting.
	UseTDistWeights bool
	// MaxIterationsPerLevel caps inner iterations at each level.
	MaxIterationsPerLevel int
	// Method selects the solver; only GaussNewton is supported.
	Method SolvingMethod
	// Assembly selects the normal-equation assembler.
	Assembly AssemblyMethod
	// Accumulation selects the pose accumulation convention.
	Accumulation AccumulationMethod
}

// DefaultOptions mirrors the defaults the tracker was tuned with.
func DefaultOptions() Options {
	return Options{
		MinLevel:              0,
		MaxLevel:              4,
		UseTDistWeights:       true,
		MaxIterationsPerLevel: 20,
		Method:                GaussNewton,
		Assembly:              AssemblyDense,
		Accumulation:          AccumulateInverseIncremental,
	}
}

// validate reports every configuration problem at once.
func (o Options) validate(width, height int) error {
	var err error
	if width <= 0 || height <= 0 {
		err = multierr.Append(err, errors.Wrapf(ErrBadGeometry, "image size %dx%d", width, height))
	}
	if o.MinLevel < 0 || o.MaxLevel < o.MinLevel {
		err = multierr.Append(err, errors.Wrapf(ErrBadGeometry, "levels [%d,%d]", o.MinLevel, o.MaxLevel))
	} else if width < (1<<o.MaxLevel) || height < (1<<o.MaxLevel) {
		err = multierr.Append(err, errors.Wrapf(ErrBadGeometry,
			"image %dx%d cannot hold %d pyramid levels", width, height, o.MaxLevel+1))
	}
	if o.MaxIterationsPerLevel < 1 {
		err = multierr.Append(err, errors.Wrapf(ErrBadGeometry, "maxIterationsPerLevel %d", o.MaxIterationsPerLevel))
	}
	if o.Method != GaussNewton {
		err = multierr.Append(err, errors.Wrapf(ErrUnsupportedSolver, "method %d", o.Method))
	}
	if o.Assembly != AssemblyDense && o.Assembly != AssemblyReduce {
		err = multierr.Append(err, errors.Wrapf(ErrUnsupportedSolver, "assembly %d", o.Assembly))
	}
	return err
}
