package vdensetrack

import (
	"context"
	"math"

	"go.viam.com/rdk/utils"
)

const (
	// tDistDOF is the degrees of freedom of the Student-t noise model.
	tDistDOF = 5.0
	// varianceInitial seeds the residual scale estimate (sigma0 = 0.025).
	varianceInitial = 0.000625
	// varianceMaxIterations caps the inner scale estimation loop.
	varianceMaxIterations = 5
	// variancePrecision stops the scale loop once 1/sigma^2 moves less
	// than this between passes.
	variancePrecision = 1e-3
)

// computeWeights fills the weight raster for the current residuals.
//
// Uniform mode assigns 1 to valid pixels and 0 elsewhere. Student-t mode
// first refines the residual scale sigma^2 by expectation-maximization:
// each pass weighs the squared residuals with the previous scale and takes
// their mean over the valid pixels. The scale is carried in *variance so a
// level warm-starts each iteration from the last; the caller resets it to
// varianceInitial when a new level begins.
func (t *Tracker) computeWeights(ctx context.Context, n, validCount int, variance *float64) {
	if !t.opts.UseTDistWeights {
		copy(t.weights[:n], t.mask[:n])
		return
	}

	v := *variance
	for i := 0; i < varianceMaxIterations; i++ {
		prev := v
		v = t.weightedSquareMean(ctx, n, validCount, prev)
		*variance = v
		if v == 0 || math.Abs(1/v-1/prev) <= variancePrecision {
			break
		}
	}
	if v == 0 {
		// residuals are exactly zero; any finite scale gives the same step
		copy(t.weights[:n], t.mask[:n])
		return
	}

	groupWork(ctx, n,
		func(groups int) {},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			work := func(memberNum, idx int) {
				if t.mask[idx] == 0 {
					t.weights[idx] = 0
					return
				}
				r := float64(t.res[idx])
				t.weights[idx] = float32((tDistDOF + 1) / (tDistDOF + r*r/v))
			}
			return work, nil
		})
}

// weightedSquareMean returns mean_i( w_i * r_i^2 ) over valid pixels with
// w_i computed from the given scale.
func (t *Tracker) weightedSquareMean(ctx context.Context, n, validCount int, variance float64) float64 {
	var partials []float64
	groupWork(ctx, n,
		func(groups int) { partials = make([]float64, groups) },
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			sum := 0.0
			work := func(memberNum, idx int) {
				if t.mask[idx] == 0 {
					return
				}
				r2 := float64(t.res[idx]) * float64(t.res[idx])
				sum += (tDistDOF + 1) / (tDistDOF + r2/variance) * r2
			}
			return work, func() { partials[groupNum] = sum }
		})

	total := 0.0
	for _, p := range partials {
		total += p
	}
	return total / float64(validCount)
}
