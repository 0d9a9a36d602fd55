package vdensetrack

import (
	"context"

	"go.viam.com/rdk/utils"
)

// groupWork runs work over the index range [0, n) in parallel groups with
// an optional merge stage per group. Ranges smaller than the scheduler's
// group-size floor run as a single group, so the few dozen pixels of the
// coarsest pyramid level are never skipped.
func groupWork(ctx context.Context, n int, before func(groups int), work utils.GroupWorkFunc) {
	if n < utils.ParallelFactor*2 {
		before(1)
		member, done := work(0, n, 0, n)
		if member != nil {
			for i := 0; i < n; i++ {
				member(i, i)
			}
		}
		if done != nil {
			done()
		}
		return
	}
	//nolint:errcheck
	utils.GroupWorkParallel(ctx, n, before, work)
}
