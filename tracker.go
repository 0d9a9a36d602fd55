// Package vdensetrack implements dense photometric RGB-D odometry: each
// new gray+depth frame is aligned against the previous one by minimizing
// the reprojection intensity error over a coarse-to-fine pyramid with
// iteratively reweighted Gauss-Newton, and the recovered motion is folded
// into a running pose.
package vdensetrack

import (
	"context"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/rimage/transform"
	"go.viam.com/rdk/spatialmath"
	goutils "go.viam.com/utils"

	"github.com/erh/vdensetrack/lie"
	"github.com/erh/vdensetrack/pyramid"
)

// convergenceRatio ends a level once the error stops improving by more
// than half a percent between iterations.
const convergenceRatio = 0.995

// LevelStats records what happened at one pyramid level of an Align call.
type LevelStats struct {
	Level       int
	Iterations  int
	ValidPixels int
	// Errors holds the sum of squared residuals per iteration, evaluated
	// at the pose each iteration started from.
	Errors []float64
}

// AlignStats describes the last Align call, coarsest level first.
type AlignStats struct {
	Levels []LevelStats
}

// Tracker aligns consecutive RGB-D frames. It keeps both frame pyramids
// and all per-iteration scratch alive across calls, so a single instance
// is cheap per frame but must not be shared between goroutines: Align is
// blocking and not reentrant.
type Tracker struct {
	logger logging.Logger
	opts   Options
	width  int
	height int

	intr []levelIntrinsics

	// prev holds the frame alignment runs against; cur is scratch until
	// Align finishes, then the two swap.
	prev *pyramid.Frame
	cur  *pyramid.Frame

	xi      lie.Twist // inter-frame motion, reused as warm start
	xiTotal lie.Twist // accumulated pose

	// per-pixel scratch sized for level 0; finer levels use a prefix.
	// None of it is zeroed between iterations, every kernel writes each
	// position it owns.
	xp, yp, zp []float32
	uw, vw     []float32
	res        []float32
	weights    []float32
	mask       []float32
	jac        []float32 // n x 6 row-major

	// float64 mirrors for the dense assembler
	jacF64 []float64
	jtwF64 []float64
	resF64 []float64

	nA *mat.Dense
	nB *mat.VecDense

	stats AlignStats
}

// NewTracker builds a tracker from the first frame of a sequence. The
// gray and depth rasters are row-major float32 at the intrinsics'
// resolution; depth is in meters with zero or NaN marking missing data.
func NewTracker(
	gray, depth []float32,
	params *transform.PinholeCameraIntrinsics,
	opts Options,
	logger logging.Logger,
) (*Tracker, error) {
	if logger == nil {
		logger = logging.NewLogger("vdensetrack")
	}
	if params == nil {
		return nil, ErrBadIntrinsics
	}
	width, height := params.Width, params.Height
	if err := opts.validate(width, height); err != nil {
		return nil, err
	}
	intr, err := buildIntrinsicsPyramid(params, opts.MaxLevel)
	if err != nil {
		return nil, err
	}
	if len(gray) != width*height || len(depth) != width*height {
		return nil, ErrDimensionMismatch
	}

	n := width * height
	t := &Tracker{
		logger:  logger,
		opts:    opts,
		width:   width,
		height:  height,
		intr:    intr,
		prev:    pyramid.NewFrame(width, height, opts.MaxLevel),
		cur:     pyramid.NewFrame(width, height, opts.MaxLevel),
		xp:      make([]float32, n),
		yp:      make([]float32, n),
		zp:      make([]float32, n),
		uw:      make([]float32, n),
		vw:      make([]float32, n),
		res:     make([]float32, n),
		weights: make([]float32, n),
		mask:    make([]float32, n),
		jac:     make([]float32, n*6),
		jacF64:  make([]float64, n*6),
		jtwF64:  make([]float64, n*6),
		resF64:  make([]float64, n),
		nA:      mat.NewDense(6, 6, nil),
		nB:      mat.NewVecDense(6, nil),
	}

	// the first frame goes straight into the previous slot; Align fills
	// the current one and swaps afterwards
	if err := t.prev.Ingest(gray, depth); err != nil {
		return nil, ErrDimensionMismatch
	}
	return t, nil
}

// Align ingests a new frame, estimates the motion from the previous frame
// to it and returns the accumulated pose in twist coordinates. Numerical
// trouble inside a level (no valid pixels, non-SPD normal matrix) is
// absorbed: the level ends and the current estimate stands.
func (t *Tracker) Align(ctx context.Context, gray, depth []float32) (lie.Twist, error) {
	if err := t.cur.Ingest(gray, depth); err != nil {
		return t.xiTotal, ErrDimensionMismatch
	}

	// t.xi carries over from the previous frame as the warm start
	t.stats = AlignStats{}

	for level := t.opts.MaxLevel; level >= t.opts.MinLevel; level-- {
		t.alignLevel(ctx, level)
	}

	t.prev, t.cur = t.cur, t.prev

	switch t.opts.Accumulation {
	case AccumulateForwardIncremental:
		t.xiTotal = lie.Compose(t.xi, t.xiTotal)
	default:
		t.xiTotal = lie.Compose(t.xiTotal, lie.Inverse(t.xi))
	}
	return t.xiTotal, nil
}

func (t *Tracker) alignLevel(ctx context.Context, level int) {
	intr := &t.intr[level]
	n := intr.width * intr.height

	errPrev := math.Inf(1)
	variance := varianceInitial
	ls := LevelStats{Level: level}

	for i := 0; i < t.opts.MaxIterationsPerLevel; i++ {
		rot, trans := lie.Exp(t.xi)
		wc := t.warpConstantsFor(level, rot, trans)

		valid := t.transformPoints(ctx, wc, level)
		ls.ValidPixels = valid
		if valid == 0 {
			t.logger.Debugf("level %d: no valid pixels, skipping", level)
			break
		}

		// the Jacobian and the residual->error->weights chain are
		// independent until assembly; run them on two goroutines like
		// the two device streams they come from
		var e float64
		var wg sync.WaitGroup
		wg.Add(2)
		goutils.PanicCapturingGo(func() {
			defer wg.Done()
			t.computeJacobian(ctx, wc, level)
		})
		goutils.PanicCapturingGo(func() {
			defer wg.Done()
			t.computeResiduals(ctx, wc, level)
			e = t.sumSquaredResiduals(ctx, n)
			t.computeWeights(ctx, n, valid, &variance)
		})
		wg.Wait()

		t.assembleNormalEquations(ctx, n)

		step, ok := t.solveStep()
		if !ok {
			t.logger.Debugf("level %d iteration %d: normal matrix not SPD, ending level", level, i)
			break
		}
		t.xi = lie.Compose(step, t.xi)

		ls.Iterations = i + 1
		ls.Errors = append(ls.Errors, e)

		if e/errPrev > convergenceRatio || e == 0 {
			break
		}
		errPrev = e
	}

	t.stats.Levels = append(t.stats.Levels, ls)
}

// Pose returns the accumulated motion as a spatialmath.Pose.
func (t *Tracker) Pose() (spatialmath.Pose, error) {
	return t.xiTotal.Pose()
}

// Stats reports per-level iteration counts and errors of the last Align.
func (t *Tracker) Stats() AlignStats {
	return t.stats
}
