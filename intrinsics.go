package vdensetrack

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/rdk/rimage/transform"
)

// levelIntrinsics caches the camera matrix, its inverse and the raster
// dimensions for one pyramid level. The bank of these plays the role the
// CUDA implementation gives to constant memory: computed once, read by
// every kernel without further work.
type levelIntrinsics struct {
	width  int
	height int
	fx, fy float64
	cx, cy float64
	k      *mat.Dense
	kinv   *mat.Dense
}

// buildIntrinsicsPyramid scales the level-0 intrinsics down the pyramid.
// Focal lengths halve; principal points follow the pixel-center rule
// c' = (c + 0.5)/2 - 0.5 so that the optical axis stays put.
func buildIntrinsicsPyramid(params *transform.PinholeCameraIntrinsics, maxLevel int) ([]levelIntrinsics, error) {
	if params == nil {
		return nil, errors.Wrap(ErrBadIntrinsics, "nil intrinsics")
	}
	if params.Fx == 0 || params.Fy == 0 {
		return nil, errors.Wrapf(ErrBadIntrinsics, "singular camera matrix fx=%v fy=%v", params.Fx, params.Fy)
	}

	pyr := make([]levelIntrinsics, maxLevel+1)
	fx, fy := params.Fx, params.Fy
	cx, cy := params.Ppx, params.Ppy
	for l := 0; l <= maxLevel; l++ {
		if l > 0 {
			fx /= 2
			fy /= 2
			cx = (cx+0.5)/2 - 0.5
			cy = (cy+0.5)/2 - 0.5
		}
		pyr[l] = levelIntrinsics{
			width:  params.Width >> l,
			height: params.Height >> l,
			fx:     fx,
			fy:     fy,
			cx:     cx,
			cy:     cy,
			k: mat.NewDense(3, 3, []float64{
				fx, 0, cx,
				0, fy, cy,
				0, 0, 1,
			}),
			kinv: mat.NewDense(3, 3, []float64{
				1 / fx, 0, -cx / fx,
				0, 1 / fy, -cy / fy,
				0, 0, 1,
			}),
		}
	}
	return pyr, nil
}
