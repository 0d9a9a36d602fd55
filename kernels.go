package vdensetrack

import (
	"context"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/rdk/utils"
)

// warpConstants is the per-iteration constant block read by every pixel
// kernel: the active level's intrinsics plus R*K^-1 and t for the current
// pose candidate. On the GPU original this lives in constant memory; here
// it is an argument.
type warpConstants struct {
	width  int
	height int
	fx, fy float64
	cx, cy float64
	rk     [9]float64 // R * Kinv, row-major
	t      r3.Vector
}

func (t *Tracker) warpConstantsFor(level int, rot *mat.Dense, trans r3.Vector) warpConstants {
	intr := &t.intr[level]
	var rk mat.Dense
	rk.Mul(rot, intr.kinv)
	wc := warpConstants{
		width:  intr.width,
		height: intr.height,
		fx:     intr.fx,
		fy:     intr.fy,
		cx:     intr.cx,
		cy:     intr.cy,
		t:      trans,
	}
	copy(wc.rk[:], rk.RawMatrix().Data)
	return wc
}

// transformPoints back-projects every previous-frame pixel with valid
// depth, moves it by the candidate pose and reprojects it into the current
// frame. It writes the 3D point, the warped pixel position and the
// validity mask for all n pixels (the scratch is never zeroed between
// iterations) and returns the number of valid pixels.
func (t *Tracker) transformPoints(ctx context.Context, wc warpConstants, level int) int {
	depth := t.prev.Level(level).Depth
	n := wc.width * wc.height

	var counts []int
	groupWork(ctx, n,
		func(groups int) { counts = make([]int, groups) },
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			valid := 0
			work := func(memberNum, idx int) {
				u := idx % wc.width
				v := idx / wc.width
				d := float64(depth.Data()[idx])

				ud := float64(u) * d
				vd := float64(v) * d
				xp := wc.rk[0]*ud + wc.rk[1]*vd + wc.rk[2]*d + wc.t.X
				yp := wc.rk[3]*ud + wc.rk[4]*vd + wc.rk[5]*d + wc.t.Y
				zp := wc.rk[6]*ud + wc.rk[7]*vd + wc.rk[8]*d + wc.t.Z

				t.xp[idx] = float32(xp)
				t.yp[idx] = float32(yp)
				t.zp[idx] = float32(zp)

				ok := d > 0 && zp > 0
				var uw, vw float64
				if ok {
					uw = wc.fx*xp/zp + wc.cx
					vw = wc.fy*yp/zp + wc.cy
					ok = uw >= 0 && uw <= float64(wc.width-1) &&
						vw >= 0 && vw <= float64(wc.height-1)
				}
				t.uw[idx] = float32(uw)
				t.vw[idx] = float32(vw)
				if ok {
					t.mask[idx] = 1
					valid++
				} else {
					t.mask[idx] = 0
				}
			}
			return work, func() { counts[groupNum] = valid }
		})

	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}

// computeResiduals writes r = I_cur(warp(u,v)) - I_prev(u,v) for valid
// pixels and zero otherwise, sampling the current intensity bilinearly.
func (t *Tracker) computeResiduals(ctx context.Context, wc warpConstants, level int) {
	prevGray := t.prev.Level(level).Gray
	curGray := t.cur.Level(level).Gray
	n := wc.width * wc.height

	groupWork(ctx, n,
		func(groups int) {},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			work := func(memberNum, idx int) {
				if t.mask[idx] == 0 {
					t.res[idx] = 0
					return
				}
				warped := curGray.Bilinear(float64(t.uw[idx]), float64(t.vw[idx]))
				t.res[idx] = float32(warped - float64(prevGray.Data()[idx]))
			}
			return work, nil
		})
}

// computeJacobian writes the analytic 1x6 photometric Jacobian row of each
// valid pixel: translation columns first, then rotation, matching the
// twist layout in the lie package. Gradients are sampled bilinearly at the
// warped position in the current frame.
func (t *Tracker) computeJacobian(ctx context.Context, wc warpConstants, level int) {
	gradX := t.cur.Level(level).GradX
	gradY := t.cur.Level(level).GradY
	n := wc.width * wc.height

	groupWork(ctx, n,
		func(groups int) {},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			work := func(memberNum, idx int) {
				row := t.jac[idx*6 : idx*6+6]
				if t.mask[idx] == 0 {
					for k := range row {
						row[k] = 0
					}
					return
				}
				uw := float64(t.uw[idx])
				vw := float64(t.vw[idx])
				gx := wc.fx * gradX.Bilinear(uw, vw)
				gy := wc.fy * gradY.Bilinear(uw, vw)

				xp := float64(t.xp[idx])
				yp := float64(t.yp[idx])
				zp := float64(t.zp[idx])
				zp2 := zp * zp

				row[0] = float32(gx / zp)
				row[1] = float32(gy / zp)
				row[2] = float32(-(gx*xp + gy*yp) / zp2)
				row[3] = float32(-(gx*xp*yp + gy*(zp2+yp*yp)) / zp2)
				row[4] = float32((gx*(zp2+xp*xp) + gy*xp*yp) / zp2)
				row[5] = float32((-gx*yp + gy*xp) / zp)
			}
			return work, nil
		})
}
