package vdensetrack

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"go.viam.com/rdk/utils"
)

// assembleNormalEquations computes A = J^T*W*J and b = J^T*W*r into the
// tracker's 6x6/6x1 state. The two paths are behaviorally equivalent; the
// dense one leans on gonum's BLAS-backed products, the reduce one mirrors
// the grouped partial-sum reduction the GPU original runs when no BLAS is
// available.
func (t *Tracker) assembleNormalEquations(ctx context.Context, n int) {
	if t.opts.Assembly == AssemblyDense {
		t.assembleDense(ctx, n)
		return
	}
	t.assembleReduce(ctx, n)
}

func (t *Tracker) assembleDense(ctx context.Context, n int) {
	// promote the float32 scratch into the float64 views gonum multiplies
	groupWork(ctx, n,
		func(groups int) {},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			work := func(memberNum, idx int) {
				w := float64(t.weights[idx])
				for k := 0; k < 6; k++ {
					j := float64(t.jac[idx*6+k])
					t.jacF64[idx*6+k] = j
					t.jtwF64[idx*6+k] = j * w
				}
				t.resF64[idx] = float64(t.res[idx])
			}
			return work, nil
		})

	jm := mat.NewDense(n, 6, t.jacF64[:n*6])
	jtw := mat.NewDense(n, 6, t.jtwF64[:n*6])
	rv := mat.NewVecDense(n, t.resF64[:n])

	t.nA.Mul(jtw.T(), jm)
	t.nB.MulVec(jtw.T(), rv)
}

// assembleReduce sums w*J_i*J_j (lower triangle) and w*J_i*r per work
// group and merges the partials on the host, the log-depth reduction of
// the original collapsed into one merge stage.
func (t *Tracker) assembleReduce(ctx context.Context, n int) {
	const stride = 21 + 6 // lower triangle of A, then b

	var partials [][stride]float64
	groupWork(ctx, n,
		func(groups int) { partials = make([][stride]float64, groups) },
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			var acc [stride]float64
			work := func(memberNum, idx int) {
				w := float64(t.weights[idx])
				if w == 0 {
					return
				}
				var row [6]float64
				for k := 0; k < 6; k++ {
					row[k] = float64(t.jac[idx*6+k])
				}
				p := 0
				for i := 0; i < 6; i++ {
					for j := 0; j <= i; j++ {
						acc[p] += w * row[i] * row[j]
						p++
					}
				}
				r := float64(t.res[idx])
				for i := 0; i < 6; i++ {
					acc[21+i] += w * row[i] * r
				}
			}
			return work, func() { partials[groupNum] = acc }
		})

	var total [stride]float64
	for _, p := range partials {
		for i := range total {
			total[i] += p[i]
		}
	}

	p := 0
	for i := 0; i < 6; i++ {
		for j := 0; j <= i; j++ {
			t.nA.Set(i, j, total[p])
			t.nA.Set(j, i, total[p])
			p++
		}
	}
	for i := 0; i < 6; i++ {
		t.nB.SetVec(i, total[21+i])
	}
}

// sumSquaredResiduals reduces e = sum_i r_i^2.
func (t *Tracker) sumSquaredResiduals(ctx context.Context, n int) float64 {
	var partials []float64
	groupWork(ctx, n,
		func(groups int) { partials = make([]float64, groups) },
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			sum := 0.0
			work := func(memberNum, idx int) {
				r := float64(t.res[idx])
				sum += r * r
			}
			return work, func() { partials[groupNum] = sum }
		})

	total := 0.0
	for _, p := range partials {
		total += p
	}
	return total
}
