package vdensetrack

import (
	"gonum.org/v1/gonum/mat"

	"github.com/erh/vdensetrack/lie"
)

// solveStep solves A * delta = b by Cholesky factorization and returns the
// Gauss-Newton descent step -delta. A is symmetrized from its lower
// triangle before factorizing. ok is false when A is not positive
// definite, which rejects the step and terminates the level.
func (t *Tracker) solveStep() (lie.Twist, bool) {
	var data [36]float64
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			row, col := i, j
			if row < col {
				row, col = col, row
			}
			data[i*6+j] = t.nA.At(row, col)
		}
	}
	sym := mat.NewSymDense(6, data[:])

	var chol mat.Cholesky
	if !chol.Factorize(sym) {
		return lie.Twist{}, false
	}
	var delta mat.VecDense
	if err := chol.SolveVecTo(&delta, t.nB); err != nil {
		return lie.Twist{}, false
	}

	var step lie.Twist
	for i := 0; i < 6; i++ {
		step[i] = -delta.AtVec(i)
	}
	return step, true
}
