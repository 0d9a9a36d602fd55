// Package lie implements the se(3) twist algebra used by the tracker:
// closed-form Rodrigues exponential, its logarithm, and composition of
// rigid transforms expressed in twist coordinates.
package lie

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/rdk/spatialmath"
)

// Twist is a minimal 6-dof rigid motion: translation first (v), then the
// axis-angle rotation part (omega). The ordering matches the Jacobian
// columns assembled by the tracker.
type Twist [6]float64

// smallAngle is the squared-angle threshold below which the Rodrigues
// coefficients switch to their Taylor series.
const smallAngle = 1e-10

// V returns the translational part of the twist.
func (x Twist) V() r3.Vector {
	return r3.Vector{X: x[0], Y: x[1], Z: x[2]}
}

// Omega returns the rotational part of the twist.
func (x Twist) Omega() r3.Vector {
	return r3.Vector{X: x[3], Y: x[4], Z: x[5]}
}

// Norm returns the euclidean norm of the twist vector.
func (x Twist) Norm() float64 {
	s := 0.0
	for _, e := range x {
		s += e * e
	}
	return math.Sqrt(s)
}

// Pose converts the twist into a spatialmath.Pose.
func (x Twist) Pose() (spatialmath.Pose, error) {
	rot, t := Exp(x)
	om, err := spatialmath.NewRotationMatrix(rot.RawMatrix().Data)
	if err != nil {
		return nil, err
	}
	return spatialmath.NewPose(t, om), nil
}

// Hat returns the 3x3 skew-symmetric matrix of w.
func Hat(w r3.Vector) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -w.Z, w.Y,
		w.Z, 0, -w.X,
		-w.Y, w.X, 0,
	})
}

// Exp maps a twist to its rotation matrix and translation vector via the
// closed-form Rodrigues expansion. The translational part goes through the
// left Jacobian V so that Exp and Log are exact inverses.
func Exp(x Twist) (*mat.Dense, r3.Vector) {
	w := x.Omega()
	theta2 := w.Norm2()

	var a, b, c float64 // sin(t)/t, (1-cos(t))/t^2, (t-sin(t))/t^3
	if theta2 < smallAngle {
		a = 1 - theta2/6
		b = 0.5 - theta2/24
		c = 1.0/6 - theta2/120
	} else {
		theta := math.Sqrt(theta2)
		a = math.Sin(theta) / theta
		b = (1 - math.Cos(theta)) / theta2
		c = (theta - math.Sin(theta)) / (theta2 * theta)
	}

	hat := Hat(w)
	var hat2 mat.Dense
	hat2.Mul(hat, hat)

	rot := identity3()
	addScaled(rot, hat, a)
	addScaled(rot, &hat2, b)

	vmat := identity3()
	addScaled(vmat, hat, b)
	addScaled(vmat, &hat2, c)

	return rot, applyMat(vmat, x.V())
}

// Log maps a rotation matrix and translation back to twist coordinates.
// Valid on the identity-connected component for rotation angles below pi.
func Log(rot *mat.Dense, t r3.Vector) Twist {
	trace := rot.At(0, 0) + rot.At(1, 1) + rot.At(2, 2)
	cosTheta := (trace - 1) / 2
	if cosTheta > 1 {
		cosTheta = 1
	} else if cosTheta < -1 {
		cosTheta = -1
	}
	theta := math.Acos(cosTheta)

	var w r3.Vector
	switch {
	case theta*theta < smallAngle:
		// R ~ I + hat(w), antisymmetric part only
		w = r3.Vector{
			X: (rot.At(2, 1) - rot.At(1, 2)) / 2,
			Y: (rot.At(0, 2) - rot.At(2, 0)) / 2,
			Z: (rot.At(1, 0) - rot.At(0, 1)) / 2,
		}
	case math.Pi-theta < 1e-6:
		// near pi the antisymmetric part vanishes; recover the axis from
		// the dominant diagonal of (R + I)/2
		ax := axisNearPi(rot)
		w = ax.Mul(theta)
	default:
		k := theta / (2 * math.Sin(theta))
		w = r3.Vector{
			X: k * (rot.At(2, 1) - rot.At(1, 2)),
			Y: k * (rot.At(0, 2) - rot.At(2, 0)),
			Z: k * (rot.At(1, 0) - rot.At(0, 1)),
		}
	}

	// v = Vinv * t
	theta2 := w.Norm2()
	var bCoeff float64
	if theta2 < smallAngle {
		bCoeff = 1.0 / 12
	} else {
		th := math.Sqrt(theta2)
		bCoeff = 1/theta2 - (1+math.Cos(th))/(2*th*math.Sin(th))
	}
	hat := Hat(w)
	var hat2 mat.Dense
	hat2.Mul(hat, hat)
	vinv := identity3()
	addScaled(vinv, hat, -0.5)
	addScaled(vinv, &hat2, bCoeff)
	v := applyMat(vinv, t)

	return Twist{v.X, v.Y, v.Z, w.X, w.Y, w.Z}
}

// Compose returns log(exp(a) * exp(b)).
func Compose(a, b Twist) Twist {
	rotA, tA := Exp(a)
	rotB, tB := Exp(b)
	var rot mat.Dense
	rot.Mul(rotA, rotB)
	t := applyMat(rotA, tB).Add(tA)
	return Log(&rot, t)
}

// Inverse returns the twist of the inverted transform, log(exp(x)^-1).
func Inverse(x Twist) Twist {
	rot, t := Exp(x)
	var rotT mat.Dense
	rotT.CloneFrom(rot.T())
	tInv := applyMat(&rotT, t).Mul(-1)
	return Log(&rotT, tInv)
}

func identity3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}

func addScaled(dst, src *mat.Dense, s float64) {
	var tmp mat.Dense
	tmp.Scale(s, src)
	dst.Add(dst, &tmp)
}

func applyMat(m *mat.Dense, v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z,
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z,
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z,
	}
}

func axisNearPi(rot *mat.Dense) r3.Vector {
	// (R + I) has rank one with columns parallel to the rotation axis
	best := 0
	bestVal := rot.At(0, 0)
	for i := 1; i < 3; i++ {
		if rot.At(i, i) > bestVal {
			bestVal = rot.At(i, i)
			best = i
		}
	}
	ax := r3.Vector{
		X: rot.At(0, best),
		Y: rot.At(1, best),
		Z: rot.At(2, best),
	}
	switch best {
	case 0:
		ax.X++
	case 1:
		ax.Y++
	default:
		ax.Z++
	}
	return ax.Normalize()
}
