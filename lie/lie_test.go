package lie

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func twistAlmostZero(t *testing.T, x Twist, tol float64) {
	t.Helper()
	for i := 0; i < 6; i++ {
		test.That(t, math.Abs(x[i]), test.ShouldBeLessThan, tol)
	}
}

func TestExpIdentity(t *testing.T) {
	rot, tr := Exp(Twist{})
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			test.That(t, rot.At(i, j), test.ShouldEqual, want)
		}
	}
	test.That(t, tr, test.ShouldResemble, r3.Vector{})
}

func TestExpLogRoundTrip(t *testing.T) {
	cases := []Twist{
		{0.1, -0.2, 0.3, 0.05, -0.02, 0.01},
		{0, 0, 0, 1.2, 0.4, -0.7},
		{1, 2, 3, 0, 0, 0},
		{-0.01, 0.02, 0.005, 1e-8, -2e-8, 1e-9},
		{0.3, -0.1, 0.2, 2.5, 0.3, -0.4}, // |omega| close to pi
	}
	for _, xi := range cases {
		rot, tr := Exp(xi)
		back := Log(rot, tr)
		for i := 0; i < 6; i++ {
			test.That(t, back[i], test.ShouldAlmostEqual, xi[i], 1e-6)
		}
	}
}

func TestComposeWithInverse(t *testing.T) {
	cases := []Twist{
		{0.1, -0.2, 0.3, 0.05, -0.02, 0.01},
		{0.5, 0.5, -0.5, 0.9, -0.3, 0.2},
		{0, 0, 0, 0, 0, 0},
	}
	for _, xi := range cases {
		twistAlmostZero(t, Compose(xi, Inverse(xi)), 1e-6)
		twistAlmostZero(t, Compose(Inverse(xi), xi), 1e-6)
	}
}

func TestComposeAssociatesWithExp(t *testing.T) {
	a := Twist{0.1, 0.2, -0.1, 0.3, -0.2, 0.1}
	b := Twist{-0.05, 0.1, 0.2, -0.1, 0.15, 0.05}

	rotA, tA := Exp(a)
	rotB, tB := Exp(b)
	rotC, tC := Exp(Compose(a, b))

	// exp(compose(a,b)) must equal exp(a)*exp(b)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			for k := 0; k < 3; k++ {
				want += rotA.At(i, k) * rotB.At(k, j)
			}
			test.That(t, rotC.At(i, j), test.ShouldAlmostEqual, want, 1e-9)
		}
	}
	wantT := applyMat(rotA, tB).Add(tA)
	test.That(t, tC.X, test.ShouldAlmostEqual, wantT.X, 1e-9)
	test.That(t, tC.Y, test.ShouldAlmostEqual, wantT.Y, 1e-9)
	test.That(t, tC.Z, test.ShouldAlmostEqual, wantT.Z, 1e-9)
}

func TestExpSmallAngleSeries(t *testing.T) {
	// just above and below the series switch must agree
	for _, eps := range []float64{1e-6, 2e-5} {
		xi := Twist{0.1, 0, 0, eps, 0, 0}
		rot, _ := Exp(xi)
		back := Log(rot, r3.Vector{})
		test.That(t, back[3], test.ShouldAlmostEqual, eps, 1e-12)
	}
}

func TestRotationIsOrthonormal(t *testing.T) {
	rot, _ := Exp(Twist{0, 0, 0, 0.7, -0.4, 0.2})
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			dot := 0.0
			for k := 0; k < 3; k++ {
				dot += rot.At(k, i) * rot.At(k, j)
			}
			want := 0.0
			if i == j {
				want = 1.0
			}
			test.That(t, dot, test.ShouldAlmostEqual, want, 1e-12)
		}
	}
}

func TestPose(t *testing.T) {
	xi := Twist{0.5, -0.25, 1, 0, 0, 0}
	pose, err := xi.Pose()
	test.That(t, err, test.ShouldBeNil)
	pt := pose.Point()
	test.That(t, pt.X, test.ShouldAlmostEqual, 0.5, 1e-9)
	test.That(t, pt.Y, test.ShouldAlmostEqual, -0.25, 1e-9)
	test.That(t, pt.Z, test.ShouldAlmostEqual, 1, 1e-9)
}

func TestNorm(t *testing.T) {
	test.That(t, Twist{3, 4, 0, 0, 0, 0}.Norm(), test.ShouldAlmostEqual, 5)
	test.That(t, Twist{}.Norm(), test.ShouldEqual, 0)
}
