package vdensetrack

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/rdk/rimage/transform"
)

func TestIntrinsicsPyramidScaling(t *testing.T) {
	params := &transform.PinholeCameraIntrinsics{
		Width:  64,
		Height: 48,
		Fx:     50,
		Fy:     50,
		Ppx:    31.5,
		Ppy:    23.5,
	}
	pyr, err := buildIntrinsicsPyramid(params, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(pyr), test.ShouldEqual, 3)

	test.That(t, pyr[0].width, test.ShouldEqual, 64)
	test.That(t, pyr[0].height, test.ShouldEqual, 48)
	test.That(t, pyr[0].fx, test.ShouldEqual, 50.0)
	test.That(t, pyr[0].cx, test.ShouldEqual, 31.5)

	test.That(t, pyr[1].width, test.ShouldEqual, 32)
	test.That(t, pyr[1].height, test.ShouldEqual, 24)
	test.That(t, pyr[1].fx, test.ShouldEqual, 25.0)
	test.That(t, pyr[1].cx, test.ShouldEqual, 15.5)
	test.That(t, pyr[1].cy, test.ShouldEqual, 11.5)

	test.That(t, pyr[2].width, test.ShouldEqual, 16)
	test.That(t, pyr[2].height, test.ShouldEqual, 12)
	test.That(t, pyr[2].fx, test.ShouldEqual, 12.5)
	test.That(t, pyr[2].cx, test.ShouldEqual, 7.5)
}

func TestIntrinsicsInverse(t *testing.T) {
	params := &transform.PinholeCameraIntrinsics{
		Width:  64,
		Height: 48,
		Fx:     52.3,
		Fy:     49.7,
		Ppx:    30.2,
		Ppy:    24.8,
	}
	pyr, err := buildIntrinsicsPyramid(params, 3)
	test.That(t, err, test.ShouldBeNil)

	for _, li := range pyr {
		var prod mat.Dense
		prod.Mul(li.k, li.kinv)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				want := 0.0
				if i == j {
					want = 1.0
				}
				test.That(t, prod.At(i, j), test.ShouldAlmostEqual, want, 1e-12)
			}
		}
	}
}

func TestIntrinsicsRejectsSingular(t *testing.T) {
	_, err := buildIntrinsicsPyramid(nil, 2)
	test.That(t, errors.Is(err, ErrBadIntrinsics), test.ShouldBeTrue)

	_, err = buildIntrinsicsPyramid(&transform.PinholeCameraIntrinsics{Width: 64, Height: 48, Fx: 0, Fy: 50}, 2)
	test.That(t, errors.Is(err, ErrBadIntrinsics), test.ShouldBeTrue)
}
