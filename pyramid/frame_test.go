package pyramid

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestRasterBilinear(t *testing.T) {
	r := NewRaster(2, 2)
	r.Set(0, 0, 0)
	r.Set(1, 0, 1)
	r.Set(0, 1, 2)
	r.Set(1, 1, 3)

	test.That(t, r.Bilinear(0, 0), test.ShouldEqual, 0.0)
	test.That(t, r.Bilinear(1, 1), test.ShouldEqual, 3.0)
	test.That(t, r.Bilinear(0.5, 0), test.ShouldAlmostEqual, 0.5)
	test.That(t, r.Bilinear(0.5, 0.5), test.ShouldAlmostEqual, 1.5)
	// border clamp
	test.That(t, r.Bilinear(-2, -2), test.ShouldEqual, 0.0)
	test.That(t, r.Bilinear(5, 5), test.ShouldEqual, 3.0)
}

func TestDownsampleGray(t *testing.T) {
	src := NewRaster(4, 2)
	for i, v := range []float32{1, 2, 3, 4, 5, 6, 7, 8} {
		src.Data()[i] = v
	}
	dst := NewRaster(2, 1)
	downsampleGray(src, dst)

	test.That(t, dst.At(0, 0), test.ShouldEqual, float32((1+2+5+6)/4.0))
	test.That(t, dst.At(1, 0), test.ShouldEqual, float32((3+4+7+8)/4.0))
}

func TestDownsampleDepthSkipsInvalid(t *testing.T) {
	src := NewRaster(4, 2)
	// first block: one valid sample, second block: none
	src.Set(0, 0, 2)
	src.Set(1, 0, 0)
	src.Set(0, 1, float32(math.NaN()))
	src.Set(1, 1, 0)
	for _, p := range [][2]int{{2, 0}, {3, 0}, {2, 1}, {3, 1}} {
		src.Set(p[0], p[1], 0)
	}
	dst := NewRaster(2, 1)
	downsampleDepth(src, dst)

	test.That(t, dst.At(0, 0), test.ShouldEqual, float32(2))
	test.That(t, dst.At(1, 0), test.ShouldEqual, float32(0))
}

func TestGradients(t *testing.T) {
	f := NewFrame(8, 8, 0)
	gray := make([]float32, 64)
	depth := make([]float32, 64)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			gray[y*8+x] = float32(3 * x) // ramp in x only
			depth[y*8+x] = 1
		}
	}
	test.That(t, f.Ingest(gray, depth), test.ShouldBeNil)

	level := f.Level(0)
	for y := 0; y < 8; y++ {
		for x := 1; x < 7; x++ {
			test.That(t, level.GradX.At(x, y), test.ShouldEqual, float32(3))
			test.That(t, level.GradY.At(x, y), test.ShouldEqual, float32(0))
		}
		// replicated borders halve the one-sided difference
		test.That(t, level.GradX.At(0, y), test.ShouldEqual, float32(1.5))
		test.That(t, level.GradX.At(7, y), test.ShouldEqual, float32(1.5))
	}
}

func TestIngestRecomputesAllLevels(t *testing.T) {
	f := NewFrame(8, 8, 2)
	test.That(t, f.NumLevels(), test.ShouldEqual, 3)
	test.That(t, f.Level(2).Gray.Width(), test.ShouldEqual, 2)
	test.That(t, f.Level(2).Gray.Height(), test.ShouldEqual, 2)

	gray := make([]float32, 64)
	depth := make([]float32, 64)
	for i := range gray {
		gray[i] = 0.5
		depth[i] = 2
	}
	test.That(t, f.Ingest(gray, depth), test.ShouldBeNil)
	for l := 0; l < 3; l++ {
		lev := f.Level(l)
		test.That(t, lev.Gray.At(0, 0), test.ShouldEqual, float32(0.5))
		test.That(t, lev.Depth.At(0, 0), test.ShouldEqual, float32(2))
		test.That(t, lev.GradX.At(1, 1), test.ShouldEqual, float32(0))
	}
}

func TestIngestDimensionMismatch(t *testing.T) {
	f := NewFrame(8, 8, 1)
	err := f.Ingest(make([]float32, 10), make([]float32, 64))
	test.That(t, err, test.ShouldNotBeNil)
}
