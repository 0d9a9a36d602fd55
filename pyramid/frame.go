package pyramid

import (
	"fmt"
	"image"

	"go.viam.com/rdk/utils"
)

// Level bundles the four same-sized rasters kept per pyramid level.
type Level struct {
	Gray  *Raster
	Depth *Raster
	GradX *Raster
	GradY *Raster
}

// Frame is an L+1 level pyramid of gray, depth and gray-gradient rasters.
// All rasters are allocated once and overwritten by each Ingest.
type Frame struct {
	width  int
	height int
	levels []Level
}

// NewFrame allocates every level of a pyramid for a width x height frame.
// Level l has dimensions width>>l by height>>l.
func NewFrame(width, height, maxLevel int) *Frame {
	f := &Frame{
		width:  width,
		height: height,
		levels: make([]Level, maxLevel+1),
	}
	for l := 0; l <= maxLevel; l++ {
		lw := width >> l
		lh := height >> l
		f.levels[l] = Level{
			Gray:  NewRaster(lw, lh),
			Depth: NewRaster(lw, lh),
			GradX: NewRaster(lw, lh),
			GradY: NewRaster(lw, lh),
		}
	}
	return f
}

func (f *Frame) Width() int {
	return f.width
}

func (f *Frame) Height() int {
	return f.height
}

// NumLevels returns the level count (maxLevel + 1).
func (f *Frame) NumLevels() int {
	return len(f.levels)
}

func (f *Frame) Level(l int) *Level {
	return &f.levels[l]
}

// Ingest overwrites the pyramid with a new frame: level 0 is copied in,
// coarser levels are downsampled, and gradients are recomputed at every
// level so they always match the intensity raster beside them.
func (f *Frame) Ingest(gray, depth []float32) error {
	if len(gray) != f.width*f.height || len(depth) != f.width*f.height {
		return fmt.Errorf("frame rasters must be %dx%d: got gray %d, depth %d",
			f.width, f.height, len(gray), len(depth))
	}

	copy(f.levels[0].Gray.data, gray)
	copy(f.levels[0].Depth.data, depth)

	for l := 1; l < len(f.levels); l++ {
		downsampleGray(f.levels[l-1].Gray, f.levels[l].Gray)
		downsampleDepth(f.levels[l-1].Depth, f.levels[l].Depth)
	}
	for l := 0; l < len(f.levels); l++ {
		computeGradients(&f.levels[l])
	}
	return nil
}

// downsampleGray averages each 2x2 block of the source into one sample.
func downsampleGray(src, dst *Raster) {
	utils.ParallelForEachPixel(image.Point{dst.width, dst.height}, func(x, y int) {
		sum := src.At(2*x, 2*y) +
			src.At(2*x+1, 2*y) +
			src.At(2*x, 2*y+1) +
			src.At(2*x+1, 2*y+1)
		dst.Set(x, y, sum/4)
	})
}

// downsampleDepth averages only the valid (positive, finite) samples of
// each 2x2 block and writes zero when none are valid. Averaging invalid
// depth into a block would manufacture geometry that is not there.
func downsampleDepth(src, dst *Raster) {
	utils.ParallelForEachPixel(image.Point{dst.width, dst.height}, func(x, y int) {
		var sum float32
		var count int
		for dy := 0; dy < 2; dy++ {
			for dx := 0; dx < 2; dx++ {
				d := src.At(2*x+dx, 2*y+dy)
				if d > 0 && !isNaN32(d) {
					sum += d
					count++
				}
			}
		}
		if count == 0 {
			dst.Set(x, y, 0)
		} else {
			dst.Set(x, y, sum/float32(count))
		}
	})
}

// computeGradients fills GradX and GradY with central differences of the
// gray raster, replicating the border samples.
func computeGradients(level *Level) {
	gray := level.Gray
	utils.ParallelForEachPixel(image.Point{gray.width, gray.height}, func(x, y int) {
		dx := (gray.AtClamped(x+1, y) - gray.AtClamped(x-1, y)) / 2
		dy := (gray.AtClamped(x, y+1) - gray.AtClamped(x, y-1)) / 2
		level.GradX.Set(x, y, dx)
		level.GradY.Set(x, y, dy)
	})
}

func isNaN32(v float32) bool {
	return v != v
}
