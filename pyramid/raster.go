// Package pyramid holds the per-frame image data the tracker works on:
// single-precision rasters for intensity, depth and intensity gradients,
// stacked into a coarse-to-fine pyramid.
package pyramid

import "math"

// Raster is a row-major W x H grid of float32 samples.
type Raster struct {
	width  int
	height int
	data   []float32
}

// NewRaster allocates a zeroed raster.
func NewRaster(width, height int) *Raster {
	return &Raster{
		width:  width,
		height: height,
		data:   make([]float32, width*height),
	}
}

func (r *Raster) Width() int {
	return r.width
}

func (r *Raster) Height() int {
	return r.height
}

// Data exposes the backing slice, row-major.
func (r *Raster) Data() []float32 {
	return r.data
}

func (r *Raster) At(x, y int) float32 {
	return r.data[y*r.width+x]
}

func (r *Raster) Set(x, y int, v float32) {
	r.data[y*r.width+x] = v
}

// AtClamped reads with replicated borders.
func (r *Raster) AtClamped(x, y int) float32 {
	if x < 0 {
		x = 0
	} else if x >= r.width {
		x = r.width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= r.height {
		y = r.height - 1
	}
	return r.data[y*r.width+x]
}

// Bilinear samples the raster at a fractional position with border clamp,
// matching the semantics of a hardware texture unit in clamp mode.
func (r *Raster) Bilinear(x, y float64) float64 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	v00 := float64(r.AtClamped(x0, y0))
	v10 := float64(r.AtClamped(x0+1, y0))
	v01 := float64(r.AtClamped(x0, y0+1))
	v11 := float64(r.AtClamped(x0+1, y0+1))

	top := v00 + fx*(v10-v00)
	bottom := v01 + fx*(v11-v01)
	return top + fy*(bottom-top)
}
