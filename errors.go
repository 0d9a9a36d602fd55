package vdensetrack

import "github.com/pkg/errors"

var (
	// ErrBadGeometry means the pyramid configuration cannot fit the image.
	ErrBadGeometry = errors.New("infeasible pyramid geometry")

	// ErrBadIntrinsics means the camera matrix is missing or singular.
	ErrBadIntrinsics = errors.New("invalid camera intrinsics")

	// ErrUnsupportedSolver means a reserved solver selector was requested.
	ErrUnsupportedSolver = errors.New("unsupported solving method")

	// ErrDimensionMismatch means an input raster does not match the
	// dimensions the tracker was constructed with.
	ErrDimensionMismatch = errors.New("raster dimensions do not match tracker")
)
