package imgproc

import (
	"math"

	"github.com/Liiizhen/Optimized-fractal/internal/geom"
	"gocv.io/x/gocv"
)

// SubpixelValue implements the half-cell-anchored bilinear sample. The
// (ix,iy) anchor is the floor of p when the fractional part exceeds
// 0.5, and one below the floor otherwise, biasing the sample
// toward the nearer cell centre rather than the conventional
// floor-anchored bilinear lookup. The interpolation weight itself stays
// frac(p) regardless of which cell the anchor picked.
func SubpixelValue(img gocv.Mat, p geom.Point2f) float64 {
	rows, cols := img.Rows(), img.Cols()

	ix := clamp(anchor(p.X), 0, cols-2)
	iy := clamp(anchor(p.Y), 0, rows-2)

	fx := frac(p.X)
	fy := frac(p.Y)

	v00 := float64(img.GetUCharAt(iy, ix))
	v01 := float64(img.GetUCharAt(iy, ix+1))
	v10 := float64(img.GetUCharAt(iy+1, ix))
	v11 := float64(img.GetUCharAt(iy+1, ix+1))

	top := v00*(1-fx) + v01*fx
	bottom := v10*(1-fx) + v11*fx
	return top*(1-fy) + bottom*fy
}

func anchor(v float32) int {
	ix := int(math.Floor(float64(v)))
	fx := float64(v) - float64(ix)
	if fx > 0.5 {
		return ix
	}
	return ix - 1
}

func frac(v float32) float64 {
	return float64(v) - math.Floor(float64(v))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
