package imgproc

import (
	"github.com/Liiizhen/Optimized-fractal/internal/geom"
	"gocv.io/x/gocv"
)

// FindAllContours extracts every contour from binary, external and
// internal alike, with no hierarchy relationship tracked. Callers must Close the
// returned vector once done with the individual contours.
func FindAllContours(binary gocv.Mat) gocv.PointsVector {
	return gocv.FindContours(binary, gocv.RetrievalList, gocv.ChainApproxNone)
}

// Perimeter returns a contour's arc length, treated as closed.
func Perimeter(c gocv.PointVector) float64 {
	return gocv.ArcLength(c, true)
}

// ApproxPoly approximates a contour with the Douglas-Peucker algorithm at
// the given tolerance, treated as closed.
func ApproxPoly(c gocv.PointVector, epsilon float64) gocv.PointVector {
	return gocv.ApproxPolyDP(c, epsilon, true)
}

// IsConvex reports whether a polygon's vertices form a convex contour.
func IsConvex(c gocv.PointVector) bool {
	return gocv.IsContourConvex(c)
}

// ToPoint2f copies a contour's integer vertices into geom.Point2f values.
func ToPoint2f(c gocv.PointVector) []geom.Point2f {
	pts := c.ToPoints()
	out := make([]geom.Point2f, len(pts))
	for i, p := range pts {
		out[i] = geom.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}
	return out
}
