package imgproc

import (
	"image"

	"github.com/Liiizhen/Optimized-fractal/internal/geom"
	"gocv.io/x/gocv"
)

// RefineCorners jointly refines pts against img with OpenCV's iterative
// corner-subpixel routine, using a (2*winHalf+1)x(2*winHalf+1) search
// window, no dead zone, and the given termination criteria. Both the
// primary detector and the extended correspondence builder call this, each
// with its own winHalf constant (both 4) and the same iteration/epsilon shape.
func RefineCorners(img gocv.Mat, pts []geom.Point2f, winHalf, maxIter int, eps float64) []geom.Point2f {
	if len(pts) == 0 {
		return nil
	}

	corners := gocv.NewMatWithSize(len(pts), 1, gocv.MatTypeCV32FC2)
	defer corners.Close()
	for i, p := range pts {
		corners.SetFloatAt(i, 0, p.X)
		corners.SetFloatAt(i, 1, p.Y)
	}

	win := image.Pt(winHalf, winHalf)
	zeroZone := image.Pt(-1, -1)
	criteria := gocv.NewTermCriteria(gocv.MaxIter|gocv.EPS, maxIter, eps)
	gocv.CornerSubPix(img, &corners, win, zeroZone, criteria)

	out := make([]geom.Point2f, len(pts))
	for i := range out {
		out[i] = geom.Point2f{X: corners.GetFloatAt(i, 0), Y: corners.GetFloatAt(i, 1)}
	}
	return out
}
