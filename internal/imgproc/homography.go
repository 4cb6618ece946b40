package imgproc

import (
	"github.com/Liiizhen/Optimized-fractal/internal/geom"
	"gocv.io/x/gocv"
)

// UnitQuadHomography solves the exact 3x3 homography mapping the unit
// square {(0,0),(1,0),(1,1),(0,1)} onto quad, for the bit-sampling
// perspective transform used to sample a candidate quad's bit grid.
func UnitQuadHomography(quad [4]geom.Point2f) gocv.Mat {
	src := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
	})
	defer src.Close()
	dstPts := make([]gocv.Point2f, 4)
	for i, p := range quad {
		dstPts[i] = gocv.Point2f{X: p.X, Y: p.Y}
	}
	dst := gocv.NewPoint2fVectorFromPoints(dstPts)
	defer dst.Close()
	return gocv.GetPerspectiveTransform2f(src, dst)
}

// FindHomography estimates a robust image-plane homography mapping objPts
// onto imgPts (RANSAC). ok is false
// when fewer than 4 correspondences are given or estimation fails.
func FindHomography(objPts, imgPts []geom.Point2f) (h gocv.Mat, ok bool) {
	n := len(objPts)
	if n < 4 || len(imgPts) != n {
		return gocv.NewMat(), false
	}

	src := gocv.NewMatWithSize(n, 1, gocv.MatTypeCV64FC2)
	defer src.Close()
	dst := gocv.NewMatWithSize(n, 1, gocv.MatTypeCV64FC2)
	defer dst.Close()
	for i := 0; i < n; i++ {
		src.SetDoubleAt(i, 0, float64(objPts[i].X))
		src.SetDoubleAt(i, 1, float64(objPts[i].Y))
		dst.SetDoubleAt(i, 0, float64(imgPts[i].X))
		dst.SetDoubleAt(i, 1, float64(imgPts[i].Y))
	}

	mask := gocv.NewMat()
	defer mask.Close()
	h = gocv.FindHomography(src, &dst, gocv.HomograpyMethodRANSAC, 3.0, &mask, 2000, 0.995)
	return h, !h.Empty()
}

// ApplyHomography projects a single point p through the 3x3 matrix h,
// applying the coefficients explicitly rather than through
// gocv.PerspectiveTransform, since the caller needs the explicit
// per-point coefficients rather than a batched OpenCV call.
func ApplyHomography(h gocv.Mat, p geom.Point2f) geom.Point2f {
	x, y := float64(p.X), float64(p.Y)
	wx := h.GetDoubleAt(0, 0)*x + h.GetDoubleAt(0, 1)*y + h.GetDoubleAt(0, 2)
	wy := h.GetDoubleAt(1, 0)*x + h.GetDoubleAt(1, 1)*y + h.GetDoubleAt(1, 2)
	w := h.GetDoubleAt(2, 0)*x + h.GetDoubleAt(2, 1)*y + h.GetDoubleAt(2, 2)
	if w == 0 {
		w = 1e-12
	}
	return geom.Point2f{X: float32(wx / w), Y: float32(wy / w)}
}
