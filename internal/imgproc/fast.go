package imgproc

import "gocv.io/x/gocv"

// DetectFAST runs the FAST corner detector at its default threshold and
// returns the raw keypoints, unfiltered.
func DetectFAST(img gocv.Mat) []gocv.KeyPoint {
	fast := gocv.NewFastFeatureDetector()
	defer fast.Close()
	return fast.Detect(img)
}
