// Package imgproc adapts gocv.io/x/gocv to the handful of CV primitives
// the detector needs: grayscale conversion, adaptive threshold, contour
// extraction, polygon approximation, convexity testing, homography
// estimation, FAST keypoints, corner subpixel refinement, plus a custom
// bilinear sampler and 2-D KD-tree that gocv has no binding for.
package imgproc

import "errors"

// ErrImageFormat is returned whenever a source image is neither 1-channel
// nor 3-channel 8-bit.
var ErrImageFormat = errors.New("imgproc: image must be 1-channel or 3-channel")
