package imgproc

import (
	"fmt"
	"math"

	"gocv.io/x/gocv"
)

// ToGray converts src to an 8-bit single-channel Mat. A 1-channel 8-bit
// source is cloned as-is; a 3-channel 8-bit source is converted with
// gocv.ColorBGRToGray, which applies the 0.114B + 0.587G + 0.299R weighting
// (gocv Mats are BGR-ordered, like the rest of this stack's image tooling).
// Any other channel count or depth is rejected with ErrImageFormat.
func ToGray(src gocv.Mat) (gocv.Mat, error) {
	switch src.Type() {
	case gocv.MatTypeCV8UC1:
		return src.Clone(), nil
	case gocv.MatTypeCV8UC3:
		gray := gocv.NewMat()
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
		return gray, nil
	default:
		return gocv.NewMat(), fmt.Errorf("%w: got %d channels (mat type %d)", ErrImageFormat, src.Channels(), src.Type())
	}
}

// AdaptiveWindow computes the adaptive-threshold block size for an image
// of the given column count: max(3, round(15*cols/1920)), coerced odd.
func AdaptiveWindow(cols int) int {
	w := int(math.Round(15.0 * float64(cols) / 1920.0))
	if w < 3 {
		w = 3
	}
	if w%2 == 0 {
		w++
	}
	return w
}

// Binarize runs inverse adaptive-mean thresholding with the given block
// size and subtractive constant, producing a {0,255} image where marker
// ink is foreground (255).
func Binarize(gray gocv.Mat, window int, c float64) gocv.Mat {
	bin := gocv.NewMat()
	gocv.AdaptiveThreshold(gray, &bin, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinaryInv, window, float32(c))
	return bin
}
