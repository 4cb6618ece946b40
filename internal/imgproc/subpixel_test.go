package imgproc

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/Liiizhen/Optimized-fractal/internal/geom"
)

func TestSubpixelValue_AnchorsTowardNearerCell(t *testing.T) {
	img := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8U)
	defer img.Close()
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			img.SetUCharAt(r, c, uint8(c*50))
		}
	}

	// fx = 0.9 > 0.5, so the anchor is ix=1 rather than ix-1=0; sampling
	// at x=1.9 weights mostly toward column 2's value (100).
	v := SubpixelValue(img, geom.Point2f{X: 1.9, Y: 1})
	require.InDelta(t, 95.0, v, 1e-6)

	// fx = 0.1 <= 0.5, anchor shifts left to ix-1=0, but the interpolation
	// weight stays frac(x)=0.1 regardless of the anchor shift, so the
	// sample stays close to column 0's value (0).
	v2 := SubpixelValue(img, geom.Point2f{X: 1.1, Y: 1})
	require.InDelta(t, 5.0, v2, 1e-6)
}

func TestSubpixelValue_ClampsAtImageEdge(t *testing.T) {
	img := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8U)
	defer img.Close()
	img.SetUCharAt(0, 0, 10)
	img.SetUCharAt(0, 1, 20)
	img.SetUCharAt(1, 0, 30)
	img.SetUCharAt(1, 1, 40)

	v := SubpixelValue(img, geom.Point2f{X: 1.99, Y: 1.99})
	require.GreaterOrEqual(t, v, 10.0)
	require.LessOrEqual(t, v, 40.0)
}
