package fractal

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/Liiizhen/Optimized-fractal/internal/catalog"
	"github.com/Liiizhen/Optimized-fractal/internal/geom"
)

// TestKFilter is invariant 7: the surviving set has no pair closer than
// KFilterMinDistSq and every response is above the 20% band cutoff.
func TestKFilter(t *testing.T) {
	kps := []gocv.KeyPoint{
		{X: 0, Y: 0, Response: 100},
		{X: 1, Y: 1, Response: 90}, // within the min-dist radius of the above, weaker
		{X: 50, Y: 50, Response: 100},
		{X: 51, Y: 51, Response: 5}, // below the response band
	}
	out := kfilter(kps)
	require.Len(t, out, 2)

	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			dx := float64(out[i].X - out[j].X)
			dy := float64(out[i].Y - out[j].Y)
			require.GreaterOrEqual(t, dx*dx+dy*dy, KFilterMinDistSq)
		}
	}

	minResp, maxResp := float32(100), float32(100)
	for _, k := range kps {
		if k.Response < minResp {
			minResp = k.Response
		}
		if k.Response > maxResp {
			maxResp = k.Response
		}
	}
	threshold := float64(minResp) + KFilterResponseBand*float64(maxResp-minResp)
	for _, k := range out {
		require.GreaterOrEqual(t, float64(k.Response), threshold)
	}
}

func TestKFilter_Empty(t *testing.T) {
	require.Nil(t, kfilter(nil))
}

func fillGray(img gocv.Mat, v uint8) {
	rows, cols := img.Rows(), img.Cols()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			img.SetUCharAt(r, c, v)
		}
	}
}

// TestAssignClass_MinorityLightBlockIsDarkCorner exercises the nC==2 branch
// where the foreground (light) pixel count is a minority of the patch.
func TestAssignClass_MinorityLightBlockIsDarkCorner(t *testing.T) {
	img := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8UC1)
	defer img.Close()
	fillGray(img, 0)
	for r := 8; r <= 10; r++ {
		for c := 8; c <= 10; c++ {
			img.SetUCharAt(r, c, 255)
		}
	}

	kps := []gocv.KeyPoint{{X: 10, Y: 10, Response: 50}}
	out := assignClass(kps, img)
	require.Len(t, out, 1)
	require.Equal(t, 1, out[0].Class)
}

// TestAssignClass_QuadrantCheckerboardIsSaddle exercises the nC>2 branch: a
// diagonal checkerboard produces four 4-connected components.
func TestAssignClass_QuadrantCheckerboardIsSaddle(t *testing.T) {
	img := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8UC1)
	defer img.Close()
	fillGray(img, 0)

	y0, x0 := 5, 5
	for r := 0; r <= 10; r++ {
		for c := 0; c <= 10; c++ {
			macroRow, macroCol := 0, 0
			if r >= 6 {
				macroRow = 1
			}
			if c >= 6 {
				macroCol = 1
			}
			v := uint8(0)
			if (macroRow+macroCol)%2 == 0 {
				v = 255
			}
			img.SetUCharAt(y0+r, x0+c, v)
		}
	}

	kps := []gocv.KeyPoint{{X: 10, Y: 10, Response: 50}}
	out := assignClass(kps, img)
	require.Len(t, out, 1)
	require.Equal(t, 2, out[0].Class)
}

func TestAssignClass_FlatPatchDefaultsToClassZero(t *testing.T) {
	img := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8UC1)
	defer img.Close()
	fillGray(img, 128)

	kps := []gocv.KeyPoint{{X: 10, Y: 10, Response: 50}}
	out := assignClass(kps, img)
	require.Len(t, out, 1)
	require.Equal(t, 0, out[0].Class)
}

func TestAssignClass_DropsKeypointsTooCloseToEdge(t *testing.T) {
	img := gocv.NewMatWithSize(20, 20, gocv.MatTypeCV8UC1)
	defer img.Close()
	fillGray(img, 128)

	kps := []gocv.KeyPoint{{X: 1, Y: 1, Response: 50}}
	require.Empty(t, assignClass(kps, img))
}

func TestLabelComponents_CheckerboardHasFourComponents(t *testing.T) {
	bin := [][]uint8{
		{1, 1, 0, 0},
		{1, 1, 0, 0},
		{0, 0, 1, 1},
		{0, 0, 1, 1},
	}
	n, fg, bg := labelComponents(bin)
	require.Equal(t, 4, n)
	require.Equal(t, 8, fg)
	require.Equal(t, 8, bg)
}

func TestLabelComponents_UniformIsOneComponent(t *testing.T) {
	bin := [][]uint8{{0, 0}, {0, 0}}
	n, _, bg := labelComponents(bin)
	require.Equal(t, 1, n)
	require.Equal(t, 4, bg)
}

func TestMinPairwiseDistSq(t *testing.T) {
	pts := []geom.Point2f{{X: 0, Y: 0}, {X: 3, Y: 4}, {X: 0, Y: 1}}
	require.InDelta(t, 1.0, minPairwiseDistSq(pts), 1e-9)
}

func TestFallbackKey_NeverCollidesWithRealIndices(t *testing.T) {
	for markerID := 0; markerID < 5; markerID++ {
		for corner := 0; corner < 4; corner++ {
			require.Less(t, fallbackKey(markerID, corner), 0)
		}
	}
	require.NotEqual(t, fallbackKey(0, 0), fallbackKey(0, 1))
	require.NotEqual(t, fallbackKey(0, 0), fallbackKey(1, 0))
}

// TestDetectWithCorrespondences_NoMarkersReturnsNil covers the early-exit
// branch when Detect finds nothing.
func TestDetectWithCorrespondences_NoMarkersReturnsNil(t *testing.T) {
	det, err := NewDetector(catalog.Fractal4L6, 0)
	require.NoError(t, err)

	img := gocv.NewMatWithSize(64, 64, gocv.MatTypeCV8UC1)
	defer img.Close()

	detections, p3d, p2d, err := det.DetectWithCorrespondences(img)
	require.NoError(t, err)
	require.Empty(t, detections)
	require.Nil(t, p3d)
	require.Nil(t, p2d)
}
