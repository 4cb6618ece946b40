package fractal

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/Liiizhen/Optimized-fractal/internal/catalog"
	"github.com/Liiizhen/Optimized-fractal/internal/geom"
	"github.com/Liiizhen/Optimized-fractal/internal/marker"
)

// renderMarker paints m's own bit pattern (border ring dark, own bits
// white/black per cell, ignoring any nested-child mask) into a fresh
// single-channel image with a plain background margin, so the primary
// detector's contour/homography/decode pipeline has a real marker to find.
func renderMarker(m *marker.FractalMarker, cellSize int) gocv.Mat {
	n := m.Side + 2
	margin := cellSize * 2
	full := n*cellSize + margin*2

	img := gocv.NewMatWithSize(full, full, gocv.MatTypeCV8UC1)
	for r := 0; r < full; r++ {
		for c := 0; c < full; c++ {
			img.SetUCharAt(r, c, 255)
		}
	}

	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			v := uint8(0)
			if r > 0 && r < n-1 && c > 0 && c < n-1 && m.At(r-1, c-1) == 1 {
				v = 255
			}
			y0, x0 := margin+r*cellSize, margin+c*cellSize
			for yy := 0; yy < cellSize; yy++ {
				for xx := 0; xx < cellSize; xx++ {
					img.SetUCharAt(y0+yy, x0+xx, v)
				}
			}
		}
	}
	return img
}

// TestDetect_FindsRenderedExternalMarker covers the upright, unoccluded
// case of scenario S1: a synthetic frame containing the external marker's
// own bit pattern must decode back to the external marker's id.
func TestDetect_FindsRenderedExternalMarker(t *testing.T) {
	set, err := catalog.Load(catalog.Fractal2L6)
	require.NoError(t, err)
	m := set.Markers[set.ExternalID]

	img := renderMarker(m, 20)
	defer img.Close()

	det, err := NewDetector(catalog.Fractal2L6, 0)
	require.NoError(t, err)

	detections, err := det.Detect(img)
	require.NoError(t, err)
	require.NotEmpty(t, detections)

	found := false
	for _, d := range detections {
		if d.ID == set.ExternalID {
			found = true
		}
	}
	require.True(t, found, "expected a detection for external marker id %d, got %+v", set.ExternalID, detections)
}

// TestDetectWithCorrespondences_FindsCorrespondencesForRenderedMarker
// covers the correspondence half of the upright S1 case: a rendered marker
// must yield at least four correspondences.
func TestDetectWithCorrespondences_FindsCorrespondencesForRenderedMarker(t *testing.T) {
	set, err := catalog.Load(catalog.Fractal2L6)
	require.NoError(t, err)
	m := set.Markers[set.ExternalID]

	img := renderMarker(m, 20)
	defer img.Close()

	det, err := NewDetector(catalog.Fractal2L6, 0)
	require.NoError(t, err)

	detections, p3d, p2d, err := det.DetectWithCorrespondences(img)
	require.NoError(t, err)
	require.NotEmpty(t, detections)
	require.Equal(t, len(p3d), len(p2d))
	require.GreaterOrEqual(t, len(p2d), 4)
}

// TestDetect_ColorAndGrayProduceSameDetection covers the real half of S6:
// a rendered marker converted to a 3-channel BGR image must decode to the
// same ids as the original gray image.
func TestDetect_ColorAndGrayProduceSameDetection(t *testing.T) {
	set, err := catalog.Load(catalog.Fractal2L6)
	require.NoError(t, err)
	m := set.Markers[set.ExternalID]

	gray := renderMarker(m, 20)
	defer gray.Close()

	color := gocv.NewMat()
	defer color.Close()
	gocv.CvtColor(gray, &color, gocv.ColorGrayToBGR)

	det, err := NewDetector(catalog.Fractal2L6, 0)
	require.NoError(t, err)

	grayDetections, err := det.Detect(gray)
	require.NoError(t, err)
	colorDetections, err := det.Detect(color)
	require.NoError(t, err)

	require.NotEmpty(t, grayDetections)
	require.Equal(t, len(grayDetections), len(colorDetections))
	for i := range grayDetections {
		require.Equal(t, grayDetections[i].ID, colorDetections[i].ID)
	}
}

// TestDetect_NoMarkersOnBlankImage covers scenario S5: an image with no
// markers yields an empty detection list and no error.
func TestDetect_NoMarkersOnBlankImage(t *testing.T) {
	det, err := NewDetector(catalog.Fractal4L6, 0)
	require.NoError(t, err)

	img := gocv.NewMatWithSize(256, 256, gocv.MatTypeCV8UC1)
	defer img.Close()

	detections, err := det.Detect(img)
	require.NoError(t, err)
	require.Empty(t, detections)
}

// TestDetect_AcceptsColorAndGrayInput covers the channel-format half of
// scenario S6: a 3-channel image goes through ToGray without error.
func TestDetect_AcceptsColorAndGrayInput(t *testing.T) {
	det, err := NewDetector(catalog.Fractal4L6, 0)
	require.NoError(t, err)

	color := gocv.NewMatWithSize(256, 256, gocv.MatTypeCV8UC3)
	defer color.Close()
	_, err = det.Detect(color)
	require.NoError(t, err)

	gray := gocv.NewMatWithSize(256, 256, gocv.MatTypeCV8UC1)
	defer gray.Close()
	_, err = det.Detect(gray)
	require.NoError(t, err)
}

func TestDetect_RejectsUnsupportedChannelCount(t *testing.T) {
	det, err := NewDetector(catalog.Fractal4L6, 0)
	require.NoError(t, err)

	bad := gocv.NewMatWithSize(16, 16, gocv.MatTypeCV8UC4)
	defer bad.Close()
	_, err = det.Detect(bad)
	require.ErrorIs(t, err, ErrImageFormat)
}

func TestSortCCW_SwapsOnNegativeCross(t *testing.T) {
	// A clockwise-wound square should have its 2nd/4th vertex swapped.
	cw := []geom.Point2f{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}}
	out := sortCCW(cw)
	require.Equal(t, cw[3], out[1])
	require.Equal(t, cw[1], out[3])
}

func TestSortCCW_LeavesCCWUnchanged(t *testing.T) {
	ccw := []geom.Point2f{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	out := sortCCW(ccw)
	require.Equal(t, [4]geom.Point2f{ccw[0], ccw[1], ccw[2], ccw[3]}, out)
}

func TestQuadPerimeter_UnitSquare(t *testing.T) {
	q := [4]geom.Point2f{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	require.Equal(t, 4.0, quadPerimeter(q))
}

func TestRotateLeft(t *testing.T) {
	q := [4]geom.Point2f{{X: 0}, {X: 1}, {X: 2}, {X: 3}}
	out := rotateLeft(q, 1)
	require.Equal(t, [4]geom.Point2f{{X: 1}, {X: 2}, {X: 3}, {X: 0}}, out)
}

// TestDecodeBits_RotationEquivariant is invariant 4: rotating the sampled
// bit matrix by 90 degrees yields the same id with nrot decremented mod 4.
func TestDecodeBits_RotationEquivariant(t *testing.T) {
	set, err := catalog.Load(catalog.Fractal2L6)
	require.NoError(t, err)
	m := set.Markers[set.ExternalID]
	side := m.Side
	n := side + 2

	b := make([][]uint8, n)
	for i := range b {
		b[i] = make([]uint8, n)
	}
	for r := 0; r < side; r++ {
		for c := 0; c < side; c++ {
			b[r+1][c+1] = m.At(r, c) * 255
		}
	}

	ids := set.BitsByCount[m.NBits()]
	id0, nrot0, ok0 := decodeBits(b, side, ids, set)
	require.True(t, ok0)
	require.Equal(t, m.ID, id0)
	require.Equal(t, 0, nrot0)

	rotated := rotate90CW(b)
	id1, nrot1, ok1 := decodeBits(rotated, side, ids, set)
	require.True(t, ok1)
	require.Equal(t, m.ID, id1)
	require.Equal(t, (nrot0-1+4)%4, nrot1)
}

func TestDecodeBits_RejectsNonZeroBorder(t *testing.T) {
	set, err := catalog.Load(catalog.Fractal2L6)
	require.NoError(t, err)
	m := set.Markers[set.ExternalID]
	side := m.Side
	n := side + 2

	b := make([][]uint8, n)
	for i := range b {
		b[i] = make([]uint8, n)
	}
	b[0][0] = 255 // corrupt the border

	_, _, ok := decodeBits(b, side, set.BitsByCount[m.NBits()], set)
	require.False(t, ok)
}
