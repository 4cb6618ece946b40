package marker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Liiizhen/Optimized-fractal/internal/geom"
)

func newTestSet(unit Unit) *FractalMarkerSet {
	root := &FractalMarker{
		ID:   0,
		Side: 6,
		Bits: make([]uint8, 36),
		Mask: make([]uint8, 36),
		ExternalCorners: [4]geom.Point3f{
			{X: -1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: -1}, {X: -1, Y: -1},
		},
	}
	for i := range root.Mask {
		root.Mask[i] = 1
	}
	root.InnerKeypoints = []InnerKeypoint{
		{Pos: geom.Point2f{X: -1, Y: 1}},
		{Pos: geom.Point2f{X: 1, Y: 1}},
		{Pos: geom.Point2f{X: 1, Y: -1}},
		{Pos: geom.Point2f{X: -1, Y: -1}},
	}
	return &FractalMarkerSet{
		Markers:     map[int]*FractalMarker{0: root},
		BitsByCount: map[int][]int{36: {0}},
		ExternalID:  0,
		Unit:        unit,
	}
}

func TestConvertToMeters_RejectsAlreadyMetric(t *testing.T) {
	set := newTestSet(UnitMeters)
	err := set.ConvertToMeters(0.2)
	require.ErrorIs(t, err, ErrUnitConversion)
}

func TestConvertToMeters_ScalesKeypointsAndFlipsUnit(t *testing.T) {
	set := newTestSet(UnitNormalized)
	err := set.ConvertToMeters(1.0)
	require.NoError(t, err)
	require.Equal(t, UnitMeters, set.Unit)

	root := set.Markers[0]
	require.InDelta(t, -0.5, root.InnerKeypoints[0].Pos.X, 1e-6)
	require.InDelta(t, 0.5, root.InnerKeypoints[0].Pos.Y, 1e-6)

	// ExternalCorners must scale in lockstep with InnerKeypoints so the
	// first four inner keypoints still coincide with the external corners.
	for i := 0; i < 4; i++ {
		require.InDelta(t, float64(root.InnerKeypoints[i].Pos.X), float64(root.ExternalCorners[i].X), 1e-6)
		require.InDelta(t, float64(root.InnerKeypoints[i].Pos.Y), float64(root.ExternalCorners[i].Y), 1e-6)
	}
}

func TestFractalMarker_AtAndMaskAt(t *testing.T) {
	m := &FractalMarker{
		Side: 2,
		Bits: []uint8{1, 0, 0, 1},
		Mask: []uint8{1, 1, 0, 1},
	}
	require.Equal(t, uint8(1), m.At(0, 0))
	require.Equal(t, uint8(0), m.At(0, 1))
	require.Equal(t, uint8(0), m.MaskAt(1, 0))
	require.Equal(t, 4, m.NBits())
}
