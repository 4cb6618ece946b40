// Package catalog decodes the four predefined fractal-marker
// configuration blobs (FRACTAL_2L_6 .. FRACTAL_5L_6) into a
// marker.FractalMarkerSet.
package catalog

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/Liiizhen/Optimized-fractal/internal/geom"
	"github.com/Liiizhen/Optimized-fractal/internal/marker"
)

// Predefined configuration names accepted by Load.
const (
	Fractal2L6 = "FRACTAL_2L_6"
	Fractal3L6 = "FRACTAL_3L_6"
	Fractal4L6 = "FRACTAL_4L_6"
	Fractal5L6 = "FRACTAL_5L_6"
)

// ErrUnknownConfig is returned by Load for any name other than the four
// predefined configurations.
var ErrUnknownConfig = errors.New("catalog: unknown configuration")

// ErrMalformedBlob is returned when a blob's byte stream is truncated or
// internally inconsistent (a reference to a child id that doesn't exist).
var ErrMalformedBlob = errors.New("catalog: malformed blob")

func blobFor(name string) ([]byte, error) {
	switch name {
	case Fractal2L6:
		return blob2L6, nil
	case Fractal3L6:
		return blob3L6, nil
	case Fractal4L6:
		return blob4L6, nil
	case Fractal5L6:
		return blob5L6, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownConfig, name)
	}
}

// Load decodes one of the four predefined fractal-marker configurations
// into a read-only FractalMarkerSet.
func Load(name string) (*marker.FractalMarkerSet, error) {
	blob, err := blobFor(name)
	if err != nil {
		return nil, err
	}
	return decode(blob)
}

type rawMarker struct {
	id       int32
	bitCount int32
	corners  [4]geom.Point3f
	bits     []uint8
	children []int32
}

func decode(blob []byte) (*marker.FractalMarkerSet, error) {
	r := bytes.NewReader(blob)

	var unitInfo, nMarkers, externalID int32
	if err := readInt32s(r, &unitInfo, &nMarkers, &externalID); err != nil {
		return nil, err
	}
	if nMarkers < 0 {
		return nil, fmt.Errorf("%w: negative marker count %d", ErrMalformedBlob, nMarkers)
	}

	records := make([]rawMarker, 0, nMarkers)
	for i := int32(0); i < nMarkers; i++ {
		var rec rawMarker
		if err := readInt32s(r, &rec.id, &rec.bitCount); err != nil {
			return nil, err
		}
		for c := 0; c < 4; c++ {
			var x, y, z float32
			if err := readFloat32s(r, &x, &y, &z); err != nil {
				return nil, err
			}
			rec.corners[c] = geom.Point3f{X: x, Y: y, Z: z}
		}
		if rec.bitCount < 0 {
			return nil, fmt.Errorf("%w: negative bit count %d", ErrMalformedBlob, rec.bitCount)
		}
		rec.bits = make([]uint8, rec.bitCount)
		if _, err := io.ReadFull(r, rec.bits); err != nil {
			return nil, fmt.Errorf("%w: reading bits: %v", ErrMalformedBlob, err)
		}
		var childCount int32
		if err := readInt32s(r, &childCount); err != nil {
			return nil, err
		}
		if childCount > 0 {
			rec.children = make([]int32, childCount)
			if err := binary.Read(r, binary.LittleEndian, rec.children); err != nil {
				return nil, fmt.Errorf("%w: reading children: %v", ErrMalformedBlob, err)
			}
		}
		records = append(records, rec)
	}

	set := &marker.FractalMarkerSet{
		Markers:     make(map[int]*marker.FractalMarker, len(records)),
		BitsByCount: make(map[int][]int),
		ExternalID:  int(externalID),
		Unit:        marker.Unit(unitInfo),
	}

	for _, rec := range records {
		side := isqrt(int(rec.bitCount))
		m := &marker.FractalMarker{
			ID:              int(rec.id),
			Side:            side,
			Bits:            rec.bits,
			Mask:            onesMask(int(rec.bitCount)),
			ExternalCorners: rec.corners,
			InnerKeypoints:  initialCorners(rec.corners),
		}
		for _, c := range rec.children {
			m.ChildrenIDs = append(m.ChildrenIDs, int(c))
		}
		set.Markers[m.ID] = m
	}

	// Second pass: carve each parent's mask where a child occupies it.
	for _, m := range set.Markers {
		for _, childID := range m.ChildrenIDs {
			child, ok := set.Markers[childID]
			if !ok {
				return nil, fmt.Errorf("%w: marker %d references unknown child %d", ErrMalformedBlob, m.ID, childID)
			}
			carveChildMask(m, child)
		}
	}

	// Third pass: derive every marker's interior keypoints.
	for _, m := range set.Markers {
		computeInnerKeypoints(m)
		set.BitsByCount[m.NBits()] = append(set.BitsByCount[m.NBits()], m.ID)
	}

	if _, ok := set.Markers[set.ExternalID]; !ok {
		return nil, fmt.Errorf("%w: external marker id %d not present", ErrMalformedBlob, set.ExternalID)
	}

	return set, nil
}

// carveChildMask zeroes the parent's mask cells covered by child's
// bounding rectangle.
func carveChildMask(parent, child *marker.FractalMarker) {
	sParent := parent.Side
	bitSizeParent := externalSideLen(parent) / float64(sParent+2)
	if bitSizeParent == 0 {
		return
	}
	nSubBits := int(externalSideLen(child) / bitSizeParent)

	c0 := child.ExternalCorners[0]
	// Corners are Cartesian with y up; mask rows count down from the top.
	xMin := int(math.Round(float64(c0.X)/bitSizeParent + float64(sParent)/2))
	yMin := int(math.Round(-float64(c0.Y)/bitSizeParent + float64(sParent)/2))

	for y := yMin; y < yMin+nSubBits; y++ {
		for x := xMin; x < xMin+nSubBits; x++ {
			if x < 0 || x >= sParent || y < 0 || y >= sParent {
				continue
			}
			parent.Mask[y*sParent+x] = 0
		}
	}
}

// computeInnerKeypoints appends every interior corner location beyond the
// initial four external corners.
func computeInnerKeypoints(m *marker.FractalMarker) {
	s := m.Side
	bitSize := externalSideLen(m) / float64(s+2)

	// padded is (s+2)x(s+2): a 1-cell black (0) border around the
	// marker's own code, with masked-out (child) cells forced to 1.
	padded := make([][]uint8, s+2)
	for i := range padded {
		padded[i] = make([]uint8, s+2)
	}
	for r := 0; r < s; r++ {
		for c := 0; c < s; c++ {
			v := m.At(r, c)
			if m.MaskAt(r, c) == 0 {
				v = 1
			}
			padded[r+1][c+1] = v
		}
	}

	for y := 0; y <= s; y++ {
		for x := 0; x <= s; x++ {
			tl, tr := padded[y][x], padded[y][x+1]
			bl, br := padded[y+1][x], padded[y+1][x+1]
			sum := int(tl) + int(tr) + int(bl) + int(br)

			var class int
			switch {
			case sum == 1:
				class = marker.ClassOneDarkCorner
			case sum == 3:
				class = marker.ClassOneWhiteCorner
			case sum == 2 && tl == br && tr == bl:
				class = marker.ClassSaddle
			default:
				continue
			}

			px := (float64(x) - float64(s)/2) * bitSize
			py := -(float64(y) - float64(s)/2) * bitSize
			m.InnerKeypoints = append(m.InnerKeypoints, marker.InnerKeypoint{
				Pos:   geom.Point2f{X: float32(px), Y: float32(py)},
				Class: class,
			})
		}
	}
}

// externalSideLen returns the 2-D distance between a marker's first two
// external corners, matching FractalMarker::getMarkerSize.
func externalSideLen(m *marker.FractalMarker) float64 {
	a, b := m.ExternalCorners[0], m.ExternalCorners[1]
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func initialCorners(corners [4]geom.Point3f) []marker.InnerKeypoint {
	kps := make([]marker.InnerKeypoint, 4)
	for i, c := range corners {
		kps[i] = marker.InnerKeypoint{
			Pos:   geom.Point2f{X: c.X, Y: c.Y},
			Class: marker.ClassOneWhiteCorner,
		}
	}
	return kps
}

func onesMask(n int) []uint8 {
	m := make([]uint8, n)
	for i := range m {
		m[i] = 1
	}
	return m
}

func isqrt(n int) int {
	return int(math.Round(math.Sqrt(float64(n))))
}

func readInt32s(r io.Reader, vals ...*int32) error {
	for _, v := range vals {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedBlob, err)
		}
	}
	return nil
}

func readFloat32s(r io.Reader, vals ...*float32) error {
	for _, v := range vals {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedBlob, err)
		}
	}
	return nil
}
