package fractal

import (
	"image"
	"math"
	"sort"

	"github.com/Liiizhen/Optimized-fractal/internal/catalog"
	"github.com/Liiizhen/Optimized-fractal/internal/geom"
	"github.com/Liiizhen/Optimized-fractal/internal/imgproc"
	"github.com/Liiizhen/Optimized-fractal/internal/marker"
	"gocv.io/x/gocv"
)

// Detector runs the primary and extended detection pipelines against one
// immutable marker.FractalMarkerSet. A Detector holds no per-call mutable
// state outside the call stack, so a single value may be shared across
// goroutines detecting different images concurrently.
type Detector struct {
	set *marker.FractalMarkerSet
}

// NewDetector loads one of the four predefined configurations and,
// when markerSize > 0, rescales the catalogue to meters so that the
// external marker's side length equals markerSize.
func NewDetector(config string, markerSize float64) (*Detector, error) {
	set, err := catalog.Load(config)
	if err != nil {
		return nil, err
	}
	if markerSize > 0 {
		if err := set.ConvertToMeters(float32(markerSize)); err != nil {
			return nil, err
		}
	}
	return &Detector{set: set}, nil
}

type candidateQuad struct {
	corners   [4]geom.Point2f
	perimeter float64
}

// Detect runs the primary contour-based pipeline (candidate quad search,
// homography-based bit sampling, decoding) and returns one detection per
// uniquely identified marker.
func (d *Detector) Detect(img gocv.Mat) ([]Detection, error) {
	gray, err := imgproc.ToGray(img)
	defer gray.Close()
	if err != nil {
		return nil, err
	}

	window := imgproc.AdaptiveWindow(gray.Cols())
	bin := imgproc.Binarize(gray, window, AdaptiveThresholdC)
	defer bin.Close()

	candidates := d.findCandidateQuads(bin)

	type hit struct {
		id        int
		corners   [4]geom.Point2f
		perimeter float64
	}
	var hits []hit

	for bitCount, ids := range d.set.BitsByCount {
		side := isqrt(bitCount)
		for _, cand := range candidates {
			id, nrot, ok := d.decodeQuad(gray, cand.corners, side, ids)
			if !ok {
				continue
			}
			hits = append(hits, hit{
				id:        id,
				corners:   rotateLeft(cand.corners, (4-nrot)%4),
				perimeter: cand.perimeter,
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].id != hits[j].id {
			return hits[i].id < hits[j].id
		}
		return hits[i].perimeter > hits[j].perimeter
	})

	var kept []hit
	seen := make(map[int]bool)
	for _, h := range hits {
		if seen[h.id] {
			continue
		}
		seen[h.id] = true
		kept = append(kept, h)
	}

	if len(kept) == 0 {
		return nil, nil
	}

	flat := make([]geom.Point2f, 0, len(kept)*4)
	for _, h := range kept {
		flat = append(flat, h.corners[:]...)
	}
	refined := imgproc.RefineCorners(gray, flat, PrimaryRefineWinHalf, RefineMaxIter, RefineEps)

	detections := make([]Detection, len(kept))
	for i, h := range kept {
		var corners [4]geom.Point2f
		copy(corners[:], refined[i*4:i*4+4])
		detections[i] = Detection{ID: h.id, Corners: corners}
	}
	return detections, nil
}

// findCandidateQuads extracts contours from bin and keeps the ones that
// approximate to a convex quadrilateral.
func (d *Detector) findCandidateQuads(bin gocv.Mat) []candidateQuad {
	contours := imgproc.FindAllContours(bin)
	defer contours.Close()

	var out []candidateQuad
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		if contour.Size() < MinContourLength {
			contour.Close()
			continue
		}

		perim := imgproc.Perimeter(contour)
		approx := imgproc.ApproxPoly(contour, ApproxPolyFraction*perim)
		if approx.Size() == 4 && imgproc.IsConvex(approx) {
			quad := sortCCW(imgproc.ToPoint2f(approx))
			out = append(out, candidateQuad{corners: quad, perimeter: quadPerimeter(quad)})
		}
		approx.Close()
		contour.Close()
	}
	return out
}

// decodeQuad samples an (S+2)x(S+2) bit matrix inside corners and matches
// it against the candidate ids for that bit count.
func (d *Detector) decodeQuad(gray gocv.Mat, corners [4]geom.Point2f, side int, ids []int) (id, nrot int, ok bool) {
	h := imgproc.UnitQuadHomography(corners)
	defer h.Close()

	n := side + 2
	raw := make([][]float64, n)
	sum := 0.0
	for r := 0; r < n; r++ {
		raw[r] = make([]float64, n)
		for c := 0; c < n; c++ {
			u := (float64(c) + 0.5) / float64(n)
			v := (float64(r) + 0.5) / float64(n)
			p := imgproc.ApplyHomography(h, geom.Point2f{X: float32(u), Y: float32(v)})
			val := math.Round(imgproc.SubpixelValue(gray, p))
			raw[r][c] = val
			sum += val
		}
	}
	mean := sum / float64(n*n)

	bits := make([][]uint8, n)
	for r := 0; r < n; r++ {
		bits[r] = make([]uint8, n)
		for c := 0; c < n; c++ {
			if raw[r][c] > mean {
				bits[r][c] = 255
			}
		}
	}

	return decodeBits(bits, side, ids, d.set)
}

// decodeBits implements the border check, rotation search and
// mask-tolerant comparison used by the decoding rule.
func decodeBits(b [][]uint8, side int, ids []int, set *marker.FractalMarkerSet) (id, nrot int, ok bool) {
	n := side + 2
	for i := 0; i < n; i++ {
		if b[0][i] != 0 || b[n-1][i] != 0 || b[i][0] != 0 || b[i][n-1] != 0 {
			return 0, 0, false
		}
	}

	inner := make([][]uint8, side)
	for r := 0; r < side; r++ {
		inner[r] = make([]uint8, side)
		copy(inner[r], b[r+1][1:1+side])
	}

	for rot := 0; rot < 4; rot++ {
		for _, mid := range ids {
			m := set.Markers[mid]
			if m == nil || m.Side != side {
				continue
			}
			if bitsMatchUnderMask(inner, m) {
				return mid, rot, true
			}
		}
		inner = rotate90CW(inner)
	}
	return 0, 0, false
}

func bitsMatchUnderMask(inner [][]uint8, m *marker.FractalMarker) bool {
	for r := 0; r < m.Side; r++ {
		for c := 0; c < m.Side; c++ {
			if m.MaskAt(r, c) == 0 {
				continue
			}
			want := m.At(r, c) * 255
			if inner[r][c] != want {
				return false
			}
		}
	}
	return true
}

func rotate90CW(b [][]uint8) [][]uint8 {
	n := len(b)
	out := make([][]uint8, n)
	for i := range out {
		out[i] = make([]uint8, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i][j] = b[n-1-j][i]
		}
	}
	return out
}

// sortCCW winds four points consistently: swap v1/v3 iff the cross
// product (v1-v0) x (v2-v0) is negative.
func sortCCW(q []geom.Point2f) [4]geom.Point2f {
	var v [4]geom.Point2f
	copy(v[:], q)
	if v[1].Sub(v[0]).Cross(v[2].Sub(v[0])) < 0 {
		v[1], v[3] = v[3], v[1]
	}
	return v
}

func quadPerimeter(q [4]geom.Point2f) float64 {
	sum := 0.0
	for i := 0; i < 4; i++ {
		sum += math.Sqrt(q[i].DistSq(q[(i+1)%4]))
	}
	return math.Round(sum)
}

func rotateLeft(q [4]geom.Point2f, k int) [4]geom.Point2f {
	var out [4]geom.Point2f
	for i := 0; i < 4; i++ {
		out[i] = q[(i+k)%4]
	}
	return out
}

func isqrt(n int) int {
	return int(math.Round(math.Sqrt(float64(n))))
}

func geomToImagePoint(p geom.Point2f) image.Point {
	return image.Pt(int(math.Round(float64(p.X))), int(math.Round(float64(p.Y))))
}
