package fractal

import (
	"math"
	"sort"

	"github.com/Liiizhen/Optimized-fractal/internal/geom"
	"github.com/Liiizhen/Optimized-fractal/internal/imgproc"
	"gocv.io/x/gocv"
)

// classifiedPoint is a FAST keypoint after kfilter and assign_class have
// run, ready for KD-tree matching.
type classifiedPoint struct {
	Pos   geom.Point2f
	Class int
}

// DetectWithCorrespondences runs the primary pipeline and, if at least
// one marker was found, the extended correspondence builder:
// homography-driven projection of every known inner keypoint, classified
// FAST matching, deduplication and joint subpixel refinement.
func (d *Detector) DetectWithCorrespondences(img gocv.Mat) ([]Detection, []geom.Point3f, []geom.Point2f, error) {
	detections, err := d.Detect(img)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(detections) == 0 {
		return detections, nil, nil, nil
	}

	gray, err := imgproc.ToGray(img)
	if err != nil {
		return nil, nil, nil, err
	}
	defer gray.Close()

	var objPts, imgPts []geom.Point2f
	byID := make(map[int]Detection, len(detections))
	for _, det := range detections {
		byID[det.ID] = det
		m := d.set.Markers[det.ID]
		if m == nil {
			continue
		}
		for i := 0; i < 4; i++ {
			c := m.ExternalCorners[i]
			objPts = append(objPts, geom.Point2f{X: c.X, Y: c.Y})
			imgPts = append(imgPts, det.Corners[i])
		}
	}

	h, ok := imgproc.FindHomography(objPts, imgPts)
	defer h.Close()
	if !ok {
		return detections, nil, nil, nil
	}

	fastKps := imgproc.DetectFAST(gray)
	filtered := kfilter(fastKps)
	classified := assignClass(filtered, gray)

	targets := make([]geom.Point2f, len(classified))
	for i, c := range classified {
		targets[i] = c.Pos
	}
	tree := imgproc.NewKDTree(targets)

	type claim struct {
		p3d    geom.Point3f
		p2d    geom.Point2f
		distSq float64
	}
	claimed := make(map[int]claim)

	rows, cols := gray.Rows(), gray.Cols()

	for _, m := range d.set.Markers {
		proj := make([]geom.Point2f, len(m.InnerKeypoints))
		for i, kp := range m.InnerKeypoints {
			proj[i] = imgproc.ApplyHomography(h, kp.Pos)
		}

		if minPairwiseDistSq(proj) < ScaleGateSq {
			if det, wasDetected := byID[m.ID]; wasDetected {
				for i := 0; i < 4; i++ {
					c := m.ExternalCorners[i]
					claimed[fallbackKey(m.ID, i)] = claim{
						p3d:    geom.Point3f{X: c.X, Y: c.Y, Z: 0},
						p2d:    det.Corners[i],
						distSq: 0,
					}
				}
			}
			continue
		}

		for i, p := range proj {
			if p.X < 0 || p.Y < 0 || float64(p.X) >= float64(cols) || float64(p.Y) >= float64(rows) {
				continue
			}
			nearest, distSq, found := tree.NearestWithinRadius(p, MatchRadiusSq)
			if !found || distSq == 0 || distSq > MaxMatchDistSq {
				continue
			}
			if classified[nearest.Index].Class != m.InnerKeypoints[i].Class {
				continue
			}

			existing, has := claimed[nearest.Index]
			if has && existing.distSq <= distSq {
				continue
			}
			claimed[nearest.Index] = claim{
				p3d:    geom.Point3f{X: m.InnerKeypoints[i].Pos.X, Y: m.InnerKeypoints[i].Pos.Y, Z: 0},
				p2d:    nearest.Pos,
				distSq: distSq,
			}
		}
	}

	if len(claimed) == 0 {
		return detections, nil, nil, nil
	}

	keys := make([]int, 0, len(claimed))
	for k := range claimed {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	p3d := make([]geom.Point3f, 0, len(keys))
	p2d := make([]geom.Point2f, 0, len(keys))
	for _, k := range keys {
		p3d = append(p3d, claimed[k].p3d)
		p2d = append(p2d, claimed[k].p2d)
	}

	refined := imgproc.RefineCorners(gray, p2d, ExtendedRefineWinHalf, RefineMaxIter, RefineEps)
	return detections, p3d, refined, nil
}

// fallbackKey maps a (marker id, corner index) pair into the claimed-index
// space using negative numbers, since FAST-keypoint indices are always
// >= 0; this keeps fallback correspondences in the same dedup map without
// ever colliding with a real KD-tree hit.
func fallbackKey(markerID, cornerIdx int) int {
	return -(markerID*4 + cornerIdx + 1)
}

func minPairwiseDistSq(pts []geom.Point2f) float64 {
	min := math.Inf(1)
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			d := pts[i].DistSq(pts[j])
			if d < min {
				min = d
			}
		}
	}
	return min
}

// kfilter discards low-response FAST keypoints and then greedily
// suppresses close duplicates in descending response order, leaving one
// keypoint per distinct corner.
func kfilter(kps []gocv.KeyPoint) []gocv.KeyPoint {
	if len(kps) == 0 {
		return nil
	}
	minResp, maxResp := kps[0].Response, kps[0].Response
	for _, k := range kps {
		if k.Response < minResp {
			minResp = k.Response
		}
		if k.Response > maxResp {
			maxResp = k.Response
		}
	}
	t := minResp + KFilterResponseBand*(maxResp-minResp)

	var kept []gocv.KeyPoint
	for _, k := range kps {
		if k.Response >= t {
			kept = append(kept, k)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Response > kept[j].Response })

	var result []gocv.KeyPoint
	for _, k := range kept {
		suppressed := false
		for _, r := range result {
			dx := float64(k.X - r.X)
			dy := float64(k.Y - r.Y)
			if dx*dx+dy*dy < KFilterMinDistSq {
				suppressed = true
				break
			}
		}
		if !suppressed {
			result = append(result, k)
		}
	}
	return result
}

// assignClass inspects each keypoint's local patch and labels it 0
// (one-white-corner), 1 (one-dark-corner) or 2 (saddle).
func assignClass(kps []gocv.KeyPoint, gray gocv.Mat) []classifiedPoint {
	w := AssignClassWindowHalf
	size := 2*w + 1
	rows, cols := gray.Rows(), gray.Cols()

	out := make([]classifiedPoint, 0, len(kps))
	for _, k := range kps {
		cx := int(math.Round(float64(k.X)))
		cy := int(math.Round(float64(k.Y)))
		x0, y0 := cx-w, cy-w
		if x0 < 0 || y0 < 0 || x0+size > cols || y0+size > rows {
			continue
		}

		patch := make([][]float64, size)
		minV, maxV := 255.0, 0.0
		for r := 0; r < size; r++ {
			patch[r] = make([]float64, size)
			for c := 0; c < size; c++ {
				v := float64(gray.GetUCharAt(y0+r, x0+c))
				patch[r][c] = v
				if v < minV {
					minV = v
				}
				if v > maxV {
					maxV = v
				}
			}
		}

		class := 0
		if maxV-minV >= AssignClassContrastGate {
			thresh := (minV + maxV) / 2
			binary := make([][]uint8, size)
			for r := 0; r < size; r++ {
				binary[r] = make([]uint8, size)
				for c := 0; c < size; c++ {
					if patch[r][c] > thresh {
						binary[r][c] = 1
					}
				}
			}
			nC, fg, bg := labelComponents(binary)
			switch {
			case nC == 2:
				if fg > bg {
					class = 0
				} else {
					class = 1
				}
			case nC > 2:
				class = 2
			}
		}

		out = append(out, classifiedPoint{Pos: geom.Point2f{X: k.X, Y: k.Y}, Class: class})
	}
	return out
}

// labelComponents runs 4-connected-component labelling over a binarized
// patch via union-find, returning the distinct component count and the
// total foreground/background pixel counts.
func labelComponents(bin [][]uint8) (components, fgCount, bgCount int) {
	n := len(bin)
	parent := make([]int, n*n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	idx := func(r, c int) int { return r*n + c }

	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			if c > 0 && bin[r][c] == bin[r][c-1] {
				union(idx(r, c), idx(r, c-1))
			}
			if r > 0 && bin[r][c] == bin[r-1][c] {
				union(idx(r, c), idx(r-1, c))
			}
		}
	}

	roots := make(map[int]bool)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			roots[find(idx(r, c))] = true
			if bin[r][c] == 1 {
				fgCount++
			} else {
				bgCount++
			}
		}
	}
	return len(roots), fgCount, bgCount
}
