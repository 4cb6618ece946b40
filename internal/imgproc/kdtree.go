package imgproc

import (
	"math"
	"sort"

	"github.com/Liiizhen/Optimized-fractal/internal/geom"
	"gonum.org/v1/gonum/floats"
)

// KDPoint is one indexed 2-D point held by a KDTree; Index lets a caller
// map a hit back to whatever payload (a FAST keypoint's class, say) it
// tracks in parallel.
type KDPoint struct {
	Pos   geom.Point2f
	Index int
}

type kdNode struct {
	point       KDPoint
	axis        int
	left, right *kdNode
}

// KDTree is a static 2-D KD-tree supporting radius-bounded nearest
// neighbour queries. It has no gocv equivalent (no Go binding exists for
// cv::flann::Index) and is rebuilt fresh for every
// DetectWithCorrespondences call.
type KDTree struct {
	root *kdNode
}

// NewKDTree builds a balanced tree over pts by recursive median split,
// picking the split axis with the greater coordinate spread at each level
// rather than alternating blindly.
func NewKDTree(pts []geom.Point2f) *KDTree {
	nodes := make([]KDPoint, len(pts))
	for i, p := range pts {
		nodes[i] = KDPoint{Pos: p, Index: i}
	}
	return &KDTree{root: buildKD(nodes)}
}

func buildKD(pts []KDPoint) *kdNode {
	if len(pts) == 0 {
		return nil
	}

	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = float64(p.Pos.X)
		ys[i] = float64(p.Pos.Y)
	}
	spreadX := floats.Max(xs) - floats.Min(xs)
	spreadY := floats.Max(ys) - floats.Min(ys)
	axis := 0
	if spreadY > spreadX {
		axis = 1
	}

	sort.Slice(pts, func(i, j int) bool {
		if axis == 0 {
			return pts[i].Pos.X < pts[j].Pos.X
		}
		return pts[i].Pos.Y < pts[j].Pos.Y
	})

	mid := len(pts) / 2
	node := &kdNode{point: pts[mid], axis: axis}
	node.left = buildKD(pts[:mid])
	node.right = buildKD(pts[mid+1:])
	return node
}

// NearestWithinRadius returns the nearest indexed point to q whose squared
// distance to q is <= radiusSq, or ok=false if none qualifies (a k=1
// radius search, matching cv::flann::Index::radiusSearch's call shape).
func (t *KDTree) NearestWithinRadius(q geom.Point2f, radiusSq float64) (best KDPoint, bestDist float64, ok bool) {
	if t == nil || t.root == nil {
		return KDPoint{}, 0, false
	}
	bestDist = math.Inf(1)

	var visit func(n *kdNode)
	visit = func(n *kdNode) {
		if n == nil {
			return
		}
		d := q.DistSq(n.point.Pos)
		if d <= radiusSq && d < bestDist {
			bestDist = d
			best = n.point
			ok = true
		}

		var axisVal, nodeVal float64
		if n.axis == 0 {
			axisVal, nodeVal = float64(q.X), float64(n.point.Pos.X)
		} else {
			axisVal, nodeVal = float64(q.Y), float64(n.point.Pos.Y)
		}
		diff := axisVal - nodeVal

		near, far := n.left, n.right
		if diff > 0 {
			near, far = n.right, n.left
		}
		visit(near)
		if diff*diff <= bestDist || diff*diff <= radiusSq {
			visit(far)
		}
	}
	visit(t.root)
	return best, bestDist, ok
}
