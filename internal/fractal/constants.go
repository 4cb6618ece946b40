package fractal

// Constants carried over verbatim from the reference detector. They are
// fragile under resolution changes but preserved here for behavioural
// equivalence; exported so callers and tests can see the original values
// instead of guessing at magic numbers.
const (
	// MinContourLength is the shortest contour, in points, worth
	// approximating as a candidate quad.
	MinContourLength = 120

	// ApproxPolyFraction is the Douglas-Peucker tolerance as a fraction
	// of contour perimeter.
	ApproxPolyFraction = 0.05

	// AdaptiveThresholdC is the adaptive-mean subtractive constant.
	AdaptiveThresholdC = 7.0

	// PrimaryRefineWinHalf is the half-window size for the primary
	// detector's joint corner refinement.
	PrimaryRefineWinHalf = 4
	// RefineMaxIter and RefineEps are shared by both refinement passes.
	RefineMaxIter = 12
	RefineEps     = 0.005

	// ExtendedRefineWinHalf is the half-window size for the extended
	// correspondence builder's refinement pass.
	ExtendedRefineWinHalf = 4

	// ScaleGateSq is the minimum pairwise squared distance, in pixels²,
	// projected inner keypoints must clear before a marker is matched
	// against FAST keypoints instead of falling back to external-only
	// correspondences.
	ScaleGateSq = 150.0

	// MatchRadiusSq is the KD-tree radius search bound, in pixels²
	// (radius 20px), used to find a FAST keypoint near a projected model
	// point.
	MatchRadiusSq = 400.0

	// MaxMatchDistSq rejects a KD-tree hit whose squared distance to the
	// projected point exceeds this bound even though it fell within the
	// search radius.
	MaxMatchDistSq = 320.0

	// KFilterResponseBand is the fraction of the response range below
	// which a FAST keypoint is discarded by kfilter.
	KFilterResponseBand = 0.20

	// KFilterMinDistSq is the squared pixel distance below which two
	// surviving FAST keypoints are considered the same corner; the lower
	// response of the pair is dropped.
	KFilterMinDistSq = 100.0

	// AssignClassWindowHalf is the half-window size (default w=5) used
	// by assign_class to inspect a keypoint's local patch.
	AssignClassWindowHalf = 5

	// AssignClassContrastGate is the local max-min contrast below which
	// a patch is judged flat and assigned class 0 without running
	// connected-component labelling.
	AssignClassContrastGate = 25.0
)
