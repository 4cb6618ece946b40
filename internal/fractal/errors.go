// Package fractal implements the detection pipeline: the primary
// contour-based detector (C4) and the extended homography-driven
// correspondence builder (C5), operating over a marker.FractalMarkerSet
// loaded once by internal/catalog.
package fractal

import (
	"github.com/Liiizhen/Optimized-fractal/internal/catalog"
	"github.com/Liiizhen/Optimized-fractal/internal/imgproc"
	"github.com/Liiizhen/Optimized-fractal/internal/marker"
)

// Re-exported sentinels so callers of this package can errors.Is against
// a single import.
var (
	ErrUnknownConfig  = catalog.ErrUnknownConfig
	ErrMalformedBlob  = catalog.ErrMalformedBlob
	ErrUnitConversion = marker.ErrUnitConversion
	ErrImageFormat    = imgproc.ErrImageFormat
)
