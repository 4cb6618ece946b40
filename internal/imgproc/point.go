package imgproc

import "github.com/Liiizhen/Optimized-fractal/internal/geom"

// Point2f is the 2-D point type exposed on the package's public surface;
// it is the same value as geom.Point2f so conversions never need copying.
type Point2f = geom.Point2f
