package fractal

import (
	"image/color"

	"github.com/Liiizhen/Optimized-fractal/internal/geom"
	"gocv.io/x/gocv"
)

// Detection is one identified marker: its catalogue id and its four
// external corners in image pixels, wound the same way the candidate
// quad was sorted. It is a plain record rather than a point-list
// subtype, since a detection never needs the marker's full geometry.
type Detection struct {
	ID      int
	Corners [4]geom.Point2f
}

// Draw paints the detection's four corners and connecting edges onto img,
// a purely illustrative convenience outside the detection core.
func (d Detection) Draw(img gocv.Mat, clr color.RGBA) {
	pts := d.Corners
	for i := 0; i < 4; i++ {
		start := pts[i]
		end := pts[(i+1)%4]
		gocv.Line(&img,
			geomToImagePoint(start), geomToImagePoint(end),
			clr, 2)
	}
}
