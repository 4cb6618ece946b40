// Package geom holds the small point types shared by the catalogue,
// decoder, image-primitive and detector packages.
package geom

// Point2f is a 2-D point in either image pixels or the marker-set's
// planar coordinate frame, depending on context.
type Point2f struct {
	X, Y float32
}

// Point3f is a 3-D point in the marker-set's coordinate frame; Z is 0
// for every point this module produces, since fractal markers are planar.
type Point3f struct {
	X, Y, Z float32
}

// Sub returns p-q.
func (p Point2f) Sub(q Point2f) Point2f {
	return Point2f{p.X - q.X, p.Y - q.Y}
}

// Cross returns the z-component of the 2-D cross product p x q.
func (p Point2f) Cross(q Point2f) float32 {
	return p.X*q.Y - p.Y*q.X
}

// DistSq returns the squared Euclidean distance between p and q.
func (p Point2f) DistSq(q Point2f) float64 {
	dx := float64(p.X - q.X)
	dy := float64(p.Y - q.Y)
	return dx*dx + dy*dy
}
