package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Orientation returns +1 if c lies to the left of the directed line a->b,
// -1 if it lies to the right and 0 if the three points are collinear within Tol.
// Only X and Y are used.
func Orientation(a, b, c Point3) int {
	v := r2.Cross(r2.Sub(XY(b), XY(a)), r2.Sub(XY(c), XY(a)))
	switch {
	case v > Tol:
		return 1
	case v < -Tol:
		return -1
	}
	return 0
}

// SegmentsIntersect reports whether segments p1-p2 and q1-q2 cross at a single
// point interior to both. Segments that only touch (shared endpoint, or an
// endpoint lying on the other segment) and collinear segments, overlapping or
// not, are not intersecting.
func SegmentsIntersect(p1, p2, q1, q2 Point3) bool {
	o1 := Orientation(p1, p2, q1)
	o2 := Orientation(p1, p2, q2)
	if o1*o2 >= 0 {
		return false
	}
	o3 := Orientation(q1, q2, p1)
	o4 := Orientation(q1, q2, p2)
	return o3*o4 < 0
}

// IsPointInsideRectangle tests x against the axis aligned box
// [xMin, xMax] x [yMin, yMax], inclusive up to Tol
func IsPointInsideRectangle(x Point3, xMin, xMax, yMin, yMax float64) bool {
	return !(x.X < xMin-Tol || x.Y < yMin-Tol || x.X > xMax+Tol || x.Y > yMax+Tol)
}

// IsPointInsideAngledRectangle tests x against the rectangle with corner
// (x1, y1) and opposite corner (x2, y2), whose sides are rotated by theta
// (counter-clockwise, radians) from the coordinate axes
func IsPointInsideAngledRectangle(x Point3, x1, x2, y1, y2, theta float64) bool {
	lx, ly := rotateCW(x2-x1, y2-y1, theta)
	mx, my := rotateCW(x.X-x1, x.Y-y1, theta)
	return !(mx < -Tol || my < -Tol || mx > lx+Tol || my > ly+Tol)
}

func rotateCW(x, y, theta float64) (float64, float64) {
	c, s := math.Cos(theta), math.Sin(theta)
	return x*c + y*s, -x*s + y*c
}

// BoundingBox returns the corners of the smallest axis aligned box holding a and b
func BoundingBox(a, b Point3) (lo, hi Point3) {
	lo = NewPoint3(math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z))
	hi = NewPoint3(math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z))
	return
}
