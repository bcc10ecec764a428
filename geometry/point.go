package geometry

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Point3 is a coordinate in reference or physical space. Planar quantities
// leave Z at zero.
type Point3 = r3.Vec

// Tol is the absolute tolerance used by the planar predicates
const Tol = 1.0e-12

func NewPoint3(x, y, z float64) Point3 {
	return Point3{X: x, Y: y, Z: z}
}

// Dist returns |a - b|
func Dist(a, b Point3) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// XY drops the Z component
func XY(p Point3) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// PrintStr formats a list of points as "(x, y, z), (x, y, z), ..." prefixed
// by nt tabs
func PrintStr(list []Point3, nt int) string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("\t", nt))
	for i, p := range list {
		sb.WriteString(fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z))
		if i != len(list)-1 {
			sb.WriteString(", ")
		}
	}
	return sb.String()
}
