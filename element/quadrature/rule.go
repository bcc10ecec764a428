package quadrature

import (
	"fmt"
	"strings"

	"github.com/notargets/PDKernel/element"
	"github.com/notargets/PDKernel/geometry"
	"gonum.org/v1/gonum/floats"
)

// MaxOrder is the highest polynomial degree for which a rule is available
const MaxOrder = 12

// Point is a quadrature point on the reference cell with its weight
type Point struct {
	R      geometry.Point3 // reference coordinates (ξ, η)
	Weight float64
}

// Rule integrates exactly every polynomial of total degree <= Order over the
// reference cell of Family
type Rule struct {
	Family element.Family
	Order  int
	Points []Point
}

// Generate returns the quadrature rule of the given degree of exactness.
//
// Quadrangle: tensor product of n = ceil((order+1)/2) Gauss-Legendre points
// per direction.
// Triangle: symmetric rules with 1, 3, 4, 6 and 7 points for orders 1 to 5,
// collapsed Gauss-Jacobi products above that.
//
// Orders outside [1, MaxOrder] return ErrUnsupportedOrder.
func Generate(family element.Family, order int) (Rule, error) {
	if order < 1 || order > MaxOrder {
		return Rule{}, fmt.Errorf("%w: %s order %d (supported 1..%d)",
			element.ErrUnsupportedOrder, family, order, MaxOrder)
	}
	var (
		pts []Point
		err error
	)
	switch family {
	case element.Quadrangle:
		pts, err = gaussLegendreQuad((order + 2) / 2)
	case element.Triangle:
		if order <= len(triangleTables) {
			pts = triangleTables[order-1].expand()
		} else {
			pts, err = collapsedTriangle((order + 2) / 2)
		}
	default:
		return Rule{}, fmt.Errorf("%w: unknown family %d", element.ErrUnsupportedOrder, family)
	}
	if err != nil {
		return Rule{}, err
	}
	return Rule{Family: family, Order: order, Points: pts}, nil
}

func (r Rule) Len() int { return len(r.Points) }

// WeightSum equals the measure of the reference cell
func (r Rule) WeightSum() float64 {
	w := make([]float64, len(r.Points))
	for i, p := range r.Points {
		w[i] = p.Weight
	}
	return floats.Sum(w)
}

func (r Rule) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s rule, order %d, %d points\n", r.Family, r.Order, len(r.Points)))
	for i, p := range r.Points {
		sb.WriteString(fmt.Sprintf("  %2d: (%.15f, %.15f) w = %.15f\n", i, p.R.X, p.R.Y, p.Weight))
	}
	return sb.String()
}

// gaussLegendreQuad builds the n x n tensor rule on [-1,1]^2, ξ varying fastest
func gaussLegendreQuad(n int) ([]Point, error) {
	x, w, err := JacobiGQ(0, 0, n-1)
	if err != nil {
		return nil, err
	}
	pts := make([]Point, 0, n*n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			pts = append(pts, Point{
				R:      geometry.NewPoint3(x[i], x[j], 0),
				Weight: w[i] * w[j],
			})
		}
	}
	return pts, nil
}

// collapsedTriangle maps the square (a, b) in [-1,1]^2 onto the unit triangle
//
//	ξ = (1+a)(1-b)/4,  η = (1+b)/2,  dξ dη = (1-b)/8 da db
//
// absorbing (1-b) into a Gauss-Jacobi(1,0) rule along b
func collapsedTriangle(n int) ([]Point, error) {
	a, wa, err := JacobiGQ(0, 0, n-1)
	if err != nil {
		return nil, err
	}
	b, wb, err := JacobiGQ(1, 0, n-1)
	if err != nil {
		return nil, err
	}
	pts := make([]Point, 0, n*n)
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			pts = append(pts, Point{
				R:      geometry.NewPoint3((1+a[i])*(1-b[j])/4, (1+b[j])/2, 0),
				Weight: wa[i] * wb[j] / 8,
			})
		}
	}
	return pts, nil
}

// orbit is a set of barycentric points generated by permuting (a, b, b).
// a == b denotes the centroid.
type orbit struct {
	a, b, w float64
}

type symmetricRule []orbit

// expand converts barycentric orbits to (ξ, η) = (λ2, λ3) with weights scaled
// to the reference triangle area
func (s symmetricRule) expand() []Point {
	var pts []Point
	for _, o := range s {
		w := 0.5 * o.w
		if o.a == o.b {
			pts = append(pts, Point{R: geometry.NewPoint3(o.a, o.a, 0), Weight: w})
			continue
		}
		pts = append(pts,
			Point{R: geometry.NewPoint3(o.b, o.b, 0), Weight: w},
			Point{R: geometry.NewPoint3(o.a, o.b, 0), Weight: w},
			Point{R: geometry.NewPoint3(o.b, o.a, 0), Weight: w},
		)
	}
	return pts
}

// Dunavant rules, weights normalized to unit sum
var triangleTables = []symmetricRule{
	{ // order 1
		{1. / 3., 1. / 3., 1.},
	},
	{ // order 2
		{2. / 3., 1. / 6., 1. / 3.},
	},
	{ // order 3
		{1. / 3., 1. / 3., -27. / 48.},
		{0.6, 0.2, 25. / 48.},
	},
	{ // order 4
		{0.108103018168070, 0.445948490915965, 0.223381589678011},
		{0.816847572980459, 0.091576213509771, 0.109951743655322},
	},
	{ // order 5
		{1. / 3., 1. / 3., 0.225},
		{0.059715871789770, 0.470142064105115, 0.132394152788506},
		{0.797426985353087, 0.101286507323456, 0.125939180544827},
	},
}
