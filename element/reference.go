package element

import (
	"fmt"

	"github.com/notargets/PDKernel/geometry"
	"gonum.org/v1/gonum/mat"
)

// MinDetJ is the minimum Jacobian determinant accepted for a valid element
const MinDetJ = 1.0e-14

// maxVerts bounds the vertex count of every family
const maxVerts = 4

// ShapeValues returns the shape functions at reference point p, one per local
// vertex.
//
//	Triangle:   N1 = 1-ξ-η, N2 = ξ, N3 = η
//	Quadrangle: N1 = (1-ξ)(1-η)/4, N2 = (1+ξ)(1-η)/4,
//	            N3 = (1+ξ)(1+η)/4, N4 = (1-ξ)(1+η)/4
func (f Family) ShapeValues(p geometry.Point3) []float64 {
	xi, eta := p.X, p.Y
	switch f {
	case Triangle:
		return []float64{1. - xi - eta, xi, eta}
	case Quadrangle:
		return []float64{
			(1. - xi) * (1. - eta) / 4.,
			(1. + xi) * (1. - eta) / 4.,
			(1. + xi) * (1. + eta) / 4.,
			(1. - xi) * (1. + eta) / 4.,
		}
	}
	panic(fmt.Sprintf("element: unknown family %d", f))
}

// derShapes fills d[i] = (dN_i/dξ, dN_i/dη) and returns the vertex count
func (f Family) derShapes(p geometry.Point3, d *[maxVerts][2]float64) int {
	xi, eta := p.X, p.Y
	switch f {
	case Triangle:
		d[0] = [2]float64{-1., -1.}
		d[1] = [2]float64{1., 0.}
		d[2] = [2]float64{0., 1.}
		return 3
	case Quadrangle:
		d[0] = [2]float64{-(1. - eta) / 4., -(1. - xi) / 4.}
		d[1] = [2]float64{(1. - eta) / 4., -(1. + xi) / 4.}
		d[2] = [2]float64{(1. + eta) / 4., (1. + xi) / 4.}
		d[3] = [2]float64{-(1. + eta) / 4., (1. - xi) / 4.}
		return 4
	}
	panic(fmt.Sprintf("element: unknown family %d", f))
}

// ShapeGradients returns [dN_i/dξ, dN_i/dη] for each local vertex at reference point p
func (f Family) ShapeGradients(p geometry.Point3) [][]float64 {
	var d [maxVerts][2]float64
	n := f.derShapes(p, &d)
	grads := make([][]float64, n)
	for i := 0; i < n; i++ {
		grads[i] = []float64{d[i][0], d[i][1]}
	}
	return grads
}

// MapPoint maps reference point p to physical space: x = Σ N_i(p) v_i
func (f Family) MapPoint(p geometry.Point3, verts []geometry.Point3) (x geometry.Point3, err error) {
	if err = f.checkVertices(verts); err != nil {
		return
	}
	for i, N := range f.ShapeValues(p) {
		x.X += N * verts[i].X
		x.Y += N * verts[i].Y
		x.Z += N * verts[i].Z
	}
	return
}

// Jacobian computes the Jacobian of the map from the reference cell to the
// element with vertices verts, evaluated at reference point p, and returns its
// determinant. J is laid out as
//
//	J = | dx/dξ  dy/dξ |
//	    | dx/dη  dy/dη |
//
// so physical gradients follow from ∇_x N = J⁻¹ ∇_ξ N. J may be nil when only
// the determinant is needed; an empty J is resized to 2x2. A determinant at or
// below MinDetJ returns ErrDegenerateElement together with the value.
func (f Family) Jacobian(p geometry.Point3, verts []geometry.Point3, J *mat.Dense) (detJ float64, err error) {
	if err = f.checkVertices(verts); err != nil {
		return
	}
	var d [maxVerts][2]float64
	n := f.derShapes(p, &d)

	var j00, j01, j10, j11 float64
	for i := 0; i < n; i++ {
		j00 += d[i][0] * verts[i].X
		j01 += d[i][0] * verts[i].Y
		j10 += d[i][1] * verts[i].X
		j11 += d[i][1] * verts[i].Y
	}
	detJ = j00*j11 - j01*j10

	if J != nil {
		if J.IsEmpty() {
			J.ReuseAs(2, 2)
		}
		if r, c := J.Dims(); r != 2 || c != 2 {
			return detJ, fmt.Errorf("%w: Jacobian sink is %dx%d, want 2x2",
				ErrDimensionMismatch, r, c)
		}
		J.Set(0, 0, j00)
		J.Set(0, 1, j01)
		J.Set(1, 0, j10)
		J.Set(1, 1, j11)
	}

	if detJ <= MinDetJ {
		return detJ, fmt.Errorf("%w: det(J) = %g at reference point (%g, %g)",
			ErrDegenerateElement, detJ, p.X, p.Y)
	}
	return detJ, nil
}

// CheckElement verifies the element map is orientation preserving over the
// whole cell. The triangle map is affine; the bilinear quadrangle determinant
// is linear in ξ and η, so its sign over the cell is decided at the corners.
func (f Family) CheckElement(verts []geometry.Point3) error {
	var pts []geometry.Point3
	switch f {
	case Triangle:
		pts = []geometry.Point3{f.ReferenceCentroid()}
	case Quadrangle:
		pts = f.ReferenceVertices()
	default:
		panic(fmt.Sprintf("element: unknown family %d", f))
	}
	for _, p := range pts {
		if _, err := f.Jacobian(p, verts, nil); err != nil {
			return err
		}
	}
	return nil
}

// ElementSize returns the area of the element from the shoelace formula over
// its counter-clockwise vertices. It equals ReferenceMeasure() * det(J) at the
// reference centroid for every valid element of either family.
func (f Family) ElementSize(verts []geometry.Point3) (float64, error) {
	if err := f.checkVertices(verts); err != nil {
		return 0, err
	}
	n := len(verts)
	area := 0.
	for i := 0; i < n; i++ {
		a, b := verts[i], verts[(i+1)%n]
		area += a.X*b.Y - b.X*a.Y
	}
	area *= 0.5
	if area <= MinDetJ {
		return area, fmt.Errorf("%w: %s area = %g", ErrDegenerateElement, f, area)
	}
	return area, nil
}

func (f Family) checkVertices(verts []geometry.Point3) error {
	if nv := f.NumVertices(); len(verts) != nv {
		return fmt.Errorf("%w: %s needs %d vertices, got %d",
			ErrDimensionMismatch, f, nv, len(verts))
	}
	return nil
}
