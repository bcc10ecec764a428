package integration

import (
	"context"
	"fmt"

	"github.com/notargets/PDKernel/element"
	"github.com/notargets/PDKernel/element/quadrature"
	"github.com/notargets/PDKernel/geometry"
	"github.com/notargets/PDKernel/partitions"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// QuadData holds everything needed at one quadrature point of a physical
// element
type QuadData struct {
	Point     geometry.Point3 // physical coordinates of the point
	Weight    float64         // reference weight times det(J)
	Shapes    []float64       // N_i at the point, one per vertex
	DerShapes [][]float64     // physical gradients ∇_x N_i, [vertex][x|y]
	J         *mat.Dense      // reference to physical Jacobian
	DetJ      float64
}

// Evaluator produces per-element quadrature data for one element family and
// quadrature order. Shape values and reference gradients at the rule points
// are computed once. An Evaluator is read-only after construction and may be
// shared between goroutines.
type Evaluator struct {
	family element.Family
	rule   quadrature.Rule

	shapes    [][]float64   // [point][vertex]
	refGrads  [][][]float64 // [point][vertex][ξ|η]
	refPoints []geometry.Point3
}

func NewEvaluator(family element.Family, order int) (*Evaluator, error) {
	rule, err := quadrature.Generate(family, order)
	if err != nil {
		return nil, err
	}
	ev := &Evaluator{
		family:    family,
		rule:      rule,
		shapes:    make([][]float64, rule.Len()),
		refGrads:  make([][][]float64, rule.Len()),
		refPoints: make([]geometry.Point3, rule.Len()),
	}
	for q, p := range rule.Points {
		ev.refPoints[q] = p.R
		ev.shapes[q] = family.ShapeValues(p.R)
		ev.refGrads[q] = family.ShapeGradients(p.R)
	}
	return ev, nil
}

func (ev *Evaluator) Family() element.Family { return ev.family }

func (ev *Evaluator) Rule() quadrature.Rule { return ev.rule }

// QuadDatas evaluates the full quadrature data on the element with vertices
// verts. Any non-positive Jacobian determinant fails the whole element with
// element.ErrDegenerateElement.
func (ev *Evaluator) QuadDatas(verts []geometry.Point3) ([]QuadData, error) {
	if err := ev.family.CheckElement(verts); err != nil {
		return nil, err
	}
	var (
		nq   = ev.rule.Len()
		nv   = ev.family.NumVertices()
		qd   = make([]QuadData, nq)
		Jinv mat.Dense
	)
	for q := 0; q < nq; q++ {
		J := mat.NewDense(2, 2, nil)
		detJ, err := ev.family.Jacobian(ev.refPoints[q], verts, J)
		if err != nil {
			return nil, err
		}
		if err = Jinv.Inverse(J); err != nil {
			return nil, fmt.Errorf("%w: inverting Jacobian at point %d: %v",
				element.ErrDegenerateElement, q, err)
		}
		x, err := ev.family.MapPoint(ev.refPoints[q], verts)
		if err != nil {
			return nil, err
		}

		ders := make([][]float64, nv)
		for i := 0; i < nv; i++ {
			g := mat.NewVecDense(2, nil)
			g.MulVec(&Jinv, mat.NewVecDense(2, []float64{
				ev.refGrads[q][i][0], ev.refGrads[q][i][1],
			}))
			ders[i] = []float64{g.AtVec(0), g.AtVec(1)}
		}

		qd[q] = QuadData{
			Point:     x,
			Weight:    ev.rule.Points[q].Weight * detJ,
			Shapes:    append([]float64(nil), ev.shapes[q]...),
			DerShapes: ders,
			J:         J,
			DetJ:      detJ,
		}
	}
	return qd, nil
}

// QuadPoints is the light variant of QuadDatas: physical point, weight and
// shape values only. J and DerShapes are left nil.
func (ev *Evaluator) QuadPoints(verts []geometry.Point3) ([]QuadData, error) {
	if err := ev.family.CheckElement(verts); err != nil {
		return nil, err
	}
	qd := make([]QuadData, ev.rule.Len())
	for q := range qd {
		detJ, err := ev.family.Jacobian(ev.refPoints[q], verts, nil)
		if err != nil {
			return nil, err
		}
		x, err := ev.family.MapPoint(ev.refPoints[q], verts)
		if err != nil {
			return nil, err
		}
		qd[q] = QuadData{
			Point:  x,
			Weight: ev.rule.Points[q].Weight * detJ,
			Shapes: append([]float64(nil), ev.shapes[q]...),
			DetJ:   detJ,
		}
	}
	return qd, nil
}

// ElemSize returns the area of the element
func (ev *Evaluator) ElemSize(verts []geometry.Point3) (float64, error) {
	return ev.family.ElementSize(verts)
}

// Integrate approximates the integral of f over the element
func (ev *Evaluator) Integrate(verts []geometry.Point3, f func(geometry.Point3) float64) (float64, error) {
	qd, err := ev.QuadPoints(verts)
	if err != nil {
		return 0, err
	}
	sum := 0.
	for _, d := range qd {
		sum += d.Weight * f(d.Point)
	}
	return sum, nil
}

// ElementSource exposes element vertex lists, e.g. a mesh.Mesh
type ElementSource interface {
	NumElements() int
	ElementVertices(e int) ([]geometry.Point3, error)
}

// MeshQuadDatas computes QuadDatas for every element of src using up to
// workers goroutines, elements split between them by strategy. Results are
// indexed by element. The first failing element cancels the remaining work
// and its error is returned.
func (ev *Evaluator) MeshQuadDatas(ctx context.Context, src ElementSource, workers int,
	strategy partitions.Strategy) ([][]QuadData, error) {
	K := src.NumElements()
	layout, err := partitions.Split(K, workers, strategy)
	if err != nil {
		return nil, err
	}
	out := make([][]QuadData, K)
	g, ctx := errgroup.WithContext(ctx)
	for _, part := range layout.Partitions {
		items := part.Items
		g.Go(func() error {
			for _, e := range items {
				if err := ctx.Err(); err != nil {
					return err
				}
				verts, err := src.ElementVertices(e)
				if err != nil {
					return fmt.Errorf("element %d (partition %d): %w", e, layout.GetPartition(e), err)
				}
				qd, err := ev.QuadDatas(verts)
				if err != nil {
					return fmt.Errorf("element %d (partition %d): %w", e, layout.GetPartition(e), err)
				}
				out[e] = qd
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
