package element

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/notargets/PDKernel/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func pt(x, y float64) geometry.Point3 { return geometry.NewPoint3(x, y, 0) }

// samplePoint draws a point inside the reference cell of f
func samplePoint(rng *rand.Rand, f Family) geometry.Point3 {
	switch f {
	case Triangle:
		xi, eta := rng.Float64(), rng.Float64()
		if xi+eta > 1 {
			xi, eta = 1-xi, 1-eta
		}
		return pt(xi, eta)
	default:
		return pt(2*rng.Float64()-1, 2*rng.Float64()-1)
	}
}

func TestShapePartitionOfUnity(t *testing.T) {
	for _, f := range Families {
		t.Run(f.String(), func(t *testing.T) {
			n := 20
			for i := 0; i <= n; i++ {
				for j := 0; j <= n; j++ {
					var p geometry.Point3
					if f == Triangle {
						if i+j > n {
							continue
						}
						p = pt(float64(i)/float64(n), float64(j)/float64(n))
					} else {
						p = pt(-1+2*float64(i)/float64(n), -1+2*float64(j)/float64(n))
					}
					assert.InDelta(t, 1., floats.Sum(f.ShapeValues(p)), 1.e-12, "p = %v", p)
				}
			}
		})
	}
}

func TestShapeKronecker(t *testing.T) {
	for _, f := range Families {
		t.Run(f.String(), func(t *testing.T) {
			for k, v := range f.ReferenceVertices() {
				S := f.ShapeValues(v)
				require.Len(t, S, f.NumVertices())
				for i := range S {
					want := 0.
					if i == k {
						want = 1.
					}
					assert.Equal(t, want, S[i], "N_%d at vertex %d", i, k)
				}
			}
		})
	}
}

func TestShapeGradientsFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	h := 1.e-6
	for _, f := range Families {
		t.Run(f.String(), func(t *testing.T) {
			for trial := 0; trial < 50; trial++ {
				p := samplePoint(rng, f)
				dS := f.ShapeGradients(p)
				sxp := f.ShapeValues(pt(p.X+h, p.Y))
				sxm := f.ShapeValues(pt(p.X-h, p.Y))
				syp := f.ShapeValues(pt(p.X, p.Y+h))
				sym := f.ShapeValues(pt(p.X, p.Y-h))
				for i := range dS {
					assert.InDelta(t, (sxp[i]-sxm[i])/(2*h), dS[i][0], 1.e-6)
					assert.InDelta(t, (syp[i]-sym[i])/(2*h), dS[i][1], 1.e-6)
				}
			}
		})
	}
}

func TestJacobian(t *testing.T) {
	// [10,13] x [8,9] rectangle: dx/dξ = 3/2, dy/dη = 1/2
	verts := []geometry.Point3{pt(10, 8), pt(13, 8), pt(13, 9), pt(10, 9)}

	t.Run("NilSink", func(t *testing.T) {
		det, err := Quadrangle.Jacobian(pt(0.3, -0.2), verts, nil)
		require.NoError(t, err)
		assert.InDelta(t, 0.75, det, 1.e-13)
	})

	t.Run("EmptySink", func(t *testing.T) {
		var J mat.Dense
		det, err := Quadrangle.Jacobian(pt(0, 0), verts, &J)
		require.NoError(t, err)
		assert.InDelta(t, 0.75, det, 1.e-13)
		assert.InDeltaSlice(t, []float64{1.5, 0, 0, 0.5}, J.RawMatrix().Data, 1.e-13)
		assert.InDelta(t, det, mat.Det(&J), 1.e-14)
	})

	t.Run("WrongSink", func(t *testing.T) {
		J := mat.NewDense(3, 3, nil)
		_, err := Quadrangle.Jacobian(pt(0, 0), verts, J)
		assert.True(t, errors.Is(err, ErrDimensionMismatch))
	})

	t.Run("WrongVertexCount", func(t *testing.T) {
		_, err := Triangle.Jacobian(pt(0, 0), verts, nil)
		assert.True(t, errors.Is(err, ErrDimensionMismatch))
	})

	t.Run("Clockwise", func(t *testing.T) {
		cw := []geometry.Point3{verts[0], verts[3], verts[2], verts[1]}
		det, err := Quadrangle.Jacobian(pt(0, 0), cw, nil)
		assert.True(t, errors.Is(err, ErrDegenerateElement))
		assert.Less(t, det, 0.)
	})

	t.Run("CollinearTriangle", func(t *testing.T) {
		_, err := Triangle.Jacobian(pt(0.2, 0.2), []geometry.Point3{pt(0, 0), pt(1, 1), pt(2, 2)}, nil)
		assert.True(t, errors.Is(err, ErrDegenerateElement))
	})
}

func TestCheckElement(t *testing.T) {
	t.Run("Convex", func(t *testing.T) {
		assert.NoError(t, Quadrangle.CheckElement([]geometry.Point3{pt(0, 0), pt(2, 0), pt(2.5, 1.5), pt(0, 1)}))
	})
	t.Run("ThreeCollinear", func(t *testing.T) {
		// interior Gauss points see a positive det, the corner at (2,0) does not
		err := Quadrangle.CheckElement([]geometry.Point3{pt(0, 0), pt(1, 0), pt(2, 0), pt(0, 1)})
		assert.True(t, errors.Is(err, ErrDegenerateElement))
	})
	t.Run("SelfIntersecting", func(t *testing.T) {
		err := Quadrangle.CheckElement([]geometry.Point3{pt(0, 0), pt(1, 0), pt(0, 1), pt(1, 1)})
		assert.True(t, errors.Is(err, ErrDegenerateElement))
	})
}

func TestElementSizeMatchesJacobian(t *testing.T) {
	quads := [][]geometry.Point3{
		{pt(-1, -1), pt(1, -1), pt(1, 1), pt(-1, 1)},
		{pt(0, 0), pt(1, 0), pt(1, 1), pt(0, 1)},
		{pt(10, 8), pt(13, 8), pt(13, 9), pt(10, 9)},
		{pt(0, 0), pt(2, 0), pt(2.5, 1.5), pt(0, 1)},
		{pt(0, 0), pt(3, 0.5), pt(2, 2), pt(-0.5, 1.5)},
		{pt(1, 1), pt(2, 1.2), pt(2.2, 2.5), pt(0.8, 2)},
	}
	tris := [][]geometry.Point3{
		{pt(0, 0), pt(1, 0), pt(0, 1)},
		{pt(1, 1), pt(4, 2), pt(2, 5)},
		{pt(-2, 0), pt(0, -1), pt(0.5, 0.5)},
	}
	check := func(f Family, list [][]geometry.Point3) {
		for i, verts := range list {
			t.Run(fmt.Sprintf("%s/%d", f, i), func(t *testing.T) {
				size, err := f.ElementSize(verts)
				require.NoError(t, err)
				det, err := f.Jacobian(f.ReferenceCentroid(), verts, nil)
				require.NoError(t, err)
				assert.InDelta(t, f.ReferenceMeasure()*det, size, 1.e-10)
			})
		}
	}
	check(Quadrangle, quads)
	check(Triangle, tris)

	t.Run("Degenerate", func(t *testing.T) {
		_, err := Quadrangle.ElementSize([]geometry.Point3{pt(0, 0), pt(1, 0), pt(0, 1), pt(1, 1)})
		assert.True(t, errors.Is(err, ErrDegenerateElement))
	})
}

func TestMapPoint(t *testing.T) {
	verts := []geometry.Point3{pt(10, 8), pt(13, 8), pt(13, 9), pt(10, 9)}
	for k, v := range Quadrangle.ReferenceVertices() {
		x, err := Quadrangle.MapPoint(v, verts)
		require.NoError(t, err)
		assert.Equal(t, verts[k], x)
	}
	x, err := Quadrangle.MapPoint(pt(0, 0), verts)
	require.NoError(t, err)
	assert.InDelta(t, 11.5, x.X, 1.e-14)
	assert.InDelta(t, 8.5, x.Y, 1.e-14)
}

func TestParseFamily(t *testing.T) {
	for name, want := range map[string]Family{
		"triangle": Triangle, "Tri3": Triangle,
		"quadrangle": Quadrangle, " QUAD ": Quadrangle,
	} {
		got, err := ParseFamily(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFamily("hex")
	assert.Error(t, err)
	assert.Equal(t, "Quad4", Quadrangle.Properties().ShortName)
	assert.Equal(t, 5, Triangle.Properties().VtkCellType)
	assert.Equal(t, 9, Quadrangle.VtkCellType())
	assert.Equal(t, D2, Triangle.Dimension())
	assert.Equal(t, "Family(7)", Family(7).String())
}
