package element

import (
	"fmt"
	"strings"

	"github.com/notargets/PDKernel/geometry"
)

// Dimensionality represents the spatial dimension of an element
type Dimensionality uint8

// D2 is the dimension of every supported family
const D2 Dimensionality = 2

// Family identifies the geometric family of a reference element. The set is
// closed: every operation switches over it.
type Family uint8

const (
	Triangle   Family = iota // linear triangle on (0,0), (1,0), (0,1)
	Quadrangle               // bilinear quadrangle on [-1,1]^2
)

// Families lists every supported family
var Families = []Family{Triangle, Quadrangle}

// Properties contains metadata describing an element family
type Properties struct {
	Name        string         // Full descriptive name (e.g., "Linear Triangle")
	ShortName   string         // Abbreviated name (e.g., "Tri3")
	Type        Family         // Element shape
	NVp         int            // Number of vertex nodes (equals number of vertices)
	Dimensions  Dimensionality // Spatial dimension
	Measure     float64        // Area of the reference cell
	VtkCellType int            // VTK cell code used by writers
}

func (f Family) Properties() Properties {
	switch f {
	case Triangle:
		return Properties{
			Name:        "Linear Triangle",
			ShortName:   "Tri3",
			Type:        Triangle,
			NVp:         3,
			Dimensions:  D2,
			Measure:     0.5,
			VtkCellType: 5,
		}
	case Quadrangle:
		return Properties{
			Name:        "Bilinear Quadrangle",
			ShortName:   "Quad4",
			Type:        Quadrangle,
			NVp:         4,
			Dimensions:  D2,
			Measure:     4.,
			VtkCellType: 9,
		}
	}
	panic(fmt.Sprintf("element: unknown family %d", f))
}

func (f Family) String() string {
	switch f {
	case Triangle:
		return "triangle"
	case Quadrangle:
		return "quadrangle"
	}
	return fmt.Sprintf("Family(%d)", f)
}

func (f Family) NumVertices() int { return f.Properties().NVp }

func (f Family) Dimension() Dimensionality { return f.Properties().Dimensions }

func (f Family) VtkCellType() int { return f.Properties().VtkCellType }

// ReferenceMeasure returns the area of the reference cell
func (f Family) ReferenceMeasure() float64 { return f.Properties().Measure }

// ReferenceVertices returns the reference cell vertices in local order
func (f Family) ReferenceVertices() []geometry.Point3 {
	switch f {
	case Triangle:
		return []geometry.Point3{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	case Quadrangle:
		return []geometry.Point3{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}}
	}
	panic(fmt.Sprintf("element: unknown family %d", f))
}

// ReferenceCentroid returns the centroid of the reference cell
func (f Family) ReferenceCentroid() geometry.Point3 {
	switch f {
	case Triangle:
		return geometry.Point3{X: 1. / 3., Y: 1. / 3.}
	case Quadrangle:
		return geometry.Point3{}
	}
	panic(fmt.Sprintf("element: unknown family %d", f))
}

// ParseFamily accepts the family names used in input decks
func ParseFamily(name string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "triangle", "tri", "tri3":
		return Triangle, nil
	case "quadrangle", "quad", "quad4", "quadrilateral":
		return Quadrangle, nil
	}
	return 0, fmt.Errorf("element: unknown family %q", name)
}
