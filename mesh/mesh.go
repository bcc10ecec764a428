package mesh

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/PDKernel/element"
	"github.com/notargets/PDKernel/geometry"
)

// Mesh is an in-memory 2-D mesh of a single element family. Element
// connectivity lists vertices counter-clockwise in the family's local order.
type Mesh struct {
	Family   element.Family
	Nodes    []geometry.Point3
	EToV     [][]int // element to vertex indices into Nodes
	NumCells [2]int  // structured cell counts (nx, ny), zero for unstructured input
}

// NewMesh wraps existing connectivity, checking vertex counts and bounds
func NewMesh(family element.Family, nodes []geometry.Point3, EToV [][]int) (*Mesh, error) {
	nv := family.NumVertices()
	for k, conn := range EToV {
		if len(conn) != nv {
			return nil, fmt.Errorf("%w: element %d has %d vertices, %s needs %d",
				element.ErrDimensionMismatch, k, len(conn), family, nv)
		}
		for _, v := range conn {
			if v < 0 || v >= len(nodes) {
				return nil, fmt.Errorf("%w: element %d references vertex %d of %d",
					element.ErrIndexOutOfRange, k, v, len(nodes))
			}
		}
	}
	return &Mesh{Family: family, Nodes: nodes, EToV: EToV}, nil
}

// NewUniformGrid builds an nx x ny grid of cells covering the rectangle
// [origin.X, origin.X+lx] x [origin.Y, origin.Y+ly]. Each cell is one
// quadrangle or two triangles split along the diagonal from its lower left
// corner. Node (i,j) has index j*(nx+1)+i.
func NewUniformGrid(family element.Family, nx, ny int, origin geometry.Point3, lx, ly float64) (*Mesh, error) {
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("mesh: cell counts must be positive, got %d x %d", nx, ny)
	}
	if !(lx > 0) || !(ly > 0) || math.IsInf(lx, 0) || math.IsInf(ly, 0) {
		return nil, fmt.Errorf("mesh: extents must be positive and finite, got %g x %g", lx, ly)
	}
	dx, dy := lx/float64(nx), ly/float64(ny)
	nodes := make([]geometry.Point3, 0, (nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			nodes = append(nodes, geometry.NewPoint3(
				origin.X+float64(i)*dx, origin.Y+float64(j)*dy, origin.Z))
		}
	}
	node := func(i, j int) int { return j*(nx+1) + i }

	var EToV [][]int
	switch family {
	case element.Quadrangle:
		EToV = make([][]int, 0, nx*ny)
	case element.Triangle:
		EToV = make([][]int, 0, 2*nx*ny)
	default:
		return nil, fmt.Errorf("mesh: unknown family %d", family)
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v0, v1, v2, v3 := node(i, j), node(i+1, j), node(i+1, j+1), node(i, j+1)
			if family == element.Quadrangle {
				EToV = append(EToV, []int{v0, v1, v2, v3})
			} else {
				EToV = append(EToV, []int{v0, v1, v2}, []int{v0, v2, v3})
			}
		}
	}
	return &Mesh{Family: family, Nodes: nodes, EToV: EToV, NumCells: [2]int{nx, ny}}, nil
}

func (m *Mesh) NumElements() int { return len(m.EToV) }

func (m *Mesh) NumNodes() int { return len(m.Nodes) }

// ElementVertices gathers the vertex coordinates of element e
func (m *Mesh) ElementVertices(e int) ([]geometry.Point3, error) {
	if e < 0 || e >= len(m.EToV) {
		return nil, fmt.Errorf("%w: element %d of %d", element.ErrIndexOutOfRange, e, len(m.EToV))
	}
	verts := make([]geometry.Point3, len(m.EToV[e]))
	for i, v := range m.EToV[e] {
		verts[i] = m.Nodes[v]
	}
	return verts, nil
}

// Bounds returns the lower left and upper right corners of the node cloud
func (m *Mesh) Bounds() (lo, hi geometry.Point3) {
	if len(m.Nodes) == 0 {
		return
	}
	lo, hi = m.Nodes[0], m.Nodes[0]
	for _, p := range m.Nodes[1:] {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	return
}

// String returns a summary of the mesh
func (m *Mesh) String() string {
	var sb strings.Builder
	props := m.Family.Properties()
	sb.WriteString("=== Mesh Summary ===\n")
	sb.WriteString(fmt.Sprintf("  Element: %s (%s), %d vertices, %dD, VTK type %d\n",
		props.Name, props.ShortName, props.NVp, m.Family.Dimension(), props.VtkCellType))
	if m.NumCells[0] > 0 {
		sb.WriteString(fmt.Sprintf("  Grid: %d x %d cells\n", m.NumCells[0], m.NumCells[1]))
	}
	sb.WriteString(fmt.Sprintf("  Nodes: %d\n", m.NumNodes()))
	sb.WriteString(fmt.Sprintf("  Elements: %d\n", m.NumElements()))
	lo, hi := m.Bounds()
	sb.WriteString(fmt.Sprintf("  Bounds: [%g, %g] x [%g, %g]\n", lo.X, hi.X, lo.Y, hi.Y))
	return sb.String()
}
