package fracture

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/PDKernel/geometry"
)

// Crack is a prescribed line segment that breaks every bond crossing it once
// the simulation time reaches ActivationTime
type Crack struct {
	Pb, Pt         geometry.Point3 // bottom and top end points
	O              int             // orientation flag: -1, 0 or +1
	ActivationTime float64
	Activated      bool // set by Store.AddCrack, never cleared
}

// Length returns the distance between the crack end points
func (c *Crack) Length() float64 { return geometry.Dist(c.Pb, c.Pt) }

// Angle is the angle of Pt - Pb with the x axis, counter-clockwise in radians
func (c *Crack) Angle() float64 {
	return math.Atan2(c.Pt.Y-c.Pb.Y, c.Pt.X-c.Pb.X)
}

// mayCross reports whether a node at x with bonds no longer than reach can
// have a bond crossing the crack. A false result is exact; true means the
// bonds need the full segment test.
func (c *Crack) mayCross(x geometry.Point3, reach float64) bool {
	lo, hi := geometry.BoundingBox(c.Pb, c.Pt)
	if !geometry.IsPointInsideRectangle(x, lo.X-reach, hi.X+reach, lo.Y-reach, hi.Y+reach) {
		return false
	}
	theta := c.Angle()
	s, co := math.Sin(theta), math.Cos(theta)
	rot := func(u, v float64) (float64, float64) { return u*co - v*s, u*s + v*co }
	dx1, dy1 := rot(-reach, -reach)
	dx2, dy2 := rot(c.Length()+reach, reach)
	return geometry.IsPointInsideAngledRectangle(x,
		c.Pb.X+dx1, c.Pb.X+dx2, c.Pb.Y+dy1, c.Pb.Y+dy2, theta)
}

// PrintStr describes the crack, prefixed by nt tabs
func (c *Crack) PrintStr(nt int) string {
	tabS := strings.Repeat("\t", nt)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s------- Crack --------\n", tabS))
	sb.WriteString(fmt.Sprintf("%sEnd points = %s\n", tabS,
		geometry.PrintStr([]geometry.Point3{c.Pb, c.Pt}, 0)))
	sb.WriteString(fmt.Sprintf("%sOrientation = %d\n", tabS, c.O))
	sb.WriteString(fmt.Sprintf("%sActivation time = %g\n", tabS, c.ActivationTime))
	sb.WriteString(fmt.Sprintf("%sActivated = %t\n", tabS, c.Activated))
	return sb.String()
}

// Deck is the crack configuration. The store keeps a reference and flips
// Activated on the cracks it applies.
type Deck struct {
	Cracks []*Crack
}

func (d *Deck) PrintStr(nt int) string {
	tabS := strings.Repeat("\t", nt)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%sFracture deck\n", tabS))
	sb.WriteString(fmt.Sprintf("%sNumber of cracks = %d\n", tabS, len(d.Cracks)))
	for _, c := range d.Cracks {
		sb.WriteString(c.PrintStr(nt + 1))
	}
	return sb.String()
}
