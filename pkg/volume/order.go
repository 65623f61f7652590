package volume

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/taigrr/volslice/pkg/math3d"
)

// Pivot selects the point slice vertices are sorted around.
type Pivot int

const (
	// PivotOrigin sorts around the eye-space origin. The boundary is only
	// guaranteed simple when the origin lies inside every slice, which holds
	// for a cube centered on the view axis.
	PivotOrigin Pivot = iota
	// PivotCentroid sorts around each slice's own centroid, which is always
	// inside a convex slice.
	PivotCentroid
)

func (p Pivot) String() string {
	switch p {
	case PivotOrigin:
		return "origin"
	case PivotCentroid:
		return "centroid"
	default:
		return fmt.Sprintf("Pivot(%d)", int(p))
	}
}

// ParsePivot parses "origin" or "centroid".
func ParsePivot(s string) (Pivot, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "origin", "":
		return PivotOrigin, nil
	case "centroid":
		return PivotCentroid, nil
	}
	return 0, fmt.Errorf("unknown pivot %q (use origin or centroid)", s)
}

// angleKey is the counter-clockwise angle of p around pivot in the xy plane,
// in [0, 2π).
func angleKey(p math3d.Vec3, pivot math3d.Vec2) float64 {
	return p.XY().Sub(pivot).PositiveAngle()
}

// OrderPolygon sorts vs in place by angle around pivot. Equal angles keep
// their input order.
func OrderPolygon(vs []Vertex, pivot math3d.Vec2) {
	slices.SortStableFunc(vs, func(a, b Vertex) int {
		return cmp.Compare(angleKey(a.Position, pivot), angleKey(b.Position, pivot))
	})
}

// IsSimple reports whether the closed xy boundary through vs has no two
// non-adjacent edges that properly cross. Touching is allowed.
func IsSimple(vs []Vertex) bool {
	n := len(vs)
	if n < 3 {
		return false
	}
	for i := range n {
		a, b := vs[i].Position.XY(), vs[(i+1)%n].Position.XY()
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // shares vs[0]
			}
			c, d := vs[j].Position.XY(), vs[(j+1)%n].Position.XY()
			if segmentsCross(a, b, c, d) {
				return false
			}
		}
	}
	return true
}

func segmentsCross(a, b, c, d math3d.Vec2) bool {
	d1 := b.Sub(a).Cross(c.Sub(a))
	d2 := b.Sub(a).Cross(d.Sub(a))
	d3 := d.Sub(c).Cross(a.Sub(c))
	d4 := d.Sub(c).Cross(b.Sub(c))
	return d1*d2 < 0 && d3*d4 < 0
}

// signedArea is the shoelace area of the xy boundary; positive when
// counter-clockwise.
func signedArea(vs []Vertex) float64 {
	var sum float64
	n := len(vs)
	for i := range n {
		sum += vs[i].Position.XY().Cross(vs[(i+1)%n].Position.XY())
	}
	return sum / 2
}
