package volume

import (
	"fmt"
	"strings"

	"github.com/taigrr/volslice/pkg/math3d"
)

// Containment selects how an edge/plane hit is accepted as lying on the edge.
type Containment int

const (
	// ContainBoundingBox accepts a hit that falls inside the xy bounding box
	// of the edge's endpoints. This is an approximation: an edge that projects
	// to a point in xy accepts hits beyond its ends.
	ContainBoundingBox Containment = iota
	// ContainParametric accepts a hit only when its line parameter is in [0, 1].
	ContainParametric
)

func (c Containment) String() string {
	switch c {
	case ContainBoundingBox:
		return "bbox"
	case ContainParametric:
		return "parametric"
	default:
		return fmt.Sprintf("Containment(%d)", int(c))
	}
}

// ParseContainment parses "bbox" or "parametric".
func ParseContainment(s string) (Containment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bbox", "":
		return ContainBoundingBox, nil
	case "parametric":
		return ContainParametric, nil
	}
	return 0, fmt.Errorf("unknown containment %q (use bbox or parametric)", s)
}

// BuildSlice cuts the cube edges with the plane z = depth and appends one
// vertex per accepted hit to dst. Edges with equal endpoint depths never
// contribute, even when they lie in the plane.
func BuildSlice(dst []Vertex, depth float64, eye *[8]math3d.Vec3, c Containment) []Vertex {
	for _, e := range Edges {
		p1, p2 := eye[e.A], eye[e.B]
		if p1.Z == p2.Z {
			continue
		}

		// p(t) = p1 + (p2-p1)*t, solved for p(t).z == depth
		t := (depth - p1.Z) / (p2.Z - p1.Z)
		pos := edgePoint(p1, p2, t, depth)

		switch c {
		case ContainParametric:
			if t < 0 || t > 1 {
				continue
			}
		default:
			if !withinEdgeBounds(pos, p1, p2) {
				continue
			}
		}

		dst = append(dst, Vertex{
			Position: pos,
			TexCoord: edgeTexCoord(TexCoords[e.A], TexCoords[e.B], t),
		})
	}
	return dst
}

// edgePoint evaluates the edge line at t and places it at depth. The ends
// of the edge come back exactly, and a t inside (0, 1) is held to the
// endpoints' xy box so rounding cannot push it off the edge.
func edgePoint(p1, p2 math3d.Vec3, t, depth float64) math3d.Vec3 {
	switch t {
	case 0:
		return math3d.V3(p1.X, p1.Y, depth)
	case 1:
		return math3d.V3(p2.X, p2.Y, depth)
	}
	x := p1.X + (p2.X-p1.X)*t
	y := p1.Y + (p2.Y-p1.Y)*t
	if t > 0 && t < 1 {
		x = clampBetween(x, p1.X, p2.X)
		y = clampBetween(y, p1.Y, p2.Y)
	}
	return math3d.V3(x, y, depth)
}

func edgeTexCoord(a, b math3d.Vec3, t float64) math3d.Vec3 {
	switch t {
	case 0:
		return a
	case 1:
		return b
	}
	return a.Lerp(b, t)
}

func clampBetween(v, a, b float64) float64 {
	return min(max(v, min(a, b)), max(a, b))
}

// withinEdgeBounds is the approximate containment test: p must lie in the
// inclusive xy bounding box of a and b. Z is not checked.
func withinEdgeBounds(p, a, b math3d.Vec3) bool {
	minX, maxX := a.X, b.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	if p.X < minX || p.X > maxX {
		return false
	}

	minY, maxY := a.Y, b.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return p.Y >= minY && p.Y <= maxY
}
