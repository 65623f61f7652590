package volume

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/taigrr/volslice/pkg/math3d"
)

// DefaultStep is the default scan step: about 200 slices across a cube of
// unit depth.
const DefaultStep = 0.005

// degenerateArea is the polygon area below which DropDegenerate skips a slice.
const degenerateArea = 1e-12

// ErrInvalidStep is returned by New when the scan step is not a positive,
// finite number.
var ErrInvalidStep = errors.New("scan step must be positive and finite")

// Options configures a Slicer.
type Options struct {
	// Step is the depth increment between slices. Smaller steps give more
	// slices and more output vertices.
	Step float64
	// Pivot is the point slice vertices are sorted around.
	Pivot Pivot
	// Containment decides whether an edge/plane hit lies on the edge.
	Containment Containment
	// DropDegenerate skips slices whose polygon has zero area, such as the
	// single-corner cut at the exact minimum depth.
	DropDegenerate bool
	// Metrics, when set, receives per-pass counts.
	Metrics *Metrics
}

// DefaultOptions returns origin pivot, bounding-box containment and DefaultStep.
func DefaultOptions() Options {
	return Options{
		Step:        DefaultStep,
		Pivot:       PivotOrigin,
		Containment: ContainBoundingBox,
	}
}

// Polygon is one ordered slice.
type Polygon struct {
	Depth    float64
	Vertices []Vertex
	Centroid Vertex
}

// Slicer runs slicing passes. It holds only its options and is safe for
// concurrent use.
type Slicer struct {
	opts Options
}

// New validates opts and returns a Slicer.
func New(opts Options) (*Slicer, error) {
	if !validStep(opts.Step) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStep, opts.Step)
	}
	switch opts.Pivot {
	case PivotOrigin, PivotCentroid:
	default:
		return nil, fmt.Errorf("unknown pivot: %v", opts.Pivot)
	}
	switch opts.Containment {
	case ContainBoundingBox, ContainParametric:
	default:
		return nil, fmt.Errorf("unknown containment: %v", opts.Containment)
	}
	return &Slicer{opts: opts}, nil
}

// Options returns the slicer configuration.
func (s *Slicer) Options() Options {
	return s.opts
}

// Slice runs a full pass for view and returns a new stream.
func (s *Slicer) Slice(view math3d.Mat4) Stream {
	out, _ := s.Run(nil, view)
	return out
}

// SliceInto runs a full pass, reusing dst's storage. Previous contents of
// dst are discarded.
func (s *Slicer) SliceInto(dst Stream, view math3d.Mat4) Stream {
	out, _ := s.Run(dst, view)
	return out
}

// Run is SliceInto that also reports pass statistics.
func (s *Slicer) Run(dst Stream, view math3d.Mat4) (Stream, Stats) {
	eye := Project(view)
	lo, hi := DepthRange(eye)

	st := Stats{DepthMin: lo, DepthMax: hi}
	dst = dst[:0]
	s.walk(&eye, Depths(lo, hi, s.opts.Step), &st, func(_ float64, poly []Vertex, c Vertex) {
		dst = AppendFan(dst, poly, c)
	})
	st.Vertices = len(dst)

	s.finish(st)
	return dst, st
}

// Polygons returns every emitted slice polygon for view, in increasing depth.
func (s *Slicer) Polygons(view math3d.Mat4) []Polygon {
	eye := Project(view)
	lo, hi := DepthRange(eye)

	var polys []Polygon
	var st Stats
	s.walk(&eye, Depths(lo, hi, s.opts.Step), &st, func(d float64, poly []Vertex, c Vertex) {
		polys = append(polys, Polygon{
			Depth:    d,
			Vertices: append([]Vertex(nil), poly...),
			Centroid: c,
		})
	})
	return polys
}

// walk builds, orders and filters the slice at each depth and hands
// emittable polygons to emit. poly is only valid during the call.
func (s *Slicer) walk(eye *[8]math3d.Vec3, depths iter.Seq[float64], st *Stats, emit func(depth float64, poly []Vertex, c Vertex)) {
	var scratch [len(Edges)]Vertex
	for d := range depths {
		st.Slices++
		poly := BuildSlice(scratch[:0], d, eye, s.opts.Containment)

		switch k := len(poly); {
		case k == 0:
			st.Empty++
			continue
		case k < 3:
			st.Violations++
			invariantViolation(d, k)
			continue
		}

		c := Centroid(poly)
		OrderPolygon(poly, s.pivot(c))

		if s.opts.DropDegenerate && math.Abs(signedArea(poly)) <= degenerateArea {
			st.Dropped++
			continue
		}

		st.PolygonSizes[len(poly)]++
		emit(d, poly, c)
	}
}

func (s *Slicer) pivot(c Vertex) math3d.Vec2 {
	if s.opts.Pivot == PivotCentroid {
		return c.Position.XY()
	}
	return math3d.Vec2{}
}

func (s *Slicer) finish(st Stats) {
	s.opts.Metrics.record(st)
	Logger().Debug("slice pass",
		"depth_min", st.DepthMin,
		"depth_max", st.DepthMax,
		"slices", st.Slices,
		"polygons", st.Polygons(),
		"vertices", st.Vertices,
	)
}

// invariantViolation reports a slice with 1 or 2 hits. A plane cutting a
// convex solid crosses at least 3 edges, so this points at a geometry bug
// upstream; the slice is skipped so the frame still renders.
func invariantViolation(depth float64, k int) {
	if debugAssertions {
		panic(fmt.Sprintf("volume: slice at depth %v has %d vertices", depth, k))
	}
	Logger().Warn("skipping slice with too few intersections",
		"depth", depth,
		"vertices", k,
	)
}
