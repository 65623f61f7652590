package volume

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts slicing work. A nil *Metrics records nothing.
type Metrics struct {
	Passes      prometheus.Counter
	Slices      prometheus.Counter
	Vertices    prometheus.Counter
	Violations  prometheus.Counter
	Dropped     prometheus.Counter
	PolygonSize prometheus.Histogram
}

// NewMetrics creates and registers the slicer metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Passes: f.NewCounter(prometheus.CounterOpts{
			Name: "volslice_passes_total",
			Help: "Slicing passes completed.",
		}),
		Slices: f.NewCounter(prometheus.CounterOpts{
			Name: "volslice_slices_total",
			Help: "Depth planes evaluated.",
		}),
		Vertices: f.NewCounter(prometheus.CounterOpts{
			Name: "volslice_vertices_total",
			Help: "Vertices emitted to output streams.",
		}),
		Violations: f.NewCounter(prometheus.CounterOpts{
			Name: "volslice_invariant_violations_total",
			Help: "Slices skipped because they had 1 or 2 intersections.",
		}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "volslice_degenerate_dropped_total",
			Help: "Zero-area slices skipped with DropDegenerate.",
		}),
		PolygonSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "volslice_polygon_vertices",
			Help:    "Vertex count of emitted slice polygons.",
			Buckets: prometheus.LinearBuckets(3, 1, 4),
		}),
	}
}

// Stats summarizes one pass, or one worker's share of it.
type Stats struct {
	DepthMin, DepthMax float64
	Slices             int // depth planes evaluated
	Empty              int // planes that hit no edge
	Violations         int // planes with 1 or 2 hits, skipped
	Dropped            int // zero-area planes skipped by DropDegenerate
	Vertices           int // records emitted
	PolygonSizes       [len(Edges) + 1]int // emitted polygons by vertex count
}

// Polygons returns the number of polygons that were fanned into the stream.
func (st Stats) Polygons() int {
	var n int
	for _, c := range st.PolygonSizes {
		n += c
	}
	return n
}

func (st *Stats) merge(o Stats) {
	st.Slices += o.Slices
	st.Empty += o.Empty
	st.Violations += o.Violations
	st.Dropped += o.Dropped
	st.Vertices += o.Vertices
	for k, n := range o.PolygonSizes {
		st.PolygonSizes[k] += n
	}
}

func (m *Metrics) record(st Stats) {
	if m == nil {
		return
	}
	m.Passes.Inc()
	m.Slices.Add(float64(st.Slices))
	m.Vertices.Add(float64(st.Vertices))
	m.Violations.Add(float64(st.Violations))
	m.Dropped.Add(float64(st.Dropped))
	for k, n := range st.PolygonSizes {
		for range n {
			m.PolygonSize.Observe(float64(k))
		}
	}
}
