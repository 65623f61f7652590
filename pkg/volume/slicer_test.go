package volume

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taigrr/volslice/pkg/math3d"
)

func mustSlicer(t *testing.T, opts Options) *Slicer {
	t.Helper()
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func tilted() math3d.Mat4 {
	return math3d.RotateX(0.3).Mul(math3d.RotateY(0.4))
}

func TestNewRejectsInvalidStep(t *testing.T) {
	for _, step := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		opts := DefaultOptions()
		opts.Step = step
		_, err := New(opts)
		require.ErrorIs(t, err, ErrInvalidStep, "step %v", step)
	}
}

func TestNewRejectsUnknownModes(t *testing.T) {
	opts := DefaultOptions()
	opts.Pivot = Pivot(7)
	_, err := New(opts)
	require.Error(t, err)

	opts = DefaultOptions()
	opts.Containment = Containment(7)
	_, err = New(opts)
	require.Error(t, err)
}

func TestDefaultOptions(t *testing.T) {
	s := mustSlicer(t, DefaultOptions())
	require.Equal(t, DefaultStep, s.Options().Step)
	require.Equal(t, PivotOrigin, s.Options().Pivot)
	require.Equal(t, ContainBoundingBox, s.Options().Containment)
	require.False(t, s.Options().DropDegenerate)
}

func TestSliceIdentityHalfStep(t *testing.T) {
	s := mustSlicer(t, Options{Step: 0.5})
	out := s.Slice(math3d.Identity())

	// Two squares, each fanned into four triangles.
	require.Len(t, out, 24)
	require.Equal(t, 8, out.Triangles())
	for i, v := range out[:12] {
		require.Equal(t, -0.5, v.Position.Z, "vertex %d", i)
		require.Equal(t, -1.0, v.TexCoord.Z, "vertex %d", i)
	}
	for i, v := range out[12:] {
		require.Equal(t, 0.0, v.Position.Z, "vertex %d", i+12)
		require.Equal(t, 0.0, v.TexCoord.Z, "vertex %d", i+12)
	}

	// Every third vertex is the slice centroid.
	for i := 2; i < len(out); i += 3 {
		require.Equal(t, 0.0, out[i].Position.X)
		require.Equal(t, 0.0, out[i].Position.Y)
	}
}

func TestSliceCountsMatchPolygons(t *testing.T) {
	views := []math3d.Mat4{
		math3d.Identity(),
		tilted(),
		math3d.RotateAxis(math3d.V3(1, 1, 1), 0.9),
		math3d.Translate(math3d.V3(0.2, 0.1, -3)).Mul(math3d.RotateZ(0.5)).Mul(math3d.RotateX(1.2)),
	}
	s := mustSlicer(t, Options{Step: 0.01})
	for _, view := range views {
		out := s.Slice(view)
		polys := s.Polygons(view)

		want := 0
		for _, p := range polys {
			require.GreaterOrEqual(t, len(p.Vertices), 3)
			require.LessOrEqual(t, len(p.Vertices), 6)
			want += 3 * len(p.Vertices)
		}
		require.Len(t, out, want)
		require.Zero(t, len(out)%3)
	}
}

func TestSliceIdempotent(t *testing.T) {
	s := mustSlicer(t, DefaultOptions())
	view := tilted()
	require.Equal(t, s.Slice(view), s.Slice(view))
}

func TestSliceIntoReusesBuffer(t *testing.T) {
	s := mustSlicer(t, Options{Step: 0.05})
	view := tilted()

	first := s.Slice(view)
	require.NotEmpty(t, first)
	want := append(Stream(nil), first...)

	// Overwrite with a smaller pass, then fill again from the same storage.
	small := s.SliceInto(first, math3d.Identity())
	require.Same(t, &first[0], &small[0])

	again := s.SliceInto(small, view)
	require.Equal(t, want, again)
	require.Same(t, &first[0], &again[0])
}

func TestSliceFlattenedCube(t *testing.T) {
	s := mustSlicer(t, DefaultOptions())
	out, st := s.Run(nil, math3d.Scale(math3d.V3(1, 1, 0)))
	require.Empty(t, out)
	require.Zero(t, st.Slices)
	require.Equal(t, st.DepthMin, st.DepthMax)
}

func TestSliceStepLargerThanRange(t *testing.T) {
	s := mustSlicer(t, Options{Step: 5})
	polys := s.Polygons(math3d.Identity())
	require.Len(t, polys, 1)
	require.Equal(t, -0.5, polys[0].Depth)
	require.Len(t, s.Slice(math3d.Identity()), 12)
}

// With one corner nearest the viewer, the first plane passes exactly through
// it: three edges meet there and the cut collapses to a point.
func TestSingleCornerFirstSlice(t *testing.T) {
	view := tilted()
	eye := Project(view)
	lo, _ := DepthRange(eye)
	require.Equal(t, lo, eye[2].Z, "corner 2 is nearest")

	for _, c := range []Containment{ContainBoundingBox, ContainParametric} {
		t.Run(c.String(), func(t *testing.T) {
			opts := Options{Step: 0.5, Containment: c}
			s := mustSlicer(t, opts)
			polys := s.Polygons(view)
			require.Len(t, polys, 4)

			first := polys[0]
			require.Equal(t, lo, first.Depth)
			require.Len(t, first.Vertices, 3)
			for _, v := range first.Vertices {
				require.Equal(t, eye[2], v.Position)
				require.Equal(t, TexCoords[2], v.TexCoord)
			}
			require.Zero(t, signedArea(first.Vertices))

			out, st := s.Run(nil, view)
			want := 0
			for _, p := range polys {
				want += 3 * len(p.Vertices)
			}
			require.Len(t, out, want)
			require.Zero(t, st.Dropped)
			require.Zero(t, st.Violations)

			opts.DropDegenerate = true
			s = mustSlicer(t, opts)
			dropped := s.Polygons(view)
			require.Len(t, dropped, 3)
			require.Equal(t, polys[1:], dropped)

			out2, st := s.Run(nil, view)
			require.Equal(t, 1, st.Dropped)
			require.Equal(t, out[9:], out2)
		})
	}
}

// Every plane of a pass cuts 0 or 3 to 6 vertices, whatever the rotation.
func TestDefaultOptionsNoViolations(t *testing.T) {
	n := 60
	if testing.Short() {
		n = 12
	}
	s := mustSlicer(t, DefaultOptions())
	var buf Stream
	for i := range n {
		for j := range n {
			view := math3d.Translate(math3d.V3(0, 0, -3)).
				Mul(math3d.RotateX(0.05 * float64(i))).
				Mul(math3d.RotateY(0.05 * float64(j)))
			var st Stats
			buf, st = s.Run(buf[:0], view)
			require.Zero(t, st.Violations, "rotx %v roty %v", 0.05*float64(i), 0.05*float64(j))
			require.Positive(t, st.Polygons())
		}
	}
}

func TestDefaultOptionsYawSweep(t *testing.T) {
	frames := 2000
	if testing.Short() {
		frames = 200
	}
	s := mustSlicer(t, DefaultOptions())
	var buf Stream
	for k := range frames {
		yaw := 0.005 * float64(k)
		view := math3d.Translate(math3d.V3(0, 0, -3)).Mul(math3d.RotateY(yaw))
		var st Stats
		buf, st = s.Run(buf[:0], view)
		require.Zero(t, st.Violations, "yaw %v", yaw)
	}
}

func TestRunStats(t *testing.T) {
	s := mustSlicer(t, Options{Step: 0.5})
	out, st := s.Run(nil, math3d.Identity())

	require.Equal(t, -0.5, st.DepthMin)
	require.Equal(t, 0.5, st.DepthMax)
	require.Equal(t, 2, st.Slices)
	require.Zero(t, st.Empty)
	require.Zero(t, st.Violations)
	require.Zero(t, st.Dropped)
	require.Equal(t, len(out), st.Vertices)
	require.Equal(t, 2, st.PolygonSizes[4])
	require.Equal(t, 2, st.Polygons())
}

func TestRunStatsAccountForEveryPlane(t *testing.T) {
	s := mustSlicer(t, Options{Step: 0.013})
	view := tilted()
	_, st := s.Run(nil, view)
	lo, hi := DepthRange(Project(view))
	require.Equal(t, SliceCount(lo, hi, 0.013), st.Slices)
	require.Equal(t, st.Slices, st.Polygons()+st.Empty+st.Violations+st.Dropped)
}

func TestInterleavedLayout(t *testing.T) {
	s := Stream{
		{Position: math3d.V3(1, 2, 3), TexCoord: math3d.V3(4, 5, 6)},
		{Position: math3d.V3(-1, -2, -3), TexCoord: math3d.V3(0.5, 0.25, 0)},
	}
	got := s.Interleaved()
	require.Len(t, got, 2*FloatsPerVertex)
	require.Equal(t, []float32{1, 2, 3, 4, 5, 6, -1, -2, -3, 0.5, 0.25, 0}, got)
}

func BenchmarkSliceDefault(b *testing.B) {
	s, err := New(DefaultOptions())
	if err != nil {
		b.Fatal(err)
	}
	view := tilted()
	var buf Stream
	b.ReportAllocs()
	for b.Loop() {
		buf = s.SliceInto(buf, view)
	}
}
