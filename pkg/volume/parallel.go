package volume

import (
	"context"
	"fmt"
	"iter"
	"runtime"

	"github.com/taigrr/volslice/pkg/math3d"
	"golang.org/x/sync/errgroup"
)

// SliceParallel runs a pass with the depth range split into contiguous
// chunks across workers. Chunks are joined in depth order, so the result is
// identical to Slice. workers <= 0 uses GOMAXPROCS. Workers check ctx every
// cancelCheckEvery planes, and the only error is ctx's.
func (s *Slicer) SliceParallel(ctx context.Context, view math3d.Mat4, workers int) (Stream, error) {
	eye := Project(view)
	lo, hi := DepthRange(eye)
	n := SliceCount(lo, hi, s.opts.Step)

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = max(1, min(workers, n))
	chunk := (n + workers - 1) / workers

	parts := make([]Stream, workers)
	stats := make([]Stats, workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		from, to := w*chunk, min((w+1)*chunk, n)
		g.Go(func() error {
			s.walk(&eye, depthIndices(ctx, lo, s.opts.Step, from, to), &stats[w], func(_ float64, poly []Vertex, c Vertex) {
				parts[w] = AppendFan(parts[w], poly, c)
			})
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parallel slice: %w", err)
	}

	st := Stats{DepthMin: lo, DepthMax: hi}
	total := 0
	for w := range parts {
		total += len(parts[w])
		st.merge(stats[w])
	}
	out := make(Stream, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	st.Vertices = len(out)

	s.finish(st)
	return out, nil
}

const cancelCheckEvery = 64

// depthIndices yields the scan depths with index in [from, to). It stops
// early once ctx is done, polling every cancelCheckEvery indices.
func depthIndices(ctx context.Context, lo, step float64, from, to int) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for i := from; i < to; i++ {
			if (i-from)%cancelCheckEvery == 0 && ctx.Err() != nil {
				return
			}
			if !yield(depthAt(lo, step, i)) {
				return
			}
		}
	}
}
