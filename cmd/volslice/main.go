// volslice - view-aligned volume slicing
//
// Cuts the unit cube with planes perpendicular to the viewing direction and
// emits the textured triangles a volume renderer composites back to front.
//
// Commands:
//
//	slice   - Print slice statistics for one view
//	export  - Write the slice geometry as GLB, STL, OBJ or JSON
//	sweep   - Orbit the camera and slice every frame
//	info    - Show statistics for an exported file
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/taigrr/volslice/pkg/camera"
	"github.com/taigrr/volslice/pkg/math3d"
	"github.com/taigrr/volslice/pkg/models"
	"github.com/taigrr/volslice/pkg/volume"
)

var version = "dev"

func main() {
	if err := fang.Execute(context.Background(), newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config{}
	root := &cobra.Command{
		Use:   "volslice",
		Short: "View-aligned volume slicing",
		Long: `volslice - view-aligned volume slicing

Slices the unit cube with planes perpendicular to the viewing direction and
fans each slice polygon into triangles carrying 3D texture coordinates.

The view comes from --view (16 numbers), from --eye looking at the cube
center, or from an orbit camera placed with --azimuth, --polar and
--distance.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(cmd.ErrOrStderr(), cfg.logLevel)
		},
	}
	cfg.register(root.PersistentFlags())

	root.AddCommand(newSliceCmd(cfg), newExportCmd(cfg), newSweepCmd(cfg), newInfoCmd())
	return root
}

func setupLogging(w io.Writer, level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	volume.SetLogger(logger)
	return nil
}

func newSliceCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "slice",
		Short: "Print slice statistics for one view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := cfg.slicer(nil)
			if err != nil {
				return err
			}
			view, err := cfg.viewMatrix()
			if err != nil {
				return err
			}
			out, st := s.Run(nil, view)
			printStats(cmd.OutOrStdout(), out, st)
			printView(cmd.OutOrStdout(), view)
			return nil
		},
	}
}

func printStats(w io.Writer, out volume.Stream, st volume.Stats) {
	fmt.Fprintf(w, "Depth:      %.4f .. %.4f\n", st.DepthMin, st.DepthMax)
	fmt.Fprintf(w, "Slices:     %d (%d empty, %d skipped, %d dropped)\n",
		st.Slices, st.Empty, st.Violations, st.Dropped)
	fmt.Fprintf(w, "Polygons:   %d\n", st.Polygons())
	fmt.Fprintf(w, "Vertices:   %d\n", len(out))
	fmt.Fprintf(w, "Triangles:  %d\n", out.Triangles())
	fmt.Fprintln(w)
	for k, n := range st.PolygonSizes {
		if n > 0 {
			fmt.Fprintf(w, "%d-gons:     %d\n", k, n)
		}
	}
}

// printView echoes the view in the column-major form --view reads.
func printView(w io.Writer, view math3d.Mat4) {
	cm := view.ColumnMajor()
	vals := make([]string, len(cm))
	for i, v := range cm {
		vals[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "View:       %s\n", strings.Join(vals, ","))
}

func newExportCmd(cfg *config) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "export <out.glb|out.stl|out.obj|out.json>",
		Short: "Write the slice geometry for one view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), cfg, args[0], workers)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel slicing workers (0 = GOMAXPROCS)")
	return cmd
}

func runExport(ctx context.Context, cfg *config, path string, workers int) error {
	format, err := models.FormatFromPath(path)
	if err != nil {
		return err
	}
	s, err := cfg.slicer(nil)
	if err != nil {
		return err
	}
	view, err := cfg.viewMatrix()
	if err != nil {
		return err
	}
	out, err := s.SliceParallel(ctx, view, workers)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := models.Export(f, format, "volslice", out); err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", format, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	slog.Info("exported", "path", path, "format", format, "vertices", len(out), "triangles", out.Triangles())
	return nil
}

type sweepOptions struct {
	frames      int
	fps         int
	impulse     float64
	metricsFile string
}

func newSweepCmd(cfg *config) *cobra.Command {
	opts := sweepOptions{}
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Orbit the camera and slice every frame",
		Long: `Spins the orbit camera with a spring-damped impulse and runs a slicing
pass per frame. Each frame is sliced twice to check that the output is
identical for an identical view.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSweep(cmd.OutOrStdout(), cfg, opts)
		},
	}
	cmd.Flags().IntVar(&opts.frames, "frames", 120, "Number of frames")
	cmd.Flags().IntVar(&opts.fps, "fps", 60, "Frame rate the orbit spring is tuned for")
	cmd.Flags().Float64Var(&opts.impulse, "impulse", 0.05, "Initial azimuth velocity in radians per frame")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")
	return cmd
}

func runSweep(w io.Writer, cfg *config, opts sweepOptions) error {
	reg := prometheus.NewRegistry()
	s, err := cfg.slicer(volume.NewMetrics(reg))
	if err != nil {
		return err
	}

	cam := cfg.camera()
	orbit := camera.NewOrbit(opts.fps)
	orbit.Push(opts.impulse, opts.impulse/4)

	var buf, check volume.Stream
	var total int
	for frame := range opts.frames {
		orbit.Drive(cam)
		view := cam.ViewMatrix()

		var st volume.Stats
		buf, st = s.Run(buf, view)
		check = s.SliceInto(check, view)
		if !slices.Equal(buf, check) {
			return fmt.Errorf("frame %d: repeated pass differs", frame)
		}
		total += len(buf)

		slog.Info("frame",
			"frame", frame,
			"azimuth", cam.Azimuth(),
			"polar", cam.Polar(),
			"slices", st.Slices,
			"vertices", len(buf),
		)
	}

	fmt.Fprintf(w, "Frames:     %d\n", opts.frames)
	fmt.Fprintf(w, "Azimuth:    %.4f rad\n", cam.Azimuth())
	fmt.Fprintf(w, "Polar:      %.4f rad\n", cam.Polar())
	fmt.Fprintf(w, "Vertices:   %d total\n", total)

	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file.glb|file.stl|file.obj|file.json>",
		Short: "Show statistics for an exported file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.OutOrStdout(), args[0])
		},
	}
}

func runInfo(w io.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	format, err := models.FormatFromPath(path)
	if err != nil {
		return err
	}
	mesh, err := models.Load(path)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	mesh.CalculateBounds()
	size := mesh.Size()
	center := mesh.Center()

	fmt.Fprintf(w, "File:       %s\n", filepath.Base(path))
	fmt.Fprintf(w, "Format:     %s\n", strings.ToUpper(string(format)))
	fmt.Fprintf(w, "Size:       %.2f KB\n", float64(info.Size())/1024)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Vertices:   %d\n", mesh.VertexCount())
	fmt.Fprintf(w, "Triangles:  %d\n", mesh.TriangleCount())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Bounds Min: (%.3f, %.3f, %.3f)\n", mesh.BoundsMin.X, mesh.BoundsMin.Y, mesh.BoundsMin.Z)
	fmt.Fprintf(w, "Bounds Max: (%.3f, %.3f, %.3f)\n", mesh.BoundsMax.X, mesh.BoundsMax.Y, mesh.BoundsMax.Z)
	fmt.Fprintf(w, "Dimensions: %.3f x %.3f x %.3f\n", size.X, size.Y, size.Z)
	fmt.Fprintf(w, "Center:     (%.3f, %.3f, %.3f)\n", center.X, center.Y, center.Z)
	return nil
}
