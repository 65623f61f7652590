package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/taigrr/volslice/pkg/camera"
	"github.com/taigrr/volslice/pkg/math3d"
	"github.com/taigrr/volslice/pkg/volume"
)

// config holds the persistent flags shared by every command.
type config struct {
	step           float64
	pivot          string
	containment    string
	dropDegenerate bool

	view     string
	rowMajor bool
	eye      string
	azimuth  float64
	polar    float64
	distance float64

	logLevel string
}

func (c *config) register(fs *pflag.FlagSet) {
	fs.Float64Var(&c.step, "step", volume.DefaultStep, "Depth increment between slices")
	fs.StringVar(&c.pivot, "pivot", "origin", "Sort slice vertices around the origin or the slice centroid (origin|centroid)")
	fs.StringVar(&c.containment, "containment", "bbox", "Edge hit test (bbox|parametric)")
	fs.BoolVar(&c.dropDegenerate, "drop-degenerate", false, "Skip zero-area slices")
	fs.StringVar(&c.view, "view", "", "Explicit view matrix as 16 comma-separated numbers (column-major unless --row-major)")
	fs.BoolVar(&c.rowMajor, "row-major", false, "Read --view in row-major order")
	fs.StringVar(&c.eye, "eye", "", "Look at the cube center from this x,y,z position (ignored with --view)")
	fs.Float64Var(&c.azimuth, "azimuth", 0, "Camera azimuth in radians (ignored with --view)")
	fs.Float64Var(&c.polar, "polar", 0, "Camera polar tilt in radians (ignored with --view)")
	fs.Float64Var(&c.distance, "distance", 3, "Camera distance from the cube center (ignored with --view)")
	fs.StringVar(&c.logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
}

func (c *config) options() (volume.Options, error) {
	pivot, err := volume.ParsePivot(c.pivot)
	if err != nil {
		return volume.Options{}, err
	}
	containment, err := volume.ParseContainment(c.containment)
	if err != nil {
		return volume.Options{}, err
	}
	return volume.Options{
		Step:           c.step,
		Pivot:          pivot,
		Containment:    containment,
		DropDegenerate: c.dropDegenerate,
	}, nil
}

func (c *config) slicer(metrics *volume.Metrics) (*volume.Slicer, error) {
	opts, err := c.options()
	if err != nil {
		return nil, err
	}
	opts.Metrics = metrics
	s, err := volume.New(opts)
	if err != nil {
		return nil, fmt.Errorf("slicer: %w", err)
	}
	return s, nil
}

func (c *config) camera() *camera.Camera {
	cam := camera.New(math3d.V3(0, 0, c.distance), math3d.Vec3{})
	cam.Rotate(c.azimuth, c.polar)
	return cam
}

func (c *config) viewMatrix() (math3d.Mat4, error) {
	switch {
	case c.view != "":
		return parseView(c.view, c.rowMajor)
	case c.eye != "":
		return lookAtCenter(c.eye)
	}
	return c.camera().ViewMatrix(), nil
}

// lookAtCenter builds a view from eye toward the origin with +Y up, or -Z up
// when eye sits on the Y axis.
func lookAtCenter(s string) (math3d.Mat4, error) {
	vals, err := parseNumbers(s, 3, "eye")
	if err != nil {
		return math3d.Mat4{}, err
	}
	eye := math3d.V3(vals[0], vals[1], vals[2])
	if eye.Len() == 0 {
		return math3d.Mat4{}, fmt.Errorf("eye must not be the cube center")
	}
	up := math3d.V3(0, 1, 0)
	if eye.Normalize().Cross(up).Len() < 1e-9 {
		up = math3d.V3(0, 0, -1)
	}
	return math3d.LookAt(eye, math3d.Vec3{}, up), nil
}

// parseNumbers reads exactly n numbers separated by commas or whitespace.
func parseNumbers(s string, n int, what string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) != n {
		return nil, fmt.Errorf("%s needs %d numbers, got %d", what, n, len(fields))
	}
	vals := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%s element %d: %w", what, i, err)
		}
		vals[i] = v
	}
	return vals, nil
}

// parseView reads 16 numbers separated by commas or whitespace.
func parseView(s string, rowMajor bool) (math3d.Mat4, error) {
	vals, err := parseNumbers(s, 16, "view matrix")
	if err != nil {
		return math3d.Mat4{}, err
	}
	if rowMajor {
		return math3d.Mat4FromRowMajor(vals), nil
	}
	return math3d.Mat4FromSlice(vals), nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}
