// Package camera provides the orbit camera that produces view transforms for
// the slicer, and a spring-damped driver for smooth orbiting.
package camera

import (
	"math"

	"github.com/taigrr/volslice/pkg/math3d"
)

// Step is the angle, in radians, of one RotateLeft/Right/Up/Down call.
const Step = 0.005

// Camera orbits a pivot point. The view matrix is updated incrementally:
// each rotation is applied in object space around the pivot, on top of
// whatever transform is already accumulated.
type Camera struct {
	position math3d.Vec3
	pivot    math3d.Vec3
	view     math3d.Mat4

	azimuth float64 // about +Y
	polar   float64 // about the horizontal axis at the current azimuth
}

// New creates a camera at position orbiting pivot, looking down -Z.
func New(position, pivot math3d.Vec3) *Camera {
	c := &Camera{position: position, pivot: pivot}
	c.view = math3d.Translate(position.Negate()).
		Mul(math3d.Translate(pivot.Negate())).
		Mul(math3d.RotateY(c.azimuth)).
		Mul(math3d.Translate(pivot))
	return c
}

// RotateLeft orbits one Step to the left.
func (c *Camera) RotateLeft() { c.Rotate(Step, 0) }

// RotateRight orbits one Step to the right.
func (c *Camera) RotateRight() { c.Rotate(-Step, 0) }

// RotateUp tilts one Step up.
func (c *Camera) RotateUp() { c.Rotate(0, -Step) }

// RotateDown tilts one Step down.
func (c *Camera) RotateDown() { c.Rotate(0, Step) }

// Rotate changes the azimuth by dAzimuth and then the polar angle by dPolar.
// The polar rotation uses the horizontal axis of the updated azimuth.
func (c *Camera) Rotate(dAzimuth, dPolar float64) {
	if dAzimuth != 0 {
		c.aroundPivot(math3d.V3(0, 1, 0), -dAzimuth)
		c.azimuth += dAzimuth
	}
	if dPolar != 0 {
		c.aroundPivot(c.horizontal(), dPolar)
		c.polar += dPolar
	}
}

// Move translates the camera by delta.
func (c *Camera) Move(delta math3d.Vec3) {
	c.position = c.position.Add(delta)
	c.view = c.view.Mul(math3d.Translate(delta.Negate()))
}

// ViewMatrix returns the current world-to-eye transform.
func (c *Camera) ViewMatrix() math3d.Mat4 { return c.view }

// Position returns the camera position.
func (c *Camera) Position() math3d.Vec3 { return c.position }

// Pivot returns the orbit center.
func (c *Camera) Pivot() math3d.Vec3 { return c.pivot }

// Azimuth returns the accumulated rotation about +Y in radians.
func (c *Camera) Azimuth() float64 { return c.azimuth }

// Polar returns the accumulated tilt in radians.
func (c *Camera) Polar() float64 { return c.polar }

func (c *Camera) horizontal() math3d.Vec3 {
	return math3d.V3(math.Cos(c.azimuth), 0, -math.Sin(c.azimuth))
}

func (c *Camera) aroundPivot(axis math3d.Vec3, angle float64) {
	c.view = c.view.
		Mul(math3d.Translate(c.pivot)).
		Mul(math3d.RotateAxis(axis, angle)).
		Mul(math3d.Translate(c.pivot.Negate()))
}
