package camera

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// axis tracks the angular velocity of one orbit direction. A spring pulls
// the velocity back toward zero so motion eases out after an impulse.
type axis struct {
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // spring velocity of Velocity itself
}

func newAxis(fps int) axis {
	return axis{
		// Frequency 4.0 = moderate speed, damping 1.0 = critically damped (no overshoot)
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// step returns the angle to apply this frame and decays the velocity.
func (a *axis) step() float64 {
	d := a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
	return d
}

// Orbit drives a Camera with spring-damped angular velocity.
type Orbit struct {
	azimuth, polar axis
	fps            int
}

// NewOrbit returns an orbit at rest, stepped fps times per second.
func NewOrbit(fps int) *Orbit {
	fps = max(fps, 1)
	return &Orbit{
		azimuth: newAxis(fps),
		polar:   newAxis(fps),
		fps:     fps,
	}
}

// Push adds angular velocity in radians per frame.
func (o *Orbit) Push(dAzimuth, dPolar float64) {
	o.azimuth.Velocity += dAzimuth
	o.polar.Velocity += dPolar
}

// Step advances one frame and returns the rotation to apply.
func (o *Orbit) Step() (dAzimuth, dPolar float64) {
	return o.azimuth.step(), o.polar.step()
}

// Drive advances one frame and rotates cam by the result.
func (o *Orbit) Drive(cam *Camera) {
	cam.Rotate(o.Step())
}

// Moving reports whether either axis still has velocity above eps.
func (o *Orbit) Moving(eps float64) bool {
	return math.Abs(o.azimuth.Velocity) > eps || math.Abs(o.polar.Velocity) > eps
}

// Velocity returns the current angular velocity of each axis.
func (o *Orbit) Velocity() (dAzimuth, dPolar float64) {
	return o.azimuth.Velocity, o.polar.Velocity
}

// Reset stops all motion.
func (o *Orbit) Reset() {
	o.azimuth = newAxis(o.fps)
	o.polar = newAxis(o.fps)
}
