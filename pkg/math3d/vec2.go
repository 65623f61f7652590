package math3d

import "math"

// Vec2 represents a 2D vector. The slicer uses it for the eye-space xy plane.
type Vec2 struct {
	X, Y float64
}

// V2 creates a new Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{x, y}
}

// Add returns the vector sum a + b.
func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

// Sub returns the vector difference a - b.
func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Y - b.Y}
}

// Scale returns the scalar product a * s.
func (a Vec2) Scale(s float64) Vec2 {
	return Vec2{a.X * s, a.Y * s}
}

// Cross returns the z component of the 3D cross product (a.X, a.Y, 0) x (b.X, b.Y, 0).
// Positive when b is counter-clockwise from a.
func (a Vec2) Cross(b Vec2) float64 {
	return a.X*b.Y - a.Y*b.X
}

// Angle returns the angle of the vector in radians, in (-π, π].
func (a Vec2) Angle() float64 {
	return math.Atan2(a.Y, a.X)
}

// PositiveAngle returns the angle measured counter-clockwise from +X, in [0, 2π).
func (a Vec2) PositiveAngle() float64 {
	angle := a.Angle()
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return angle
}
