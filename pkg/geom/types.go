// Package geom provides the planar geometry used by path tracking.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/robotalks/linecar/pkg/units"
)

// Vec is a 2D vector or position, X forward and Y left in car frame.
type Vec struct {
	X, Y units.Length
}

// Pose defines position and forward orientation in 2D.
type Pose struct {
	Pos   Vec
	Angle units.Angle
}

// OrientedLine is a line described relative to the car: lateral offset at
// the sensor row (left positive) and angle to the car's forward axis.
type OrientedLine struct {
	Pos   units.Length
	Angle units.Angle
}

// V is a shortcut to create Vec.
func V(x, y units.Length) Vec {
	return Vec{X: x, Y: y}
}

// Polar creates a vector of length r pointing to a.
func Polar(r units.Length, a units.Angle) Vec {
	return Vec{X: r * units.Length(a.Cos()), Y: r * units.Length(a.Sin())}
}

func (v Vec) r2() r2.Vec {
	return r2.Vec{X: float64(v.X), Y: float64(v.Y)}
}

func fromR2(v r2.Vec) Vec {
	return Vec{X: units.Length(v.X), Y: units.Length(v.Y)}
}

// Add is a helper to add Vec.
func (v Vec) Add(o Vec) Vec {
	return fromR2(r2.Add(v.r2(), o.r2()))
}

// Sub subtracts o from v.
func (v Vec) Sub(o Vec) Vec {
	return fromR2(r2.Sub(v.r2(), o.r2()))
}

// Scale multiplies by f.
func (v Vec) Scale(f float64) Vec {
	return fromR2(r2.Scale(f, v.r2()))
}

// Dot gets the dot product in square meters.
func (v Vec) Dot(o Vec) float64 {
	return r2.Dot(v.r2(), o.r2())
}

// Cross gets the z component of the cross product, positive when o is on
// the left of v.
func (v Vec) Cross(o Vec) float64 {
	return r2.Cross(v.r2(), o.r2())
}

// Norm gets the length of the vector.
func (v Vec) Norm() units.Length {
	return units.Length(r2.Norm(v.r2()))
}

// Distance gets the distance between two positions.
func (v Vec) Distance(o Vec) units.Length {
	return v.Sub(o).Norm()
}

// Rotate rotates around the origin.
func (v Vec) Rotate(a units.Angle) Vec {
	return fromR2(r2.Rotate(v.r2(), a.Radians(), r2.Vec{}))
}

// RotateAround rotates around center c.
func (v Vec) RotateAround(c Vec, a units.Angle) Vec {
	return fromR2(r2.Rotate(v.r2(), a.Radians(), c.r2()))
}

// Heading gets the direction of the vector.
func (v Vec) Heading() units.Angle {
	return units.Atan2(float64(v.Y), float64(v.X))
}

// Unit gets the unit vector; zero stays zero.
func (v Vec) Unit() Vec {
	if v.X == 0 && v.Y == 0 {
		return v
	}
	return fromR2(r2.Unit(v.r2()))
}

// IsZero checks for the zero vector.
func (v Vec) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Lerp interpolates between two positions.
func (v Vec) Lerp(o Vec, t float64) Vec {
	return Vec{X: units.Lerp(v.X, o.X, t), Y: units.Lerp(v.Y, o.Y, t)}
}

// Forward gets the unit vector of the orientation.
func (p Pose) Forward() Vec {
	return Polar(1, p.Angle)
}

// Transform maps a car-frame vector into the world frame.
func (p Pose) Transform(local Vec) Vec {
	return p.Pos.Add(local.Rotate(p.Angle))
}

// Local maps a world position into the car frame.
func (p Pose) Local(world Vec) Vec {
	return world.Sub(p.Pos).Rotate(-p.Angle)
}

// RotateAround rotates the whole pose around center c.
func (p Pose) RotateAround(c Vec, a units.Angle) Pose {
	return Pose{Pos: p.Pos.RotateAround(c, a), Angle: (p.Angle + a).Normalize()}
}

// Line is an infinite line a*x + b*y + c = 0 with (a, b) normalized.
type Line struct {
	a, b, c float64
}

// LineThrough creates the line through p and q. ok is false when p == q.
func LineThrough(p, q Vec) (l Line, ok bool) {
	if p == q {
		return l, false
	}
	return LineAt(p, q.Sub(p)), true
}

// LineAt creates the line through p with direction dir.
func LineAt(p, dir Vec) Line {
	d := dir.Unit().r2()
	// normal is (-dy, dx)
	l := Line{a: -d.Y, b: d.X}
	l.c = -(l.a*float64(p.X) + l.b*float64(p.Y))
	return l
}

// Direction gets the unit direction of the line.
func (l Line) Direction() Vec {
	return fromR2(r2.Vec{X: l.b, Y: -l.a})
}

// Perpendicular gets the line perpendicular to l through p.
func (l Line) Perpendicular(p Vec) Line {
	return LineAt(p, fromR2(r2.Vec{X: l.a, Y: l.b}))
}

// Intersection gets the intersection of two lines, ok is false when parallel.
func (l Line) Intersection(o Line) (p Vec, ok bool) {
	det := l.a*o.b - o.a*l.b
	if math.Abs(det) < 1e-12 {
		return p, false
	}
	x := (l.b*o.c - o.b*l.c) / det
	y := (o.a*l.c - l.a*o.c) / det
	return Vec{X: units.Length(x), Y: units.Length(y)}, true
}

// Distance gets the signed distance of p from the line, positive on the left
// of Direction.
func (l Line) Distance(p Vec) units.Length {
	return units.Length(l.a*float64(p.X) + l.b*float64(p.Y) + l.c)
}

// Project gets the orthogonal projection of p onto the line.
func (l Line) Project(p Vec) Vec {
	proj, _ := l.Intersection(l.Perpendicular(p))
	return proj
}
