package units

import (
	"math"
	"time"
)

// Angle is the common representation of angle in radians.
// Positive angles are counter-clockwise.
type Angle float64

// Angle units.
const (
	Radian Angle = 1
	Degree Angle = math.Pi / 180
)

// PI is the half turn.
const PI Angle = math.Pi

// Degrees creates Angle from degrees.
func Degrees(d float64) Angle {
	return Angle(d) * Degree
}

// Atan wraps math.Atan.
func Atan(x float64) Angle {
	return Angle(math.Atan(x))
}

// Atan2 wraps math.Atan2.
func Atan2(y, x float64) Angle {
	return Angle(math.Atan2(y, x))
}

// Radians gets angle in radians.
func (a Angle) Radians() float64 {
	return float64(a)
}

// Degrees gets angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a / Degree)
}

// Cos wraps math.Cos.
func (a Angle) Cos() float64 {
	return math.Cos(float64(a))
}

// Sin wraps math.Sin.
func (a Angle) Sin() float64 {
	return math.Sin(float64(a))
}

// Tan wraps math.Tan.
func (a Angle) Tan() float64 {
	return math.Tan(float64(a))
}

// Over gets the rate of a rotation by a during d.
func (a Angle) Over(d time.Duration) AngularVelocity {
	return AngularVelocity(float64(a) / d.Seconds())
}

// Normalize maps the angle into (-PI, PI].
func (a Angle) Normalize() Angle {
	r := float64(a)
	if r >= 2*math.Pi || r <= -2*math.Pi {
		r = math.Remainder(r, 2*math.Pi)
	}
	if r > math.Pi {
		r -= 2 * math.Pi
	} else if r <= -math.Pi {
		r += 2 * math.Pi
	}
	return Angle(r)
}

// Diff gets the shortest signed rotation from b to a.
func (a Angle) Diff(b Angle) Angle {
	return (a - b).Normalize()
}
