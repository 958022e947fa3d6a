// Package units provides dimensioned floating point quantities.
//
// Every quantity is a distinct defined type over float64 holding the SI
// value, so adding a Length to a Speed does not compile. Conversions between
// dimensions are explicit methods.
package units

import (
	"math"
	"time"
)

// Length is a distance in meters.
type Length float64

// Speed is a velocity in meters per second. The sign encodes direction.
type Speed float64

// AngularVelocity is a rotation rate in radians per second.
type AngularVelocity float64

// Length units.
const (
	Meter      Length = 1
	Centimeter Length = 1e-2
	Millimeter Length = 1e-3
)

// Speed units.
const (
	MeterPerSecond      Speed = 1
	CentimeterPerSecond Speed = 1e-2
	MillimeterPerSecond Speed = 1e-3
)

// AngularVelocity units.
const (
	RadianPerSecond AngularVelocity = 1
	DegreePerSecond AngularVelocity = math.Pi / 180
)

// Meters gets the length in meters.
func (l Length) Meters() float64 { return float64(l) }

// Centimeters gets the length in centimeters.
func (l Length) Centimeters() float64 { return float64(l / Centimeter) }

// Millimeters gets the length in millimeters.
func (l Length) Millimeters() float64 { return float64(l / Millimeter) }

// Over divides the length by a duration.
func (l Length) Over(d time.Duration) Speed {
	return Speed(float64(l) / d.Seconds())
}

// Per gets the time needed to cover the length at speed v.
func (l Length) Per(v Speed) time.Duration {
	return time.Duration(float64(l) / float64(v) * float64(time.Second))
}

// MetersPerSecond gets the speed in m/s.
func (v Speed) MetersPerSecond() float64 { return float64(v) }

// MillimetersPerSecond gets the speed in mm/s.
func (v Speed) MillimetersPerSecond() float64 { return float64(v / MillimeterPerSecond) }

// Travel gets the distance covered at speed v during d.
func (v Speed) Travel(d time.Duration) Length {
	return Length(float64(v) * d.Seconds())
}

// RadiansPerSecond gets the rate in rad/s.
func (w AngularVelocity) RadiansPerSecond() float64 { return float64(w) }

// DegreesPerSecond gets the rate in deg/s.
func (w AngularVelocity) DegreesPerSecond() float64 { return float64(w / DegreePerSecond) }

// Rotate gets the angle swept at rate w during d.
func (w AngularVelocity) Rotate(d time.Duration) Angle {
	return Angle(float64(w) * d.Seconds())
}

// Quantity is satisfied by all the dimensioned types of this package.
type Quantity interface {
	~float64
}

// Abs gets the absolute value.
func Abs[T Quantity](v T) T {
	return T(math.Abs(float64(v)))
}

// Sign returns -1, 0 or 1.
func Sign[T Quantity](v T) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Clamp limits v into [lo, hi].
func Clamp[T Quantity](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates linearly between a and b, t = 0 gives a.
func Lerp[T Quantity](a, b T, t float64) T {
	return a + T(float64(b-a)*t)
}

// Map maps x from [fromLo, fromHi] onto [toLo, toHi], clamping to the range.
func Map[F, T Quantity](x, fromLo, fromHi F, toLo, toHi T) T {
	if fromHi == fromLo {
		return toLo
	}
	t := float64(x-fromLo) / float64(fromHi-fromLo)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return Lerp(toLo, toHi, t)
}

// Eq compares with tolerance eps.
func Eq[T Quantity](a, b, eps T) bool {
	return Abs(a-b) <= eps
}
