// Package bicycle is the kinematic bicycle model of a front steered car.
package bicycle

import (
	"math"
	"time"

	"github.com/robotalks/linecar/pkg/car"
	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/units"
)

// Defaults of the reference car.
const (
	DefaultAcceleration = 4.0 // m/s²
	DefaultSteeringRate = 600 * units.DegreePerSecond
	DefaultMaxSteering  = 30 * units.Degree
)

// Engine implements physics.Vehicle. The pose is the rear axle center, which
// never slips sideways.
type Engine struct {
	Geometry car.Geometry
	// Acceleration limits speed changes, in m/s². 0 applies speed at once.
	Acceleration float64
	// SteeringRate limits steering changes. 0 applies steering at once.
	SteeringRate units.AngularVelocity
	// MaxSteering bounds the wheel angle. 0 means unbounded.
	MaxSteering units.Angle

	props    car.Props
	steering units.Angle

	targetSpeed    units.Speed
	targetSteering units.Angle
}

// New creates an Engine with the reference car limits.
func New(g car.Geometry) *Engine {
	return &Engine{
		Geometry:     g,
		Acceleration: DefaultAcceleration,
		SteeringRate: DefaultSteeringRate,
		MaxSteering:  DefaultMaxSteering,
	}
}

// Command implements Vehicle.
func (e *Engine) Command(speed units.Speed, steering units.Angle) {
	e.targetSpeed = speed
	if e.MaxSteering > 0 {
		steering = units.Clamp(steering, -e.MaxSteering, e.MaxSteering)
	}
	e.targetSteering = steering
}

// Props implements Vehicle.
func (e *Engine) Props() car.Props {
	return e.props
}

// Place implements Vehicle.
func (e *Engine) Place(pose geom.Pose) {
	e.props.Pose = pose
}

// Steering gets the current wheel angle.
func (e *Engine) Steering() units.Angle {
	return e.steering
}

// Step implements Vehicle.
func (e *Engine) Step(dt time.Duration) {
	if dt <= 0 {
		return
	}
	secs := dt.Seconds()
	v0, v1 := e.props.Speed, e.targetSpeed
	if e.Acceleration > 0 {
		v1 = approach(v0, e.targetSpeed, units.Speed(e.Acceleration*secs))
	} else {
		v0 = v1
	}
	if e.SteeringRate > 0 {
		e.steering = approach(e.steering, e.targetSteering, e.SteeringRate.Rotate(dt))
	} else {
		e.steering = e.targetSteering
	}

	// speed changes linearly within the step, unless it crosses zero.
	var dist, travelled units.Length
	if v0*v1 >= 0 {
		dist = units.Length(float64(v0+v1) / 2 * secs)
		travelled = units.Abs(dist)
	} else {
		tz := secs * float64(units.Abs(v0)/units.Abs(v1-v0))
		d0 := units.Length(float64(v0) / 2 * tz)
		d1 := units.Length(float64(v1) / 2 * (secs - tz))
		dist = d0 + d1
		travelled = units.Abs(d0) + units.Abs(d1)
	}
	e.props.Pose = e.advance(e.props.Pose, dist)
	e.props.Speed = v1
	e.props.Distance += travelled
}

// advance moves the pose along the arc defined by the current steering.
func (e *Engine) advance(pose geom.Pose, dist units.Length) geom.Pose {
	curvature := e.steering.Tan() / e.Geometry.Wheelbase.Meters()
	if math.Abs(curvature) < 1e-9 {
		pose.Pos = pose.Pos.Add(geom.Polar(dist, pose.Angle))
		return pose
	}
	radius := units.Length(1 / curvature)
	turn := units.Angle(dist.Meters() * curvature)
	center := pose.Pos.Add(geom.Polar(radius, pose.Angle+units.PI/2))
	return pose.RotateAround(center, turn)
}

// approach moves cur towards target by at most step.
func approach[T units.Quantity](cur, target, step T) T {
	if units.Abs(target-cur) <= step {
		return target
	}
	if target > cur {
		return cur + step
	}
	return cur - step
}
