// Package physics simulates the motion of the car.
package physics

import (
	"time"

	"github.com/robotalks/linecar/pkg/car"
	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/units"
)

// Vehicle is a simulated car driven by actuation commands.
type Vehicle interface {
	// Command sets the target speed and the steering angle of the front wheels.
	Command(speed units.Speed, steering units.Angle)
	// Step advances the simulation.
	Step(dt time.Duration)
	// Props gets the state as odometry reports it.
	Props() car.Props
	// Place moves the vehicle, keeping the odometer.
	Place(geom.Pose)
}
