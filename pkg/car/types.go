// Package car defines the state of the car shared by the control components.
package car

import (
	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/units"
)

// Props is the live state of the car, refreshed by odometry every cycle.
// Pose is the rear axle center in the world frame, relative to start.
type Props struct {
	Pose geom.Pose
	// Speed is signed, negative when reversing.
	Speed units.Speed
	// Distance is the odometer reading, never decreasing.
	Distance units.Length
}

// Geometry describes the chassis and sensor placement.
type Geometry struct {
	// Wheelbase is the distance between the axles.
	Wheelbase units.Length
	// FrontAxleToSensor is the distance from the front axle forward to the
	// front line sensor row.
	FrontAxleToSensor units.Length
	// RowSpacing is the distance between the front and rear sensor rows.
	RowSpacing units.Length
}

// Reference car geometry.
const (
	DefaultWheelbase         units.Length = 26.2 * units.Centimeter
	DefaultFrontAxleToSensor units.Length = 11.5 * units.Centimeter
	DefaultRowSpacing        units.Length = 16 * units.Centimeter
)

// DefaultGeometry gets the geometry of the reference car.
func DefaultGeometry() Geometry {
	return Geometry{
		Wheelbase:         DefaultWheelbase,
		FrontAxleToSensor: DefaultFrontAxleToSensor,
		RowSpacing:        DefaultRowSpacing,
	}
}

// ProjectedWheelbase is the wheelbase extended to the front sensor row.
func (g Geometry) ProjectedWheelbase() units.Length {
	return g.Wheelbase + g.FrontAxleToSensor
}

// SensorOffset is the car-frame vector from the pose origin to the center of
// the front sensor row.
func (g Geometry) SensorOffset() geom.Vec {
	return geom.V(g.ProjectedWheelbase(), 0)
}

// SensorPosition gets the world position of the front sensor row center.
func (p Props) SensorPosition(g Geometry) geom.Vec {
	return p.Pose.Transform(g.SensorOffset())
}
