package sim

import (
	"github.com/robotalks/linecar/pkg/car"
	"github.com/robotalks/linecar/pkg/framework"
	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/line"
	"github.com/robotalks/linecar/pkg/panel"
	"github.com/robotalks/linecar/pkg/sim/physics"
	"github.com/robotalks/linecar/pkg/sim/physics/bicycle"
	"github.com/robotalks/linecar/pkg/units"
)

// Car is a simulated car. It stands in for the panels in the Loop.
type Car struct {
	ID       string
	Geometry car.Geometry
	Vehicle  physics.Vehicle
	Sensor   *LineSensor
	World    *World

	front, rear line.Positions
	changed     bool
}

// NewCar creates a Car with the reference vehicle and sensor.
func NewCar(id string, g car.Geometry) *Car {
	return &Car{
		ID:       id,
		Geometry: g,
		Vehicle:  bicycle.New(g),
		Sensor:   NewLineSensor(g),
		changed:  true,
	}
}

// Name implements Object.
func (c *Car) Name() string {
	return "car/" + c.ID
}

// Position2D implements Positionable2D.
func (c *Car) Position2D() geom.Pose {
	return c.Vehicle.Props().Pose
}

// OutlineRect implements Rectangular. The outline spans from behind the rear
// axle to the front sensor row.
func (c *Car) OutlineRect() Rect {
	length := c.Geometry.ProjectedWheelbase() + 4*units.Centimeter
	width := 2 * c.Sensor.HalfWidth
	return Rect{
		Pos:    geom.V(-4*units.Centimeter, -width/2),
		Size2D: Size2D{CX: length, CY: width},
	}
}

// Detections gets the line positions of the last cycle.
func (c *Car) Detections() (front, rear line.Positions) {
	return c.front, c.rear
}

// Place moves the car.
func (c *Car) Place(pose geom.Pose) {
	c.Vehicle.Place(pose)
	c.changed = true
}

// AddToLoop implements LoopAdder.
func (c *Car) AddToLoop(loop *framework.Loop) {
	loop.AddController(framework.PrLvTop, framework.ControlFunc(c.Sense))
	loop.AddController(framework.PrLvActuate, framework.ControlFunc(c.Actuate))
}

// Sense advances the vehicle to the cycle time and posts what the panels
// would report into the cycle.
func (c *Car) Sense(ctx framework.ControlContext) error {
	if dt := ctx.Elapsed(); dt > 0 {
		before := c.Vehicle.Props()
		c.Vehicle.Step(dt)
		if c.Vehicle.Props().Pose != before.Pose {
			c.changed = true
		}
	}
	props := c.Vehicle.Props()
	var tracks []*Track
	if c.World != nil {
		tracks = c.World.Tracks
	}
	c.front, c.rear = c.Sensor.Detect(props.Pose, tracks)
	ctx.Messages().AddMessages(
		panel.Odometry{Pose: props.Pose, Speed: props.Speed, Distance: props.Distance},
		panel.LineDetect{Front: c.front, Rear: c.rear},
	)
	return nil
}

// Actuate applies the last actuation command of the cycle.
func (c *Car) Actuate(ctx framework.ControlContext) error {
	if cmd, ok := framework.TakeLast[panel.Actuate](ctx.Messages()); ok {
		c.Vehicle.Command(cmd.Speed, cmd.Steering)
	}
	return nil
}

// Changed reports and clears whether the car moved since the last call.
func (c *Car) Changed() bool {
	changed := c.changed
	c.changed = false
	return changed
}
