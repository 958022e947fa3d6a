// Package drive is the control task of the car: odometry and line detections
// in, actuation commands out.
//
// Each cycle the Driver updates the line tracker from the detections, gets
// the lateral error either from the main line or from the trajectory being
// followed, steers with the LineController and ramps the speed.
package drive

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/linecar/pkg/car"
	"github.com/robotalks/linecar/pkg/control"
	"github.com/robotalks/linecar/pkg/framework"
	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/line"
	"github.com/robotalks/linecar/pkg/panel"
	"github.com/robotalks/linecar/pkg/telemetry"
	"github.com/robotalks/linecar/pkg/trajectory"
	"github.com/robotalks/linecar/pkg/units"
)

// Mode is the driving mode.
type Mode int

// Modes
const (
	ModeStop Mode = iota
	ModeLine
	ModeTrajectory
)

var modeNames = map[Mode]string{
	ModeStop:       "stop",
	ModeLine:       "line",
	ModeTrajectory: "trajectory",
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// Command switches the driving mode when posted into the Loop. Speed is
// the cruise speed of ModeLine.
type Command struct {
	Mode  Mode
	Speed units.Speed
}

// Config configures a Driver.
type Config struct {
	Geometry car.Geometry
	Tracker  line.Config
	SpeedPID control.Params
	// LineSpeed is the default cruise speed following a line.
	LineSpeed units.Speed
	// RampTime is used for speed changes of ModeLine and ModeStop.
	RampTime time.Duration
	// LostTimeout stops the car when no line is seen following a line.
	LostTimeout time.Duration
	// FinishThreshold is the remaining trajectory length under which a seen
	// line ends the trajectory.
	FinishThreshold units.Length
}

// DefaultConfig gets the configuration of the reference car.
func DefaultConfig() Config {
	g := car.DefaultGeometry()
	return Config{
		Geometry: g,
		Tracker: line.Config{
			RowSpacing:  g.RowSpacing,
			MatchGate:   line.DefaultMatchGate,
			HistorySize: 100,
		},
		SpeedPID: control.Params{
			P:        0.2,
			I:        0.5,
			OutMin:   -0.3,
			OutMax:   0.3,
			Deadband: 0.005,
		},
		LineSpeed:       units.MeterPerSecond,
		RampTime:        500 * time.Millisecond,
		LostTimeout:     300 * time.Millisecond,
		FinishThreshold: 20 * units.Centimeter,
	}
}

// Driver runs the control task.
type Driver struct {
	Config

	Tracker        *line.Tracker
	LineController *control.LineController
	Trajectory     *trajectory.Trajectory
	SpeedPID       *control.PID

	speed        *control.Ramp
	props        car.Props
	mode         Mode
	lineSpeed    units.Speed
	lastLineTime time.Time
	data         control.ControlData
	output       panel.Actuate
}

// New creates a Driver.
func New(conf Config) *Driver {
	return &Driver{
		Config:         conf,
		Tracker:        line.NewTracker(conf.Tracker),
		LineController: control.NewLineController(conf.Geometry),
		Trajectory:     trajectory.New(conf.Geometry),
		SpeedPID:       control.NewPID(conf.SpeedPID),
		speed:          control.NewRamp(0),
		lineSpeed:      conf.LineSpeed,
	}
}

// AddToLoop implements LoopAdder.
func (d *Driver) AddToLoop(loop *framework.Loop) {
	loop.AddController(framework.PrLvSense, framework.ControlFunc(d.Sense))
	loop.AddController(framework.PrLvControl, framework.ControlFunc(d.Control))
}

// Mode gets the driving mode.
func (d *Driver) Mode() Mode {
	return d.mode
}

// Props gets the car state from the last odometry.
func (d *Driver) Props() car.Props {
	return d.props
}

// Data gets the control data of the last cycle.
func (d *Driver) Data() control.ControlData {
	return d.data
}

// Output gets the last actuation command.
func (d *Driver) Output() panel.Actuate {
	return d.output
}

// StartConfig is the trajectory waypoint at the sensor row of the car.
func (d *Driver) StartConfig() trajectory.Config {
	return trajectory.Config{
		Pose:  geom.Pose{Pos: d.props.SensorPosition(d.Geometry), Angle: d.props.Pose.Angle},
		Speed: d.props.Speed,
	}
}

// SetMode switches the driving mode.
func (d *Driver) SetMode(cmd Command) {
	if cmd.Mode == ModeLine && cmd.Speed != 0 {
		d.lineSpeed = cmd.Speed
	}
	if d.mode != cmd.Mode {
		glog.Infof("drive mode %v -> %v", d.mode, cmd.Mode)
	}
	d.mode = cmd.Mode
	d.lastLineTime = time.Time{}
}

// Sense consumes odometry and line detections.
func (d *Driver) Sense(ctx framework.ControlContext) error {
	if odo, ok := framework.TakeLast[panel.Odometry](ctx.Messages()); ok {
		d.props = car.Props{Pose: odo.Pose, Speed: odo.Speed, Distance: odo.Distance}
	}
	if detect, ok := framework.TakeLast[panel.LineDetect](ctx.Messages()); ok {
		d.Tracker.Update(ctx.Time(), detect.Front, detect.Rear)
	}
	return nil
}

// Control computes the actuation command of the cycle.
func (d *Driver) Control(ctx framework.ControlContext) error {
	if cmd, ok := framework.TakeLast[Command](ctx.Messages()); ok {
		d.SetMode(cmd)
	}

	var data control.ControlData
	switch d.mode {
	case ModeLine:
		data = d.followLine(ctx.Time())
	case ModeTrajectory:
		data = d.followTrajectory(ctx.Time())
	}
	if d.mode == ModeStop {
		data = control.ControlData{RampTime: d.RampTime}
	}
	d.data = data

	if target := data.Speed.MetersPerSecond(); target != d.speed.Target() {
		d.speed.Set(target, data.RampTime)
	}
	desired := d.speed.Update(ctx.Elapsed())
	correction := d.SpeedPID.Update(desired, d.props.Speed.MetersPerSecond(), ctx.Elapsed())
	if desired == 0 && d.speed.Done() {
		correction = 0
	}

	lc := data.LineControl
	// the actuation is still sent with the last steering on error.
	err := d.LineController.Run(d.props.Speed, lc.Target.Pos, line.Line{
		PosFront: lc.Actual.Pos,
		Angle:    lc.Actual.Angle - lc.Target.Angle,
	})

	d.output = panel.Actuate{
		Speed:     units.Speed(desired + correction),
		Steering:  d.LineController.Output(),
		RearSteer: data.RearSteerEnabled,
	}
	ctx.Messages().AddMessages(d.output, telemetry.NewControlReport(ctx.Cycle(), data, d.output.Steering))
	return err
}

func (d *Driver) followLine(now time.Time) control.ControlData {
	data := control.ControlData{Speed: d.lineSpeed, RampTime: d.RampTime}
	if len(d.Tracker.Lines()) > 0 || d.lastLineTime.IsZero() {
		d.lastLineTime = now
	} else if now.Sub(d.lastLineTime) > d.LostTimeout {
		glog.Warning("line lost")
		d.SetMode(Command{Mode: ModeStop})
		return data
	}
	main := d.Tracker.MainLine()
	data.LineControl.Actual.Pos = main.PosFront
	data.LineControl.Actual.Angle = main.Angle
	return data
}

func (d *Driver) followTrajectory(now time.Time) control.ControlData {
	if len(d.Trajectory.Configs()) < 2 {
		d.SetMode(Command{Mode: ModeStop})
		return control.ControlData{}
	}
	if d.Trajectory.Finished(d.props, d.Tracker.Lines(), d.FinishThreshold) {
		last, _ := d.Trajectory.LastConfig()
		glog.Infof("trajectory finished, covered %.3fm", d.Trajectory.CoveredDistance().Meters())
		if len(d.Tracker.Lines()) > 0 && last.Speed != 0 {
			d.SetMode(Command{Mode: ModeLine, Speed: last.Speed})
			return d.followLine(now)
		}
		d.SetMode(Command{Mode: ModeStop})
		return control.ControlData{}
	}
	return d.Trajectory.Update(d.props)
}
