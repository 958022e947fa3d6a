// Package trajectory adds the shell commands authoring the trajectory.
package trajectory

import (
	"errors"
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/linecar/pkg/cli/sh"
	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/trajectory"
	"github.com/robotalks/linecar/pkg/units"
)

func trajectoryOf(c *ishell.Context) *trajectory.Trajectory {
	return sh.ShellFrom(c).Session.Driver.Trajectory
}

// sineRange gets the phase range of a sine transition from the optional
// FROM and TO degrees, -90 to 90 when both are omitted.
func sineRange(args []float64) (from, to units.Angle, err error) {
	switch len(args) {
	case 0:
		return -90 * units.Degree, 90 * units.Degree, nil
	case 2:
		return units.Degrees(args[0]), units.Degrees(args[1]), nil
	}
	return 0, 0, errors.New("FROM and TO must be given together")
}

func report(c *ishell.Context, err error) {
	if err != nil {
		c.Err(err)
		return
	}
	s := sh.ShellFrom(c)
	s.Print(c, s.Session.Report())
}

var (
	// StartCmd starts a trajectory at the sensor row of the car.
	StartCmd = ishell.Cmd{
		Name: "start",
		Help: "[SPEED(m/s)]",
		Func: func(c *ishell.Context) {
			args, ok := sh.ParseArgs(c, 0, "SPEED")
			if !ok {
				return
			}
			d := sh.ShellFrom(c).Session.Driver
			start := d.StartConfig()
			if len(args) > 0 {
				start.Speed = sh.MPS(args[0])
			}
			d.Trajectory.Clear()
			d.Trajectory.SetStartConfig(start, d.Props().Distance)
			report(c, nil)
		},
	}

	// LineCmd appends a straight section.
	LineCmd = ishell.Cmd{
		Name: "line",
		Help: "X(mm) Y(mm) ANGLE(degrees) SPEED(m/s)",
		Func: func(c *ishell.Context) {
			args, ok := sh.ParseArgs(c, 4, "X", "Y", "ANGLE", "SPEED")
			if !ok {
				return
			}
			report(c, trajectoryOf(c).AppendLine(trajectory.Config{
				Pose:  geom.Pose{Pos: sh.PointMM(args[0], args[1]), Angle: units.Degrees(args[2])},
				Speed: sh.MPS(args[3]),
			}))
		},
	}

	// CircleCmd appends an arc.
	CircleCmd = ishell.Cmd{
		Name: "circle",
		Help: "CX(mm) CY(mm) ANGLE(degrees) SPEED(m/s)",
		Func: func(c *ishell.Context) {
			args, ok := sh.ParseArgs(c, 4, "CX", "CY", "ANGLE", "SPEED")
			if !ok {
				return
			}
			report(c, trajectoryOf(c).AppendCircle(sh.PointMM(args[0], args[1]), units.Degrees(args[2]), sh.MPS(args[3])))
		},
	}

	// SineCmd appends a sine transition.
	SineCmd = ishell.Cmd{
		Name: "sine",
		Help: "X(mm) Y(mm) SPEED(m/s) FWD(degrees) [FROM(degrees) TO(degrees) [fix|path]]",
		Func: func(c *ishell.Context) {
			orientation := trajectory.OrientationPath
			if len(c.Args) > 6 {
				switch c.Args[6] {
				case "fix":
					orientation = trajectory.OrientationFix
				case "path":
				default:
					c.Err(fmt.Errorf("invalid orientation %q", c.Args[6]))
					return
				}
				c.Args = c.Args[:6]
			}
			args, ok := sh.ParseArgs(c, 4, "X", "Y", "SPEED", "FWD", "FROM", "TO")
			if !ok {
				return
			}
			from, to, err := sineRange(args[4:])
			if err != nil {
				c.Err(err)
				return
			}
			dest := trajectory.Config{Pose: geom.Pose{Pos: sh.PointMM(args[0], args[1])}, Speed: sh.MPS(args[2])}
			report(c, trajectoryOf(c).AppendSineArc(dest, units.Degrees(args[3]), orientation, from, to))
		},
	}

	// ClearCmd removes the trajectory.
	ClearCmd = ishell.Cmd{
		Name: "clear",
		Help: "",
		Func: func(c *ishell.Context) {
			trajectoryOf(c).Clear()
			report(c, nil)
		},
	}

	// WaypointsCmd lists the waypoints.
	WaypointsCmd = ishell.Cmd{
		Name:    "waypoints",
		Aliases: []string{"wp"},
		Help:    "",
		Func: func(c *ishell.Context) {
			for i, conf := range trajectoryOf(c).Configs() {
				c.Printf("%3d: (%.1f, %.1f) %.2f° %.3fm/s\n", i,
					conf.Pose.Pos.X.Millimeters(), conf.Pose.Pos.Y.Millimeters(),
					conf.Pose.Angle.Degrees(), conf.Speed.MetersPerSecond())
			}
		},
	}
)

func init() {
	sh.AddCmds(
		&StartCmd,
		&LineCmd,
		&CircleCmd,
		&SineCmd,
		&ClearCmd,
		&WaypointsCmd,
	)
}
