// Package sh is the interactive shell driving a simulated car, to author
// trajectories and try the controllers.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/linecar/pkg/config"
	"github.com/robotalks/linecar/pkg/drive"
	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/sim"
	"github.com/robotalks/linecar/pkg/units"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell   *ishell.Shell
	Session *Session
}

const shellKey = "$shell"

var (
	// flags

	evalOnly   bool
	outputJSON bool
	configFile string

	// commands
	commands = []*ishell.Cmd{
		&PlaceCmd,
		&TrackCmd,
		&FollowCmd,
		&GoCmd,
		&StopCmd,
		&RunCmd,
		&InfoCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&configFile, "config", configFile, "Config file of the car.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(session *Session) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:   ishell.New(),
		Session: session,
	}
	s.Shell.Set(shellKey, s)
	s.UpdatePrompt()
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// UpdatePrompt shows the driving mode in the prompt.
func (s *Shell) UpdatePrompt() {
	s.Shell.SetPrompt(fmt.Sprintf("[%v] > ", s.Session.Driver.Mode()))
}

// Print prints a value, in JSON when requested.
func (s *Shell) Print(c *ishell.Context, v fmt.Stringer) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(v.String())
}

// ParseArgs parses the required numeric arguments named by names. Extra
// optional arguments are parsed when present.
func ParseArgs(c *ishell.Context, required int, names ...string) ([]float64, bool) {
	if len(c.Args) < required {
		c.Err(fmt.Errorf("%s required", names[len(c.Args)]))
		return nil, false
	}
	vals := make([]float64, 0, len(names))
	for i, arg := range c.Args {
		if i >= len(names) {
			break
		}
		val, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			c.Err(fmt.Errorf("invalid %s: %v", names[i], err))
			return nil, false
		}
		vals = append(vals, val)
	}
	return vals, true
}

// MM converts a CLI length.
func MM(v float64) units.Length {
	return units.Length(v) * units.Millimeter
}

// PointMM converts CLI coordinates.
func PointMM(x, y float64) geom.Vec {
	return geom.V(MM(x), MM(y))
}

// MPS converts a CLI speed.
func MPS(v float64) units.Speed {
	return units.Speed(v) * units.MeterPerSecond
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

func command(c *ishell.Context, cmd drive.Command) {
	s := ShellFrom(c)
	s.Session.Command(cmd)
	s.Session.Step()
	s.UpdatePrompt()
}

var (
	// PlaceCmd moves the car.
	PlaceCmd = ishell.Cmd{
		Name: "place",
		Help: "X(mm) Y(mm) [ANGLE(degrees)]",
		Func: func(c *ishell.Context) {
			args, ok := ParseArgs(c, 2, "X", "Y", "ANGLE")
			if !ok {
				return
			}
			pose := geom.Pose{Pos: PointMM(args[0], args[1])}
			if len(args) > 2 {
				pose.Angle = units.Degrees(args[2])
			}
			ShellFrom(c).Session.Place(pose)
		},
	}

	// TrackCmd paints tracks.
	TrackCmd = ishell.Cmd{
		Name: "track",
		Help: "line X1 Y1 X2 Y2 | arc CX CY FROMX FROMY ANGLE | path",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("kind required"))
				return
			}
			s := ShellFrom(c)
			id := strconv.Itoa(len(s.Session.World.Tracks))
			kind := c.Args[0]
			c.Args = c.Args[1:]
			switch kind {
			case "line":
				args, ok := ParseArgs(c, 4, "X1", "Y1", "X2", "Y2")
				if !ok {
					return
				}
				s.Session.AddTracks(sim.StraightTrack(id, PointMM(args[0], args[1]), PointMM(args[2], args[3])))
			case "arc":
				args, ok := ParseArgs(c, 5, "CX", "CY", "FROMX", "FROMY", "ANGLE")
				if !ok {
					return
				}
				s.Session.AddTracks(sim.ArcTrack(id, PointMM(args[0], args[1]), PointMM(args[2], args[3]), units.Degrees(args[4])))
			case "path":
				s.Session.AddTracks(sim.TrackFromTrajectory(id, s.Session.Driver.Trajectory))
			default:
				c.Err(fmt.Errorf("unknown track %q", kind))
			}
		},
	}

	// FollowCmd follows the line.
	FollowCmd = ishell.Cmd{
		Name:    "follow",
		Aliases: []string{"f"},
		Help:    "[SPEED(m/s)]",
		Func: func(c *ishell.Context) {
			args, ok := ParseArgs(c, 0, "SPEED")
			if !ok {
				return
			}
			cmd := drive.Command{Mode: drive.ModeLine}
			if len(args) > 0 {
				cmd.Speed = MPS(args[0])
			}
			command(c, cmd)
		},
	}

	// GoCmd follows the trajectory.
	GoCmd = ishell.Cmd{
		Name: "go",
		Help: "",
		Func: func(c *ishell.Context) {
			command(c, drive.Command{Mode: drive.ModeTrajectory})
		},
	}

	// StopCmd stops the car.
	StopCmd = ishell.Cmd{
		Name: "stop",
		Help: "",
		Func: func(c *ishell.Context) {
			command(c, drive.Command{Mode: drive.ModeStop})
		},
	}

	// RunCmd advances the virtual clock.
	RunCmd = ishell.Cmd{
		Name:    "run",
		Aliases: []string{"r"},
		Help:    "[DURATION], until stopped without DURATION",
		Func: func(c *ishell.Context) {
			var d time.Duration
			if len(c.Args) > 0 {
				var err error
				if d, err = time.ParseDuration(c.Args[0]); err != nil {
					c.Err(fmt.Errorf("invalid DURATION: %v", err))
					return
				}
			}
			s := ShellFrom(c)
			elapsed := s.Session.Run(d)
			s.UpdatePrompt()
			if !s.OutputJSON {
				c.Printf("ran %v, mode %v\n", elapsed, s.Session.Driver.Mode())
			}
			s.Print(c, s.Session.Report())
		},
	}

	// InfoCmd prints the state of the car and the trajectory.
	InfoCmd = ishell.Cmd{
		Name:    "info",
		Aliases: []string{"i"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			s.Print(c, s.Session.Report())
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf, err := config.Load(configFile)
	if err != nil {
		log.Fatalln(err)
	}
	New(NewSession(conf)).Run(flag.Args()...)
}
