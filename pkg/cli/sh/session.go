package sh

import (
	"context"
	"time"

	"github.com/robotalks/linecar/pkg/config"
	"github.com/robotalks/linecar/pkg/drive"
	fx "github.com/robotalks/linecar/pkg/framework"
	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/sim"
	"github.com/robotalks/linecar/pkg/telemetry"
)

// MaxRunTime bounds a run until the car stops.
const MaxRunTime = time.Minute

// Session is a simulated car driven cycle by cycle on a virtual clock.
type Session struct {
	Config *config.Config
	World  *sim.World
	Car    *sim.Car
	Driver *drive.Driver
	Loop   *fx.Loop

	now time.Time
}

// NewSession creates a Session with the car at the origin and no tracks.
func NewSession(conf *config.Config) *Session {
	s := &Session{
		Config: conf,
		World:  &sim.World{},
		Car:    conf.NewSimCar("0"),
		Driver: conf.NewDriver(),
		Loop:   conf.NewLoop(),
		now:    time.Unix(0, 0),
	}
	s.World.AddCar(s.Car)
	s.Loop.Add(s.World, s.Driver)
	s.Step()
	return s
}

// Now gets the virtual time of the next cycle.
func (s *Session) Now() time.Time {
	return s.now
}

// Step runs one cycle.
func (s *Session) Step() {
	s.Loop.Step(context.Background(), s.now)
	s.now = s.now.Add(s.Loop.Interval)
}

// Run runs cycles for d of virtual time, or until the car stops when d is 0.
// It returns the virtual time elapsed.
func (s *Session) Run(d time.Duration) time.Duration {
	start := s.now
	limit := d
	if limit <= 0 {
		limit = MaxRunTime
	}
	for s.now.Sub(start) < limit {
		s.Step()
		if d <= 0 && s.Driver.Mode() == drive.ModeStop && s.Car.Vehicle.Props().Speed == 0 {
			break
		}
	}
	return s.now.Sub(start)
}

// Command switches the driving mode from the next cycle.
func (s *Session) Command(cmd drive.Command) {
	s.Loop.PostMessage(cmd)
}

// Place moves the car and refreshes the state seen by the driver.
func (s *Session) Place(pose geom.Pose) {
	s.Car.Place(pose)
	s.Step()
}

// AddTracks paints tracks.
func (s *Session) AddTracks(tracks ...*sim.Track) {
	s.World.AddTracks(tracks...)
	s.Step()
}

// Report gets the state of the car and the trajectory.
func (s *Session) Report() *telemetry.TrajectoryReport {
	return telemetry.NewTrajectoryReport(s.Loop.Cycle(), s.Car.Vehicle.Props(), s.Driver.Trajectory)
}
