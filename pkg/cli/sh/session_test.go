package sh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/linecar/pkg/config"
	"github.com/robotalks/linecar/pkg/drive"
	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/sim"
	"github.com/robotalks/linecar/pkg/trajectory"
	"github.com/robotalks/linecar/pkg/units"
)

func newSession(t *testing.T) *Session {
	conf, err := config.Load("")
	require.NoError(t, err)
	return NewSession(conf)
}

func TestSessionFollowLine(t *testing.T) {
	s := newSession(t)
	s.AddTracks(sim.StraightTrack("0", PointMM(-1000, 0), PointMM(1000, 0)))
	require.Len(t, s.Driver.Tracker.Lines(), 1)

	s.Command(drive.Command{Mode: drive.ModeLine, Speed: MPS(0.5)})
	require.Equal(t, 500*time.Millisecond, s.Run(500*time.Millisecond))
	require.Equal(t, drive.ModeLine, s.Driver.Mode())

	// the track ends, the car stops once the line is lost.
	elapsed := s.Run(0)
	require.Less(t, elapsed, MaxRunTime)
	require.Equal(t, drive.ModeStop, s.Driver.Mode())
	report := s.Report()
	require.Zero(t, report.Speed)
	require.Greater(t, report.X, 0.7)
	require.InDelta(t, 0, report.Y, 0.01)
}

func TestSessionTrajectory(t *testing.T) {
	s := newSession(t)
	s.Place(geom.Pose{Pos: PointMM(0, 100)})
	start := s.Driver.StartConfig()
	require.InDelta(t, 0.1, start.Pose.Pos.Y.Meters(), 1e-9)

	start.Speed = MPS(0.5)
	tr := s.Driver.Trajectory
	tr.SetStartConfig(start, s.Driver.Props().Distance)
	require.NoError(t, tr.AppendLine(trajectory.Config{
		Pose:  geom.Pose{Pos: start.Pose.Pos.Add(PointMM(1000, 0))},
		Speed: MPS(0.5),
	}))
	require.NoError(t, tr.AppendLine(trajectory.Config{
		Pose: geom.Pose{Pos: start.Pose.Pos.Add(PointMM(1500, 0))},
	}))
	s.AddTracks(sim.TrackFromTrajectory("path", tr))

	s.Command(drive.Command{Mode: drive.ModeTrajectory})
	s.Run(0)
	require.Equal(t, drive.ModeStop, s.Driver.Mode())
	report := s.Report()
	require.InDelta(t, 1.5, report.Length, 1e-9)
	require.Greater(t, report.Covered, 1.25)
	require.Equal(t, uint32(3), report.Configs)
	require.InDelta(t, 0.1, report.Y, 0.005)
}

func TestUnits(t *testing.T) {
	require.Equal(t, 25*units.Millimeter, MM(25))
	require.Equal(t, geom.V(units.Meter, -units.Meter), PointMM(1000, -1000))
	require.Equal(t, 2*units.MeterPerSecond, MPS(2))
}
