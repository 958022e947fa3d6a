// Package trajectory follows an authored path of pose and speed waypoints.
//
// A Trajectory is built with SetStartConfig and the Append* builders, then
// Update is called once per control cycle with the live car state to get the
// target speed and the lateral error against the path.
package trajectory

import (
	"errors"

	"github.com/golang/glog"

	"github.com/robotalks/linecar/pkg/car"
	"github.com/robotalks/linecar/pkg/control"
	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/line"
	"github.com/robotalks/linecar/pkg/units"
)

// Capacity limits.
const (
	// MaxConfigs is the max number of waypoints.
	MaxConfigs = 500
	// MaxSectionLength is the max distance between generated curve waypoints.
	MaxSectionLength units.Length = 10 * units.Centimeter
)

// searchBreakDistance stops the closest waypoint search once waypoints get
// this much farther than the best candidate.
const searchBreakDistance units.Length = units.Meter

// Errors
var (
	ErrFull          = errors.New("trajectory full")
	ErrNoStartConfig = errors.New("trajectory has no start config")
	ErrDegenerate    = errors.New("degenerate curve")
)

// Config is a waypoint. Pose.Angle is the desired forward direction of the
// car, independent of the sign of Speed.
type Config struct {
	Pose  geom.Pose
	Speed units.Speed
}

// Trajectory is an ordered set of waypoints with a traversal cursor.
// It is not safe for concurrent use.
type Trajectory struct {
	Geometry car.Geometry

	configs      []Config
	sectionStart int
	length       units.Length

	coveredUntilLastConfig     units.Length
	carDistanceAtLastConfig    units.Length
	carDistanceSinceLastConfig units.Length
	covered                    units.Length
}

// New creates an empty Trajectory.
func New(g car.Geometry) *Trajectory {
	return &Trajectory{
		Geometry: g,
		configs:  make([]Config, 0, MaxConfigs),
	}
}

// SetStartConfig starts the path at start. It does nothing when the path
// already has waypoints. odometer is the current car distance.
func (t *Trajectory) SetStartConfig(start Config, odometer units.Length) {
	if len(t.configs) > 0 {
		return
	}
	t.configs = append(t.configs, start)
	t.carDistanceAtLastConfig = odometer
}

// Length gets the total length of the path.
func (t *Trajectory) Length() units.Length {
	return t.length
}

// CoveredDistance gets the distance the car has travelled along the path.
// It never decreases.
func (t *Trajectory) CoveredDistance() units.Length {
	return t.covered
}

// LastConfig gets the last waypoint.
func (t *Trajectory) LastConfig() (Config, bool) {
	if len(t.configs) == 0 {
		return Config{}, false
	}
	return t.configs[len(t.configs)-1], true
}

// Configs gets the waypoints. The result must not be modified.
func (t *Trajectory) Configs() []Config {
	return t.configs
}

// SectionStart gets the index of the first waypoint of the current section.
func (t *Trajectory) SectionStart() int {
	return t.sectionStart
}

// Clear removes all waypoints and resets the traversal.
func (t *Trajectory) Clear() {
	t.configs = t.configs[:0]
	t.sectionStart = 0
	t.length = 0
	t.coveredUntilLastConfig = 0
	t.carDistanceAtLastConfig = 0
	t.carDistanceSinceLastConfig = 0
	t.covered = 0
}

// Finished indicates the end of the path is reached. Within threshold of the
// end it is also finished as soon as any line is seen. On the last section the
// remaining distance is also measured from the sensor row of c, so a lagging
// odometer does not carry the car past the end.
func (t *Trajectory) Finished(c car.Props, lines line.Lines, threshold units.Length) bool {
	remaining := t.length - t.CoveredDistance()
	if last := len(t.configs) - 2; last >= 0 && t.sectionStart == last {
		ref := c.Pose.Transform(t.Geometry.SensorOffset())
		segLen := t.configs[last].Pose.Pos.Distance(t.configs[last+1].Pose.Pos)
		remaining = min(remaining, segLen-t.progress(last, ref))
	}
	return remaining <= 0 || (remaining < threshold && len(lines) > 0)
}

// Update computes the control data for the current car state.
func (t *Trajectory) Update(c car.Props) (data control.ControlData) {
	switch len(t.configs) {
	case 0:
		return
	case 1:
		data.Speed = t.configs[0].Speed
		return
	}

	ref := c.Pose.Transform(t.Geometry.SensorOffset())
	from := t.section(t.closest(ref), ref)

	if from > t.sectionStart {
		for i := t.sectionStart; i < from; i++ {
			t.coveredUntilLastConfig += t.configs[i].Pose.Pos.Distance(t.configs[i+1].Pose.Pos)
		}
		t.sectionStart = from
		t.carDistanceAtLastConfig = c.Distance - t.progress(from, ref)
		glog.V(2).Infof("trajectory section %d, covered %.3fm", from, t.coveredUntilLastConfig.Meters())
	}
	t.carDistanceSinceLastConfig = c.Distance - t.carDistanceAtLastConfig
	if covered := t.coveredUntilLastConfig + t.carDistanceSinceLastConfig; covered > t.covered {
		t.covered = covered
	}

	start, end := t.configs[from], t.configs[from+1]
	dStart, dEnd := ref.Distance(start.Pose.Pos), ref.Distance(end.Pose.Pos)
	data.Speed = start.Speed
	if sum := dStart + dEnd; sum > 0 {
		data.Speed += units.Speed(float64(end.Speed-start.Speed) * float64(dStart/sum))
	}

	var frac float64
	if segLen := start.Pose.Pos.Distance(end.Pose.Pos); segLen > 0 {
		frac = units.Clamp(float64(t.progress(from, ref)/segLen), 0, 1)
	}
	desired := start.Pose.Angle + units.Angle(frac)*end.Pose.Angle.Diff(start.Pose.Angle)
	seg := t.segment(from)
	offset := seg.Distance(ref)
	if seg.Direction().Dot(geom.Polar(1, desired)) < 0 {
		// reversing, measured in the frame of the car.
		offset = -offset
	}

	data.LineControl.Actual = geom.OrientedLine{
		Pos:   -offset,
		Angle: desired.Diff(c.Pose.Angle),
	}
	if glog.V(4) {
		glog.Infof("trajectory: section %d/%d speed %.3f %s", from, len(t.configs), data.Speed.MetersPerSecond(), data)
	}
	return
}

// closest finds the waypoint closest to p, starting from the current
// section.
func (t *Trajectory) closest(p geom.Vec) int {
	best := t.sectionStart
	bestDist := p.Distance(t.configs[best].Pose.Pos)
	for i := best + 1; i < len(t.configs); i++ {
		d := p.Distance(t.configs[i].Pose.Pos)
		if d < bestDist {
			best, bestDist = i, d
		} else if d > bestDist+searchBreakDistance {
			break
		}
	}
	return best
}

// section selects the segment around the closest waypoint that p projects
// onto and gets the index of its first waypoint.
func (t *Trajectory) section(closest int, p geom.Vec) int {
	from := closest
	if closest == len(t.configs)-1 {
		from = closest - 1
	} else if closest > 0 {
		pos := t.configs[closest].Pose.Pos
		if p.Sub(pos).Dot(t.configs[closest+1].Pose.Pos.Sub(pos)) < 0 {
			from = closest - 1
		}
	}
	if from < t.sectionStart {
		from = t.sectionStart
	}
	return from
}

// segment gets the line of the section starting at waypoint from, directed
// towards the next waypoint.
func (t *Trajectory) segment(from int) geom.Line {
	start, end := t.configs[from].Pose, t.configs[from+1].Pose
	l, ok := geom.LineThrough(start.Pos, end.Pos)
	if !ok {
		l = geom.LineAt(start.Pos, start.Forward())
	}
	return l
}

// progress gets the non-negative distance from waypoint from to the
// projection of p, along the segment.
func (t *Trajectory) progress(from int, p geom.Vec) units.Length {
	start, end := t.configs[from].Pose.Pos, t.configs[from+1].Pose.Pos
	seg := end.Sub(start)
	if seg.IsZero() {
		return 0
	}
	along := units.Length(p.Sub(start).Dot(seg.Unit()))
	if along < 0 {
		return 0
	}
	return along
}
