package trajectory

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/units"
)

// OrientationUpdate selects how generated waypoints are oriented.
type OrientationUpdate int

// Orientation updates.
const (
	// OrientationFix keeps the forward angle of the previous waypoint.
	OrientationFix OrientationUpdate = iota
	// OrientationPath follows the tangent of the path, reversed for negative
	// speeds.
	OrientationPath
)

// sineLengthSamples is the resolution of the sine arc length estimate.
const sineLengthSamples = 64

// AppendLine appends a straight section to dest.
func (t *Trajectory) AppendLine(dest Config) error {
	last, err := t.reserve(1)
	if err != nil {
		return err
	}
	t.push(last, dest)
	return nil
}

// AppendCircle appends an arc rotating the last waypoint by angle around
// center. Speed changes linearly to destSpeed along the arc.
func (t *Trajectory) AppendCircle(center geom.Vec, angle units.Angle, destSpeed units.Speed) error {
	last, ok := t.LastConfig()
	if !ok {
		return ErrNoStartConfig
	}
	arc := units.Length(last.Pose.Pos.Distance(center).Meters() * units.Abs(angle).Radians())
	n := sections(arc)
	if _, err := t.reserve(n); err != nil {
		return err
	}
	prev := last
	for i := 1; i <= n; i++ {
		f := float64(i) / float64(n)
		next := Config{
			Pose:  last.Pose.RotateAround(center, units.Angle(f)*angle),
			Speed: units.Lerp(last.Speed, destSpeed, f),
		}
		t.push(prev, next)
		prev = next
	}
	return nil
}

// AppendSineArc appends a lateral transition to dest.Pose.Pos. In the frame
// aligned with fwdAngle the path advances linearly while the lateral offset
// follows the sine between the phases sineStart and sineEnd, e.g. -90 to 90
// degrees for a full lane change. dest.Pose.Angle is not used, the
// orientation of the generated waypoints follows orientationUpdate.
func (t *Trajectory) AppendSineArc(dest Config, fwdAngle units.Angle, orientationUpdate OrientationUpdate, sineStart, sineEnd units.Angle) error {
	last, ok := t.LastConfig()
	if !ok {
		return ErrNoStartConfig
	}
	sinDiff := sineEnd.Sin() - sineStart.Sin()
	if math.Abs(sinDiff) < 1e-9 {
		return ErrDegenerate
	}

	frame := geom.Pose{Pos: last.Pose.Pos, Angle: fwdAngle}
	local := frame.Local(dest.Pose.Pos)
	at := func(s float64) geom.Vec {
		phase := units.Lerp(sineStart, sineEnd, s)
		lateral := float64(local.Y) * (phase.Sin() - sineStart.Sin()) / sinDiff
		return frame.Transform(geom.V(units.Length(float64(local.X)*s), units.Length(lateral)))
	}
	tangent := func(s float64) units.Angle {
		phase := units.Lerp(sineStart, sineEnd, s)
		dy := local.Y.Meters() * phase.Cos() * (sineEnd - sineStart).Radians() / sinDiff
		return fwdAngle + units.Atan2(dy, local.X.Meters())
	}

	samples := floats.Span(make([]float64, sineLengthSamples+1), 0, 1)
	var arc units.Length
	for i := 1; i < len(samples); i++ {
		arc += at(samples[i]).Distance(at(samples[i-1]))
	}
	n := sections(arc)
	if _, err := t.reserve(n); err != nil {
		return err
	}

	prev := last
	for _, s := range floats.Span(make([]float64, n+1), 0, 1)[1:] {
		next := Config{Speed: units.Lerp(last.Speed, dest.Speed, s)}
		next.Pose.Pos = at(s)
		switch orientationUpdate {
		case OrientationPath:
			next.Pose.Angle = tangent(s)
			if next.Speed < 0 {
				next.Pose.Angle += units.PI
			}
			next.Pose.Angle = next.Pose.Angle.Normalize()
		default:
			next.Pose.Angle = last.Pose.Angle
		}
		t.push(prev, next)
		prev = next
	}
	return nil
}

// sections gets the number of sections needed for a curve of length arc.
func sections(arc units.Length) int {
	n := int(math.Ceil(float64(arc / MaxSectionLength)))
	if n < 1 {
		n = 1
	}
	return n
}

// reserve checks n more waypoints can be appended.
func (t *Trajectory) reserve(n int) (Config, error) {
	last, ok := t.LastConfig()
	if !ok {
		return last, ErrNoStartConfig
	}
	if len(t.configs)+n > MaxConfigs {
		return last, ErrFull
	}
	return last, nil
}

func (t *Trajectory) push(prev, next Config) {
	t.length += prev.Pose.Pos.Distance(next.Pose.Pos)
	t.configs = append(t.configs, next)
}
