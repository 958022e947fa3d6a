package sim

import (
	"math"

	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/trajectory"
	"github.com/robotalks/linecar/pkg/units"
)

// Track is a painted line on the floor, as a polyline.
type Track struct {
	ID     string
	Points []geom.Vec
}

// trackStep is the chord length used to approximate arcs.
const trackStep = units.Centimeter

// Name implements Object.
func (t *Track) Name() string {
	return "track/" + t.ID
}

// StraightTrack creates a straight track.
func StraightTrack(id string, from, to geom.Vec) *Track {
	return &Track{ID: id, Points: []geom.Vec{from, to}}
}

// ArcTrack creates a circular arc around center starting at from and
// sweeping angle, counter-clockwise for positive angles.
func ArcTrack(id string, center, from geom.Vec, angle units.Angle) *Track {
	arc := units.Length(math.Abs(angle.Radians())) * from.Distance(center)
	n := int(math.Ceil(float64(arc / trackStep)))
	if n < 1 {
		n = 1
	}
	t := &Track{ID: id, Points: make([]geom.Vec, 0, n+1)}
	for i := 0; i <= n; i++ {
		t.Points = append(t.Points, from.RotateAround(center, angle*units.Angle(float64(i)/float64(n))))
	}
	return t
}

// TrackFromTrajectory paints the path of the sensor row along a trajectory.
func TrackFromTrajectory(id string, tr *trajectory.Trajectory) *Track {
	configs := tr.Configs()
	t := &Track{ID: id, Points: make([]geom.Vec, 0, len(configs))}
	for _, c := range configs {
		t.Points = append(t.Points, c.Pose.Pos)
	}
	return t
}

// Append extends the track.
func (t *Track) Append(points ...geom.Vec) *Track {
	t.Points = append(t.Points, points...)
	return t
}

// Length gets the length of the track.
func (t *Track) Length() (l units.Length) {
	for i := 1; i < len(t.Points); i++ {
		l += t.Points[i].Distance(t.Points[i-1])
	}
	return
}

// Crossings gets the positions along the segment from c in direction dir
// (unit vector) where the track crosses it, within ±halfWidth.
func (t *Track) Crossings(c, dir geom.Vec, halfWidth units.Length) []units.Length {
	var res []units.Length
	for i := 1; i < len(t.Points); i++ {
		p, q := t.Points[i-1], t.Points[i]
		d := q.Sub(p)
		denom := dir.Cross(d)
		if math.Abs(denom) < 1e-12 {
			continue
		}
		w := p.Sub(c)
		u := w.Cross(dir) / denom
		// a vertex belongs to the segment it starts.
		if u < 0 || u >= 1 && i < len(t.Points)-1 || u > 1 {
			continue
		}
		s := units.Length(w.Cross(d) / denom)
		if units.Abs(s) <= halfWidth {
			res = append(res, s)
		}
	}
	return res
}
