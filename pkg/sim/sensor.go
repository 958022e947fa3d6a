package sim

import (
	"math"
	"slices"

	"github.com/robotalks/linecar/pkg/car"
	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/line"
	"github.com/robotalks/linecar/pkg/units"
)

// Reference line sensor.
const (
	DefaultSensorHalfWidth units.Length = 6.4 * units.Centimeter
	DefaultResolution      units.Length = 0.5 * units.Millimeter
	DefaultMinSeparation   units.Length = 1 * units.Centimeter
)

// LineSensor simulates the two sensor rows, perpendicular to the car axis.
type LineSensor struct {
	Geometry car.Geometry
	// HalfWidth is the range of a row to each side of the car axis.
	HalfWidth units.Length
	// Resolution quantizes the positions, 0 for exact positions.
	Resolution units.Length
	// MinSeparation merges closer detections into one.
	MinSeparation units.Length
}

// NewLineSensor creates a LineSensor with the reference characteristics.
func NewLineSensor(g car.Geometry) *LineSensor {
	return &LineSensor{
		Geometry:      g,
		HalfWidth:     DefaultSensorHalfWidth,
		Resolution:    DefaultResolution,
		MinSeparation: DefaultMinSeparation,
	}
}

// Detect gets the sorted line positions seen by the front and rear rows of
// a car at pose. Positions are left positive.
func (s *LineSensor) Detect(pose geom.Pose, tracks []*Track) (front, rear line.Positions) {
	x := s.Geometry.ProjectedWheelbase()
	return s.row(pose, x, tracks), s.row(pose, x-s.Geometry.RowSpacing, tracks)
}

func (s *LineSensor) row(pose geom.Pose, x units.Length, tracks []*Track) line.Positions {
	center := pose.Transform(geom.V(x, 0))
	left := geom.Polar(1, pose.Angle+units.PI/2)
	pos := line.Positions{}
	for _, t := range tracks {
		pos = append(pos, t.Crossings(center, left, s.HalfWidth)...)
	}
	slices.Sort(pos)
	merged := pos[:0]
	for i := 0; i < len(pos); {
		j, sum := i+1, pos[i]
		for j < len(pos) && pos[j]-pos[j-1] < s.MinSeparation {
			sum += pos[j]
			j++
		}
		merged = append(merged, s.quantize(sum/units.Length(j-i)))
		i = j
	}
	return merged
}

func (s *LineSensor) quantize(p units.Length) units.Length {
	if s.Resolution <= 0 {
		return p
	}
	return units.Length(math.Round(float64(p/s.Resolution))) * s.Resolution
}
