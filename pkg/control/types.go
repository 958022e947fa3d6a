// Package control implements the feedback controllers of the car:
// the pole-placement LineController for steering and the generic PID/PD
// controllers used for speed.
package control

import (
	"fmt"
	"time"

	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/units"
)

// LineControl is the lateral error pair handed to the steering controller.
type LineControl struct {
	Actual geom.OrientedLine
	Target geom.OrientedLine
}

// ControlData is the output of one control cycle consumed by actuation.
type ControlData struct {
	Speed            units.Speed
	RampTime         time.Duration
	RearSteerEnabled bool
	LineControl      LineControl
}

// Error gets the lateral error terms, target minus actual.
func (l LineControl) Error() geom.OrientedLine {
	return geom.OrientedLine{
		Pos:   l.Target.Pos - l.Actual.Pos,
		Angle: (l.Target.Angle - l.Actual.Angle).Normalize(),
	}
}

// String implements fmt.Stringer.
func (d ControlData) String() string {
	return fmt.Sprintf("speed=%.3fm/s ramp=%v actual=(%.1fmm %.2fdeg) target=(%.1fmm %.2fdeg)",
		d.Speed.MetersPerSecond(), d.RampTime,
		d.LineControl.Actual.Pos.Millimeters(), d.LineControl.Actual.Angle.Degrees(),
		d.LineControl.Target.Pos.Millimeters(), d.LineControl.Target.Angle.Degrees())
}
