package control

import (
	"errors"
	"math"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/linecar/pkg/car"
	"github.com/robotalks/linecar/pkg/line"
	"github.com/robotalks/linecar/pkg/units"
)

// Line controller tuning.
const (
	// MinSpeed is the speed below which no steering is commanded.
	MinSpeed units.Speed = 5 * units.MillimeterPerSecond
	// AdjustDistance is the fixed part of the convergence horizon.
	AdjustDistance units.Length = 50 * units.Centimeter
	// AdjustHorizon adds the distance travelled in this time to the horizon.
	AdjustHorizon = 500 * time.Millisecond
	// MaxSteering bounds the virtual steering angle at the sensor row.
	MaxSteering units.Angle = 90 * units.Degree
)

// ErrNotFinite is returned by Run when an input is NaN or infinite.
var ErrNotFinite = errors.New("line controller: input not finite")

// Damping is the damping ratio of the closed loop poles.
var Damping = 1 / math.Sqrt2

// LineController steers the car onto a line by placing the poles of the
// linearized kinematic model. The gains are recomputed every cycle from the
// current speed.
type LineController struct {
	Geometry car.Geometry

	output units.Angle
}

// NewLineController creates a LineController.
func NewLineController(g car.Geometry) *LineController {
	return &LineController{Geometry: g}
}

// Run computes the steering angle for the front axle.
// baseline is the desired lateral position of the line. On ErrNotFinite the
// previous output is kept.
func (c *LineController) Run(speed units.Speed, baseline units.Length, ln line.Line) error {
	for _, v := range []float64{float64(speed), float64(baseline), float64(ln.PosFront), float64(ln.Angle)} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNotFinite
		}
	}
	if units.Abs(speed) < MinSpeed {
		c.output = 0
		return nil
	}

	absSpeed := units.Abs(speed)
	dist := AdjustDistance + absSpeed.Travel(AdjustHorizon)
	adjustTime := dist.Meters() / absSpeed.MetersPerSecond()

	t := adjustTime * math.Sqrt2 / 3
	w0 := 1 / t
	sRe := -Damping * w0
	sIm := w0 * math.Sqrt(1-Damping*Damping)

	v := speed.MetersPerSecond()
	l := c.Geometry.ProjectedWheelbase().Meters()
	kLoc := -l / (v * v) * (sRe*sRe + sIm*sIm)
	kOri := l / v * (2*sRe - v*kLoc)

	u := units.Angle(kLoc*baseline.Meters() - kLoc*ln.PosFront.Meters() - kOri*ln.Angle.Radians())
	u = units.Clamp(u, -MaxSteering, MaxSteering)
	c.output = u * units.Angle(c.Geometry.Wheelbase/c.Geometry.ProjectedWheelbase())

	if glog.V(4) {
		glog.Infof("line ctl: v=%.3f pos=%.1fmm angle=%.2fdeg kLoc=%.3f kOri=%.3f out=%.2fdeg",
			v, ln.PosFront.Millimeters(), ln.Angle.Degrees(), kLoc, kOri, c.output.Degrees())
	}
	return nil
}

// Output gets the last computed steering angle.
func (c *LineController) Output() units.Angle {
	return c.output
}
