package control

import (
	"math"
	"time"
)

// Params are the PID gains and output shaping.
type Params struct {
	P, I, D float64
	// OutMin and OutMax clamp the output, ignored unless OutMax > OutMin.
	OutMin, OutMax float64
	// MaxRate is the max output change per second, 0 for unlimited.
	MaxRate float64
	// Deadband is the measurement tolerance around a zero target.
	Deadband float64
}

// PID is a discrete PID controller with conditional integration.
type PID struct {
	Params

	integral float64
	prevErr  float64
	hasPrev  bool
	output   float64
}

// NewPID creates a PID controller.
func NewPID(params Params) *PID {
	return &PID{Params: params}
}

// Update feeds a measurement taken dt after the previous one and computes
// the new output.
func (p *PID) Update(target, measured float64, dt time.Duration) float64 {
	secs := dt.Seconds()
	if target == 0 && math.Abs(measured) < p.Deadband {
		p.integral, p.prevErr, p.hasPrev = 0, 0, false
		return p.apply(0, secs)
	}

	err := target - measured
	if secs > 0 && !p.saturated() {
		p.integral += err * secs
	}
	var deriv float64
	if secs > 0 && p.hasPrev {
		deriv = (err - p.prevErr) / secs
	}
	p.prevErr, p.hasPrev = err, true
	return p.apply(p.P*err+p.I*p.integral+p.D*deriv, secs)
}

// Output gets the last output.
func (p *PID) Output() float64 {
	return p.output
}

// Integral gets the accumulated integral of the error.
func (p *PID) Integral() float64 {
	return p.integral
}

// PrevError gets the error of the last update.
func (p *PID) PrevError() float64 {
	return p.prevErr
}

// Reset clears the state.
func (p *PID) Reset() {
	p.integral, p.prevErr, p.hasPrev, p.output = 0, 0, false, 0
}

func (p *PID) clamped() bool {
	return p.OutMax > p.OutMin
}

func (p *PID) saturated() bool {
	return p.clamped() && (p.output >= p.OutMax || p.output <= p.OutMin)
}

func (p *PID) apply(u, secs float64) float64 {
	if p.MaxRate > 0 && secs > 0 {
		step := p.MaxRate * secs
		u = math.Max(p.output-step, math.Min(p.output+step, u))
	}
	if p.clamped() {
		u = math.Max(p.OutMin, math.Min(p.OutMax, u))
	}
	p.output = u
	return u
}

// PD is a PID without the integral term.
type PD struct {
	pid PID
}

// NewPD creates a PD controller, params.I is ignored.
func NewPD(params Params) *PD {
	params.I = 0
	return &PD{pid: PID{Params: params}}
}

// Params gets the parameters.
func (p *PD) Params() Params {
	return p.pid.Params
}

// Update computes the new output, see PID.Update.
func (p *PD) Update(target, measured float64, dt time.Duration) float64 {
	return p.pid.Update(target, measured, dt)
}

// Output gets the last output.
func (p *PD) Output() float64 {
	return p.pid.output
}

// PrevError gets the error of the last update.
func (p *PD) PrevError() float64 {
	return p.pid.prevErr
}

// Reset clears the state.
func (p *PD) Reset() {
	p.pid.Reset()
}
