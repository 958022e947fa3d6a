package control

import "time"

// Ramp moves a value linearly towards a target in a given time.
type Ramp struct {
	start    float64
	target   float64
	value    float64
	duration time.Duration
	elapsed  time.Duration
}

// NewRamp creates a Ramp settled at value.
func NewRamp(value float64) *Ramp {
	return &Ramp{start: value, target: value, value: value}
}

// Set starts ramping from the current value to target, reaching it after
// rampTime. A zero rampTime applies the target immediately.
func (r *Ramp) Set(target float64, rampTime time.Duration) {
	r.start, r.target = r.value, target
	r.duration, r.elapsed = rampTime, 0
	if rampTime <= 0 {
		r.value = target
	}
}

// Update advances the ramp by dt and gets the current value.
func (r *Ramp) Update(dt time.Duration) float64 {
	r.elapsed += dt
	if r.elapsed >= r.duration {
		r.value = r.target
	} else {
		r.value = r.start + (r.target-r.start)*float64(r.elapsed)/float64(r.duration)
	}
	return r.value
}

// Value gets the current value.
func (r *Ramp) Value() float64 {
	return r.value
}

// Target gets the target value.
func (r *Ramp) Target() float64 {
	return r.target
}

// Done indicates the target is reached.
func (r *Ramp) Done() bool {
	return r.value == r.target
}
