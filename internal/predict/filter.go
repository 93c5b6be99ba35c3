// Package predict implements the movement predictor: per-axis noise
// filtering plus kinematic extrapolation over a configurable horizon.
package predict

import "github.com/flowbox-vr/flowbox/internal/motion"

// Filter noise defaults. These were inline literals in the original tuning
// and carry no documented derivation.
const (
	// DefaultProcessNoise is the per-step variance growth (σ²).
	DefaultProcessNoise = 0.01
	// DefaultMeasurementNoise is the measurement variance (σ²).
	DefaultMeasurementNoise = 0.1
	// initialVariance is the uncertainty assigned on the first measurement.
	initialVariance = 1.0
)

// axisFilter is a one-dimensional constant-velocity noise filter. The
// prediction step carries the estimate forward by the current velocity and
// grows the variance by the process noise; the correction step blends toward
// the measurement with gain = pv/(pv+r). Velocity is re-derived from the
// corrected estimates, which removes steady-state lag on linear motion.
type axisFilter struct {
	est      float64
	vel      float64
	variance float64
	q        float64 // process noise
	r        float64 // measurement noise
	primed   bool
}

func newAxisFilter(processNoise, measurementNoise float64) *axisFilter {
	return &axisFilter{q: processNoise, r: measurementNoise}
}

// Step feeds one measurement taken dt seconds after the previous one and
// returns the corrected estimate. The filter is fully deterministic: the same
// measurement sequence always produces the same estimates.
func (f *axisFilter) Step(z, dt float64) float64 {
	if !f.primed {
		f.est = z
		f.vel = 0
		f.variance = initialVariance
		f.primed = true
		return f.est
	}

	// Predict
	pred := f.est + f.vel*dt
	f.variance += f.q

	// Correct. The velocity gain follows the standard g-h relation
	// beta = g²/(2-g), which keeps the velocity channel critically damped.
	gain := f.variance / (f.variance + f.r)
	resid := z - pred
	f.est = pred + gain*resid
	f.variance *= (1 - gain)

	if dt > 0 {
		beta := gain * gain / (2 - gain)
		f.vel += (beta / dt) * resid
	}
	return f.est
}

// Velocity returns the current velocity estimate.
func (f *axisFilter) Velocity() float64 { return f.vel }

// vecFilter filters each world axis independently.
type vecFilter struct {
	x, y, z *axisFilter
}

func newVecFilter(processNoise, measurementNoise float64) *vecFilter {
	return &vecFilter{
		x: newAxisFilter(processNoise, measurementNoise),
		y: newAxisFilter(processNoise, measurementNoise),
		z: newAxisFilter(processNoise, measurementNoise),
	}
}

func (f *vecFilter) Step(p motion.Vec3, dt float64) motion.Vec3 {
	return motion.Vec3{
		X: f.x.Step(p.X, dt),
		Y: f.y.Step(p.Y, dt),
		Z: f.z.Step(p.Z, dt),
	}
}

func (f *vecFilter) Velocity() motion.Vec3 {
	return motion.Vec3{X: f.x.Velocity(), Y: f.y.Velocity(), Z: f.z.Velocity()}
}
