package predict

import (
	"time"

	"github.com/flowbox-vr/flowbox/internal/motion"
)

// Config holds the predictor tuning parameters.
type Config struct {
	ProcessNoise      float64       // Per-step filter variance growth (σ²)
	MeasurementNoise  float64       // Filter measurement variance (σ²)
	Horizon           time.Duration // Extrapolation look-ahead
	ConsistencyWindow int           // Trailing samples for the consistency term
}

// DefaultConfig returns default predictor configuration.
func DefaultConfig() Config {
	return Config{
		ProcessNoise:      DefaultProcessNoise,
		MeasurementNoise:  DefaultMeasurementNoise,
		Horizon:           2 * time.Second,
		ConsistencyWindow: 10,
	}
}

// MinExtrapolationSamples is the sample count below which the predictor
// returns the filtered estimate without kinematic extrapolation.
const MinExtrapolationSamples = 3

// Prediction is the projected future pose of the player.
type Prediction struct {
	// Position is the extrapolated position at now + Horizon.
	Position motion.Vec3
	// Filtered is the noise-filtered estimate of the current position.
	Filtered motion.Vec3
	// Velocity and Acceleration are the kinematic estimates used for
	// extrapolation (zero when too few samples were available).
	Velocity     motion.Vec3
	Acceleration motion.Vec3
	// Horizon is the look-ahead the prediction was computed for.
	Horizon time.Duration
	// Extrapolated reports whether enough samples existed to project
	// beyond the filtered estimate.
	Extrapolated bool
}

// Predictor projects future player position from a motion history snapshot.
// It holds no mutable state: every call runs fresh filters over the
// snapshot, so results are deterministic and safe for concurrent use.
type Predictor struct {
	cfg Config
}

// NewPredictor creates a Predictor with the given configuration.
func NewPredictor(cfg Config) *Predictor {
	if cfg.ConsistencyWindow <= 0 {
		cfg.ConsistencyWindow = 10
	}
	return &Predictor{cfg: cfg}
}

// PredictPosition filters the snapshot's position series and extrapolates it
// by the configured horizon. With fewer than MinExtrapolationSamples the
// filtered estimate is returned unextrapolated; an empty snapshot yields
// ok=false. Insufficient history is not an error — the confidence gate
// suppresses such candidates via the data-sufficiency term.
func (p *Predictor) PredictPosition(snap motion.Snapshot) (Prediction, bool) {
	n := len(snap.Samples)
	if n == 0 {
		return Prediction{}, false
	}

	h := p.cfg.Horizon.Seconds()

	vf := newVecFilter(p.cfg.ProcessNoise, p.cfg.MeasurementNoise)
	var filtered, vel, prevVel motion.Vec3
	var lastDt float64
	for i, s := range snap.Samples {
		var dt float64
		if i > 0 {
			dt = s.Time.Sub(snap.Samples[i-1].Time).Seconds()
		}
		filtered = vf.Step(s.Position, dt)
		prevVel = vel
		vel = vf.Velocity()
		if dt > 0 {
			lastDt = dt
		}
	}

	pred := Prediction{
		Filtered: filtered,
		Position: filtered,
		Horizon:  p.cfg.Horizon,
	}

	if n < MinExtrapolationSamples {
		return pred, true
	}

	var accel motion.Vec3
	if lastDt > 0 {
		accel = vel.Sub(prevVel).Scale(1 / lastDt)
	}

	pred.Velocity = vel
	pred.Acceleration = accel
	pred.Extrapolated = true
	pred.Position = filtered.
		Add(vel.Scale(h)).
		Add(accel.Scale(0.5 * h * h))
	return pred, true
}

// Consistency returns the movement-consistency term of the confidence score:
// 1 minus the average inter-sample distance over the trailing window,
// clamped to [0,1]. Erratic motion scores near zero.
func (p *Predictor) Consistency(snap motion.Snapshot) float64 {
	samples := snap.Samples
	if len(samples) < 2 {
		return 0
	}

	window := p.cfg.ConsistencyWindow
	if len(samples) > window {
		samples = samples[len(samples)-window:]
	}

	var total float64
	for i := 1; i < len(samples); i++ {
		total += samples[i].Position.Dist(samples[i-1].Position)
	}
	avg := total / float64(len(samples)-1)

	c := 1 - avg
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// Confidence combines movement consistency with the snapshot's
// data-sufficiency ratio. Always in [0,1].
func (p *Predictor) Confidence(snap motion.Snapshot) float64 {
	return (p.Consistency(snap) + snap.Sufficiency()) / 2
}
