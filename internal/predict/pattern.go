package predict

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/flowbox-vr/flowbox/internal/motion"
)

// PatternType categorises recent player movement.
type PatternType string

const (
	PatternStationary    PatternType = "stationary"
	PatternForward       PatternType = "forward"
	PatternBackward      PatternType = "backward"
	PatternLateral       PatternType = "lateral"
	PatternCircular      PatternType = "circular"
	PatternUnpredictable PatternType = "unpredictable"
)

// Pattern classification thresholds.
const (
	// StationarySpeedMax is the average speed (units/s) below which the
	// player is considered stationary.
	StationarySpeedMax = 0.08
	// UnpredictableConsistencyMax marks motion too erratic to categorise.
	UnpredictableConsistencyMax = 0.3
	// CircularRotationMin is the sustained yaw rate (rad/s) suggesting
	// circling.
	CircularRotationMin = 0.5
	// CircularDisplacementRatioMax bounds net displacement over path length
	// for circular motion.
	CircularDisplacementRatioMax = 0.5
)

// MovementPattern is the derived summary of recent player motion. A new
// value is computed each tick; the previous value remains valid until
// replaced.
type MovementPattern struct {
	AvgPosition   motion.Vec3
	Trend         motion.Vec3 // mean velocity vector (units/s)
	RotationTrend float64     // mean yaw rate (rad/s)
	Speed         float64     // mean speed along the path (units/s)
	Confidence    float64     // [0,1]
	Type          PatternType
}

// AnalyzePattern computes the movement pattern summary for a snapshot.
func (p *Predictor) AnalyzePattern(snap motion.Snapshot) MovementPattern {
	samples := snap.Samples
	n := len(samples)
	if n == 0 {
		return MovementPattern{Type: PatternStationary}
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	zs := make([]float64, n)
	for i, s := range samples {
		xs[i] = s.Position.X
		ys[i] = s.Position.Y
		zs[i] = s.Position.Z
	}
	avg := motion.Vec3{
		X: stat.Mean(xs, nil),
		Y: stat.Mean(ys, nil),
		Z: stat.Mean(zs, nil),
	}

	pattern := MovementPattern{
		AvgPosition: avg,
		Confidence:  p.Confidence(snap),
		Type:        PatternStationary,
	}
	if n < 2 {
		return pattern
	}

	duration := samples[n-1].Time.Sub(samples[0].Time).Seconds()
	if duration <= 0 {
		return pattern
	}

	var pathLen, yawTotal float64
	for i := 1; i < n; i++ {
		pathLen += samples[i].Position.Dist(samples[i-1].Position)
		yawTotal += wrapAngle(samples[i].Yaw - samples[i-1].Yaw)
	}

	displacement := samples[n-1].Position.Sub(samples[0].Position)

	pattern.Trend = displacement.Scale(1 / duration)
	pattern.RotationTrend = yawTotal / duration
	pattern.Speed = pathLen / duration
	pattern.Type = p.classifyPattern(pattern, displacement, pathLen, samples)
	return pattern
}

// classifyPattern maps the summary metrics onto a categorical pattern type.
// Rules are checked in priority order.
func (p *Predictor) classifyPattern(mp MovementPattern, displacement motion.Vec3, pathLen float64, samples []motion.Sample) PatternType {
	if mp.Speed < StationarySpeedMax {
		return PatternStationary
	}

	if mp.Confidence < UnpredictableConsistencyMax {
		return PatternUnpredictable
	}

	if math.Abs(mp.RotationTrend) > CircularRotationMin && pathLen > 0 {
		if displacement.Norm()/pathLen < CircularDisplacementRatioMax {
			return PatternCircular
		}
	}

	// Project the trend onto the player's mean facing to separate
	// forward/backward from lateral movement.
	yaws := make([]float64, len(samples))
	for i, s := range samples {
		yaws[i] = s.Yaw
	}
	meanYaw := stat.Mean(yaws, nil)
	forward := motion.Forward(meanYaw)
	right := motion.Up.Cross(forward)

	fwd := mp.Trend.Dot(forward)
	lat := mp.Trend.Dot(right)

	if math.Abs(lat) > math.Abs(fwd) {
		return PatternLateral
	}
	if fwd >= 0 {
		return PatternForward
	}
	return PatternBackward
}

// wrapAngle normalises an angle delta to (-π, π].
func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
