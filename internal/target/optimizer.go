package target

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/flowbox-vr/flowbox/internal/motion"
	"github.com/flowbox-vr/flowbox/internal/outcome"
)

// OptimizerConfig holds target placement tuning.
type OptimizerConfig struct {
	ComfortZoneRadius   float64 // inner placement radius (units)
	ChallengeZoneRadius float64 // outer placement radius (units)
	HeightJitter        float64 // bound of the uniform vertical offset
	AngleOffset         float64 // lateral placement angle (radians); mirrored for southpaw
	FormTrainingBelow   float64 // form quality floor for form-training targets
	ChallengeAbove      float64 // form quality ceiling for challenge targets
	PowerWeight         float64 // probability of power development in the mid band
	OutcomeBiasWeight   float64 // pull toward the historical hit centroid
}

// DefaultOptimizerConfig returns the default placement tuning.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		ComfortZoneRadius:   1.2,
		ChallengeZoneRadius: 2.0,
		HeightJitter:        0.25,
		AngleOffset:         45 * math.Pi / 180,
		FormTrainingBelow:   0.6,
		ChallengeAbove:      0.9,
		PowerWeight:         0.3,
		OutcomeBiasWeight:   0.15,
	}
}

// Plan is the input to one optimization pass.
type Plan struct {
	// PredictedPosition is the extrapolated player position at OptimalTiming.
	PredictedPosition motion.Vec3
	// Yaw is the player's current facing (radians).
	Yaw float64
	// Stance is the majority-vote stance to place for.
	Stance motion.Stance
	// FormQuality is the recent form score from the form tracker, [0,1].
	FormQuality float64
	// OptimalTiming is when the target should be hit.
	OptimalTiming time.Time
	// Outcomes is the hit feedback snapshot used to bias placement.
	Outcomes outcome.Set
}

// Optimizer computes candidate future targets. The random draws (placement
// distance, height jitter, type weighting) come from an injected seeded
// source so sessions replay identically.
type Optimizer struct {
	cfg OptimizerConfig
	rng *rand.Rand
}

// NewOptimizer creates an Optimizer with the given tuning and random seed.
func NewOptimizer(cfg OptimizerConfig, seed int64) *Optimizer {
	return &Optimizer{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Optimize synthesises one candidate target. Confidence is left zero; the
// gate assigns it before enqueueing.
func (o *Optimizer) Optimize(plan Plan) Predicted {
	pos := o.placement(plan)
	typ := o.selectType(plan.FormQuality)

	return Predicted{
		ID:            uuid.New(),
		Position:      pos,
		OptimalTiming: plan.OptimalTiming,
		Hand:          RecommendHand(pos, plan.PredictedPosition, plan.Yaw, plan.Stance),
		Stance:        plan.Stance,
		Difficulty:    o.difficulty(pos, plan.PredictedPosition, typ),
		Type:          typ,
	}
}

// placement computes the candidate position: the predicted player position
// plus the stance-mirrored lateral offset at a distance drawn between the
// comfort and challenge radii, with bounded height jitter, then nudged
// toward the historical hit centroid in proportion to past accuracy.
func (o *Optimizer) placement(plan Plan) motion.Vec3 {
	angle := o.cfg.AngleOffset
	if plan.Stance == motion.StanceSouthpaw {
		angle = -angle
	}

	distance := o.cfg.ComfortZoneRadius +
		o.rng.Float64()*(o.cfg.ChallengeZoneRadius-o.cfg.ComfortZoneRadius)

	dir := motion.RotateYaw(motion.Forward(plan.Yaw), angle)
	pos := plan.PredictedPosition.Add(dir.Scale(distance))
	pos.Y += (o.rng.Float64()*2 - 1) * o.cfg.HeightJitter

	if centroid, ok := plan.Outcomes.Centroid(); ok {
		if avgAcc, ok := plan.Outcomes.AverageAccuracy(); ok {
			pull := o.cfg.OutcomeBiasWeight * avgAcc
			pos = pos.Add(centroid.Sub(pos).Scale(pull))
		}
	}

	return pos
}

// selectType maps recent form quality onto a training intent: poor form gets
// form training, excellent form gets challenged, and the mid band is a
// weighted draw between power development and comfort.
func (o *Optimizer) selectType(formQuality float64) Type {
	if formQuality < o.cfg.FormTrainingBelow {
		return TypeFormTraining
	}
	if formQuality > o.cfg.ChallengeAbove {
		return TypeChallenge
	}
	if o.rng.Float64() < o.cfg.PowerWeight {
		return TypePowerDevelopment
	}
	return TypeComfort
}

// difficulty rates the candidate: distance normalised by the challenge
// radius plus the per-type bias, clamped to [0,1].
func (o *Optimizer) difficulty(pos, player motion.Vec3, typ Type) float64 {
	normalized := pos.Dist(player) / o.cfg.ChallengeZoneRadius
	return clamp01(normalized + difficultyBias[typ])
}

// RecommendHand picks the hand whose side of the body the target falls on.
// The lateral component is the projection of the vector-to-target onto the
// player's right axis (up × forward). Orthodox leads with the right hand on
// the lateral-positive side; southpaw is mirrored. Targets dead ahead go to
// the dominant hand.
func RecommendHand(targetPos, playerPos motion.Vec3, yaw float64, st motion.Stance) Hand {
	forward := motion.Forward(yaw)
	right := motion.Up.Cross(forward)
	lateral := targetPos.Sub(playerPos).Dot(right)

	if st == motion.StanceSouthpaw {
		if lateral >= 0 {
			return HandLeft
		}
		return HandRight
	}
	if lateral >= 0 {
		return HandRight
	}
	return HandLeft
}
