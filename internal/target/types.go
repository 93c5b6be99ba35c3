// Package target synthesises predicted targets from projected player motion
// and manages the gated prediction queue consumed by the spawner.
package target

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowbox-vr/flowbox/internal/motion"
)

// Hand indicates which hand a target is intended for.
type Hand string

const (
	HandLeft  Hand = "left"
	HandRight Hand = "right"
)

// Type categorises the training intent of a target.
type Type string

const (
	TypeComfort          Type = "comfort"
	TypeChallenge        Type = "challenge"
	TypeFormTraining     Type = "form_training"
	TypePowerDevelopment Type = "power_development"
	TypeAccuracyTraining Type = "accuracy_training"
	TypeSpeedTraining    Type = "speed_training"
)

// difficultyBias is the fixed per-type difficulty adjustment.
var difficultyBias = map[Type]float64{
	TypeChallenge:        0.3,
	TypeComfort:          -0.2,
	TypePowerDevelopment: 0.1,
}

// Predicted is a synthesised future target. It is created by the Optimizer,
// enqueued when its confidence clears the gate, and either consumed by the
// external spawner or discarded once OptimalTiming has passed.
type Predicted struct {
	ID            uuid.UUID
	Position      motion.Vec3
	Confidence    float64 // [0,1]
	OptimalTiming time.Time
	Hand          Hand
	Stance        motion.Stance
	Difficulty    float64 // [0,1]
	Type          Type
}

// Expired reports whether the target's optimal timing has already passed.
func (p Predicted) Expired(now time.Time) bool {
	return p.OptimalTiming.Before(now)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
