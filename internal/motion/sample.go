// Package motion holds the pose sample model and the bounded motion history
// that feeds the prediction pipeline.
package motion

import "time"

// Stance is the boxer's footing orientation.
type Stance string

const (
	// StanceOrthodox is the right-hand dominant footing.
	StanceOrthodox Stance = "orthodox"
	// StanceSouthpaw is the left-hand dominant footing.
	StanceSouthpaw Stance = "southpaw"
)

// Sample is one pose observation from the tracking collaborator. Samples are
// immutable once recorded.
type Sample struct {
	Time     time.Time
	Position Vec3
	Yaw      float64 // radians
	Stance   Stance
}
