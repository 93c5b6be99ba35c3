package stance

import (
	"github.com/flowbox-vr/flowbox/internal/motion"
)

// Preference summarises the player's stance habits. It is recomputed on
// stance-change events and on the periodic form analysis cadence; the
// previous value stays readable until replaced.
type Preference struct {
	Preferred motion.Stance
	// Stability is 1 − transitions/historyLength, in [0,1].
	Stability float64
	// TransitionFrequency is stance switches per second over the observed
	// span (0 when the span is too short to measure).
	TransitionFrequency float64
	// OptimalZone is the point in front of the player where targets land
	// most comfortably for the preferred stance.
	OptimalZone motion.Vec3
	// ReachDistance is the assumed arm reach used to place the zone.
	ReachDistance float64
}

// ComputePreference derives the stance preference from a snapshot. The
// optimal zone sits one reach ahead of the latest pose, offset laterally
// toward the dominant hand: right for orthodox, left for southpaw.
func ComputePreference(snap motion.Snapshot, reach float64) Preference {
	pref := Preference{
		Preferred:     MajorityVote(snap.Stances),
		Stability:     Stability(snap.Stances),
		ReachDistance: reach,
	}

	if n := len(snap.Samples); n >= 2 {
		span := snap.Samples[n-1].Time.Sub(snap.Samples[0].Time).Seconds()
		if span > 0 {
			transitions := 0
			for i := 1; i < len(snap.Stances); i++ {
				if snap.Stances[i] != snap.Stances[i-1] {
					transitions++
				}
			}
			pref.TransitionFrequency = float64(transitions) / span
		}
	}

	if last, ok := snap.Latest(); ok {
		forward := motion.Forward(last.Yaw)
		right := motion.Up.Cross(forward)
		side := right.Scale(0.3 * reach)
		if pref.Preferred == motion.StanceSouthpaw {
			side = side.Scale(-1)
		}
		pref.OptimalZone = last.Position.
			Add(forward.Scale(reach)).
			Add(side)
	}

	return pref
}
