package stance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowbox-vr/flowbox/internal/motion"
)

func stanceRun(labels ...motion.Stance) []motion.Stance { return labels }

// mixedSnapshot builds a snapshot with the given stance labels and a short
// walking position history.
func mixedSnapshot(stances []motion.Stance) motion.Snapshot {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := len(stances)
	if n < 2 {
		n = 2
	}
	samples := make([]motion.Sample, n)
	for i := range samples {
		samples[i] = motion.Sample{
			Time:     t0.Add(time.Duration(i) * 100 * time.Millisecond),
			Position: motion.Vec3{X: 0.05 * float64(i), Y: 1.7},
		}
	}
	return motion.Snapshot{Samples: samples, Stances: stances, Writes: int64(n), Capacity: n}
}

func TestStability(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Stability(nil))
	assert.Equal(t, 1.0, Stability(stanceRun(motion.StanceOrthodox)))
	assert.Equal(t, 1.0, Stability(stanceRun(
		motion.StanceOrthodox, motion.StanceOrthodox, motion.StanceOrthodox)))

	// One transition over four labels.
	assert.InDelta(t, 0.75, Stability(stanceRun(
		motion.StanceOrthodox, motion.StanceOrthodox,
		motion.StanceSouthpaw, motion.StanceSouthpaw)), 1e-9)

	// Maximum churn.
	assert.InDelta(t, 0.25, Stability(stanceRun(
		motion.StanceOrthodox, motion.StanceSouthpaw,
		motion.StanceOrthodox, motion.StanceSouthpaw)), 1e-9)
}

func TestMajorityVote(t *testing.T) {
	t.Parallel()

	t.Run("empty history defaults to orthodox", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, motion.StanceOrthodox, MajorityVote(nil))
	})

	t.Run("seventy percent orthodox wins", func(t *testing.T) {
		t.Parallel()
		labels := make([]motion.Stance, 0, 10)
		for i := 0; i < 7; i++ {
			labels = append(labels, motion.StanceOrthodox)
		}
		for i := 0; i < 3; i++ {
			labels = append(labels, motion.StanceSouthpaw)
		}
		assert.Equal(t, motion.StanceOrthodox, MajorityVote(labels))
	})

	t.Run("southpaw needs a strict majority", func(t *testing.T) {
		t.Parallel()
		tie := stanceRun(motion.StanceOrthodox, motion.StanceSouthpaw)
		assert.Equal(t, motion.StanceOrthodox, MajorityVote(tie))

		majority := stanceRun(motion.StanceOrthodox, motion.StanceSouthpaw, motion.StanceSouthpaw)
		assert.Equal(t, motion.StanceSouthpaw, MajorityVote(majority))
	})
}

func TestFeatures(t *testing.T) {
	t.Parallel()

	t.Run("empty snapshot is all zeros but defined", func(t *testing.T) {
		t.Parallel()
		f := Features(motion.Snapshot{})
		require.Len(t, f, FeatureCount)
		for _, v := range f {
			assert.Zero(t, v)
		}
	})

	t.Run("extracts last two positions and stability", func(t *testing.T) {
		t.Parallel()
		snap := mixedSnapshot(stanceRun(motion.StanceOrthodox, motion.StanceOrthodox))
		f := Features(snap)
		require.Len(t, f, FeatureCount)

		last := snap.Samples[len(snap.Samples)-1]
		prev := snap.Samples[len(snap.Samples)-2]
		assert.Equal(t, last.Position.X, f[0])
		assert.Equal(t, last.Position.Z, f[1])
		assert.Equal(t, prev.Position.X, f[2])
		assert.Equal(t, prev.Position.Z, f[3])
		assert.Equal(t, 1.0, f[5])
	})
}

func TestClassify(t *testing.T) {
	t.Parallel()

	net, err := NewFeedForward(DefaultLayerWidths, 42)
	require.NoError(t, err)
	c := NewClassifier(net)

	t.Run("empty stance history defaults to orthodox", func(t *testing.T) {
		t.Parallel()
		res := c.Classify(motion.Snapshot{})
		assert.Equal(t, motion.StanceOrthodox, res.Stance)
		assert.Equal(t, 0.5, res.Score)
	})

	t.Run("score stays in the open unit interval", func(t *testing.T) {
		t.Parallel()
		res := c.Classify(mixedSnapshot(stanceRun(motion.StanceOrthodox, motion.StanceSouthpaw)))
		assert.Greater(t, res.Score, 0.0)
		assert.Less(t, res.Score, 1.0)
	})

	t.Run("deterministic for the same snapshot", func(t *testing.T) {
		t.Parallel()
		snap := mixedSnapshot(stanceRun(motion.StanceSouthpaw, motion.StanceSouthpaw))
		assert.Equal(t, c.Classify(snap), c.Classify(snap))
	})
}

func TestComputePreference(t *testing.T) {
	t.Parallel()

	t.Run("orthodox zone sits ahead and to the right", func(t *testing.T) {
		t.Parallel()
		snap := mixedSnapshot(stanceRun(motion.StanceOrthodox, motion.StanceOrthodox))
		pref := ComputePreference(snap, 0.75)

		assert.Equal(t, motion.StanceOrthodox, pref.Preferred)
		assert.Equal(t, 0.75, pref.ReachDistance)

		last, _ := snap.Latest()
		// Yaw 0 faces +Z; the dominant-hand offset lands on +X.
		assert.InDelta(t, last.Position.Z+0.75, pref.OptimalZone.Z, 1e-9)
		assert.InDelta(t, last.Position.X+0.3*0.75, pref.OptimalZone.X, 1e-9)
	})

	t.Run("southpaw zone mirrors to the left", func(t *testing.T) {
		t.Parallel()
		snap := mixedSnapshot(stanceRun(
			motion.StanceSouthpaw, motion.StanceSouthpaw, motion.StanceSouthpaw))
		pref := ComputePreference(snap, 0.75)

		assert.Equal(t, motion.StanceSouthpaw, pref.Preferred)
		last, _ := snap.Latest()
		assert.InDelta(t, last.Position.X-0.3*0.75, pref.OptimalZone.X, 1e-9)
	})

	t.Run("transition frequency counts switches per second", func(t *testing.T) {
		t.Parallel()
		snap := mixedSnapshot(stanceRun(
			motion.StanceOrthodox, motion.StanceSouthpaw,
			motion.StanceOrthodox, motion.StanceSouthpaw))
		pref := ComputePreference(snap, 0.75)
		// Three transitions over a 0.3s span.
		assert.InDelta(t, 10.0, pref.TransitionFrequency, 1e-9)
	})

	t.Run("empty snapshot keeps a zero zone", func(t *testing.T) {
		t.Parallel()
		pref := ComputePreference(motion.Snapshot{}, 0.75)
		assert.Equal(t, motion.StanceOrthodox, pref.Preferred)
		assert.Equal(t, motion.Vec3{}, pref.OptimalZone)
	})
}
