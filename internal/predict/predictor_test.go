package predict

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowbox-vr/flowbox/internal/motion"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// walkSnapshot builds a snapshot of n samples moving at the given velocity,
// sampled every 100ms, with full data sufficiency.
func walkSnapshot(n int, vel motion.Vec3) motion.Snapshot {
	const dt = 100 * time.Millisecond
	samples := make([]motion.Sample, n)
	stances := make([]motion.Stance, n)
	for i := range samples {
		elapsed := time.Duration(i) * dt
		samples[i] = motion.Sample{
			Time:     testStart.Add(elapsed),
			Position: vel.Scale(elapsed.Seconds()),
			Stance:   motion.StanceOrthodox,
		}
		stances[i] = motion.StanceOrthodox
	}
	return motion.Snapshot{
		Samples:  samples,
		Stances:  stances,
		Writes:   int64(n),
		Capacity: n,
	}
}

func TestPredictPosition(t *testing.T) {
	t.Parallel()
	p := NewPredictor(DefaultConfig())

	t.Run("empty snapshot yields no prediction", func(t *testing.T) {
		t.Parallel()
		_, ok := p.PredictPosition(motion.Snapshot{})
		assert.False(t, ok)
	})

	t.Run("below minimum samples returns unextrapolated estimate", func(t *testing.T) {
		t.Parallel()
		snap := walkSnapshot(2, motion.Vec3{X: 1})
		pred, ok := p.PredictPosition(snap)
		require.True(t, ok)
		assert.False(t, pred.Extrapolated)
		assert.Equal(t, pred.Filtered, pred.Position)
	})

	t.Run("deterministic for the same snapshot", func(t *testing.T) {
		t.Parallel()
		snap := walkSnapshot(20, motion.Vec3{X: 0.8, Z: -0.4})
		first, ok := p.PredictPosition(snap)
		require.True(t, ok)
		second, ok := p.PredictPosition(snap)
		require.True(t, ok)
		assert.Empty(t, cmp.Diff(first, second))
	})

	t.Run("converged walk extrapolates to the true future position", func(t *testing.T) {
		t.Parallel()
		vel := motion.Vec3{X: 0.95, Z: 0.75}
		snap := walkSnapshot(60, vel)

		pred, ok := p.PredictPosition(snap)
		require.True(t, ok)
		require.True(t, pred.Extrapolated)

		last := snap.Samples[len(snap.Samples)-1]
		truth := last.Position.Add(vel.Scale(pred.Horizon.Seconds()))
		assert.InDelta(t, truth.X, pred.Position.X, 0.01)
		assert.InDelta(t, truth.Z, pred.Position.Z, 0.01)
		assert.InDelta(t, vel.X, pred.Velocity.X, 1e-3)
		assert.InDelta(t, vel.Z, pred.Velocity.Z, 1e-3)
	})

	t.Run("short walk still projects in the direction of travel", func(t *testing.T) {
		t.Parallel()
		vel := motion.Vec3{X: 0.95, Z: 0.75}
		snap := walkSnapshot(10, vel)

		pred, ok := p.PredictPosition(snap)
		require.True(t, ok)
		require.True(t, pred.Extrapolated)

		last := snap.Samples[len(snap.Samples)-1]
		truth := last.Position.Add(vel.Scale(pred.Horizon.Seconds()))
		// The filter is still converging at 10 samples; allow a wider band.
		assert.InDelta(t, truth.X, pred.Position.X, 0.2)
		assert.InDelta(t, truth.Z, pred.Position.Z, 0.2)
		assert.Greater(t, pred.Position.X, last.Position.X)
	})

	t.Run("stationary player stays put", func(t *testing.T) {
		t.Parallel()
		snap := walkSnapshot(30, motion.Vec3{})
		pred, ok := p.PredictPosition(snap)
		require.True(t, ok)
		assert.InDelta(t, 0, pred.Position.X, 1e-6)
		assert.InDelta(t, 0, pred.Position.Z, 1e-6)
	})
}

func TestConsistency(t *testing.T) {
	t.Parallel()
	p := NewPredictor(DefaultConfig())

	t.Run("too few samples scores zero", func(t *testing.T) {
		t.Parallel()
		assert.Zero(t, p.Consistency(walkSnapshot(1, motion.Vec3{})))
	})

	t.Run("stationary motion scores one", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 1.0, p.Consistency(walkSnapshot(10, motion.Vec3{})), 1e-9)
	})

	t.Run("smooth walk scores high", func(t *testing.T) {
		t.Parallel()
		// 0.5 units/s at 10 Hz: 0.05 units between samples.
		c := p.Consistency(walkSnapshot(10, motion.Vec3{X: 0.5}))
		assert.InDelta(t, 0.95, c, 1e-9)
	})

	t.Run("erratic jumps clamp to zero", func(t *testing.T) {
		t.Parallel()
		snap := walkSnapshot(10, motion.Vec3{})
		for i := range snap.Samples {
			if i%2 == 0 {
				snap.Samples[i].Position = motion.Vec3{X: 3}
			}
		}
		assert.Zero(t, p.Consistency(snap))
	})

	t.Run("only the trailing window counts", func(t *testing.T) {
		t.Parallel()
		snap := walkSnapshot(30, motion.Vec3{})
		// A wild jump older than the 10-sample window must not matter.
		snap.Samples[2].Position = motion.Vec3{X: 50}
		assert.InDelta(t, 1.0, p.Consistency(snap), 1e-9)
	})
}

func TestConfidence(t *testing.T) {
	t.Parallel()
	p := NewPredictor(DefaultConfig())

	t.Run("combines consistency and sufficiency", func(t *testing.T) {
		t.Parallel()
		snap := walkSnapshot(10, motion.Vec3{})
		snap.Capacity = 20
		snap.Writes = 10 // half full
		assert.InDelta(t, 0.75, p.Confidence(snap), 1e-9)
	})

	t.Run("always within the unit interval", func(t *testing.T) {
		t.Parallel()
		snaps := []motion.Snapshot{
			{},
			walkSnapshot(1, motion.Vec3{}),
			walkSnapshot(10, motion.Vec3{X: 5}),
			walkSnapshot(100, motion.Vec3{X: 0.1}),
		}
		for _, snap := range snaps {
			c := p.Confidence(snap)
			assert.GreaterOrEqual(t, c, 0.0)
			assert.LessOrEqual(t, c, 1.0)
		}
	})
}
