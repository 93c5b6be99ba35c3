package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowbox-vr/flowbox/internal/motion"
	"github.com/flowbox-vr/flowbox/internal/predict"
	"github.com/flowbox-vr/flowbox/internal/stance"
	"github.com/flowbox-vr/flowbox/internal/target"
	"github.com/flowbox-vr/flowbox/internal/timeutil"
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// steadyForm is a form source holding orthodox with mid-band quality.
var steadyForm = FormFunc(func() (motion.Stance, float64, bool) {
	return motion.StanceOrthodox, 0.75, true
})

// walkingPose returns a pose source stepping 5cm along +X per poll —
// smooth, highly consistent motion.
func walkingPose() PoseFunc {
	var calls atomic.Int64
	return func() (motion.Vec3, float64, bool) {
		i := calls.Add(1)
		return motion.Vec3{X: 0.05 * float64(i), Y: 1.7}, 0, true
	}
}

// erraticPose returns a pose source teleporting between distant points.
func erraticPose() PoseFunc {
	var calls atomic.Int64
	return func() (motion.Vec3, float64, bool) {
		i := calls.Add(1)
		if i%2 == 0 {
			return motion.Vec3{X: 3, Y: 1.7, Z: -2}, 0, true
		}
		return motion.Vec3{X: -3, Y: 1.7, Z: 2}, 0, true
	}
}

func testConfig(clock timeutil.Clock) Config {
	cfg := DefaultConfig()
	cfg.Clock = clock
	cfg.PositionHistoryCapacity = 10
	cfg.StanceHistoryCapacity = 10
	cfg.ConfidenceThreshold = 0.2
	return cfg
}

// startEngine runs the engine against a mock clock and returns a tick driver
// plus a shutdown func.
func startEngine(t *testing.T, eng *Engine, clock *timeutil.MockClock) (drive func(upTo int64), shutdown func()) {
	t.Helper()

	runErr := make(chan error, 1)
	go func() { runErr <- eng.Run(context.Background()) }()

	drive = func(upTo int64) {
		require.Eventually(t, func() bool {
			if eng.Stats().Ticks >= upTo {
				return true
			}
			// The tick may not have been consumed yet (or the run loop may
			// not have built its ticker); nudge the clock and re-check.
			clock.Advance(eng.cfg.TickInterval)
			return false
		}, 5*time.Second, 2*time.Millisecond, "engine never reached tick %d", upTo)
	}
	shutdown = func() {
		eng.Close()
		select {
		case err := <-runErr:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after Close")
		}
	}
	return drive, shutdown
}

func TestNewValidatesCollaborators(t *testing.T) {
	t.Parallel()

	_, err := New(DefaultConfig(), nil, steadyForm)
	assert.Error(t, err)

	_, err = New(DefaultConfig(), walkingPose(), nil)
	assert.Error(t, err)

	_, err = New(Config{}, walkingPose(), steadyForm)
	assert.NoError(t, err)
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	eng, err := New(Config{}, walkingPose(), steadyForm)
	require.NoError(t, err)
	defer eng.Close()

	def := DefaultConfig()
	assert.Equal(t, def.TickInterval, eng.cfg.TickInterval)
	assert.Equal(t, def.Workers, eng.cfg.Workers)
	assert.Equal(t, def.ConfidenceThreshold, eng.cfg.ConfidenceThreshold)
	assert.Equal(t, def.Predictor.Horizon, eng.cfg.Predictor.Horizon)
}

func TestEngineLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("second Run is rejected", func(t *testing.T) {
		t.Parallel()
		clock := timeutil.NewMockClock(testStart)
		eng, err := New(testConfig(clock), walkingPose(), steadyForm)
		require.NoError(t, err)

		drive, shutdown := startEngine(t, eng, clock)
		drive(1)
		assert.ErrorIs(t, eng.Run(context.Background()), ErrAlreadyRunning)
		shutdown()
	})

	t.Run("Run after Close is rejected", func(t *testing.T) {
		t.Parallel()
		eng, err := New(testConfig(timeutil.NewMockClock(testStart)), walkingPose(), steadyForm)
		require.NoError(t, err)

		eng.Close()
		assert.ErrorIs(t, eng.Run(context.Background()), ErrDisposed)
	})

	t.Run("context cancellation stops the loop", func(t *testing.T) {
		t.Parallel()
		eng, err := New(testConfig(timeutil.NewMockClock(testStart)), walkingPose(), steadyForm)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		runErr := make(chan error, 1)
		go func() { runErr <- eng.Run(ctx) }()
		cancel()

		select {
		case err := <-runErr:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
		eng.Close()
	})
}

func TestEngineProducesTargets(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(testStart)
	eng, err := New(testConfig(clock), walkingPose(), steadyForm)
	require.NoError(t, err)

	var (
		mu       sync.Mutex
		observed []target.Predicted
	)
	eng.OnTarget(func(p target.Predicted) {
		mu.Lock()
		observed = append(observed, p)
		mu.Unlock()
	})

	drive, shutdown := startEngine(t, eng, clock)
	drive(15)

	require.Eventually(t, func() bool {
		_, ok := eng.NextPredictedTarget()
		return ok
	}, 5*time.Second, 2*time.Millisecond, "no target surfaced")

	got, ok := eng.NextPredictedTarget()
	require.True(t, ok)
	assert.Greater(t, got.Confidence, 0.2)
	assert.LessOrEqual(t, got.Confidence, 1.0)
	assert.Equal(t, motion.StanceOrthodox, got.Stance)
	assert.True(t, got.OptimalTiming.After(clock.Now()))
	assert.GreaterOrEqual(t, got.Difficulty, 0.0)
	assert.LessOrEqual(t, got.Difficulty, 1.0)

	// Peek does not consume; Take does.
	before := len(eng.QueuedTargets())
	taken, ok := eng.TakePredictedTarget()
	require.True(t, ok)
	assert.Equal(t, got.ID, taken.ID)
	assert.Len(t, eng.QueuedTargets(), before-1)

	shutdown()

	stats := eng.Stats()
	assert.GreaterOrEqual(t, stats.Ticks, int64(15))
	assert.Greater(t, stats.PredictionsGenerated, int64(0))
	assert.Greater(t, stats.TargetsEnqueued, int64(0))

	mu.Lock()
	defer mu.Unlock()
	assert.NotEmpty(t, observed)
}

func TestEnginePublishesPatternAndPreference(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(testStart)
	eng, err := New(testConfig(clock), walkingPose(), steadyForm)
	require.NoError(t, err)

	drive, shutdown := startEngine(t, eng, clock)
	drive(15)

	// Steady sidesteps along +X while facing +Z.
	require.Eventually(t, func() bool {
		return eng.MovementPattern().Type == predict.PatternLateral
	}, 5*time.Second, 2*time.Millisecond)

	require.Eventually(t, func() bool {
		return eng.StancePreference().Preferred == motion.StanceOrthodox &&
			eng.StancePreference().ReachDistance > 0
	}, 5*time.Second, 2*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(eng.Trail().Samples) > 0
	}, 5*time.Second, 2*time.Millisecond)
	assert.NotEmpty(t, eng.RecentConfidences())

	shutdown()
}

func TestEngineGatesLowConfidence(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(testStart)
	cfg := testConfig(clock)
	cfg.ConfidenceThreshold = 0.99
	eng, err := New(cfg, erraticPose(), steadyForm)
	require.NoError(t, err)

	drive, shutdown := startEngine(t, eng, clock)
	drive(15)

	require.Eventually(t, func() bool {
		return eng.Stats().TargetsGated > 0
	}, 5*time.Second, 2*time.Millisecond)

	shutdown()

	stats := eng.Stats()
	assert.Greater(t, stats.PredictionsGenerated, int64(0))
	assert.Zero(t, stats.TargetsEnqueued)
	assert.Empty(t, eng.QueuedTargets())
}

func TestEngineRecordsHits(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(testStart)
	eng, err := New(testConfig(clock), walkingPose(), steadyForm)
	require.NoError(t, err)

	eng.RecordHit(target.HandRight, motion.Vec3{X: 1, Y: 1.5, Z: 2}, 0.9)
	eng.RecordHit(target.HandLeft, motion.Vec3{X: -1, Y: 1.4, Z: 2}, 0.7)

	drive, shutdown := startEngine(t, eng, clock)
	drive(3)
	shutdown()

	set := eng.Outcomes()
	require.Len(t, set, 2)
	assert.Equal(t, 0.9, set[0].Accuracy)
	assert.Equal(t, int64(2), eng.Stats().HitsRecorded)
	assert.Zero(t, eng.Stats().HitsDropped)
}

func TestEngineDropsHitsWhenBufferFull(t *testing.T) {
	t.Parallel()

	// Engine never runs, so nothing drains the buffer.
	eng, err := New(testConfig(timeutil.NewMockClock(testStart)), walkingPose(), steadyForm)
	require.NoError(t, err)
	defer eng.Close()

	for i := 0; i < hitBufferSize+5; i++ {
		eng.RecordHit(target.HandRight, motion.Vec3{}, 0.5)
	}
	assert.Equal(t, int64(5), eng.Stats().HitsDropped)
}

func TestEngineCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(testStart)
	eng, err := New(testConfig(clock), walkingPose(), steadyForm)
	require.NoError(t, err)

	drive, shutdown := startEngine(t, eng, clock)
	drive(5)
	shutdown()

	// A second Close is a no-op.
	eng.Close()
}

func TestEngineStanceChangeCallback(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(testStart)
	eng, err := New(testConfig(clock), walkingPose(), steadyForm)
	require.NoError(t, err)

	var updates atomic.Int64
	eng.OnStanceUpdate(func(stance.Preference) { updates.Add(1) })

	drive, shutdown := startEngine(t, eng, clock)
	drive(12)
	shutdown()

	// At minimum the first computation plus the periodic recompute.
	assert.GreaterOrEqual(t, updates.Load(), int64(2))
}
