package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/flowbox-vr/flowbox/internal/config"
)

func TestConfigFromTuning(t *testing.T) {
	t.Parallel()

	t.Run("empty tuning mirrors defaults", func(t *testing.T) {
		t.Parallel()
		cfg := ConfigFromTuning(config.EmptyTuningConfig())
		def := DefaultConfig()

		assert.Equal(t, def.TickInterval, cfg.TickInterval)
		assert.Equal(t, def.Workers, cfg.Workers)
		assert.Equal(t, def.PositionHistoryCapacity, cfg.PositionHistoryCapacity)
		assert.Equal(t, def.ConfidenceThreshold, cfg.ConfidenceThreshold)
		assert.Equal(t, def.Predictor, cfg.Predictor)
		assert.Equal(t, def.Optimizer.ComfortZoneRadius, cfg.Optimizer.ComfortZoneRadius)
		assert.InDelta(t, 45*math.Pi/180, cfg.Optimizer.AngleOffset, 1e-12)
	})

	t.Run("overrides flow through", func(t *testing.T) {
		t.Parallel()
		threshold := 0.85
		interval := "50ms"
		horizon := "1500ms"
		workers := 4
		angle := 30.0
		tc := &config.TuningConfig{
			ConfidenceThreshold:  &threshold,
			TickInterval:         &interval,
			PredictionHorizon:    &horizon,
			WorkerCount:          &workers,
			StanceAngleOffsetDeg: &angle,
		}

		cfg := ConfigFromTuning(tc)
		assert.Equal(t, 0.85, cfg.ConfidenceThreshold)
		assert.Equal(t, 50*time.Millisecond, cfg.TickInterval)
		assert.Equal(t, 1500*time.Millisecond, cfg.Predictor.Horizon)
		assert.Equal(t, 4, cfg.Workers)
		assert.InDelta(t, 30*math.Pi/180, cfg.Optimizer.AngleOffset, 1e-12)
	})
}
