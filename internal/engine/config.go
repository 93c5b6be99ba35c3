package engine

import (
	"math"

	"github.com/flowbox-vr/flowbox/internal/config"
	"github.com/flowbox-vr/flowbox/internal/predict"
	"github.com/flowbox-vr/flowbox/internal/target"
)

// ConfigFromTuning maps a loaded tuning file onto an engine Config. The
// returned config uses the real clock; tests override Clock afterwards.
func ConfigFromTuning(tc *config.TuningConfig) Config {
	cfg := DefaultConfig()

	cfg.TickInterval = tc.GetTickInterval()
	cfg.Workers = tc.GetWorkerCount()
	cfg.PositionHistoryCapacity = tc.GetPositionHistoryCapacity()
	cfg.StanceHistoryCapacity = tc.GetStanceHistoryCapacity()
	cfg.OutcomeCapacity = tc.GetOutcomeCapacity()
	cfg.ConfidenceThreshold = tc.GetConfidenceThreshold()
	cfg.ReachDistance = tc.GetReachDistance()
	cfg.NetworkLayerWidths = tc.GetNetworkLayerWidths()
	cfg.NetworkSeed = tc.GetNetworkSeed()
	cfg.OptimizerSeed = tc.GetOptimizerSeed()

	cfg.Predictor = predict.Config{
		ProcessNoise:      tc.GetProcessNoise(),
		MeasurementNoise:  tc.GetMeasurementNoise(),
		Horizon:           tc.GetPredictionHorizon(),
		ConsistencyWindow: tc.GetConsistencyWindow(),
	}

	cfg.Optimizer = target.OptimizerConfig{
		ComfortZoneRadius:   tc.GetComfortZoneRadius(),
		ChallengeZoneRadius: tc.GetChallengeZoneRadius(),
		HeightJitter:        tc.GetHeightJitter(),
		AngleOffset:         tc.GetStanceAngleOffsetDeg() * math.Pi / 180,
		FormTrainingBelow:   tc.GetFormTrainingBelow(),
		ChallengeAbove:      tc.GetChallengeAbove(),
		PowerWeight:         tc.GetPowerWeight(),
		OutcomeBiasWeight:   tc.GetOutcomeBiasWeight(),
	}

	return cfg
}
