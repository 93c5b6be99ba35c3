package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TuningConfig holds every tunable parameter of the predictive targeting
// engine. All fields are pointers so a partial JSON file only overrides the
// values it names; the Get* accessors supply documented defaults for the
// rest. The constants were lifted out of the original implementation, where
// they lived as inline literals without a derivation — treat them as starting
// points for tuning, not ground truth.
type TuningConfig struct {
	// History capacities
	PositionHistoryCapacity *int `json:"position_history_capacity,omitempty"`
	StanceHistoryCapacity   *int `json:"stance_history_capacity,omitempty"`
	OutcomeCapacity         *int `json:"outcome_capacity,omitempty"`

	// Movement predictor params
	ProcessNoise      *float64 `json:"process_noise,omitempty"`
	MeasurementNoise  *float64 `json:"measurement_noise,omitempty"`
	PredictionHorizon *string  `json:"prediction_horizon,omitempty"` // duration string like "2s"

	// Confidence gate params
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
	ConsistencyWindow   *int     `json:"consistency_window,omitempty"`

	// Target optimizer params
	ComfortZoneRadius    *float64 `json:"comfort_zone_radius,omitempty"`
	ChallengeZoneRadius  *float64 `json:"challenge_zone_radius,omitempty"`
	HeightJitter         *float64 `json:"height_jitter,omitempty"`
	StanceAngleOffsetDeg *float64 `json:"stance_angle_offset_deg,omitempty"`
	FormTrainingBelow    *float64 `json:"form_training_below,omitempty"`
	ChallengeAbove       *float64 `json:"challenge_above,omitempty"`
	PowerWeight          *float64 `json:"power_weight,omitempty"`
	OutcomeBiasWeight    *float64 `json:"outcome_bias_weight,omitempty"`
	OptimizerSeed        *int64   `json:"optimizer_seed,omitempty"`

	// Stance classifier params
	NetworkLayerWidths []int  `json:"network_layer_widths,omitempty"`
	NetworkSeed        *int64 `json:"network_seed,omitempty"`
	ReachDistance      *float64 `json:"reach_distance,omitempty"`

	// Scheduler params
	TickInterval *string `json:"tick_interval,omitempty"` // duration string like "100ms"
	WorkerCount  *int    `json:"worker_count,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset. The Get*
// accessors supply defaults, so an empty config is fully usable.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted from
// the JSON retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are sane.
func (c *TuningConfig) Validate() error {
	if c.ConfidenceThreshold != nil {
		if *c.ConfidenceThreshold < 0 || *c.ConfidenceThreshold > 1 {
			return fmt.Errorf("confidence_threshold must be between 0 and 1, got %f", *c.ConfidenceThreshold)
		}
	}

	if c.PositionHistoryCapacity != nil && *c.PositionHistoryCapacity < 2 {
		return fmt.Errorf("position_history_capacity must be at least 2, got %d", *c.PositionHistoryCapacity)
	}
	if c.StanceHistoryCapacity != nil && *c.StanceHistoryCapacity < 1 {
		return fmt.Errorf("stance_history_capacity must be at least 1, got %d", *c.StanceHistoryCapacity)
	}
	if c.OutcomeCapacity != nil && *c.OutcomeCapacity < 1 {
		return fmt.Errorf("outcome_capacity must be at least 1, got %d", *c.OutcomeCapacity)
	}

	if c.ComfortZoneRadius != nil && c.ChallengeZoneRadius != nil {
		if *c.ComfortZoneRadius > *c.ChallengeZoneRadius {
			return fmt.Errorf("comfort_zone_radius (%f) must not exceed challenge_zone_radius (%f)",
				*c.ComfortZoneRadius, *c.ChallengeZoneRadius)
		}
	}

	if c.PredictionHorizon != nil && *c.PredictionHorizon != "" {
		if _, err := time.ParseDuration(*c.PredictionHorizon); err != nil {
			return fmt.Errorf("invalid prediction_horizon '%s': %w", *c.PredictionHorizon, err)
		}
	}

	if c.TickInterval != nil && *c.TickInterval != "" {
		if _, err := time.ParseDuration(*c.TickInterval); err != nil {
			return fmt.Errorf("invalid tick_interval '%s': %w", *c.TickInterval, err)
		}
	}

	if c.WorkerCount != nil && *c.WorkerCount < 1 {
		return fmt.Errorf("worker_count must be at least 1, got %d", *c.WorkerCount)
	}

	if len(c.NetworkLayerWidths) > 0 {
		if len(c.NetworkLayerWidths) < 2 {
			return fmt.Errorf("network_layer_widths needs at least input and output widths, got %v", c.NetworkLayerWidths)
		}
		for _, w := range c.NetworkLayerWidths {
			if w < 1 {
				return fmt.Errorf("network_layer_widths must all be positive, got %v", c.NetworkLayerWidths)
			}
		}
	}

	return nil
}

// GetPositionHistoryCapacity returns the position/yaw ring capacity.
func (c *TuningConfig) GetPositionHistoryCapacity() int {
	if c.PositionHistoryCapacity == nil {
		return 100
	}
	return *c.PositionHistoryCapacity
}

// GetStanceHistoryCapacity returns the stance ring capacity.
func (c *TuningConfig) GetStanceHistoryCapacity() int {
	if c.StanceHistoryCapacity == nil {
		return 50
	}
	return *c.StanceHistoryCapacity
}

// GetOutcomeCapacity returns the outcome feedback ring capacity.
func (c *TuningConfig) GetOutcomeCapacity() int {
	if c.OutcomeCapacity == nil {
		return 200
	}
	return *c.OutcomeCapacity
}

// GetProcessNoise returns the per-axis filter process noise variance.
func (c *TuningConfig) GetProcessNoise() float64 {
	if c.ProcessNoise == nil {
		return 0.01
	}
	return *c.ProcessNoise
}

// GetMeasurementNoise returns the per-axis filter measurement noise variance.
func (c *TuningConfig) GetMeasurementNoise() float64 {
	if c.MeasurementNoise == nil {
		return 0.1
	}
	return *c.MeasurementNoise
}

// GetPredictionHorizon parses and returns the extrapolation horizon.
func (c *TuningConfig) GetPredictionHorizon() time.Duration {
	if c.PredictionHorizon == nil || *c.PredictionHorizon == "" {
		return 2 * time.Second
	}
	d, err := time.ParseDuration(*c.PredictionHorizon)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// GetConfidenceThreshold returns the gate admission threshold.
func (c *TuningConfig) GetConfidenceThreshold() float64 {
	if c.ConfidenceThreshold == nil {
		return 0.7
	}
	return *c.ConfidenceThreshold
}

// GetConsistencyWindow returns how many trailing samples feed the
// movement-consistency term of the confidence score.
func (c *TuningConfig) GetConsistencyWindow() int {
	if c.ConsistencyWindow == nil {
		return 10
	}
	return *c.ConsistencyWindow
}

// GetComfortZoneRadius returns the inner target placement radius.
func (c *TuningConfig) GetComfortZoneRadius() float64 {
	if c.ComfortZoneRadius == nil {
		return 1.2
	}
	return *c.ComfortZoneRadius
}

// GetChallengeZoneRadius returns the outer target placement radius.
func (c *TuningConfig) GetChallengeZoneRadius() float64 {
	if c.ChallengeZoneRadius == nil {
		return 2.0
	}
	return *c.ChallengeZoneRadius
}

// GetHeightJitter returns the bound of the uniform height offset applied to
// candidate targets.
func (c *TuningConfig) GetHeightJitter() float64 {
	if c.HeightJitter == nil {
		return 0.25
	}
	return *c.HeightJitter
}

// GetStanceAngleOffsetDeg returns the lateral angle offset applied per
// stance: +offset for orthodox, -offset for southpaw.
func (c *TuningConfig) GetStanceAngleOffsetDeg() float64 {
	if c.StanceAngleOffsetDeg == nil {
		return 45.0
	}
	return *c.StanceAngleOffsetDeg
}

// GetFormTrainingBelow returns the form-quality floor under which targets
// switch to form training.
func (c *TuningConfig) GetFormTrainingBelow() float64 {
	if c.FormTrainingBelow == nil {
		return 0.6
	}
	return *c.FormTrainingBelow
}

// GetChallengeAbove returns the form-quality ceiling above which targets
// switch to challenge placement.
func (c *TuningConfig) GetChallengeAbove() float64 {
	if c.ChallengeAbove == nil {
		return 0.9
	}
	return *c.ChallengeAbove
}

// GetPowerWeight returns the probability of a power-development target in
// the mid-quality band.
func (c *TuningConfig) GetPowerWeight() float64 {
	if c.PowerWeight == nil {
		return 0.3
	}
	return *c.PowerWeight
}

// GetOutcomeBiasWeight returns how strongly the outcome centroid pulls
// candidate targets toward previously successful hit regions.
func (c *TuningConfig) GetOutcomeBiasWeight() float64 {
	if c.OutcomeBiasWeight == nil {
		return 0.15
	}
	return *c.OutcomeBiasWeight
}

// GetOptimizerSeed returns the seed for the optimizer's random draws.
func (c *TuningConfig) GetOptimizerSeed() int64 {
	if c.OptimizerSeed == nil {
		return 1
	}
	return *c.OptimizerSeed
}

// GetNetworkLayerWidths returns the feed-forward classifier layer widths.
func (c *TuningConfig) GetNetworkLayerWidths() []int {
	if len(c.NetworkLayerWidths) == 0 {
		return []int{6, 12, 8, 2}
	}
	return c.NetworkLayerWidths
}

// GetNetworkSeed returns the seed for classifier weight initialisation.
func (c *TuningConfig) GetNetworkSeed() int64 {
	if c.NetworkSeed == nil {
		return 42
	}
	return *c.NetworkSeed
}

// GetReachDistance returns the assumed player reach used for stance
// preference zones.
func (c *TuningConfig) GetReachDistance() float64 {
	if c.ReachDistance == nil {
		return 0.75
	}
	return *c.ReachDistance
}

// GetTickInterval parses and returns the scheduler cadence.
func (c *TuningConfig) GetTickInterval() time.Duration {
	if c.TickInterval == nil || *c.TickInterval == "" {
		return 100 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.TickInterval)
	if err != nil {
		return 100 * time.Millisecond
	}
	return d
}

// GetWorkerCount returns the size of the parallel task pool.
func (c *TuningConfig) GetWorkerCount() int {
	if c.WorkerCount == nil {
		return 2
	}
	return *c.WorkerCount
}
