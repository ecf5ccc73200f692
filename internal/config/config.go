// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a fully populated Config with defaults.
// - Load layers a YAML file and environment variables on top of New.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format" validate:"omitempty,oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// MaxBodyBytes caps POST /v1/analyses request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes" validate:"gt=0"`

	Ingest    Ingest    `koanf:"ingest"`
	Estimator Estimator `koanf:"estimator"`
	Fusion    Fusion    `koanf:"fusion"`
	Strategy  Strategy  `koanf:"strategy"`
	Scoring   Scoring   `koanf:"scoring"`
	Memory    Memory    `koanf:"memory"`
	Runs      Runs      `koanf:"runs"`
}

// Ingest configures the track ingestor.
type Ingest struct {
	// Parallel loads multi-file batches on the worker pool.
	Parallel bool `koanf:"parallel"`
	// Workers bounds the ingest worker pool.
	Workers int `koanf:"workers" validate:"gte=1"`
	// MaxFiles caps files per batch; extra files are skipped.
	MaxFiles int `koanf:"max_files" validate:"gte=1"`
	// MinPoints is the smallest track kept after normalization.
	MinPoints int `koanf:"min_points" validate:"gte=1"`
	// DownsampleThreshold is the point count above which tracks are decimated.
	DownsampleThreshold int `koanf:"downsample_threshold" validate:"gte=1"`
	// DownsampleRatio is the fraction of points to keep, in (0,1].
	DownsampleRatio float64 `koanf:"downsample_ratio" validate:"gt=0,lte=1"`
	// ChunkSize is the number of points normalized per chunk.
	ChunkSize int `koanf:"chunk_size" validate:"gte=1"`
	// GCEveryChunks triggers a reclamation pass after this many chunks; 0 disables it.
	GCEveryChunks int `koanf:"gc_every_chunks" validate:"gte=0"`
}

// Estimator configures the per-vessel wind estimator.
type Estimator struct {
	TackAngle      float64 `koanf:"tack_angle" validate:"gt=0,lt=180"`
	VesselType     string  `koanf:"vessel_type"`
	UseSmoothing   bool    `koanf:"use_smoothing"`
	SmoothingAlpha float64 `koanf:"smoothing_alpha" validate:"gte=0,lte=1"`
	MinPoints      int     `koanf:"min_points" validate:"gte=2"`
	ChunkSize      int     `koanf:"chunk_size" validate:"gte=1"`
	MinWindow      int     `koanf:"min_window" validate:"gte=2"`
}

// Fusion configures wind field interpolation and forecasting.
type Fusion struct {
	GridResolution    int           `koanf:"grid_resolution" validate:"gte=1,lte=200"`
	TimeWindow        time.Duration `koanf:"time_window" validate:"gt=0"`
	InfluenceRadiusM  float64       `koanf:"influence_radius_m" validate:"gt=0"`
	ForecastEnabled   bool          `koanf:"forecast_enabled"`
	DecayKind         string        `koanf:"decay_kind" validate:"oneof=linear exponential"`
	DecayRate         float64       `koanf:"decay_rate" validate:"gte=0"`
	DecayHorizon      time.Duration `koanf:"decay_horizon" validate:"gt=0"`
	PropagationFactor float64       `koanf:"propagation_factor" validate:"gte=0"`
	UseHistory        bool          `koanf:"use_history"`
	MaxHistory        int           `koanf:"max_history" validate:"gte=1"`
	HistoryWeight     float64       `koanf:"history_weight" validate:"gte=0,lte=1"`
}

// Strategy configures the strategy point detector.
type Strategy struct {
	MinShiftAngle            float64       `koanf:"min_shift_angle" validate:"gte=0"`
	MaxReferenceAngle        float64       `koanf:"max_reference_angle" validate:"gt=0"`
	AngleBlendBase           float64       `koanf:"angle_blend_base" validate:"gte=0,lte=1"`
	AngleBlendWeight         float64       `koanf:"angle_blend_weight" validate:"gte=0,lte=1"`
	ShiftConfidenceThreshold float64       `koanf:"shift_confidence_threshold" validate:"gte=0,lte=1"`
	Horizon                  time.Duration `koanf:"horizon" validate:"gte=0"`
	Step                     time.Duration `koanf:"step" validate:"gt=0"`
	DecayRate                float64       `koanf:"decay_rate" validate:"gte=0,lte=1"`
	TackSearchRadiusM        float64       `koanf:"tack_search_radius_m" validate:"gt=0"`
	MinVMGImprovement        float64       `koanf:"min_vmg_improvement" validate:"gte=0"`
	TackEfficiency           float64       `koanf:"tack_efficiency" validate:"gt=0,lte=1"`
	MinMarkDistanceM         float64       `koanf:"min_mark_distance_m" validate:"gte=0"`
}

// Scoring configures strategic scoring constants.
type Scoring struct {
	Base                 float64 `koanf:"base" validate:"gte=0,lte=1"`
	HighVariability      float64 `koanf:"high_variability" validate:"gte=0,lte=1"`
	LowConfidence        float64 `koanf:"low_confidence" validate:"gte=0,lte=1"`
	SpeedChangeBump      float64 `koanf:"speed_change_bump" validate:"gte=0,lte=1"`
	SpeedChangeThreshold float64 `koanf:"speed_change_threshold" validate:"gte=0"`
}

// Memory configures the advisory memory guard.
type Memory struct {
	ThresholdBytes uint64        `koanf:"threshold_bytes" validate:"gt=0"`
	CheckInterval  time.Duration `koanf:"check_interval" validate:"gt=0"`
}

// Runs configures the analysis run store.
type Runs struct {
	Capacity int `koanf:"capacity" validate:"gte=1"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    "text",
		Addr:         ":9080",
		MaxBodyBytes: 64 << 20,
		Ingest: Ingest{
			Parallel:            true,
			Workers:             runtime.NumCPU(),
			MaxFiles:            80,
			MinPoints:           2,
			DownsampleThreshold: 200_000,
			DownsampleRatio:     0.5,
			ChunkSize:           10_000,
			GCEveryChunks:       10,
		},
		Estimator: Estimator{
			TackAngle:      30,
			VesselType:     "default",
			UseSmoothing:   true,
			SmoothingAlpha: 0.3,
			MinPoints:      20,
			ChunkSize:      20_000,
			MinWindow:      20,
		},
		Fusion: Fusion{
			GridResolution:    20,
			TimeWindow:        30 * time.Minute,
			InfluenceRadiusM:  500,
			ForecastEnabled:   true,
			DecayKind:         "linear",
			DecayRate:         0.5,
			DecayHorizon:      30 * time.Minute,
			PropagationFactor: 0.6,
			UseHistory:        false,
			MaxHistory:        10,
			HistoryWeight:     0.3,
		},
		Strategy: Strategy{
			MinShiftAngle:            5,
			MaxReferenceAngle:        30,
			AngleBlendBase:           0.5,
			AngleBlendWeight:         0.5,
			ShiftConfidenceThreshold: 0.3,
			Horizon:                  30 * time.Minute,
			Step:                     5 * time.Minute,
			DecayRate:                0.5,
			TackSearchRadiusM:        500,
			MinVMGImprovement:        0.05,
			TackEfficiency:           0.8,
			MinMarkDistanceM:         100,
		},
		Scoring: Scoring{
			Base:                 0.5,
			HighVariability:      0.3,
			LowConfidence:        0.4,
			SpeedChangeBump:      0.1,
			SpeedChangeThreshold: 5,
		},
		Memory: Memory{
			ThresholdBytes: 1 << 30,
			CheckInterval:  30 * time.Second,
		},
		Runs: Runs{
			Capacity: 256,
		},
	}
}
