package fusion

import (
	"time"

	"github.com/okian/sailwind/pkg/logger"
)

// Decay kinds.
const (
	DecayLinear      = "linear"
	DecayExponential = "exponential"
)

// Config controls interpolation, forecasting and history use.
type Config struct {
	GridResolution    int
	TimeWindow        time.Duration
	InfluenceRadiusM  float64
	ForecastEnabled   bool
	DecayKind         string
	DecayRate         float64
	DecayHorizon      time.Duration
	PropagationFactor float64
	UseHistory        bool
	MaxHistory        int
	HistoryWeight     float64
}

// DefaultConfig returns the stock fusion parameters.
func DefaultConfig() Config {
	return Config{
		GridResolution:    20,
		TimeWindow:        30 * time.Minute,
		InfluenceRadiusM:  500,
		ForecastEnabled:   true,
		DecayKind:         DecayLinear,
		DecayRate:         0.5,
		DecayHorizon:      30 * time.Minute,
		PropagationFactor: 0.6,
		MaxHistory:        10,
		HistoryWeight:     0.3,
	}
}

// Option configures a Fuser.
type Option func(*Fuser)

// WithConfig replaces the fusion parameters. Zero values keep defaults.
func WithConfig(c Config) Option {
	return func(f *Fuser) {
		d := DefaultConfig()
		if c.GridResolution <= 0 {
			c.GridResolution = d.GridResolution
		}
		if c.TimeWindow <= 0 {
			c.TimeWindow = d.TimeWindow
		}
		if c.InfluenceRadiusM <= 0 {
			c.InfluenceRadiusM = d.InfluenceRadiusM
		}
		if c.DecayKind == "" {
			c.DecayKind = d.DecayKind
		}
		if c.DecayHorizon <= 0 {
			c.DecayHorizon = d.DecayHorizon
		}
		if c.MaxHistory <= 0 {
			c.MaxHistory = d.MaxHistory
		}
		f.cfg = c
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Fuser) {
		if l != nil {
			f.log = l
		}
	}
}
