package strategy

import (
	"time"

	"github.com/okian/sailwind/internal/domain/scoring"
	"github.com/okian/sailwind/pkg/logger"
)

// Config holds the detector parameters. It is never mutated during a call.
type Config struct {
	// MinShiftAngle is the smallest direction change reported as a shift.
	MinShiftAngle float64
	// MaxReferenceAngle is the shift angle at which the angle weight saturates.
	MaxReferenceAngle float64
	// AngleBlendBase and AngleBlendWeight blend the angle weight into the
	// shift probability: p = raw * (base + weight*angleWeight).
	AngleBlendBase   float64
	AngleBlendWeight float64
	// ShiftConfidenceThreshold drops shifts whose final probability is lower.
	ShiftConfidenceThreshold float64
	// Horizon and Step define the forecast scan; a zero Horizon disables it.
	Horizon time.Duration
	Step    time.Duration
	// DecayRate discounts forecast detections: 1 - (t/Horizon)*DecayRate.
	DecayRate float64

	TackSearchRadiusM float64
	MinVMGImprovement float64
	TackEfficiency    float64
	MinMarkDistanceM  float64
}

// DefaultConfig returns the stock detector parameters.
func DefaultConfig() Config {
	return Config{
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
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxReferenceAngle <= 0 {
		c.MaxReferenceAngle = def.MaxReferenceAngle
	}
	if c.AngleBlendBase == 0 && c.AngleBlendWeight == 0 {
		c.AngleBlendBase, c.AngleBlendWeight = def.AngleBlendBase, def.AngleBlendWeight
	}
	if c.Step <= 0 {
		c.Step = def.Step
	}
	if c.Horizon < 0 {
		c.Horizon = 0
	}
	if c.TackSearchRadiusM <= 0 {
		c.TackSearchRadiusM = def.TackSearchRadiusM
	}
	if c.TackEfficiency <= 0 || c.TackEfficiency > 1 {
		c.TackEfficiency = def.TackEfficiency
	}
	return c
}

// Option configures a Detector.
type Option func(*Detector)

// WithConfig replaces the detector parameters.
func WithConfig(c Config) Option {
	return func(d *Detector) {
		d.cfg = c.withDefaults()
	}
}

// WithVMGModel enables tack and layline detection.
func WithVMGModel(m VMGModel) Option {
	return func(d *Detector) {
		d.vmg = m
	}
}

// WithForecaster enables the forecast scan and arrival-wind lookups.
func WithForecaster(f Forecaster) Option {
	return func(d *Detector) {
		d.forecaster = f
	}
}

// WithScorer sets the strategic scorer.
func WithScorer(s *scoring.Scorer) Option {
	return func(d *Detector) {
		if s != nil {
			d.scorer = s
		}
	}
}

// WithLogger sets the detector logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.log = l
		}
	}
}

// CallOption overrides parameters for a single Detect call. It is applied to
// a copy of the detector configuration.
type CallOption func(*Config)

// WithMinShiftAngle overrides the minimum shift angle.
func WithMinShiftAngle(deg float64) CallOption {
	return func(c *Config) { c.MinShiftAngle = deg }
}

// WithShiftThreshold overrides the final shift probability threshold.
func WithShiftThreshold(p float64) CallOption {
	return func(c *Config) { c.ShiftConfidenceThreshold = p }
}

// WithHorizon overrides the forecast horizon and step.
func WithHorizon(horizon, step time.Duration) CallOption {
	return func(c *Config) {
		c.Horizon = horizon
		if step > 0 {
			c.Step = step
		}
	}
}

// WithDecayRate overrides the forecast decay rate.
func WithDecayRate(rate float64) CallOption {
	return func(c *Config) { c.DecayRate = rate }
}
