package scoring

// Config holds the scoring constants. Zero fields fall back to defaults.
type Config struct {
	// Base is the score of an unremarkable maneuver.
	Base float64
	// HighVariability is the wind variability above which a tack is favoured.
	HighVariability float64
	// LowConfidence is the wind confidence below which a tack is discounted.
	LowConfidence float64
	// SpeedChangeBump is added to a shift score when the wind speed also changes.
	SpeedChangeBump float64
	// SpeedChangeThreshold is the speed change (knots) that earns the bump.
	SpeedChangeThreshold float64
}

// DefaultConfig returns the built-in scoring constants.
func DefaultConfig() Config {
	return Config{
		Base:                 0.5,
		HighVariability:      0.3,
		LowConfidence:        0.4,
		SpeedChangeBump:      0.1,
		SpeedChangeThreshold: 5,
	}
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithConfig overrides the scoring constants.
func WithConfig(cfg Config) Option {
	return func(s *Scorer) {
		def := DefaultConfig()
		if cfg.Base <= 0 {
			cfg.Base = def.Base
		}
		if cfg.HighVariability <= 0 {
			cfg.HighVariability = def.HighVariability
		}
		if cfg.LowConfidence <= 0 {
			cfg.LowConfidence = def.LowConfidence
		}
		if cfg.SpeedChangeBump < 0 {
			cfg.SpeedChangeBump = def.SpeedChangeBump
		}
		if cfg.SpeedChangeThreshold <= 0 {
			cfg.SpeedChangeThreshold = def.SpeedChangeThreshold
		}
		s.cfg = cfg
	}
}
