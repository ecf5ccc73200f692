package estimator

import (
	"github.com/okian/sailwind/internal/domain/polar"
	"github.com/okian/sailwind/pkg/logger"
)

// Default estimation parameters.
const (
	defaultTackAngle      = 30.0
	defaultSmoothingAlpha = 0.3
	defaultMinPoints      = 20
	defaultChunkSize      = 20_000
	defaultMinWindow      = 20
)

// Options controls one estimation pass.
type Options struct {
	// TackAngle is the summed heading change, in degrees, that marks a maneuver.
	TackAngle float64
	// VesselType selects the polar profile.
	VesselType string
	// UseSmoothing blends each estimate with the previous one.
	UseSmoothing bool
	// SmoothingAlpha is the weight of the new estimate when smoothing.
	SmoothingAlpha float64
	// MinPoints is the smallest track that is estimated.
	MinPoints int
	// ChunkSize splits long tracks into independently estimated chunks.
	ChunkSize int
	// MinWindow is the smallest estimation window in points.
	MinWindow int
}

// DefaultOptions returns the stock estimation parameters.
func DefaultOptions() Options {
	return Options{
		TackAngle:      defaultTackAngle,
		VesselType:     polar.DefaultClass,
		UseSmoothing:   true,
		SmoothingAlpha: defaultSmoothingAlpha,
		MinPoints:      defaultMinPoints,
		ChunkSize:      defaultChunkSize,
		MinWindow:      defaultMinWindow,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TackAngle <= 0 {
		o.TackAngle = d.TackAngle
	}
	if o.VesselType == "" {
		o.VesselType = d.VesselType
	}
	if o.SmoothingAlpha <= 0 || o.SmoothingAlpha > 1 {
		o.SmoothingAlpha = d.SmoothingAlpha
	}
	if o.MinPoints < 2 {
		o.MinPoints = d.MinPoints
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = d.ChunkSize
	}
	if o.MinWindow < 2 {
		o.MinWindow = d.MinWindow
	}
	return o
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithLogger sets the logger used for non-fatal conditions.
func WithLogger(l logger.Logger) Option {
	return func(e *Estimator) {
		if l != nil {
			e.log = l
		}
	}
}
