package ingest

import (
	"context"
	"runtime"

	"github.com/okian/sailwind/pkg/logger"
)

// Config controls loading.
type Config struct {
	// Parallel enables the worker pool for multi-file batches.
	Parallel bool
	// Workers bounds the pool size.
	Workers int
	// MaxFiles caps a batch; later sources are skipped with reason "limit".
	MaxFiles int
	// MinPoints is the smallest track kept.
	MinPoints int
	// DownsampleThreshold is the point count above which a track is decimated.
	DownsampleThreshold int
	// DownsampleRatio is the fraction of points kept when decimating.
	DownsampleRatio float64
	// ChunkSize is the normalization chunk length.
	ChunkSize int
	// GCEveryChunks is the chunk cadence of memory checks.
	GCEveryChunks int
	// MaxDecompressedBytes bounds inflated .gz / .zst content.
	MaxDecompressedBytes int64
}

// DefaultConfig returns the stock loading parameters.
func DefaultConfig() Config {
	return Config{
		Parallel:             true,
		Workers:              runtime.NumCPU(),
		MaxFiles:             80,
		MinPoints:            2,
		DownsampleThreshold:  200_000,
		DownsampleRatio:      0.5,
		ChunkSize:            10_000,
		GCEveryChunks:        10,
		MaxDecompressedBytes: 512 << 20,
	}
}

// Checker is the memory guard consulted during chunked normalization.
type Checker interface {
	Check(ctx context.Context) bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithConfig replaces the loading parameters. Non-positive values keep the
// defaults.
func WithConfig(c Config) Option {
	return func(l *Loader) {
		def := DefaultConfig()
		if c.Workers <= 0 {
			c.Workers = def.Workers
		}
		if c.MinPoints <= 0 {
			c.MinPoints = def.MinPoints
		}
		if c.DownsampleRatio <= 0 || c.DownsampleRatio >= 1 {
			c.DownsampleRatio = def.DownsampleRatio
		}
		if c.ChunkSize <= 0 {
			c.ChunkSize = def.ChunkSize
		}
		if c.MaxDecompressedBytes <= 0 {
			c.MaxDecompressedBytes = def.MaxDecompressedBytes
		}
		l.cfg = c
	}
}

// WithLogger sets the loader logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loader) {
		if lg != nil {
			l.log = lg
		}
	}
}

// WithGuard sets the memory guard checked every GCEveryChunks chunks.
func WithGuard(g Checker) Option {
	return func(l *Loader) {
		l.guard = g
	}
}
