// Package memguard runs a time-gated heap check and triggers reclamation
// when usage exceeds a threshold.
package memguard

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/okian/sailwind/pkg/logger"
	"github.com/okian/sailwind/pkg/metrics"
)

const (
	defaultThreshold = 1 << 30
	defaultInterval  = 30 * time.Second
)

// Guard checks heap usage at most once per interval.
type Guard struct {
	threshold uint64
	interval  time.Duration
	log       logger.Logger
	now       func() time.Time
	readStats func(*runtime.MemStats)
	reclaim   func()

	mu        sync.Mutex
	lastCheck time.Time
	reclaims  int
}

// Option configures a Guard.
type Option func(*Guard)

// WithThreshold sets the heap allocation above which reclamation runs.
func WithThreshold(bytes uint64) Option {
	return func(g *Guard) {
		if bytes > 0 {
			g.threshold = bytes
		}
	}
}

// WithInterval sets the minimum time between checks.
func WithInterval(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithLogger sets the logger used for reclamation notices.
func WithLogger(l logger.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.log = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		if now != nil {
			g.now = now
		}
	}
}

// WithStatsReader replaces runtime.ReadMemStats.
func WithStatsReader(read func(*runtime.MemStats)) Option {
	return func(g *Guard) {
		if read != nil {
			g.readStats = read
		}
	}
}

// WithReclaimer replaces debug.FreeOSMemory.
func WithReclaimer(fn func()) Option {
	return func(g *Guard) {
		if fn != nil {
			g.reclaim = fn
		}
	}
}

// New creates a Guard.
func New(opts ...Option) *Guard {
	g := &Guard{
		threshold: defaultThreshold,
		interval:  defaultInterval,
		log:       logger.Nop(),
		now:       time.Now,
		readStats: runtime.ReadMemStats,
		reclaim:   debug.FreeOSMemory,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check samples heap usage if the interval has elapsed since the last sample
// and reclaims when over threshold. It reports whether reclamation ran.
func (g *Guard) Check(ctx context.Context) bool {
	g.mu.Lock()
	now := g.now()
	if !g.lastCheck.IsZero() && now.Sub(g.lastCheck) < g.interval {
		g.mu.Unlock()
		return false
	}
	g.lastCheck = now
	g.mu.Unlock()

	var ms runtime.MemStats
	g.readStats(&ms)
	metrics.UpdateSystemMemoryUsage(ms.HeapAlloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if ms.HeapAlloc <= g.threshold {
		return false
	}

	g.log.Warn(ctx, "heap above threshold, reclaiming",
		logger.Int64("heap_alloc", int64(ms.HeapAlloc)),
		logger.Int64("threshold", int64(g.threshold)),
	)
	g.reclaim()
	metrics.RecordMemoryReclaim()

	g.mu.Lock()
	g.reclaims++
	g.mu.Unlock()
	return true
}

// Reclaims returns how many reclamation passes have run.
func (g *Guard) Reclaims() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reclaims
}

// Run calls Check every interval until ctx is done.
func (g *Guard) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Check(ctx)
		}
	}
}
