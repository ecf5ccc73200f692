package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/okian/sailwind/pkg/metrics"
)

// RunStore is a bounded, insertion-ordered Store. When full, the oldest run
// is evicted.
type RunStore[T any] struct {
	mu    sync.RWMutex
	byID  map[string]Record[T]
	order []string // oldest first
	cfg   settings
}

var _ Store[struct{}] = (*RunStore[struct{}])(nil)

// NewRunStore constructs a run store with configuration options.
func NewRunStore[T any](opts ...Option) *RunStore[T] {
	cfg := settings{capacity: defaultCapacity, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	metrics.UpdateStoredRuns(0)
	return &RunStore[T]{
		byID:  make(map[string]Record[T], cfg.capacity),
		order: make([]string, 0, cfg.capacity),
		cfg:   cfg,
	}
}

// Capacity returns the maximum number of stored runs.
func (s *RunStore[T]) Capacity() int { return s.cfg.capacity }

// Put stores v under id.
func (s *RunStore[T]) Put(ctx context.Context, id string, v T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		metrics.RecordErrorByComponent("repository", "invalid_id")
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.byID[id]; ok {
		rec.Value = v
		s.byID[id] = rec
		return nil
	}
	for len(s.order) >= s.cfg.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.byID, oldest)
	}
	s.byID[id] = Record[T]{ID: id, CreatedAt: s.cfg.now().UTC(), Value: v}
	s.order = append(s.order, id)
	metrics.UpdateStoredRuns(len(s.order))
	return nil
}

// Get returns the run stored under id.
func (s *RunStore[T]) Get(ctx context.Context, id string) (Record[T], error) {
	if err := ctx.Err(); err != nil {
		return Record[T]{}, err
	}
	s.mu.RLock()
	rec, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Record[T]{}, ErrNotFound
	}
	return rec, nil
}

// Recent returns up to n runs, newest first.
func (s *RunStore[T]) Recent(ctx context.Context, n int) ([]Record[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n = min(n, len(s.order))
	out := make([]Record[T], 0, n)
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.byID[s.order[i]])
	}
	return out, nil
}

// Count returns the number of stored runs.
func (s *RunStore[T]) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
