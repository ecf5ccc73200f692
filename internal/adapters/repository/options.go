package repository

import "time"

const defaultCapacity = 256

type settings struct {
	capacity int
	now      func() time.Time
}

// Option applies a configuration option to a RunStore.
type Option func(*settings)

// WithCapacity bounds the number of stored runs.
func WithCapacity(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}
