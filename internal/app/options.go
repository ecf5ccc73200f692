package service

import (
	"github.com/okian/sailwind/internal/adapters/repository"
	"github.com/okian/sailwind/internal/config"
	"github.com/okian/sailwind/pkg/logger"
	"github.com/okian/sailwind/pkg/memguard"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the process configuration the pipeline components are
// built from.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore replaces the analysis run store.
func WithStore(store repository.Store[Analysis]) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithGuard replaces the memory guard.
func WithGuard(g *memguard.Guard) Option {
	return func(s *Service) {
		if g != nil {
			s.guard = g
		}
	}
}

// WithIDGenerator replaces the analysis id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}
