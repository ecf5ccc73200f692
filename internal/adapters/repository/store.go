// Package repository keeps completed analysis runs in memory.
package repository

import (
	"context"
	"time"
)

// Record is a stored run.
type Record[T any] struct {
	ID        string
	CreatedAt time.Time
	Value     T
}

// Store provides read/write access to analysis runs.
type Store[T any] interface {
	// Put stores v under id, evicting the oldest run when the store is full.
	// Putting an existing id replaces the value and keeps its position.
	Put(ctx context.Context, id string, v T) error

	// Get returns the run stored under id.
	// Returns ErrNotFound if the id is unknown or was evicted.
	Get(ctx context.Context, id string) (Record[T], error)

	// Recent returns up to n runs, newest first.
	Recent(ctx context.Context, n int) ([]Record[T], error)

	// Count returns the number of stored runs.
	Count(ctx context.Context) int
}
