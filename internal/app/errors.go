package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrInvalidRequest = errors.New("invalid analysis request")
	ErrNotFound       = errors.New("analysis not found")
)
