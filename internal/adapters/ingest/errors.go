package ingest

import "errors"

// Sentinel errors for ingestion. Every error returned for a single file
// wraps one of these.
var (
	ErrNotSupported   = errors.New("format not supported")
	ErrMissingColumns = errors.New("required columns missing")
	ErrNoValidPoints  = errors.New("no valid points")
	ErrDecode         = errors.New("content could not be decoded")
	ErrInvalidSource  = errors.New("invalid source")
)
