package estimator

import "errors"

// Non-fatal conditions. Estimate returns them with an empty Result so the
// caller can record why a vessel contributed nothing.
var (
	ErrInsufficientPoints = errors.New("insufficient points for wind estimation")
	ErrNoTacks            = errors.New("no tacks or jibes detected")
)
