package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrNotFound      = errors.New("not found")
	ErrTooLarge      = errors.New("request body too large")
	ErrUnsupported   = errors.New("unsupported media type")
	ErrUnavailable   = errors.New("service unavailable")
	ErrInternalError = errors.New("internal error")
)

// KindError tags an error with the operation that produced it and a
// sentinel kind that callers match with errors.Is.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

// Unwrap exposes both the kind and the cause.
func (e *KindError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error { return &KindError{Op: op, Kind: kind} }

// WrapKind returns err tagged with op and kind.
func WrapKind(op string, kind, err error) error { return &KindError{Op: op, Kind: kind, Err: err} }

// Wrap returns err tagged with op.
func Wrap(op string, err error) error { return &KindError{Op: op, Err: err} }
