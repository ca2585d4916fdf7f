package seminar

import (
	"errors"
	"fmt"
)

// Precondition failures. These are returned before any adapter is called and
// are distinct from per-adapter failures, which are recorded in TurnResult.Err.
var (
	ErrNoAdapters     = errors.New("no adapters")
	ErrInvalidAdapter = errors.New("invalid adapter")
	ErrInvalidTimeout = errors.New("invalid timeout")
	ErrInvalidRounds  = errors.New("invalid rounds")
)

// ErrEmptyResponse is the cause of a BackendFailure when an adapter returned
// only whitespace.
var ErrEmptyResponse = errors.New("empty response")

type ErrorKind string

const (
	KindBackendFailure ErrorKind = "backend_failure"
	KindTimeout        ErrorKind = "timeout"
)

// TurnError describes why an adapter produced no text in a round.
type TurnError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *TurnError) Error() string {
	if e == nil {
		return ""
	}
	if e.Kind == KindTimeout {
		return "timeout"
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *TurnError) Unwrap() error { return e.cause }

// IsTimeout reports whether the unit was abandoned at its deadline.
func (e *TurnError) IsTimeout() bool {
	return e != nil && e.Kind == KindTimeout
}

func backendFailure(err error) *TurnError {
	return &TurnError{Kind: KindBackendFailure, Message: err.Error(), cause: err}
}

func timeoutError() *TurnError {
	return &TurnError{Kind: KindTimeout}
}

func emptyResponse() *TurnError {
	return &TurnError{Kind: KindBackendFailure, Message: ErrEmptyResponse.Error(), cause: ErrEmptyResponse}
}

func preconditionf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
