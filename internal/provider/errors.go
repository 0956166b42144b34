package provider

import (
	"errors"
	"fmt"
)

// Kind classifies provider failures so callers can decide retry vs abort.
type Kind string

const (
	// KindRateLimited maps provider 429 responses. The client retries
	// these internally before surfacing one.
	KindRateLimited Kind = "rate_limited"
	// KindUnavailable covers transport failures, 5xx responses and an
	// open circuit breaker with no usable cache.
	KindUnavailable Kind = "unavailable"
	// KindNotFound covers missing hotels, rates and order sessions.
	// Retrying these is pointless.
	KindNotFound Kind = "not_found"
	// KindSandbox marks test-key limitations. Treated as a soft success
	// upstream, never as a hard failure.
	KindSandbox Kind = "sandbox_restriction"
	// KindValidation is a bad request on our side; no provider call is
	// attempted once detected.
	KindValidation Kind = "validation"
	// KindTransient covers retryable provider hiccups, e.g. the
	// "no rates available yet" prebook race.
	KindTransient Kind = "transient"
)

// Error is the structured failure every gateway/provider call returns.
type Error struct {
	Kind     Kind
	Endpoint string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Endpoint, e.Kind, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("provider %s: %s: %s", e.Endpoint, e.Kind, e.Message)
	}
	return fmt.Sprintf("provider %s: %s", e.Endpoint, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a provider error for the given endpoint and kind.
func NewError(kind Kind, endpoint, message string) *Error {
	return &Error{Kind: kind, Endpoint: endpoint, Message: message}
}

// WrapError attaches a kind and endpoint to an underlying error.
func WrapError(kind Kind, endpoint string, err error) *Error {
	return &Error{Kind: kind, Endpoint: endpoint, Err: err}
}

// KindOf extracts the Kind from err, or KindUnavailable when err is not a
// provider error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnavailable
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == kind
}

// Retryable reports whether the caller may sensibly retry the operation.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindUnavailable, KindRateLimited, KindTransient:
		return true
	}
	return false
}
