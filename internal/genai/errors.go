package genai

import (
	"context"
	"errors"
	"fmt"
)

// ErrKind classifies gateway failures so callers can tell a "try again"
// condition from a "check configuration" one.
type ErrKind string

const (
	KindAuth      ErrKind = "auth"
	KindTimeout   ErrKind = "timeout"
	KindCanceled  ErrKind = "canceled"
	KindTransport ErrKind = "transport"
)

// GatewayError is the single failure type surfaced by the gateway.
// Unreachable provider, bad credentials, timeouts, and mid-stream
// transport errors all arrive here; the gateway never retries.
type GatewayError struct {
	Kind ErrKind
	Err  error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("model gateway %s error: %v", e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Transient reports whether retrying the call may help. Auth failures
// and cancellations are not transient.
func (e *GatewayError) Transient() bool {
	return e.Kind == KindTimeout || e.Kind == KindTransport
}

// classify wraps err as a GatewayError, mapping context errors to their
// dedicated kinds.
func classify(err error) *GatewayError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &GatewayError{Kind: KindTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return &GatewayError{Kind: KindCanceled, Err: err}
	default:
		return &GatewayError{Kind: KindTransport, Err: err}
	}
}
