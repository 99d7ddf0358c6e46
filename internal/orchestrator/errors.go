package orchestrator

import (
	"errors"
	"fmt"

	"github.com/kalambet/wingman/internal/genai"
)

// ErrMissingInput marks validation failures detected before any network
// call is made.
var ErrMissingInput = errors.New("missing required input")

// Hint tells the caller what kind of follow-up makes sense. Retry
// policy stays with the caller; nothing here retries.
type Hint string

const (
	HintInvalidInput Hint = "invalid_input"
	HintRetry        Hint = "retry"
	HintCheckConfig  Hint = "check_configuration"
	HintCanceled     Hint = "canceled"
)

// OrchestrationError is the single user-facing failure type. Its
// message is stable and never echoes raw model output or schema
// internals; the underlying cause stays reachable through Unwrap for
// logging.
type OrchestrationError struct {
	Op   string
	Hint Hint
	msg  string
	Err  error
}

func (e *OrchestrationError) Error() string { return e.msg }

func (e *OrchestrationError) Unwrap() error { return e.Err }

func invalidInput(op, msg string) *OrchestrationError {
	return &OrchestrationError{Op: op, Hint: HintInvalidInput, msg: msg, Err: ErrMissingInput}
}

func wrapGateway(op string, err error) *OrchestrationError {
	hint := HintRetry
	msg := "the assistant is temporarily unavailable, please try again"

	var ge *genai.GatewayError
	if errors.As(err, &ge) {
		switch ge.Kind {
		case genai.KindAuth:
			hint = HintCheckConfig
			msg = "the assistant rejected the configured credentials, check your API key"
		case genai.KindCanceled:
			hint = HintCanceled
			msg = "the request was cancelled"
		}
	}
	return &OrchestrationError{Op: op, Hint: hint, msg: msg, Err: err}
}

func wrapDecode(op string, err error) *OrchestrationError {
	return &OrchestrationError{
		Op:   op,
		Hint: HintRetry,
		msg:  "the assistant returned an unusable response, please try again",
		Err:  fmt.Errorf("decoding model output: %w", err),
	}
}
