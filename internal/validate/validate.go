// Package validate rejects malformed requests before any resource is
// allocated for them.
package validate

import (
	"fmt"
	"unicode/utf8"

	"github.com/codeclass/engine/api"
	"github.com/codeclass/engine/internal/profile"
)

// ValidationError describes why a request was rejected. It never reaches
// the sandbox layer.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// Request checks all bounds on req and normalizes the timeout in place.
// maxTimeoutSeconds is the configured upper bound for client timeouts.
func Request(req *api.ExecRequest, table *profile.Table, maxTimeoutSeconds int) *ValidationError {
	if req.Code == "" {
		return &ValidationError{Field: "code", Reason: "must not be empty"}
	}
	// the bounds are in characters, not bytes
	if utf8.RuneCountInString(req.Code) > api.MaxCodeLength {
		return &ValidationError{
			Field:  "code",
			Reason: fmt.Sprintf("exceeds maximum length of %d characters", api.MaxCodeLength),
		}
	}
	if req.Language == "" {
		return &ValidationError{Field: "language", Reason: "must be set"}
	}
	if _, err := table.Get(req.Language); err != nil {
		return &ValidationError{Field: "language", Reason: err.Error()}
	}
	if utf8.RuneCountInString(req.Stdin) > api.MaxStdinLength {
		return &ValidationError{
			Field:  "stdin",
			Reason: fmt.Sprintf("exceeds maximum length of %d characters", api.MaxStdinLength),
		}
	}
	if req.TimeoutSeconds == 0 {
		req.TimeoutSeconds = api.DefaultTimeoutSeconds
	}
	if req.TimeoutSeconds < 1 || req.TimeoutSeconds > maxTimeoutSeconds {
		return &ValidationError{
			Field:  "timeoutSeconds",
			Reason: fmt.Sprintf("must be between 1 and %d", maxTimeoutSeconds),
		}
	}
	return nil
}
