// Package respond exposes the engine over its queue transports: a NATS
// request/reply responder and an SQS consumer/publisher pair.
package respond

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codeclass/engine/api"
	"github.com/codeclass/engine/internal/engine"
)

// QueueResponse is the message published for one handled request.
// Exactly one field is set: a full engine response, or the validation
// error for requests rejected before execution.
type QueueResponse struct {
	Response        *api.ExecResponse `json:"response,omitempty"`
	ValidationError string            `json:"validationError,omitempty"`
}

func handle(ctx context.Context, eng *engine.Engine, body []byte) ([]byte, error) {
	var req api.ExecRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request: %w", err)
	}

	var qr QueueResponse
	resp, err := eng.Execute(ctx, req)
	if err != nil {
		qr.ValidationError = err.Error()
	} else {
		resp.Error = trimStrToRect(resp.Error, MaxErrHeight, MaxErrWidth)
		resp.CompilationError = trimStrToRect(resp.CompilationError, MaxErrHeight, MaxErrWidth)
		qr.Response = &resp
	}

	b, err := json.Marshal(qr)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return b, nil
}
