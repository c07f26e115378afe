package ai

import (
	"context"
	"errors"
	"fmt"

	"llmchat/internal/ai/tools"
)

var (
	ErrTransport          = errors.New("transport failure")
	ErrMalformedResponse  = errors.New("malformed model response")
	ErrRoundLimitExceeded = errors.New("tool round limit exceeded")
	ErrCancelled          = errors.New("turn cancelled")

	// Tool failures share their sentinels with the registry that detects them.
	ErrToolNotFound     = tools.ErrToolNotFound
	ErrArgumentParse    = tools.ErrArgumentParse
	ErrSchemaValidation = tools.ErrSchemaValidation
	ErrToolExecution    = tools.ErrToolExecution
)

// TransportError reports a failed round trip: either the request never got a
// response (Err is set) or the endpoint answered with a non-2xx status.
type TransportError struct {
	StatusCode int
	Body       string
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("transport failure: status %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("transport failure: status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("transport failure: %v", e.Err)
	case e.Message != "":
		return "transport failure: " + e.Message
	}
	return "transport failure"
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ToolCallError ties a tool failure to the call that caused it. Kind is one of
// ErrToolNotFound, ErrArgumentParse, ErrSchemaValidation or ErrToolExecution.
type ToolCallError struct {
	Kind   error
	CallID string
	Name   string
	Err    error
}

func (e *ToolCallError) Error() string {
	return fmt.Sprintf("tool call %s (%s): %v", e.CallID, e.Name, e.Err)
}

func (e *ToolCallError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newToolCallError(call ToolCall, err error) *ToolCallError {
	kind := ErrToolExecution
	for _, k := range []error{ErrToolNotFound, ErrArgumentParse, ErrSchemaValidation} {
		if errors.Is(err, k) {
			kind = k
			break
		}
	}
	return &ToolCallError{Kind: kind, CallID: call.ID, Name: call.Name, Err: err}
}

// cancelled returns an ErrCancelled error when ctx is done, nil otherwise.
func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}
