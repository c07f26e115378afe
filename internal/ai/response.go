package ai

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// Result is the parsed outcome of one model round trip: exactly one of
// TextResult, ToolCallResult or ErrorResult.
type Result interface {
	isResult()
}

type TextResult struct {
	Text string
}

type ToolCallResult struct {
	// Content is text the model sent alongside its tool calls, often empty.
	Content string
	Calls   []ToolCall
}

type ErrorResult struct {
	Err error
}

func (TextResult) isResult()     {}
func (ToolCallResult) isResult() {}
func (ErrorResult) isResult()    {}

// completionResponse keeps content as a pointer so that a missing or null
// content can be told apart from an empty string.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Role      string            `json:"role"`
			Content   *string           `json:"content"`
			ToolCalls []openai.ToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// ParseResponse classifies a non-streaming response.
func ParseResponse(resp *Response) Result {
	if resp == nil {
		return ErrorResult{Err: fmt.Errorf("%w: empty response", ErrMalformedResponse)}
	}
	if !resp.OK {
		return ErrorResult{Err: newStatusError(resp.Status, resp.Body)}
	}

	var parsed completionResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return ErrorResult{Err: fmt.Errorf("%w: %w", ErrMalformedResponse, err)}
	}

	if len(parsed.Choices) == 0 {
		return ErrorResult{Err: fmt.Errorf("%w: no choices", ErrMalformedResponse)}
	}

	message := parsed.Choices[0].Message
	if len(message.ToolCalls) > 0 {
		calls := toolCallsFromOpenAI(message.ToolCalls)
		for _, call := range calls {
			if call.Name == "" {
				return ErrorResult{Err: fmt.Errorf("%w: tool call without a function name", ErrMalformedResponse)}
			}
		}
		content := ""
		if message.Content != nil {
			content = *message.Content
		}
		return ToolCallResult{Content: content, Calls: calls}
	}

	if message.Content == nil {
		return ErrorResult{Err: fmt.Errorf("%w: no content and no tool calls", ErrMalformedResponse)}
	}

	return TextResult{Text: *message.Content}
}

// newStatusError builds a TransportError for a non-2xx response, taking the
// message from an OpenAI-style error body when there is one.
func newStatusError(status int, body []byte) *TransportError {
	te := &TransportError{StatusCode: status, Body: string(body)}

	var errResp openai.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		te.Message = errResp.Error.Message
		errResp.Error.HTTPStatusCode = status
		te.Err = errResp.Error
	}

	return te
}

// asTransportError normalizes errors coming back from a Transport.
func asTransportError(err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Err: err}
}
