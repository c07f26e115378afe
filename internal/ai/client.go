package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"llmchat/internal/logger"
)

// Response is a completed, non-streaming round trip.
type Response struct {
	OK     bool
	Status int
	Body   []byte
}

// Transport carries serialized requests to the model endpoint.
type Transport interface {
	Send(ctx context.Context, endpoint string, headers map[string]string, body []byte) (*Response, error)
	// SendStreaming returns the response body for the caller to decode and close.
	// A non-2xx status is reported as a *TransportError.
	SendStreaming(ctx context.Context, endpoint string, headers map[string]string, body []byte) (io.ReadCloser, error)
}

// HTTPTransport is the net/http Transport.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps client, or http.DefaultClient when nil. Deadlines come
// from the request context, so the client should not set its own Timeout when streaming.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) Send(ctx context.Context, endpoint string, headers map[string]string, body []byte) (*Response, error) {
	resp, err := t.do(ctx, endpoint, headers, body, "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	logger.AIDebugf("Response %d (%d bytes)", resp.StatusCode, len(data))
	return &Response{
		OK:     resp.StatusCode >= 200 && resp.StatusCode <= 299,
		Status: resp.StatusCode,
		Body:   data,
	}, nil
}

func (t *HTTPTransport) SendStreaming(ctx context.Context, endpoint string, headers map[string]string, body []byte) (io.ReadCloser, error) {
	resp, err := t.do(ctx, endpoint, headers, body, "text/event-stream")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, newStatusError(resp.StatusCode, data)
	}

	return resp.Body, nil
}

func (t *HTTPTransport) do(ctx context.Context, endpoint string, headers map[string]string, body []byte, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	logger.AIDebugf("POST %s (%d bytes)", endpoint, len(body))
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	return resp, nil
}

// BearerHeaders returns the Authorization header used by OpenAI-compatible endpoints.
func BearerHeaders(apiKey string) map[string]string {
	if strings.TrimSpace(apiKey) == "" {
		return map[string]string{}
	}
	return map[string]string{"Authorization": "Bearer " + apiKey}
}
