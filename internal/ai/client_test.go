package ai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransportSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"model":"m","messages":[]}`, string(body))
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	transport := NewHTTPTransport(srv.Client())
	resp, err := transport.Send(context.Background(), srv.URL, BearerHeaders("key"), []byte(`{"model":"m","messages":[]}`))
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, `{"choices":[]}`, string(resp.Body))
}

func TestHTTPTransportSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	resp, err := NewHTTPTransport(srv.Client()).Send(context.Background(), srv.URL, nil, []byte(`{}`))
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, http.StatusTooManyRequests, resp.Status)
}

func TestHTTPTransportSendStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	rc, err := NewHTTPTransport(srv.Client()).SendStreaming(context.Background(), srv.URL, nil, []byte(`{}`))
	require.NoError(t, err)
	defer rc.Close()

	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "data: [DONE]\n\n", string(body))
}

func TestHTTPTransportSendStreamingErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewHTTPTransport(srv.Client()).SendStreaming(context.Background(), srv.URL, nil, []byte(`{}`))
	assert.ErrorIs(t, err, ErrTransport)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadRequest, te.StatusCode)
	assert.Equal(t, "bad model", te.Message)
}

func TestHTTPTransportUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPTransport(nil).Send(context.Background(), url, nil, []byte(`{}`))
	assert.ErrorIs(t, err, ErrTransport)
}

func TestBearerHeaders(t *testing.T) {
	assert.Equal(t, map[string]string{"Authorization": "Bearer abc"}, BearerHeaders("abc"))
	assert.Empty(t, BearerHeaders(" "))
}
