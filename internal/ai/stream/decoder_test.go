package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloBody = "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n" +
	"data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n" +
	"data: [DONE]\n\n"

func collect(t *testing.T, r io.Reader) ([]string, *Decoder, error) {
	t.Helper()
	d := NewDecoder(r)
	var deltas []string
	for delta, err := range d.Deltas() {
		if err != nil {
			return deltas, d, err
		}
		deltas = append(deltas, delta)
	}
	return deltas, d, nil
}

func TestDecoderYieldsDeltas(t *testing.T) {
	deltas, d, err := collect(t, strings.NewReader(helloBody))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, deltas)
	assert.Equal(t, "Hello", d.Text())
}

func TestDecoderChunkingIndependence(t *testing.T) {
	whole, _, err := collect(t, strings.NewReader(helloBody))
	require.NoError(t, err)

	bytewise, d, err := collect(t, iotest.OneByteReader(strings.NewReader(helloBody)))
	require.NoError(t, err)

	assert.Equal(t, strings.Join(whole, ""), strings.Join(bytewise, ""))
	assert.Equal(t, "Hello", d.Text())
}

func TestDecoderWithoutDoneMarker(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}"
	deltas, _, err := collect(t, strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, deltas)
}

func TestDecoderIgnoresAfterDone(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\ndata: [DONE]\n\nnot json at all\n"
	deltas, _, err := collect(t, strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, deltas)
}

func TestDecoderMalformedEvent(t *testing.T) {
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\ndata: {oops}\n\n"
	deltas, _, err := collect(t, strings.NewReader(body))
	assert.ErrorIs(t, err, ErrMalformedEvent)
	assert.Equal(t, []string{"a"}, deltas)
}

func TestDecoderErrorEvent(t *testing.T) {
	body := "data: {\"error\":{\"message\":\"quota exceeded\",\"type\":\"insufficient_quota\",\"code\":\"insufficient_quota\"}}\n\n"
	_, _, err := collect(t, strings.NewReader(body))

	var apiErr *openai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "quota exceeded", apiErr.Message)
}

func TestDecoderReadError(t *testing.T) {
	boom := errors.New("connection reset")
	r := io.MultiReader(strings.NewReader("data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n"), iotest.ErrReader(boom))
	deltas, _, err := collect(t, r)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a"}, deltas)
}

func TestDecoderReadErrorMidPayload(t *testing.T) {
	boom := errors.New("connection reset")
	body := "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"con"
	r := io.MultiReader(strings.NewReader(body), iotest.ErrReader(boom))

	deltas, d, err := collect(t, r)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrMalformedEvent)
	assert.Equal(t, []string{"a"}, deltas)
	assert.Equal(t, "a", d.Text())
}

func TestDecoderSingleUse(t *testing.T) {
	d := NewDecoder(strings.NewReader(helloBody))
	for range d.Deltas() {
	}
	for _, err := range d.Deltas() {
		assert.Error(t, err)
	}
}

func TestDecode(t *testing.T) {
	var seen []string
	text, err := Decode(context.Background(), strings.NewReader(helloBody), func(delta string) {
		seen = append(seen, delta)
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
	assert.Equal(t, []string{"Hel", "lo"}, seen)
}

func TestDecodeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	text, err := Decode(ctx, strings.NewReader(helloBody), func(delta string) {
		cancel()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "Hel", text)
}
