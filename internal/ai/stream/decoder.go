package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ChunkSize is how many bytes the Decoder requests from the body per read.
const ChunkSize = 4096

var ErrMalformedEvent = errors.New("malformed stream event")

type streamEvent struct {
	Choices []openai.ChatCompletionStreamChoice `json:"choices"`
	Error   *openai.APIError                   `json:"error,omitempty"`
}

// Decoder yields the text deltas of a streaming chat completion body.
type Decoder struct {
	r    io.Reader
	acc  Accumulator
	text strings.Builder
	used bool
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Deltas returns the non-empty content deltas in arrival order. The sequence
// ends at [DONE], at end of body, or after yielding an error. It can be ranged
// over once.
func (d *Decoder) Deltas() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if d.used {
			yield("", errors.New("stream decoder already consumed"))
			return
		}
		d.used = true

		buf := make([]byte, ChunkSize)
		for {
			n, readErr := d.r.Read(buf)

			var payloads []string
			if n > 0 {
				payloads = d.acc.Feed(buf[:n])
			}
			// A failed read still releases the payload held for the next record.
			// A payload cut short by the failure reports the read error, not a parse error.
			complete := len(payloads)
			if readErr != nil {
				payloads = append(payloads, d.acc.Flush()...)
			}

			for i, p := range payloads {
				delta, err := parsePayload(p)
				if err != nil {
					if i >= complete && readErr != nil && readErr != io.EOF {
						err = fmt.Errorf("failed to read stream: %w", readErr)
					}
					yield("", err)
					return
				}
				if delta == "" {
					continue
				}
				d.text.WriteString(delta)
				if !yield(delta, nil) {
					return
				}
			}

			if d.acc.Done() || readErr == io.EOF {
				return
			}
			if readErr != nil {
				yield("", fmt.Errorf("failed to read stream: %w", readErr))
				return
			}
		}
	}
}

// Text returns the concatenation of every delta yielded so far.
func (d *Decoder) Text() string {
	return d.text.String()
}

// Decode drains r, calling onDelta for each delta, and returns the aggregate text.
// ctx is checked between deltas; cancelling it should also close r so that a
// pending read returns.
func Decode(ctx context.Context, r io.Reader, onDelta func(string)) (string, error) {
	d := NewDecoder(r)
	for delta, err := range d.Deltas() {
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return d.Text(), ctxErr
			}
			return d.Text(), err
		}
		if onDelta != nil {
			onDelta(delta)
		}
		if err := ctx.Err(); err != nil {
			return d.Text(), err
		}
	}

	return d.Text(), ctx.Err()
}

func parsePayload(p string) (string, error) {
	var event streamEvent
	if err := json.Unmarshal([]byte(p), &event); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	if event.Error != nil {
		return "", event.Error
	}

	if len(event.Choices) == 0 {
		return "", nil
	}

	return event.Choices[0].Delta.Content, nil
}
