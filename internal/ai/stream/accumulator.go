// Package stream decodes server-sent event bodies of streaming chat completions.
package stream

import (
	"bytes"
	"strings"
)

const (
	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

// Accumulator turns arbitrarily split chunks of an event stream into complete
// event payloads. Records are newline delimited; a record starting with "data: "
// begins a new payload and any other non-empty record continues the current one.
// An Accumulator serves a single response body.
type Accumulator struct {
	line    []byte
	payload strings.Builder
	open    bool
	done    bool
}

// Feed consumes the next chunk and returns the payloads it completed, in order.
func (a *Accumulator) Feed(chunk []byte) []string {
	if a.done {
		return nil
	}

	var completed []string
	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			a.line = append(a.line, chunk...)
			break
		}

		a.line = append(a.line, chunk[:i]...)
		chunk = chunk[i+1:]

		completed = a.record(completed)
		if a.done {
			break
		}
	}

	return completed
}

// Flush completes a trailing unterminated record and the payload in progress.
// It is called once the body is exhausted.
func (a *Accumulator) Flush() []string {
	if a.done {
		return nil
	}

	var completed []string
	if len(a.line) > 0 {
		completed = a.record(completed)
	}
	if !a.done {
		completed = a.closePayload(completed)
	}

	return completed
}

// Done reports whether the stream's [DONE] terminator has been seen.
func (a *Accumulator) Done() bool {
	return a.done
}

func (a *Accumulator) record(completed []string) []string {
	rec := string(bytes.TrimSuffix(a.line, []byte{'\r'}))
	a.line = a.line[:0]

	switch {
	case rec == "" || strings.HasPrefix(rec, ":"):
		return completed
	case strings.HasPrefix(rec, dataPrefix):
		completed = a.closePayload(completed)
		data := rec[len(dataPrefix):]
		if strings.TrimSpace(data) == doneMarker {
			a.done = true
			return completed
		}
		a.payload.WriteString(data)
		a.open = true
	default:
		// Continuation of a payload whose JSON was split across records
		a.payload.WriteString(rec)
		a.open = true
	}

	return completed
}

func (a *Accumulator) closePayload(completed []string) []string {
	if !a.open {
		return completed
	}

	p := a.payload.String()
	a.payload.Reset()
	a.open = false

	if strings.TrimSpace(p) == "" {
		return completed
	}
	return append(completed, p)
}
