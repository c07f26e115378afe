package ai

import (
	"context"
	"time"
)

const (
	DefaultMaxRounds      = 8
	DefaultRequestTimeout = 120 * time.Second
	DefaultToolTimeout    = 30 * time.Second
	DefaultToolChoice     = "auto"
)

// Hooks observe tool activity. Both are optional.
type Hooks struct {
	OnToolCall   func(call ToolCall)
	OnToolResult func(call ToolCall, content string, err error)
}

// Options configure a Session. Zero values fall back to the defaults above.
type Options struct {
	ID       string
	Endpoint string
	Headers  map[string]string
	Model    string

	// ToolChoice is sent with every request that offers tools.
	ToolChoice string
	// MaxRounds bounds the requests made for a single user turn.
	MaxRounds int

	RequestTimeout time.Duration
	ToolTimeout    time.Duration

	// ToolErrorsAsResults reports failed tool calls to the model as tool
	// messages instead of failing the turn.
	ToolErrorsAsResults bool
	// HistoryWarn logs a warning once the log grows past this many messages. Zero disables it.
	HistoryWarn int

	Hooks Hooks
}

func DefaultOptions() Options {
	return Options{
		ToolChoice:     DefaultToolChoice,
		MaxRounds:      DefaultMaxRounds,
		RequestTimeout: DefaultRequestTimeout,
		ToolTimeout:    DefaultToolTimeout,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ToolChoice == "" {
		o.ToolChoice = d.ToolChoice
	}
	if o.MaxRounds <= 0 {
		o.MaxRounds = d.MaxRounds
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = d.RequestTimeout
	}
	if o.ToolTimeout <= 0 {
		o.ToolTimeout = d.ToolTimeout
	}
	return o
}

func createContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}
