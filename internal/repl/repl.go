// Package repl is the interactive read/print loop around a chat session.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"llmchat/internal"
	"llmchat/internal/ai"
	"llmchat/internal/logger"
)

// Session is the part of ai.Session the loop drives.
type Session interface {
	SubmitUserTurn(ctx context.Context, text string) (string, error)
	SubmitUserTurnStream(ctx context.Context, text string, onDelta func(string), onComplete func(string)) error
	Len() int
	History() []ai.Message
}

// pendingAnswerer is implemented by sessions that can close tool calls left
// unanswered by a failed turn.
type pendingAnswerer interface {
	AnswerPendingToolCalls(cause error) int
}

type Options struct {
	In     io.Reader
	Out    io.Writer
	Stream bool
	// Tools are the names listed by /tools.
	Tools []string
}

type REPL struct {
	session  Session
	opts     Options
	commands map[string]Command

	prompt    func(a ...interface{}) string
	assistant func(a ...interface{}) string
	dim       func(a ...interface{}) string
}

func New(session Session, opts Options) *REPL {
	r := &REPL{
		session:   session,
		opts:      opts,
		commands:  make(map[string]Command),
		prompt:    color.New(color.FgHiGreen, color.Bold).SprintFunc(),
		assistant: color.New(color.FgHiMagenta, color.Bold).SprintFunc(),
		dim:       color.New(color.FgHiBlack).SprintFunc(),
	}
	r.registerBuiltinCommands()
	return r
}

// Run reads lines until "exit", end of input or ctx is cancelled. A failed
// turn is reported and the loop continues with the history it left behind.
func (r *REPL) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		scanner := bufio.NewScanner(r.opts.In)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
		close(lines)
	}()

	for {
		fmt.Fprint(r.opts.Out, r.prompt(internal.USER_PROMPT))

		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.opts.Out)
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			fmt.Fprintln(r.opts.Out)
			return <-readErr
		}

		input := strings.TrimSpace(line)
		switch {
		case input == "":
			continue
		case strings.EqualFold(input, internal.EXIT_COMMAND):
			return nil
		case r.handleCommand(input):
			continue
		}

		if err := r.turn(ctx, input); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Errorf("%v", err)
			if p, ok := r.session.(pendingAnswerer); ok {
				p.AnswerPendingToolCalls(err)
			}
		}
	}
}

// RunOnce submits a single prompt and prints the reply.
func (r *REPL) RunOnce(ctx context.Context, input string) error {
	return r.turn(ctx, input)
}

func (r *REPL) turn(ctx context.Context, input string) error {
	if !r.opts.Stream {
		reply, err := r.session.SubmitUserTurn(ctx, input)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.opts.Out, "%s%s\n", r.assistant("Assistant: "), reply)
		return nil
	}

	fmt.Fprint(r.opts.Out, r.assistant("Assistant: "))
	err := r.session.SubmitUserTurnStream(ctx, input,
		func(delta string) {
			fmt.Fprint(r.opts.Out, delta)
		},
		func(string) {
			fmt.Fprintln(r.opts.Out)
		})
	if err != nil {
		fmt.Fprintln(r.opts.Out)
	}
	return err
}

// ToolCallPrinter returns hooks that announce tool activity on w.
func ToolCallPrinter(w io.Writer) ai.Hooks {
	dim := color.New(color.FgHiBlack).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()
	return ai.Hooks{
		OnToolCall: func(call ai.ToolCall) {
			fmt.Fprintln(w, dim(fmt.Sprintf("[calling %s]", call.Name)))
		},
		OnToolResult: func(call ai.ToolCall, content string, err error) {
			if err != nil {
				fmt.Fprintln(w, warn(fmt.Sprintf("[%s failed: %v]", call.Name, err)))
			}
		},
	}
}
