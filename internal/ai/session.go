package ai

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"llmchat/internal/ai/stream"
	"llmchat/internal/ai/tools"
	"llmchat/internal/logger"
)

// Session runs the turns of one conversation against a model endpoint.
//
// A user turn moves through requesting, optional tool execution and back to
// requesting until the model answers with text. Every message is appended to
// the conversation before the next step acts on it, so the log always replays
// the exact exchange even when a turn fails part way.
//
// A Session handles one turn at a time. Separate sessions may share a registry.
type Session struct {
	id           string
	transport    Transport
	registry     *tools.ToolRegistry
	opts         Options
	conversation *Conversation
	warned       bool
}

// NewSession creates a session. registry may be nil, in which case no tools are offered.
func NewSession(transport Transport, registry *tools.ToolRegistry, opts Options) *Session {
	opts = opts.withDefaults()
	id := opts.ID
	if id == "" {
		id = newSessionID()
	}

	return &Session{
		id:           id,
		transport:    transport,
		registry:     registry,
		opts:         opts,
		conversation: NewConversation(),
	}
}

func newSessionID() string {
	return fmt.Sprintf("%s-%04x", time.Now().Format("20060102-150405"), rand.Intn(0x10000))
}

func (s *Session) ID() string {
	return s.id
}

// History returns a copy of the conversation so far.
func (s *Session) History() []Message {
	return s.conversation.Snapshot()
}

func (s *Session) Len() int {
	return s.conversation.Len()
}

// SubmitUserTurn appends text as a user message and drives the conversation
// until the model replies with text, which is returned. Tool calls requested
// along the way are executed and answered in the order the model issued them.
func (s *Session) SubmitUserTurn(ctx context.Context, text string) (string, error) {
	s.appendMessage(Message{Role: RoleUser, Content: text})

	for round := 1; round <= s.opts.MaxRounds; round++ {
		result, err := s.requestRound(ctx, round)
		if err != nil {
			return "", err
		}

		switch r := result.(type) {
		case ErrorResult:
			return "", r.Err
		case TextResult:
			s.appendMessage(Message{Role: RoleAssistant, Content: r.Text})
			return r.Text, nil
		case ToolCallResult:
			// The request for tools is logged before any of them run
			s.appendMessage(Message{Role: RoleAssistant, Content: r.Content, ToolCalls: r.Calls})
			if err := s.answerToolCalls(ctx, r.Calls); err != nil {
				return "", err
			}
		}
	}

	logger.Warnf("Reached maximum tool call rounds (%d)", s.opts.MaxRounds)
	return "", fmt.Errorf("%w: no final answer after %d rounds", ErrRoundLimitExceeded, s.opts.MaxRounds)
}

func (s *Session) requestRound(ctx context.Context, round int) (Result, error) {
	if err := cancelled(ctx); err != nil {
		return nil, err
	}

	availableTools := s.availableTools()
	body, err := createChatRequest(s.opts.Model, s.conversation.Snapshot(), availableTools, s.opts.ToolChoice, false)
	if err != nil {
		return nil, err
	}

	rctx, cancel := createContext(ctx, s.opts.RequestTimeout)
	defer cancel()

	logger.AIDebugf("Session %s round %d: %d messages, %d tools", s.id, round, s.conversation.Len(), len(availableTools))
	resp, err := s.transport.Send(rctx, s.opts.Endpoint, s.opts.Headers, body)
	if err != nil {
		if cerr := cancelled(rctx); cerr != nil {
			return nil, cerr
		}
		return nil, asTransportError(err)
	}

	return ParseResponse(resp), nil
}

func (s *Session) answerToolCalls(ctx context.Context, calls []ToolCall) error {
	for _, call := range calls {
		if err := cancelled(ctx); err != nil {
			return err
		}
		if s.opts.Hooks.OnToolCall != nil {
			s.opts.Hooks.OnToolCall(call)
		}

		tctx, cancel := createContext(ctx, s.opts.ToolTimeout)
		content, err := processToolCall(tctx, s.registry, call)
		cancel()

		if err != nil {
			if cerr := cancelled(ctx); cerr != nil {
				return cerr
			}
			toolErr := newToolCallError(call, err)
			if !s.opts.ToolErrorsAsResults {
				s.notifyToolResult(call, "", toolErr)
				return toolErr
			}
			logger.Warnf("Reporting failed tool call to the model: %v", toolErr)
			content = toolErrorContent(err)
			s.notifyToolResult(call, content, toolErr)
		} else {
			s.notifyToolResult(call, content, nil)
		}

		s.appendMessage(Message{Role: RoleTool, Content: content, ToolCallID: call.ID})
	}

	return nil
}

// AnswerPendingToolCalls closes out a turn that failed after the model asked
// for tools. Every call of the latest assistant message that has no tool
// message yet is answered with an error naming cause, so the history can be
// sent again. It returns how many calls it answered.
func (s *Session) AnswerPendingToolCalls(cause error) int {
	history := s.conversation.Snapshot()

	last := -1
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleAssistant {
			last = i
			break
		}
	}
	if last < 0 || len(history[last].ToolCalls) == 0 {
		return 0
	}

	answered := make(map[string]bool)
	for _, msg := range history[last+1:] {
		if msg.Role == RoleTool {
			answered[msg.ToolCallID] = true
		}
	}

	if cause == nil {
		cause = errors.New("tool call was not completed")
	}

	count := 0
	for _, call := range history[last].ToolCalls {
		if answered[call.ID] {
			continue
		}
		s.appendMessage(Message{Role: RoleTool, Content: toolErrorContent(cause), ToolCallID: call.ID})
		count++
	}

	if count > 0 {
		logger.Debugf("Answered %d pending tool calls in session %s", count, s.id)
	}
	return count
}

func (s *Session) notifyToolResult(call ToolCall, content string, err error) {
	if s.opts.Hooks.OnToolResult != nil {
		s.opts.Hooks.OnToolResult(call, content, err)
	}
}

// SubmitUserTurnStream appends text as a user message and streams the reply.
// onDelta receives each non-empty fragment as it arrives; onComplete receives
// the full reply once it has been appended to the conversation. Streaming
// requests do not offer tools.
func (s *Session) SubmitUserTurnStream(ctx context.Context, text string, onDelta func(string), onComplete func(string)) error {
	s.appendMessage(Message{Role: RoleUser, Content: text})

	if err := cancelled(ctx); err != nil {
		return err
	}

	body, err := createChatRequest(s.opts.Model, s.conversation.Snapshot(), nil, "", true)
	if err != nil {
		return err
	}

	rctx, cancel := createContext(ctx, s.opts.RequestTimeout)
	defer cancel()

	logger.AIDebugf("Session %s streaming: %d messages", s.id, s.conversation.Len())
	rc, err := s.transport.SendStreaming(rctx, s.opts.Endpoint, s.opts.Headers, body)
	if err != nil {
		if cerr := cancelled(rctx); cerr != nil {
			return cerr
		}
		return asTransportError(err)
	}
	defer rc.Close()

	reply, err := stream.Decode(rctx, rc, onDelta)
	if err != nil {
		return classifyStreamError(rctx, err)
	}

	s.appendMessage(Message{Role: RoleAssistant, Content: reply})
	if onComplete != nil {
		onComplete(reply)
	}
	return nil
}

func classifyStreamError(ctx context.Context, err error) error {
	if cerr := cancelled(ctx); cerr != nil {
		return cerr
	}
	if errors.Is(err, stream.ErrMalformedEvent) {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &TransportError{Message: apiErr.Message, Err: err}
	}
	return asTransportError(err)
}

func (s *Session) availableTools() []openai.Tool {
	if s.registry == nil || s.registry.Len() == 0 {
		return nil
	}
	return s.registry.GetOpenAITools()
}

func (s *Session) appendMessage(msg Message) {
	s.conversation.Append(msg)
	logger.LogConversationMessage(s.id, string(msg.Role), transcriptText(msg))

	if s.opts.HistoryWarn > 0 && !s.warned && s.conversation.Len() > s.opts.HistoryWarn {
		s.warned = true
		logger.Warnf("Conversation %s has %d messages; requests will keep growing", s.id, s.conversation.Len())
	}
}

func transcriptText(msg Message) string {
	var b strings.Builder
	b.WriteString(msg.Content)
	for _, call := range msg.ToolCalls {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[tool_call %s] %s(%s)", call.ID, call.Name, call.Arguments)
	}
	if msg.ToolCallID != "" {
		return fmt.Sprintf("[%s] %s", msg.ToolCallID, b.String())
	}
	return b.String()
}
