package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"llmchat/internal/ai/tools"
	"llmchat/internal/logger"
)

// createChatRequest serializes the conversation for one round. Tools and
// tool_choice are only sent when tools are offered; streaming requests never offer them.
func createChatRequest(model string, history []Message, availableTools []openai.Tool, toolChoice string, stream bool) ([]byte, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, msg := range history {
		messages = append(messages, msg.toOpenAI())
	}

	request := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		Stream:   stream,
	}

	if !stream && len(availableTools) > 0 {
		request.Tools = availableTools
		request.ToolChoice = toolChoice
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return body, nil
}

// processToolCall runs a single call and returns the tool message content.
func processToolCall(ctx context.Context, registry *tools.ToolRegistry, call ToolCall) (string, error) {
	if registry == nil {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, call.Name)
	}

	logger.AIDebugf("Processing tool call: %s (%s)", call.Name, call.ID)
	result, err := registry.ExecuteTool(ctx, call.Name, call.Arguments)
	if err != nil {
		return "", err
	}

	content, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("%w: %s: result is not serializable: %w", ErrToolExecution, call.Name, err)
	}

	logger.AIDebugf("Tool %s executed, response length: %d chars", call.Name, len(content))
	return string(content), nil
}

func toolErrorContent(err error) string {
	content, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(content)
}
