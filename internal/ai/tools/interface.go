package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Arguments are the decoded, schema-validated arguments of a tool call.
type Arguments map[string]any

type Tool interface {
	Name() string
	Description() string
	Parameters() jsonschema.Definition
	// Execute runs the tool. The result must be JSON serializable.
	Execute(ctx context.Context, args Arguments) (any, error)
	ToOpenAITool() openai.Tool
}

type BaseTool struct {
	ToolName        string
	ToolDescription string
	ToolParameters  jsonschema.Definition
	ToolStrict      bool
}

func (b *BaseTool) Name() string {
	return b.ToolName
}

func (b *BaseTool) Description() string {
	return b.ToolDescription
}

func (b *BaseTool) Parameters() jsonschema.Definition {
	return b.ToolParameters
}

func (b *BaseTool) ToOpenAITool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        b.Name(),
			Description: b.Description(),
			Strict:      b.ToolStrict,
			Parameters:  b.Parameters(),
		},
	}
}

// BindArguments copies validated arguments into a typed struct.
func BindArguments(args Arguments, v any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to encode arguments: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode arguments: %w", err)
	}
	return nil
}
