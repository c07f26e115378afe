// Package tools provides the registry of tools that can be offered to a chat model,
// the validation of model-issued tool arguments, and the built-in tools.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sashabaranov/go-openai"
	"llmchat/internal/logger"
)

var (
	ErrToolNotFound     = errors.New("tool not found")
	ErrArgumentParse    = errors.New("tool arguments are not valid JSON")
	ErrSchemaValidation = errors.New("tool arguments failed schema validation")
	ErrToolExecution    = errors.New("tool execution failed")
)

type registeredTool struct {
	tool   Tool
	schema *Schema
}

// ToolRegistry manages the collection of available tools.
// Tools are registered at startup; afterwards the registry is only read and may be
// shared by several sessions.
type ToolRegistry struct {
	tools map[string]registeredTool
	mu    sync.RWMutex
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]registeredTool),
	}
}

// RegisterTool compiles the tool's parameter schema and adds it to the registry.
// If a tool with the same name already exists, it will be replaced.
func (r *ToolRegistry) RegisterTool(tool Tool) error {
	if tool == nil {
		return errors.New("tool is nil")
	}
	name := tool.Name()
	if name == "" {
		return errors.New("tool name is empty")
	}

	schema, err := CompileSchema(tool.Parameters())
	if err != nil {
		return fmt.Errorf("tool %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		logger.Warnf("Replacing existing tool: %s", name)
	}

	r.tools[name] = registeredTool{tool: tool, schema: schema}
	logger.AIDebugf("Registered tool: %s", name)
	return nil
}

// GetTool returns a tool by name.
func (r *ToolRegistry) GetTool(name string) (Tool, error) {
	tool, _, err := r.Resolve(name)
	return tool, err
}

// Resolve returns the tool registered under name together with its compiled schema.
func (r *ToolRegistry) Resolve(name string) (Tool, *Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.tools[name]
	if !exists {
		return nil, nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	return entry.tool, entry.schema, nil
}

// GetAllTools returns all registered tools sorted by name.
func (r *ToolRegistry) GetAllTools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		tools = append(tools, r.tools[name].tool)
	}

	return tools
}

// GetOpenAITools converts all registered tools to the wire descriptor format,
// in name order so that repeated requests carry identical payloads.
func (r *ToolRegistry) GetOpenAITools() []openai.Tool {
	all := r.GetAllTools()
	tools := make([]openai.Tool, 0, len(all))
	for _, tool := range all {
		tools = append(tools, tool.ToOpenAITool())
	}

	return tools
}

func (r *ToolRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// ExecuteTool resolves a tool, parses rawArgs, validates them against the tool's
// schema and only then invokes it. Each failure is wrapped with the matching
// sentinel error.
func (r *ToolRegistry) ExecuteTool(ctx context.Context, name string, rawArgs string) (any, error) {
	tool, schema, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}

	if rawArgs == "" {
		rawArgs = "{}"
	}

	var decoded any
	if err := json.Unmarshal([]byte(rawArgs), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrArgumentParse, name, err)
	}

	if err := schema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSchemaValidation, name, err)
	}

	args, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: arguments must be a JSON object", ErrSchemaValidation, name)
	}

	logger.AIDebugf("Executing tool: %s with args: %s", name, rawArgs)
	result, err := tool.Execute(ctx, Arguments(args))
	if err != nil {
		logger.Errorf("Tool execution error: %s: %v", name, err)
		return nil, fmt.Errorf("%w: %s: %w", ErrToolExecution, name, err)
	}

	return result, nil
}
