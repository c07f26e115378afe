package tools

import (
	"encoding/json"
	"fmt"

	jsv "github.com/google/jsonschema-go/jsonschema"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Schema is a tool's parameter Definition compiled into a validator.
// The Definition is what the model sees; the compiled form checks what the model sends back.
type Schema struct {
	definition jsonschema.Definition
	resolved   *jsv.Resolved
}

// CompileSchema converts a go-openai Definition into a resolved JSON Schema.
func CompileSchema(def jsonschema.Definition) (*Schema, error) {
	raw, err := json.Marshal(&def)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}

	var schema jsv.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema: %w", err)
	}

	return &Schema{definition: def, resolved: resolved}, nil
}

// Validate checks a decoded JSON value (as produced by json.Unmarshal into any).
func (s *Schema) Validate(args any) error {
	return s.resolved.Validate(args)
}

func (s *Schema) Definition() jsonschema.Definition {
	return s.definition
}
