package builder

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

// DefinitionSchema is the JSON Schema every definition document must satisfy.
const DefinitionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "building_task": {"type": "string"},
    "agent_configs": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1, "pattern": "^[A-Za-z0-9_.-]+$"},
          "role": {"type": "string"},
          "system_message": {"type": "string"},
          "provider": {"type": "string", "enum": ["", "openai", "anthropic", "mock", "scripted", "echo", "human"]},
          "model": {"type": "string"},
          "temperature": {"type": "number", "minimum": 0, "maximum": 2},
          "script": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "coding": {"type": "boolean"},
    "rotation_rule": {"type": "string"},
    "excluded_from_repeat": {"type": "array", "items": {"type": "string"}},
    "max_rounds": {"type": "integer", "minimum": 0},
    "termination_marker": {"type": "string"},
    "initiator": {"type": "string"},
    "default_llm_config": {
      "type": "object",
      "properties": {
        "provider": {"type": "string"},
        "model": {"type": "string"},
        "temperature": {"type": "number", "minimum": 0, "maximum": 2}
      }
    }
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func definitionSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiledSchema, compileErr = compiler.Compile([]byte(DefinitionSchema))
	})
	return compiledSchema, compileErr
}

// validateDocument checks a JSON document against DefinitionSchema.
func validateDocument(raw []byte) error {
	schema, err := definitionSchema()
	if err != nil {
		return fmt.Errorf("compile definition schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}

	result := schema.Validate(doc)
	if !result.IsValid() {
		return fmt.Errorf("%w: %s", ErrInvalidDefinition, result.Error())
	}
	return nil
}
