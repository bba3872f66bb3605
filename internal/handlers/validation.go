package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/mauriken/textgen-api/internal/llm"

	"github.com/xeipuuv/gojsonschema"
)

// requestDefaultsSchema constrains the generation parameters a model service
// may carry as defaults. These are the only parameters the backends accept.
const requestDefaultsSchema = `{
  "type": "object",
  "properties": {
    "temperature": { "type": "number", "minimum": 0, "maximum": 2 },
    "max_tokens":  { "type": "integer", "minimum": 1 },
    "seed":        { "type": "integer", "minimum": 0 }
  },
  "additionalProperties": false
}`

// ValidateRequestDefaults validates a model service's request defaults
// against the generation parameter schema.
func ValidateRequestDefaults(defaults json.RawMessage) error {
	// If no defaults are provided, skip validation
	if len(defaults) == 0 || string(defaults) == "null" {
		return nil
	}

	// Parse the schema
	schemaLoader := gojsonschema.NewStringLoader(requestDefaultsSchema)

	// Parse the defaults
	defaultsLoader := gojsonschema.NewBytesLoader(defaults)

	// Validate
	result, err := gojsonschema.Validate(schemaLoader, defaultsLoader)
	if err != nil {
		return fmt.Errorf("failed to validate request defaults against schema: %v", err)
	}

	if !result.Valid() {
		// Build a helpful error message with all validation errors
		errMsg := "request defaults validation failed:\n"
		for i, desc := range result.Errors() {
			if i > 0 {
				errMsg += "\n"
			}
			errMsg += fmt.Sprintf("  - %s", desc.String())
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

// ParseRequestDefaults decodes stored request defaults into generation
// options. Empty defaults yield the zero options.
func ParseRequestDefaults(defaults json.RawMessage) (llm.Options, error) {
	options := llm.Options{}
	if len(defaults) == 0 || string(defaults) == "null" {
		return options, nil
	}
	err := json.Unmarshal(defaults, &options)
	if err != nil {
		return llm.Options{}, fmt.Errorf("failed to parse request defaults: %v", err)
	}
	return options, nil
}
