// Package llm contains the clients for the generation backends the API can
// forward prompts to. All backends satisfy the Generator interface and
// return the model's continuation verbatim.
package llm

import (
	"context"
	"fmt"
)

// Options contains per-call generation parameters. The zero value lets the
// backend use its own defaults.
type Options struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Seed        *uint64 `json:"seed,omitempty"`
}

// Result is the parsed response of a generation call.
type Result struct {
	Text      string
	Model     string
	TokensIn  int
	TokensOut int
}

// Generator produces a text continuation for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, options Options) (*Result, error)
	Model() string
}

// Config selects and parameterizes a backend.
type Config struct {
	Backend  string // ollama, openai or gemini
	Endpoint string
	Model    string
	APIKey   string
}

// NewGenerator constructs the Generator for the given config.
func NewGenerator(ctx context.Context, config Config) (Generator, error) {
	switch config.Backend {
	case "ollama":
		return NewOllamaClient(config.Endpoint, config.Model), nil
	case "openai":
		return NewOpenAIClient(config.Endpoint, config.APIKey, config.Model), nil
	case "gemini":
		return NewGeminiClient(ctx, config.APIKey, config.Model)
	default:
		return nil, fmt.Errorf("unknown generation backend %q", config.Backend)
	}
}
