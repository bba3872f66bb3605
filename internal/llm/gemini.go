package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient generates text through the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

// Model returns the model the client requests from the backend.
func (c *GeminiClient) Model() string {
	return c.model
}

// Generate makes a request to the Gemini GenerateContent API.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, options Options) (*Result, error) {
	config := &genai.GenerateContentConfig{}
	if options.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(options.Temperature))
	}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Seed != nil {
		config.Seed = genai.Ptr(int32(*options.Seed))
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return nil, NewServiceUnavailableError("gemini", err.Error())
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("no candidates in response")
	}

	result := &Result{
		Text:  text,
		Model: c.model,
	}
	if resp.UsageMetadata != nil {
		result.TokensIn = int(resp.UsageMetadata.PromptTokenCount)
		result.TokensOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return result, nil
}
