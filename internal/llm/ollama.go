package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const ollamaTimeout = 120 * time.Second // Local models can be slower

// OllamaClient is an HTTP client for the Ollama Generate API.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaClient creates a new Ollama client.
func NewOllamaClient(baseURL, model string) *OllamaClient {
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: ollamaTimeout},
	}
}

// SetTimeout sets the HTTP timeout.
func (c *OllamaClient) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// Model returns the model the client requests from the backend.
func (c *OllamaClient) Model() string {
	return c.model
}

// ollamaGenerateRequest is the request body of the Ollama Generate API.
type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// ollamaGenerateResponse is the non-streaming response of the Ollama Generate API.
type ollamaGenerateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Generate makes a request to the Ollama Generate API.
func (c *OllamaClient) Generate(ctx context.Context, prompt string, options Options) (*Result, error) {
	// Build request
	reqBody := ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false, // We don't use streaming
	}

	// Add options
	opts := make(map[string]any)
	if options.Temperature > 0 {
		opts["temperature"] = options.Temperature
	}
	if options.MaxTokens > 0 {
		opts["num_predict"] = options.MaxTokens
	}
	if options.Seed != nil {
		opts["seed"] = float64(*options.Seed)
	}
	if len(opts) > 0 {
		reqBody.Options = opts
	}

	// Marshal request
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/api/generate"

	// Execute request with retry logic
	var result *Result
	operation := func(ctx context.Context) error {
		// Recreate request for each retry
		req, reqErr := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
		if reqErr != nil {
			return fmt.Errorf("failed to create request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, callErr := c.client.Do(req)
		if callErr != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return NewTimeoutError("ollama", "request timed out")
			}
			return NewServiceUnavailableError("ollama", callErr.Error())
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("failed to read response: %w", readErr)
		}

		if resp.StatusCode != http.StatusOK {
			return mapStatusCode("ollama", resp.StatusCode, string(body))
		}

		var genResp ollamaGenerateResponse
		if err := json.Unmarshal(body, &genResp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		result = &Result{
			Text:      genResp.Response,
			Model:     genResp.Model,
			TokensIn:  genResp.PromptEvalCount,
			TokensOut: genResp.EvalCount,
		}
		return nil
	}

	if err := RetryWithBackoff(ctx, operation, DefaultRetryConfig()); err != nil {
		return nil, err
	}

	return result, nil
}
