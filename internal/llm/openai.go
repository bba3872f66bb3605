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

const (
	openAIDefaultBaseURL = "https://api.openai.com"
	openAITimeout        = 60 * time.Second
)

// OpenAIClient is an HTTP client for OpenAI-compatible Chat Completion APIs.
type OpenAIClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewOpenAIClient creates a new client. An empty baseURL selects the
// official OpenAI endpoint.
func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	return &OpenAIClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: openAITimeout},
	}
}

// SetTimeout sets the HTTP timeout.
func (c *OpenAIClient) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// Model returns the model the client requests from the backend.
func (c *OpenAIClient) Model() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Seed        *uint64       `json:"seed,omitempty"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type openAIErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate makes a request to the Chat Completion API.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, options Options) (*Result, error) {
	// Build request
	reqBody := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
		Seed:        options.Seed,
	}

	// Marshal request
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/v1/chat/completions"

	// Execute request with retry logic
	var result *Result
	operation := func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
		if reqErr != nil {
			return fmt.Errorf("failed to create request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, callErr := c.client.Do(req)
		if callErr != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return NewTimeoutError("openai", "request timed out")
			}
			return NewServiceUnavailableError("openai", callErr.Error())
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("failed to read response: %w", readErr)
		}

		if resp.StatusCode != http.StatusOK {
			message := fmt.Sprintf("HTTP %d", resp.StatusCode)
			var errResp openAIErrorResponse
			if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
				message = errResp.Error.Message
			}
			return mapStatusCode("openai", resp.StatusCode, message)
		}

		var chatResp chatCompletionResponse
		if err := json.Unmarshal(body, &chatResp); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		if len(chatResp.Choices) == 0 {
			return fmt.Errorf("no choices in response")
		}

		result = &Result{
			Text:      chatResp.Choices[0].Message.Content,
			Model:     chatResp.Model,
			TokensIn:  chatResp.Usage.PromptTokens,
			TokensOut: chatResp.Usage.CompletionTokens,
		}
		return nil
	}

	if err := RetryWithBackoff(ctx, operation, DefaultRetryConfig()); err != nil {
		return nil, err
	}

	return result, nil
}
