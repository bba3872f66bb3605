package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "The quick brown fox", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "gpt-4o-mini",
			"choices": [{"message": {"role": "assistant", "content": "jumps over the lazy dog."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 7}
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "sk-test", "gpt-4o-mini")

	result, err := client.Generate(context.Background(), "The quick brown fox", Options{})

	require.NoError(t, err)
	assert.Equal(t, "jumps over the lazy dog.", result.Text)
	assert.Equal(t, "gpt-4o-mini", result.Model)
	assert.Equal(t, 5, result.TokensIn)
	assert.Equal(t, 7, result.TokensOut)
}

func TestOpenAIClient_Generate_AuthenticationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "bad-key", "gpt-4o-mini")

	_, err := client.Generate(context.Background(), "prompt", Options{})

	require.Error(t, err)
	var llmErr *Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, ErrTypeAuthentication, llmErr.Type)
	assert.Contains(t, llmErr.Message, "Incorrect API key")
	assert.False(t, llmErr.IsRetryable())
}

func TestOpenAIClient_Generate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model": "gpt-4o-mini", "choices": []}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "sk-test", "gpt-4o-mini")

	_, err := client.Generate(context.Background(), "prompt", Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestOpenAIClient_DefaultBaseURL(t *testing.T) {
	client := NewOpenAIClient("", "sk-test", "gpt-4o-mini")
	assert.Equal(t, openAIDefaultBaseURL, client.baseURL)
}

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantModel string
		wantErr   bool
	}{
		{
			name:      "ollama backend",
			config:    Config{Backend: "ollama", Endpoint: "http://localhost:11434", Model: "llama3.2"},
			wantModel: "llama3.2",
		},
		{
			name:      "openai backend",
			config:    Config{Backend: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"},
			wantModel: "gpt-4o-mini",
		},
		{
			name:    "unknown backend",
			config:  Config{Backend: "frobnicator"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewGenerator(context.Background(), tt.config)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, gen.Model())
		})
	}
}
