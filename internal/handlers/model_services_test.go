package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModelServiceFunc(t *testing.T) {
	// Get the database connection pool from package variable
	pool := connPool

	// Create a mock key generator
	mockKeyGen := new(MockKeyGen)
	mockKeyGen.On("RandomKey", 32).Return("1234567890123456789012345678901212345678901234567890123456789012", nil)

	// Start the server
	err, shutDownServer := startTestServer(t, pool, mockKeyGen, new(MockGenerator))
	assert.NoError(t, err)

	// Create a user for the model service tests
	userJSON, err := os.ReadFile("../../testdata/valid_user.json")
	assert.NoError(t, err)
	aliceKey, err := createUser(t, string(userJSON))
	assert.NoError(t, err)

	fmt.Printf("\nRunning model services tests ...\n\n")

	// Define test cases
	tt := []struct {
		name         string
		method       string
		requestPath  string
		bodyPath     string
		apiKey       string
		expectBody   string
		expectStatus int16
	}{
		{
			name:         "Put model service, everything valid",
			method:       http.MethodPut,
			requestPath:  "/v1/model-services/alice/my-llama",
			bodyPath:     "../../testdata/valid_model_service.json",
			apiKey:       aliceKey,
			expectBody:   "{\n  \"$schema\": \"http://localhost:8080/schemas/UploadModelServiceResponseBody.json\",\n  \"owner\": \"alice\",\n  \"model_service_handle\": \"my-llama\",\n  \"model_service_id\": 1\n}\n",
			expectStatus: http.StatusCreated,
		},
		{
			name:         "Put model service, handle mismatch",
			method:       http.MethodPut,
			requestPath:  "/v1/model-services/alice/other-llama",
			bodyPath:     "../../testdata/valid_model_service.json",
			apiKey:       aliceKey,
			expectBody:   "{\n  \"$schema\": \"http://localhost:8080/schemas/ErrorModel.json\",\n  \"title\": \"Bad Request\",\n  \"status\": 400,\n  \"detail\": \"model service handle in URL (\\\"other-llama\\\") does not match model service handle in body (\\\"my-llama\\\")\"\n}\n",
			expectStatus: http.StatusBadRequest,
		},
		{
			name:         "Put model service, invalid request defaults",
			method:       http.MethodPut,
			requestPath:  "/v1/model-services/alice/my-llama",
			bodyPath:     "../../testdata/invalid_model_service.json",
			apiKey:       aliceKey,
			expectBody:   "",
			expectStatus: http.StatusUnprocessableEntity,
		},
		{
			name:         "Put model service, no API key",
			method:       http.MethodPut,
			requestPath:  "/v1/model-services/alice/my-llama",
			bodyPath:     "../../testdata/valid_model_service.json",
			apiKey:       "",
			expectBody:   "{\n  \"$schema\": \"http://localhost:8080/schemas/ErrorModel.json\",\n  \"title\": \"Unauthorized\",\n  \"status\": 401,\n  \"detail\": \"Authentication failed. Perhaps a missing or incorrect API key?\"\n}\n",
			expectStatus: http.StatusUnauthorized,
		},
		{
			name:         "Get model service, decrypted API key",
			method:       http.MethodGet,
			requestPath:  "/v1/model-services/alice/my-llama",
			bodyPath:     "",
			apiKey:       aliceKey,
			expectBody:   "{\n  \"owner\": \"alice\",\n  \"model_service_handle\": \"my-llama\",\n  \"model_service_id\": 1,\n  \"endpoint\": \"http://localhost:11434\",\n  \"description\": \"Local Ollama instance\",\n  \"api_key\": \"secret-token\",\n  \"api_standard\": \"ollama\",\n  \"model\": \"llama3.2\",\n  \"request_defaults\": {\n    \"max_tokens\": 64,\n    \"temperature\": 0.2\n  }\n}\n",
			expectStatus: http.StatusOK,
		},
		{
			name:         "Get all model services of a user",
			method:       http.MethodGet,
			requestPath:  "/v1/model-services/alice",
			bodyPath:     "",
			apiKey:       aliceKey,
			expectBody:   "[\n  {\n    \"owner\": \"alice\",\n    \"model_service_handle\": \"my-llama\",\n    \"model_service_id\": 1,\n    \"endpoint\": \"http://localhost:11434\",\n    \"description\": \"Local Ollama instance\",\n    \"api_key\": \"secret-token\",\n    \"api_standard\": \"ollama\",\n    \"model\": \"llama3.2\",\n    \"request_defaults\": {\n      \"max_tokens\": 64,\n      \"temperature\": 0.2\n    }\n  }\n]\n",
			expectStatus: http.StatusOK,
		},
		{
			name:         "Get nonexistent model service",
			method:       http.MethodGet,
			requestPath:  "/v1/model-services/alice/no-such-service",
			bodyPath:     "",
			apiKey:       aliceKey,
			expectBody:   "{\n  \"$schema\": \"http://localhost:8080/schemas/ErrorModel.json\",\n  \"title\": \"Not Found\",\n  \"status\": 404,\n  \"detail\": \"model service no-such-service for user alice not found\"\n}\n",
			expectStatus: http.StatusNotFound,
		},
		{
			name:         "Delete model service",
			method:       http.MethodDelete,
			requestPath:  "/v1/model-services/alice/my-llama",
			bodyPath:     "",
			apiKey:       aliceKey,
			expectBody:   "",
			expectStatus: http.StatusNoContent,
		},
		{
			name:         "Get model services after delete",
			method:       http.MethodGet,
			requestPath:  "/v1/model-services/alice",
			bodyPath:     "",
			apiKey:       aliceKey,
			expectBody:   "{\n  \"$schema\": \"http://localhost:8080/schemas/ErrorModel.json\",\n  \"title\": \"Not Found\",\n  \"status\": 404,\n  \"detail\": \"no model services for alice found\"\n}\n",
			expectStatus: http.StatusNotFound,
		},
	}

	for _, v := range tt {
		t.Run(v.name, func(t *testing.T) {

			// We need to handle the body only for PUT and POST requests
			// For GET and DELETE requests, the body is nil
			reqBody := io.Reader(nil)
			if v.method == http.MethodGet || v.method == http.MethodDelete {
				reqBody = nil
			} else {
				f, err := os.Open(v.bodyPath)
				assert.NoError(t, err)
				defer func() {
					if err := f.Close(); err != nil {
						t.Fatal(err)
					}
				}()
				b := new(bytes.Buffer)
				_, err = io.Copy(b, f)
				assert.NoError(t, err)
				reqBody = bytes.NewReader(b.Bytes())
			}
			requestURL := fmt.Sprintf("http://%v:%d%v", options.Host, options.Port, v.requestPath)
			req, err := http.NewRequest(v.method, requestURL, reqBody)
			assert.NoError(t, err)
			req.Header.Set("Authorization", "Bearer "+v.apiKey)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Errorf("Error sending request: %v\n", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != int(v.expectStatus) {
				t.Errorf("Expected status code %d, got %s\n", v.expectStatus, resp.Status)
			} else {
				t.Logf("Expected status code %d, got %s\n", v.expectStatus, resp.Status)
			}

			respBody, err := io.ReadAll(resp.Body) // response body is []byte
			assert.NoError(t, err)
			formattedResp := ""
			if v.expectBody != "" {
				fr := new(bytes.Buffer)
				err = json.Indent(fr, respBody, "", "  ")
				assert.NoError(t, err)
				formattedResp = fr.String()
			}
			assert.Equal(t, v.expectBody, formattedResp, "they should be equal")
		})
	}

	// The backend API key must not be stored in the clear.
	t.Run("API key is encrypted at rest", func(t *testing.T) {
		serviceJSON, err := os.ReadFile("../../testdata/valid_model_service.json")
		assert.NoError(t, err)
		_, err = createModelService(t, string(serviceJSON), "alice", aliceKey)
		assert.NoError(t, err)

		var storedKey string
		err = pool.QueryRow(context.Background(),
			"SELECT api_key FROM model_services WHERE owner = $1 AND model_service_handle = $2",
			"alice", "my-llama").Scan(&storedKey)
		assert.NoError(t, err)
		assert.NotEmpty(t, storedKey)
		assert.NotEqual(t, "secret-token", storedKey)

		plaintext, err := encKey.DecryptFromBase64(storedKey)
		assert.NoError(t, err)
		assert.Equal(t, "secret-token", plaintext)
	})

	// Verify that the expectations regarding the mock key generation were met
	mockKeyGen.AssertExpectations(t)

	// Cleanup removes the user and model services created by the tests
	t.Cleanup(func() {
		fmt.Print("\n\nRunning cleanup ...\n\n")
		resetDatabase(t)
		fmt.Print("Shutting down server\n\n")
		shutDownServer()
	})

}
