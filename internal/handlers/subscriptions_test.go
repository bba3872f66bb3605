package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionFunc(t *testing.T) {
	// Get the database connection pool from package variable
	pool := connPool

	// Create a mock key generator
	mockKeyGen := new(MockKeyGen)
	mockKeyGen.On("RandomKey", 32).Return("1234567890123456789012345678901212345678901234567890123456789012", nil)

	// Start the server
	err, shutDownServer := startTestServer(t, pool, mockKeyGen, new(MockGenerator))
	assert.NoError(t, err)

	// Create a user for the subscription tests
	userJSON, err := os.ReadFile("../../testdata/valid_user.json")
	assert.NoError(t, err)
	aliceKey, err := createUser(t, string(userJSON))
	assert.NoError(t, err)

	fmt.Printf("\nRunning subscriptions tests ...\n\n")

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
			name:         "Post subscription, everything valid",
			method:       http.MethodPost,
			requestPath:  "/v1/users/alice/subscription",
			bodyPath:     "../../testdata/valid_subscription.json",
			apiKey:       aliceKey,
			expectBody:   "{\n  \"$schema\": \"http://localhost:8080/schemas/UploadSubscriptionResponseBody.json\",\n  \"user_handle\": \"alice\",\n  \"periods\": 1\n}\n",
			expectStatus: http.StatusCreated,
		},
		{
			name:         "Post subscription again",
			method:       http.MethodPost,
			requestPath:  "/v1/users/alice/subscription",
			bodyPath:     "../../testdata/valid_subscription.json",
			apiKey:       aliceKey,
			expectBody:   "{\n  \"$schema\": \"http://localhost:8080/schemas/ErrorModel.json\",\n  \"title\": \"Conflict\",\n  \"status\": 409,\n  \"detail\": \"user alice already has a subscription\"\n}\n",
			expectStatus: http.StatusConflict,
		},
		{
			name:         "Post subscription, no API key",
			method:       http.MethodPost,
			requestPath:  "/v1/users/alice/subscription",
			bodyPath:     "../../testdata/valid_subscription.json",
			apiKey:       "",
			expectBody:   "{\n  \"$schema\": \"http://localhost:8080/schemas/ErrorModel.json\",\n  \"title\": \"Unauthorized\",\n  \"status\": 401,\n  \"detail\": \"Authentication failed. Perhaps a missing or incorrect API key?\"\n}\n",
			expectStatus: http.StatusUnauthorized,
		},
		{
			name:         "Post subscription, empty periods",
			method:       http.MethodPost,
			requestPath:  "/v1/users/alice/subscription",
			bodyPath:     "../../testdata/invalid_subscription.json",
			apiKey:       aliceKey,
			expectBody:   "",
			expectStatus: http.StatusUnprocessableEntity,
		},
		{
			name:         "Get subscription, owner key",
			method:       http.MethodGet,
			requestPath:  "/v1/users/alice/subscription",
			bodyPath:     "",
			apiKey:       aliceKey,
			expectBody:   "{\n  \"user_handle\": \"alice\",\n  \"periods\": [\n    {\n      \"start_date\": \"2024-01-01T00:00:00Z\",\n      \"end_date\": \"2024-12-31T23:59:59Z\",\n      \"amount\": 4900\n    }\n  ]\n}\n",
			expectStatus: http.StatusOK,
		},
		{
			name:         "Patch subscription, append a period",
			method:       http.MethodPatch,
			requestPath:  "/v1/users/alice/subscription",
			bodyPath:     "../../testdata/subscription_period.json",
			apiKey:       aliceKey,
			expectBody:   "{\n  \"$schema\": \"http://localhost:8080/schemas/UploadSubscriptionResponseBody.json\",\n  \"user_handle\": \"alice\",\n  \"periods\": 2\n}\n",
			expectStatus: http.StatusOK,
		},
		{
			name:         "Get all subscriptions, admin key",
			method:       http.MethodGet,
			requestPath:  "/v1/subscriptions",
			bodyPath:     "",
			apiKey:       options.AdminKey,
			expectBody:   "[\n  {\n    \"user_handle\": \"alice\",\n    \"periods\": [\n      {\n        \"start_date\": \"2024-01-01T00:00:00Z\",\n        \"end_date\": \"2024-12-31T23:59:59Z\",\n        \"amount\": 4900\n      },\n      {\n        \"start_date\": \"2025-01-01T00:00:00Z\",\n        \"end_date\": \"2025-12-31T23:59:59Z\",\n        \"amount\": 5900\n      }\n    ]\n  }\n]\n",
			expectStatus: http.StatusOK,
		},
		{
			name:         "Get all subscriptions, owner key",
			method:       http.MethodGet,
			requestPath:  "/v1/subscriptions",
			bodyPath:     "",
			apiKey:       aliceKey,
			expectBody:   "{\n  \"$schema\": \"http://localhost:8080/schemas/ErrorModel.json\",\n  \"title\": \"Unauthorized\",\n  \"status\": 401,\n  \"detail\": \"Authentication failed. Perhaps a missing or incorrect API key?\"\n}\n",
			expectStatus: http.StatusUnauthorized,
		},
		{
			name:         "Post subscription for nonexistent user",
			method:       http.MethodPost,
			requestPath:  "/v1/users/alfons/subscription",
			bodyPath:     "../../testdata/valid_subscription.json",
			apiKey:       options.AdminKey,
			expectBody:   "{\n  \"$schema\": \"http://localhost:8080/schemas/ErrorModel.json\",\n  \"title\": \"Not Found\",\n  \"status\": 404,\n  \"detail\": \"user alfons not found\"\n}\n",
			expectStatus: http.StatusNotFound,
		},
		{
			name:         "Delete subscription",
			method:       http.MethodDelete,
			requestPath:  "/v1/users/alice/subscription",
			bodyPath:     "",
			apiKey:       aliceKey,
			expectBody:   "",
			expectStatus: http.StatusNoContent,
		},
		{
			name:         "Get subscription after delete",
			method:       http.MethodGet,
			requestPath:  "/v1/users/alice/subscription",
			bodyPath:     "",
			apiKey:       aliceKey,
			expectBody:   "{\n  \"$schema\": \"http://localhost:8080/schemas/ErrorModel.json\",\n  \"title\": \"Not Found\",\n  \"status\": 404,\n  \"detail\": \"user alice has no subscription\"\n}\n",
			expectStatus: http.StatusNotFound,
		},
		{
			name:         "Patch subscription creates it if absent",
			method:       http.MethodPatch,
			requestPath:  "/v1/users/alice/subscription",
			bodyPath:     "../../testdata/subscription_period.json",
			apiKey:       aliceKey,
			expectBody:   "{\n  \"$schema\": \"http://localhost:8080/schemas/UploadSubscriptionResponseBody.json\",\n  \"user_handle\": \"alice\",\n  \"periods\": 1\n}\n",
			expectStatus: http.StatusOK,
		},
	}

	for _, v := range tt {
		t.Run(v.name, func(t *testing.T) {

			// We need to handle the body only for PATCH and POST requests
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

	// Verify that the expectations regarding the mock key generation were met
	mockKeyGen.AssertExpectations(t)

	// Cleanup removes the user and subscription created by the tests
	t.Cleanup(func() {
		fmt.Print("\n\nRunning cleanup ...\n\n")
		resetDatabase(t)
		fmt.Print("Shutting down server\n\n")
		shutDownServer()
	})

}
