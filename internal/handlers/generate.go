package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mauriken/textgen-api/internal/crypto"
	"github.com/mauriken/textgen-api/internal/database"
	"github.com/mauriken/textgen-api/internal/llm"
	"github.com/mauriken/textgen-api/internal/models"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PublicUserHandle is the handle under which unauthenticated generations are
// recorded.
const PublicUserHandle = "public"

// runGeneration forwards the prompt to the given backend, records the
// completed generation and returns the model's continuation verbatim.
func runGeneration(ctx context.Context, generator llm.Generator, options llm.Options, userHandle string, prompt string) (*models.GenerateResponse, error) {
	// Get the database connection pool from the context
	pool, err := GetDBPool(ctx)
	if err != nil {
		return nil, err
	}

	// Call the backend
	start := time.Now()
	result, err := generator.Generate(ctx, prompt, options)
	if err != nil {
		var llmErr *llm.Error
		if errors.As(err, &llmErr) && llmErr.Type == llm.ErrTypeInvalidRequest {
			return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("generation backend rejected the prompt. %v", err))
		}
		return nil, huma.Error502BadGateway(fmt.Sprintf("generation backend failed. %v", err))
	}
	duration := time.Since(start)

	// Record the generation
	queries := database.New(pool)
	err = queries.InsertGeneration(ctx, database.InsertGenerationParams{
		GenerationID: uuid.New().String(),
		UserHandle:   userHandle,
		Model:        result.Model,
		PromptChars:  int32(len(prompt)),
		OutputChars:  int32(len(result.Text)),
		DurationMS:   int32(duration.Milliseconds()),
	})
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to record generation. %v", err))
	}

	// Build the response. The generated text is returned verbatim as plain
	// text, not wrapped in a JSON document.
	response := &models.GenerateResponse{}
	response.ContentType = "text/plain; charset=utf-8"
	response.Body = []byte(result.Text)
	return response, nil
}

// postGenerateFunc generates a continuation for a prompt with the default
// backend.
func postGenerateFunc(ctx context.Context, input *models.GenerateRequest) (*models.GenerateResponse, error) {
	// Get the default generation backend from the context
	generator, err := GetGenerator(ctx)
	if err != nil {
		return nil, err
	}

	return runGeneration(ctx, generator, llm.Options{}, PublicUserHandle, input.Body.Prompt)
}

// postGenerateWithServiceFunc generates a continuation for a prompt with one
// of the user's registered model services.
func postGenerateWithServiceFunc(ctx context.Context, input *models.GenerateWithServiceRequest) (*models.GenerateResponse, error) {
	// Look up the model service (includes the user check)
	service, err := retrieveModelService(ctx, input.UserHandle, input.ModelServiceHandle)
	if err != nil {
		return nil, err
	}

	// Build the backend client for the service
	generator, err := llm.NewGenerator(ctx, llm.Config{
		Backend:  service.APIStandard,
		Endpoint: service.Endpoint,
		Model:    service.Model,
		APIKey:   service.APIKey,
	})
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to build backend client for model service %s. %v", input.ModelServiceHandle, err))
	}

	// Apply the service's request defaults
	options, err := ParseRequestDefaults(service.RequestDefaults)
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to parse request defaults of model service %s. %v", input.ModelServiceHandle, err))
	}

	return runGeneration(ctx, generator, options, input.UserHandle, input.Body.Prompt)
}

// Get the generation history of a specific user
func getGenerationsFunc(ctx context.Context, input *models.GetGenerationsRequest) (*models.GetGenerationsResponse, error) {
	// Check if user exists
	u, err := getUserFunc(ctx, &models.GetUserRequest{UserHandle: input.UserHandle})
	if err != nil {
		return nil, err
	}
	if u.Body.UserHandle != input.UserHandle {
		return nil, huma.Error404NotFound(fmt.Sprintf("user %s not found", input.UserHandle))
	}

	// Get the database connection pool from the context
	pool, err := GetDBPool(ctx)
	if err != nil {
		return nil, err
	}

	// Run the query
	queries := database.New(pool)
	generations, err := queries.GetGenerationsByUser(ctx, database.GetGenerationsByUserParams{UserHandle: input.UserHandle, Limit: int32(input.Limit), Offset: int32(input.Offset)})
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to get generations for user %s. %v", input.UserHandle, err))
	}
	if len(generations) == 0 {
		return nil, huma.Error404NotFound(fmt.Sprintf("no generations for %s found", input.UserHandle))
	}

	// Build response
	records := models.GenerationRecords{}
	for _, g := range generations {
		records = append(records, models.GenerationRecord{
			GenerationID: g.GenerationID,
			UserHandle:   g.UserHandle,
			Model:        g.Model,
			PromptChars:  int(g.PromptChars),
			OutputChars:  int(g.OutputChars),
			DurationMS:   int(g.DurationMS),
			CreatedAt:    g.CreatedAt.Time,
		})
	}
	response := &models.GetGenerationsResponse{}
	response.Body = records

	return response, nil
}

// RegisterGenerateRoutes registers the text generation routes with the API
func RegisterGenerateRoutes(pool *pgxpool.Pool, generator llm.Generator, encKey *crypto.EncryptionKey, api huma.API) error {
	// Define huma.Operations for each route
	postGenerateOp := huma.Operation{
		OperationID: "postGenerate",
		Method:      http.MethodPost,
		Path:        "/generate",
		Summary:     "Generate a continuation of a prompt with the default backend",
		Tags:        []string{"generate"},
	}
	postGenerateWithServiceOp := huma.Operation{
		OperationID: "postGenerateWithService",
		Method:      http.MethodPost,
		Path:        "/v1/generate/{user_handle}/{model_service_handle}",
		Summary:     "Generate a continuation of a prompt with a registered model service",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
			{"ownerAuth": []string{"owner"}},
		},
		Tags: []string{"generate"},
	}
	getGenerationsOp := huma.Operation{
		OperationID: "getGenerations",
		Method:      http.MethodGet,
		Path:        "/v1/users/{user_handle}/generations",
		Summary:     "Get the generation history of a specific user",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
			{"ownerAuth": []string{"owner"}},
		},
		Tags: []string{"generate"},
	}

	// Register the routes with middleware
	huma.Register(api, postGenerateOp, addPoolToContext(pool, addGeneratorToContext(generator, postGenerateFunc)))
	huma.Register(api, postGenerateWithServiceOp, addPoolToContext(pool, addEncKeyToContext(encKey, postGenerateWithServiceFunc)))
	huma.Register(api, getGenerationsOp, addPoolToContext(pool, getGenerationsFunc))
	return nil
}
