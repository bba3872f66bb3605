package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/mauriken/textgen-api/internal/crypto"
	"github.com/mauriken/textgen-api/internal/database"
	"github.com/mauriken/textgen-api/internal/models"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// putModelServiceFunc creates or updates a model service. The backend API key
// is encrypted before it is stored.
func putModelServiceFunc(ctx context.Context, input *models.PutModelServiceRequest) (*models.UploadModelServiceResponse, error) {
	if input.ModelServiceHandle != input.Body.ModelServiceHandle {
		return nil, huma.Error400BadRequest(fmt.Sprintf("model service handle in URL (\"%s\") does not match model service handle in body (\"%s\")", input.ModelServiceHandle, input.Body.ModelServiceHandle))
	}

	// Check if user exists
	u, err := getUserFunc(ctx, &models.GetUserRequest{UserHandle: input.UserHandle})
	if err != nil {
		return nil, err
	}
	if u.Body.UserHandle != input.UserHandle {
		return nil, huma.Error404NotFound(fmt.Sprintf("user %s not found", input.UserHandle))
	}

	// Validate the request defaults against the generation parameter schema
	err = ValidateRequestDefaults(input.Body.RequestDefaults)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("invalid request defaults. %v", err))
	}

	// Get the database connection pool from the context
	pool, err := GetDBPool(ctx)
	if err != nil {
		return nil, err
	}

	// Get the encryption key from the context
	encKey, err := GetEncKey(ctx)
	if err != nil {
		return nil, err
	}

	// Encrypt the backend API key before storing it
	storedKey := ""
	if input.Body.APIKey != "" {
		storedKey, err = encKey.EncryptToBase64(input.Body.APIKey)
		if err != nil {
			return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to encrypt API key. %v", err))
		}
	}

	// Run the query
	queries := database.New(pool)
	service, err := queries.UpsertModelService(ctx, database.UpsertModelServiceParams{
		Owner:              input.UserHandle,
		ModelServiceHandle: input.ModelServiceHandle,
		Endpoint:           input.Body.Endpoint,
		Description:        pgtype.Text{String: input.Body.Description, Valid: true},
		APIKey:             pgtype.Text{String: storedKey, Valid: true},
		APIStandard:        input.Body.APIStandard,
		Model:              input.Body.Model,
		RequestDefaults:    input.Body.RequestDefaults,
	})
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to upload model service. %v", err))
	}

	// Build response
	response := &models.UploadModelServiceResponse{}
	response.Body.Owner = service.Owner
	response.Body.ModelServiceHandle = service.ModelServiceHandle
	response.Body.ModelServiceID = int(service.ModelServiceID)

	return response, nil
}

// Create a model service (without a handle being present in the URL)
func postModelServiceFunc(ctx context.Context, input *models.PostModelServiceRequest) (*models.UploadModelServiceResponse, error) {
	return putModelServiceFunc(ctx, &models.PutModelServiceRequest{UserHandle: input.UserHandle, ModelServiceHandle: input.Body.ModelServiceHandle, Body: input.Body})
}

// retrieveModelService loads a model service row and decrypts its API key.
func retrieveModelService(ctx context.Context, owner string, handle string) (*models.ModelService, error) {
	// Get the database connection pool from the context
	pool, err := GetDBPool(ctx)
	if err != nil {
		return nil, err
	}

	// Get the encryption key from the context
	encKey, err := GetEncKey(ctx)
	if err != nil {
		return nil, err
	}

	// Run the query
	queries := database.New(pool)
	service, err := queries.RetrieveModelService(ctx, database.RetrieveModelServiceParams{Owner: owner, ModelServiceHandle: handle})
	if err != nil {
		if err.Error() == "no rows in result set" {
			return nil, huma.Error404NotFound(fmt.Sprintf("model service %s for user %s not found", handle, owner))
		}
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to retrieve model service %s for user %s. %v", handle, owner, err))
	}

	apiKey, err := decryptServiceKey(encKey, service.APIKey.String)
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to decrypt API key of model service %s for user %s. %v", handle, owner, err))
	}

	return &models.ModelService{
		Owner:              service.Owner,
		ModelServiceHandle: service.ModelServiceHandle,
		ModelServiceID:     int(service.ModelServiceID),
		Endpoint:           service.Endpoint,
		Description:        service.Description.String,
		APIKey:             apiKey,
		APIStandard:        service.APIStandard,
		Model:              service.Model,
		RequestDefaults:    service.RequestDefaults,
	}, nil
}

// decryptServiceKey decrypts a stored backend API key. Rows written before
// encryption was introduced hold the key in the clear and are passed through.
func decryptServiceKey(encKey *crypto.EncryptionKey, storedKey string) (string, error) {
	if storedKey == "" {
		return "", nil
	}
	if _, err := base64.StdEncoding.DecodeString(storedKey); err != nil {
		return storedKey, nil
	}
	plaintext, err := encKey.DecryptFromBase64(storedKey)
	if err != nil {
		return storedKey, nil
	}
	return plaintext, nil
}

func getModelServiceFunc(ctx context.Context, input *models.GetModelServiceRequest) (*models.GetModelServiceResponse, error) {
	// Check if user exists
	u, err := getUserFunc(ctx, &models.GetUserRequest{UserHandle: input.UserHandle})
	if err != nil {
		return nil, err
	}
	if u.Body.UserHandle != input.UserHandle {
		return nil, huma.Error404NotFound(fmt.Sprintf("user %s not found", input.UserHandle))
	}

	service, err := retrieveModelService(ctx, input.UserHandle, input.ModelServiceHandle)
	if err != nil {
		return nil, err
	}

	// Build response
	response := &models.GetModelServiceResponse{}
	response.Body = *service

	return response, nil
}

func getUserModelServicesFunc(ctx context.Context, input *models.GetUserModelServicesRequest) (*models.GetUserModelServicesResponse, error) {
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

	// Get the encryption key from the context
	encKey, err := GetEncKey(ctx)
	if err != nil {
		return nil, err
	}

	// Run the query
	queries := database.New(pool)
	services, err := queries.GetModelServicesByUser(ctx, database.GetModelServicesByUserParams{Owner: input.UserHandle, Limit: int32(input.Limit), Offset: int32(input.Offset)})
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to retrieve model services. %v", err))
	}
	if len(services) == 0 {
		return nil, huma.Error404NotFound(fmt.Sprintf("no model services for %s found", input.UserHandle))
	}

	// Build response
	ms := []models.ModelService{}
	for _, service := range services {
		apiKey, err := decryptServiceKey(encKey, service.APIKey.String)
		if err != nil {
			return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to decrypt API key of model service %s. %v", service.ModelServiceHandle, err))
		}
		ms = append(ms, models.ModelService{
			Owner:              service.Owner,
			ModelServiceHandle: service.ModelServiceHandle,
			ModelServiceID:     int(service.ModelServiceID),
			Endpoint:           service.Endpoint,
			Description:        service.Description.String,
			APIKey:             apiKey,
			APIStandard:        service.APIStandard,
			Model:              service.Model,
			RequestDefaults:    service.RequestDefaults,
		})
	}
	response := &models.GetUserModelServicesResponse{}
	response.Body = ms

	return response, nil
}

func deleteModelServiceFunc(ctx context.Context, input *models.DeleteModelServiceRequest) (*models.DeleteModelServiceResponse, error) {
	// Check if user exists
	u, err := getUserFunc(ctx, &models.GetUserRequest{UserHandle: input.UserHandle})
	if err != nil {
		return nil, err
	}
	if u.Body.UserHandle != input.UserHandle {
		return nil, huma.Error404NotFound(fmt.Sprintf("user %s not found", input.UserHandle))
	}

	// Check if model service exists
	_, err = retrieveModelService(ctx, input.UserHandle, input.ModelServiceHandle)
	if err != nil {
		return nil, err
	}

	// Get the database connection pool from the context
	pool, err := GetDBPool(ctx)
	if err != nil {
		return nil, err
	}

	// Run the query
	queries := database.New(pool)
	err = queries.DeleteModelService(ctx, database.DeleteModelServiceParams{Owner: input.UserHandle, ModelServiceHandle: input.ModelServiceHandle})
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to delete model service %s for user %s. %v", input.ModelServiceHandle, input.UserHandle, err))
	}

	// Build response
	response := &models.DeleteModelServiceResponse{}

	return response, nil
}

// RegisterModelServicesRoutes registers the routes for the management of model services
func RegisterModelServicesRoutes(pool *pgxpool.Pool, encKey *crypto.EncryptionKey, api huma.API) error {
	// Define huma.Operations for each route
	postModelServiceOp := huma.Operation{
		OperationID:   "postModelService",
		Method:        http.MethodPost,
		Path:          "/v1/model-services/{user_handle}",
		DefaultStatus: http.StatusCreated,
		Summary:       "Create model service",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
			{"ownerAuth": []string{"owner"}},
		},
		Tags: []string{"model-services"},
	}
	putModelServiceOp := huma.Operation{
		OperationID:   "putModelService",
		Method:        http.MethodPut,
		Path:          "/v1/model-services/{user_handle}/{model_service_handle}",
		DefaultStatus: http.StatusCreated,
		Summary:       "Create or update model service",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
			{"ownerAuth": []string{"owner"}},
		},
		Tags: []string{"model-services"},
	}
	getUserModelServicesOp := huma.Operation{
		OperationID: "getUserModelServices",
		Method:      http.MethodGet,
		Path:        "/v1/model-services/{user_handle}",
		Summary:     "Get all model services for a user",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
			{"ownerAuth": []string{"owner"}},
		},
		Tags: []string{"model-services"},
	}
	getModelServiceOp := huma.Operation{
		OperationID: "getModelService",
		Method:      http.MethodGet,
		Path:        "/v1/model-services/{user_handle}/{model_service_handle}",
		Summary:     "Get a specific model service for a user",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
			{"ownerAuth": []string{"owner"}},
		},
		Tags: []string{"model-services"},
	}
	deleteModelServiceOp := huma.Operation{
		OperationID:   "deleteModelService",
		Method:        http.MethodDelete,
		Path:          "/v1/model-services/{user_handle}/{model_service_handle}",
		DefaultStatus: http.StatusNoContent,
		Summary:       "Delete a user's model service",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
			{"ownerAuth": []string{"owner"}},
		},
		Tags: []string{"model-services"},
	}

	huma.Register(api, postModelServiceOp, addPoolToContext(pool, addEncKeyToContext(encKey, postModelServiceFunc)))
	huma.Register(api, putModelServiceOp, addPoolToContext(pool, addEncKeyToContext(encKey, putModelServiceFunc)))
	huma.Register(api, getUserModelServicesOp, addPoolToContext(pool, addEncKeyToContext(encKey, getUserModelServicesFunc)))
	huma.Register(api, getModelServiceOp, addPoolToContext(pool, addEncKeyToContext(encKey, getModelServiceFunc)))
	huma.Register(api, deleteModelServiceOp, addPoolToContext(pool, addEncKeyToContext(encKey, deleteModelServiceFunc)))
	return nil
}
