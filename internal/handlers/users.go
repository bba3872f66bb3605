package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mauriken/textgen-api/internal/auth"
	"github.com/mauriken/textgen-api/internal/database"
	"github.com/mauriken/textgen-api/internal/models"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// putUserFunc creates or updates a user. For a new user a fresh API key is
// minted and returned once in the response; only its hash is stored.
func putUserFunc(ctx context.Context, input *models.PutUserRequest) (*models.UploadUserResponse, error) {
	if input.UserHandle != input.Body.UserHandle {
		return nil, huma.Error400BadRequest(fmt.Sprintf("user handle in URL (%s) does not match user handle in body (%v).", input.UserHandle, input.Body.UserHandle))
	}

	// Get the database connection pool from the context
	pool, err := GetDBPool(ctx)
	if err != nil {
		return nil, err
	} else if pool == nil {
		return nil, huma.Error500InternalServerError("database connection pool is nil")
	}

	// Get the API key generator from the context
	keyGen, err := GetKeyGen(ctx)
	if err != nil {
		return nil, err
	}

	// Check if user already exists
	queries := database.New(pool)
	u, err := queries.RetrieveUser(ctx, input.UserHandle)
	if err != nil && err.Error() != "no rows in result set" {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to check if user %s already exists. %v", input.UserHandle, err))
	}
	rawKey := ""
	keyHash := ""
	if u.UserHandle == input.UserHandle {
		// User exists, keep the stored key. The raw key cannot be
		// recovered from the hash, so it is not echoed back.
		keyHash = u.APIKeyHash
	} else {
		// User does not exist, so create a new API key
		k, err := keyGen.RandomKey(32)
		if err != nil {
			return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to create API key for user %s. %v", input.UserHandle, err))
		}
		rawKey = k
		keyHash = auth.HashKey(k)
	}
	user := database.UpsertUserParams{
		UserHandle: input.UserHandle,
		Name:       pgtype.Text{String: input.Body.Name, Valid: true},
		Email:      input.Body.Email,
		APIKeyHash: keyHash,
	}

	// Run the query
	u, err = queries.UpsertUser(ctx, user)
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to upload user. %v", err))
	}

	// Build the response
	response := &models.UploadUserResponse{}
	response.Body.UserHandle = u.UserHandle
	if rawKey != "" {
		response.Body.APIKey = rawKey
	} else {
		response.Body.APIKey = "not changed"
	}
	return response, nil
}

// Create a user (without a handle being present in the URL)
func postUserFunc(ctx context.Context, input *models.PostUserRequest) (*models.UploadUserResponse, error) {
	u, err := putUserFunc(ctx, &models.PutUserRequest{UserHandle: input.Body.UserHandle, Body: input.Body})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Get all users
func getUsersFunc(ctx context.Context, input *models.GetUsersRequest) (*models.GetUsersResponse, error) {
	// Get the database connection pool from the context
	pool, err := GetDBPool(ctx)
	if err != nil {
		return nil, err
	} else if pool == nil {
		return nil, huma.Error500InternalServerError("database connection pool is nil")
	}

	// Run the query
	queries := database.New(pool)
	allUsers, err := queries.GetUsers(ctx, database.GetUsersParams{Limit: int32(input.Limit), Offset: int32(input.Offset)})
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to get list of users. %v", err))
	}
	if len(allUsers) == 0 {
		return nil, huma.Error404NotFound("no users found.")
	}

	// Build the response
	response := &models.GetUsersResponse{}
	response.Body = allUsers

	return response, nil
}

// Get a specific user
func getUserFunc(ctx context.Context, input *models.GetUserRequest) (*models.GetUserResponse, error) {
	// Get the database connection pool from the context
	pool, err := GetDBPool(ctx)
	if err != nil {
		return nil, err
	} else if pool == nil {
		return nil, huma.Error500InternalServerError("database connection pool is nil")
	}

	// Run the query
	queries := database.New(pool)
	u, err := queries.RetrieveUser(ctx, input.UserHandle)
	if err != nil {
		return nil, huma.Error404NotFound(fmt.Sprintf("user %s not found", input.UserHandle))
	}

	// Attach the subscription, if the user has one
	var subscription *models.Subscription
	exists, err := queries.SubscriptionExists(ctx, input.UserHandle)
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to check subscription for user %s. %v", input.UserHandle, err))
	}
	if exists {
		periods, err := queries.GetPeriodsByUser(ctx, input.UserHandle)
		if err != nil {
			return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to get subscription periods for user %s. %v", input.UserHandle, err))
		}
		subscription = &models.Subscription{UserHandle: input.UserHandle, Periods: periodsToModels(periods)}
	}

	// Attach the handles of the user's model services
	serviceHandles, err := queries.GetModelServiceHandlesByUser(ctx, input.UserHandle)
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to get model services for user %s. %v", input.UserHandle, err))
	}

	// Build the response
	returnUser := &models.User{
		UserHandle:    u.UserHandle,
		Name:          u.Name.String,
		Email:         u.Email,
		APIKey:        u.APIKeyHash,
		Subscription:  subscription,
		ModelServices: serviceHandles,
	}
	response := &models.GetUserResponse{}
	response.Body = *returnUser

	return response, nil
}

// Delete a specific user
func deleteUserFunc(ctx context.Context, input *models.DeleteUserRequest) (*models.DeleteUserResponse, error) {
	// Get the database connection pool from the context
	pool, err := GetDBPool(ctx)
	if err != nil {
		return nil, err
	} else if pool == nil {
		return nil, huma.Error500InternalServerError("database connection pool is nil")
	}

	// Check if user exists
	queries := database.New(pool)
	_, err = queries.RetrieveUser(ctx, input.UserHandle)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return nil, huma.Error404NotFound(fmt.Sprintf("user %s not found", input.UserHandle))
		}
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to check if user %s exists before deleting. %v", input.UserHandle, err))
	}

	// Run the query
	err = queries.DeleteUser(ctx, input.UserHandle)
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to delete user %s. %v", input.UserHandle, err))
	}

	// Build the response
	response := &models.DeleteUserResponse{}
	return response, nil
}

// RegisterUsersRoutes registers all the user administration routes with the API
func RegisterUsersRoutes(pool *pgxpool.Pool, keyGen RandomKeyGenerator, api huma.API) error {
	// Define huma.Operations for each route
	putUserOp := huma.Operation{
		OperationID:   "putUser",
		Method:        http.MethodPut,
		Path:          "/v1/users/{user_handle}",
		DefaultStatus: http.StatusCreated,
		Summary:       "Create or update a user",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
		},
		Tags: []string{"admin", "users"},
	}
	postUserOp := huma.Operation{
		OperationID:   "postUser",
		Method:        http.MethodPost,
		Path:          "/v1/users",
		DefaultStatus: http.StatusCreated,
		Summary:       "Create a user",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
		},
		Tags: []string{"admin", "users"},
	}
	getUsersOp := huma.Operation{
		OperationID: "getUsers",
		Method:      http.MethodGet,
		Path:        "/v1/users",
		Summary:     "Get information about all users",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
		},
		Tags: []string{"admin", "users"},
	}
	getUserOp := huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/v1/users/{user_handle}",
		Summary:     "Get information about a specific user",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
			{"ownerAuth": []string{"owner"}},
		},
		Tags: []string{"admin", "users"},
	}
	deleteUserOp := huma.Operation{
		OperationID:   "deleteUser",
		Method:        http.MethodDelete,
		Path:          "/v1/users/{user_handle}",
		DefaultStatus: http.StatusNoContent,
		Summary:       "Delete a specific user",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
		},
		Tags: []string{"admin", "users"},
	}

	// Register the routes with middleware
	huma.Register(api, putUserOp, addPoolToContext(pool, addKeyGenToContext(keyGen, putUserFunc)))
	huma.Register(api, postUserOp, addPoolToContext(pool, addKeyGenToContext(keyGen, postUserFunc)))
	huma.Register(api, getUsersOp, addPoolToContext(pool, getUsersFunc))
	huma.Register(api, getUserOp, addPoolToContext(pool, getUserFunc))
	huma.Register(api, deleteUserOp, addPoolToContext(pool, deleteUserFunc))
	return nil
}
