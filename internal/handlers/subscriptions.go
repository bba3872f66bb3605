package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mauriken/textgen-api/internal/database"
	"github.com/mauriken/textgen-api/internal/models"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// periodsToModels converts subscription period rows to their API representation.
func periodsToModels(periods []database.SubscriptionPeriod) models.Periods {
	ps := models.Periods{}
	for _, p := range periods {
		ps = append(ps, models.Period{
			StartDate: p.StartDate.Time,
			EndDate:   p.EndDate.Time,
			Amount:    int(p.Amount),
		})
	}
	return ps
}

// postSubscriptionFunc creates a subscription for a user. A user has at most
// one subscription, so a second create is rejected with 409. Renewals go
// through patchSubscriptionFunc instead.
func postSubscriptionFunc(ctx context.Context, input *models.PostSubscriptionRequest) (*models.UploadSubscriptionResponse, error) {
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

	// Execute all database operations within a transaction
	err = database.WithTransaction(ctx, pool, func(tx pgx.Tx) error {
		queries := database.New(tx)

		exists, err := queries.SubscriptionExists(ctx, input.UserHandle)
		if err != nil {
			return fmt.Errorf("unable to check if subscription exists. %v", err)
		}
		if exists {
			return huma.Error409Conflict(fmt.Sprintf("user %s already has a subscription", input.UserHandle))
		}

		// 1. Create the subscription
		err = queries.CreateSubscription(ctx, input.UserHandle)
		if err != nil {
			return fmt.Errorf("unable to create subscription. %v", err)
		}

		// 2. Append the initial billing periods
		for _, period := range input.Body.Periods {
			err = queries.AppendPeriod(ctx, database.AppendPeriodParams{
				UserHandle: input.UserHandle,
				StartDate:  pgtype.Timestamptz{Time: period.StartDate, Valid: true},
				EndDate:    pgtype.Timestamptz{Time: period.EndDate, Valid: true},
				Amount:     int32(period.Amount),
			})
			if err != nil {
				return fmt.Errorf("unable to append billing period. %v", err)
			}
		}

		return nil
	})

	if err != nil {
		if statusErr, ok := err.(huma.StatusError); ok {
			return nil, statusErr
		}
		return nil, huma.Error500InternalServerError(err.Error())
	}

	// Build response
	response := &models.UploadSubscriptionResponse{}
	response.Body.UserHandle = input.UserHandle
	response.Body.Periods = len(input.Body.Periods)

	return response, nil
}

// patchSubscriptionFunc appends a billing period to the user's subscription,
// creating the subscription first if the user has none yet.
func patchSubscriptionFunc(ctx context.Context, input *models.PatchSubscriptionRequest) (*models.UploadSubscriptionResponse, error) {
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

	// Execute all database operations within a transaction
	var periodCount int
	err = database.WithTransaction(ctx, pool, func(tx pgx.Tx) error {
		queries := database.New(tx)

		exists, err := queries.SubscriptionExists(ctx, input.UserHandle)
		if err != nil {
			return fmt.Errorf("unable to check if subscription exists. %v", err)
		}
		if !exists {
			err = queries.CreateSubscription(ctx, input.UserHandle)
			if err != nil {
				return fmt.Errorf("unable to create subscription. %v", err)
			}
		}

		err = queries.AppendPeriod(ctx, database.AppendPeriodParams{
			UserHandle: input.UserHandle,
			StartDate:  pgtype.Timestamptz{Time: input.Body.Period.StartDate, Valid: true},
			EndDate:    pgtype.Timestamptz{Time: input.Body.Period.EndDate, Valid: true},
			Amount:     int32(input.Body.Period.Amount),
		})
		if err != nil {
			return fmt.Errorf("unable to append billing period. %v", err)
		}

		periods, err := queries.GetPeriodsByUser(ctx, input.UserHandle)
		if err != nil {
			return fmt.Errorf("unable to count billing periods. %v", err)
		}
		periodCount = len(periods)

		return nil
	})

	if err != nil {
		return nil, huma.Error500InternalServerError(err.Error())
	}

	// Build response
	response := &models.UploadSubscriptionResponse{}
	response.Body.UserHandle = input.UserHandle
	response.Body.Periods = periodCount

	return response, nil
}

// Get the subscription of a specific user
func getSubscriptionFunc(ctx context.Context, input *models.GetSubscriptionRequest) (*models.GetSubscriptionResponse, error) {
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

	// Run the queries
	queries := database.New(pool)
	exists, err := queries.SubscriptionExists(ctx, input.UserHandle)
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to check if subscription exists. %v", err))
	}
	if !exists {
		return nil, huma.Error404NotFound(fmt.Sprintf("user %s has no subscription", input.UserHandle))
	}
	periods, err := queries.GetPeriodsByUser(ctx, input.UserHandle)
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to get billing periods for user %s. %v", input.UserHandle, err))
	}

	// Build response
	response := &models.GetSubscriptionResponse{}
	response.Body = models.Subscription{UserHandle: input.UserHandle, Periods: periodsToModels(periods)}

	return response, nil
}

// Get all subscriptions
func getSubscriptionsFunc(ctx context.Context, input *models.GetSubscriptionsRequest) (*models.GetSubscriptionsResponse, error) {
	// Get the database connection pool from the context
	pool, err := GetDBPool(ctx)
	if err != nil {
		return nil, err
	}

	// Run the queries
	queries := database.New(pool)
	handles, err := queries.GetSubscribedUsers(ctx, database.GetSubscribedUsersParams{Limit: int32(input.Limit), Offset: int32(input.Offset)})
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to get list of subscriptions. %v", err))
	}
	if len(handles) == 0 {
		return nil, huma.Error404NotFound("no subscriptions found.")
	}

	subscriptions := []models.Subscription{}
	for _, handle := range handles {
		periods, err := queries.GetPeriodsByUser(ctx, handle)
		if err != nil {
			return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to get billing periods for user %s. %v", handle, err))
		}
		subscriptions = append(subscriptions, models.Subscription{UserHandle: handle, Periods: periodsToModels(periods)})
	}

	// Build response
	response := &models.GetSubscriptionsResponse{}
	response.Body = subscriptions

	return response, nil
}

// Delete the subscription of a specific user
func deleteSubscriptionFunc(ctx context.Context, input *models.DeleteSubscriptionRequest) (*models.DeleteSubscriptionResponse, error) {
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

	// Check if subscription exists
	queries := database.New(pool)
	exists, err := queries.SubscriptionExists(ctx, input.UserHandle)
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to check if subscription exists. %v", err))
	}
	if !exists {
		return nil, huma.Error404NotFound(fmt.Sprintf("user %s has no subscription", input.UserHandle))
	}

	// Run the query (periods go away with the subscription via the FK cascade)
	err = queries.DeleteSubscription(ctx, input.UserHandle)
	if err != nil {
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to delete subscription of user %s. %v", input.UserHandle, err))
	}

	// Build response
	response := &models.DeleteSubscriptionResponse{}

	return response, nil
}

// RegisterSubscriptionsRoutes registers the routes for the management of subscriptions
func RegisterSubscriptionsRoutes(pool *pgxpool.Pool, api huma.API) error {
	// Define huma.Operations for each route
	postSubscriptionOp := huma.Operation{
		OperationID:   "postSubscription",
		Method:        http.MethodPost,
		Path:          "/v1/users/{user_handle}/subscription",
		DefaultStatus: http.StatusCreated,
		Summary:       "Create a subscription for a user",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
			{"ownerAuth": []string{"owner"}},
		},
		Tags: []string{"subscriptions"},
	}
	patchSubscriptionOp := huma.Operation{
		OperationID: "patchSubscription",
		Method:      http.MethodPatch,
		Path:        "/v1/users/{user_handle}/subscription",
		Summary:     "Append a billing period to a user's subscription",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
			{"ownerAuth": []string{"owner"}},
		},
		Tags: []string{"subscriptions"},
	}
	getSubscriptionOp := huma.Operation{
		OperationID: "getSubscription",
		Method:      http.MethodGet,
		Path:        "/v1/users/{user_handle}/subscription",
		Summary:     "Get the subscription of a specific user",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
			{"ownerAuth": []string{"owner"}},
		},
		Tags: []string{"subscriptions"},
	}
	getSubscriptionsOp := huma.Operation{
		OperationID: "getSubscriptions",
		Method:      http.MethodGet,
		Path:        "/v1/subscriptions",
		Summary:     "Get all subscriptions",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
		},
		Tags: []string{"admin", "subscriptions"},
	}
	deleteSubscriptionOp := huma.Operation{
		OperationID:   "deleteSubscription",
		Method:        http.MethodDelete,
		Path:          "/v1/users/{user_handle}/subscription",
		DefaultStatus: http.StatusNoContent,
		Summary:       "Delete the subscription of a specific user",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
			{"ownerAuth": []string{"owner"}},
		},
		Tags: []string{"subscriptions"},
	}

	huma.Register(api, postSubscriptionOp, addPoolToContext(pool, postSubscriptionFunc))
	huma.Register(api, patchSubscriptionOp, addPoolToContext(pool, patchSubscriptionFunc))
	huma.Register(api, getSubscriptionOp, addPoolToContext(pool, getSubscriptionFunc))
	huma.Register(api, getSubscriptionsOp, addPoolToContext(pool, getSubscriptionsFunc))
	huma.Register(api, deleteSubscriptionOp, addPoolToContext(pool, deleteSubscriptionFunc))
	return nil
}
