package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mauriken/textgen-api/internal/database"
	"github.com/mauriken/textgen-api/internal/models"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

func resetDbFunc(ctx context.Context, input *models.ResetDbRequest) (*models.ResetDbResponse, error) {
	// Get the database connection pool from the context
	pool, err := GetDBPool(ctx)
	if err != nil {
		fmt.Printf("    Resetting Database: error getting database connection pool: %v\n", err)
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to get database connection pool. %v", err))
	} else if pool == nil {
		fmt.Print("    Resetting Database: database connection pool is nil\n")
		return nil, huma.Error500InternalServerError("database connection pool is nil")
	}

	queries := database.New(pool)

	// delete all records
	fmt.Print("    Resetting Database: deleting all records...\n")
	err = queries.DeleteAllRecords(ctx)
	if err != nil {
		fmt.Printf("    Resetting Database: error deleting all records: %v\n", err)
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to delete all records. %v", err))
	}

	fmt.Print("    Resetting Database: resetting serials...\n")
	err = queries.ResetAllSerials(ctx)
	if err != nil {
		fmt.Printf("    Resetting Database: error resetting serials: %v\n", err)
		return nil, huma.Error500InternalServerError(fmt.Sprintf("unable to reset serials. %v", err))
	}

	// Build response
	response := &models.ResetDbResponse{}
	return response, nil
}

// RegisterAdminRoutes registers all the admin routes with the API
func RegisterAdminRoutes(pool *pgxpool.Pool, api huma.API) error {
	// Define huma.Operations for each route
	resetDbOp := huma.Operation{
		OperationID:   "resetDb",
		Method:        http.MethodGet,
		Path:          "/v1/admin/reset-db",
		DefaultStatus: http.StatusNoContent,
		Summary:       "Remove all records from database and reset serials/counters",
		Security: []map[string][]string{
			{"adminAuth": []string{"admin"}},
		},
		Tags: []string{"admin"},
	}

	// Register the routes with middleware
	huma.Register(api, resetDbOp, addPoolToContext(pool, resetDbFunc))
	return nil
}
