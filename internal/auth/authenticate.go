package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/mauriken/textgen-api/internal/database"
	"github.com/mauriken/textgen-api/internal/models"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	AuthUserKey = "authUser"
	IsAdminKey  = "isAdmin"
	IsOwnerKey  = "isOwner"
)

// Config is the security scheme configuration for the API.
var Config = map[string]*huma.SecurityScheme{
	"adminAuth": {
		Type:   "APIKey",
		In:     "header",
		Scheme: "bearer",
		Name:   "Authorization",
	},
	"ownerAuth": {
		Type:   "APIKey",
		In:     "header",
		Scheme: "bearer",
		Name:   "Authorization",
	},
}

// AuthTermination returns a middleware function that evaluates if any of the
//
//	preceding authentication middleware functions were successful. If not, it
//	rejects the request, otherwise it calls the next middleware (or the final
//	handler) function. This is supposed to be called as the last auth
//	middleware function in the chain.
func AuthTermination(api huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		// Check if the current operation requires authentication
		isAuthRequired := false
		for _, securityScheme := range ctx.Operation().Security {
			if len(securityScheme) > 0 {
				isAuthRequired = true
				break
			}
		}

		if !isAuthRequired {
			// No authentication required for this operation
			next(ctx)
			return
		}

		// Check if any authentication middleware has set AuthUserKey
		if _, ok := ctx.Context().Value(AuthUserKey).(string); ok {
			next(ctx)
			return
		}
		fmt.Print("        Authentication failed.\n")
		_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, "Authentication failed. Perhaps a missing or incorrect API key?")
	}
}

// APIKey... functions return a middleware function that checks for a valid API key.

// APIKeyAdminAuth checks for the admin API key in the Authorization header.
func APIKeyAdminAuth(api huma.API, options *models.Options) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {

		// Check if adminAuth is applicable
		isAuthorizationRequired := false
		for _, opScheme := range ctx.Operation().Security {
			var ok bool
			if _, ok = opScheme["adminAuth"]; ok {
				isAuthorizationRequired = true
				break
			}
		}
		if !isAuthorizationRequired {
			next(ctx)
			return
		}

		token := strings.TrimPrefix(ctx.Header("Authorization"), "Bearer ")

		if options.AdminKey != "" && token == options.AdminKey {
			ctx = huma.WithValue(ctx, IsAdminKey, true)
			ctx = huma.WithValue(ctx, AuthUserKey, "admin")
			if options.Debug {
				fmt.Print("        Admin authentication successful\n")
			}
			next(ctx)
			return
		}

		next(ctx)
	}
}

// APIKeyOwnerAuth checks the Authorization header against the stored key
// hash of the user whose resources are being accessed.
func APIKeyOwnerAuth(api huma.API, pool *pgxpool.Pool, options *models.Options) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {

		// Check if ownerAuth is applicable
		isAuthorizationRequired := false
		for _, opScheme := range ctx.Operation().Security {
			var ok bool
			if _, ok = opScheme["ownerAuth"]; ok {
				isAuthorizationRequired = true
				break
			}
		}
		if !isAuthorizationRequired {
			next(ctx)
			return
		}

		// Check if adminAuth has already authenticated the request
		if isAdmin, ok := ctx.Context().Value(IsAdminKey).(bool); ok && isAdmin {
			next(ctx)
			return
		}

		owner := ctx.Param("user_handle")
		token := strings.TrimPrefix(ctx.Header("Authorization"), "Bearer ")

		if len(owner) == 0 {
			next(ctx)
			return
		}

		queries := database.New(pool)
		storedHash, err := queries.GetKeyByUser(ctx.Context(), owner)
		if err != nil && err.Error() == "no rows in result set" {
			next(ctx)
			return
		}
		if err != nil && err.Error() != "no rows in result set" {
			_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "unable to check if owner exists")
			return
		}
		if storedHash == "" {
			next(ctx)
			return
		}

		if apiKeyIsValid(token, storedHash) {
			ctx = huma.WithValue(ctx, IsOwnerKey, true)
			ctx = huma.WithValue(ctx, AuthUserKey, owner)
			if options.Debug {
				fmt.Printf("        Owner authentication successful: %s\n", owner)
			}
			next(ctx)
			return
		}

		next(ctx)
	}
}

// apiKeyIsValid checks if the given API key matches the stored hash.
func apiKeyIsValid(rawKey string, storedHash string) bool {
	hash := sha256.Sum256([]byte(rawKey))
	hashedKey := hex.EncodeToString(hash[:])

	contentEqual := subtle.ConstantTimeCompare([]byte(storedHash), []byte(hashedKey)) == 1
	return contentEqual
}

// HashKey returns the hex-encoded SHA-256 hash under which an API key is stored.
func HashKey(rawKey string) string {
	hash := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(hash[:])
}

// CORSMiddleware handles CORS for the API
func CORSMiddleware(api huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		// Set CORS headers
		for key, value := range map[string]string{
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Methods": "GET, POST, PUT, DELETE, OPTIONS, PATCH",
			"Access-Control-Allow-Headers": "Accept, Authorization, Content-Type, Content-Disposition, Origin, X-Requested-With",
		} {
			ctx.SetHeader(key, value)
		}

		// If this is a preflight OPTIONS request, return immediately with 200 OK
		if ctx.Operation().Method == "OPTIONS" {
			ctx.SetStatus(http.StatusOK)
			return
		}

		// Otherwise, continue processing the request
		next(ctx)
	}
}
