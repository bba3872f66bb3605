package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mauriken/textgen-api/internal/auth"
	"github.com/mauriken/textgen-api/internal/crypto"
	"github.com/mauriken/textgen-api/internal/database"
	"github.com/mauriken/textgen-api/internal/handlers"
	"github.com/mauriken/textgen-api/internal/llm"
	"github.com/mauriken/textgen-api/internal/models"

	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/danielgtaylor/huma/v2/autopatch"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"

	huma "github.com/danielgtaylor/huma/v2"
)

// TODO: Set up limits (e.g. in server definition):
//       <https://huma.rocks/features/request-limits/>

func main() {
	// Load additional settings (e.g. ENCRYPTION_KEY) from a .env file, if present
	if err := godotenv.Load(); err == nil {
		fmt.Print("    Loaded settings from .env file\n")
	}

	// Create a CLI app
	cli := humacli.New(func(hooks humacli.Hooks, options *models.Options) {

		println()
		println("=== Starting Text Generation API ...")
		fmt.Printf("    Options are debug:%v host:%v port: %v dbhost:%s dbname:%s backend:%s model:%s\n",
			options.Debug, options.Host, options.Port, options.DBHost, options.DBName, options.ModelBackend, options.ModelName)

		// Initialize the database
		pool, err := database.InitDB(options)
		if err != nil {
			fmt.Printf("    Unable to connect to database: %v\n", err)
			os.Exit(1)
		}

		// Define standard key generator (for API keys)
		keyGen := handlers.StandardKeyGen{}

		// Build the client for the default generation backend
		generator, err := llm.NewGenerator(context.Background(), llm.Config{
			Backend:  options.ModelBackend,
			Endpoint: options.ModelEndpoint,
			Model:    options.ModelName,
			APIKey:   options.ModelAPIKey,
		})
		if err != nil {
			fmt.Printf("    Unable to set up generation backend: %v\n", err)
			os.Exit(1)
		}

		// Get the key under which backend credentials are stored
		encKey, err := crypto.GetEncryptionKeyFromEnv()
		if err != nil {
			fmt.Printf("    Unable to get encryption key: %v\n", err)
			os.Exit(1)
		}

		// Create a new router & API
		config := huma.DefaultConfig("Text Generation API", "0.0.1")
		config.Components.SecuritySchemes = auth.Config
		router := http.NewServeMux()
		api := humago.New(router, config)
		api.UseMiddleware(auth.CORSMiddleware(api))
		api.UseMiddleware(auth.APIKeyAdminAuth(api, options))
		api.UseMiddleware(auth.APIKeyOwnerAuth(api, pool, options))
		api.UseMiddleware(auth.AuthTermination(api))

		// Add routes to the API
		err = handlers.AddRoutes(pool, keyGen, generator, encKey, api)
		if err != nil {
			fmt.Printf("    Unable to add routes: %v\n", err)
			os.Exit(1)
		}

		// Add PATCH endpoints for resources with GET+PUT
		autopatch.AutoPatch(api)

		// Create the HTTP server
		// TODO: Add limits to the server (e.g. timeouts, max header size, etc.)
		server := &http.Server{
			Addr:    fmt.Sprintf("%s:%d", options.Host, options.Port),
			Handler: router,
		}

		// Start server
		hooks.OnStart(func() {
			fmt.Printf("=== Starting API server on port %d...\n\n", options.Port)
			err := server.ListenAndServe()
			if err != nil && err != http.ErrServerClosed {
				fmt.Printf("listen error: %s\n", err)
			} else {
				fmt.Printf("    API server on port %d stopped.\n", options.Port)
			}
		})

		// Gracefully shutdown server
		hooks.OnStop(func() {
			fmt.Printf("\n=== Shutting down API server on port %d...\n", options.Port)

			// Create a context with a timeout for the shutdown process
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Attempt to gracefully shut down the server
			if err := server.Shutdown(ctx); err != nil {
				fmt.Printf("Shutdown error: %v\n", err)
			}

			// Close the database pool
			activeConns := pool.Stat().TotalConns()
			fmt.Printf("    Active connections before shutdown: %d\n", activeConns)

			pool.Close()
			fmt.Println("    Database pool successfully closed.")
			fmt.Print("=== Text Generation API stopped.\n\n")
		})
	})

	// Run the CLI. When passed no commands, it starts the server.
	cli.Run()
}
