package models

import (
	"net/http"
	"time"
)

// GenerationRecord is the stored trace of one completed generation.
type GenerationRecord struct {
	GenerationID string    `json:"generation_id" doc:"UUID of the generation" example:"0f84cb9e-9d6b-43fa-a2b7-2f4f69cde1a1"`
	UserHandle   string    `json:"user_handle" doc:"User the generation ran for (\"public\" for unauthenticated calls)" example:"jdoe"`
	Model        string    `json:"model" doc:"Model that produced the text" example:"llama3.2"`
	PromptChars  int       `json:"prompt_chars" doc:"Length of the prompt in characters"`
	OutputChars  int       `json:"output_chars" doc:"Length of the generated text in characters"`
	DurationMS   int       `json:"duration_ms" doc:"Wall-clock duration of the backend call in milliseconds"`
	CreatedAt    time.Time `json:"created_at" doc:"When the generation completed"`
}

type GenerationRecords []GenerationRecord

// GetIDs returns the UUIDs of all records in the list.
func (g GenerationRecords) GetIDs() []string {
	ids := []string{}
	for _, record := range g {
		ids = append(ids, record.GenerationID)
	}
	return ids
}

// Request and Response structs for the generation API
// The request structs must be structs with fields for the request path/query/header/cookie parameters and/or body.
// The response structs must be structs with fields for the output headers and body of the operation, if any.

// Generate text with the default backend
// POST Path: "/generate"

type GenerateRequest struct {
	Body struct {
		Prompt string `json:"prompt" minLength:"1" example:"The quick brown fox" doc:"Input text seed for the model"`
	}
}

// GenerateResponse carries the model's continuation verbatim as plain text.
type GenerateResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte `example:"jumps over the lazy dog." doc:"Generated continuation of the prompt"`
}

// Generate text with a registered model service
// POST Path: "/v1/generate/{user_handle}/{model_service_handle}"

type GenerateWithServiceRequest struct {
	UserHandle         string `json:"user_handle" path:"user_handle" maxLength:"20" minLength:"3" example:"jdoe" doc:"User handle"`
	ModelServiceHandle string `json:"model_service_handle" path:"model_service_handle" maxLength:"20" minLength:"3" example:"my-llama" doc:"Model service handle"`
	Body               struct {
		Prompt string `json:"prompt" minLength:"1" example:"The quick brown fox" doc:"Input text seed for the model"`
	}
}

// Get generation history of a user
// GET Path: "/v1/users/{user_handle}/generations"

type GetGenerationsRequest struct {
	UserHandle string `json:"user_handle" path:"user_handle" maxLength:"20" minLength:"3" example:"jdoe" doc:"User handle"`
	Limit      int    `json:"limit,omitempty" query:"limit" minimum:"1" maximum:"200" example:"10" default:"20" doc:"Maximum number of records to return"`
	Offset     int    `json:"offset,omitempty" query:"offset" minimum:"0" example:"0" default:"0" doc:"Offset into the list of records"`
}

type GetGenerationsResponse struct {
	Header []http.Header     `json:"header,omitempty" doc:"Response headers"`
	Body   GenerationRecords `json:"generations" doc:"Recent generation records, newest first"`
}
