package models

import (
	"encoding/json"
	"net/http"
)

// ModelService is a generation backend registered by a user.
type ModelService struct {
	Owner              string          `json:"owner,omitempty" doc:"Owner of the model service" maxLength:"20" minLength:"3" example:"jdoe"`
	ModelServiceHandle string          `json:"model_service_handle" minLength:"3" maxLength:"20" example:"my-llama" doc:"Model service handle"`
	ModelServiceID     int             `json:"model_service_id,omitempty" doc:"Numeric id of the model service"`
	Endpoint           string          `json:"endpoint" example:"http://localhost:11434" doc:"Base URL of the backend"`
	Description        string          `json:"description,omitempty" doc:"Service description"`
	APIKey             string          `json:"api_key,omitempty" doc:"Authentication token for the backend"`
	APIStandard        string          `json:"api_standard" enum:"ollama,openai,gemini" default:"ollama" example:"ollama" doc:"Wire protocol spoken by the backend"`
	Model              string          `json:"model" maxLength:"100" example:"llama3.2" doc:"Model name to request from the backend"`
	RequestDefaults    json.RawMessage `json:"request_defaults,omitempty" doc:"Default generation parameters (temperature, max_tokens, seed)"`
}

// Request and Response structs for the model service administration API
// The request structs must be structs with fields for the request path/query/header/cookie parameters and/or body.
// The response structs must be structs with fields for the output headers and body of the operation, if any.

// Put/post model service
// PUT Path: "/v1/model-services/{user_handle}/{model_service_handle}"

type PutModelServiceRequest struct {
	UserHandle         string       `json:"user_handle" path:"user_handle" maxLength:"20" minLength:"3" example:"jdoe" doc:"User handle"`
	ModelServiceHandle string       `json:"model_service_handle" path:"model_service_handle" maxLength:"20" minLength:"3" example:"my-llama" doc:"Model service handle"`
	Body               ModelService `json:"model_service" doc:"Model service to create or update"`
}

// POST Path: "/v1/model-services/{user_handle}"

type PostModelServiceRequest struct {
	UserHandle string       `json:"user_handle" path:"user_handle" maxLength:"20" minLength:"3" example:"jdoe" doc:"User handle"`
	Body       ModelService `json:"model_service" doc:"Model service to create or update"`
}

type UploadModelServiceResponse struct {
	Header []http.Header `json:"header,omitempty" doc:"Response headers"`
	Body   struct {
		Owner              string `json:"owner" doc:"Owner of the model service"`
		ModelServiceHandle string `json:"model_service_handle" doc:"Handle of created or updated model service"`
		ModelServiceID     int    `json:"model_service_id" doc:"Numeric id of the model service"`
	}
}

// Get all model services of a user
// GET Path: "/v1/model-services/{user_handle}"

type GetUserModelServicesRequest struct {
	UserHandle string `json:"user_handle" path:"user_handle" maxLength:"20" minLength:"3" example:"jdoe" doc:"User handle"`
	Limit      int    `json:"limit,omitempty" query:"limit" minimum:"1" maximum:"200" example:"10" default:"20" doc:"Maximum number of model services to return"`
	Offset     int    `json:"offset,omitempty" query:"offset" minimum:"0" example:"0" default:"0" doc:"Offset into the list of model services"`
}

type GetUserModelServicesResponse struct {
	Header []http.Header  `json:"header,omitempty" doc:"Response headers"`
	Body   []ModelService `json:"model_services" doc:"List of model services"`
}

// Get single model service
// GET Path: "/v1/model-services/{user_handle}/{model_service_handle}"

type GetModelServiceRequest struct {
	UserHandle         string `json:"user_handle" path:"user_handle" maxLength:"20" minLength:"3" example:"jdoe" doc:"User handle"`
	ModelServiceHandle string `json:"model_service_handle" path:"model_service_handle" maxLength:"20" minLength:"3" example:"my-llama" doc:"Model service handle"`
}

type GetModelServiceResponse struct {
	Header []http.Header `json:"header,omitempty" doc:"Response headers"`
	Body   ModelService  `json:"model_service" doc:"Model service"`
}

// Delete model service
// DELETE Path: "/v1/model-services/{user_handle}/{model_service_handle}"

type DeleteModelServiceRequest struct {
	UserHandle         string `json:"user_handle" path:"user_handle" maxLength:"20" minLength:"3" example:"jdoe" doc:"User handle"`
	ModelServiceHandle string `json:"model_service_handle" path:"model_service_handle" maxLength:"20" minLength:"3" example:"my-llama" doc:"Model service handle"`
}

type DeleteModelServiceResponse struct {
	Header []http.Header `json:"header,omitempty" doc:"Response headers"`
}
