package openapi

import (
	"encoding/json"
	"maps"
)

// NewComponents returns components preloaded with the error envelope and
// the shared error responses.
func NewComponents() *Components {
	return &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type: "object",
				Properties: map[string]*Property{
					"code":                {Type: "string", Example: "JOB_NOT_FOUND"},
					"message":             {Type: "string"},
					"timestamp":           {Type: "string", Format: "date-time"},
					"retry_after_seconds": {Type: "integer"},
					"details":             {Type: "object"},
				},
				Required: []string{"code", "message", "timestamp"},
			},
			"ErrorResponse": {
				Type: "object",
				Properties: map[string]*Property{
					"error": PropertyRef("Error", "Failure with a stable code and a user-facing message"),
				},
			},
		},
		Responses: map[string]*Response{
			"BadRequest":      errorResponse("Invalid request"),
			"NotFound":        errorResponse("Resource not found"),
			"Conflict":        errorResponse("Resource is not in the required state"),
			"TooManyRequests": rateLimited(),
		},
	}
}

// AddSchemas merges schemas into the components.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// AddResponses merges responses into the components.
func (c *Components) AddResponses(responses map[string]*Response) {
	maps.Copy(c.Responses, responses)
}

// MarshalJSON renders spec as indented JSON.
func MarshalJSON(spec *Spec) ([]byte, error) {
	return json.MarshalIndent(spec, "", "  ")
}

func errorResponse(description string) *Response {
	return ResponseJSON(description, "ErrorResponse")
}

func rateLimited() *Response {
	r := errorResponse("Rate limit exceeded")
	r.Headers = map[string]*Header{
		"Retry-After": {
			Description: "Seconds until the window resets",
			Schema:      &Schema{Type: "integer"},
		},
	}
	return r
}
