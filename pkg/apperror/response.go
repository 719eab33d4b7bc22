package apperror

import (
	"maps"
	"time"
)

// Environment selects how much of an error crosses the trust boundary.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// ClientError is the serialized error shape returned to callers.
type ClientError struct {
	Code              Code           `json:"code"`
	Message           string         `json:"message"`
	Timestamp         time.Time      `json:"timestamp"`
	RetryAfterSeconds *int           `json:"retry_after_seconds,omitempty"`
	Details           map[string]any `json:"details,omitempty"`
	Internal          string         `json:"internal,omitempty"`
}

// ClientResponse wraps ClientError under an "error" key.
type ClientResponse struct {
	Error ClientError `json:"error"`
}

// ToClientResponse builds the response body for env. Production responses
// carry only the code, user message, timestamp, and retry hint.
func (e *AppError) ToClientResponse(env Environment) ClientResponse {
	ce := ClientError{
		Code:      e.Code,
		Message:   e.UserMessage,
		Timestamp: e.Timestamp,
	}

	if n, ok := e.RetryAfterSeconds(); ok {
		ce.RetryAfterSeconds = &n
	}

	if env == Development {
		if len(e.Details) > 0 {
			ce.Details = maps.Clone(e.Details)
		}
		ce.Internal = e.Error()
	}

	return ClientResponse{Error: ce}
}
