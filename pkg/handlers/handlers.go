// Package handlers provides HTTP response utilities for JSON APIs.
// These stateless functions standardize response formatting across handlers.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/JaimeStill/deck-translate/pkg/apperror"
)

// RespondJSON writes a JSON response with the given status code and data.
// It sets the Content-Type header to application/json.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError normalizes err, logs it with full diagnostics, and writes the
// client-safe error body for env with the code's HTTP status.
func RespondError(w http.ResponseWriter, logger *slog.Logger, env apperror.Environment, err error) {
	appErr := apperror.Normalize(err)

	attrs := []any{
		"code", appErr.Code,
		"status", appErr.HTTPStatus,
		"error", appErr.Error(),
	}
	if len(appErr.Details) > 0 {
		attrs = append(attrs, "details", appErr.Details)
	}

	if appErr.HTTPStatus >= 500 || !appErr.IsOperational {
		logger.Error("handler error", attrs...)
	} else {
		logger.Warn("handler error", attrs...)
	}

	if n, ok := appErr.RetryAfterSeconds(); ok {
		w.Header().Set("Retry-After", strconv.Itoa(n))
	}

	RespondJSON(w, appErr.HTTPStatus, appErr.ToClientResponse(env))
}

// HeaderUserID carries the opaque caller identity set by the upstream gateway.
const HeaderUserID = "X-User-ID"

// UserID returns the caller identity from the request, or "anonymous".
func UserID(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(HeaderUserID)); v != "" {
		return v
	}
	return "anonymous"
}
