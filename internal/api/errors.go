package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error is a wire-level failure: an HTTP status plus the OAuth-style
// {error, error_description?} JSON body.
type Error struct {
	Status      int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *Error) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

func invalidRequest(description string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: "invalid_request", Description: description}
}

func invalidGrant() *Error {
	return &Error{Status: http.StatusBadRequest, Code: "invalid_grant"}
}

func unauthorized(description string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: "unauthorized", Description: description}
}

func insufficientScope() *Error {
	return &Error{Status: http.StatusForbidden, Code: "insufficient_scope"}
}

func notFound(description string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "not_found", Description: description}
}

func conflict(description string) *Error {
	return &Error{Status: http.StatusConflict, Code: "conflict", Description: description}
}

func serverError(description string) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: "server_error", Description: description}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, e *Error) {
	if e.Status >= http.StatusInternalServerError {
		slog.Error("Request failed", "error", e)
	}
	writeJSON(w, e.Status, e)
}
