// Package httpserver contains HTTP handlers and middleware.
//
// It provides the REST API for the interview service: session lifecycle,
// question generation, answer autosave, analysis, and the public demo
// feedback endpoint. HTTP concerns stay here; business rules live in usecase.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, _ *http.Request, err error, details interface{}) {
	code := http.StatusInternalServerError
	codeStr := "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		code = http.StatusUnauthorized
		codeStr = "UNAUTHENTICATED"
	case errors.Is(err, domain.ErrForbidden):
		code = http.StatusForbidden
		codeStr = "FORBIDDEN"
	case errors.Is(err, domain.ErrInvalidArgument):
		code = http.StatusBadRequest
		codeStr = "INVALID_ARGUMENT"
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
		codeStr = "NOT_FOUND"
	case errors.Is(err, domain.ErrQuotaExceeded):
		code = http.StatusTooManyRequests
		codeStr = "QUOTA_EXCEEDED"
	case errors.Is(err, domain.ErrRateLimited):
		code = http.StatusTooManyRequests
		codeStr = "RATE_LIMITED"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		code = http.StatusServiceUnavailable
		codeStr = "UPSTREAM_UNAVAILABLE"
	case errors.Is(err, domain.ErrSchemaInvalid):
		code = http.StatusBadGateway
		codeStr = "SCHEMA_INVALID"
	case errors.Is(err, domain.ErrStorage):
		codeStr = "STORAGE"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: err.Error(), Details: details}})
}
