package workflow

import (
	"errors"
	"net/http"
)

// Sentinel errors for workflow operations.
var (
	ErrValidation       = errors.New("invalid request")
	ErrSessionNotFound  = errors.New("session not found")
	ErrDuplicateSession = errors.New("session already exists")
	ErrNotWaiting       = errors.New("session is not waiting for this input")
	ErrPrecondition     = errors.New("stage requirements not met")
	ErrTransition       = errors.New("invalid stage transition")
)

// MapHTTPStatus maps workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateSession), errors.Is(err, ErrNotWaiting):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
