// Package handlers provides JSON response and request helpers shared by the
// HTTP handlers of every domain.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// ErrBadRequest marks a request body that could not be decoded.
var ErrBadRequest = errors.New("malformed request body")

// RespondJSON writes data as a JSON document with the given status.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs err and writes {"error": err.Error()}. Server errors log
// at error level, client errors at warn.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "error", err)
	}
	RespondJSON(w, status, map[string]string{"error": err.Error()})
}

// DecodeJSON reads a single JSON document from r into T, rejecting unknown
// fields and trailing data.
func DecodeJSON[T any](r io.Reader) (T, error) {
	var v T

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if dec.More() {
		return v, fmt.Errorf("%w: trailing data", ErrBadRequest)
	}
	return v, nil
}
