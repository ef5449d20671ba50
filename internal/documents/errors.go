package documents

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/accord/pkg/storage"
)

// Domain errors for document operations.
var (
	ErrNotFound    = errors.New("document not found")
	ErrDuplicate   = errors.New("document already exists")
	ErrInvalidID   = errors.New("invalid document id")
	ErrInvalidFile = errors.New("invalid file")
	ErrForbidden   = errors.New("document belongs to another user")
)

// MapHTTPStatus maps document domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
