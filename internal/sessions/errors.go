package sessions

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/accord/internal/documents"
	"github.com/JaimeStill/accord/internal/extraction"
	"github.com/JaimeStill/accord/internal/workflow"
)

// Domain errors for session intake and access.
var (
	ErrExternalService = errors.New("external service failed")
	ErrForbidden       = errors.New("session belongs to another user")
	ErrFileTooLarge    = errors.New("file exceeds maximum upload size")
	ErrNoText          = errors.New("document has no extractable text")
	ErrAdvisorDisabled = errors.New("contract advisor is not configured")
)

// MapHTTPStatus maps session, workflow, and document errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrExternalService):
		return http.StatusBadGateway
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrNoText):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrAdvisorDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, extraction.ErrUnsupported):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, extraction.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, documents.ErrInvalidFile), errors.Is(err, extraction.ErrExtraction):
		return http.StatusBadRequest
	}
	return workflow.MapHTTPStatus(err)
}
