package openapi

import (
	"maps"
	"net/http"
)

// Shared component response names.
const (
	BadRequest      = "BadRequest"
	Unauthorized    = "Unauthorized"
	Forbidden       = "Forbidden"
	NotFound        = "NotFound"
	Conflict        = "Conflict"
	PayloadTooLarge = "PayloadTooLarge"
	Unsupported     = "UnsupportedMediaType"
	Unprocessable   = "UnprocessableEntity"
	BadGateway      = "BadGateway"
	Unavailable     = "ServiceUnavailable"
)

var errorResponses = map[string]int{
	BadRequest:      http.StatusBadRequest,
	Unauthorized:    http.StatusUnauthorized,
	Forbidden:       http.StatusForbidden,
	NotFound:        http.StatusNotFound,
	Conflict:        http.StatusConflict,
	PayloadTooLarge: http.StatusRequestEntityTooLarge,
	Unsupported:     http.StatusUnsupportedMediaType,
	Unprocessable:   http.StatusUnprocessableEntity,
	BadGateway:      http.StatusBadGateway,
	Unavailable:     http.StatusServiceUnavailable,
}

// NewComponents creates Components with the Error schema, one error response
// per entry in errorResponses, and the PageRequest schema.
func NewComponents() *Components {
	c := &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type:     "object",
				Required: []string{"error"},
				Properties: map[string]*Schema{
					"error": {Type: "string", Description: "Error message"},
				},
			},
			"PageRequest": {
				Type: "object",
				Properties: map[string]*Schema{
					"page":      {Type: "integer", Description: "Page number (1-indexed)", Example: 1},
					"page_size": {Type: "integer", Description: "Results per page", Example: 20},
					"search":    {Type: "string", Description: "Search query"},
					"sort":      {Type: "string", Description: "Comma-separated sort fields. Prefix with - for descending."},
				},
			},
		},
		Responses: make(map[string]*Response, len(errorResponses)),
	}

	for name, status := range errorResponses {
		c.Responses[name] = ResponseJSON(http.StatusText(status), "Error")
	}
	return c
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

// ErrorStatus returns the HTTP status of a shared error response name.
func ErrorStatus(name string) (int, bool) {
	status, ok := errorResponses[name]
	return status, ok
}
