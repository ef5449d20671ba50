// Package openapi builds and serves an OpenAPI 3.1 description of an HTTP API.
package openapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Spec represents an OpenAPI 3.1 specification document.
type Spec struct {
	OpenAPI    string                `json:"openapi"`
	Info       *Info                 `json:"info"`
	Servers    []*Server             `json:"servers,omitempty"`
	Paths      map[string]*PathItem  `json:"paths"`
	Components *Components           `json:"components,omitempty"`
	Security   []SecurityRequirement `json:"security,omitempty"`
}

// BearerAuth is the component name used by RequireBearer.
const BearerAuth = "bearerAuth"

// NewSpec creates a Spec from config with the shared components.
func NewSpec(cfg *Config, version string) *Spec {
	return &Spec{
		OpenAPI: "3.1.0",
		Info: &Info{
			Title:       cfg.Title,
			Version:     version,
			Description: cfg.Description,
		},
		Components: NewComponents(),
		Paths:      make(map[string]*PathItem),
	}
}

// AddServer appends a server URL to the spec.
func (s *Spec) AddServer(url string) {
	s.Servers = append(s.Servers, &Server{URL: url})
}

// RequireBearer declares JWT bearer authentication for every operation.
func (s *Spec) RequireBearer(description string) {
	if s.Components.SecuritySchemes == nil {
		s.Components.SecuritySchemes = make(map[string]*SecurityScheme)
	}
	s.Components.SecuritySchemes[BearerAuth] = &SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
		Description:  description,
	}
	s.Security = []SecurityRequirement{{BearerAuth: {}}}
}

// Add registers op under method and path. It panics on an unsupported method
// or a path that is already bound for that method.
func (s *Spec) Add(method, path string, op *Operation) {
	item, ok := s.Paths[path]
	if !ok {
		item = &PathItem{}
		s.Paths[path] = item
	}

	var slot **Operation
	switch strings.ToUpper(method) {
	case http.MethodGet:
		slot = &item.Get
	case http.MethodPost:
		slot = &item.Post
	case http.MethodPut:
		slot = &item.Put
	case http.MethodDelete:
		slot = &item.Delete
	default:
		panic(fmt.Sprintf("openapi: unsupported method %s", method))
	}
	if *slot != nil {
		panic(fmt.Sprintf("openapi: %s %s registered twice", method, path))
	}
	*slot = op
}

// MarshalJSON serializes the spec to indented JSON bytes.
func MarshalJSON(spec *Spec) ([]byte, error) {
	return json.MarshalIndent(spec, "", "  ")
}

// Handler serves the spec as JSON. The document is encoded once, on first
// request.
func Handler(spec *Spec) http.HandlerFunc {
	encode := sync.OnceValues(func() ([]byte, error) {
		return MarshalJSON(spec)
	})

	return func(w http.ResponseWriter, r *http.Request) {
		data, err := encode()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}
