package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/accord/pkg/formatting"
	"github.com/JaimeStill/accord/pkg/middleware"
	"github.com/JaimeStill/accord/pkg/openapi"
	"github.com/JaimeStill/accord/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "ACCORD_CORS_ENABLED",
	Origins:          "ACCORD_CORS_ORIGINS",
	AllowedMethods:   "ACCORD_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "ACCORD_CORS_ALLOWED_HEADERS",
	AllowCredentials: "ACCORD_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "ACCORD_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "ACCORD_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "ACCORD_PAGINATION_MAX_PAGE_SIZE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "ACCORD_OPENAPI_TITLE",
	Description: "ACCORD_OPENAPI_DESCRIPTION",
	Path:        "ACCORD_OPENAPI_PATH",
}

// APIConfig holds API routing, CORS, pagination, and OpenAPI settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	MaxTextSize   string                `toml:"max_text_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 10 * 1024 * 1024
	}
	return size
}

// MaxTextSizeBytes bounds the text extracted from one upload.
func (c *APIConfig) MaxTextSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxTextSize)
	if err != nil {
		return 8 * 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}
	if overlay.MaxTextSize != "" {
		c.MaxTextSize = overlay.MaxTextSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "10MB"
	}
	if c.MaxTextSize == "" {
		c.MaxTextSize = "8MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("ACCORD_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("ACCORD_API_MAX_UPLOAD_SIZE"); v != "" {
		c.MaxUploadSize = v
	}
	if v := os.Getenv("ACCORD_API_MAX_TEXT_SIZE"); v != "" {
		c.MaxTextSize = v
	}
}
