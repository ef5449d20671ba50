package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/accord/internal/api"
	"github.com/JaimeStill/accord/internal/auth"
	"github.com/JaimeStill/accord/internal/config"
	"github.com/JaimeStill/accord/internal/infrastructure"
	"github.com/JaimeStill/accord/internal/notify"
	"github.com/JaimeStill/accord/pkg/database"
	"github.com/JaimeStill/accord/pkg/middleware"
	"github.com/JaimeStill/accord/pkg/pagination"
	"github.com/JaimeStill/accord/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=accordstore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/accordstore;"

func validConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "1m",
			WriteTimeout:    "15m",
			ShutdownTimeout: "30s",
		},
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "accord",
			User:            "accord",
			Password:        "accord",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			ContainerName:    "documents",
			ConnectionString: azuriteConnString,
		},
		API: config.APIConfig{
			BasePath:      "/api",
			MaxUploadSize: "10MB",
			CORS: middleware.CORSConfig{
				Enabled: false,
			},
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
		},
		Notify: notify.Config{
			Driver:  notify.DriverLog,
			Timeout: "10s",
		},
		Workflow: config.WorkflowConfig{
			SessionTTL:    "0",
			SweepInterval: "5m",
		},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
}

func newModule(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	infra, err := infrastructure.New(cfg)
	require.NoError(t, err)

	m, err := api.NewModule(context.Background(), cfg, infra)
	require.NoError(t, err)
	return m
}

func TestNewModule(t *testing.T) {
	cfg := validConfig()
	infra, err := infrastructure.New(cfg)
	require.NoError(t, err)

	m, err := api.NewModule(context.Background(), cfg, infra)
	require.NoError(t, err)
	assert.Equal(t, "/api", m.Prefix())
}

func TestUnknownSession(t *testing.T) {
	m := newModule(t, validConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	m := newModule(t, validConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))
}

func TestResumeMalformedBody(t *testing.T) {
	m := newModule(t, validConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/abc/input", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	cfg := validConfig()
	cfg.API.CORS = middleware.CORSConfig{
		Enabled:        true,
		Origins:        []string{"http://app.example.com"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}
	m := newModule(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "http://app.example.com")
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuthDiscoveryFailure(t *testing.T) {
	issuer := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(issuer.Close)

	cfg := validConfig()
	cfg.Auth = auth.Config{
		Enabled:    true,
		IssuerURL:  issuer.URL,
		Audience:   "accord",
		RolesClaim: "roles",
	}

	infra, err := infrastructure.New(cfg)
	require.NoError(t, err)

	_, err = api.NewModule(context.Background(), cfg, infra)
	assert.Error(t, err)
}

func TestAuthWithJWKS(t *testing.T) {
	cfg := validConfig()
	cfg.Auth = auth.Config{
		Enabled:    true,
		IssuerURL:  "https://issuer.example.com",
		Audience:   "accord",
		JWKSURL:    "https://issuer.example.com/keys",
		RolesClaim: "roles",
	}
	m := newModule(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/missing", nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestNewSpec(t *testing.T) {
	cfg := validConfig()
	cfg.API.OpenAPI.Title = "Accord API"

	spec := api.NewSpec(cfg)

	assert.Equal(t, "Accord API", spec.Info.Title)
	assert.Equal(t, cfg.Version, spec.Info.Version)
	for _, path := range []string{
		"/sessions",
		"/sessions/{id}",
		"/sessions/{id}/input",
		"/sessions/active",
		"/sessions/{id}/summary",
		"/sessions/{id}/suggestions",
		"/sessions/{id}/questions",
		"/documents",
		"/documents/search",
		"/documents/{id}",
		"/documents/{id}/download",
	} {
		assert.Contains(t, spec.Paths, path)
	}
	assert.NotNil(t, spec.Paths["/sessions"].Post)
	assert.NotNil(t, spec.Paths["/sessions"].Get)

	assert.Contains(t, spec.Components.Schemas, "StartResult")
	assert.Contains(t, spec.Components.Schemas, "OutcomePage")
	assert.Contains(t, spec.Components.Schemas, "SessionList")
	assert.Contains(t, spec.Components.Responses, "UnsupportedMediaType")
}
