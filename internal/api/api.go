// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JaimeStill/accord/internal/auth"
	"github.com/JaimeStill/accord/internal/config"
	"github.com/JaimeStill/accord/internal/infrastructure"
	"github.com/JaimeStill/accord/pkg/middleware"
	"github.com/JaimeStill/accord/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
// When auth is enabled the issuer is contacted for discovery before the
// module is returned.
func NewModule(ctx context.Context, cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, err
	}

	validator, err := newValidator(ctx, &cfg.Auth)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.RequestID())
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(auth.Middleware(validator, runtime.Logger))

	return m, nil
}

func newValidator(ctx context.Context, cfg *auth.Config) (auth.Validator, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	v, err := auth.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("auth init failed: %w", err)
	}
	return v, nil
}
