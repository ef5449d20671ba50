package main

import (
	"context"
	"net/http"

	"github.com/JaimeStill/accord/internal/api"
	"github.com/JaimeStill/accord/internal/config"
	"github.com/JaimeStill/accord/internal/infrastructure"
	"github.com/JaimeStill/accord/pkg/handlers"
	"github.com/JaimeStill/accord/pkg/module"
	"github.com/JaimeStill/accord/pkg/openapi"
)

type Modules struct {
	API *module.Module
}

func NewModules(ctx context.Context, infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(ctx, cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

type readiness struct {
	Status  string   `json:"status"`
	Pending []string `json:"pending,omitempty"`
}

func buildRouter(infra *infrastructure.Infrastructure, cfg *config.Config) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET "+cfg.API.OpenAPI.Path, openapi.Handler(api.NewSpec(cfg)))

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, readiness{Status: "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, readiness{
				Status:  "not ready",
				Pending: infra.Lifecycle.Pending(),
			})
			return
		}
		handlers.RespondJSON(w, http.StatusOK, readiness{Status: "ready"})
	})

	return router
}
