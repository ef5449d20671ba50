package api

import (
	"net/http"

	"github.com/JaimeStill/accord/internal/config"
	"github.com/JaimeStill/accord/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) {
	routes.Register(
		mux,
		domain.Sessions.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Documents.Handler().Routes(),
	)
}
