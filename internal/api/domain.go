package api

import (
	"fmt"

	"github.com/JaimeStill/accord/internal/analysis"
	"github.com/JaimeStill/accord/internal/documents"
	"github.com/JaimeStill/accord/internal/extraction"
	"github.com/JaimeStill/accord/internal/notify"
	"github.com/JaimeStill/accord/internal/scheduling"
	"github.com/JaimeStill/accord/internal/sessions"
	"github.com/JaimeStill/accord/internal/signing"
	"github.com/JaimeStill/accord/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents documents.System
	Sessions  sessions.System
	Workflow  *workflow.Orchestrator
}

// NewDomain creates all domain systems from the API runtime and registers the
// session sweeper with the lifecycle coordinator.
func NewDomain(runtime *Runtime) (*Domain, error) {
	cfg := runtime.Config
	db := runtime.Database.Connection()

	docs := documents.New(db, runtime.Storage, runtime.Logger, runtime.Pagination)
	archive := sessions.NewArchive(db, runtime.Logger, runtime.Pagination)

	registry := workflow.NewRegistry(cfg.Workflow.Registry(), runtime.Logger)
	if err := registry.Start(runtime.Lifecycle); err != nil {
		return nil, fmt.Errorf("session registry start failed: %w", err)
	}

	orchestrator := workflow.New(
		registry,
		signing.New(docs, runtime.Logger),
		scheduling.New(cfg.Workflow.Scheduling(), notify.New(&cfg.Notify, runtime.Logger), runtime.Logger),
		runtime.Logger,
		workflow.WithTracer(runtime.Tracer),
		workflow.WithObserver(sessions.Archiver(archive, runtime.Logger)),
	)

	deps := sessions.Deps{
		Extractor: extraction.New(runtime.Logger, extraction.WithMaxText(cfg.API.MaxTextSizeBytes())),
		Documents: docs,
		Workflow:  orchestrator,
		Archive:   archive,
	}
	if cfg.Analyzer.Enabled() {
		client := analysis.New(&cfg.Analyzer, runtime.Logger)
		deps.Analyzer = client
		deps.Advisor = client
	} else {
		runtime.Logger.Info("clause analyzer disabled")
	}

	return &Domain{
		Documents: docs,
		Sessions:  sessions.New(deps, runtime.Logger, runtime.Pagination),
		Workflow:  orchestrator,
	}, nil
}
