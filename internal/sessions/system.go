package sessions

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/accord/internal/auth"
	"github.com/JaimeStill/accord/internal/documents"
	"github.com/JaimeStill/accord/internal/risk"
	"github.com/JaimeStill/accord/internal/workflow"
	"github.com/JaimeStill/accord/pkg/pagination"
)

// System defines the public contract for session operations. Every call that
// names an existing session is checked against the caller's identity.
type System interface {
	Handler(maxUploadSize int64) *Handler

	Start(ctx context.Context, cmd StartCommand) (*StartResult, error)
	Resume(ctx context.Context, caller auth.Identity, sessionID string, req ResumeRequest) (*ResumeResult, error)
	Find(ctx context.Context, caller auth.Identity, sessionID string) (*workflow.State, error)
	List(ctx context.Context, page pagination.PageRequest, filters OutcomeFilters) (*pagination.PageResult[Outcome], error)

	// Active lists live sessions. An empty userID lists every user's.
	Active(ctx context.Context, userID string) SessionList

	Summary(ctx context.Context, caller auth.Identity, sessionID string) (*SummaryResult, error)
	Suggest(ctx context.Context, caller auth.Identity, sessionID string, req SuggestionRequest) (*SuggestionResult, error)
	Ask(ctx context.Context, caller auth.Identity, sessionID string, req QuestionRequest) (*AnswerResult, error)
}

// Extractor returns the plain text of uploaded content.
type Extractor interface {
	Extract(data []byte, mimeType string) (string, error)
}

// Analyzer reviews text for contract clauses.
type Analyzer interface {
	Analyze(ctx context.Context, text string) ([]risk.Clause, error)
}

// Advisor writes prose about a contract.
type Advisor interface {
	Summarize(ctx context.Context, text string) (string, error)
	Suggest(ctx context.Context, clause, riskyText string) (string, error)
	Answer(ctx context.Context, text, question string) (string, error)
}

// Documents persists uploaded content.
type Documents interface {
	Create(ctx context.Context, cmd documents.CreateCommand) (*documents.Document, error)
	Find(ctx context.Context, id uuid.UUID) (*documents.Document, error)
	Content(ctx context.Context, id string) ([]byte, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Workflow runs session transitions.
type Workflow interface {
	Start(ctx context.Context, cmd workflow.StartCommand) (workflow.State, error)
	Resume(ctx context.Context, sessionID string, in workflow.Input) (workflow.State, error)
	Query(ctx context.Context, sessionID string) (workflow.State, error)
	List(ctx context.Context, userID string) []workflow.State
}
