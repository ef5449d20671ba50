package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/accord/internal/auth"
	"github.com/JaimeStill/accord/internal/documents"
	"github.com/JaimeStill/accord/internal/extraction"
	"github.com/JaimeStill/accord/internal/risk"
	"github.com/JaimeStill/accord/internal/workflow"
	"github.com/JaimeStill/accord/pkg/pagination"
)

type service struct {
	extractor  Extractor
	analyzer   Analyzer
	advisor    Advisor
	documents  Documents
	workflow   Workflow
	archive    Archive
	logger     *slog.Logger
	pagination pagination.Config
}

// Deps are the collaborators of the session system. Analyzer may be nil, in
// which case intake skips clause review. A nil Advisor disables summaries,
// suggestions and questions.
type Deps struct {
	Extractor Extractor
	Analyzer  Analyzer
	Advisor   Advisor
	Documents Documents
	Workflow  Workflow
	Archive   Archive
}

// New creates the session system.
func New(deps Deps, logger *slog.Logger, pagination pagination.Config) System {
	return &service{
		extractor:  deps.Extractor,
		analyzer:   deps.Analyzer,
		advisor:    deps.Advisor,
		documents:  deps.Documents,
		workflow:   deps.Workflow,
		archive:    deps.Archive,
		logger:     logger.With("system", "sessions"),
		pagination: pagination,
	}
}

func (s *service) Handler(maxUploadSize int64) *Handler {
	return NewHandler(s, s.logger, s.pagination, maxUploadSize)
}

// Start runs intake: extraction, then risk scoring alongside clause review,
// then document persistence, then the workflow start. A failure in extraction
// or analysis aborts before anything is stored.
func (s *service) Start(ctx context.Context, cmd StartCommand) (*StartResult, error) {
	if err := check(cmd); err != nil {
		return nil, err
	}

	if cmd.SessionID == "" {
		cmd.SessionID = uuid.NewString()
	} else if _, err := s.workflow.Query(ctx, cmd.SessionID); err == nil {
		return nil, fmt.Errorf("%w: %s", workflow.ErrDuplicateSession, cmd.SessionID)
	}

	cmd.ContentType = extraction.Normalize(cmd.ContentType, cmd.Data)

	text, err := s.extractor.Extract(cmd.Data, cmd.ContentType)
	if err != nil {
		return nil, err
	}

	meta := risk.FileMetadata{
		Filename:    cmd.Filename,
		ContentType: cmd.ContentType,
		SizeBytes:   int64(len(cmd.Data)),
	}

	report, review, err := s.assess(ctx, text, meta)
	if err != nil {
		return nil, err
	}

	doc, err := s.documents.Create(ctx, documents.CreateCommand{
		Data:        cmd.Data,
		Filename:    cmd.Filename,
		ContentType: cmd.ContentType,
		SessionID:   cmd.SessionID,
		UserID:      cmd.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	state, err := s.workflow.Start(ctx, workflow.StartCommand{
		SessionID:    cmd.SessionID,
		UserID:       cmd.UserID,
		DocumentID:   doc.ID.String(),
		Filename:     cmd.Filename,
		RiskReport:   report,
		ClauseReview: review,
	})
	if err != nil {
		if delErr := s.documents.Delete(context.WithoutCancel(ctx), doc.ID); delErr != nil {
			s.logger.Warn("compensating document delete failed", "document_id", doc.ID, "error", delErr)
		}
		return nil, err
	}

	return &StartResult{
		SessionID:        state.SessionID,
		DocumentID:       state.DocumentID,
		WaitingForInput:  state.WaitingForInput,
		PendingInputKind: state.PendingInputKind,
		RiskReport:       state.RiskReport,
		ClauseReview:     state.ClauseReview,
		Message:          startMessage,
	}, nil
}

// assess scores text and, when an analyzer is configured and there is text to
// read, reviews clauses concurrently.
func (s *service) assess(ctx context.Context, text string, meta risk.FileMetadata) (risk.Report, *risk.ClauseReview, error) {
	var (
		report risk.Report
		review *risk.ClauseReview
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		report = risk.Assess(text, meta)
		return nil
	})

	if s.analyzer != nil && strings.TrimSpace(text) != "" {
		g.Go(func() error {
			clauses, err := s.analyzer.Analyze(gctx, text)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrExternalService, err)
			}
			summary := risk.SummarizeClauses(clauses)
			review = &summary
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return risk.Report{}, nil, err
	}
	return report, review, nil
}

func (s *service) Resume(ctx context.Context, caller auth.Identity, sessionID string, req ResumeRequest) (*ResumeResult, error) {
	if err := check(req); err != nil {
		return nil, err
	}

	if _, err := s.owned(ctx, caller, sessionID); err != nil {
		return nil, err
	}

	state, err := s.workflow.Resume(ctx, sessionID, req.Input())
	if err != nil {
		return nil, err
	}

	result := NewResumeResult(state)
	return &result, nil
}

// Find returns a session to its owner, or to an auditor.
func (s *service) Find(ctx context.Context, caller auth.Identity, sessionID string) (*workflow.State, error) {
	state, err := s.query(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.UserID != caller.UserID && !caller.HasRole(auth.RoleAuditor) {
		return nil, s.denied(caller, sessionID)
	}
	return state, nil
}

func (s *service) Active(ctx context.Context, userID string) SessionList {
	states := s.workflow.List(ctx, userID)

	list := SessionList{
		Sessions: make([]SessionSummary, len(states)),
		Total:    len(states),
	}
	for i, st := range states {
		list.Sessions[i] = summarize(st)
	}
	return list
}

func (s *service) Summary(ctx context.Context, caller auth.Identity, sessionID string) (*SummaryResult, error) {
	text, err := s.advisable(ctx, caller, sessionID)
	if err != nil {
		return nil, err
	}

	summary, err := s.advisor.Summarize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExternalService, err)
	}

	return &SummaryResult{SessionID: sessionID, Summary: summary}, nil
}

func (s *service) Suggest(ctx context.Context, caller auth.Identity, sessionID string, req SuggestionRequest) (*SuggestionResult, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, caller, sessionID); err != nil {
		return nil, err
	}
	if s.advisor == nil {
		return nil, ErrAdvisorDisabled
	}

	suggestion, err := s.advisor.Suggest(ctx, req.ClauseName, req.RiskyText)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExternalService, err)
	}

	return &SuggestionResult{
		SessionID:  sessionID,
		ClauseName: req.ClauseName,
		RiskyText:  req.RiskyText,
		Suggestion: suggestion,
	}, nil
}

func (s *service) Ask(ctx context.Context, caller auth.Identity, sessionID string, req QuestionRequest) (*AnswerResult, error) {
	if err := check(req); err != nil {
		return nil, err
	}

	text, err := s.advisable(ctx, caller, sessionID)
	if err != nil {
		return nil, err
	}

	answer, err := s.advisor.Answer(ctx, text, req.Question)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExternalService, err)
	}

	return &AnswerResult{SessionID: sessionID, Question: req.Question, Answer: answer}, nil
}

// advisable checks ownership and the advisor, then returns the text of the
// session's document.
func (s *service) advisable(ctx context.Context, caller auth.Identity, sessionID string) (string, error) {
	state, err := s.owned(ctx, caller, sessionID)
	if err != nil {
		return "", err
	}
	if s.advisor == nil {
		return "", ErrAdvisorDisabled
	}

	id, err := uuid.Parse(state.DocumentID)
	if err != nil {
		return "", fmt.Errorf("%w: session %s has no document", ErrNoText, sessionID)
	}

	doc, err := s.documents.Find(ctx, id)
	if err != nil {
		return "", err
	}

	data, err := s.documents.Content(ctx, state.DocumentID)
	if err != nil {
		return "", err
	}

	text, err := s.extractor.Extract(data, doc.ContentType)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrNoText, doc.Filename)
	}
	return text, nil
}

func (s *service) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters OutcomeFilters,
) (*pagination.PageResult[Outcome], error) {
	return s.archive.List(ctx, page, filters)
}

// owned returns the session only to its owner.
func (s *service) owned(ctx context.Context, caller auth.Identity, sessionID string) (*workflow.State, error) {
	state, err := s.query(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.UserID != caller.UserID {
		return nil, s.denied(caller, sessionID)
	}
	return state, nil
}

func (s *service) query(ctx context.Context, sessionID string) (*workflow.State, error) {
	state, err := s.workflow.Query(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *service) denied(caller auth.Identity, sessionID string) error {
	s.logger.Warn("session access denied", "session_id", sessionID, "user_id", caller.UserID)
	return fmt.Errorf("%w: %s", ErrForbidden, sessionID)
}
