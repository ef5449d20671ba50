package sessions_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/accord/internal/analysis"
	"github.com/JaimeStill/accord/internal/auth"
	"github.com/JaimeStill/accord/internal/documents"
	"github.com/JaimeStill/accord/internal/extraction"
	"github.com/JaimeStill/accord/internal/notify"
	"github.com/JaimeStill/accord/internal/risk"
	"github.com/JaimeStill/accord/internal/scheduling"
	"github.com/JaimeStill/accord/internal/sessions"
	"github.com/JaimeStill/accord/internal/signing"
	"github.com/JaimeStill/accord/internal/workflow"
	"github.com/JaimeStill/accord/pkg/pagination"
)

const contract = `MASTER SERVICES AGREEMENT

This agreement is between Acme Corp and Globex. Payment of $50,000 is due on 2026-06-01.
The supplier shall indemnify the client. Breach of this contract results in penalty and termination.`

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type analyzerFunc func(ctx context.Context, text string) ([]risk.Clause, error)

func (f analyzerFunc) Analyze(ctx context.Context, text string) ([]risk.Clause, error) {
	return f(ctx, text)
}

type memoryDocuments struct {
	mu      sync.Mutex
	docs    map[uuid.UUID]documents.Document
	content map[string][]byte
	fail    error
	deleted []uuid.UUID
}

func newMemoryDocuments() *memoryDocuments {
	return &memoryDocuments{
		docs:    make(map[uuid.UUID]documents.Document),
		content: make(map[string][]byte),
	}
}

func (m *memoryDocuments) Create(_ context.Context, cmd documents.CreateCommand) (*documents.Document, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	d := documents.Document{
		ID:          uuid.New(),
		SessionID:   cmd.SessionID,
		UserID:      cmd.UserID,
		Filename:    cmd.Filename,
		ContentType: cmd.ContentType,
		SizeBytes:   int64(len(cmd.Data)),
	}
	m.docs[d.ID] = d
	m.content[d.ID.String()] = cmd.Data
	return &d, nil
}

func (m *memoryDocuments) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memoryDocuments) Find(_ context.Context, id uuid.UUID) (*documents.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	return &d, nil
}

func (m *memoryDocuments) Content(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.content[id]
	if !ok {
		return nil, documents.ErrNotFound
	}
	return data, nil
}

func (m *memoryDocuments) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

type memoryArchive struct {
	mu       sync.Mutex
	recorded []workflow.State
}

func (a *memoryArchive) Record(_ context.Context, s workflow.State) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recorded = append(a.recorded, s)
	return nil
}

func (a *memoryArchive) List(context.Context, pagination.PageRequest, sessions.OutcomeFilters) (*pagination.PageResult[sessions.Outcome], error) {
	result := pagination.NewPageResult[sessions.Outcome](nil, 0, 1, 20)
	return &result, nil
}

type fixture struct {
	sys      sessions.System
	docs     *memoryDocuments
	archive  *memoryArchive
	registry *workflow.Registry
}

func newFixture(t *testing.T, analyzer sessions.Analyzer) *fixture {
	t.Helper()
	return newFixtureWith(t, func(d *sessions.Deps) {
		if analyzer != nil {
			d.Analyzer = analyzer
		}
	})
}

func newFixtureWith(t *testing.T, configure func(*sessions.Deps)) *fixture {
	t.Helper()

	logger := discard()
	docs := newMemoryDocuments()
	archive := &memoryArchive{}
	registry := workflow.NewRegistry(workflow.RegistryConfig{}, logger)

	now := func() time.Time { return time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC) }
	orch := workflow.New(
		registry,
		signing.New(docs, logger),
		scheduling.New(scheduling.Config{Now: now}, notify.NewLog(logger), logger),
		logger,
		workflow.WithObserver(sessions.Archiver(archive, logger)),
	)

	deps := sessions.Deps{
		Extractor: extraction.New(logger),
		Documents: docs,
		Workflow:  orch,
		Archive:   archive,
	}
	configure(&deps)

	return &fixture{
		sys:      sessions.New(deps, logger, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}),
		docs:     docs,
		archive:  archive,
		registry: registry,
	}
}

func startCommand(sessionID string) sessions.StartCommand {
	return sessions.StartCommand{
		SessionID:   sessionID,
		UserID:      "alice",
		Filename:    "msa.txt",
		ContentType: "text/plain",
		Data:        []byte(contract),
	}
}

var alice = auth.Identity{UserID: "alice"}

func TestStart(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.sys.Start(context.Background(), startCommand("session-1"))
	require.NoError(t, err)

	assert.Equal(t, "session-1", result.SessionID)
	assert.NotEmpty(t, result.DocumentID)
	assert.True(t, result.WaitingForInput)
	assert.Equal(t, workflow.InputApproval, result.PendingInputKind)
	assert.NotEqual(t, risk.LabelUnknown, result.RiskReport.Label)
	assert.Equal(t, "msa.txt", result.RiskReport.Metadata.Filename)
	assert.Nil(t, result.ClauseReview)
	assert.Equal(t, 1, f.docs.count())
}

func TestStartGeneratesSessionID(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.sys.Start(context.Background(), startCommand(""))
	require.NoError(t, err)

	_, err = uuid.Parse(result.SessionID)
	assert.NoError(t, err)
}

func TestStartValidation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name   string
		mutate func(*sessions.StartCommand)
	}{
		{name: "missing user", mutate: func(c *sessions.StartCommand) { c.UserID = "" }},
		{name: "missing filename", mutate: func(c *sessions.StartCommand) { c.Filename = "" }},
		{name: "empty file", mutate: func(c *sessions.StartCommand) { c.Data = []byte{} }},
		{name: "bad session id", mutate: func(c *sessions.StartCommand) { c.SessionID = "has spaces/and slashes" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := startCommand("session-v")
			tt.mutate(&cmd)

			_, err := f.sys.Start(context.Background(), cmd)
			assert.ErrorIs(t, err, workflow.ErrValidation)
		})
	}
	assert.Zero(t, f.docs.count())
}

func TestStartDuplicate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.sys.Start(ctx, startCommand("dup"))
	require.NoError(t, err)

	_, err = f.sys.Start(ctx, startCommand("dup"))
	assert.ErrorIs(t, err, workflow.ErrDuplicateSession)
	assert.Equal(t, 1, f.docs.count(), "no second upload")
}

func TestStartExtractionFailure(t *testing.T) {
	f := newFixture(t, nil)

	cmd := startCommand("session-x")
	cmd.ContentType = "image/png"
	cmd.Data = []byte("\x89PNG\r\n\x1a\n")

	_, err := f.sys.Start(context.Background(), cmd)
	assert.ErrorIs(t, err, extraction.ErrUnsupported)
	assert.NotErrorIs(t, err, sessions.ErrExternalService)
	assert.Equal(t, http.StatusUnsupportedMediaType, sessions.MapHTTPStatus(err))
	assert.Zero(t, f.docs.count())

	_, err = f.sys.Find(context.Background(), alice, "session-x")
	assert.ErrorIs(t, err, workflow.ErrSessionNotFound)
}

func TestStartWithClauseReview(t *testing.T) {
	var seen string
	analyzer := analyzerFunc(func(_ context.Context, text string) ([]risk.Clause, error) {
		seen = text
		return []risk.Clause{
			{Name: "Indemnification", Present: true, Level: risk.ClauseHigh},
			{Name: "Force Majeure", Present: true, Level: risk.ClauseLow},
		}, nil
	})
	f := newFixture(t, analyzer)

	result, err := f.sys.Start(context.Background(), startCommand("session-c"))
	require.NoError(t, err)

	assert.Equal(t, contract, seen)
	require.NotNil(t, result.ClauseReview)
	assert.Equal(t, risk.ClauseHigh, result.ClauseReview.MaxLevel)
	assert.Equal(t, 1, result.ClauseReview.High)
}

func TestStartAnalysisFailure(t *testing.T) {
	analyzer := analyzerFunc(func(context.Context, string) ([]risk.Clause, error) {
		return nil, fmt.Errorf("%w: status 503", analysis.ErrAnalysis)
	})
	f := newFixture(t, analyzer)

	_, err := f.sys.Start(context.Background(), startCommand("session-a"))
	assert.ErrorIs(t, err, sessions.ErrExternalService)
	assert.ErrorIs(t, err, analysis.ErrAnalysis)
	assert.Zero(t, f.docs.count())
}

func TestStartSkipsAnalysisWithoutText(t *testing.T) {
	called := false
	analyzer := analyzerFunc(func(context.Context, string) ([]risk.Clause, error) {
		called = true
		return nil, nil
	})
	f := newFixture(t, analyzer)

	cmd := startCommand("session-empty")
	cmd.Data = []byte("   \n")

	result, err := f.sys.Start(context.Background(), cmd)
	require.NoError(t, err)

	assert.False(t, called)
	assert.Equal(t, risk.LabelUnknown, result.RiskReport.Label)
}

func TestStartDocumentFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.docs.fail = errors.New("storage unavailable")

	_, err := f.sys.Start(context.Background(), startCommand("session-d"))
	assert.Error(t, err)

	_, err = f.sys.Find(context.Background(), alice, "session-d")
	assert.ErrorIs(t, err, workflow.ErrSessionNotFound)
}

func TestResumeToCompletion(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.sys.Start(ctx, startCommand("session-r"))
	require.NoError(t, err)

	approved := true
	res, err := f.sys.Resume(ctx, alice, "session-r", sessions.ResumeRequest{Kind: "approval", Approved: &approved})
	require.NoError(t, err)
	assert.Equal(t, workflow.StageAwaitingMeetingDate, res.Stage)
	assert.Equal(t, "Please provide a meeting date to continue.", res.Message)

	res, err = f.sys.Resume(ctx, alice, "session-r", sessions.ResumeRequest{
		Kind:        "meeting_date",
		MeetingDate: "2026-06-15T14:00:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, workflow.StageComplete, res.Stage)
	assert.Equal(t, workflow.StatusSuccess, res.TerminalStatus)
	assert.Equal(t, "Workflow completed successfully!", res.Message)
	require.NotNil(t, res.SigningRecord)
	assert.Equal(t, workflow.SigningSigned, res.SigningRecord.Status)
	require.NotNil(t, res.SchedulingRecord)
	assert.Equal(t, workflow.SchedulingDone, res.SchedulingRecord.Status)

	state, err := f.sys.Find(ctx, alice, "session-r")
	require.NoError(t, err)
	assert.Equal(t, res.SigningRecord, state.SigningRecord)

	require.Len(t, f.archive.recorded, 1)
	assert.Equal(t, "session-r", f.archive.recorded[0].SessionID)
}

func TestResumeRejected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.sys.Start(ctx, startCommand("session-no"))
	require.NoError(t, err)

	approved := false
	res, err := f.sys.Resume(ctx, alice, "session-no", sessions.ResumeRequest{Kind: "approval", Approved: &approved})
	require.NoError(t, err)

	assert.Equal(t, workflow.StatusRejected, res.TerminalStatus)
	assert.Nil(t, res.SigningRecord)
	assert.Nil(t, res.SchedulingRecord)
	assert.Len(t, f.archive.recorded, 1)
}

func TestResumeErrors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.sys.Start(ctx, startCommand("session-e"))
	require.NoError(t, err)

	approved := true
	tests := []struct {
		name   string
		caller auth.Identity
		id     string
		req    sessions.ResumeRequest
		want   error
	}{
		{name: "unknown kind", caller: alice, id: "session-e", req: sessions.ResumeRequest{Kind: "signature"}, want: workflow.ErrValidation},
		{name: "approval without decision", caller: alice, id: "session-e", req: sessions.ResumeRequest{Kind: "approval"}, want: workflow.ErrValidation},
		{name: "bad email", caller: alice, id: "session-e", req: sessions.ResumeRequest{Kind: "meeting_date", NotificationEmail: "nope"}, want: workflow.ErrValidation},
		{name: "wrong kind", caller: alice, id: "session-e", req: sessions.ResumeRequest{Kind: "meeting_date"}, want: workflow.ErrNotWaiting},
		{name: "other user", caller: auth.Identity{UserID: "mallory"}, id: "session-e", req: sessions.ResumeRequest{Kind: "approval", Approved: &approved}, want: sessions.ErrForbidden},
		{name: "missing session", caller: alice, id: "nope", req: sessions.ResumeRequest{Kind: "approval", Approved: &approved}, want: workflow.ErrSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.sys.Resume(ctx, tt.caller, tt.id, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	state, err := f.sys.Find(ctx, alice, "session-e")
	require.NoError(t, err)
	assert.Equal(t, workflow.StageAwaitingApproval, state.Stage, "failed resumes leave the session unchanged")
}

func TestFindForbidden(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.sys.Start(ctx, startCommand("session-f"))
	require.NoError(t, err)

	_, err = f.sys.Find(ctx, auth.Identity{UserID: "mallory"}, "session-f")
	assert.ErrorIs(t, err, sessions.ErrForbidden)
}

func TestConcurrentResumeSignsOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.sys.Start(ctx, startCommand("session-cc"))
	require.NoError(t, err)

	approved := true
	_, err = f.sys.Resume(ctx, alice, "session-cc", sessions.ResumeRequest{Kind: "approval", Approved: &approved})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for range 8 {
		wg.Go(func() {
			_, err := f.sys.Resume(ctx, alice, "session-cc", sessions.ResumeRequest{Kind: "meeting_date", MeetingDate: "2026-06-15"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, workflow.ErrNotWaiting) {
				conflicts++
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 7, conflicts)
	assert.Len(t, f.archive.recorded, 1)
}
