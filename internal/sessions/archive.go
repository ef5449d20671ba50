package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/google/uuid"

	"github.com/JaimeStill/accord/internal/workflow"
	"github.com/JaimeStill/accord/pkg/pagination"
	"github.com/JaimeStill/accord/pkg/query"
	"github.com/JaimeStill/accord/pkg/repository"
)

// Archive stores the outcome of every session that reaches a terminal stage.
type Archive interface {
	Record(ctx context.Context, s workflow.State) error
	List(ctx context.Context, page pagination.PageRequest, filters OutcomeFilters) (*pagination.PageResult[Outcome], error)
}

var outcomeProjection = query.
	NewProjectionMap("public", "workflow_outcomes", "o").
	Project("session_id", "SessionID").
	Project("user_id", "UserID").
	Project("document_id", "DocumentID").
	Project("stage", "Stage").
	Project("terminal_status", "TerminalStatus").
	Project("risk_label", "RiskLabel").
	Project("risk_score", "RiskScore").
	Project("approved", "Approved").
	Project("signature_id", "SignatureID").
	Project("meeting_id", "MeetingID").
	Project("meeting_date", "MeetingDate").
	Project("error", "Error").
	Project("started_at", "StartedAt").
	Project("completed_at", "CompletedAt").
	Join("public", "documents", "d", "LEFT JOIN", "d.id = o.document_id").
	Project("filename", "Filename")

var outcomeSort = query.SortField{
	Field:      "CompletedAt",
	Descending: true,
}

// OutcomeFilters narrows archive queries. Nil fields are ignored.
type OutcomeFilters struct {
	TerminalStatus *string `json:"terminal_status,omitempty"`
	RiskLabel      *string `json:"risk_label,omitempty"`
	UserID         *string `json:"user_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f OutcomeFilters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("TerminalStatus", f.TerminalStatus).
		WhereEquals("RiskLabel", f.RiskLabel).
		WhereEquals("UserID", f.UserID)
}

// OutcomeFiltersFromQuery extracts filter values from URL query parameters.
func OutcomeFiltersFromQuery(values url.Values) OutcomeFilters {
	var f OutcomeFilters

	if s := values.Get("terminal_status"); s != "" {
		f.TerminalStatus = &s
	}
	if l := values.Get("risk_label"); l != "" {
		f.RiskLabel = &l
	}
	if u := values.Get("user_id"); u != "" {
		f.UserID = &u
	}

	return f
}

type archive struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// NewArchive creates the Postgres-backed outcome archive.
func NewArchive(db *sql.DB, logger *slog.Logger, pagination pagination.Config) Archive {
	return &archive{
		db:         db,
		logger:     logger.With("system", "outcomes"),
		pagination: pagination,
	}
}

func (a *archive) Record(ctx context.Context, s workflow.State) error {
	state, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", s.SessionID, err)
	}

	o := outcomeOf(s)

	q := `
		INSERT INTO workflow_outcomes(
			session_id, user_id, document_id, stage, terminal_status, risk_label, risk_score,
			approved, signature_id, meeting_id, meeting_date, error, state, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (session_id) DO NOTHING`

	_, err = repository.WithTx(ctx, a.db, func(tx *sql.Tx) (struct{}, error) {
		_, err := tx.ExecContext(ctx, q,
			o.SessionID,
			o.UserID,
			o.DocumentID,
			o.Stage,
			o.TerminalStatus,
			o.RiskLabel,
			o.RiskScore,
			o.Approved,
			o.SignatureID,
			o.MeetingID,
			o.MeetingDate,
			o.Error,
			string(state),
			o.StartedAt,
			o.CompletedAt,
		)
		return struct{}{}, err
	})
	if err != nil {
		return fmt.Errorf("record outcome %s: %w", s.SessionID, err)
	}

	a.logger.Info("outcome recorded", "session_id", s.SessionID, "terminal_status", s.TerminalStatus)
	return nil
}

func (a *archive) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters OutcomeFilters,
) (*pagination.PageResult[Outcome], error) {
	page.Normalize(a.pagination)

	qb := query.
		NewBuilder(outcomeProjection, outcomeSort).
		WhereSearch(page.Search, "Filename")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := a.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	outcomes, err := repository.QueryMany(ctx, a.db, pageSQL, pageArgs, scanOutcome)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}

	result := pagination.NewPageResult(outcomes, total, page.Page, page.PageSize)
	return &result, nil
}

// outcomeOf flattens a terminal state into its archive row.
func outcomeOf(s workflow.State) Outcome {
	o := Outcome{
		SessionID:      s.SessionID,
		UserID:         s.UserID,
		Stage:          s.Stage,
		TerminalStatus: s.TerminalStatus,
		RiskLabel:      s.RiskReport.Label,
		RiskScore:      s.RiskReport.Score,
		Approved:       s.Approved,
		StartedAt:      s.CreatedAt,
		CompletedAt:    s.UpdatedAt,
	}

	if id, err := uuid.Parse(s.DocumentID); err == nil {
		o.DocumentID = &id
	}
	if s.Filename != "" {
		o.Filename = &s.Filename
	}
	if s.SigningRecord != nil {
		o.SignatureID = &s.SigningRecord.SignatureID
	}
	if r := s.SchedulingRecord; r != nil && r.MeetingID != "" {
		o.MeetingID = &r.MeetingID
		o.MeetingDate = &r.MeetingDate
	}
	if s.Error != "" {
		o.Error = &s.Error
	}
	return o
}

func scanOutcome(s repository.Scanner) (Outcome, error) {
	var o Outcome
	err := s.Scan(
		&o.SessionID,
		&o.UserID,
		&o.DocumentID,
		&o.Stage,
		&o.TerminalStatus,
		&o.RiskLabel,
		&o.RiskScore,
		&o.Approved,
		&o.SignatureID,
		&o.MeetingID,
		&o.MeetingDate,
		&o.Error,
		&o.StartedAt,
		&o.CompletedAt,
		&o.Filename,
	)
	return o, err
}

type archiver struct {
	archive Archive
	logger  *slog.Logger
}

// Archiver returns a workflow observer that records terminal sessions.
// Archive failures are logged; the session itself is unaffected.
func Archiver(a Archive, logger *slog.Logger) workflow.Observer {
	return &archiver{archive: a, logger: logger.With("system", "outcomes")}
}

func (a *archiver) OnTerminal(ctx context.Context, s workflow.State) {
	if err := a.archive.Record(context.WithoutCancel(ctx), s); err != nil {
		a.logger.Error("archive outcome failed", "session_id", s.SessionID, "error", err)
	}
}
