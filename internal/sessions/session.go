// Package sessions is the caller-facing side of the review workflow: intake
// of uploaded documents, resume and query of running sessions, and the archive
// of finished ones.
package sessions

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/accord/internal/risk"
	"github.com/JaimeStill/accord/internal/workflow"
)

// StartCommand is an upload to review. SessionID is generated when empty.
type StartCommand struct {
	SessionID   string `validate:"omitempty,session_id"`
	UserID      string `validate:"required"`
	Filename    string `validate:"required,max=255"`
	ContentType string
	Data        []byte `validate:"required,min=1"`
}

// StartResult is returned once a session is suspended awaiting approval.
type StartResult struct {
	SessionID        string             `json:"session_id"`
	DocumentID       string             `json:"document_id"`
	WaitingForInput  bool               `json:"waiting_for_input"`
	PendingInputKind workflow.InputKind `json:"pending_input_kind"`
	RiskReport       risk.Report        `json:"risk_report"`
	ClauseReview     *risk.ClauseReview `json:"clause_review,omitempty"`
	Message          string             `json:"message"`
}

// ResumeRequest is the input delivered to a suspended session.
type ResumeRequest struct {
	Kind              string `json:"kind" validate:"required,oneof=approval meeting_date"`
	Approved          *bool  `json:"approved,omitempty" validate:"required_if=Kind approval"`
	MeetingDate       string `json:"meeting_date,omitempty" validate:"max=200"`
	NotificationEmail string `json:"notification_email,omitempty" validate:"omitempty,email"`
}

// Input converts the request to an orchestrator input.
func (r ResumeRequest) Input() workflow.Input {
	return workflow.Input{
		Kind:              workflow.InputKind(r.Kind),
		Approved:          r.Approved,
		MeetingDate:       r.MeetingDate,
		NotificationEmail: r.NotificationEmail,
	}
}

// ResumeResult summarizes a session after a resume.
type ResumeResult struct {
	SessionID        string                     `json:"session_id"`
	Stage            workflow.Stage             `json:"stage"`
	WaitingForInput  bool                       `json:"waiting_for_input"`
	PendingInputKind workflow.InputKind         `json:"pending_input_kind"`
	TerminalStatus   workflow.TerminalStatus    `json:"terminal_status,omitempty"`
	SigningRecord    *workflow.SigningRecord    `json:"signing_record,omitempty"`
	SchedulingRecord *workflow.SchedulingRecord `json:"scheduling_record,omitempty"`
	Error            string                     `json:"error,omitempty"`
	Message          string                     `json:"message"`
}

// NewResumeResult projects a state onto the resume response.
func NewResumeResult(s workflow.State) ResumeResult {
	return ResumeResult{
		SessionID:        s.SessionID,
		Stage:            s.Stage,
		WaitingForInput:  s.WaitingForInput,
		PendingInputKind: s.PendingInputKind,
		TerminalStatus:   s.TerminalStatus,
		SigningRecord:    s.SigningRecord,
		SchedulingRecord: s.SchedulingRecord,
		Error:            s.Error,
		Message:          message(s),
	}
}

const startMessage = "File analyzed and workflow started. Please review the risk assessment and approve or reject."

func message(s workflow.State) string {
	switch s.TerminalStatus {
	case workflow.StatusSuccess:
		return "Workflow completed successfully!"
	case workflow.StatusRejected:
		return "Document rejected. Workflow ended."
	case workflow.StatusFailed:
		return "Workflow completed with errors."
	}

	switch s.PendingInputKind {
	case workflow.InputApproval:
		return "Waiting for approval."
	case workflow.InputMeetingDate:
		return "Please provide a meeting date to continue."
	}
	return "Processing workflow..."
}

// Outcome is the archived summary of a session that reached a terminal stage.
type Outcome struct {
	SessionID      string                  `json:"session_id"`
	UserID         string                  `json:"user_id"`
	DocumentID     *uuid.UUID              `json:"document_id,omitempty"`
	Filename       *string                 `json:"filename,omitempty"`
	Stage          workflow.Stage          `json:"stage"`
	TerminalStatus workflow.TerminalStatus `json:"terminal_status"`
	RiskLabel      risk.Label              `json:"risk_label"`
	RiskScore      int                     `json:"risk_score"`
	Approved       *bool                   `json:"approved,omitempty"`
	SignatureID    *string                 `json:"signature_id,omitempty"`
	MeetingID      *string                 `json:"meeting_id,omitempty"`
	MeetingDate    *string                 `json:"meeting_date,omitempty"`
	Error          *string                 `json:"error,omitempty"`
	StartedAt      time.Time               `json:"started_at"`
	CompletedAt    time.Time               `json:"completed_at"`
}

// SessionSummary is the listing view of a live session.
type SessionSummary struct {
	SessionID        string                  `json:"session_id"`
	UserID           string                  `json:"user_id"`
	DocumentID       string                  `json:"document_id,omitempty"`
	Filename         string                  `json:"filename,omitempty"`
	Stage            workflow.Stage          `json:"stage"`
	WaitingForInput  bool                    `json:"waiting_for_input"`
	PendingInputKind workflow.InputKind      `json:"pending_input_kind"`
	TerminalStatus   workflow.TerminalStatus `json:"terminal_status,omitempty"`
	RiskLabel        risk.Label              `json:"risk_label"`
	RiskScore        int                     `json:"risk_score"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// SessionList is the response of the live session listing.
type SessionList struct {
	Sessions []SessionSummary `json:"sessions"`
	Total    int              `json:"total"`
}

func summarize(s workflow.State) SessionSummary {
	return SessionSummary{
		SessionID:        s.SessionID,
		UserID:           s.UserID,
		DocumentID:       s.DocumentID,
		Filename:         s.Filename,
		Stage:            s.Stage,
		WaitingForInput:  s.WaitingForInput,
		PendingInputKind: s.PendingInputKind,
		TerminalStatus:   s.TerminalStatus,
		RiskLabel:        s.RiskReport.Label,
		RiskScore:        s.RiskReport.Score,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

type SummaryResult struct {
	SessionID string `json:"session_id"`
	Summary   string `json:"summary"`
}

// SuggestionRequest asks for a clause draft. An empty RiskyText drafts the
// clause from scratch; otherwise the text is rewritten.
type SuggestionRequest struct {
	ClauseName string `json:"clause_name" validate:"required,max=200"`
	RiskyText  string `json:"risky_text,omitempty" validate:"max=20000"`
}

type SuggestionResult struct {
	SessionID  string `json:"session_id"`
	ClauseName string `json:"clause_name"`
	RiskyText  string `json:"risky_text,omitempty"`
	Suggestion string `json:"suggestion"`
}

type QuestionRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

type AnswerResult struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}
