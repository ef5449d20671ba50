// Package workflow drives a document session through approval, signing and
// scheduling. Sessions suspend at two input points by recording a stage
// marker; Resume advances them again. No goroutine blocks while a session waits.
package workflow

import (
	"slices"
	"time"

	"github.com/JaimeStill/accord/internal/risk"
)

// Stage is the position of a session in the workflow.
type Stage string

const (
	StageAwaitingApproval    Stage = "AwaitingApproval"
	StageAwaitingMeetingDate Stage = "AwaitingMeetingDate"
	StageSigning             Stage = "Signing"
	StageScheduling          Stage = "Scheduling"
	StageComplete            Stage = "Complete"
	StageRejected            Stage = "Rejected"
	StageFailed              Stage = "Failed"
)

// InputKind names the external input a suspended session is waiting for.
type InputKind string

const (
	InputNone        InputKind = ""
	InputApproval    InputKind = "approval"
	InputMeetingDate InputKind = "meeting_date"
)

// TerminalStatus is the final outcome of a session.
type TerminalStatus string

const (
	StatusNone     TerminalStatus = ""
	StatusSuccess  TerminalStatus = "SUCCESS"
	StatusRejected TerminalStatus = "REJECTED"
	StatusFailed   TerminalStatus = "FAILED"
	StatusExpired  TerminalStatus = "EXPIRED"
)

// Record statuses.
const (
	SigningSigned    = "SIGNED"
	SchedulingDone   = "SCHEDULED"
	SchedulingFailed = "FAILED"
)

// SigningRecord is the output of the signing stage.
type SigningRecord struct {
	Status            string `json:"status"`
	SignatureID       string `json:"signature_id"`
	SignedAt          string `json:"signed_at"`
	MeetingDate       string `json:"meeting_date"`
	DocumentHash      string `json:"document_hash"`
	DigitalSignature  string `json:"digital_signature"`
	SignerID          string `json:"signer_id"`
	SigningMethod     string `json:"signing_method"`
	DocumentVersion   string `json:"document_version"`
	ComplianceChecked bool   `json:"compliance_checked"`
	Message           string `json:"message"`
}

// CalendarEntry is the calendar representation of a scheduled meeting.
type CalendarEntry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	DocumentRef string    `json:"document_ref"`
	SessionRef  string    `json:"session_ref"`
}

// SchedulingRecord is the output of the scheduling stage. On failure only
// Status and Error are set.
type SchedulingRecord struct {
	Status            string         `json:"status"`
	MeetingID         string         `json:"meeting_id,omitempty"`
	MeetingDate       string         `json:"meeting_date,omitempty"`
	FallbackDate      bool           `json:"fallback_date"`
	ConfirmationCode  string         `json:"confirmation_code,omitempty"`
	CalendarLink      string         `json:"calendar_link,omitempty"`
	MeetingRoom       string         `json:"meeting_room,omitempty"`
	CalendarEntry     *CalendarEntry `json:"calendar_entry,omitempty"`
	AttendeesNotified bool           `json:"attendees_notified"`
	EmailSent         bool           `json:"email_sent"`
	NotificationError string         `json:"notification_error,omitempty"`
	Message           string         `json:"message,omitempty"`
	Error             string         `json:"error,omitempty"`
}

// State is the complete, replace-as-a-whole record of one session.
// Records are set once and never modified after.
type State struct {
	SessionID         string             `json:"session_id"`
	UserID            string             `json:"user_id"`
	DocumentID        string             `json:"document_id,omitempty"`
	Filename          string             `json:"filename,omitempty"`
	Stage             Stage              `json:"stage"`
	RiskReport        risk.Report        `json:"risk_report"`
	ClauseReview      *risk.ClauseReview `json:"clause_review,omitempty"`
	Approved          *bool              `json:"approved,omitempty"`
	MeetingRequest    string             `json:"meeting_request,omitempty"`
	NotificationEmail string             `json:"notification_email,omitempty"`
	SigningRecord     *SigningRecord     `json:"signing_record,omitempty"`
	SchedulingRecord  *SchedulingRecord  `json:"scheduling_record,omitempty"`
	WaitingForInput   bool               `json:"waiting_for_input"`
	PendingInputKind  InputKind          `json:"pending_input_kind"`
	TerminalStatus    TerminalStatus     `json:"terminal_status,omitempty"`
	Error             string             `json:"error,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	Version           int                `json:"version"`
}

// Terminal reports whether the session has reached a final stage.
func (s State) Terminal() bool {
	return s.Stage.Terminal()
}

// Terminal reports whether no further transitions leave the stage.
func (s Stage) Terminal() bool {
	switch s {
	case StageComplete, StageRejected, StageFailed:
		return true
	}
	return false
}

// pendingInput returns the input a stage suspends for, if any.
func (s Stage) pendingInput() InputKind {
	switch s {
	case StageAwaitingApproval:
		return InputApproval
	case StageAwaitingMeetingDate:
		return InputMeetingDate
	}
	return InputNone
}

// terminalStatus returns the outcome that a stage implies.
func (s Stage) terminalStatus() TerminalStatus {
	switch s {
	case StageComplete:
		return StatusSuccess
	case StageRejected:
		return StatusRejected
	case StageFailed:
		return StatusFailed
	}
	return StatusNone
}

// clone returns a deep copy of s. Stored states never share pointers or
// slices with the values handed to callers.
func (s State) clone() State {
	c := s

	c.RiskReport.Keywords = slices.Clone(s.RiskReport.Keywords)
	c.RiskReport.Recommendations = slices.Clone(s.RiskReport.Recommendations)

	if s.ClauseReview != nil {
		review := *s.ClauseReview
		review.Clauses = slices.Clone(s.ClauseReview.Clauses)
		c.ClauseReview = &review
	}
	if s.Approved != nil {
		approved := *s.Approved
		c.Approved = &approved
	}
	if s.SigningRecord != nil {
		rec := *s.SigningRecord
		c.SigningRecord = &rec
	}
	if s.SchedulingRecord != nil {
		rec := *s.SchedulingRecord
		if rec.CalendarEntry != nil {
			entry := *rec.CalendarEntry
			rec.CalendarEntry = &entry
		}
		c.SchedulingRecord = &rec
	}

	return c
}
