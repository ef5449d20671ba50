package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/JaimeStill/accord/internal/risk"
)

const (
	reasonSigning    = "signing stage failed"
	reasonScheduling = "scheduling stage failed"
	reasonInternal   = "internal workflow error"
	reasonExpired    = "session expired before completion"
)

// Signer produces the signing record for an approved session.
// Returning an error wrapping ErrPrecondition fails the session with that message.
type Signer interface {
	Sign(ctx context.Context, s State) (SigningRecord, error)
}

// Scheduler books the review meeting for a signed session.
// Returning an error wrapping ErrPrecondition fails the session with that message.
type Scheduler interface {
	Schedule(ctx context.Context, s State) (SchedulingRecord, error)
}

// Observer is notified once a session reaches a terminal stage, or when an
// unfinished session expires with TerminalStatus set to StatusExpired.
type Observer interface {
	OnTerminal(ctx context.Context, s State)
}

// StartCommand carries the inputs for a new session.
type StartCommand struct {
	SessionID    string
	UserID       string
	DocumentID   string
	Filename     string
	RiskReport   risk.Report
	ClauseReview *risk.ClauseReview
}

// Input is the payload supplied when resuming a suspended session.
type Input struct {
	Kind              InputKind
	Approved          *bool
	MeetingDate       string
	NotificationEmail string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTracer sets the OpenTelemetry tracer. The default is a no-op tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithObserver adds an observer for terminal sessions.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// Orchestrator runs session transitions. All work happens on the caller's
// goroutine; suspension is a stored stage marker.
type Orchestrator struct {
	registry  *Registry
	signer    Signer
	scheduler Scheduler
	observers []Observer
	logger    *slog.Logger
	tracer    trace.Tracer
}

// New creates an Orchestrator backed by registry.
func New(registry *Registry, signer Signer, scheduler Scheduler, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:  registry,
		signer:    signer,
		scheduler: scheduler,
		logger:    logger.With("system", "workflow"),
		tracer:    noop.NewTracerProvider().Tracer("workflow"),
	}

	for _, opt := range opts {
		opt(o)
	}

	registry.OnEvict(o.expired)

	return o
}

// Start creates a session and suspends it awaiting approval.
func (o *Orchestrator) Start(ctx context.Context, cmd StartCommand) (State, error) {
	_, span := o.tracer.Start(ctx, "workflow.Start", trace.WithAttributes(
		attribute.String("session.id", cmd.SessionID),
	))
	defer span.End()

	if cmd.SessionID == "" || cmd.UserID == "" {
		err := fmt.Errorf("%w: session id and user id are required", ErrValidation)
		recordError(span, err)
		return State{}, err
	}

	s := State{
		SessionID:    cmd.SessionID,
		UserID:       cmd.UserID,
		DocumentID:   cmd.DocumentID,
		Filename:     cmd.Filename,
		Stage:        StageAwaitingApproval,
		RiskReport:   cmd.RiskReport,
		ClauseReview: cmd.ClauseReview,
	}
	derive(&s)

	created, err := o.registry.Create(s)
	if err != nil {
		recordError(span, err)
		return State{}, err
	}

	span.SetAttributes(attribute.String("stage", string(created.Stage)))
	o.logger.Info(
		"session started",
		"session_id", created.SessionID,
		"risk_label", created.RiskReport.Label,
		"risk_score", created.RiskReport.Score,
	)

	return created, nil
}

// Resume delivers input to a suspended session and runs it to the next
// suspension point or a terminal stage. Stage failures are recorded in the
// returned state rather than returned as errors.
func (o *Orchestrator) Resume(ctx context.Context, sessionID string, in Input) (State, error) {
	ctx, span := o.tracer.Start(ctx, "workflow.Resume", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("input.kind", string(in.Kind)),
	))
	defer span.End()

	next, err := o.registry.Update(sessionID, func(s State) (State, error) {
		return o.step(ctx, s, in)
	})
	if err != nil {
		recordError(span, err)
		return next, err
	}

	span.SetAttributes(attribute.String("stage", string(next.Stage)))
	o.logger.Info(
		"session resumed",
		"session_id", sessionID,
		"input", in.Kind,
		"stage", next.Stage,
	)

	if next.Terminal() {
		o.notify(ctx, next)
	}

	return next, nil
}

// Query returns a snapshot of a session.
func (o *Orchestrator) Query(ctx context.Context, sessionID string) (State, error) {
	_, span := o.tracer.Start(ctx, "workflow.Query", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	s, ok := o.registry.Get(sessionID)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		recordError(span, err)
		return State{}, err
	}

	return s, nil
}

// List returns live sessions, most recently updated first. An empty userID
// lists every user's sessions.
func (o *Orchestrator) List(ctx context.Context, userID string) []State {
	_, span := o.tracer.Start(ctx, "workflow.List")
	defer span.End()

	states := o.registry.List(userID)
	span.SetAttributes(attribute.Int("sessions", len(states)))
	return states
}

// expired closes out a session removed by the registry sweep. Terminal
// sessions were already reported when they finished.
func (o *Orchestrator) expired(s State) {
	if s.Terminal() {
		return
	}

	o.logger.Info(
		"session expired",
		"session_id", s.SessionID,
		"stage", s.Stage,
		"idle_since", s.UpdatedAt,
	)

	s.WaitingForInput = false
	s.PendingInputKind = InputNone
	s.TerminalStatus = StatusExpired
	s.Error = reasonExpired

	o.notify(context.Background(), s)
}

func (o *Orchestrator) step(ctx context.Context, s State, in Input) (out State, err error) {
	if !s.WaitingForInput || s.PendingInputKind != in.Kind {
		return s, fmt.Errorf(
			"%w: session %s is at %s, got %q",
			ErrNotWaiting, s.SessionID, s.Stage, in.Kind,
		)
	}

	work := s

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error(
				"workflow stage panicked",
				"session_id", work.SessionID,
				"stage", work.Stage,
				"panic", r,
			)
			if work.Stage == StageScheduling && work.SchedulingRecord == nil {
				work.SchedulingRecord = &SchedulingRecord{Status: SchedulingFailed, Error: reasonInternal}
			}
			fail(&work, reasonInternal)
			out, err = work, nil
		}
	}()

	switch in.Kind {
	case InputApproval:
		if in.Approved == nil {
			return s, fmt.Errorf("%w: approved is required", ErrValidation)
		}

		approved := *in.Approved
		work.Approved = &approved

		to := StageAwaitingMeetingDate
		if !approved {
			to = StageRejected
		}
		if err := advance(&work, to); err != nil {
			return s, err
		}

	case InputMeetingDate:
		work.MeetingRequest = in.MeetingDate
		work.NotificationEmail = in.NotificationEmail

		if err := o.finish(ctx, &work); err != nil {
			return s, err
		}
	}

	return work, nil
}

// finish runs signing then scheduling. Collaborator errors end in StageFailed;
// only invalid transitions are returned.
func (o *Orchestrator) finish(ctx context.Context, work *State) error {
	if err := advance(work, StageSigning); err != nil {
		return err
	}

	rec, err := o.sign(ctx, *work)
	if err != nil {
		fail(work, o.reason(work, reasonSigning, err))
		return nil
	}
	work.SigningRecord = &rec

	if err := advance(work, StageScheduling); err != nil {
		return err
	}

	booking, err := o.schedule(ctx, *work)
	if err != nil {
		reason := o.reason(work, reasonScheduling, err)
		work.SchedulingRecord = &SchedulingRecord{Status: SchedulingFailed, Error: reason}
		fail(work, reason)
		return nil
	}
	work.SchedulingRecord = &booking

	return advance(work, StageComplete)
}

func (o *Orchestrator) sign(ctx context.Context, s State) (SigningRecord, error) {
	ctx, span := o.tracer.Start(ctx, "workflow.Sign")
	defer span.End()

	rec, err := o.signer.Sign(ctx, s)
	if err != nil {
		recordError(span, err)
	}
	return rec, err
}

func (o *Orchestrator) schedule(ctx context.Context, s State) (SchedulingRecord, error) {
	ctx, span := o.tracer.Start(ctx, "workflow.Schedule")
	defer span.End()

	rec, err := o.scheduler.Schedule(ctx, s)
	if err != nil {
		recordError(span, err)
	}
	return rec, err
}

// reason returns the message stored on a failed session. Precondition
// failures keep their own message; anything else is reported generically.
func (o *Orchestrator) reason(s *State, generic string, err error) string {
	o.logger.Error(
		"workflow stage failed",
		"session_id", s.SessionID,
		"stage", s.Stage,
		"error", err,
	)
	if errors.Is(err, ErrPrecondition) {
		return err.Error()
	}
	return generic
}

func (o *Orchestrator) notify(ctx context.Context, s State) {
	for _, obs := range o.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					o.logger.Error("terminal observer panicked", "session_id", s.SessionID, "panic", r)
				}
			}()
			obs.OnTerminal(ctx, s.clone())
		}()
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
