// Package scheduling books the review meeting for a signed session and sends
// a best-effort confirmation.
package scheduling

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/accord/internal/notify"
	"github.com/JaimeStill/accord/internal/workflow"
)

// DefaultRooms is the room list used when none is configured.
var DefaultRooms = []string{
	"Conference Room A",
	"Conference Room B",
	"Meeting Room 1",
	"Meeting Room 2",
}

const (
	DefaultCalendarURL = "https://calendar.example.com"
	meetingTitle       = "Document Review Meeting"
	meetingLength      = time.Hour
	fallbackDelay      = 24 * time.Hour
)

// Config holds scheduling parameters.
type Config struct {
	Rooms       []string
	CalendarURL string
	Now         func() time.Time
}

// Scheduler implements workflow.Scheduler.
type Scheduler struct {
	rooms       []string
	calendarURL string
	notifier    notify.Sender
	now         func() time.Time
	logger      *slog.Logger
}

// New creates a Scheduler. A nil notifier disables confirmations.
func New(cfg Config, notifier notify.Sender, logger *slog.Logger) *Scheduler {
	s := &Scheduler{
		rooms:       cfg.Rooms,
		calendarURL: strings.TrimSuffix(cfg.CalendarURL, "/"),
		notifier:    notifier,
		now:         cfg.Now,
		logger:      logger.With("system", "scheduling"),
	}
	if len(s.rooms) == 0 {
		s.rooms = DefaultRooms
	}
	if s.calendarURL == "" {
		s.calendarURL = DefaultCalendarURL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Schedule books a meeting for the session's requested date. An unparsable
// or empty date falls back to 24 hours from now.
func (s *Scheduler) Schedule(ctx context.Context, st workflow.State) (workflow.SchedulingRecord, error) {
	if st.SigningRecord == nil || st.SigningRecord.Status != workflow.SigningSigned {
		return workflow.SchedulingRecord{}, fmt.Errorf(
			"%w: scheduling requires a signed document",
			workflow.ErrPrecondition,
		)
	}

	start, fallback := ParseMeetingDate(st.MeetingRequest, s.now())
	if fallback {
		s.logger.Warn(
			"meeting date not parsed, using fallback",
			"session_id", st.SessionID,
			"requested", st.MeetingRequest,
			"scheduled", start,
		)
	}

	meetingID := "MTG_" + shortID(8)
	room := s.Room(start)
	link := fmt.Sprintf("%s/meeting/%s", s.calendarURL, meetingID)

	rec := workflow.SchedulingRecord{
		Status:           workflow.SchedulingDone,
		MeetingID:        meetingID,
		MeetingDate:      start.Format(time.RFC3339),
		FallbackDate:     fallback,
		ConfirmationCode: "CONF_" + shortID(6),
		CalendarLink:     link,
		MeetingRoom:      room,
		CalendarEntry: &workflow.CalendarEntry{
			ID:          meetingID,
			Title:       meetingTitle,
			StartTime:   start,
			EndTime:     start.Add(meetingLength),
			DocumentRef: st.SigningRecord.SignatureID,
			SessionRef:  st.SessionID,
		},
		Message: "Meeting successfully scheduled for " + notify.FormatWhen(start),
	}

	s.confirm(ctx, st, &rec)

	s.logger.Info(
		"meeting scheduled",
		"session_id", st.SessionID,
		"meeting_id", meetingID,
		"room", room,
		"email_sent", rec.EmailSent,
	)

	return rec, nil
}

// Room maps the calendar date of t onto the room list with a 32-bit FNV-1a
// hash of its YYYY-MM-DD form.
func (s *Scheduler) Room(t time.Time) string {
	return RoomFor(t, s.rooms)
}

// RoomFor returns the room assigned to the calendar date of t.
func RoomFor(t time.Time, rooms []string) string {
	h := fnv.New32a()
	h.Write([]byte(t.UTC().Format(time.DateOnly)))
	return rooms[h.Sum32()%uint32(len(rooms))]
}

// ParseMeetingDate accepts an ISO-8601 timestamp, with or without a zone,
// or a YYYY-MM-DD date. Anything else yields now+24h and fallback=true.
// Zone-less values are read as UTC.
func ParseMeetingDate(raw string, now time.Time) (t time.Time, fallback bool) {
	raw = strings.TrimSpace(raw)

	layouts := []string{time.DateOnly}
	if strings.Contains(raw, "T") {
		layouts = []string{
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02T15:04",
		}
	}

	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), false
		}
	}

	return now.UTC().Add(fallbackDelay), true
}

func (s *Scheduler) confirm(ctx context.Context, st workflow.State, rec *workflow.SchedulingRecord) {
	if st.NotificationEmail == "" || s.notifier == nil {
		return
	}

	err := s.notifier.Send(ctx, st.NotificationEmail, notify.Meeting{
		SessionID:        st.SessionID,
		Filename:         st.Filename,
		MeetingID:        rec.MeetingID,
		ConfirmationCode: rec.ConfirmationCode,
		Room:             rec.MeetingRoom,
		Start:            rec.CalendarEntry.StartTime,
		CalendarLink:     rec.CalendarLink,
	})
	if err != nil {
		rec.NotificationError = err.Error()
		return
	}

	rec.EmailSent = true
	rec.AttendeesNotified = true
}

func shortID(n int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:n])
}
