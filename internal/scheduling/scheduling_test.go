package scheduling_test

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/accord/internal/notify"
	"github.com/JaimeStill/accord/internal/scheduling"
	"github.com/JaimeStill/accord/internal/workflow"
)

type senderFunc func(ctx context.Context, to string, m notify.Meeting) error

func (f senderFunc) Send(ctx context.Context, to string, m notify.Meeting) error {
	return f(ctx, to, m)
}

var now = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func newScheduler(sender notify.Sender) *scheduling.Scheduler {
	return scheduling.New(
		scheduling.Config{Now: func() time.Time { return now }},
		sender,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func signedState(date string) workflow.State {
	return workflow.State{
		SessionID:      "s1",
		Filename:       "contract.pdf",
		MeetingRequest: date,
		SigningRecord: &workflow.SigningRecord{
			Status:      workflow.SigningSigned,
			SignatureID: "SIG_ABCDEF12",
		},
	}
}

func TestParseMeetingDate(t *testing.T) {
	tests := []struct {
		raw      string
		want     time.Time
		fallback bool
	}{
		{"2025-06-15T14:00:00Z", time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC), false},
		{"2025-06-15T14:00:00+02:00", time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC), false},
		{"2025-06-15T14:00:00", time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC), false},
		{"2025-06-15T14:00:00.250", time.Date(2025, 6, 15, 14, 0, 0, 250_000_000, time.UTC), false},
		{"2025-06-15T14:00", time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC), false},
		{"2025-06-15", time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), false},
		{"", now.Add(24 * time.Hour), true},
		{"next tuesday", now.Add(24 * time.Hour), true},
		{"2025-13-45", now.Add(24 * time.Hour), true},
		{"Tomorrow", now.Add(24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.raw), func(t *testing.T) {
			got, fallback := scheduling.ParseMeetingDate(tt.raw, now)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
			assert.Equal(t, tt.fallback, fallback)
		})
	}
}

func TestRoomFor(t *testing.T) {
	day := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

	h := fnv.New32a()
	h.Write([]byte("2025-06-15"))
	want := scheduling.DefaultRooms[h.Sum32()%4]

	assert.Equal(t, want, scheduling.RoomFor(day, scheduling.DefaultRooms))
	assert.Equal(t, want, scheduling.RoomFor(day.Add(8*time.Hour), scheduling.DefaultRooms), "same date, same room")
}

func TestSchedule(t *testing.T) {
	s := newScheduler(nil)

	rec, err := s.Schedule(context.Background(), signedState("2025-06-15T14:00:00Z"))
	require.NoError(t, err)

	start := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, workflow.SchedulingDone, rec.Status)
	assert.Regexp(t, `^MTG_[0-9A-F]{8}$`, rec.MeetingID)
	assert.Regexp(t, `^CONF_[0-9A-F]{6}$`, rec.ConfirmationCode)
	assert.Equal(t, "2025-06-15T14:00:00Z", rec.MeetingDate)
	assert.False(t, rec.FallbackDate)
	assert.Equal(t, "https://calendar.example.com/meeting/"+rec.MeetingID, rec.CalendarLink)
	assert.Equal(t, scheduling.RoomFor(start, scheduling.DefaultRooms), rec.MeetingRoom)
	assert.Equal(t, "Meeting successfully scheduled for 2025-06-15 at 14:00 UTC", rec.Message)

	require.NotNil(t, rec.CalendarEntry)
	assert.Equal(t, "Document Review Meeting", rec.CalendarEntry.Title)
	assert.Equal(t, start.Add(time.Hour), rec.CalendarEntry.EndTime)
	assert.Equal(t, "SIG_ABCDEF12", rec.CalendarEntry.DocumentRef)
	assert.Equal(t, "s1", rec.CalendarEntry.SessionRef)

	assert.False(t, rec.EmailSent)
	assert.Empty(t, rec.NotificationError)
}

func TestScheduleFallbackDate(t *testing.T) {
	rec, err := newScheduler(nil).Schedule(context.Background(), signedState("not a date"))
	require.NoError(t, err)

	assert.True(t, rec.FallbackDate)
	assert.Equal(t, now.Add(24*time.Hour).Format(time.RFC3339), rec.MeetingDate)
}

func TestSchedulePrecondition(t *testing.T) {
	tests := map[string]*workflow.SigningRecord{
		"no signing record": nil,
		"not signed":        {Status: "SIGNING_FAILED"},
	}

	for name, rec := range tests {
		t.Run(name, func(t *testing.T) {
			st := signedState("2025-06-15")
			st.SigningRecord = rec

			_, err := newScheduler(nil).Schedule(context.Background(), st)
			assert.ErrorIs(t, err, workflow.ErrPrecondition)
		})
	}
}

func TestScheduleNotification(t *testing.T) {
	t.Run("delivered", func(t *testing.T) {
		var got notify.Meeting
		var to string

		s := newScheduler(senderFunc(func(_ context.Context, recipient string, m notify.Meeting) error {
			to, got = recipient, m
			return nil
		}))

		st := signedState("2025-06-15")
		st.NotificationEmail = "reviewer@example.com"

		rec, err := s.Schedule(context.Background(), st)
		require.NoError(t, err)

		assert.True(t, rec.EmailSent)
		assert.True(t, rec.AttendeesNotified)
		assert.Equal(t, "reviewer@example.com", to)
		assert.Equal(t, rec.MeetingID, got.MeetingID)
		assert.Equal(t, "contract.pdf", got.Filename)
	})

	t.Run("failure is recorded not returned", func(t *testing.T) {
		s := newScheduler(senderFunc(func(context.Context, string, notify.Meeting) error {
			return fmt.Errorf("%w: relay down", notify.ErrNotification)
		}))

		st := signedState("2025-06-15")
		st.NotificationEmail = "reviewer@example.com"

		rec, err := s.Schedule(context.Background(), st)
		require.NoError(t, err)

		assert.Equal(t, workflow.SchedulingDone, rec.Status)
		assert.False(t, rec.EmailSent)
		assert.Contains(t, rec.NotificationError, "relay down")
	})

	t.Run("no recipient skips sender", func(t *testing.T) {
		called := false
		s := newScheduler(senderFunc(func(context.Context, string, notify.Meeting) error {
			called = true
			return nil
		}))

		rec, err := s.Schedule(context.Background(), signedState("2025-06-15"))
		require.NoError(t, err)

		assert.False(t, called)
		assert.False(t, rec.EmailSent)
	})
}
