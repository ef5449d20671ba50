package notify

import (
	"context"
	"log/slog"
)

type logSender struct {
	logger *slog.Logger
}

// NewLog creates a Sender that writes confirmations to the log.
func NewLog(logger *slog.Logger) Sender {
	return &logSender{logger: logger.With("system", "notify", "driver", DriverLog)}
}

func (s *logSender) Send(_ context.Context, recipient string, m Meeting) error {
	s.logger.Info(
		"meeting confirmation",
		"recipient", recipient,
		"session_id", m.SessionID,
		"meeting_id", m.MeetingID,
		"confirmation_code", m.ConfirmationCode,
		"room", m.Room,
		"when", FormatWhen(m.Start),
	)
	return nil
}
