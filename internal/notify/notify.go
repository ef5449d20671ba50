// Package notify delivers meeting confirmations to session participants.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotification indicates a confirmation could not be delivered.
// Callers record it; it never fails a workflow stage.
var ErrNotification = errors.New("notification failed")

// Meeting summarizes a scheduled review meeting.
type Meeting struct {
	SessionID        string
	Filename         string
	MeetingID        string
	ConfirmationCode string
	Room             string
	Start            time.Time
	CalendarLink     string
}

// Sender delivers a meeting confirmation to a recipient.
// Errors returned wrap ErrNotification.
type Sender interface {
	Send(ctx context.Context, recipient string, m Meeting) error
}

// Subject is the subject line used for meeting confirmations.
const Subject = "Meeting Scheduled - Document Processing Complete"

// Body renders the plain text confirmation for m.
func Body(m Meeting) string {
	filename := m.Filename
	if filename == "" {
		filename = "Document"
	}

	var b strings.Builder
	b.WriteString("Dear User,\n\n")
	b.WriteString("Your document processing workflow has been completed successfully.\n\n")
	b.WriteString("DOCUMENT DETAILS:\n")
	fmt.Fprintf(&b, "- File: %s\n", filename)
	b.WriteString("- Status: Approved and Signed\n\n")
	b.WriteString("MEETING SCHEDULED:\n")
	fmt.Fprintf(&b, "- Date & Time: %s\n", FormatWhen(m.Start))
	fmt.Fprintf(&b, "- Meeting ID: %s\n", m.MeetingID)
	fmt.Fprintf(&b, "- Confirmation Code: %s\n", m.ConfirmationCode)
	if m.Room != "" {
		fmt.Fprintf(&b, "- Meeting Room: %s\n", m.Room)
	}
	if m.CalendarLink != "" {
		fmt.Fprintf(&b, "\nMeeting Link: %s\n", m.CalendarLink)
	}
	b.WriteString("\nThe document has been digitally signed and is ready for the final review meeting.\n\n")
	b.WriteString("Best regards,\nDocument Processing Team\n\n")
	b.WriteString("---\nThis is an automated message. Please do not reply to this email.\n")

	return b.String()
}

// FormatWhen renders t as "2006-01-02 at 15:04 UTC".
func FormatWhen(t time.Time) string {
	t = t.UTC()
	return t.Format("2006-01-02") + " at " + t.Format("15:04") + " UTC"
}
