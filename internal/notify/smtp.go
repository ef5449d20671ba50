package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"time"
)

type smtpSender struct {
	cfg    Config
	logger *slog.Logger
}

// New returns the Sender selected by cfg.Driver.
func New(cfg *Config, logger *slog.Logger) Sender {
	if cfg.Driver == DriverSMTP {
		return NewSMTP(cfg, logger)
	}
	return NewLog(logger)
}

// NewSMTP creates a Sender that delivers mail through an SMTP relay,
// upgrading to TLS when the server offers STARTTLS.
func NewSMTP(cfg *Config, logger *slog.Logger) Sender {
	return &smtpSender{
		cfg:    *cfg,
		logger: logger.With("system", "notify", "driver", DriverSMTP),
	}
}

func (s *smtpSender) Send(ctx context.Context, recipient string, m Meeting) error {
	if timeout := s.cfg.TimeoutDuration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := s.deliver(ctx, recipient, m); err != nil {
		s.logger.Warn("confirmation not delivered", "recipient", recipient, "error", err)
		return fmt.Errorf("%w: %v", ErrNotification, err)
	}

	s.logger.Info("confirmation delivered", "recipient", recipient, "meeting_id", m.MeetingID)
	return nil
}

func (s *smtpSender) deliver(ctx context.Context, recipient string, m Meeting) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("handshake: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(recipient); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(message(s.cfg.From, recipient, m)); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}

	return c.Quit()
}

func message(from, to string, m Meeting) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(Body(m))
	return b.Bytes()
}
