// Package signing produces the digital signature record for approved sessions.
package signing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/accord/internal/workflow"
)

// Fixed record values.
const (
	DefaultSignerID = "SYSTEM_SIGNER"
	Method          = "DIGITAL_SIGNATURE"
	DocumentVersion = "1.0"
	signedMessage   = "Document successfully signed and ready for scheduling"
)

// ContentLoader returns the raw bytes of an uploaded document.
type ContentLoader interface {
	Content(ctx context.Context, documentID string) ([]byte, error)
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSignerID overrides the signer identity written to records.
func WithSignerID(id string) Option {
	return func(s *Signer) {
		if id != "" {
			s.signerID = id
		}
	}
}

// Signer implements workflow.Signer.
type Signer struct {
	loader   ContentLoader
	signerID string
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a Signer. A nil loader hashes the session id alone.
func New(loader ContentLoader, logger *slog.Logger, opts ...Option) *Signer {
	s := &Signer{
		loader:   loader,
		signerID: DefaultSignerID,
		now:      time.Now,
		logger:   logger.With("system", "signing"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sign fingerprints the session's document and returns a SIGNED record.
func (s *Signer) Sign(ctx context.Context, st workflow.State) (workflow.SigningRecord, error) {
	if err := checkRequirements(st); err != nil {
		return workflow.SigningRecord{}, err
	}

	content, err := s.content(ctx, st.DocumentID)
	if err != nil {
		return workflow.SigningRecord{}, err
	}

	fingerprint := Fingerprint(content, st.SessionID)
	signatureID := "SIG_" + shortID(8)
	signedAt := s.now().UTC().Format(time.RFC3339Nano)

	rec := workflow.SigningRecord{
		Status:            workflow.SigningSigned,
		SignatureID:       signatureID,
		SignedAt:          signedAt,
		MeetingDate:       st.MeetingRequest,
		DocumentHash:      fingerprint,
		DigitalSignature:  Signature(fingerprint, signatureID, signedAt),
		SignerID:          s.signerID,
		SigningMethod:     Method,
		DocumentVersion:   DocumentVersion,
		ComplianceChecked: true,
		Message:           signedMessage,
	}

	s.logger.Info("document signed", "session_id", st.SessionID, "signature_id", signatureID)
	return rec, nil
}

func (s *Signer) content(ctx context.Context, documentID string) ([]byte, error) {
	if documentID == "" || s.loader == nil {
		return nil, nil
	}

	data, err := s.loader.Content(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", documentID, err)
	}
	return data, nil
}

// Fingerprint returns the first 16 upper-case hex characters of
// sha256(content || sessionID).
func Fingerprint(content []byte, sessionID string) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte(sessionID))
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil))[:16])
}

// Signature returns the first 32 upper-case hex characters of
// sha256("fingerprint:signatureID:timestamp").
func Signature(fingerprint, signatureID, timestamp string) string {
	sum := sha256.Sum256([]byte(fingerprint + ":" + signatureID + ":" + timestamp))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:32])
}

func checkRequirements(st workflow.State) error {
	var missing []string

	if st.Approved == nil || !*st.Approved {
		missing = append(missing, "approval")
	}
	if st.SessionID == "" {
		missing = append(missing, "session id")
	}
	if st.RiskReport.Label == "" {
		missing = append(missing, "risk report")
	}

	if len(missing) > 0 {
		return fmt.Errorf(
			"%w: signing requires %s",
			workflow.ErrPrecondition, strings.Join(missing, ", "),
		)
	}
	return nil
}

func shortID(n int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:n])
}
