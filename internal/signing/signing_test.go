package signing_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/accord/internal/risk"
	"github.com/JaimeStill/accord/internal/signing"
	"github.com/JaimeStill/accord/internal/workflow"
)

type loaderFunc func(ctx context.Context, id string) ([]byte, error)

func (f loaderFunc) Content(ctx context.Context, id string) ([]byte, error) {
	return f(ctx, id)
}

var fixedTime = time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)

func newSigner(loader signing.ContentLoader) *signing.Signer {
	return signing.New(
		loader,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		signing.WithClock(func() time.Time { return fixedTime }),
	)
}

func approvedState() workflow.State {
	yes := true
	return workflow.State{
		SessionID:      "session-1",
		DocumentID:     "doc-1",
		Approved:       &yes,
		MeetingRequest: "2026-03-10",
		RiskReport:     risk.Report{Label: risk.LabelMedium},
	}
}

func upperHex(b []byte, n int) string {
	return strings.ToUpper(hex.EncodeToString(b)[:n])
}

func TestSign(t *testing.T) {
	content := []byte("contract body")
	var requested string

	s := newSigner(loaderFunc(func(_ context.Context, id string) ([]byte, error) {
		requested = id
		return content, nil
	}))

	rec, err := s.Sign(context.Background(), approvedState())
	require.NoError(t, err)

	sum := sha256.Sum256(append([]byte("contract body"), "session-1"...))
	wantHash := upperHex(sum[:], 16)

	assert.Equal(t, "doc-1", requested)
	assert.Equal(t, workflow.SigningSigned, rec.Status)
	assert.Equal(t, wantHash, rec.DocumentHash)
	assert.Regexp(t, `^SIG_[0-9A-F]{8}$`, rec.SignatureID)
	assert.Equal(t, "2026-03-04T10:30:00Z", rec.SignedAt)
	assert.Equal(t, "2026-03-10", rec.MeetingDate)
	assert.Equal(t, signing.DefaultSignerID, rec.SignerID)
	assert.Equal(t, signing.Method, rec.SigningMethod)
	assert.Equal(t, signing.DocumentVersion, rec.DocumentVersion)
	assert.True(t, rec.ComplianceChecked)

	sig := sha256.Sum256([]byte(wantHash + ":" + rec.SignatureID + ":" + rec.SignedAt))
	assert.Equal(t, upperHex(sig[:], 32), rec.DigitalSignature)
}

func TestSignWithoutDocument(t *testing.T) {
	st := approvedState()
	st.DocumentID = ""

	rec, err := newSigner(nil).Sign(context.Background(), st)
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("session-1"))
	assert.Equal(t, upperHex(sum[:], 16), rec.DocumentHash)
}

func TestSignEmptyMeetingDateAccepted(t *testing.T) {
	st := approvedState()
	st.MeetingRequest = ""

	rec, err := newSigner(nil).Sign(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, workflow.SigningSigned, rec.Status)
}

func TestSignRequirements(t *testing.T) {
	no := false

	tests := []struct {
		name    string
		mutate  func(*workflow.State)
		missing string
	}{
		{"not approved", func(s *workflow.State) { s.Approved = &no }, "approval"},
		{"no decision", func(s *workflow.State) { s.Approved = nil }, "approval"},
		{"no session", func(s *workflow.State) { s.SessionID = "" }, "session id"},
		{"no risk report", func(s *workflow.State) { s.RiskReport = risk.Report{} }, "risk report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := approvedState()
			tt.mutate(&st)

			_, err := newSigner(nil).Sign(context.Background(), st)
			require.ErrorIs(t, err, workflow.ErrPrecondition)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestSignLoaderError(t *testing.T) {
	boom := errors.New("blob unavailable")
	s := newSigner(loaderFunc(func(context.Context, string) ([]byte, error) {
		return nil, boom
	}))

	_, err := s.Sign(context.Background(), approvedState())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, workflow.ErrPrecondition)
}

func TestFingerprintStable(t *testing.T) {
	a := signing.Fingerprint([]byte("x"), "s")
	b := signing.Fingerprint([]byte("x"), "s")

	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, signing.Fingerprint([]byte("x"), "t"))
}
