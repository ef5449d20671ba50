package workflow_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/accord/internal/risk"
	"github.com/JaimeStill/accord/internal/workflow"
	"github.com/JaimeStill/accord/pkg/lifecycle"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newRegistry(ttl time.Duration, clock *fakeClock) *workflow.Registry {
	return workflow.NewRegistry(workflow.RegistryConfig{
		SessionTTL: ttl,
		Now:        clock.Now,
	}, discardLogger())
}

func TestRegistryCreate(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	r := newRegistry(0, clock)

	s, err := r.Create(workflow.State{SessionID: "a", Stage: workflow.StageAwaitingApproval})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Version)
	assert.Equal(t, clock.Now(), s.CreatedAt)

	_, err = r.Create(workflow.State{SessionID: "a"})
	assert.ErrorIs(t, err, workflow.ErrDuplicateSession)
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, s, got)
}

func TestRegistryUpdate(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	r := newRegistry(0, clock)

	created, err := r.Create(workflow.State{SessionID: "a", Filename: "a.txt"})
	require.NoError(t, err)

	t.Run("commits whole state", func(t *testing.T) {
		clock.Advance(time.Minute)

		next, err := r.Update("a", func(s workflow.State) (workflow.State, error) {
			s.Filename = "b.txt"
			s.SessionID = "hijacked"
			return s, nil
		})
		require.NoError(t, err)

		assert.Equal(t, "a", next.SessionID)
		assert.Equal(t, "b.txt", next.Filename)
		assert.Equal(t, 2, next.Version)
		assert.Equal(t, created.CreatedAt, next.CreatedAt)
		assert.Equal(t, clock.Now(), next.UpdatedAt)
	})

	t.Run("error discards changes", func(t *testing.T) {
		before, _ := r.Get("a")
		boom := errors.New("boom")

		_, err := r.Update("a", func(s workflow.State) (workflow.State, error) {
			s.Filename = "discarded"
			return s, boom
		})
		assert.ErrorIs(t, err, boom)

		after, _ := r.Get("a")
		assert.Equal(t, before, after)
	})

	t.Run("missing session", func(t *testing.T) {
		_, err := r.Update("nope", func(s workflow.State) (workflow.State, error) { return s, nil })
		assert.ErrorIs(t, err, workflow.ErrSessionNotFound)
	})
}

func TestRegistryCompareAndSwap(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	r := newRegistry(0, clock)

	created, err := r.Create(workflow.State{SessionID: "a"})
	require.NoError(t, err)

	next := created
	next.Filename = "swapped.txt"

	swapped, ok, err := r.CompareAndSwap("a", created.Version, next)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, swapped.Version)

	stale := created
	stale.Filename = "stale.txt"

	current, ok, err := r.CompareAndSwap("a", created.Version, stale)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "swapped.txt", current.Filename)

	_, _, err = r.CompareAndSwap("nope", 1, stale)
	assert.ErrorIs(t, err, workflow.ErrSessionNotFound)
}

func TestRegistryDelete(t *testing.T) {
	r := newRegistry(0, &fakeClock{})

	_, err := r.Create(workflow.State{SessionID: "a"})
	require.NoError(t, err)

	assert.True(t, r.Delete("a"))
	assert.False(t, r.Delete("a"))

	_, ok := r.Get("a")
	assert.False(t, ok)
}

func TestRegistrySweep(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	r := newRegistry(time.Hour, clock)

	_, err := r.Create(workflow.State{SessionID: "old"})
	require.NoError(t, err)

	clock.Advance(45 * time.Minute)
	_, err = r.Create(workflow.State{SessionID: "fresh"})
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	evicted := r.Sweep(clock.Now())

	assert.Equal(t, 1, evicted)
	_, ok := r.Get("old")
	assert.False(t, ok)
	_, ok = r.Get("fresh")
	assert.True(t, ok)

	t.Run("disabled without ttl", func(t *testing.T) {
		r := newRegistry(0, clock)
		_, err := r.Create(workflow.State{SessionID: "a"})
		require.NoError(t, err)

		assert.Zero(t, r.Sweep(clock.Now().Add(1000*time.Hour)))
		assert.Equal(t, 1, r.Len())
	})

	t.Run("skips in-flight session", func(t *testing.T) {
		r := newRegistry(time.Minute, clock)
		_, err := r.Create(workflow.State{SessionID: "busy"})
		require.NoError(t, err)

		entered := make(chan struct{})
		release := make(chan struct{})
		done := make(chan struct{})

		go func() {
			defer close(done)
			r.Update("busy", func(s workflow.State) (workflow.State, error) {
				close(entered)
				<-release
				return s, nil
			})
		}()
		<-entered

		assert.Zero(t, r.Sweep(clock.Now().Add(time.Hour)))
		close(release)
		<-done

		_, ok := r.Get("busy")
		assert.True(t, ok)
	})
}

func TestRegistryStartSweeps(t *testing.T) {
	r := workflow.NewRegistry(workflow.RegistryConfig{
		SessionTTL:    time.Millisecond,
		SweepInterval: 5 * time.Millisecond,
	}, discardLogger())

	_, err := r.Create(workflow.State{SessionID: "a"})
	require.NoError(t, err)

	lc := lifecycle.New()
	require.NoError(t, r.Start(lc))

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, lc.Shutdown(time.Second))
}

func TestRegistrySnapshotsAreIsolated(t *testing.T) {
	r := newRegistry(0, &fakeClock{})

	approved := true
	_, err := r.Create(workflow.State{
		SessionID: "a",
		Approved:  &approved,
		RiskReport: risk.Report{
			Keywords:        []risk.KeywordMatch{{Keyword: "fraud", Tier: risk.TierHigh}},
			Recommendations: []string{"escalate"},
		},
		ClauseReview:  &risk.ClauseReview{Clauses: []risk.Clause{{Name: "Indemnification"}}},
		SigningRecord: &workflow.SigningRecord{SignatureID: "SIG_1"},
		SchedulingRecord: &workflow.SchedulingRecord{
			MeetingID:     "MTG_1",
			CalendarEntry: &workflow.CalendarEntry{ID: "CAL_1"},
		},
	})
	require.NoError(t, err)

	original, ok := r.Get("a")
	require.True(t, ok)

	tamper := func(s *workflow.State) {
		*s.Approved = false
		s.RiskReport.Keywords[0].Keyword = "tampered"
		s.RiskReport.Recommendations[0] = "tampered"
		s.ClauseReview.Clauses[0].Name = "tampered"
		s.SigningRecord.SignatureID = "tampered"
		s.SchedulingRecord.MeetingID = "tampered"
		s.SchedulingRecord.CalendarEntry.ID = "tampered"
	}

	snap, _ := r.Get("a")
	tamper(&snap)

	_, err = r.Update("a", func(s workflow.State) (workflow.State, error) {
		tamper(&s)
		return s, errors.New("abandoned")
	})
	require.Error(t, err)

	after, _ := r.Get("a")
	assert.Equal(t, original, after)

	committed, err := r.Update("a", func(s workflow.State) (workflow.State, error) {
		return s, nil
	})
	require.NoError(t, err)
	tamper(&committed)

	after, _ = r.Get("a")
	assert.Equal(t, "SIG_1", after.SigningRecord.SignatureID)
	assert.True(t, *after.Approved)
	assert.Equal(t, "CAL_1", after.SchedulingRecord.CalendarEntry.ID)
}

func TestRegistryList(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	r := newRegistry(0, clock)

	for _, s := range []workflow.State{
		{SessionID: "a1", UserID: "alice"},
		{SessionID: "b1", UserID: "bob"},
		{SessionID: "a2", UserID: "alice"},
	} {
		_, err := r.Create(s)
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	_, err := r.Update("a1", func(s workflow.State) (workflow.State, error) { return s, nil })
	require.NoError(t, err)

	ids := func(states []workflow.State) []string {
		out := make([]string, len(states))
		for i, s := range states {
			out[i] = s.SessionID
		}
		return out
	}

	assert.Equal(t, []string{"a1", "a2"}, ids(r.List("alice")), "most recently updated first")
	assert.Equal(t, []string{"a1", "a2", "b1"}, ids(r.List("")))
	assert.Empty(t, r.List("carol"))

	r.Delete("a2")
	assert.Equal(t, []string{"a1"}, ids(r.List("alice")))
}

func TestRegistrySweepHooks(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	r := newRegistry(time.Hour, clock)

	var evicted []string
	r.OnEvict(func(s workflow.State) {
		_, ok := r.Get(s.SessionID)
		assert.False(t, ok, "hook runs after removal")
		evicted = append(evicted, s.SessionID)
	})

	_, err := r.Create(workflow.State{SessionID: "old", Filename: "old.txt"})
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)
	_, err = r.Create(workflow.State{SessionID: "fresh"})
	require.NoError(t, err)

	assert.Equal(t, 1, r.Sweep(clock.Now()))
	assert.Equal(t, []string{"old"}, evicted)
}
