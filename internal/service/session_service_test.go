package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSession_PendingBecomesActive(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1", "g1", domain.SessionPending)
	svc := f.sessionService()

	got, err := svc.StartSession(f.ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, got.Status)
	require.NotNil(t, got.StartedAt)
	assert.Equal(t, fixedNow, *got.StartedAt)
	assert.Nil(t, got.EndedAt)

	stored, err := f.repos.Sessions.GetByID(f.ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, stored.Status)
	assert.Equal(t, fixedNow, *stored.StartedAt)
}

func TestLifecycle_RejectsIllegalTransitions(t *testing.T) {
	tests := []struct {
		name    string
		status  domain.SessionStatus
		run     func(SessionService, context.Context, string) (*domain.WorkoutSession, error)
		message string
	}{
		{"start active", domain.SessionActive, SessionService.StartSession, "only Pending sessions can be started"},
		{"start completed", domain.SessionCompleted, SessionService.StartSession, "only Pending sessions can be started"},
		{"start cancelled", domain.SessionCancelled, SessionService.StartSession, "only Pending sessions can be started"},
		{"complete pending", domain.SessionPending, SessionService.CompleteSession, "only Active sessions can be completed"},
		{"complete completed", domain.SessionCompleted, SessionService.CompleteSession, "only Active sessions can be completed"},
		{"complete cancelled", domain.SessionCancelled, SessionService.CompleteSession, "only Active sessions can be completed"},
		{"cancel completed", domain.SessionCompleted, SessionService.CancelSession, "only Pending or Active sessions can be cancelled"},
		{"cancel cancelled", domain.SessionCancelled, SessionService.CancelSession, "only Pending or Active sessions can be cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			before := f.session(t, "s1", "g1", tt.status)

			_, err := tt.run(f.sessionService(), f.ctx, "s1")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTransition)

			var terr *InvalidTransitionError
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, tt.status, terr.Current)
			assert.Contains(t, err.Error(), tt.message)

			after, err := f.repos.Sessions.GetByID(f.ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, before, after, "a rejected command changes nothing")
		})
	}
}

func TestLifecycle_UnknownSession(t *testing.T) {
	f := newFixture(t)
	svc := f.sessionService()

	_, err := svc.StartSession(f.ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.CancelSession(f.ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.CompleteSession(f.ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.GetSessionAssignments(f.ctx, "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCancelSession_FromPendingFillsEveryScore(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1", "g1", domain.SessionPending)
	f.participant(t, "p1", "s1", "u1", 1)
	for i, wt := range []string{"burpees", "squats", "lunges", "planks"} {
		f.station(t, "s1", i+1, wt)
	}

	got, err := f.sessionService().CancelSession(f.ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCancelled, got.Status)
	require.NotNil(t, got.EndedAt)
	assert.Equal(t, fixedNow, *got.EndedAt)
	assert.Nil(t, got.StartedAt, "a session cancelled before starting never started")

	scores := f.scoresOf(t, "p1")
	require.Len(t, scores, 12)
	for _, sc := range scores {
		assert.Zero(t, sc.Score)
		assert.Equal(t, fixedNow, sc.RecordedAt)
	}
	assert.Equal(t, "burpees", scores[0].WorkoutTypeID)
	assert.Equal(t, "planks", scores[11].WorkoutTypeID)
}

func TestCompleteSession_PreservesRecordedScores(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1", "g1", domain.SessionActive)
	f.participant(t, "pa", "s1", "ua", 1)
	f.participant(t, "pb", "s1", "ub", 2)
	f.station(t, "s1", 1, "burpees")
	f.station(t, "s1", 2, "squats")
	f.score(t, "seven", "pa", 1, 1, 7)

	got, err := f.sessionService().CompleteSession(f.ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, got.Status)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.EndedAt)

	a := f.scoresOf(t, "pa")
	b := f.scoresOf(t, "pb")
	require.Len(t, a, 6)
	require.Len(t, b, 6)

	assert.Equal(t, "seven", a[0].ID)
	assert.Equal(t, 7, a[0].Score)
	for _, sc := range a[1:] {
		assert.Zero(t, sc.Score)
	}
	for _, sc := range b {
		assert.Zero(t, sc.Score)
	}

	seen := map[domain.ScoreKey]bool{}
	for _, sc := range b {
		assert.False(t, seen[sc.Key()], "one score per slot")
		seen[sc.Key()] = true
	}
}

func TestCancelSession_NothingToFill(t *testing.T) {
	t.Run("no participants", func(t *testing.T) {
		f := newFixture(t)
		f.session(t, "s1", "g1", domain.SessionActive)
		f.station(t, "s1", 1, "burpees")

		got, err := f.sessionService().CancelSession(f.ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, domain.SessionCancelled, got.Status)
	})

	t.Run("no stations", func(t *testing.T) {
		f := newFixture(t)
		f.session(t, "s1", "g1", domain.SessionActive)
		f.participant(t, "p1", "s1", "u1", 1)

		got, err := f.sessionService().CancelSession(f.ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, domain.SessionCancelled, got.Status)
		assert.Empty(t, f.scoresOf(t, "p1"))
	})
}

func TestCompleteScores_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1", "g1", domain.SessionActive)
	f.participant(t, "p1", "s1", "u1", 1)
	f.station(t, "s1", 3, "squats")
	svc := f.sessionService()

	created, err := svc.completeScores(f.ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, created, 3)

	created, err = svc.completeScores(f.ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Len(t, f.scoresOf(t, "p1"), 3)
}

// flakyScores fails every insert after the first n.
type flakyScores struct {
	repository.ScoreRepository
	mu sync.Mutex
	n  int
}

func (r *flakyScores) Create(ctx context.Context, s *domain.WorkoutIntervalScore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.n == 0 {
		return errors.New("disk full")
	}
	r.n--
	return r.ScoreRepository.Create(ctx, s)
}

func TestCompleteSession_FailedFillRevertsStatus(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1", "g1", domain.SessionActive)
	f.participant(t, "p1", "s1", "u1", 1)
	f.participant(t, "p2", "s1", "u2", 2)
	f.station(t, "s1", 1, "burpees")
	f.score(t, "sc1", "p2", 2, 1, 14)

	flaky := &flakyScores{ScoreRepository: f.repos.Scores, n: 2}
	f.repos.Scores = flaky
	svc := f.sessionService()

	_, err := svc.CompleteSession(f.ctx, "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	stored, err := f.repos.Sessions.GetByID(f.ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, stored.Status)
	assert.Nil(t, stored.EndedAt)

	// The zero scores of the failed pass are gone; real scores stay and slots remain recordable.
	assert.Empty(t, f.scoresOf(t, "p1"))
	p2 := f.scoresOf(t, "p2")
	require.Len(t, p2, 1)
	assert.Equal(t, "sc1", p2[0].ID)

	// Retrying the whole command finishes the job.
	flaky.n = 10
	got, err := svc.CompleteSession(f.ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, got.Status)
	assert.Len(t, f.scoresOf(t, "p1"), 3)
	assert.Len(t, f.scoresOf(t, "p2"), 3)
}

func TestStartSession_ConcurrentCallsHaveOneWinner(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1", "g1", domain.SessionPending)
	svc := f.sessionService()

	const callers = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		rejected int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.StartSession(f.ctx, "s1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrInvalidTransition):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, rejected)
}

func TestCancelAndCompleteRace_LoserSeesWinnerStatus(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1", "g1", domain.SessionActive)
	f.participant(t, "p1", "s1", "u1", 1)
	f.station(t, "s1", 1, "burpees")
	svc := f.sessionService()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); _, errs[0] = svc.CancelSession(f.ctx, "s1") }()
	go func() { defer wg.Done(); _, errs[1] = svc.CompleteSession(f.ctx, "s1") }()
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			var terr *InvalidTransitionError
			require.True(t, errors.As(err, &terr))
			assert.True(t, terr.Current.IsTerminal())
		}
	}
	assert.Equal(t, 1, failures)
	assert.Len(t, f.scoresOf(t, "p1"), 3)
}

func TestGetActiveSessionForGroup(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", "Dad")
	f.group(t, "g1", "u1")
	f.group(t, "g2", "u1")
	svc := f.sessionService()

	_, err := svc.GetActiveSessionForGroup(f.ctx, "g1")
	assert.ErrorIs(t, err, ErrNoActiveSession)

	f.session(t, "older", "g1", domain.SessionPending)
	f.session(t, "newer", "g1", domain.SessionPending)
	_, err = svc.StartSession(f.ctx, "older")
	require.NoError(t, err)

	svc.now = func() time.Time { return fixedNow.Add(time.Minute) }
	_, err = svc.StartSession(f.ctx, "newer")
	require.NoError(t, err)

	got, err := svc.GetActiveSessionForGroup(f.ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "newer", got.ID)

	_, err = svc.CompleteSession(f.ctx, "newer")
	require.NoError(t, err)
	got, err = svc.GetActiveSessionForGroup(f.ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "older", got.ID)

	_, err = svc.GetActiveSessionForGroup(f.ctx, "g2")
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, err = svc.GetActiveSessionForGroup(f.ctx, "missing")
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestGetSessionAssignments(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", "Mom")
	f.session(t, "s1", "g1", domain.SessionActive)
	f.participant(t, "p2", "s1", "ghost", 2)
	f.participant(t, "p1", "s1", "u1", 1)
	f.workoutType(t, "burpees", "Burpees", "Down, up, jump")
	f.station(t, "s1", 2, "retired-type")
	f.station(t, "s1", 1, "burpees")

	view, err := f.sessionService().GetSessionAssignments(f.ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, "s1", view.SessionID)
	assert.Equal(t, domain.SessionActive, view.Status)

	require.Len(t, view.Participants, 2)
	assert.Equal(t, ParticipantAssignment{ParticipantID: "p1", UserID: "u1", UserName: "Mom", ParticipantIndex: 1}, view.Participants[0])
	assert.Equal(t, ParticipantAssignment{ParticipantID: "p2", UserID: "ghost", UserName: UnknownUserName, ParticipantIndex: 2}, view.Participants[1])

	require.Len(t, view.Stations, 2)
	assert.Equal(t, StationAssignment{StationIndex: 1, WorkoutTypeID: "burpees", WorkoutTypeName: "Burpees", WorkoutTypeDescription: "Down, up, jump"}, view.Stations[0])
	assert.Equal(t, StationAssignment{StationIndex: 2, WorkoutTypeID: "retired-type", WorkoutTypeName: "retired-type"}, view.Stations[1])
}

func TestGetSessionAssignments_EmptySession(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1", "g1", domain.SessionCompleted)

	view, err := f.sessionService().GetSessionAssignments(f.ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, view.Status)
	assert.Empty(t, view.Participants)
	assert.Empty(t, view.Stations)
	assert.NotNil(t, view.Participants, "renders as [] rather than null")
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", "Dad")
	f.group(t, "g1", "u1")
	svc := f.sessionService()

	local := time.FixedZone("CET", 3600)
	got, err := svc.CreateSession(f.ctx, "g1", "u1", time.Date(2026, 3, 15, 8, 0, 0, 0, local))
	require.NoError(t, err)
	assert.Equal(t, domain.SessionPending, got.Status)
	assert.Equal(t, time.Date(2026, 3, 15, 7, 0, 0, 0, time.UTC), got.SessionDate)
	assert.Equal(t, time.UTC, got.SessionDate.Location())
	assert.Nil(t, got.StartedAt)
	assert.Nil(t, got.EndedAt)

	_, err = svc.CreateSession(f.ctx, "missing", "u1", fixedNow)
	assert.ErrorIs(t, err, ErrGroupNotFound)
	_, err = svc.CreateSession(f.ctx, "g1", "missing", fixedNow)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = svc.CreateSession(f.ctx, "g1", "u1", time.Time{})
	assert.ErrorIs(t, err, ErrSessionDateRequired)

	list, err := svc.ListSessionsByGroup(f.ctx, "g1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, got.ID, list[0].ID)
}

func TestRescheduleSession(t *testing.T) {
	f := newFixture(t)
	f.session(t, "pending", "g1", domain.SessionPending)
	f.session(t, "active", "g1", domain.SessionActive)
	svc := f.sessionService()

	next := fixedNow.Add(48 * time.Hour)
	got, err := svc.RescheduleSession(f.ctx, "pending", next)
	require.NoError(t, err)
	assert.Equal(t, next, got.SessionDate)
	assert.Equal(t, domain.SessionPending, got.Status)

	_, err = svc.RescheduleSession(f.ctx, "active", next)
	assert.ErrorIs(t, err, ErrSessionNotEditable)
	_, err = svc.RescheduleSession(f.ctx, "missing", next)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteSession(t *testing.T) {
	f := newFixture(t)
	f.session(t, "active", "g1", domain.SessionActive)
	f.session(t, "cancelled", "g1", domain.SessionCancelled)
	f.participant(t, "p1", "cancelled", "u1", 1)
	f.station(t, "cancelled", 1, "burpees")
	f.score(t, "x", "p1", 1, 1, 0)
	svc := f.sessionService()

	assert.ErrorIs(t, svc.DeleteSession(f.ctx, "active"), ErrSessionNotDeletable)

	require.NoError(t, svc.DeleteSession(f.ctx, "cancelled"))
	_, err := svc.GetSession(f.ctx, "cancelled")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Empty(t, f.scoresOf(t, "p1"))
	stations, err := f.repos.Stations.ListBySession(f.ctx, "cancelled")
	require.NoError(t, err)
	assert.Empty(t, stations)
}
