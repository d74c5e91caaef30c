package memory

import (
	"context"
	"testing"
	"time"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepo_UpdateStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()

	s := &domain.WorkoutSession{ID: "s1", GroupID: "g1", Status: domain.SessionPending, CreatedAt: time.Now().UTC()}
	require.NoError(t, repos.Sessions.Create(ctx, s))

	now := time.Now().UTC()
	started := s.Clone()
	started.Status = domain.SessionActive
	started.StartedAt = &now

	require.NoError(t, repos.Sessions.UpdateStatus(ctx, started, domain.SessionPending))

	// A second writer still expecting Pending loses.
	err := repos.Sessions.UpdateStatus(ctx, started, domain.SessionPending)
	assert.ErrorIs(t, err, repository.ErrConflict)

	got, err := repos.Sessions.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionActive, got.Status)
	require.NotNil(t, got.StartedAt)

	err = repos.Sessions.UpdateStatus(ctx, &domain.WorkoutSession{ID: "missing"}, domain.SessionPending)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionRepo_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	require.NoError(t, repos.Sessions.Create(ctx, &domain.WorkoutSession{ID: "s1", Status: domain.SessionPending}))

	got, err := repos.Sessions.GetByID(ctx, "s1")
	require.NoError(t, err)
	got.Status = domain.SessionCompleted

	again, err := repos.Sessions.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionPending, again.Status)
}

func TestSessionRepo_FindActiveByGroupPicksLatestStart(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()

	early := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	late := early.Add(2 * time.Hour)

	require.NoError(t, repos.Sessions.Create(ctx, &domain.WorkoutSession{ID: "a", GroupID: "g1", Status: domain.SessionActive, StartedAt: &early}))
	require.NoError(t, repos.Sessions.Create(ctx, &domain.WorkoutSession{ID: "b", GroupID: "g1", Status: domain.SessionActive, StartedAt: &late}))
	require.NoError(t, repos.Sessions.Create(ctx, &domain.WorkoutSession{ID: "c", GroupID: "g1", Status: domain.SessionPending}))
	require.NoError(t, repos.Sessions.Create(ctx, &domain.WorkoutSession{ID: "d", GroupID: "g2", Status: domain.SessionCompleted, StartedAt: &late}))

	got, err := repos.Sessions.FindActiveByGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)

	_, err = repos.Sessions.FindActiveByGroup(ctx, "g2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestParticipantRepo_Uniqueness(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()

	require.NoError(t, repos.Participants.Create(ctx, &domain.WorkoutSessionParticipant{ID: "p1", SessionID: "s1", UserID: "u1", ParticipantIndex: 1}))

	err := repos.Participants.Create(ctx, &domain.WorkoutSessionParticipant{ID: "p2", SessionID: "s1", UserID: "u1", ParticipantIndex: 2})
	assert.ErrorIs(t, err, repository.ErrDuplicate, "same user twice")

	err = repos.Participants.Create(ctx, &domain.WorkoutSessionParticipant{ID: "p3", SessionID: "s1", UserID: "u2", ParticipantIndex: 1})
	assert.ErrorIs(t, err, repository.ErrDuplicate, "same index twice")

	require.NoError(t, repos.Participants.Create(ctx, &domain.WorkoutSessionParticipant{ID: "p4", SessionID: "s2", UserID: "u1", ParticipantIndex: 1}))
}

func TestScoreRepo_UniqueSlot(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()

	require.NoError(t, repos.Scores.Create(ctx, &domain.WorkoutIntervalScore{ID: "x1", ParticipantID: "p1", RoundNumber: 1, StationIndex: 1, Score: 7}))
	err := repos.Scores.Create(ctx, &domain.WorkoutIntervalScore{ID: "x2", ParticipantID: "p1", RoundNumber: 1, StationIndex: 1})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	require.NoError(t, repos.Scores.Create(ctx, &domain.WorkoutIntervalScore{ID: "x3", ParticipantID: "p1", RoundNumber: 2, StationIndex: 1}))

	scores, err := repos.Scores.ListByParticipant(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 1, scores[0].RoundNumber)
	assert.Equal(t, 7, scores[0].Score)
}

func TestStationRepo_UpsertReplacesIndex(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()

	require.NoError(t, repos.Stations.Upsert(ctx, &domain.WorkoutSessionWorkoutType{ID: "st1", SessionID: "s1", StationIndex: 2, WorkoutTypeID: "squats"}))
	require.NoError(t, repos.Stations.Upsert(ctx, &domain.WorkoutSessionWorkoutType{ID: "st2", SessionID: "s1", StationIndex: 1, WorkoutTypeID: "burpees"}))
	require.NoError(t, repos.Stations.Upsert(ctx, &domain.WorkoutSessionWorkoutType{ID: "st3", SessionID: "s1", StationIndex: 2, WorkoutTypeID: "lunges"}))

	stations, err := repos.Stations.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, 1, stations[0].StationIndex)
	assert.Equal(t, "lunges", stations[1].WorkoutTypeID)
	assert.Equal(t, "st1", stations[1].ID)

	assert.ErrorIs(t, repos.Stations.Delete(ctx, "s1", 4), repository.ErrNotFound)
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()

	require.NoError(t, repos.Participants.Create(ctx, &domain.WorkoutSessionParticipant{ID: "p1", SessionID: "s1", UserID: "u1", ParticipantIndex: 1}))
	require.NoError(t, repos.Participants.Delete(ctx, "p1"))
	assert.ErrorIs(t, repos.Participants.Delete(ctx, "p1"), repository.ErrNotFound)
	// The freed index can be taken again.
	require.NoError(t, repos.Participants.Create(ctx, &domain.WorkoutSessionParticipant{ID: "p2", SessionID: "s1", UserID: "u2", ParticipantIndex: 1}))

	require.NoError(t, repos.Scores.Create(ctx, &domain.WorkoutIntervalScore{ID: "x1", ParticipantID: "p2", RoundNumber: 1, StationIndex: 1}))
	require.NoError(t, repos.Scores.Delete(ctx, "x1"))
	assert.ErrorIs(t, repos.Scores.Delete(ctx, "x1"), repository.ErrNotFound)
	require.NoError(t, repos.Scores.Create(ctx, &domain.WorkoutIntervalScore{ID: "x2", ParticipantID: "p2", RoundNumber: 1, StationIndex: 1}))
}
