package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"
	"familyfitness/wod-server/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type fixture struct {
	ctx   context.Context
	repos repository.Repositories
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{ctx: context.Background(), repos: memory.NewRepositories()}
}

func (f *fixture) sessionService() *sessionService {
	s := newSessionService(f.repos, nil)
	s.now = fixedClock
	return s
}

func (f *fixture) user(t *testing.T, id, username string) *domain.User {
	t.Helper()
	u := &domain.User{ID: id, Username: username, Email: id + "@example.com", CreatedAt: fixedNow}
	require.NoError(t, f.repos.Users.Create(f.ctx, u))
	return u
}

func (f *fixture) group(t *testing.T, id, ownerID string) *domain.Group {
	t.Helper()
	g := &domain.Group{ID: id, Name: "Family " + id, OwnerID: ownerID, CreatedAt: fixedNow}
	require.NoError(t, f.repos.Groups.Create(f.ctx, g))
	require.NoError(t, f.repos.Memberships.Create(f.ctx, &domain.GroupMembership{
		ID: id + "-" + ownerID, GroupID: id, UserID: ownerID, Role: domain.MemberRoleOwner, JoinedAt: fixedNow,
	}))
	return g
}

func (f *fixture) workoutType(t *testing.T, id, name, description string) {
	t.Helper()
	require.NoError(t, f.repos.WorkoutTypes.Create(f.ctx, &domain.WorkoutType{ID: id, Name: name, Description: description}))
}

func (f *fixture) session(t *testing.T, id, groupID string, status domain.SessionStatus) *domain.WorkoutSession {
	t.Helper()
	s := &domain.WorkoutSession{
		ID:          id,
		GroupID:     groupID,
		CreatorID:   "creator",
		SessionDate: fixedNow.Add(-time.Hour),
		Status:      status,
		CreatedAt:   fixedNow.Add(-2 * time.Hour),
	}
	if status != domain.SessionPending {
		started := fixedNow.Add(-30 * time.Minute)
		s.StartedAt = &started
	}
	require.NoError(t, f.repos.Sessions.Create(f.ctx, s))
	return s
}

func (f *fixture) participant(t *testing.T, id, sessionID, userID string, index int) {
	t.Helper()
	require.NoError(t, f.repos.Participants.Create(f.ctx, &domain.WorkoutSessionParticipant{
		ID: id, SessionID: sessionID, UserID: userID, ParticipantIndex: index, JoinedAt: fixedNow,
	}))
}

func (f *fixture) station(t *testing.T, sessionID string, index int, workoutTypeID string) {
	t.Helper()
	require.NoError(t, f.repos.Stations.Upsert(f.ctx, &domain.WorkoutSessionWorkoutType{
		ID: fmt.Sprintf("%s-st-%d", sessionID, index), SessionID: sessionID, StationIndex: index, WorkoutTypeID: workoutTypeID,
	}))
}

func (f *fixture) score(t *testing.T, id, participantID string, round, station, value int) {
	t.Helper()
	require.NoError(t, f.repos.Scores.Create(f.ctx, &domain.WorkoutIntervalScore{
		ID: id, ParticipantID: participantID, RoundNumber: round, StationIndex: station, Score: value, RecordedAt: fixedNow,
	}))
}

func (f *fixture) scoresOf(t *testing.T, participantID string) []domain.WorkoutIntervalScore {
	t.Helper()
	scores, err := f.repos.Scores.ListByParticipant(f.ctx, participantID)
	require.NoError(t, err)
	return scores
}
