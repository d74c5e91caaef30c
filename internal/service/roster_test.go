package service

import (
	"testing"

	"familyfitness/wod-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinSession(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", "Dad")
	f.user(t, "u2", "Kid")
	f.session(t, "s1", "g1", domain.SessionPending)
	svc := NewParticipantService(f.repos, nil)

	p1, err := svc.JoinSession(f.ctx, "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, p1.ParticipantIndex)

	p2, err := svc.JoinSession(f.ctx, "s1", "u2")
	require.NoError(t, err)
	assert.Equal(t, 2, p2.ParticipantIndex)

	_, err = svc.JoinSession(f.ctx, "s1", "u1")
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	_, err = svc.JoinSession(f.ctx, "s1", "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	roster, err := svc.ListParticipants(f.ctx, "s1")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "u1", roster[0].UserID)
	assert.Equal(t, "u2", roster[1].UserID)
}

func TestJoinSession_ActiveAllowedTerminalRejected(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", "Dad")
	f.session(t, "active", "g1", domain.SessionActive)
	f.session(t, "done", "g1", domain.SessionCompleted)
	svc := NewParticipantService(f.repos, nil)

	_, err := svc.JoinSession(f.ctx, "active", "u1")
	require.NoError(t, err)

	_, err = svc.JoinSession(f.ctx, "done", "u1")
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = svc.JoinSession(f.ctx, "missing", "u1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSetStation(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1", "g1", domain.SessionPending)
	f.workoutType(t, "burpees", "Burpees", "")
	f.workoutType(t, "squats", "Squats", "")
	svc := NewStationService(f.repos, nil)

	first, err := svc.SetStation(f.ctx, "s1", 1, "burpees")
	require.NoError(t, err)
	replaced, err := svc.SetStation(f.ctx, "s1", 1, "squats")
	require.NoError(t, err)
	assert.Equal(t, first.ID, replaced.ID, "same station slot")

	plan, err := svc.ListStations(f.ctx, "s1")
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "squats", plan[0].WorkoutTypeID)

	_, err = svc.SetStation(f.ctx, "s1", 0, "burpees")
	assert.ErrorIs(t, err, ErrInvalidStationIndex)
	_, err = svc.SetStation(f.ctx, "s1", 5, "burpees")
	assert.ErrorIs(t, err, ErrInvalidStationIndex)
	_, err = svc.SetStation(f.ctx, "s1", 2, "unknown")
	assert.ErrorIs(t, err, ErrWorkoutTypeNotFound)

	require.NoError(t, svc.ClearStation(f.ctx, "s1", 1))
	assert.ErrorIs(t, svc.ClearStation(f.ctx, "s1", 1), ErrStationNotFound)
}

func TestSetStation_LockedAfterStart(t *testing.T) {
	f := newFixture(t)
	f.session(t, "s1", "g1", domain.SessionActive)
	f.workoutType(t, "burpees", "Burpees", "")
	svc := NewStationService(f.repos, nil)

	_, err := svc.SetStation(f.ctx, "s1", 1, "burpees")
	assert.ErrorIs(t, err, ErrStationPlanLocked)
	assert.ErrorIs(t, svc.ClearStation(f.ctx, "s1", 1), ErrStationPlanLocked)
}

func TestWorkoutTypeCatalog(t *testing.T) {
	f := newFixture(t)
	svc := NewWorkoutTypeService(f.repos.WorkoutTypes)

	wt, err := svc.CreateWorkoutType(f.ctx, "  Box Jumps ", " 60cm box ")
	require.NoError(t, err)
	assert.Equal(t, "Box Jumps", wt.Name)
	assert.Equal(t, "60cm box", wt.Description)
	assert.Regexp(t, `^box-jumps-[0-9a-f]{8}$`, wt.ID)

	_, err = svc.CreateWorkoutType(f.ctx, "box jumps", "")
	assert.ErrorIs(t, err, ErrWorkoutTypeNameTaken)
	_, err = svc.CreateWorkoutType(f.ctx, "   ", "")
	assert.ErrorIs(t, err, ErrWorkoutTypeNameRequired)

	other, err := svc.CreateWorkoutType(f.ctx, "Planks", "")
	require.NoError(t, err)

	// Renaming to its own name in another case is fine, to someone else's is not.
	_, err = svc.UpdateWorkoutType(f.ctx, wt.ID, "BOX JUMPS", "")
	require.NoError(t, err)
	_, err = svc.UpdateWorkoutType(f.ctx, other.ID, "Box Jumps", "")
	assert.ErrorIs(t, err, ErrWorkoutTypeNameTaken)

	list, err := svc.ListWorkoutTypes(f.ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, svc.DeleteWorkoutType(f.ctx, other.ID))
	_, err = svc.GetWorkoutType(f.ctx, other.ID)
	assert.ErrorIs(t, err, ErrWorkoutTypeNotFound)
	assert.ErrorIs(t, svc.DeleteWorkoutType(f.ctx, other.ID), ErrWorkoutTypeNotFound)
}

func TestWorkoutTypeID(t *testing.T) {
	assert.Regexp(t, `^push-ups-[0-9a-f]{8}$`, workoutTypeID("Push-Ups!"))
	assert.Regexp(t, `^[0-9a-f]{8}$`, workoutTypeID("!!!"))
}
