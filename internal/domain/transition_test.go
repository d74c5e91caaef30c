package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransitionFor(t *testing.T) {
	tests := []struct {
		from SessionStatus
		ev   SessionEvent
		to   SessionStatus
		ok   bool
		ends bool
	}{
		{SessionPending, EventStart, SessionActive, true, false},
		{SessionActive, EventStart, "", false, false},
		{SessionCompleted, EventStart, "", false, false},
		{SessionCancelled, EventStart, "", false, false},

		{SessionPending, EventCancel, SessionCancelled, true, true},
		{SessionActive, EventCancel, SessionCancelled, true, true},
		{SessionCompleted, EventCancel, "", false, false},
		{SessionCancelled, EventCancel, "", false, false},

		{SessionActive, EventComplete, SessionCompleted, true, true},
		{SessionPending, EventComplete, "", false, false},
		{SessionCompleted, EventComplete, "", false, false},
		{SessionCancelled, EventComplete, "", false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.ev), func(t *testing.T) {
			tr, ok := TransitionFor(tt.from, tt.ev)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.to, tr.To)
			assert.Equal(t, tt.ends, tr.Ends)
		})
	}
}

func TestAllowedFrom(t *testing.T) {
	assert.Equal(t, []SessionStatus{SessionPending}, AllowedFrom(EventStart))
	assert.Equal(t, []SessionStatus{SessionPending, SessionActive}, AllowedFrom(EventCancel))
	assert.Equal(t, []SessionStatus{SessionActive}, AllowedFrom(EventComplete))
}

func TestSessionStatusTerminal(t *testing.T) {
	assert.False(t, SessionPending.IsTerminal())
	assert.False(t, SessionActive.IsTerminal())
	assert.True(t, SessionCompleted.IsTerminal())
	assert.True(t, SessionCancelled.IsTerminal())
	assert.False(t, SessionStatus("Paused").Valid())
}

func TestNormalizeUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	in := time.Date(2026, 3, 1, 10, 0, 0, 0, loc)

	out := NormalizeUTC(in)
	assert.Equal(t, time.UTC, out.Location())
	assert.True(t, in.Equal(out))
	assert.Equal(t, 8, out.Hour())

	assert.True(t, NormalizeUTC(time.Time{}).IsZero())
}

func TestWorkoutSessionClone(t *testing.T) {
	started := time.Now().UTC()
	s := &WorkoutSession{ID: "s1", Status: SessionActive, StartedAt: &started}

	c := s.Clone()
	later := started.Add(time.Hour)
	*c.StartedAt = later

	assert.Equal(t, started, *s.StartedAt)
	assert.Nil(t, (*WorkoutSession)(nil).Clone())
}

func TestValidRoundAndStation(t *testing.T) {
	assert.False(t, ValidRound(0))
	assert.True(t, ValidRound(1))
	assert.True(t, ValidRound(3))
	assert.False(t, ValidRound(4))

	assert.False(t, ValidStationIndex(0))
	assert.True(t, ValidStationIndex(4))
	assert.False(t, ValidStationIndex(5))
}
