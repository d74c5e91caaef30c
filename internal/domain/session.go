package domain

import (
	"time"
)

// SessionStatus tracks where a workout session is in its lifecycle.
type SessionStatus string

const (
	SessionPending   SessionStatus = "Pending"
	SessionActive    SessionStatus = "Active"
	SessionCompleted SessionStatus = "Completed"
	SessionCancelled SessionStatus = "Cancelled"
)

// IsTerminal reports whether no further transition can leave the status.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// Valid reports whether s is one of the known statuses.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPending, SessionActive, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// WorkoutSession is one scheduled WOD for a group.
// Status, StartedAt and EndedAt are owned by the session lifecycle engine;
// nothing else writes them.
type WorkoutSession struct {
	ID          string        `bson:"_id" json:"id"`
	GroupID     string        `bson:"groupId" json:"groupId"`
	CreatorID   string        `bson:"creatorId" json:"creatorId"`
	SessionDate time.Time     `bson:"sessionDate" json:"sessionDate"`
	StartedAt   *time.Time    `bson:"startedAt,omitempty" json:"startedAt,omitempty"` // Set only once the session actually started
	EndedAt     *time.Time    `bson:"endedAt,omitempty" json:"endedAt,omitempty"`     // Set on Completed or Cancelled
	Status      SessionStatus `bson:"status" json:"status"`
	CreatedAt   time.Time     `bson:"createdAt" json:"createdAt"`
}

// Clone returns a deep copy so callers can't mutate a stored snapshot.
func (s *WorkoutSession) Clone() *WorkoutSession {
	if s == nil {
		return nil
	}
	out := *s
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		out.EndedAt = &t
	}
	return &out
}

// NormalizeUTC converts t to UTC. Times without zone information are already
// UTC in Go, so they pass through unchanged.
func NormalizeUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
