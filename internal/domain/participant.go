package domain

import (
	"time"
)

// WorkoutSessionParticipant is a user who joined a specific session.
type WorkoutSessionParticipant struct {
	ID               string    `bson:"_id" json:"id"`
	SessionID        string    `bson:"sessionId" json:"sessionId"`
	UserID           string    `bson:"userId" json:"userId"`
	ParticipantIndex int       `bson:"participantIndex" json:"participantIndex"` // 1-based join order
	JoinedAt         time.Time `bson:"joinedAt" json:"joinedAt"`
}
