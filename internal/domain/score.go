package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Every session runs the station circuit this many times.
const (
	FirstRound = 1
	RoundCount = 3
)

// WorkoutIntervalScore is the result of one participant at one station in one round.
// (ParticipantID, RoundNumber, StationIndex) is unique.
type WorkoutIntervalScore struct {
	ID            string           `json:"id"`
	ParticipantID string           `json:"participantId"`
	RoundNumber   int              `json:"roundNumber"`   // 1..3
	StationIndex  int              `json:"stationIndex"`  // 1..4
	WorkoutTypeID string           `json:"workoutTypeId"` // Copied from the station plan when recorded
	Score         int              `json:"score"`
	Weight        *decimal.Decimal `json:"weight,omitempty"`
	RecordedAt    time.Time        `json:"recordedAt"`
}

// ValidRound reports whether r is a round number of the circuit.
func ValidRound(r int) bool {
	return r >= FirstRound && r < FirstRound+RoundCount
}

// ScoreKey identifies a score slot for one participant.
type ScoreKey struct {
	RoundNumber  int
	StationIndex int
}

// Key returns the slot this score occupies.
func (s WorkoutIntervalScore) Key() ScoreKey {
	return ScoreKey{RoundNumber: s.RoundNumber, StationIndex: s.StationIndex}
}
