package domain

// Station bounds for a session's plan.
const (
	MinStationIndex = 1
	MaxStationIndex = 4
)

// WorkoutSessionWorkoutType maps one station of a session to a workout type.
type WorkoutSessionWorkoutType struct {
	ID            string `bson:"_id" json:"id"`
	SessionID     string `bson:"sessionId" json:"sessionId"`
	WorkoutTypeID string `bson:"workoutTypeId" json:"workoutTypeId"`
	StationIndex  int    `bson:"stationIndex" json:"stationIndex"` // 1..4
}

// ValidStationIndex reports whether i is inside [MinStationIndex, MaxStationIndex].
func ValidStationIndex(i int) bool {
	return i >= MinStationIndex && i <= MaxStationIndex
}
