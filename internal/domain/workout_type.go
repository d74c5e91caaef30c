package domain

// WorkoutType is an entry of the workout-type catalog (e.g. "Burpees").
// IDs are strings so catalog entries can carry readable slugs.
type WorkoutType struct {
	ID          string `bson:"_id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}
