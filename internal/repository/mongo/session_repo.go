package mongo

import (
	"context"
	"time"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionCollectionName = "workout_sessions"

// mongoSessionRepository implements repository.WorkoutSessionRepository.
type mongoSessionRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionRepository creates a new workout session repository.
func NewMongoSessionRepository(db *mongo.Database) repository.WorkoutSessionRepository {
	return &mongoSessionRepository{collection: db.Collection(sessionCollectionName)}
}

func (r *mongoSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) error {
	_, err := r.collection.InsertOne(ctx, session)
	return mapWriteError(err)
}

func (r *mongoSessionRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutSession, error) {
	var session domain.WorkoutSession
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session); err != nil {
		return nil, mapReadError(err)
	}
	return normalizeSession(&session), nil
}

// ListByGroup returns a group's sessions, newest session date first.
func (r *mongoSessionRepository) ListByGroup(ctx context.Context, groupID string) ([]domain.WorkoutSession, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "sessionDate", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"groupId": groupID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sessions := []domain.WorkoutSession{}
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	for i := range sessions {
		normalizeSession(&sessions[i])
	}
	return sessions, nil
}

// FindActiveByGroup returns the group's Active session with the latest start.
func (r *mongoSessionRepository) FindActiveByGroup(ctx context.Context, groupID string) (*domain.WorkoutSession, error) {
	filter := bson.M{"groupId": groupID, "status": domain.SessionActive}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "startedAt", Value: -1}, {Key: "_id", Value: 1}})

	var session domain.WorkoutSession
	if err := r.collection.FindOne(ctx, filter, findOptions).Decode(&session); err != nil {
		return nil, mapReadError(err)
	}
	return normalizeSession(&session), nil
}

// UpdateStatus writes the lifecycle fields only while the stored status still
// equals expected.
func (r *mongoSessionRepository) UpdateStatus(ctx context.Context, session *domain.WorkoutSession, expected domain.SessionStatus) error {
	set := bson.M{"status": session.Status}
	unset := bson.M{}
	if session.StartedAt != nil {
		set["startedAt"] = session.StartedAt.UTC()
	} else {
		unset["startedAt"] = ""
	}
	if session.EndedAt != nil {
		set["endedAt"] = session.EndedAt.UTC()
	} else {
		unset["endedAt"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": session.ID, "status": expected}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return r.missOrConflict(ctx, session.ID)
	}
	return nil
}

// UpdateSessionDate reschedules a session while its status still equals expected.
func (r *mongoSessionRepository) UpdateSessionDate(ctx context.Context, id string, sessionDate time.Time, expected domain.SessionStatus) error {
	update := bson.M{"$set": bson.M{"sessionDate": sessionDate.UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": expected}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

// missOrConflict tells a missing session apart from a failed precondition.
func (r *mongoSessionRepository) missOrConflict(ctx context.Context, id string) error {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func (r *mongoSessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// normalizeSession keeps every decoded timestamp in UTC.
func normalizeSession(s *domain.WorkoutSession) *domain.WorkoutSession {
	s.SessionDate = domain.NormalizeUTC(s.SessionDate)
	s.CreatedAt = domain.NormalizeUTC(s.CreatedAt)
	if s.StartedAt != nil {
		t := s.StartedAt.UTC()
		s.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := s.EndedAt.UTC()
		s.EndedAt = &t
	}
	return s
}

// EnsureSessionIndexes creates indexes for group listings and the active lookup.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "groupId", Value: 1}, {Key: "sessionDate", Value: -1}}},
		{Keys: bson.D{{Key: "groupId", Value: 1}, {Key: "status", Value: 1}, {Key: "startedAt", Value: -1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
