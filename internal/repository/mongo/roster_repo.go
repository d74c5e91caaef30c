package mongo

import (
	"context"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	participantCollectionName = "session_participants"
	stationCollectionName     = "session_stations"
)

// mongoParticipantRepository implements repository.ParticipantRepository.
type mongoParticipantRepository struct {
	collection *mongo.Collection
}

// NewMongoParticipantRepository creates a new participant repository.
func NewMongoParticipantRepository(db *mongo.Database) repository.ParticipantRepository {
	return &mongoParticipantRepository{collection: db.Collection(participantCollectionName)}
}

func (r *mongoParticipantRepository) Create(ctx context.Context, p *domain.WorkoutSessionParticipant) error {
	_, err := r.collection.InsertOne(ctx, p)
	return mapWriteError(err)
}

func (r *mongoParticipantRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutSessionParticipant, error) {
	var p domain.WorkoutSessionParticipant
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mapReadError(err)
	}
	return &p, nil
}

func (r *mongoParticipantRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.WorkoutSessionParticipant, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "participantIndex", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	participants := []domain.WorkoutSessionParticipant{}
	if err = cursor.All(ctx, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *mongoParticipantRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoParticipantRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"sessionId": sessionID})
	return err
}

// EnsureParticipantIndexes makes users and indices unique within a session.
func EnsureParticipantIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "participantIndex", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// mongoStationRepository implements repository.StationRepository.
type mongoStationRepository struct {
	collection *mongo.Collection
}

// NewMongoStationRepository creates a new station plan repository.
func NewMongoStationRepository(db *mongo.Database) repository.StationRepository {
	return &mongoStationRepository{collection: db.Collection(stationCollectionName)}
}

// Upsert sets the workout type of a station, keeping the ID of an existing entry.
func (r *mongoStationRepository) Upsert(ctx context.Context, st *domain.WorkoutSessionWorkoutType) error {
	filter := bson.M{"sessionId": st.SessionID, "stationIndex": st.StationIndex}
	update := bson.M{
		"$set":         bson.M{"workoutTypeId": st.WorkoutTypeID},
		"$setOnInsert": bson.M{"_id": st.ID},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved domain.WorkoutSessionWorkoutType
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return mapWriteError(err)
	}
	st.ID = saved.ID
	return nil
}

func (r *mongoStationRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.WorkoutSessionWorkoutType, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "stationIndex", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"sessionId": sessionID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stations := []domain.WorkoutSessionWorkoutType{}
	if err = cursor.All(ctx, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

func (r *mongoStationRepository) Delete(ctx context.Context, sessionID string, stationIndex int) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"sessionId": sessionID, "stationIndex": stationIndex})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoStationRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"sessionId": sessionID})
	return err
}

// EnsureStationIndexes allows one entry per (sessionId, stationIndex).
func EnsureStationIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "stationIndex", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
