package mongo

import (
	"context"
	"fmt"
	"time"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const scoreCollectionName = "interval_scores"

// scoreDocument is the stored form of a score. Weights are kept as Decimal128
// so no precision is lost to floats.
type scoreDocument struct {
	ID            string                `bson:"_id"`
	ParticipantID string                `bson:"participantId"`
	RoundNumber   int                   `bson:"roundNumber"`
	StationIndex  int                   `bson:"stationIndex"`
	WorkoutTypeID string                `bson:"workoutTypeId"`
	Score         int                   `bson:"score"`
	Weight        *primitive.Decimal128 `bson:"weight,omitempty"`
	RecordedAt    time.Time             `bson:"recordedAt"`
}

func toDecimal128(d *decimal.Decimal) (*primitive.Decimal128, error) {
	if d == nil {
		return nil, nil
	}
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return nil, fmt.Errorf("convert weight %s: %w", d, err)
	}
	return &v, nil
}

func fromDecimal128(v *primitive.Decimal128) (*decimal.Decimal, error) {
	if v == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return nil, fmt.Errorf("parse weight %s: %w", v, err)
	}
	return &d, nil
}

func newScoreDocument(s *domain.WorkoutIntervalScore) (*scoreDocument, error) {
	weight, err := toDecimal128(s.Weight)
	if err != nil {
		return nil, err
	}
	return &scoreDocument{
		ID:            s.ID,
		ParticipantID: s.ParticipantID,
		RoundNumber:   s.RoundNumber,
		StationIndex:  s.StationIndex,
		WorkoutTypeID: s.WorkoutTypeID,
		Score:         s.Score,
		Weight:        weight,
		RecordedAt:    s.RecordedAt.UTC(),
	}, nil
}

func (d *scoreDocument) toDomain() (*domain.WorkoutIntervalScore, error) {
	weight, err := fromDecimal128(d.Weight)
	if err != nil {
		return nil, err
	}
	return &domain.WorkoutIntervalScore{
		ID:            d.ID,
		ParticipantID: d.ParticipantID,
		RoundNumber:   d.RoundNumber,
		StationIndex:  d.StationIndex,
		WorkoutTypeID: d.WorkoutTypeID,
		Score:         d.Score,
		Weight:        weight,
		RecordedAt:    d.RecordedAt.UTC(),
	}, nil
}

// mongoScoreRepository implements repository.ScoreRepository.
type mongoScoreRepository struct {
	collection *mongo.Collection
}

// NewMongoScoreRepository creates a new score repository.
func NewMongoScoreRepository(db *mongo.Database) repository.ScoreRepository {
	return &mongoScoreRepository{collection: db.Collection(scoreCollectionName)}
}

func (r *mongoScoreRepository) Create(ctx context.Context, s *domain.WorkoutIntervalScore) error {
	doc, err := newScoreDocument(s)
	if err != nil {
		return err
	}
	_, err = r.collection.InsertOne(ctx, doc)
	return mapWriteError(err)
}

func (r *mongoScoreRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutIntervalScore, error) {
	var doc scoreDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, mapReadError(err)
	}
	return doc.toDomain()
}

func (r *mongoScoreRepository) ListByParticipant(ctx context.Context, participantID string) ([]domain.WorkoutIntervalScore, error) {
	return r.find(ctx, bson.M{"participantId": participantID})
}

func (r *mongoScoreRepository) ListByParticipants(ctx context.Context, participantIDs []string) ([]domain.WorkoutIntervalScore, error) {
	if len(participantIDs) == 0 {
		return []domain.WorkoutIntervalScore{}, nil
	}
	return r.find(ctx, bson.M{"participantId": bson.M{"$in": participantIDs}})
}

func (r *mongoScoreRepository) ListByWorkoutType(ctx context.Context, workoutTypeID string) ([]domain.WorkoutIntervalScore, error) {
	return r.find(ctx, bson.M{"workoutTypeId": workoutTypeID})
}

func (r *mongoScoreRepository) find(ctx context.Context, filter bson.M) ([]domain.WorkoutIntervalScore, error) {
	findOptions := options.Find().SetSort(bson.D{
		{Key: "participantId", Value: 1},
		{Key: "roundNumber", Value: 1},
		{Key: "stationIndex", Value: 1},
	})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []scoreDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	scores := make([]domain.WorkoutIntervalScore, 0, len(docs))
	for i := range docs {
		s, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		scores = append(scores, *s)
	}
	return scores, nil
}

func (r *mongoScoreRepository) UpdateValue(ctx context.Context, id string, score int, weight *decimal.Decimal) error {
	w, err := toDecimal128(weight)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{"score": score}}
	if w != nil {
		update["$set"].(bson.M)["weight"] = w
	} else {
		update["$unset"] = bson.M{"weight": ""}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoScoreRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoScoreRepository) DeleteByParticipant(ctx context.Context, participantID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"participantId": participantID})
	return err
}

// EnsureScoreIndexes enforces one score per slot and supports progression queries.
func EnsureScoreIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "participantId", Value: 1},
				{Key: "roundNumber", Value: 1},
				{Key: "stationIndex", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "workoutTypeId", Value: 1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
