package mongo

import (
	"context"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutTypeCollectionName = "workout_types"

// mongoWorkoutTypeRepository implements repository.WorkoutTypeRepository.
type mongoWorkoutTypeRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutTypeRepository creates a new workout-type repository.
func NewMongoWorkoutTypeRepository(db *mongo.Database) repository.WorkoutTypeRepository {
	return &mongoWorkoutTypeRepository{collection: db.Collection(workoutTypeCollectionName)}
}

func (r *mongoWorkoutTypeRepository) Create(ctx context.Context, wt *domain.WorkoutType) error {
	_, err := r.collection.InsertOne(ctx, wt)
	return mapWriteError(err)
}

func (r *mongoWorkoutTypeRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutType, error) {
	var wt domain.WorkoutType
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&wt); err != nil {
		return nil, mapReadError(err)
	}
	return &wt, nil
}

// List returns the catalog sorted by name.
func (r *mongoWorkoutTypeRepository) List(ctx context.Context) ([]domain.WorkoutType, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}}).SetCollation(caseInsensitive)
	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	types := []domain.WorkoutType{}
	if err = cursor.All(ctx, &types); err != nil {
		return nil, err
	}
	return types, nil
}

func (r *mongoWorkoutTypeRepository) Update(ctx context.Context, wt *domain.WorkoutType) error {
	update := bson.M{"$set": bson.M{"name": wt.Name, "description": wt.Description}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": wt.ID}, update)
	if err != nil {
		return mapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoWorkoutTypeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureWorkoutTypeIndexes makes names unique regardless of case.
func EnsureWorkoutTypeIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
	})
	return err
}
