package mongo

import (
	"context"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCollectionName = "users"

// caseInsensitive compares strings ignoring case (strength 2).
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts a new user.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.collection.InsertOne(ctx, user)
	return mapWriteError(err)
}

// GetByID retrieves a user by ID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByExternalID retrieves a user by identity provider object ID.
func (r *mongoUserRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	if externalID == "" {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"externalId": externalID})
}

// GetByEmail retrieves a user by email address, ignoring case.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"email": email}, options.FindOne().SetCollation(caseInsensitive))
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*domain.User, error) {
	var user domain.User
	if err := r.collection.FindOne(ctx, filter, opts...).Decode(&user); err != nil {
		return nil, mapReadError(err)
	}
	return &user, nil
}

// Update replaces the user's profile fields.
func (r *mongoUserRepository) Update(ctx context.Context, user *domain.User) error {
	update := bson.M{"$set": bson.M{
		"externalId": user.ExternalID,
		"username":   user.Username,
		"email":      user.Email,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, update)
	if err != nil {
		return mapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureUserIndexes creates necessary indexes for the users collection.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "externalId", Value: 1}},
			// Users created before their first sign-in have no external ID
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"externalId": bson.M{"$type": "string", "$gt": ""}}),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(caseInsensitive).SetPartialFilterExpression(
				bson.M{"email": bson.M{"$type": "string", "$gt": ""}}),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
