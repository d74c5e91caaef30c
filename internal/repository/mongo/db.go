package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"familyfitness/wod-server/internal/repository"
	"familyfitness/wod-server/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// ConnectDB establishes a connection to MongoDB using the provided URI and
// verifies it with a ping against the primary.
func ConnectDB(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// NewRepositories wires every Mongo repository against db.
func NewRepositories(db *mongo.Database) repository.Repositories {
	return repository.Repositories{
		Users:        NewMongoUserRepository(db),
		Groups:       NewMongoGroupRepository(db),
		Memberships:  NewMongoMembershipRepository(db),
		Invites:      NewMongoInviteRepository(db),
		WorkoutTypes: NewMongoWorkoutTypeRepository(db),
		Sessions:     NewMongoSessionRepository(db),
		Participants: NewMongoParticipantRepository(db),
		Stations:     NewMongoStationRepository(db),
		Scores:       NewMongoScoreRepository(db),
	}
}

// EnsureIndexes creates the indexes every collection relies on, including the
// unique ones that back duplicate detection.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	log = logger.OrNop(log)
	steps := []struct {
		collection string
		ensure     func(context.Context, *mongo.Collection) error
	}{
		{userCollectionName, EnsureUserIndexes},
		{membershipCollectionName, EnsureMembershipIndexes},
		{inviteCollectionName, EnsureInviteIndexes},
		{workoutTypeCollectionName, EnsureWorkoutTypeIndexes},
		{sessionCollectionName, EnsureSessionIndexes},
		{participantCollectionName, EnsureParticipantIndexes},
		{stationCollectionName, EnsureStationIndexes},
		{scoreCollectionName, EnsureScoreIndexes},
	}

	var errs []error
	for _, step := range steps {
		if err := step.ensure(ctx, db.Collection(step.collection)); err != nil {
			log.Warn("failed to create indexes", zap.String("collection", step.collection), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", step.collection, err))
			continue
		}
		log.Debug("indexes ensured", zap.String("collection", step.collection))
	}
	return errors.Join(errs...)
}

// mapWriteError turns a duplicate key violation into repository.ErrDuplicate.
func mapWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

// mapReadError turns mongo.ErrNoDocuments into repository.ErrNotFound.
func mapReadError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}
