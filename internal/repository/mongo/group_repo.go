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
	groupCollectionName      = "groups"
	membershipCollectionName = "group_memberships"
	inviteCollectionName     = "group_invites"
)

// mongoGroupRepository implements repository.GroupRepository.
type mongoGroupRepository struct {
	collection *mongo.Collection
}

// NewMongoGroupRepository creates a new Group repository.
func NewMongoGroupRepository(db *mongo.Database) repository.GroupRepository {
	return &mongoGroupRepository{collection: db.Collection(groupCollectionName)}
}

func (r *mongoGroupRepository) Create(ctx context.Context, group *domain.Group) error {
	_, err := r.collection.InsertOne(ctx, group)
	return mapWriteError(err)
}

func (r *mongoGroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	var group domain.Group
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&group); err != nil {
		return nil, mapReadError(err)
	}
	return &group, nil
}

// GetByIDs returns the groups with the given IDs sorted by name. Unknown IDs are skipped.
func (r *mongoGroupRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Group, error) {
	groups := []domain.Group{}
	if len(ids) == 0 {
		return groups, nil
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// mongoMembershipRepository implements repository.GroupMembershipRepository.
type mongoMembershipRepository struct {
	collection *mongo.Collection
}

// NewMongoMembershipRepository creates a new membership repository.
func NewMongoMembershipRepository(db *mongo.Database) repository.GroupMembershipRepository {
	return &mongoMembershipRepository{collection: db.Collection(membershipCollectionName)}
}

func (r *mongoMembershipRepository) Create(ctx context.Context, m *domain.GroupMembership) error {
	_, err := r.collection.InsertOne(ctx, m)
	return mapWriteError(err)
}

func (r *mongoMembershipRepository) GetByGroupAndUser(ctx context.Context, groupID, userID string) (*domain.GroupMembership, error) {
	var m domain.GroupMembership
	if err := r.collection.FindOne(ctx, bson.M{"groupId": groupID, "userId": userID}).Decode(&m); err != nil {
		return nil, mapReadError(err)
	}
	return &m, nil
}

func (r *mongoMembershipRepository) ListByGroup(ctx context.Context, groupID string) ([]domain.GroupMembership, error) {
	return r.list(ctx, bson.M{"groupId": groupID})
}

func (r *mongoMembershipRepository) ListByUser(ctx context.Context, userID string) ([]domain.GroupMembership, error) {
	return r.list(ctx, bson.M{"userId": userID})
}

func (r *mongoMembershipRepository) list(ctx context.Context, filter bson.M) ([]domain.GroupMembership, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	memberships := []domain.GroupMembership{}
	if err = cursor.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// EnsureMembershipIndexes makes (groupId, userId) unique.
func EnsureMembershipIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "groupId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// mongoInviteRepository implements repository.GroupInviteRepository.
type mongoInviteRepository struct {
	collection *mongo.Collection
}

// NewMongoInviteRepository creates a new invite repository.
func NewMongoInviteRepository(db *mongo.Database) repository.GroupInviteRepository {
	return &mongoInviteRepository{collection: db.Collection(inviteCollectionName)}
}

func (r *mongoInviteRepository) Create(ctx context.Context, invite *domain.GroupInvite) error {
	_, err := r.collection.InsertOne(ctx, invite)
	return mapWriteError(err)
}

func (r *mongoInviteRepository) GetByID(ctx context.Context, id string) (*domain.GroupInvite, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoInviteRepository) GetByToken(ctx context.Context, token string) (*domain.GroupInvite, error) {
	return r.findOne(ctx, bson.M{"token": token})
}

func (r *mongoInviteRepository) findOne(ctx context.Context, filter bson.M) (*domain.GroupInvite, error) {
	var invite domain.GroupInvite
	if err := r.collection.FindOne(ctx, filter).Decode(&invite); err != nil {
		return nil, mapReadError(err)
	}
	return &invite, nil
}

func (r *mongoInviteRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"isActive": active}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureInviteIndexes makes invite tokens unique.
func EnsureInviteIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
