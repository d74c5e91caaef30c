package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"
	"familyfitness/wod-server/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrGroupNameRequired = errors.New("group name is required")
	ErrNotGroupOwner     = errors.New("only the group owner can do this")
	ErrNotGroupMember    = errors.New("user is not a member of this group")
	ErrInviteInvalid     = errors.New("invite link is invalid")
	ErrInviteInactive    = errors.New("invite link is no longer active")
)

// --- Service Interface ---
type GroupService interface {
	CreateGroup(ctx context.Context, ownerID, name, description string) (*domain.Group, error)
	GetGroup(ctx context.Context, groupID string) (*domain.Group, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]domain.Group, error)
	ListMembers(ctx context.Context, groupID string) ([]domain.GroupMembership, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)

	CreateInvite(ctx context.Context, groupID, requesterID string) (*domain.GroupInvite, error)
	AcceptInvite(ctx context.Context, token, userID string) (*domain.Group, error)
	DeactivateInvite(ctx context.Context, inviteID, requesterID string) error
}

// --- Service Implementation ---
type groupService struct {
	groupRepo      repository.GroupRepository
	membershipRepo repository.GroupMembershipRepository
	inviteRepo     repository.GroupInviteRepository
	userRepo       repository.UserRepository
	log            *zap.Logger
	now            func() time.Time
}

// NewGroupService creates a new instance of groupService.
func NewGroupService(repos repository.Repositories, log *zap.Logger) GroupService {
	return &groupService{
		groupRepo:      repos.Groups,
		membershipRepo: repos.Memberships,
		inviteRepo:     repos.Invites,
		userRepo:       repos.Users,
		log:            logger.OrNop(log).Named("groups"),
		now:            time.Now,
	}
}

// CreateGroup creates a group and makes its creator the owner.
func (s *groupService) CreateGroup(ctx context.Context, ownerID, name, description string) (*domain.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrGroupNameRequired
	}
	if _, err := s.userRepo.GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := s.now().UTC()
	group := &domain.Group{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
		CreatedAt:   now,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	owner := &domain.GroupMembership{
		ID:       uuid.NewString(),
		GroupID:  group.ID,
		UserID:   ownerID,
		Role:     domain.MemberRoleOwner,
		JoinedAt: now,
	}
	if err := s.membershipRepo.Create(ctx, owner); err != nil {
		return nil, fmt.Errorf("add owner membership: %w", err)
	}

	s.log.Info("group created",
		zap.String(logger.FieldGroupID, group.ID),
		zap.String(logger.FieldUserID, ownerID))
	return group, nil
}

// GetGroup retrieves a single group.
func (s *groupService) GetGroup(ctx context.Context, groupID string) (*domain.Group, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

// ListGroupsForUser returns every group the user belongs to.
func (s *groupService) ListGroupsForUser(ctx context.Context, userID string) ([]domain.Group, error) {
	memberships, err := s.membershipRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return []domain.Group{}, nil
	}
	ids := make([]string, len(memberships))
	for i, m := range memberships {
		ids[i] = m.GroupID
	}
	return s.groupRepo.GetByIDs(ctx, ids)
}

// ListMembers returns a group's memberships in join order.
func (s *groupService) ListMembers(ctx context.Context, groupID string) ([]domain.GroupMembership, error) {
	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return s.membershipRepo.ListByGroup(ctx, groupID)
}

// IsMember reports whether the user belongs to the group.
func (s *groupService) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	_, err := s.membershipRepo.GetByGroupAndUser(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CreateInvite issues a new active invite link for the group.
func (s *groupService) CreateInvite(ctx context.Context, groupID, requesterID string) (*domain.GroupInvite, error) {
	if err := s.requireOwner(ctx, groupID, requesterID); err != nil {
		return nil, err
	}

	invite := &domain.GroupInvite{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		Token:     newInviteToken(),
		CreatedAt: s.now().UTC(),
		IsActive:  true,
	}
	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, fmt.Errorf("create invite: %w", err)
	}

	s.log.Info("invite created",
		zap.String(logger.FieldGroupID, groupID),
		zap.String("invite_id", invite.ID))
	return invite, nil
}

// AcceptInvite adds the user to the invite's group. Accepting an invite for a
// group the user already belongs to just returns the group.
func (s *groupService) AcceptInvite(ctx context.Context, token, userID string) (*domain.Group, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInviteInvalid
	}
	invite, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInviteInvalid
		}
		return nil, err
	}
	if !invite.IsActive {
		return nil, ErrInviteInactive
	}

	group, err := s.GetGroup(ctx, invite.GroupID)
	if err != nil {
		// The group vanished under the invite
		if errors.Is(err, ErrGroupNotFound) {
			return nil, ErrInviteInvalid
		}
		return nil, err
	}

	membership := &domain.GroupMembership{
		ID:       uuid.NewString(),
		GroupID:  group.ID,
		UserID:   userID,
		Role:     domain.MemberRoleMember,
		JoinedAt: s.now().UTC(),
	}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return group, nil
		}
		return nil, fmt.Errorf("add membership: %w", err)
	}

	s.log.Info("invite accepted",
		zap.String(logger.FieldGroupID, group.ID),
		zap.String(logger.FieldUserID, userID))
	return group, nil
}

// DeactivateInvite turns an invite link off.
func (s *groupService) DeactivateInvite(ctx context.Context, inviteID, requesterID string) error {
	invite, err := s.inviteRepo.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInviteInvalid
		}
		return err
	}
	if err := s.requireOwner(ctx, invite.GroupID, requesterID); err != nil {
		return err
	}
	if err := s.inviteRepo.SetActive(ctx, inviteID, false); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInviteInvalid
		}
		return err
	}
	return nil
}

func (s *groupService) requireOwner(ctx context.Context, groupID, userID string) error {
	group, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID != userID {
		return ErrNotGroupOwner
	}
	return nil
}

// newInviteToken returns 32 lowercase hex characters.
func newInviteToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
