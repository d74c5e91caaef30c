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
	ErrIdentityIncomplete = errors.New("token carries no usable identity claim")
	ErrUsernameRequired   = errors.New("username is required")
)

// IdentityClaims are the identity-provider claims used to find or provision a user.
type IdentityClaims struct {
	Subject           string // sub
	ObjectID          string // oid
	Email             string // email
	PreferredUsername string // preferred_username
	Name              string // name
}

// externalID is the stable provider-side ID, preferring oid over sub.
func (c IdentityClaims) externalID() string {
	if c.ObjectID != "" {
		return c.ObjectID
	}
	return c.Subject
}

// email returns the email claim, or preferred_username when it looks like one.
func (c IdentityClaims) email() string {
	if e := strings.TrimSpace(c.Email); e != "" {
		return e
	}
	if p := strings.TrimSpace(c.PreferredUsername); strings.Contains(p, "@") {
		return p
	}
	return ""
}

// --- Service Interface ---
type UserService interface {
	ResolveFromClaims(ctx context.Context, claims IdentityClaims) (*domain.User, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID, username string) (*domain.User, error)
}

// --- Service Implementation ---
type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
	now      func() time.Time
}

// NewUserService creates a new instance of userService.
func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      logger.OrNop(log).Named("users"),
		now:      time.Now,
	}
}

// claimRule tries to find an existing user for the claims.
// It returns (nil, nil) when the rule does not apply or finds nobody.
type claimRule func(ctx context.Context, claims IdentityClaims) (*domain.User, error)

// ResolveFromClaims maps token claims to a user, applying the rules in order:
// external object ID, then email (linking the external ID on first match),
// then provisioning a new user.
func (s *userService) ResolveFromClaims(ctx context.Context, claims IdentityClaims) (*domain.User, error) {
	if claims.externalID() == "" && claims.email() == "" {
		return nil, ErrIdentityIncomplete
	}

	rules := []claimRule{s.byExternalID, s.byEmail}
	for _, rule := range rules {
		user, err := rule(ctx, claims)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}

	user, err := s.provision(ctx, claims)
	if errors.Is(err, repository.ErrDuplicate) {
		// A concurrent request provisioned the same person
		for _, rule := range rules {
			if u, rerr := rule(ctx, claims); rerr == nil && u != nil {
				return u, nil
			}
		}
	}
	return user, err
}

func (s *userService) byExternalID(ctx context.Context, claims IdentityClaims) (*domain.User, error) {
	id := claims.externalID()
	if id == "" {
		return nil, nil
	}
	user, err := s.userRepo.GetByExternalID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

func (s *userService) byEmail(ctx context.Context, claims IdentityClaims) (*domain.User, error) {
	email := claims.email()
	if email == "" {
		return nil, nil
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if user.ExternalID == "" && claims.externalID() != "" {
		user.ExternalID = claims.externalID()
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("link external id: %w", err)
		}
		s.log.Info("linked identity to existing user", zap.String(logger.FieldUserID, user.ID))
	}
	return user, nil
}

func (s *userService) provision(ctx context.Context, claims IdentityClaims) (*domain.User, error) {
	id := uuid.NewString()
	email := claims.email()

	user := &domain.User{
		ID:         id,
		ExternalID: claims.externalID(),
		Username:   usernameFromClaims(claims, email, id),
		Email:      email,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("provisioned user from identity claims",
		zap.String(logger.FieldUserID, user.ID),
		zap.String("username", user.Username))
	return user, nil
}

// usernameFromClaims picks the name claim, then the email local part, then "user-<short id>".
func usernameFromClaims(claims IdentityClaims, email, id string) string {
	if name := strings.TrimSpace(claims.Name); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		return local
	}
	return "user-" + strings.ReplaceAll(id, "-", "")[:8]
}

// GetUser retrieves a single user.
func (s *userService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile changes the user's display name.
func (s *userService) UpdateProfile(ctx context.Context, userID, username string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Username = username
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
