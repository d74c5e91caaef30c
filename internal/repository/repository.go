package repository

import (
	"context"
	"time"

	"familyfitness/wod-server/internal/domain"

	"github.com/shopspring/decimal"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
	// ErrConflict is returned by conditional writes whose precondition no longer holds.
	ErrConflict = RepositoryError("conflicting update")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// GroupRepository defines the interface for interacting with group data.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetByID(ctx context.Context, id string) (*domain.Group, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Group, error)
}

// GroupMembershipRepository stores the user <-> group join.
// Create returns ErrDuplicate when the user is already a member.
type GroupMembershipRepository interface {
	Create(ctx context.Context, membership *domain.GroupMembership) error
	GetByGroupAndUser(ctx context.Context, groupID, userID string) (*domain.GroupMembership, error)
	ListByGroup(ctx context.Context, groupID string) ([]domain.GroupMembership, error)
	ListByUser(ctx context.Context, userID string) ([]domain.GroupMembership, error)
}

// GroupInviteRepository stores invite links.
type GroupInviteRepository interface {
	Create(ctx context.Context, invite *domain.GroupInvite) error
	GetByID(ctx context.Context, id string) (*domain.GroupInvite, error)
	GetByToken(ctx context.Context, token string) (*domain.GroupInvite, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// WorkoutTypeRepository defines the interface for the workout-type catalog.
type WorkoutTypeRepository interface {
	Create(ctx context.Context, workoutType *domain.WorkoutType) error
	GetByID(ctx context.Context, id string) (*domain.WorkoutType, error)
	List(ctx context.Context) ([]domain.WorkoutType, error)
	Update(ctx context.Context, workoutType *domain.WorkoutType) error
	Delete(ctx context.Context, id string) error
}

// WorkoutSessionRepository defines the interface for workout session data.
type WorkoutSessionRepository interface {
	Create(ctx context.Context, session *domain.WorkoutSession) error
	GetByID(ctx context.Context, id string) (*domain.WorkoutSession, error)
	ListByGroup(ctx context.Context, groupID string) ([]domain.WorkoutSession, error) // Newest session date first
	// FindActiveByGroup returns the Active session with the latest StartedAt, or ErrNotFound.
	FindActiveByGroup(ctx context.Context, groupID string) (*domain.WorkoutSession, error)
	// UpdateStatus writes Status, StartedAt and EndedAt only if the stored status
	// still equals expected. Returns ErrConflict otherwise, ErrNotFound if the session is gone.
	UpdateStatus(ctx context.Context, session *domain.WorkoutSession, expected domain.SessionStatus) error
	// UpdateSessionDate reschedules a session if its status still equals expected.
	UpdateSessionDate(ctx context.Context, id string, sessionDate time.Time, expected domain.SessionStatus) error
	Delete(ctx context.Context, id string) error
}

// ParticipantRepository stores session participants.
// Create returns ErrDuplicate when (session, user) or (session, index) is taken.
type ParticipantRepository interface {
	Create(ctx context.Context, participant *domain.WorkoutSessionParticipant) error
	GetByID(ctx context.Context, id string) (*domain.WorkoutSessionParticipant, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.WorkoutSessionParticipant, error) // Ascending index
	Delete(ctx context.Context, id string) error
	DeleteBySession(ctx context.Context, sessionID string) error
}

// StationRepository stores the per-session station plan.
type StationRepository interface {
	// Upsert creates or replaces the entry at (SessionID, StationIndex).
	Upsert(ctx context.Context, station *domain.WorkoutSessionWorkoutType) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.WorkoutSessionWorkoutType, error) // Ascending index
	Delete(ctx context.Context, sessionID string, stationIndex int) error
	DeleteBySession(ctx context.Context, sessionID string) error
}

// ScoreRepository stores interval scores.
// Create returns ErrDuplicate when (participant, round, station) already has a score.
type ScoreRepository interface {
	Create(ctx context.Context, score *domain.WorkoutIntervalScore) error
	GetByID(ctx context.Context, id string) (*domain.WorkoutIntervalScore, error)
	ListByParticipant(ctx context.Context, participantID string) ([]domain.WorkoutIntervalScore, error)
	ListByParticipants(ctx context.Context, participantIDs []string) ([]domain.WorkoutIntervalScore, error)
	ListByWorkoutType(ctx context.Context, workoutTypeID string) ([]domain.WorkoutIntervalScore, error)
	UpdateValue(ctx context.Context, id string, score int, weight *decimal.Decimal) error
	Delete(ctx context.Context, id string) error
	DeleteByParticipant(ctx context.Context, participantID string) error
}

// Repositories bundles one backend's implementations.
type Repositories struct {
	Users        UserRepository
	Groups       GroupRepository
	Memberships  GroupMembershipRepository
	Invites      GroupInviteRepository
	WorkoutTypes WorkoutTypeRepository
	Sessions     WorkoutSessionRepository
	Participants ParticipantRepository
	Stations     StationRepository
	Scores       ScoreRepository
}
