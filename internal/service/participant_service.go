package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"
	"familyfitness/wod-server/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrSessionClosed       = errors.New("session is already completed or cancelled")
	ErrAlreadyJoined       = errors.New("user already joined this session")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrRosterChanged       = errors.New("participant index was taken concurrently, retry")
)

// --- Service Interface ---
type ParticipantService interface {
	JoinSession(ctx context.Context, sessionID, userID string) (*domain.WorkoutSessionParticipant, error)
	ListParticipants(ctx context.Context, sessionID string) ([]domain.WorkoutSessionParticipant, error)
	GetParticipant(ctx context.Context, participantID string) (*domain.WorkoutSessionParticipant, error)
}

// --- Service Implementation ---
type participantService struct {
	sessionRepo     repository.WorkoutSessionRepository
	userRepo        repository.UserRepository
	participantRepo repository.ParticipantRepository
	scoreRepo       repository.ScoreRepository
	log             *zap.Logger
	now             func() time.Time
}

// NewParticipantService creates a new instance of participantService.
func NewParticipantService(repos repository.Repositories, log *zap.Logger) ParticipantService {
	return &participantService{
		sessionRepo:     repos.Sessions,
		userRepo:        repos.Users,
		participantRepo: repos.Participants,
		scoreRepo:       repos.Scores,
		log:             logger.OrNop(log).Named("participants"),
		now:             time.Now,
	}
}

// JoinSession adds the user to the session roster at the next free index.
func (s *participantService) JoinSession(ctx context.Context, sessionID, userID string) (*domain.WorkoutSessionParticipant, error) {
	// 1. Session must exist and still accept people
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, ErrSessionClosed
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// 2. Check the roster
	roster, err := s.participantRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	next := 1
	for _, p := range roster {
		if p.UserID == userID {
			return nil, ErrAlreadyJoined
		}
		if p.ParticipantIndex >= next {
			next = p.ParticipantIndex + 1
		}
	}

	// 3. Persist; the store rejects a duplicate user or index
	participant := &domain.WorkoutSessionParticipant{
		ID:               uuid.NewString(),
		SessionID:        sessionID,
		UserID:           userID,
		ParticipantIndex: next,
		JoinedAt:         s.now().UTC(),
	}
	if err := s.participantRepo.Create(ctx, participant); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrRosterChanged
		}
		return nil, fmt.Errorf("add participant: %w", err)
	}

	// 4. A cancel or complete may have zero-filled the roster between step 1 and the insert
	session, err = s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil || session.Status.IsTerminal() {
		s.withdraw(ctx, participant)
		if err != nil {
			return nil, fmt.Errorf("recheck session %s: %w", sessionID, err)
		}
		return nil, ErrSessionClosed
	}

	s.log.Info("participant joined",
		zap.String(logger.FieldSessionID, sessionID),
		zap.String(logger.FieldUserID, userID),
		zap.Int("participant_index", next))
	return participant, nil
}

// withdraw undoes a join that lost the race against the end of the session.
func (s *participantService) withdraw(ctx context.Context, participant *domain.WorkoutSessionParticipant) {
	log := s.log.With(
		zap.String(logger.FieldSessionID, participant.SessionID),
		zap.String(logger.FieldUserID, participant.UserID))
	log.Warn("session ended during join, withdrawing participant")

	if err := s.participantRepo.Delete(ctx, participant.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Error("failed to withdraw participant", zap.Error(err))
		return
	}
	if err := s.scoreRepo.DeleteByParticipant(ctx, participant.ID); err != nil {
		log.Error("failed to delete scores of withdrawn participant", zap.Error(err))
	}
}

// ListParticipants returns the roster ordered by participant index.
func (s *participantService) ListParticipants(ctx context.Context, sessionID string) ([]domain.WorkoutSessionParticipant, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s.participantRepo.ListBySession(ctx, sessionID)
}

// GetParticipant retrieves a single participant.
func (s *participantService) GetParticipant(ctx context.Context, participantID string) (*domain.WorkoutSessionParticipant, error) {
	p, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return p, nil
}
