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
	ErrSessionNotFound     = errors.New("workout session not found")
	ErrGroupNotFound       = errors.New("group not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidTransition   = errors.New("invalid session transition")
	ErrNoActiveSession     = errors.New("group has no active session")
	ErrSessionNotEditable  = errors.New("only pending sessions can be rescheduled")
	ErrSessionNotDeletable = errors.New("only pending or cancelled sessions can be deleted")
	ErrSessionDateRequired = errors.New("session date is required")
)

// InvalidTransitionError reports a lifecycle command that is illegal for the
// session's current status. It matches ErrInvalidTransition with errors.Is.
type InvalidTransitionError struct {
	Event   domain.SessionEvent
	Current domain.SessionStatus
}

var eventPastTense = map[domain.SessionEvent]string{
	domain.EventStart:    "started",
	domain.EventCancel:   "cancelled",
	domain.EventComplete: "completed",
}

func (e *InvalidTransitionError) Error() string {
	allowed := domain.AllowedFrom(e.Event)
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = string(s)
	}
	return fmt.Sprintf("cannot %s session: status is %s; only %s sessions can be %s",
		e.Event, e.Current, strings.Join(names, " or "), eventPastTense[e.Event])
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// --- Service Interface ---
type SessionService interface {
	CreateSession(ctx context.Context, groupID, creatorID string, sessionDate time.Time) (*domain.WorkoutSession, error)
	GetSession(ctx context.Context, sessionID string) (*domain.WorkoutSession, error)
	ListSessionsByGroup(ctx context.Context, groupID string) ([]domain.WorkoutSession, error)
	RescheduleSession(ctx context.Context, sessionID string, sessionDate time.Time) (*domain.WorkoutSession, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Lifecycle. These are the only operations that write status or timestamps.
	StartSession(ctx context.Context, sessionID string) (*domain.WorkoutSession, error)
	CancelSession(ctx context.Context, sessionID string) (*domain.WorkoutSession, error)
	CompleteSession(ctx context.Context, sessionID string) (*domain.WorkoutSession, error)
	GetActiveSessionForGroup(ctx context.Context, groupID string) (*domain.WorkoutSession, error)

	// Read-only projection for the live session screen.
	GetSessionAssignments(ctx context.Context, sessionID string) (*SessionAssignments, error)
}

// --- Service Implementation ---

// sessionService implements the SessionService interface.
type sessionService struct {
	sessionRepo     repository.WorkoutSessionRepository
	groupRepo       repository.GroupRepository
	userRepo        repository.UserRepository
	participantRepo repository.ParticipantRepository
	stationRepo     repository.StationRepository
	scoreRepo       repository.ScoreRepository
	workoutTypeRepo repository.WorkoutTypeRepository
	filler          scoreFiller
	log             *zap.Logger
	now             func() time.Time
}

// NewSessionService creates a new instance of sessionService.
func NewSessionService(repos repository.Repositories, log *zap.Logger) SessionService {
	return newSessionService(repos, log)
}

func newSessionService(repos repository.Repositories, log *zap.Logger) *sessionService {
	return &sessionService{
		sessionRepo:     repos.Sessions,
		groupRepo:       repos.Groups,
		userRepo:        repos.Users,
		participantRepo: repos.Participants,
		stationRepo:     repos.Stations,
		scoreRepo:       repos.Scores,
		workoutTypeRepo: repos.WorkoutTypes,
		filler:          newScoreFiller(repos),
		log:             logger.OrNop(log).Named("sessions"),
		now:             time.Now,
	}
}

// CreateSession schedules a new Pending session for a group.
func (s *sessionService) CreateSession(ctx context.Context, groupID, creatorID string, sessionDate time.Time) (*domain.WorkoutSession, error) {
	if sessionDate.IsZero() {
		return nil, ErrSessionDateRequired
	}

	// 1. Validate group and creator exist
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, creatorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// 2. Build and persist
	session := &domain.WorkoutSession{
		ID:          uuid.NewString(),
		GroupID:     groupID,
		CreatorID:   creatorID,
		SessionDate: domain.NormalizeUTC(sessionDate),
		Status:      domain.SessionPending,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("session scheduled",
		zap.String(logger.FieldSessionID, session.ID),
		zap.String(logger.FieldGroupID, groupID),
		zap.Time("session_date", session.SessionDate))
	return session, nil
}

// GetSession retrieves a single session.
func (s *sessionService) GetSession(ctx context.Context, sessionID string) (*domain.WorkoutSession, error) {
	return s.loadSession(ctx, sessionID)
}

// ListSessionsByGroup returns a group's sessions, newest session date first.
func (s *sessionService) ListSessionsByGroup(ctx context.Context, groupID string) ([]domain.WorkoutSession, error) {
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return s.sessionRepo.ListByGroup(ctx, groupID)
}

// RescheduleSession changes the session date of a Pending session.
// Status and timestamps can't be edited here; use the lifecycle operations.
func (s *sessionService) RescheduleSession(ctx context.Context, sessionID string, sessionDate time.Time) (*domain.WorkoutSession, error) {
	if sessionDate.IsZero() {
		return nil, ErrSessionDateRequired
	}
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionPending {
		return nil, ErrSessionNotEditable
	}

	date := domain.NormalizeUTC(sessionDate)
	err = s.sessionRepo.UpdateSessionDate(ctx, sessionID, date, domain.SessionPending)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrSessionNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrSessionNotEditable
		}
		return nil, fmt.Errorf("reschedule session %s: %w", sessionID, err)
	}
	session.SessionDate = date
	return session, nil
}

// DeleteSession removes a session together with its roster, station plan and scores.
func (s *sessionService) DeleteSession(ctx context.Context, sessionID string) error {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status != domain.SessionPending && session.Status != domain.SessionCancelled {
		return ErrSessionNotDeletable
	}

	participants, err := s.participantRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, p := range participants {
		if err := s.scoreRepo.DeleteByParticipant(ctx, p.ID); err != nil {
			return fmt.Errorf("delete scores of participant %s: %w", p.ID, err)
		}
	}
	if err := s.participantRepo.DeleteBySession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete participants: %w", err)
	}
	if err := s.stationRepo.DeleteBySession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete stations: %w", err)
	}
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	s.log.Info("session deleted", zap.String(logger.FieldSessionID, sessionID))
	return nil
}

// === Lifecycle ===

// StartSession moves a Pending session to Active and stamps StartedAt.
func (s *sessionService) StartSession(ctx context.Context, sessionID string) (*domain.WorkoutSession, error) {
	return s.transition(ctx, sessionID, domain.EventStart)
}

// CancelSession moves a Pending or Active session to Cancelled and zero-fills missing scores.
func (s *sessionService) CancelSession(ctx context.Context, sessionID string) (*domain.WorkoutSession, error) {
	return s.transition(ctx, sessionID, domain.EventCancel)
}

// CompleteSession moves an Active session to Completed and zero-fills missing scores.
func (s *sessionService) CompleteSession(ctx context.Context, sessionID string) (*domain.WorkoutSession, error) {
	return s.transition(ctx, sessionID, domain.EventComplete)
}

// GetActiveSessionForGroup returns the group's most recently started Active session.
func (s *sessionService) GetActiveSessionForGroup(ctx context.Context, groupID string) (*domain.WorkoutSession, error) {
	if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	session, err := s.sessionRepo.FindActiveByGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, err
	}
	return session, nil
}

func (s *sessionService) transition(ctx context.Context, sessionID string, ev domain.SessionEvent) (*domain.WorkoutSession, error) {
	// 1. Load
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	original := session.Clone()

	// 2. Check the precondition
	tr, ok := domain.TransitionFor(session.Status, ev)
	if !ok {
		return nil, &InvalidTransitionError{Event: ev, Current: session.Status}
	}

	// 3. Mutate
	now := s.now().UTC()
	session.Status = tr.To
	if ev == domain.EventStart {
		session.StartedAt = &now
	}
	if tr.Ends {
		session.EndedAt = &now
	}

	// 4. Persist, only if nobody moved the session in the meantime
	if err := s.sessionRepo.UpdateStatus(ctx, session, tr.From); err != nil {
		return nil, s.mapStatusWriteError(ctx, sessionID, ev, err)
	}

	log := s.log.With(
		zap.String(logger.FieldSessionID, sessionID),
		zap.String(logger.FieldGroupID, session.GroupID),
		zap.String(logger.FieldOperation, string(ev)))
	log.Info("session transitioned",
		zap.String("from", string(tr.From)),
		zap.String("to", string(tr.To)))

	// 5. Terminal transitions guarantee full score coverage before returning
	if tr.Ends {
		created, err := s.completeScores(ctx, sessionID)
		if err != nil {
			log.Error("score completion failed, reverting status",
				zap.Int("created", len(created)), zap.Error(err))
			s.filler.discard(ctx, log, created)
			if rerr := s.sessionRepo.UpdateStatus(ctx, original, tr.To); rerr != nil {
				log.Error("failed to revert session status", zap.Error(rerr))
			}
			return nil, fmt.Errorf("complete scores for session %s: %w", sessionID, err)
		}
		log.Info("scores completed", zap.Int("created", len(created)))
	}

	return session, nil
}

// mapStatusWriteError turns a failed conditional write into a service error.
// A lost race is reported against the status that won.
func (s *sessionService) mapStatusWriteError(ctx context.Context, sessionID string, ev domain.SessionEvent, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrSessionNotFound
	case errors.Is(err, repository.ErrConflict):
		current, lerr := s.loadSession(ctx, sessionID)
		if lerr != nil {
			return lerr
		}
		return &InvalidTransitionError{Event: ev, Current: current.Status}
	}
	return fmt.Errorf("persist session %s: %w", sessionID, err)
}

func (s *sessionService) loadSession(ctx context.Context, sessionID string) (*domain.WorkoutSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}
