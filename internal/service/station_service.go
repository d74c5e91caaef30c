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
	ErrInvalidStationIndex = fmt.Errorf("station index must be between %d and %d", domain.MinStationIndex, domain.MaxStationIndex)
	ErrStationPlanLocked   = errors.New("station plan can only be changed while the session is pending")
	ErrStationNotFound     = errors.New("no workout is planned at this station")
)

// --- Service Interface ---
type StationService interface {
	SetStation(ctx context.Context, sessionID string, stationIndex int, workoutTypeID string) (*domain.WorkoutSessionWorkoutType, error)
	ListStations(ctx context.Context, sessionID string) ([]domain.WorkoutSessionWorkoutType, error)
	ClearStation(ctx context.Context, sessionID string, stationIndex int) error
}

// --- Service Implementation ---
type stationService struct {
	sessionRepo     repository.WorkoutSessionRepository
	stationRepo     repository.StationRepository
	workoutTypeRepo repository.WorkoutTypeRepository
	filler          scoreFiller
	log             *zap.Logger
	now             func() time.Time
}

// NewStationService creates a new instance of stationService.
func NewStationService(repos repository.Repositories, log *zap.Logger) StationService {
	return &stationService{
		sessionRepo:     repos.Sessions,
		stationRepo:     repos.Stations,
		workoutTypeRepo: repos.WorkoutTypes,
		filler:          newScoreFiller(repos),
		log:             logger.OrNop(log).Named("stations"),
		now:             time.Now,
	}
}

// SetStation assigns a workout type to a station of a Pending session,
// replacing whatever was planned there.
func (s *stationService) SetStation(ctx context.Context, sessionID string, stationIndex int, workoutTypeID string) (*domain.WorkoutSessionWorkoutType, error) {
	if !domain.ValidStationIndex(stationIndex) {
		return nil, ErrInvalidStationIndex
	}
	if err := s.requirePending(ctx, sessionID); err != nil {
		return nil, err
	}
	if _, err := s.workoutTypeRepo.GetByID(ctx, workoutTypeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutTypeNotFound
		}
		return nil, err
	}
	previous, err := s.plannedAt(ctx, sessionID, stationIndex)
	if err != nil {
		return nil, err
	}

	station := &domain.WorkoutSessionWorkoutType{
		ID:            uuid.NewString(),
		SessionID:     sessionID,
		WorkoutTypeID: workoutTypeID,
		StationIndex:  stationIndex,
	}
	if err := s.stationRepo.Upsert(ctx, station); err != nil {
		return nil, fmt.Errorf("save station %d: %w", stationIndex, err)
	}
	if err := s.recheckPending(ctx, sessionID, stationIndex, previous, workoutTypeID); err != nil {
		return nil, err
	}

	s.log.Debug("station planned",
		zap.String(logger.FieldSessionID, sessionID),
		zap.Int("station_index", stationIndex),
		zap.String("workout_type_id", workoutTypeID))
	return station, nil
}

// ListStations returns the station plan ordered by station index.
func (s *stationService) ListStations(ctx context.Context, sessionID string) ([]domain.WorkoutSessionWorkoutType, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s.stationRepo.ListBySession(ctx, sessionID)
}

// ClearStation removes the workout planned at a station.
func (s *stationService) ClearStation(ctx context.Context, sessionID string, stationIndex int) error {
	if !domain.ValidStationIndex(stationIndex) {
		return ErrInvalidStationIndex
	}
	if err := s.requirePending(ctx, sessionID); err != nil {
		return err
	}
	previous, err := s.plannedAt(ctx, sessionID, stationIndex)
	if err != nil {
		return err
	}
	if previous == nil {
		return ErrStationNotFound
	}
	if err := s.stationRepo.Delete(ctx, sessionID, stationIndex); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrStationNotFound
		}
		return err
	}
	return s.recheckPending(ctx, sessionID, stationIndex, previous, "")
}

func (s *stationService) requirePending(ctx context.Context, sessionID string) error {
	status, err := s.sessionStatus(ctx, sessionID)
	if err != nil {
		return err
	}
	if status != domain.SessionPending {
		return ErrStationPlanLocked
	}
	return nil
}

func (s *stationService) sessionStatus(ctx context.Context, sessionID string) (domain.SessionStatus, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrSessionNotFound
		}
		return "", err
	}
	return session.Status, nil
}

// plannedAt returns the station at stationIndex, or nil when none is planned.
func (s *stationService) plannedAt(ctx context.Context, sessionID string, stationIndex int) (*domain.WorkoutSessionWorkoutType, error) {
	plan, err := s.stationRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	for i := range plan {
		if plan[i].StationIndex == stationIndex {
			return &plan[i], nil
		}
	}
	return nil, nil
}

// recheckPending runs after a plan write. If the session left Pending in the
// meantime the station is put back to previous, and a session that already
// ended gets its score grid completed against the restored plan.
func (s *stationService) recheckPending(ctx context.Context, sessionID string, stationIndex int, previous *domain.WorkoutSessionWorkoutType, writtenType string) error {
	status, err := s.sessionStatus(ctx, sessionID)
	if err == nil && status == domain.SessionPending {
		return nil
	}

	log := s.log.With(
		zap.String(logger.FieldSessionID, sessionID),
		zap.Int("station_index", stationIndex),
		zap.String("status", string(status)))
	log.Warn("session left pending during plan change, restoring station")

	if previous == nil {
		if rerr := s.stationRepo.Delete(ctx, sessionID, stationIndex); rerr != nil && !errors.Is(rerr, repository.ErrNotFound) {
			log.Error("failed to remove station", zap.Error(rerr))
		}
	} else {
		restored := *previous
		if rerr := s.stationRepo.Upsert(ctx, &restored); rerr != nil {
			log.Error("failed to restore station", zap.Error(rerr))
		}
	}
	if writtenType != "" && (previous == nil || previous.WorkoutTypeID != writtenType) {
		if rerr := s.filler.dropStationFill(ctx, sessionID, stationIndex, writtenType); rerr != nil {
			log.Error("failed to drop zero scores of rejected station", zap.Error(rerr))
		}
	}
	if err == nil && status.IsTerminal() {
		if _, rerr := s.filler.complete(ctx, sessionID, s.now().UTC()); rerr != nil {
			log.Error("failed to complete scores for restored plan", zap.Error(rerr))
		}
	}

	if err != nil {
		return err
	}
	return ErrStationPlanLocked
}
