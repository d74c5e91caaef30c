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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	ErrScoreNotFound     = errors.New("score not found")
	ErrScoreExists       = errors.New("a score was already recorded for this round and station")
	ErrScoresLocked      = errors.New("scores can only be recorded or corrected while the session is active")
	ErrInvalidRound      = fmt.Errorf("round number must be between %d and %d", domain.FirstRound, domain.FirstRound+domain.RoundCount-1)
	ErrNegativeScore     = errors.New("score must not be negative")
	ErrNegativeWeight    = errors.New("weight must not be negative")
	ErrStationNotPlanned = errors.New("no workout is planned at this station")
)

// RecordScoreInput carries one interval result.
type RecordScoreInput struct {
	ParticipantID string
	RoundNumber   int
	StationIndex  int
	Score         int
	Weight        *decimal.Decimal
}

// --- Service Interface ---
type ScoreService interface {
	RecordScore(ctx context.Context, in RecordScoreInput) (*domain.WorkoutIntervalScore, error)
	CorrectScore(ctx context.Context, scoreID string, score int, weight *decimal.Decimal) (*domain.WorkoutIntervalScore, error)
	GetScore(ctx context.Context, scoreID string) (*domain.WorkoutIntervalScore, error)
	ListScoresBySession(ctx context.Context, sessionID string) ([]domain.WorkoutIntervalScore, error)
	ListScoresByParticipant(ctx context.Context, participantID string) ([]domain.WorkoutIntervalScore, error)
	ListScoresByWorkoutType(ctx context.Context, workoutTypeID string) ([]domain.WorkoutIntervalScore, error)
}

// --- Service Implementation ---
type scoreService struct {
	sessionRepo     repository.WorkoutSessionRepository
	participantRepo repository.ParticipantRepository
	stationRepo     repository.StationRepository
	scoreRepo       repository.ScoreRepository
	workoutTypeRepo repository.WorkoutTypeRepository
	log             *zap.Logger
	now             func() time.Time
}

// NewScoreService creates a new instance of scoreService.
func NewScoreService(repos repository.Repositories, log *zap.Logger) ScoreService {
	return &scoreService{
		sessionRepo:     repos.Sessions,
		participantRepo: repos.Participants,
		stationRepo:     repos.Stations,
		scoreRepo:       repos.Scores,
		workoutTypeRepo: repos.WorkoutTypes,
		log:             logger.OrNop(log).Named("scores"),
		now:             time.Now,
	}
}

// RecordScore stores a participant's result for one station in one round.
// The workout type is taken from the session's station plan.
func (s *scoreService) RecordScore(ctx context.Context, in RecordScoreInput) (*domain.WorkoutIntervalScore, error) {
	// 1. Validate input
	if !domain.ValidRound(in.RoundNumber) {
		return nil, ErrInvalidRound
	}
	if !domain.ValidStationIndex(in.StationIndex) {
		return nil, ErrInvalidStationIndex
	}
	if in.Score < 0 {
		return nil, ErrNegativeScore
	}
	if in.Weight != nil && in.Weight.IsNegative() {
		return nil, ErrNegativeWeight
	}

	// 2. Participant and its session
	participant, err := s.participantRepo.GetByID(ctx, in.ParticipantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	if err := s.requireActive(ctx, participant.SessionID); err != nil {
		return nil, err
	}

	// 3. Resolve the station's workout type
	plan, err := s.stationRepo.ListBySession(ctx, participant.SessionID)
	if err != nil {
		return nil, err
	}
	workoutTypeID := ""
	for _, st := range plan {
		if st.StationIndex == in.StationIndex {
			workoutTypeID = st.WorkoutTypeID
			break
		}
	}
	if workoutTypeID == "" {
		return nil, ErrStationNotPlanned
	}

	// 4. Persist
	score := &domain.WorkoutIntervalScore{
		ID:            uuid.NewString(),
		ParticipantID: participant.ID,
		RoundNumber:   in.RoundNumber,
		StationIndex:  in.StationIndex,
		WorkoutTypeID: workoutTypeID,
		Score:         in.Score,
		Weight:        in.Weight,
		RecordedAt:    s.now().UTC(),
	}
	if err := s.scoreRepo.Create(ctx, score); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrScoreExists
		}
		return nil, fmt.Errorf("record score: %w", err)
	}

	s.log.Debug("score recorded",
		zap.String(logger.FieldSessionID, participant.SessionID),
		zap.String("participant_id", participant.ID),
		zap.Int("round", in.RoundNumber),
		zap.Int("station_index", in.StationIndex))
	return score, nil
}

// CorrectScore overwrites the value of an existing score while its session is Active.
func (s *scoreService) CorrectScore(ctx context.Context, scoreID string, score int, weight *decimal.Decimal) (*domain.WorkoutIntervalScore, error) {
	if score < 0 {
		return nil, ErrNegativeScore
	}
	if weight != nil && weight.IsNegative() {
		return nil, ErrNegativeWeight
	}

	existing, err := s.GetScore(ctx, scoreID)
	if err != nil {
		return nil, err
	}
	participant, err := s.participantRepo.GetByID(ctx, existing.ParticipantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	if err := s.requireActive(ctx, participant.SessionID); err != nil {
		return nil, err
	}

	if err := s.scoreRepo.UpdateValue(ctx, scoreID, score, weight); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScoreNotFound
		}
		return nil, err
	}
	existing.Score = score
	existing.Weight = weight
	return existing, nil
}

// GetScore retrieves a single score.
func (s *scoreService) GetScore(ctx context.Context, scoreID string) (*domain.WorkoutIntervalScore, error) {
	score, err := s.scoreRepo.GetByID(ctx, scoreID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScoreNotFound
		}
		return nil, err
	}
	return score, nil
}

// ListScoresBySession returns every score of every participant of the session.
func (s *scoreService) ListScoresBySession(ctx context.Context, sessionID string) ([]domain.WorkoutIntervalScore, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	participants, err := s.participantRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return []domain.WorkoutIntervalScore{}, nil
	}
	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	return s.scoreRepo.ListByParticipants(ctx, ids)
}

// ListScoresByParticipant returns one participant's scores by round then station.
func (s *scoreService) ListScoresByParticipant(ctx context.Context, participantID string) ([]domain.WorkoutIntervalScore, error) {
	if _, err := s.participantRepo.GetByID(ctx, participantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return s.scoreRepo.ListByParticipant(ctx, participantID)
}

// ListScoresByWorkoutType returns all scores ever recorded for a workout type.
func (s *scoreService) ListScoresByWorkoutType(ctx context.Context, workoutTypeID string) ([]domain.WorkoutIntervalScore, error) {
	if _, err := s.workoutTypeRepo.GetByID(ctx, workoutTypeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutTypeNotFound
		}
		return nil, err
	}
	return s.scoreRepo.ListByWorkoutType(ctx, workoutTypeID)
}

func (s *scoreService) requireActive(ctx context.Context, sessionID string) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if session.Status != domain.SessionActive {
		return ErrScoresLocked
	}
	return nil
}
