package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// scoreFiller owns the zero-fill of a session's score grid.
type scoreFiller struct {
	participantRepo repository.ParticipantRepository
	stationRepo     repository.StationRepository
	scoreRepo       repository.ScoreRepository
}

func newScoreFiller(repos repository.Repositories) scoreFiller {
	return scoreFiller{
		participantRepo: repos.Participants,
		stationRepo:     repos.Stations,
		scoreRepo:       repos.Scores,
	}
}

// complete makes sure every participant of the session has a score for
// every round and every planned station, inserting zero scores where missing.
// Existing scores are never touched, so running it again creates nothing.
// It returns the IDs of the scores it created, also when it fails part way.
func (f scoreFiller) complete(ctx context.Context, sessionID string, recordedAt time.Time) ([]string, error) {
	participants, err := f.participantRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	plan, err := f.stationRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	if len(participants) == 0 || len(plan) == 0 {
		return nil, nil
	}

	stations := make([]domain.WorkoutSessionWorkoutType, len(plan))
	copy(stations, plan)
	sort.Slice(stations, func(i, j int) bool { return stations[i].StationIndex < stations[j].StationIndex })

	var created []string
	for _, p := range participants {
		existing, err := f.scoreRepo.ListByParticipant(ctx, p.ID)
		if err != nil {
			return created, fmt.Errorf("list scores of participant %s: %w", p.ID, err)
		}
		scored := make(map[domain.ScoreKey]struct{}, len(existing))
		for _, sc := range existing {
			scored[sc.Key()] = struct{}{}
		}

		for round := domain.FirstRound; round < domain.FirstRound+domain.RoundCount; round++ {
			for _, st := range stations {
				key := domain.ScoreKey{RoundNumber: round, StationIndex: st.StationIndex}
				if _, ok := scored[key]; ok {
					continue
				}

				score := &domain.WorkoutIntervalScore{
					ID:            uuid.NewString(),
					ParticipantID: p.ID,
					RoundNumber:   round,
					StationIndex:  st.StationIndex,
					WorkoutTypeID: st.WorkoutTypeID,
					Score:         0,
					RecordedAt:    recordedAt,
				}
				if err := f.scoreRepo.Create(ctx, score); err != nil {
					// Someone else filled the slot first.
					if errors.Is(err, repository.ErrDuplicate) {
						continue
					}
					return created, fmt.Errorf("insert score for participant %s round %d station %d: %w",
						p.ID, round, st.StationIndex, err)
				}
				created = append(created, score.ID)
			}
		}
	}
	return created, nil
}

// discard removes zero scores inserted by a completion pass that did not finish.
func (f scoreFiller) discard(ctx context.Context, log *zap.Logger, ids []string) {
	for _, id := range ids {
		if err := f.scoreRepo.Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
			log.Error("failed to discard zero score", zap.String("score_id", id), zap.Error(err))
		}
	}
}

// dropStationFill deletes the zero scores a completion pass wrote for one
// station while it was planned with workoutTypeID.
func (f scoreFiller) dropStationFill(ctx context.Context, sessionID string, stationIndex int, workoutTypeID string) error {
	participants, err := f.participantRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	scores, err := f.scoreRepo.ListByParticipants(ctx, ids)
	if err != nil {
		return fmt.Errorf("list scores: %w", err)
	}
	for _, sc := range scores {
		if sc.StationIndex != stationIndex || sc.WorkoutTypeID != workoutTypeID || sc.Score != 0 {
			continue
		}
		if err := f.scoreRepo.Delete(ctx, sc.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("delete score %s: %w", sc.ID, err)
		}
	}
	return nil
}

func (s *sessionService) completeScores(ctx context.Context, sessionID string) ([]string, error) {
	return s.filler.complete(ctx, sessionID, s.now().UTC())
}
