package service

import (
	"context"
	"errors"
	"sort"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"
	"familyfitness/wod-server/pkg/logger"

	"go.uber.org/zap"
)

// UnknownUserName is shown for participants whose user record can't be resolved.
const UnknownUserName = "Unknown user"

// SessionAssignments is the live-session view: who is in the session and which
// workout runs at each station.
type SessionAssignments struct {
	SessionID    string                  `json:"sessionId"`
	Status       domain.SessionStatus    `json:"status"`
	Participants []ParticipantAssignment `json:"participants"`
	Stations     []StationAssignment     `json:"stations"`
}

type ParticipantAssignment struct {
	ParticipantID    string `json:"participantId"`
	UserID           string `json:"userId"`
	UserName         string `json:"userName"`
	ParticipantIndex int    `json:"participantIndex"`
}

type StationAssignment struct {
	StationIndex           int    `json:"stationIndex"`
	WorkoutTypeID          string `json:"workoutTypeId"`
	WorkoutTypeName        string `json:"workoutTypeName"`
	WorkoutTypeDescription string `json:"workoutTypeDescription,omitempty"`
}

// GetSessionAssignments builds the assignment view for a session in any status.
// IDs, indices and status come straight from the store; names and descriptions
// are best effort and fall back rather than fail the call.
func (s *sessionService) GetSessionAssignments(ctx context.Context, sessionID string) (*SessionAssignments, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	participants, err := s.participantRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	stations, err := s.stationRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := &SessionAssignments{
		SessionID:    session.ID,
		Status:       session.Status,
		Participants: make([]ParticipantAssignment, 0, len(participants)),
		Stations:     make([]StationAssignment, 0, len(stations)),
	}

	for _, p := range participants {
		out.Participants = append(out.Participants, ParticipantAssignment{
			ParticipantID:    p.ID,
			UserID:           p.UserID,
			UserName:         s.displayName(ctx, p.UserID),
			ParticipantIndex: p.ParticipantIndex,
		})
	}
	sort.Slice(out.Participants, func(i, j int) bool {
		return out.Participants[i].ParticipantIndex < out.Participants[j].ParticipantIndex
	})

	for _, st := range stations {
		a := StationAssignment{
			StationIndex:    st.StationIndex,
			WorkoutTypeID:   st.WorkoutTypeID,
			WorkoutTypeName: st.WorkoutTypeID,
		}
		if wt, ok := s.workoutType(ctx, st.WorkoutTypeID); ok {
			a.WorkoutTypeName = wt.Name
			a.WorkoutTypeDescription = wt.Description
		}
		out.Stations = append(out.Stations, a)
	}
	sort.Slice(out.Stations, func(i, j int) bool {
		return out.Stations[i].StationIndex < out.Stations[j].StationIndex
	})

	return out, nil
}

func (s *sessionService) displayName(ctx context.Context, userID string) string {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logEnrichmentMiss("user", userID, err)
		return UnknownUserName
	}
	if name := user.DisplayName(); name != "" {
		return name
	}
	return UnknownUserName
}

func (s *sessionService) workoutType(ctx context.Context, id string) (*domain.WorkoutType, bool) {
	wt, err := s.workoutTypeRepo.GetByID(ctx, id)
	if err != nil {
		s.logEnrichmentMiss("workout type", id, err)
		return nil, false
	}
	return wt, true
}

func (s *sessionService) logEnrichmentMiss(kind, id string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Debug("assignment enrichment miss", zap.String("kind", kind), zap.String("id", id))
		return
	}
	s.log.Warn("assignment enrichment lookup failed",
		zap.String("kind", kind), zap.String("id", id), zap.String(logger.FieldError, err.Error()))
}
