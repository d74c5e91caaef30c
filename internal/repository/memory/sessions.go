package memory

import (
	"context"
	"sort"
	"time"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"

	"github.com/shopspring/decimal"
)

type sessionRepo struct{ s *Store }

func (r *sessionRepo) Create(_ context.Context, session *domain.WorkoutSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.sessions[session.ID]; exists {
		return repository.ErrDuplicate
	}
	r.s.sessions[session.ID] = *session.Clone()
	return nil
}

func (r *sessionRepo) GetByID(_ context.Context, id string) (*domain.WorkoutSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	session, ok := r.s.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return session.Clone(), nil
}

func (r *sessionRepo) ListByGroup(_ context.Context, groupID string) ([]domain.WorkoutSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.WorkoutSession{}
	for _, session := range r.s.sessions {
		if session.GroupID == groupID {
			out = append(out, *session.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionDate.After(out[j].SessionDate) })
	return out, nil
}

func (r *sessionRepo) FindActiveByGroup(_ context.Context, groupID string) (*domain.WorkoutSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var best *domain.WorkoutSession
	for _, session := range r.s.sessions {
		if session.GroupID != groupID || session.Status != domain.SessionActive {
			continue
		}
		if best == nil || startedAfter(&session, best) {
			best = session.Clone()
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

// startedAfter orders sessions by StartedAt, treating a missing value as oldest.
func startedAfter(a, b *domain.WorkoutSession) bool {
	if a.StartedAt == nil {
		return false
	}
	if b.StartedAt == nil {
		return true
	}
	return a.StartedAt.After(*b.StartedAt)
}

func (r *sessionRepo) UpdateStatus(_ context.Context, session *domain.WorkoutSession, expected domain.SessionStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.sessions[session.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.Status != expected {
		return repository.ErrConflict
	}
	next := session.Clone()
	existing.Status = next.Status
	existing.StartedAt = next.StartedAt
	existing.EndedAt = next.EndedAt
	r.s.sessions[session.ID] = existing
	return nil
}

func (r *sessionRepo) UpdateSessionDate(_ context.Context, id string, sessionDate time.Time, expected domain.SessionStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	if existing.Status != expected {
		return repository.ErrConflict
	}
	existing.SessionDate = sessionDate
	r.s.sessions[id] = existing
	return nil
}

func (r *sessionRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.sessions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.sessions, id)
	return nil
}

type participantRepo struct{ s *Store }

func (r *participantRepo) Create(_ context.Context, p *domain.WorkoutSessionParticipant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.participants {
		if existing.SessionID != p.SessionID {
			continue
		}
		if existing.UserID == p.UserID || existing.ParticipantIndex == p.ParticipantIndex {
			return repository.ErrDuplicate
		}
	}
	r.s.participants[p.ID] = *p
	return nil
}

func (r *participantRepo) GetByID(_ context.Context, id string) (*domain.WorkoutSessionParticipant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.participants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *participantRepo) ListBySession(_ context.Context, sessionID string) ([]domain.WorkoutSessionParticipant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.WorkoutSessionParticipant{}
	for _, p := range r.s.participants {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantIndex < out[j].ParticipantIndex })
	return out, nil
}

func (r *participantRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.participants[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.participants, id)
	return nil
}

func (r *participantRepo) DeleteBySession(_ context.Context, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, p := range r.s.participants {
		if p.SessionID == sessionID {
			delete(r.s.participants, id)
		}
	}
	return nil
}

type stationRepo struct{ s *Store }

func (r *stationRepo) Upsert(_ context.Context, st *domain.WorkoutSessionWorkoutType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, existing := range r.s.stations {
		if existing.SessionID == st.SessionID && existing.StationIndex == st.StationIndex {
			st.ID = id
			break
		}
	}
	r.s.stations[st.ID] = *st
	return nil
}

func (r *stationRepo) ListBySession(_ context.Context, sessionID string) ([]domain.WorkoutSessionWorkoutType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.WorkoutSessionWorkoutType{}
	for _, st := range r.s.stations {
		if st.SessionID == sessionID {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StationIndex < out[j].StationIndex })
	return out, nil
}

func (r *stationRepo) Delete(_ context.Context, sessionID string, stationIndex int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, st := range r.s.stations {
		if st.SessionID == sessionID && st.StationIndex == stationIndex {
			delete(r.s.stations, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *stationRepo) DeleteBySession(_ context.Context, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, st := range r.s.stations {
		if st.SessionID == sessionID {
			delete(r.s.stations, id)
		}
	}
	return nil
}

type scoreRepo struct{ s *Store }

func (r *scoreRepo) Create(_ context.Context, score *domain.WorkoutIntervalScore) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.scores {
		if existing.ParticipantID == score.ParticipantID && existing.Key() == score.Key() {
			return repository.ErrDuplicate
		}
	}
	r.s.scores[score.ID] = *score
	return nil
}

func (r *scoreRepo) GetByID(_ context.Context, id string) (*domain.WorkoutIntervalScore, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	score, ok := r.s.scores[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &score, nil
}

func (r *scoreRepo) ListByParticipant(_ context.Context, participantID string) ([]domain.WorkoutIntervalScore, error) {
	return r.list(func(s domain.WorkoutIntervalScore) bool { return s.ParticipantID == participantID }), nil
}

func (r *scoreRepo) ListByParticipants(_ context.Context, participantIDs []string) ([]domain.WorkoutIntervalScore, error) {
	wanted := make(map[string]struct{}, len(participantIDs))
	for _, id := range participantIDs {
		wanted[id] = struct{}{}
	}
	return r.list(func(s domain.WorkoutIntervalScore) bool {
		_, ok := wanted[s.ParticipantID]
		return ok
	}), nil
}

func (r *scoreRepo) ListByWorkoutType(_ context.Context, workoutTypeID string) ([]domain.WorkoutIntervalScore, error) {
	return r.list(func(s domain.WorkoutIntervalScore) bool { return s.WorkoutTypeID == workoutTypeID }), nil
}

func (r *scoreRepo) list(match func(domain.WorkoutIntervalScore) bool) []domain.WorkoutIntervalScore {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.WorkoutIntervalScore{}
	for _, s := range r.s.scores {
		if match(s) {
			out = append(out, s)
		}
	}
	sortScores(out)
	return out
}

func (r *scoreRepo) UpdateValue(_ context.Context, id string, score int, weight *decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.scores[id]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Score = score
	existing.Weight = weight
	r.s.scores[id] = existing
	return nil
}

func (r *scoreRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.scores[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.scores, id)
	return nil
}

func (r *scoreRepo) DeleteByParticipant(_ context.Context, participantID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, s := range r.s.scores {
		if s.ParticipantID == participantID {
			delete(r.s.scores, id)
		}
	}
	return nil
}
