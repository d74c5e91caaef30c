package postgres

import (
	"context"
	"database/sql"
	"time"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type sessionRepository struct {
	db *sql.DB
}

const sessionColumns = `id, group_id, creator_id, session_date, started_at, ended_at, status, created_at`

func scanSession(row rowScanner) (*domain.WorkoutSession, error) {
	var (
		s              domain.WorkoutSession
		started, ended sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.GroupID, &s.CreatorID, &s.SessionDate, &started, &ended, &s.Status, &s.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	s.SessionDate = s.SessionDate.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	s.StartedAt = timePtr(started)
	s.EndedAt = timePtr(ended)
	return &s, nil
}

func (r *sessionRepository) Create(ctx context.Context, s *domain.WorkoutSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO workout_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.GroupID, s.CreatorID, s.SessionDate.UTC(), nullTime(s.StartedAt), nullTime(s.EndedAt), s.Status, s.CreatedAt.UTC())
	return mapError(err)
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutSession, error) {
	return scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM workout_sessions WHERE id = $1`, id))
}

func (r *sessionRepository) ListByGroup(ctx context.Context, groupID string) ([]domain.WorkoutSession, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM workout_sessions
		WHERE group_id = $1 ORDER BY session_date DESC
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []domain.WorkoutSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func (r *sessionRepository) FindActiveByGroup(ctx context.Context, groupID string) (*domain.WorkoutSession, error) {
	return scanSession(r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM workout_sessions
		WHERE group_id = $1 AND status = $2
		ORDER BY started_at DESC NULLS LAST, id
		LIMIT 1
	`, groupID, domain.SessionActive))
}

// UpdateStatus is a compare-and-set on the status column.
func (r *sessionRepository) UpdateStatus(ctx context.Context, s *domain.WorkoutSession, expected domain.SessionStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE workout_sessions SET status = $2, started_at = $3, ended_at = $4
		WHERE id = $1 AND status = $5
	`, s.ID, s.Status, nullTime(s.StartedAt), nullTime(s.EndedAt), expected)
	return r.checkConditional(ctx, s.ID, res, err)
}

func (r *sessionRepository) UpdateSessionDate(ctx context.Context, id string, sessionDate time.Time, expected domain.SessionStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE workout_sessions SET session_date = $2 WHERE id = $1 AND status = $3
	`, id, sessionDate.UTC(), expected)
	return r.checkConditional(ctx, id, res, err)
}

func (r *sessionRepository) checkConditional(ctx context.Context, id string, res sql.Result, err error) error {
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM workout_sessions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM workout_sessions WHERE id = $1`, id))
}

type participantRepository struct {
	db *sql.DB
}

func scanParticipant(row rowScanner) (*domain.WorkoutSessionParticipant, error) {
	var p domain.WorkoutSessionParticipant
	if err := row.Scan(&p.ID, &p.SessionID, &p.UserID, &p.ParticipantIndex, &p.JoinedAt); err != nil {
		return nil, mapError(err)
	}
	p.JoinedAt = p.JoinedAt.UTC()
	return &p, nil
}

func (r *participantRepository) Create(ctx context.Context, p *domain.WorkoutSessionParticipant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_participants (id, session_id, user_id, participant_index, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID, p.SessionID, p.UserID, p.ParticipantIndex, p.JoinedAt.UTC())
	return mapError(err)
}

func (r *participantRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutSessionParticipant, error) {
	return scanParticipant(r.db.QueryRowContext(ctx, `
		SELECT id, session_id, user_id, participant_index, joined_at FROM session_participants WHERE id = $1
	`, id))
}

func (r *participantRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.WorkoutSessionParticipant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, user_id, participant_index, joined_at
		FROM session_participants WHERE session_id = $1 ORDER BY participant_index
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []domain.WorkoutSessionParticipant{}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}

func (r *participantRepository) Delete(ctx context.Context, id string) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM session_participants WHERE id = $1`, id))
}

func (r *participantRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session_participants WHERE session_id = $1`, sessionID)
	return err
}

type stationRepository struct {
	db *sql.DB
}

func (r *stationRepository) Upsert(ctx context.Context, st *domain.WorkoutSessionWorkoutType) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO session_stations (id, session_id, workout_type_id, station_index)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id, station_index) DO UPDATE
		SET workout_type_id = EXCLUDED.workout_type_id
		RETURNING id
	`, st.ID, st.SessionID, st.WorkoutTypeID, st.StationIndex).Scan(&st.ID)
	return mapError(err)
}

func (r *stationRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.WorkoutSessionWorkoutType, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, workout_type_id, station_index
		FROM session_stations WHERE session_id = $1 ORDER BY station_index
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := []domain.WorkoutSessionWorkoutType{}
	for rows.Next() {
		var st domain.WorkoutSessionWorkoutType
		if err := rows.Scan(&st.ID, &st.SessionID, &st.WorkoutTypeID, &st.StationIndex); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

func (r *stationRepository) Delete(ctx context.Context, sessionID string, stationIndex int) error {
	return expectOne(r.db.ExecContext(ctx, `
		DELETE FROM session_stations WHERE session_id = $1 AND station_index = $2
	`, sessionID, stationIndex))
}

func (r *stationRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session_stations WHERE session_id = $1`, sessionID)
	return err
}

type scoreRepository struct {
	db *sql.DB
}

const scoreColumns = `id, participant_id, round_number, station_index, workout_type_id, score, weight, recorded_at`

func scanScore(row rowScanner) (*domain.WorkoutIntervalScore, error) {
	var (
		s      domain.WorkoutIntervalScore
		weight decimal.NullDecimal
	)
	if err := row.Scan(&s.ID, &s.ParticipantID, &s.RoundNumber, &s.StationIndex, &s.WorkoutTypeID, &s.Score, &weight, &s.RecordedAt); err != nil {
		return nil, mapError(err)
	}
	if weight.Valid {
		s.Weight = &weight.Decimal
	}
	s.RecordedAt = s.RecordedAt.UTC()
	return &s, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func (r *scoreRepository) Create(ctx context.Context, s *domain.WorkoutIntervalScore) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO interval_scores (`+scoreColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.ID, s.ParticipantID, s.RoundNumber, s.StationIndex, s.WorkoutTypeID, s.Score, nullDecimal(s.Weight), s.RecordedAt.UTC())
	return mapError(err)
}

func (r *scoreRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutIntervalScore, error) {
	return scanScore(r.db.QueryRowContext(ctx, `SELECT `+scoreColumns+` FROM interval_scores WHERE id = $1`, id))
}

func (r *scoreRepository) ListByParticipant(ctx context.Context, participantID string) ([]domain.WorkoutIntervalScore, error) {
	return r.list(ctx, `participant_id = $1`, participantID)
}

func (r *scoreRepository) ListByParticipants(ctx context.Context, participantIDs []string) ([]domain.WorkoutIntervalScore, error) {
	if len(participantIDs) == 0 {
		return []domain.WorkoutIntervalScore{}, nil
	}
	return r.list(ctx, `participant_id = ANY($1)`, pq.Array(participantIDs))
}

func (r *scoreRepository) ListByWorkoutType(ctx context.Context, workoutTypeID string) ([]domain.WorkoutIntervalScore, error) {
	return r.list(ctx, `workout_type_id = $1`, workoutTypeID)
}

func (r *scoreRepository) list(ctx context.Context, where string, arg any) ([]domain.WorkoutIntervalScore, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+scoreColumns+` FROM interval_scores
		WHERE `+where+`
		ORDER BY participant_id, round_number, station_index
	`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := []domain.WorkoutIntervalScore{}
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		scores = append(scores, *s)
	}
	return scores, rows.Err()
}

func (r *scoreRepository) UpdateValue(ctx context.Context, id string, score int, weight *decimal.Decimal) error {
	return expectOne(r.db.ExecContext(ctx, `
		UPDATE interval_scores SET score = $2, weight = $3 WHERE id = $1
	`, id, score, nullDecimal(weight)))
}

func (r *scoreRepository) Delete(ctx context.Context, id string) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM interval_scores WHERE id = $1`, id))
}

func (r *scoreRepository) DeleteByParticipant(ctx context.Context, participantID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM interval_scores WHERE participant_id = $1`, participantID)
	return err
}
