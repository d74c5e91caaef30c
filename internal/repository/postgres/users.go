package postgres

import (
	"context"
	"database/sql"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"

	"github.com/lib/pq"
)

type rowScanner interface {
	Scan(dest ...any) error
}

type userRepository struct {
	db *sql.DB
}

const userColumns = `id, COALESCE(external_id, ''), username, COALESCE(email, ''), created_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.ExternalID, &u.Username, &u.Email, &u.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, external_id, username, email, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, nullString(u.ExternalID), u.Username, nullString(u.Email), u.CreatedAt.UTC())
	return mapError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	if externalID == "" {
		return nil, repository.ErrNotFound
	}
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = $1`, externalID))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, repository.ErrNotFound
	}
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	return expectOne(r.db.ExecContext(ctx, `
		UPDATE users SET external_id = $2, username = $3, email = $4 WHERE id = $1
	`, u.ID, nullString(u.ExternalID), u.Username, nullString(u.Email)))
}

type groupRepository struct {
	db *sql.DB
}

const groupColumns = `id, name, description, owner_id, created_at`

func scanGroup(row rowScanner) (*domain.Group, error) {
	var g domain.Group
	if err := row.Scan(&g.ID, &g.Name, &g.Description, &g.OwnerID, &g.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	g.CreatedAt = g.CreatedAt.UTC()
	return &g, nil
}

func (r *groupRepository) Create(ctx context.Context, g *domain.Group) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO groups (id, name, description, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, g.ID, g.Name, g.Description, g.OwnerID, g.CreatedAt.UTC())
	return mapError(err)
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	return scanGroup(r.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, id))
}

func (r *groupRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Group, error) {
	groups := []domain.Group{}
	if len(ids) == 0 {
		return groups, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+groupColumns+` FROM groups WHERE id = ANY($1) ORDER BY name
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

type membershipRepository struct {
	db *sql.DB
}

func (r *membershipRepository) Create(ctx context.Context, m *domain.GroupMembership) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO group_memberships (id, group_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.GroupID, m.UserID, m.Role, m.JoinedAt.UTC())
	return mapError(err)
}

func scanMembership(row rowScanner) (*domain.GroupMembership, error) {
	var m domain.GroupMembership
	if err := row.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
		return nil, mapError(err)
	}
	m.JoinedAt = m.JoinedAt.UTC()
	return &m, nil
}

func (r *membershipRepository) GetByGroupAndUser(ctx context.Context, groupID, userID string) (*domain.GroupMembership, error) {
	return scanMembership(r.db.QueryRowContext(ctx, `
		SELECT id, group_id, user_id, role, joined_at
		FROM group_memberships WHERE group_id = $1 AND user_id = $2
	`, groupID, userID))
}

func (r *membershipRepository) ListByGroup(ctx context.Context, groupID string) ([]domain.GroupMembership, error) {
	return r.list(ctx, `group_id = $1`, groupID)
}

func (r *membershipRepository) ListByUser(ctx context.Context, userID string) ([]domain.GroupMembership, error) {
	return r.list(ctx, `user_id = $1`, userID)
}

func (r *membershipRepository) list(ctx context.Context, where string, arg string) ([]domain.GroupMembership, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, group_id, user_id, role, joined_at
		FROM group_memberships WHERE `+where+` ORDER BY joined_at
	`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := []domain.GroupMembership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, *m)
	}
	return memberships, rows.Err()
}

type inviteRepository struct {
	db *sql.DB
}

func (r *inviteRepository) Create(ctx context.Context, inv *domain.GroupInvite) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO group_invites (id, group_id, token, created_at, is_active)
		VALUES ($1, $2, $3, $4, $5)
	`, inv.ID, inv.GroupID, inv.Token, inv.CreatedAt.UTC(), inv.IsActive)
	return mapError(err)
}

func scanInvite(row rowScanner) (*domain.GroupInvite, error) {
	var inv domain.GroupInvite
	if err := row.Scan(&inv.ID, &inv.GroupID, &inv.Token, &inv.CreatedAt, &inv.IsActive); err != nil {
		return nil, mapError(err)
	}
	inv.CreatedAt = inv.CreatedAt.UTC()
	return &inv, nil
}

func (r *inviteRepository) GetByID(ctx context.Context, id string) (*domain.GroupInvite, error) {
	return scanInvite(r.db.QueryRowContext(ctx, `
		SELECT id, group_id, token, created_at, is_active FROM group_invites WHERE id = $1
	`, id))
}

func (r *inviteRepository) GetByToken(ctx context.Context, token string) (*domain.GroupInvite, error) {
	return scanInvite(r.db.QueryRowContext(ctx, `
		SELECT id, group_id, token, created_at, is_active FROM group_invites WHERE token = $1
	`, token))
}

func (r *inviteRepository) SetActive(ctx context.Context, id string, active bool) error {
	return expectOne(r.db.ExecContext(ctx, `UPDATE group_invites SET is_active = $2 WHERE id = $1`, id, active))
}

type workoutTypeRepository struct {
	db *sql.DB
}

func scanWorkoutType(row rowScanner) (*domain.WorkoutType, error) {
	var wt domain.WorkoutType
	if err := row.Scan(&wt.ID, &wt.Name, &wt.Description); err != nil {
		return nil, mapError(err)
	}
	return &wt, nil
}

func (r *workoutTypeRepository) Create(ctx context.Context, wt *domain.WorkoutType) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO workout_types (id, name, description) VALUES ($1, $2, $3)
	`, wt.ID, wt.Name, wt.Description)
	return mapError(err)
}

func (r *workoutTypeRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutType, error) {
	return scanWorkoutType(r.db.QueryRowContext(ctx, `SELECT id, name, description FROM workout_types WHERE id = $1`, id))
}

func (r *workoutTypeRepository) List(ctx context.Context) ([]domain.WorkoutType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description FROM workout_types ORDER BY lower(name)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []domain.WorkoutType{}
	for rows.Next() {
		wt, err := scanWorkoutType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, *wt)
	}
	return types, rows.Err()
}

func (r *workoutTypeRepository) Update(ctx context.Context, wt *domain.WorkoutType) error {
	return expectOne(r.db.ExecContext(ctx, `
		UPDATE workout_types SET name = $2, description = $3 WHERE id = $1
	`, wt.ID, wt.Name, wt.Description))
}

func (r *workoutTypeRepository) Delete(ctx context.Context, id string) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM workout_types WHERE id = $1`, id))
}
