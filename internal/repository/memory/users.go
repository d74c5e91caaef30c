package memory

import (
	"context"
	"sort"
	"strings"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.users[user.ID]; exists {
		return repository.ErrDuplicate
	}
	for _, u := range r.s.users {
		if user.ExternalID != "" && u.ExternalID == user.ExternalID {
			return repository.ErrDuplicate
		}
		if user.Email != "" && strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByExternalID(_ context.Context, externalID string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if externalID != "" && u.ExternalID == externalID {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if email != "" && strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.users[user.ID] = *user
	return nil
}

type groupRepo struct{ s *Store }

func (r *groupRepo) Create(_ context.Context, group *domain.Group) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.groups[group.ID]; exists {
		return repository.ErrDuplicate
	}
	r.s.groups[group.ID] = *group
	return nil
}

func (r *groupRepo) GetByID(_ context.Context, id string) (*domain.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func (r *groupRepo) GetByIDs(_ context.Context, ids []string) ([]domain.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Group{}
	for _, id := range ids {
		if g, ok := r.s.groups[id]; ok {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type membershipRepo struct{ s *Store }

func (r *membershipRepo) Create(_ context.Context, m *domain.GroupMembership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.memberships {
		if existing.GroupID == m.GroupID && existing.UserID == m.UserID {
			return repository.ErrDuplicate
		}
	}
	r.s.memberships[m.ID] = *m
	return nil
}

func (r *membershipRepo) GetByGroupAndUser(_ context.Context, groupID, userID string) (*domain.GroupMembership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, m := range r.s.memberships {
		if m.GroupID == groupID && m.UserID == userID {
			return &m, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *membershipRepo) ListByGroup(_ context.Context, groupID string) ([]domain.GroupMembership, error) {
	return r.list(func(m domain.GroupMembership) bool { return m.GroupID == groupID }), nil
}

func (r *membershipRepo) ListByUser(_ context.Context, userID string) ([]domain.GroupMembership, error) {
	return r.list(func(m domain.GroupMembership) bool { return m.UserID == userID }), nil
}

func (r *membershipRepo) list(match func(domain.GroupMembership) bool) []domain.GroupMembership {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.GroupMembership{}
	for _, m := range r.s.memberships {
		if match(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out
}

type inviteRepo struct{ s *Store }

func (r *inviteRepo) Create(_ context.Context, invite *domain.GroupInvite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.invites {
		if existing.Token == invite.Token {
			return repository.ErrDuplicate
		}
	}
	r.s.invites[invite.ID] = *invite
	return nil
}

func (r *inviteRepo) GetByID(_ context.Context, id string) (*domain.GroupInvite, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	inv, ok := r.s.invites[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &inv, nil
}

func (r *inviteRepo) GetByToken(_ context.Context, token string) (*domain.GroupInvite, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, inv := range r.s.invites {
		if inv.Token == token {
			return &inv, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *inviteRepo) SetActive(_ context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	inv, ok := r.s.invites[id]
	if !ok {
		return repository.ErrNotFound
	}
	inv.IsActive = active
	r.s.invites[id] = inv
	return nil
}

type workoutTypeRepo struct{ s *Store }

func (r *workoutTypeRepo) Create(_ context.Context, wt *domain.WorkoutType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.workoutTypes[wt.ID]; exists {
		return repository.ErrDuplicate
	}
	r.s.workoutTypes[wt.ID] = *wt
	return nil
}

func (r *workoutTypeRepo) GetByID(_ context.Context, id string) (*domain.WorkoutType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wt, ok := r.s.workoutTypes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &wt, nil
}

func (r *workoutTypeRepo) List(_ context.Context) ([]domain.WorkoutType, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.WorkoutType, 0, len(r.s.workoutTypes))
	for _, wt := range r.s.workoutTypes {
		out = append(out, wt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *workoutTypeRepo) Update(_ context.Context, wt *domain.WorkoutType) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.workoutTypes[wt.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.workoutTypes[wt.ID] = *wt
	return nil
}

func (r *workoutTypeRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.workoutTypes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.workoutTypes, id)
	return nil
}
