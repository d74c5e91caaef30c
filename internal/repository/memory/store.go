// Package memory is a mutex-guarded in-memory backend. It is used by tests and
// by the "memory" database driver for local development.
package memory

import (
	"sort"
	"sync"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"
)

// Store holds every collection behind a single lock so conditional updates
// and uniqueness checks are atomic.
type Store struct {
	mu           sync.RWMutex
	users        map[string]domain.User
	groups       map[string]domain.Group
	memberships  map[string]domain.GroupMembership
	invites      map[string]domain.GroupInvite
	workoutTypes map[string]domain.WorkoutType
	sessions     map[string]domain.WorkoutSession
	participants map[string]domain.WorkoutSessionParticipant
	stations     map[string]domain.WorkoutSessionWorkoutType
	scores       map[string]domain.WorkoutIntervalScore
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:        make(map[string]domain.User),
		groups:       make(map[string]domain.Group),
		memberships:  make(map[string]domain.GroupMembership),
		invites:      make(map[string]domain.GroupInvite),
		workoutTypes: make(map[string]domain.WorkoutType),
		sessions:     make(map[string]domain.WorkoutSession),
		participants: make(map[string]domain.WorkoutSessionParticipant),
		stations:     make(map[string]domain.WorkoutSessionWorkoutType),
		scores:       make(map[string]domain.WorkoutIntervalScore),
	}
}

// Repositories returns repository views over the store.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Users:        &userRepo{s},
		Groups:       &groupRepo{s},
		Memberships:  &membershipRepo{s},
		Invites:      &inviteRepo{s},
		WorkoutTypes: &workoutTypeRepo{s},
		Sessions:     &sessionRepo{s},
		Participants: &participantRepo{s},
		Stations:     &stationRepo{s},
		Scores:       &scoreRepo{s},
	}
}

// NewRepositories is shorthand for NewStore().Repositories().
func NewRepositories() repository.Repositories {
	return NewStore().Repositories()
}

func sortScores(scores []domain.WorkoutIntervalScore) {
	sort.Slice(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.ParticipantID != b.ParticipantID {
			return a.ParticipantID < b.ParticipantID
		}
		if a.RoundNumber != b.RoundNumber {
			return a.RoundNumber < b.RoundNumber
		}
		return a.StationIndex < b.StationIndex
	})
}
