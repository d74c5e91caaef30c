package service

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"familyfitness/wod-server/internal/domain"
	"familyfitness/wod-server/internal/repository"

	"github.com/google/uuid"
)

// --- Error Definitions ---
var (
	ErrWorkoutTypeNotFound     = errors.New("workout type not found")
	ErrWorkoutTypeNameRequired = errors.New("workout type name is required")
	ErrWorkoutTypeNameTaken    = errors.New("a workout type with this name already exists")
)

// --- Service Interface ---
type WorkoutTypeService interface {
	CreateWorkoutType(ctx context.Context, name, description string) (*domain.WorkoutType, error)
	GetWorkoutType(ctx context.Context, id string) (*domain.WorkoutType, error)
	ListWorkoutTypes(ctx context.Context) ([]domain.WorkoutType, error)
	UpdateWorkoutType(ctx context.Context, id, name, description string) (*domain.WorkoutType, error)
	DeleteWorkoutType(ctx context.Context, id string) error
}

// --- Service Implementation ---
type workoutTypeService struct {
	workoutTypeRepo repository.WorkoutTypeRepository
}

// NewWorkoutTypeService creates a new instance of workoutTypeService.
func NewWorkoutTypeService(workoutTypeRepo repository.WorkoutTypeRepository) WorkoutTypeService {
	return &workoutTypeService{workoutTypeRepo: workoutTypeRepo}
}

// CreateWorkoutType adds an entry to the catalog.
func (s *workoutTypeService) CreateWorkoutType(ctx context.Context, name, description string) (*domain.WorkoutType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrWorkoutTypeNameRequired
	}
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	wt := &domain.WorkoutType{
		ID:          workoutTypeID(name),
		Name:        name,
		Description: strings.TrimSpace(description),
	}
	if err := s.workoutTypeRepo.Create(ctx, wt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrWorkoutTypeNameTaken
		}
		return nil, err
	}
	return wt, nil
}

// GetWorkoutType retrieves a catalog entry.
func (s *workoutTypeService) GetWorkoutType(ctx context.Context, id string) (*domain.WorkoutType, error) {
	wt, err := s.workoutTypeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutTypeNotFound
		}
		return nil, err
	}
	return wt, nil
}

// ListWorkoutTypes returns the catalog sorted by name.
func (s *workoutTypeService) ListWorkoutTypes(ctx context.Context) ([]domain.WorkoutType, error) {
	return s.workoutTypeRepo.List(ctx)
}

// UpdateWorkoutType renames or re-describes a catalog entry. The ID stays stable.
func (s *workoutTypeService) UpdateWorkoutType(ctx context.Context, id, name, description string) (*domain.WorkoutType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrWorkoutTypeNameRequired
	}
	wt, err := s.GetWorkoutType(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, id); err != nil {
		return nil, err
	}

	wt.Name = name
	wt.Description = strings.TrimSpace(description)
	if err := s.workoutTypeRepo.Update(ctx, wt); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrWorkoutTypeNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrWorkoutTypeNameTaken
		}
		return nil, err
	}
	return wt, nil
}

// DeleteWorkoutType removes a catalog entry. Scores keep the raw ID.
func (s *workoutTypeService) DeleteWorkoutType(ctx context.Context, id string) error {
	if err := s.workoutTypeRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkoutTypeNotFound
		}
		return err
	}
	return nil
}

// ensureNameFree checks case-insensitive uniqueness, ignoring the entry selfID.
func (s *workoutTypeService) ensureNameFree(ctx context.Context, name, selfID string) error {
	all, err := s.workoutTypeRepo.List(ctx)
	if err != nil {
		return err
	}
	for _, wt := range all {
		if wt.ID != selfID && strings.EqualFold(wt.Name, name) {
			return ErrWorkoutTypeNameTaken
		}
	}
	return nil
}

// workoutTypeID builds a readable ID such as "box-jumps-1f3a9c2e".
func workoutTypeID(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}
