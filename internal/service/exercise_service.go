package service

import (
	"context"
	"errors"
	"strings"

	"peakform/coaching-platform/internal/apperr"
	"peakform/coaching-platform/internal/domain"
	"peakform/coaching-platform/internal/repository"
	"peakform/coaching-platform/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseService manages the exercise library.
type ExerciseService interface {
	Create(ctx context.Context, creatorID primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error)
	Get(ctx context.Context, viewerID primitive.ObjectID, id primitive.ObjectID) (*domain.Exercise, error)
	List(ctx context.Context, viewerID primitive.ObjectID, filter ExerciseListFilter, page Page) ([]domain.Exercise, int64, error)
	Update(ctx context.Context, ownerID, id primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error)
	Delete(ctx context.Context, ownerID, id primitive.ObjectID) error
	VideoUploadURL(ctx context.Context, ownerID, id primitive.ObjectID, filename, contentType string) (uploadURL, objectKey string, err error)
	VideoDownloadURL(ctx context.Context, viewerID, id primitive.ObjectID) (string, error)
}

// ExerciseInput carries the authorable exercise fields.
type ExerciseInput struct {
	Name         string
	Instructions []string
	MuscleGroups []string
	Level        string
	Intensity    string
	IsPublic     bool
}

// ExerciseListFilter narrows exercise listings.
type ExerciseListFilter struct {
	MuscleGroup string
	Level       string
	Search      string
}

type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
	fileStorage  storage.FileStorage
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(exerciseRepo repository.ExerciseRepository, fileStorage storage.FileStorage) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
		fileStorage:  fileStorage,
	}
}

// Create adds an exercise to the library, private to its creator unless
// published to the shared catalog.
func (s *exerciseService) Create(ctx context.Context, creatorID primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error) {
	if input.Name == "" {
		return nil, apperr.BadRequest("exercise name is required")
	}

	exercise := &domain.Exercise{
		Name:         input.Name,
		Slug:         slugify(input.Name),
		Instructions: input.Instructions,
		MuscleGroups: input.MuscleGroups,
		Level:        input.Level,
		Intensity:    input.Intensity,
		CreatedBy:    creatorID,
		IsActive:     true,
		IsPublic:     input.IsPublic,
		IsCustom:     true,
	}

	id, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Slug collision; retry once with a random suffix.
			exercise.Slug = exercise.Slug + "-" + uuid.NewString()[:8]
			id, err = s.exerciseRepo.Create(ctx, exercise)
		}
		if err != nil {
			return nil, err
		}
	}
	exercise.ID = id
	return exercise, nil
}

// Get retrieves an exercise the viewer is allowed to see.
func (s *exerciseService) Get(ctx context.Context, viewerID, id primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("exercise not found")
		}
		return nil, err
	}
	if !exercise.IsActive || !exercise.VisibleTo(viewerID) {
		return nil, apperr.NotFound("exercise not found")
	}
	return exercise, nil
}

// List retrieves exercises visible to the viewer, paginated.
func (s *exerciseService) List(ctx context.Context, viewerID primitive.ObjectID, filter ExerciseListFilter, page Page) ([]domain.Exercise, int64, error) {
	repoFilter := repository.ExerciseFilter{
		ViewerID:     &viewerID,
		MuscleGroup:  filter.MuscleGroup,
		Level:        filter.Level,
		Search:       filter.Search,
		IncludeOwned: true,
	}
	return s.exerciseRepo.List(ctx, repoFilter, page.Offset(), page.Limit())
}

// Update modifies an exercise owned by the caller.
func (s *exerciseService) Update(ctx context.Context, ownerID, id primitive.ObjectID, input ExerciseInput) (*domain.Exercise, error) {
	exercise, err := s.ownedExercise(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		exercise.Name = input.Name
	}
	exercise.Instructions = input.Instructions
	exercise.MuscleGroups = input.MuscleGroups
	exercise.Level = input.Level
	exercise.Intensity = input.Intensity
	exercise.IsPublic = input.IsPublic

	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

// Delete soft-deletes an exercise owned by the caller. Programs referencing
// it keep their rows; the exercise just stops appearing in listings.
func (s *exerciseService) Delete(ctx context.Context, ownerID, id primitive.ObjectID) error {
	if err := s.exerciseRepo.Deactivate(ctx, id, ownerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("exercise not found")
		}
		return err
	}
	return nil
}

// VideoUploadURL issues a presigned PUT URL for the exercise demo video and
// records the object key on the exercise.
func (s *exerciseService) VideoUploadURL(ctx context.Context, ownerID, id primitive.ObjectID, filename, contentType string) (string, string, error) {
	exercise, err := s.ownedExercise(ctx, ownerID, id)
	if err != nil {
		return "", "", err
	}
	if contentType == "" {
		return "", "", apperr.BadRequest("content type is required")
	}

	objectKey := storage.ExerciseVideoKey(ownerID, id, filename)
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", "", err
	}

	exercise.VideoKey = objectKey
	if err := s.exerciseRepo.Update(ctx, exercise); err != nil {
		return "", "", err
	}
	return uploadURL, objectKey, nil
}

// VideoDownloadURL issues a presigned GET URL for the exercise demo video.
func (s *exerciseService) VideoDownloadURL(ctx context.Context, viewerID, id primitive.ObjectID) (string, error) {
	exercise, err := s.Get(ctx, viewerID, id)
	if err != nil {
		return "", err
	}
	if exercise.VideoKey == "" {
		return "", apperr.NotFound("exercise has no video")
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, exercise.VideoKey, storage.DefaultPresignedURLExpiry)
}

func (s *exerciseService) ownedExercise(ctx context.Context, ownerID, id primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("exercise not found")
		}
		return nil, err
	}
	if !exercise.IsActive {
		return nil, apperr.NotFound("exercise not found")
	}
	if exercise.CreatedBy != ownerID {
		return nil, apperr.Forbidden("you do not own this exercise")
	}
	return exercise, nil
}

// slugify turns a display name into a URL-safe slug.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
