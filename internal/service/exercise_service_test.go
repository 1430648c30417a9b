package service

import (
	"context"
	"strings"
	"testing"

	"peakform/coaching-platform/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type exerciseFixture struct {
	svc     ExerciseService
	repo    *fakeExerciseRepo
	storage *fakeFileStorage
	ownerID primitive.ObjectID
}

func newExerciseFixture(t *testing.T) *exerciseFixture {
	t.Helper()
	repo := newFakeExerciseRepo()
	fs := &fakeFileStorage{}
	return &exerciseFixture{
		svc:     NewExerciseService(repo, fs),
		repo:    repo,
		storage: fs,
		ownerID: primitive.NewObjectID(),
	}
}

func TestExerciseCreate(t *testing.T) {
	f := newExerciseFixture(t)

	exercise, err := f.svc.Create(context.Background(), f.ownerID, ExerciseInput{
		Name:         "Barbell Back Squat",
		Instructions: []string{"Brace", "Descend", "Drive up"},
		MuscleGroups: []string{"quads", "glutes"},
		Level:        "intermediate",
		Intensity:    "high",
		IsPublic:     true,
	})
	require.NoError(t, err)
	require.False(t, exercise.ID.IsZero())

	assert.Equal(t, "barbell-back-squat", exercise.Slug)
	assert.Equal(t, f.ownerID, exercise.CreatedBy)
	assert.True(t, exercise.IsActive)
	assert.True(t, exercise.IsPublic)
	assert.True(t, exercise.IsCustom)
	assert.False(t, exercise.IsVerified)
}

func TestExerciseCreateRequiresName(t *testing.T) {
	f := newExerciseFixture(t)

	_, err := f.svc.Create(context.Background(), f.ownerID, ExerciseInput{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestExerciseCreateSlugCollision(t *testing.T) {
	f := newExerciseFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.ownerID, ExerciseInput{Name: "Deadlift", IsPublic: true})
	require.NoError(t, err)

	// A second exercise with the colliding name gets a suffixed slug instead
	// of failing.
	second, err := f.svc.Create(ctx, primitive.NewObjectID(), ExerciseInput{Name: "Deadlift"})
	require.NoError(t, err)

	assert.Equal(t, "deadlift", first.Slug)
	assert.True(t, strings.HasPrefix(second.Slug, "deadlift-"), "slug %q should carry a suffix", second.Slug)
	assert.NotEqual(t, first.Slug, second.Slug)
}

func TestExerciseGetVisibility(t *testing.T) {
	f := newExerciseFixture(t)
	ctx := context.Background()

	private, err := f.svc.Create(ctx, f.ownerID, ExerciseInput{Name: "Secret Drill"})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, f.ownerID, private.ID)
	require.NoError(t, err)
	assert.Equal(t, private.ID, got.ID)

	// A private exercise is indistinguishable from a missing one for anybody
	// but its creator.
	_, err = f.svc.Get(ctx, primitive.NewObjectID(), private.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestExerciseGetInactive(t *testing.T) {
	f := newExerciseFixture(t)
	ctx := context.Background()

	exercise, err := f.svc.Create(ctx, f.ownerID, ExerciseInput{Name: "Retired Move", IsPublic: true})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, f.ownerID, exercise.ID))

	_, err = f.svc.Get(ctx, f.ownerID, exercise.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestExerciseList(t *testing.T) {
	f := newExerciseFixture(t)
	ctx := context.Background()
	stranger := primitive.NewObjectID()

	_, err := f.svc.Create(ctx, f.ownerID, ExerciseInput{Name: "Public Push-up", IsPublic: true})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.ownerID, ExerciseInput{Name: "Private Pull"})
	require.NoError(t, err)

	mine, total, err := f.svc.List(ctx, f.ownerID, ExerciseListFilter{}, NewPage(1, 10))
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	assert.EqualValues(t, 2, total)

	theirs, total, err := f.svc.List(ctx, stranger, ExerciseListFilter{}, NewPage(1, 10))
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Public Push-up", theirs[0].Name)
}

func TestExerciseUpdate(t *testing.T) {
	f := newExerciseFixture(t)
	ctx := context.Background()

	exercise, err := f.svc.Create(ctx, f.ownerID, ExerciseInput{
		Name:     "Lunge",
		Level:    "beginner",
		IsPublic: true,
	})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, f.ownerID, exercise.ID, ExerciseInput{
		Name:         "Walking Lunge",
		MuscleGroups: []string{"quads"},
		Level:        "intermediate",
	})
	require.NoError(t, err)
	assert.Equal(t, "Walking Lunge", updated.Name)
	assert.Equal(t, "intermediate", updated.Level)
	assert.False(t, updated.IsPublic)

	// Slug is stable across renames.
	assert.Equal(t, "lunge", updated.Slug)
}

func TestExerciseUpdateForeign(t *testing.T) {
	f := newExerciseFixture(t)
	ctx := context.Background()

	exercise, err := f.svc.Create(ctx, f.ownerID, ExerciseInput{Name: "Row", IsPublic: true})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, primitive.NewObjectID(), exercise.ID, ExerciseInput{Name: "Stolen Row"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestExerciseDelete(t *testing.T) {
	f := newExerciseFixture(t)
	ctx := context.Background()

	exercise, err := f.svc.Create(ctx, f.ownerID, ExerciseInput{Name: "Plank", IsPublic: true})
	require.NoError(t, err)

	// Only the owner may delete; for others the exercise does not exist.
	err = f.svc.Delete(ctx, primitive.NewObjectID(), exercise.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.NoError(t, f.svc.Delete(ctx, f.ownerID, exercise.ID))

	stored, err := f.repo.GetByID(ctx, exercise.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestExerciseVideoUploadURL(t *testing.T) {
	f := newExerciseFixture(t)
	ctx := context.Background()

	exercise, err := f.svc.Create(ctx, f.ownerID, ExerciseInput{Name: "Clean and Jerk", IsPublic: true})
	require.NoError(t, err)

	uploadURL, objectKey, err := f.svc.VideoUploadURL(ctx, f.ownerID, exercise.ID, "demo.mp4", "video/mp4")
	require.NoError(t, err)
	assert.NotEmpty(t, objectKey)
	assert.Contains(t, objectKey, exercise.ID.Hex())
	assert.Equal(t, "https://storage.example/upload/"+objectKey, uploadURL)

	stored, err := f.repo.GetByID(ctx, exercise.ID)
	require.NoError(t, err)
	assert.Equal(t, objectKey, stored.VideoKey)
}

func TestExerciseVideoUploadURLRequiresContentType(t *testing.T) {
	f := newExerciseFixture(t)
	ctx := context.Background()

	exercise, err := f.svc.Create(ctx, f.ownerID, ExerciseInput{Name: "Snatch", IsPublic: true})
	require.NoError(t, err)

	_, _, err = f.svc.VideoUploadURL(ctx, f.ownerID, exercise.ID, "demo.mp4", "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestExerciseVideoDownloadURL(t *testing.T) {
	f := newExerciseFixture(t)
	ctx := context.Background()
	viewer := primitive.NewObjectID()

	exercise, err := f.svc.Create(ctx, f.ownerID, ExerciseInput{Name: "Hip Thrust", IsPublic: true})
	require.NoError(t, err)

	// No video uploaded yet.
	_, err = f.svc.VideoDownloadURL(ctx, viewer, exercise.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, objectKey, err := f.svc.VideoUploadURL(ctx, f.ownerID, exercise.ID, "demo.mp4", "video/mp4")
	require.NoError(t, err)

	url, err := f.svc.VideoDownloadURL(ctx, viewer, exercise.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://storage.example/download/"+objectKey, url)
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Bench Press", "bench-press"},
		{"punctuation", "90/90 Hip Switch!", "90-90-hip-switch"},
		{"collapsed separators", "  Bird   Dog  ", "bird-dog"},
		{"unicode stripped", "Renée's Curl", "ren-e-s-curl"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, slugify(tc.in))
		})
	}
}
