package service

import (
	"context"
	"errors"

	"peakform/coaching-platform/internal/apperr"
	"peakform/coaching-platform/internal/domain"
	"peakform/coaching-platform/internal/repository"
	"peakform/coaching-platform/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramService builds, updates, clones and publishes workout programs with
// their nested sessions and exercise rows.
type ProgramService interface {
	CreateWithSessions(ctx context.Context, actorID primitive.ObjectID, input ProgramInput) (*ProgramDetail, error)
	Get(ctx context.Context, viewerID, id primitive.ObjectID) (*ProgramDetail, error)
	List(ctx context.Context, viewerID primitive.ObjectID, filter ProgramListFilter, page Page) ([]domain.WorkoutProgram, int64, error)
	UpdateWithSessions(ctx context.Context, actorID, id primitive.ObjectID, input ProgramUpdate) (*ProgramDetail, error)
	Clone(ctx context.Context, actorID, id primitive.ObjectID) (*ProgramDetail, error)
	Delete(ctx context.Context, actorID, id primitive.ObjectID) error
	Publish(ctx context.Context, actorID, id primitive.ObjectID) (*domain.WorkoutProgram, error)
	VideoUploadURL(ctx context.Context, actorID, id primitive.ObjectID, filename, contentType string) (uploadURL, objectKey string, err error)
}

// ProgramInput carries the authorable program fields with the full session tree.
type ProgramInput struct {
	Title         string
	Description   string
	PriceCents    int64
	OffPercent    float64
	DurationWeeks int
	Level         string
	Goal          string
	Location      string
	Equipment     []string
	IsPublic      bool
	Sessions      []SessionInput
}

// ProgramUpdate carries a program update. A nil Sessions leaves the existing
// session tree untouched; a non-nil value (even empty) replaces it wholesale.
type ProgramUpdate struct {
	Title         string
	Description   string
	PriceCents    int64
	OffPercent    float64
	DurationWeeks int
	Level         string
	Goal          string
	Location      string
	Equipment     []string
	IsPublic      bool
	Sessions      *[]SessionInput
}

// SessionInput is one authored session with its exercise prescriptions.
type SessionInput struct {
	Title       string
	Notes       string
	WeekNumber  int
	SessionType string
	Duration    int
	Intensity   string
	Location    string
	Equipments  []string
	IsRestDay   bool
	Exercises   []SessionExerciseInput
}

// SessionExerciseInput prescribes one library exercise within a session.
type SessionExerciseInput struct {
	ExerciseID primitive.ObjectID
	Sets       int
	Reps       int
	Duration   int
	RestTime   int
	Tempo      string
}

// ProgramDetail is a program with its full session tree resolved.
type ProgramDetail struct {
	Program  domain.WorkoutProgram
	Sessions []SessionDetail
}

// SessionDetail is one session with its exercise rows in authored order.
type SessionDetail struct {
	Session   domain.WorkoutSession
	Exercises []domain.WorkoutExercise
}

// ProgramListFilter narrows program listings.
type ProgramListFilter struct {
	Level  string
	Goal   string
	Search string
	Mine   bool
}

type programService struct {
	programRepo    repository.ProgramRepository
	exerciseRepo   repository.ExerciseRepository
	assignmentRepo repository.AssignmentRepository
	fileStorage    storage.FileStorage
	txRunner       repository.TxRunner
}

// NewProgramService creates a new instance of programService.
func NewProgramService(
	programRepo repository.ProgramRepository,
	exerciseRepo repository.ExerciseRepository,
	assignmentRepo repository.AssignmentRepository,
	fileStorage storage.FileStorage,
	txRunner repository.TxRunner,
) ProgramService {
	return &programService{
		programRepo:    programRepo,
		exerciseRepo:   exerciseRepo,
		assignmentRepo: assignmentRepo,
		fileStorage:    fileStorage,
		txRunner:       txRunner,
	}
}

// CreateWithSessions validates every referenced exercise before any write,
// then creates the program, its sessions and their exercise rows as one
// atomic unit, preserving input order.
func (s *programService) CreateWithSessions(ctx context.Context, actorID primitive.ObjectID, input ProgramInput) (*ProgramDetail, error) {
	if input.Title == "" {
		return nil, apperr.BadRequest("program title is required")
	}
	if err := s.validateExerciseRefs(ctx, input.Sessions); err != nil {
		return nil, err
	}

	program := &domain.WorkoutProgram{
		Title:         input.Title,
		Slug:          slugify(input.Title) + "-" + uuid.NewString()[:8],
		Description:   input.Description,
		CreatedBy:     actorID,
		PriceCents:    input.PriceCents,
		OffPercent:    input.OffPercent,
		DurationWeeks: input.DurationWeeks,
		Level:         input.Level,
		Goal:          input.Goal,
		Location:      input.Location,
		Equipment:     input.Equipment,
		IsActive:      true,
		IsPublic:      input.IsPublic,
		IsCustom:      true,
	}

	err := s.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.programRepo.Create(ctx, program); err != nil {
			return err
		}
		return s.createSessionTree(ctx, program, input.Sessions)
	})
	if err != nil {
		return nil, err
	}

	return s.detail(ctx, program)
}

// Get retrieves a program the viewer is allowed to see, with its sessions.
// Owners see their own drafts; everyone else sees active public programs or
// programs currently assigned to them.
func (s *programService) Get(ctx context.Context, viewerID, id primitive.ObjectID) (*ProgramDetail, error) {
	program, err := s.programRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("program not found")
		}
		return nil, err
	}
	if program.CreatedBy != viewerID && (!program.IsActive || !program.IsPublic) {
		assigned, err := s.hasActiveAssignment(ctx, viewerID, id)
		if err != nil {
			return nil, err
		}
		if !assigned {
			return nil, apperr.NotFound("program not found")
		}
	}
	return s.detail(ctx, program)
}

func (s *programService) hasActiveAssignment(ctx context.Context, clientID, programID primitive.ObjectID) (bool, error) {
	_, err := s.assignmentRepo.GetActive(ctx, clientID, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List retrieves programs visible to the viewer, paginated.
func (s *programService) List(ctx context.Context, viewerID primitive.ObjectID, filter ProgramListFilter, page Page) ([]domain.WorkoutProgram, int64, error) {
	repoFilter := repository.ProgramFilter{
		Level:  filter.Level,
		Goal:   filter.Goal,
		Search: filter.Search,
	}
	if filter.Mine {
		repoFilter.OwnerID = &viewerID
		repoFilter.IncludeInactive = true
	} else {
		repoFilter.ViewerID = &viewerID
	}
	return s.programRepo.List(ctx, repoFilter, page.Offset(), page.Limit())
}

// UpdateWithSessions updates a program owned by the actor. A supplied session
// set (even empty) authoritatively replaces the previous tree; validation of
// every exercise reference happens before any write.
func (s *programService) UpdateWithSessions(ctx context.Context, actorID, id primitive.ObjectID, input ProgramUpdate) (*ProgramDetail, error) {
	program, err := s.ownedProgram(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if input.Sessions != nil {
		if err := s.validateExerciseRefs(ctx, *input.Sessions); err != nil {
			return nil, err
		}
	}

	if input.Title != "" {
		program.Title = input.Title
	}
	program.Description = input.Description
	program.PriceCents = input.PriceCents
	program.OffPercent = input.OffPercent
	program.DurationWeeks = input.DurationWeeks
	program.Level = input.Level
	program.Goal = input.Goal
	program.Location = input.Location
	program.Equipment = input.Equipment
	program.IsPublic = input.IsPublic

	err = s.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.programRepo.Update(ctx, program); err != nil {
			return err
		}
		if input.Sessions == nil {
			return nil
		}

		old, err := s.programRepo.GetSessionsByProgramID(ctx, program.ID)
		if err != nil {
			return err
		}
		oldIDs := sessionIDs(old)
		if err := s.programRepo.DeleteWorkoutExercisesBySessionIDs(ctx, oldIDs); err != nil {
			return err
		}
		if err := s.programRepo.DeleteSessionsByProgramID(ctx, program.ID); err != nil {
			return err
		}
		return s.createSessionTree(ctx, program, *input.Sessions)
	})
	if err != nil {
		return nil, err
	}

	return s.detail(ctx, program)
}

// Clone deep-copies a program the actor can see into a private draft owned
// by the actor. Exercises that have left the library are skipped silently.
func (s *programService) Clone(ctx context.Context, actorID, id primitive.ObjectID) (*ProgramDetail, error) {
	source, err := s.programRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("program not found")
		}
		return nil, err
	}
	if source.CreatedBy != actorID && (!source.IsActive || !source.IsPublic) {
		return nil, apperr.NotFound("program not found")
	}

	sessions, err := s.programRepo.GetSessionsByProgramID(ctx, source.ID)
	if err != nil {
		return nil, err
	}
	rows, err := s.programRepo.GetWorkoutExercisesBySessionIDs(ctx, sessionIDs(sessions))
	if err != nil {
		return nil, err
	}

	// Resolve which referenced exercises still exist; missing ones are
	// dropped from the copy without failing the clone.
	existing := make(map[primitive.ObjectID]bool)
	if len(rows) > 0 {
		ids := make([]primitive.ObjectID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ExerciseID)
		}
		found, err := s.exerciseRepo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, ex := range found {
			existing[ex.ID] = true
		}
	}

	clone := *source
	clone.ID = primitive.NilObjectID
	clone.Title = source.Title + " (Copy)"
	clone.Slug = slugify(clone.Title) + "-" + uuid.NewString()[:8]
	clone.CreatedBy = actorID
	clone.IsActive = false
	clone.IsPublic = false
	clone.IsPublished = false
	clone.IsVerified = false
	clone.IsCustom = true
	clone.VideoKey = ""

	err = s.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.programRepo.Create(ctx, &clone); err != nil {
			return err
		}
		for _, src := range sessions {
			newSession := src
			newSession.ID = primitive.NilObjectID
			newSession.ProgramID = &clone.ID
			newSession.CreatedBy = actorID
			if _, err := s.programRepo.CreateSession(ctx, &newSession); err != nil {
				return err
			}

			var copied []domain.WorkoutExercise
			for _, row := range rows {
				if row.SessionID != src.ID || !existing[row.ExerciseID] {
					continue
				}
				newRow := row
				newRow.ID = primitive.NilObjectID
				newRow.SessionID = newSession.ID
				copied = append(copied, newRow)
			}
			if err := s.programRepo.CreateWorkoutExercises(ctx, copied); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.detail(ctx, &clone)
}

// Delete soft-deletes a program owned by the actor. Its sessions stay behind
// orphaned so assignment history pointing at them remains resolvable.
func (s *programService) Delete(ctx context.Context, actorID, id primitive.ObjectID) error {
	if _, err := s.ownedProgram(ctx, actorID, id); err != nil {
		return err
	}

	return s.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.programRepo.Deactivate(ctx, id, actorID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NotFound("program not found")
			}
			return err
		}
		return s.programRepo.DetachSessionsFromProgram(ctx, id)
	})
}

// Publish makes a program owned by the actor publicly visible.
func (s *programService) Publish(ctx context.Context, actorID, id primitive.ObjectID) (*domain.WorkoutProgram, error) {
	program, err := s.ownedProgram(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	program.IsActive = true
	program.IsPublic = true
	program.IsPublished = true
	if err := s.programRepo.Update(ctx, program); err != nil {
		return nil, err
	}
	return program, nil
}

// VideoUploadURL issues a presigned PUT URL for the program intro video and
// records the object key on the program.
func (s *programService) VideoUploadURL(ctx context.Context, actorID, id primitive.ObjectID, filename, contentType string) (string, string, error) {
	program, err := s.ownedProgram(ctx, actorID, id)
	if err != nil {
		return "", "", err
	}
	if contentType == "" {
		return "", "", apperr.BadRequest("content type is required")
	}

	objectKey := storage.ProgramVideoKey(actorID, id, filename)
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", "", err
	}

	program.VideoKey = objectKey
	if err := s.programRepo.Update(ctx, program); err != nil {
		return "", "", err
	}
	return uploadURL, objectKey, nil
}

// validateExerciseRefs checks every referenced exercise id before any write.
// The first unknown id fails the whole call, naming the id.
func (s *programService) validateExerciseRefs(ctx context.Context, sessions []SessionInput) error {
	seen := make(map[primitive.ObjectID]bool)
	var ids []primitive.ObjectID
	for _, session := range sessions {
		for _, ex := range session.Exercises {
			if !seen[ex.ExerciseID] {
				seen[ex.ExerciseID] = true
				ids = append(ids, ex.ExerciseID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	found, err := s.exerciseRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	existing := make(map[primitive.ObjectID]bool, len(found))
	for _, ex := range found {
		existing[ex.ID] = true
	}
	for _, session := range sessions {
		for _, ex := range session.Exercises {
			if !existing[ex.ExerciseID] {
				return apperr.NotFound("exercise " + ex.ExerciseID.Hex() + " not found")
			}
		}
	}
	return nil
}

func (s *programService) createSessionTree(ctx context.Context, program *domain.WorkoutProgram, sessions []SessionInput) error {
	for _, input := range sessions {
		session := &domain.WorkoutSession{
			ProgramID:   &program.ID,
			CreatedBy:   program.CreatedBy,
			Title:       input.Title,
			Notes:       input.Notes,
			WeekNumber:  input.WeekNumber,
			SessionType: input.SessionType,
			Duration:    input.Duration,
			Intensity:   input.Intensity,
			Location:    input.Location,
			Equipments:  input.Equipments,
			IsRestDay:   input.IsRestDay,
		}
		if _, err := s.programRepo.CreateSession(ctx, session); err != nil {
			return err
		}

		rows := make([]domain.WorkoutExercise, 0, len(input.Exercises))
		for seq, ex := range input.Exercises {
			rows = append(rows, domain.WorkoutExercise{
				SessionID:  session.ID,
				ExerciseID: ex.ExerciseID,
				Sets:       ex.Sets,
				Reps:       ex.Reps,
				Duration:   ex.Duration,
				RestTime:   ex.RestTime,
				Tempo:      ex.Tempo,
				Seq:        seq,
			})
		}
		if err := s.programRepo.CreateWorkoutExercises(ctx, rows); err != nil {
			return err
		}
	}
	return nil
}

func (s *programService) detail(ctx context.Context, program *domain.WorkoutProgram) (*ProgramDetail, error) {
	sessions, err := s.programRepo.GetSessionsByProgramID(ctx, program.ID)
	if err != nil {
		return nil, err
	}
	rows, err := s.programRepo.GetWorkoutExercisesBySessionIDs(ctx, sessionIDs(sessions))
	if err != nil {
		return nil, err
	}

	bySession := make(map[primitive.ObjectID][]domain.WorkoutExercise)
	for _, row := range rows {
		bySession[row.SessionID] = append(bySession[row.SessionID], row)
	}

	detail := &ProgramDetail{Program: *program}
	for _, session := range sessions {
		detail.Sessions = append(detail.Sessions, SessionDetail{
			Session:   session,
			Exercises: bySession[session.ID],
		})
	}
	return detail, nil
}

func (s *programService) ownedProgram(ctx context.Context, actorID, id primitive.ObjectID) (*domain.WorkoutProgram, error) {
	program, err := s.programRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("program not found")
		}
		return nil, err
	}
	if program.CreatedBy != actorID {
		return nil, apperr.Forbidden("you do not own this program")
	}
	return program, nil
}

func sessionIDs(sessions []domain.WorkoutSession) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return ids
}
