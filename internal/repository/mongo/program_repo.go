package mongo

import (
	"context"
	"errors"
	"time"

	"peakform/coaching-platform/internal/domain"
	"peakform/coaching-platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	programCollectionName         = "workout_programs"
	sessionCollectionName         = "workout_sessions"
	workoutExerciseCollectionName = "workout_exercises"
)

// mongoProgramRepository implements repository.ProgramRepository across the
// program, session and per-session exercise collections.
type mongoProgramRepository struct {
	programs  *mongo.Collection
	sessions  *mongo.Collection
	exercises *mongo.Collection
}

// NewMongoProgramRepository creates a new Program repository backed by MongoDB.
func NewMongoProgramRepository(db *mongo.Database) repository.ProgramRepository {
	return &mongoProgramRepository{
		programs:  db.Collection(programCollectionName),
		sessions:  db.Collection(sessionCollectionName),
		exercises: db.Collection(workoutExerciseCollectionName),
	}
}

// Create inserts a new workout program.
func (r *mongoProgramRepository) Create(ctx context.Context, program *domain.WorkoutProgram) (primitive.ObjectID, error) {
	if program.Title == "" || program.CreatedBy == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("program title and creator ID are required")
	}

	program.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	program.CreatedAt = now
	program.UpdatedAt = now

	result, err := r.programs.InsertOne(ctx, program)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a program by its ID.
func (r *mongoProgramRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutProgram, error) {
	var program domain.WorkoutProgram
	err := r.programs.FindOne(ctx, bson.M{"_id": id}).Decode(&program)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &program, nil
}

// Update modifies an existing program. The creator is never changed.
func (r *mongoProgramRepository) Update(ctx context.Context, program *domain.WorkoutProgram) error {
	if program.ID == primitive.NilObjectID {
		return errors.New("program ID is required for update")
	}

	filter := bson.M{"_id": program.ID}
	update := bson.M{
		"$set": bson.M{
			"title":         program.Title,
			"slug":          program.Slug,
			"description":   program.Description,
			"priceCents":    program.PriceCents,
			"offPercent":    program.OffPercent,
			"duration":      program.Duration,
			"durationWeeks": program.DurationWeeks,
			"level":         program.Level,
			"goal":          program.Goal,
			"location":      program.Location,
			"equipment":     program.Equipment,
			"videoKey":      program.VideoKey,
			"isActive":      program.IsActive,
			"isPublished":   program.IsPublished,
			"isPublic":      program.IsPublic,
			"updatedAt":     time.Now().UTC(),
		},
	}

	result, err := r.programs.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a program, ensuring the caller owns it.
func (r *mongoProgramRepository) Deactivate(ctx context.Context, id, ownerID primitive.ObjectID) error {
	filter := bson.M{"_id": id, "createdBy": ownerID, "isActive": true}
	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}}

	result, err := r.programs.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List retrieves programs matching the filter, paginated, newest first.
// Inactive drafts are excluded unless the owner asks for their own.
func (r *mongoProgramRepository) List(ctx context.Context, f repository.ProgramFilter, offset, limit int64) ([]domain.WorkoutProgram, int64, error) {
	filter := bson.M{}
	if !f.IncludeInactive {
		filter["isActive"] = true
	}

	if f.OwnerID != nil {
		filter["createdBy"] = *f.OwnerID
	} else if f.ViewerID != nil {
		filter["$or"] = bson.A{
			bson.M{"isPublic": true},
			bson.M{"createdBy": *f.ViewerID},
		}
	} else {
		filter["isPublic"] = true
	}

	if f.Level != "" {
		filter["level"] = f.Level
	}
	if f.Goal != "" {
		filter["goal"] = f.Goal
	}
	if f.Search != "" {
		filter["title"] = bson.M{"$regex": f.Search, "$options": "i"}
	}
	if f.Published != nil {
		filter["isPublished"] = *f.Published
	}

	total, err := r.programs.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cursor, err := r.programs.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var programs []domain.WorkoutProgram
	if err = cursor.All(ctx, &programs); err != nil {
		return nil, 0, err
	}
	return programs, total, nil
}

// CreateSession inserts a new workout session.
func (r *mongoProgramRepository) CreateSession(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	if session.Title == "" || session.CreatedBy == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("session title and creator ID are required")
	}

	session.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	result, err := r.sessions.InsertOne(ctx, session)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetSessionsByProgramID retrieves a program's sessions ordered by week, then
// by creation time within a week.
func (r *mongoProgramRepository) GetSessionsByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	filter := bson.M{"programId": programID}
	findOptions := options.Find().SetSort(bson.D{{Key: "weekNumber", Value: 1}, {Key: "createdAt", Value: 1}})

	cursor, err := r.sessions.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var sessions []domain.WorkoutSession
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// DetachSessionsFromProgram orphans all sessions of a program by clearing
// their program reference. Used on program deletion so the session content
// survives for any history that points at it.
func (r *mongoProgramRepository) DetachSessionsFromProgram(ctx context.Context, programID primitive.ObjectID) error {
	filter := bson.M{"programId": programID}
	update := bson.M{"$set": bson.M{"programId": nil, "updatedAt": time.Now().UTC()}}

	_, err := r.sessions.UpdateMany(ctx, filter, update)
	return err
}

// DeleteSessionsByProgramID removes all sessions of a program. Used when a
// program's session tree is replaced wholesale.
func (r *mongoProgramRepository) DeleteSessionsByProgramID(ctx context.Context, programID primitive.ObjectID) error {
	_, err := r.sessions.DeleteMany(ctx, bson.M{"programId": programID})
	return err
}

// CreateWorkoutExercises bulk-inserts per-session exercise rows.
func (r *mongoProgramRepository) CreateWorkoutExercises(ctx context.Context, rows []domain.WorkoutExercise) error {
	if len(rows) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(rows))
	now := time.Now().UTC()
	for i := range rows {
		rows[i].ID = primitive.NewObjectID()
		rows[i].CreatedAt = now
		docs = append(docs, rows[i])
	}

	_, err := r.exercises.InsertMany(ctx, docs)
	return err
}

// GetWorkoutExercisesBySessionIDs retrieves exercise rows for the given
// sessions in their authored order.
func (r *mongoProgramRepository) GetWorkoutExercisesBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) ([]domain.WorkoutExercise, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	filter := bson.M{"sessionId": bson.M{"$in": sessionIDs}}
	findOptions := options.Find().SetSort(bson.D{{Key: "sessionId", Value: 1}, {Key: "seq", Value: 1}})

	cursor, err := r.exercises.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []domain.WorkoutExercise
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteWorkoutExercisesBySessionIDs removes all exercise rows for the given sessions.
func (r *mongoProgramRepository) DeleteWorkoutExercisesBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	_, err := r.exercises.DeleteMany(ctx, bson.M{"sessionId": bson.M{"$in": sessionIDs}})
	return err
}

// EnsureProgramIndexes creates necessary indexes for the program collections.
func EnsureProgramIndexes(ctx context.Context, db *mongo.Database) error {
	programIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "createdBy", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "isPublic", Value: 1}, {Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	if _, err := db.Collection(programCollectionName).Indexes().CreateMany(ctx, programIndexes); err != nil {
		return err
	}

	sessionIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "programId", Value: 1}, {Key: "weekNumber", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := db.Collection(sessionCollectionName).Indexes().CreateMany(ctx, sessionIndexes); err != nil {
		return err
	}

	exerciseIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sessionId", Value: 1}, {Key: "seq", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := db.Collection(workoutExerciseCollectionName).Indexes().CreateMany(ctx, exerciseIndexes)
	return err
}
