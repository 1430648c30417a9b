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

const assignmentCollectionName = "program_assignments"

// mongoAssignmentRepository implements repository.AssignmentRepository
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new Assignment repository backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

// CreateActive inserts a new active assignment. The partial unique index on
// (clientId, programId) where isActive makes concurrent duplicate assignment
// attempts lose with ErrDuplicate.
func (r *mongoAssignmentRepository) CreateActive(ctx context.Context, assignment *domain.ProgramAssignment) (primitive.ObjectID, error) {
	if assignment.ClientID == primitive.NilObjectID || assignment.ProgramID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("client ID and program ID are required")
	}

	assignment.ID = primitive.NewObjectID()
	assignment.IsActive = true
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, assignment)
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

// GetByID retrieves an assignment by its ID.
func (r *mongoAssignmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramAssignment, error) {
	var assignment domain.ProgramAssignment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetActive retrieves the active assignment for a client-program pair, if any.
func (r *mongoAssignmentRepository) GetActive(ctx context.Context, clientID, programID primitive.ObjectID) (*domain.ProgramAssignment, error) {
	var assignment domain.ProgramAssignment
	filter := bson.M{"clientId": clientID, "programId": programID, "isActive": true}

	err := r.collection.FindOne(ctx, filter).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// GetLatest retrieves the most recent assignment for a client-program pair
// regardless of its active flag. Used to reactivate a previously unassigned
// row instead of inserting a second one.
func (r *mongoAssignmentRepository) GetLatest(ctx context.Context, clientID, programID primitive.ObjectID) (*domain.ProgramAssignment, error) {
	var assignment domain.ProgramAssignment
	filter := bson.M{"clientId": clientID, "programId": programID}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "assignedAt", Value: -1}})

	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// Reactivate flips an inactive assignment back to active, refreshing the
// coach attribution and assignment time. The isActive guard makes the flip
// conditional so a concurrent reactivation loses with ErrUpdateFailed.
func (r *mongoAssignmentRepository) Reactivate(ctx context.Context, id primitive.ObjectID, coachID, requestID *primitive.ObjectID, assignedAt time.Time) error {
	filter := bson.M{"_id": id, "isActive": false}
	update := bson.M{
		"$set": bson.M{
			"isActive":              true,
			"coachId":               coachID,
			"coachServiceRequestId": requestID,
			"assignedAt":            assignedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrUpdateFailed
	}
	return nil
}

// Deactivate turns an active assignment off.
func (r *mongoAssignmentRepository) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id, "isActive": true}
	update := bson.M{"$set": bson.M{"isActive": false}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrUpdateFailed
	}
	return nil
}

// ListHistory retrieves assignments matching the filter, newest first.
func (r *mongoAssignmentRepository) ListHistory(ctx context.Context, f repository.AssignmentFilter, offset, limit int64) ([]domain.ProgramAssignment, int64, error) {
	filter := bson.M{}

	if f.ClientID != nil {
		filter["clientId"] = *f.ClientID
	}
	if f.CoachID != nil {
		filter["coachId"] = *f.CoachID
	}
	if f.ProgramID != nil {
		filter["programId"] = *f.ProgramID
	}
	if f.IsActive != nil {
		filter["isActive"] = *f.IsActive
	}
	if f.FromDate != nil || f.ToDate != nil {
		assignedAt := bson.M{}
		if f.FromDate != nil {
			assignedAt["$gte"] = f.FromDate.UTC().Truncate(24 * time.Hour)
		}
		if f.ToDate != nil {
			// Inclusive upper bound: anything before the start of the next day.
			assignedAt["$lt"] = f.ToDate.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
		}
		filter["assignedAt"] = assignedAt
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "assignedAt", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var assignments []domain.ProgramAssignment
	if err = cursor.All(ctx, &assignments); err != nil {
		return nil, 0, err
	}
	return assignments, total, nil
}

// EnsureAssignmentIndexes creates necessary indexes for the program_assignments collection.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// At most one ACTIVE assignment per client-program pair. Inactive
			// history rows are exempt via the partial filter.
			Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "programId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"isActive": true}),
		},
		{
			// At most one assignment fulfilling a given paid service request.
			Keys: bson.D{{Key: "coachServiceRequestId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"coachServiceRequestId": bson.M{"$type": "objectId"}}),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "assignedAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "assignedAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
