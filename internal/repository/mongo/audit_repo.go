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

const auditCollectionName = "assignment_audits"

// mongoAuditRepository implements repository.AuditRepository
type mongoAuditRepository struct {
	collection *mongo.Collection
}

// NewMongoAuditRepository creates a new Audit repository backed by MongoDB.
func NewMongoAuditRepository(db *mongo.Database) repository.AuditRepository {
	return &mongoAuditRepository{
		collection: db.Collection(auditCollectionName),
	}
}

// Create appends an audit entry. Entries are never updated or deleted.
func (r *mongoAuditRepository) Create(ctx context.Context, entry *domain.AssignmentAudit) (primitive.ObjectID, error) {
	if entry.Action == "" {
		return primitive.NilObjectID, errors.New("audit action is required")
	}

	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByAssignmentID retrieves the audit trail of one assignment, newest first.
func (r *mongoAuditRepository) GetByAssignmentID(ctx context.Context, assignmentID primitive.ObjectID) ([]domain.AssignmentAudit, error) {
	filter := bson.M{"assignmentId": assignmentID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []domain.AssignmentAudit
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureAuditIndexes creates necessary indexes for the assignment_audits collection.
func EnsureAuditIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "assignmentId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
