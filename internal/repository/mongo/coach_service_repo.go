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
	coachServiceCollectionName        = "coach_services"
	coachServiceRequestCollectionName = "coach_service_requests"
)

// mongoCoachServiceRepository implements repository.CoachServiceRepository
type mongoCoachServiceRepository struct {
	collection *mongo.Collection
}

// NewMongoCoachServiceRepository creates a new CoachService repository backed by MongoDB.
func NewMongoCoachServiceRepository(db *mongo.Database) repository.CoachServiceRepository {
	return &mongoCoachServiceRepository{
		collection: db.Collection(coachServiceCollectionName),
	}
}

// Create inserts a new coach service offering.
func (r *mongoCoachServiceRepository) Create(ctx context.Context, svc *domain.CoachService) (primitive.ObjectID, error) {
	if svc.Title == "" || svc.CoachID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("service title and coach ID are required")
	}

	svc.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	svc.CreatedAt = now
	svc.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, svc)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a coach service by its ID.
func (r *mongoCoachServiceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachService, error) {
	var svc domain.CoachService
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&svc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &svc, nil
}

// Update modifies an existing coach service. The coach is never changed.
func (r *mongoCoachServiceRepository) Update(ctx context.Context, svc *domain.CoachService) error {
	if svc.ID == primitive.NilObjectID {
		return errors.New("service ID is required for update")
	}

	filter := bson.M{"_id": svc.ID}
	update := bson.M{
		"$set": bson.M{
			"title":           svc.Title,
			"description":     svc.Description,
			"priceCents":      svc.PriceCents,
			"currency":        svc.Currency,
			"durationMinutes": svc.DurationMinutes,
			"isActive":        svc.IsActive,
			"updatedAt":       time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// GetByCoachID retrieves a coach's services, newest first.
func (r *mongoCoachServiceRepository) GetByCoachID(ctx context.Context, coachID primitive.ObjectID, activeOnly bool) ([]domain.CoachService, error) {
	filter := bson.M{"coachId": coachID}
	if activeOnly {
		filter["isActive"] = true
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var services []domain.CoachService
	if err = cursor.All(ctx, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// mongoCoachServiceRequestRepository implements repository.CoachServiceRequestRepository
type mongoCoachServiceRequestRepository struct {
	collection *mongo.Collection
}

// NewMongoCoachServiceRequestRepository creates a new CoachServiceRequest repository backed by MongoDB.
func NewMongoCoachServiceRequestRepository(db *mongo.Database) repository.CoachServiceRequestRepository {
	return &mongoCoachServiceRequestRepository{
		collection: db.Collection(coachServiceRequestCollectionName),
	}
}

// Create inserts a new service request.
func (r *mongoCoachServiceRequestRepository) Create(ctx context.Context, req *domain.CoachServiceRequest) (primitive.ObjectID, error) {
	if req.ClientID == primitive.NilObjectID || req.ServiceID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("client ID and service ID are required")
	}

	req.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a service request by its ID.
func (r *mongoCoachServiceRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachServiceRequest, error) {
	var req domain.CoachServiceRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// GetByPaymentID retrieves the request linked to a payment transaction.
func (r *mongoCoachServiceRequestRepository) GetByPaymentID(ctx context.Context, paymentID primitive.ObjectID) (*domain.CoachServiceRequest, error) {
	var req domain.CoachServiceRequest
	err := r.collection.FindOne(ctx, bson.M{"paymentId": paymentID}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// UpdateStatus performs a conditional status transition. The from guard makes
// the transition race-safe: a request consumed by a concurrent caller no
// longer matches and the update reports ErrUpdateFailed.
func (r *mongoCoachServiceRequestRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.RequestStatus) error {
	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrUpdateFailed
	}
	return nil
}

// SetPayment links a payment transaction to the request.
func (r *mongoCoachServiceRequestRepository) SetPayment(ctx context.Context, id, paymentID primitive.ObjectID) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"paymentId": paymentID, "updatedAt": time.Now().UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListByClient retrieves a client's requests, newest first, paginated.
func (r *mongoCoachServiceRequestRepository) ListByClient(ctx context.Context, clientID primitive.ObjectID, offset, limit int64) ([]domain.CoachServiceRequest, int64, error) {
	return r.list(ctx, bson.M{"clientId": clientID}, offset, limit)
}

// ListByCoach retrieves requests addressed to a coach, newest first, paginated.
func (r *mongoCoachServiceRequestRepository) ListByCoach(ctx context.Context, coachID primitive.ObjectID, offset, limit int64) ([]domain.CoachServiceRequest, int64, error) {
	return r.list(ctx, bson.M{"coachId": coachID}, offset, limit)
}

func (r *mongoCoachServiceRequestRepository) list(ctx context.Context, filter bson.M, offset, limit int64) ([]domain.CoachServiceRequest, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(offset).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var requests []domain.CoachServiceRequest
	if err = cursor.All(ctx, &requests); err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// EnsureCoachServiceIndexes creates necessary indexes for the coach service collections.
func EnsureCoachServiceIndexes(ctx context.Context, db *mongo.Database) error {
	serviceIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := db.Collection(coachServiceCollectionName).Indexes().CreateMany(ctx, serviceIndexes); err != nil {
		return err
	}

	requestIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys: bson.D{{Key: "paymentId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"paymentId": bson.M{"$type": "objectId"}}),
		},
	}
	_, err := db.Collection(coachServiceRequestCollectionName).Indexes().CreateMany(ctx, requestIndexes)
	return err
}
