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
	subscriptionPlanCollectionName = "subscription_plans"
	subscriptionCollectionName     = "subscriptions"
)

// mongoSubscriptionPlanRepository implements repository.SubscriptionPlanRepository
type mongoSubscriptionPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoSubscriptionPlanRepository creates a new SubscriptionPlan repository backed by MongoDB.
func NewMongoSubscriptionPlanRepository(db *mongo.Database) repository.SubscriptionPlanRepository {
	return &mongoSubscriptionPlanRepository{
		collection: db.Collection(subscriptionPlanCollectionName),
	}
}

// Create inserts a new subscription plan.
func (r *mongoSubscriptionPlanRepository) Create(ctx context.Context, plan *domain.SubscriptionPlan) (primitive.ObjectID, error) {
	if plan.Title == "" || plan.DurationDays <= 0 {
		return primitive.NilObjectID, errors.New("plan title and a positive duration are required")
	}

	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a plan by its ID.
func (r *mongoSubscriptionPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SubscriptionPlan, error) {
	var plan domain.SubscriptionPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ListActive retrieves purchasable plans ordered by price, cheapest first.
func (r *mongoSubscriptionPlanRepository) ListActive(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	filter := bson.M{"isActive": true}
	findOptions := options.Find().SetSort(bson.D{{Key: "priceCents", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var plans []domain.SubscriptionPlan
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// mongoSubscriptionRepository implements repository.SubscriptionRepository
type mongoSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubscriptionRepository creates a new Subscription repository backed by MongoDB.
func NewMongoSubscriptionRepository(db *mongo.Database) repository.SubscriptionRepository {
	return &mongoSubscriptionRepository{
		collection: db.Collection(subscriptionCollectionName),
	}
}

// Create inserts a new subscription. The unique index on (userId, planId)
// surfaces ErrDuplicate; renewals update the existing document instead.
func (r *mongoSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) (primitive.ObjectID, error) {
	if sub.UserID == primitive.NilObjectID || sub.PlanID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("user ID and plan ID are required")
	}

	sub.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, sub)
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

// GetByUserAndPlan retrieves the subscription of a user under a plan, if any.
func (r *mongoSubscriptionRepository) GetByUserAndPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.Subscription, error) {
	var sub domain.Subscription
	filter := bson.M{"userId": userID, "planId": planID}

	err := r.collection.FindOne(ctx, filter).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// GetActiveByUser retrieves a user's active subscriptions.
func (r *mongoSubscriptionRepository) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Subscription, error) {
	filter := bson.M{"userId": userID, "status": domain.SubscriptionActive}
	findOptions := options.Find().SetSort(bson.D{{Key: "endDate", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var subs []domain.Subscription
	if err = cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Update replaces the mutable fields of a subscription.
func (r *mongoSubscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	if sub.ID == primitive.NilObjectID {
		return errors.New("subscription ID is required for update")
	}

	filter := bson.M{"_id": sub.ID}
	update := bson.M{
		"$set": bson.M{
			"status":        sub.Status,
			"startDate":     sub.StartDate,
			"endDate":       sub.EndDate,
			"lastPaymentId": sub.LastPaymentID,
			"updatedAt":     time.Now().UTC(),
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

// EnsureSubscriptionIndexes creates necessary indexes for the subscription collections.
func EnsureSubscriptionIndexes(ctx context.Context, db *mongo.Database) error {
	planIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "isActive", Value: 1}, {Key: "priceCents", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := db.Collection(subscriptionPlanCollectionName).Indexes().CreateMany(ctx, planIndexes); err != nil {
		return err
	}

	subIndexes := []mongo.IndexModel{
		{
			// One subscription document per user-plan pair.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "planId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := db.Collection(subscriptionCollectionName).Indexes().CreateMany(ctx, subIndexes)
	return err
}
