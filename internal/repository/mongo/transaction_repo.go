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
	transactionCollectionName  = "payment_transactions"
	revenueSplitCollectionName = "revenue_splits"
)

// mongoTransactionRepository implements repository.TransactionRepository
type mongoTransactionRepository struct {
	collection *mongo.Collection
}

// NewMongoTransactionRepository creates a new Transaction repository backed by MongoDB.
func NewMongoTransactionRepository(db *mongo.Database) repository.TransactionRepository {
	return &mongoTransactionRepository{
		collection: db.Collection(transactionCollectionName),
	}
}

// Create inserts a new payment transaction.
func (r *mongoTransactionRepository) Create(ctx context.Context, tx *domain.PaymentTransaction) (primitive.ObjectID, error) {
	if tx.UserID == primitive.NilObjectID || tx.AmountCents <= 0 {
		return primitive.NilObjectID, errors.New("user ID and a positive amount are required")
	}

	tx.ID = primitive.NewObjectID()
	tx.CreatedAt = time.Now().UTC()
	if tx.Status == "" {
		tx.Status = domain.TransactionPending
	}
	if tx.Currency == "" {
		tx.Currency = "usd"
	}
	if tx.Provider == "" {
		tx.Provider = "stripe"
	}

	result, err := r.collection.InsertOne(ctx, tx)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByID retrieves a transaction by its ID.
func (r *mongoTransactionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PaymentTransaction, error) {
	var tx domain.PaymentTransaction
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// GetByProviderPaymentID retrieves a transaction by the provider's payment reference.
func (r *mongoTransactionRepository) GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*domain.PaymentTransaction, error) {
	var tx domain.PaymentTransaction
	err := r.collection.FindOne(ctx, bson.M{"providerPaymentId": providerPaymentID}).Decode(&tx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// MarkPaid flips a pending transaction to paid and records the provider's
// payment reference. The pending guard makes the flip happen at most once;
// a replayed webhook sees ErrUpdateFailed and settlement stops there.
func (r *mongoTransactionRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, providerPaymentID string) error {
	filter := bson.M{"_id": id, "status": domain.TransactionPending}
	update := bson.M{
		"$set": bson.M{
			"status":            domain.TransactionPaid,
			"providerPaymentId": providerPaymentID,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrUpdateFailed
	}
	return nil
}

// MarkFailed flips a pending transaction to failed.
func (r *mongoTransactionRepository) MarkFailed(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id, "status": domain.TransactionPending}
	update := bson.M{"$set": bson.M{"status": domain.TransactionFailed}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrUpdateFailed
	}
	return nil
}

// ListByUser retrieves a user's transactions, newest first, paginated.
func (r *mongoTransactionRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, offset, limit int64) ([]domain.PaymentTransaction, int64, error) {
	filter := bson.M{"userId": userID}

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

	var transactions []domain.PaymentTransaction
	if err = cursor.All(ctx, &transactions); err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// mongoRevenueSplitRepository implements repository.RevenueSplitRepository
type mongoRevenueSplitRepository struct {
	collection *mongo.Collection
}

// NewMongoRevenueSplitRepository creates a new RevenueSplit repository backed by MongoDB.
func NewMongoRevenueSplitRepository(db *mongo.Database) repository.RevenueSplitRepository {
	return &mongoRevenueSplitRepository{
		collection: db.Collection(revenueSplitCollectionName),
	}
}

// Create appends a split row. The unique index on (transactionId, splitType)
// surfaces ErrDuplicate so settlement can never double-credit a transaction.
func (r *mongoRevenueSplitRepository) Create(ctx context.Context, split *domain.RevenueSplit) (primitive.ObjectID, error) {
	if split.TransactionID == primitive.NilObjectID || split.BeneficiaryID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("transaction ID and beneficiary ID are required")
	}

	split.ID = primitive.NewObjectID()
	split.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, split)
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

// GetByTransactionID retrieves the split rows of one transaction.
func (r *mongoRevenueSplitRepository) GetByTransactionID(ctx context.Context, txID primitive.ObjectID) ([]domain.RevenueSplit, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"transactionId": txID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var splits []domain.RevenueSplit
	if err = cursor.All(ctx, &splits); err != nil {
		return nil, err
	}
	return splits, nil
}

// ListByBeneficiary retrieves split rows credited to a beneficiary, newest
// first, paginated.
func (r *mongoRevenueSplitRepository) ListByBeneficiary(ctx context.Context, beneficiaryID primitive.ObjectID, offset, limit int64) ([]domain.RevenueSplit, int64, error) {
	filter := bson.M{"beneficiaryId": beneficiaryID}

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

	var splits []domain.RevenueSplit
	if err = cursor.All(ctx, &splits); err != nil {
		return nil, 0, err
	}
	return splits, total, nil
}

// EnsurePaymentIndexes creates necessary indexes for the payment collections.
func EnsurePaymentIndexes(ctx context.Context, db *mongo.Database) error {
	txIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys: bson.D{{Key: "providerPaymentId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"providerPaymentId": bson.M{"$gt": ""}}),
		},
	}
	if _, err := db.Collection(transactionCollectionName).Indexes().CreateMany(ctx, txIndexes); err != nil {
		return err
	}

	splitIndexes := []mongo.IndexModel{
		{
			// One row per side of a split. Replayed settlements hit this.
			Keys:    bson.D{{Key: "transactionId", Value: 1}, {Key: "splitType", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "beneficiaryId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := db.Collection(revenueSplitCollectionName).Indexes().CreateMany(ctx, splitIndexes)
	return err
}
