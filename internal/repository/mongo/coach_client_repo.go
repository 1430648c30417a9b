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

const coachClientCollectionName = "coach_clients"

// mongoCoachClientRepository implements repository.CoachClientRepository
type mongoCoachClientRepository struct {
	collection *mongo.Collection
}

// NewMongoCoachClientRepository creates a new CoachClient repository backed by MongoDB.
func NewMongoCoachClientRepository(db *mongo.Database) repository.CoachClientRepository {
	return &mongoCoachClientRepository{
		collection: db.Collection(coachClientCollectionName),
	}
}

// Create inserts a new coach-client link. The unique index on the pair
// surfaces ErrDuplicate when a link (active or not) already exists.
func (r *mongoCoachClientRepository) Create(ctx context.Context, link *domain.CoachClient) (primitive.ObjectID, error) {
	if link.CoachID == primitive.NilObjectID || link.ClientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("coach ID and client ID are required")
	}

	link.ID = primitive.NewObjectID()
	link.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, link)
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

// GetByPair retrieves the link between a coach and a client, if any.
func (r *mongoCoachClientRepository) GetByPair(ctx context.Context, coachID, clientID primitive.ObjectID) (*domain.CoachClient, error) {
	var link domain.CoachClient
	filter := bson.M{"coachId": coachID, "clientId": clientID}

	err := r.collection.FindOne(ctx, filter).Decode(&link)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

// Update modifies the notes and active flag of an existing link.
func (r *mongoCoachClientRepository) Update(ctx context.Context, link *domain.CoachClient) error {
	if link.ID == primitive.NilObjectID {
		return errors.New("link ID is required for update")
	}

	filter := bson.M{"_id": link.ID}
	update := bson.M{
		"$set": bson.M{
			"notes":    link.Notes,
			"isActive": link.IsActive,
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

// GetClientsByCoachID retrieves all active links for a coach, newest first.
func (r *mongoCoachClientRepository) GetClientsByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.CoachClient, error) {
	return r.findLinks(ctx, bson.M{"coachId": coachID, "isActive": true})
}

// GetCoachesByClientID retrieves all active links for a client, newest first.
func (r *mongoCoachClientRepository) GetCoachesByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.CoachClient, error) {
	return r.findLinks(ctx, bson.M{"clientId": clientID, "isActive": true})
}

// HasActiveLink reports whether an active link exists between the pair.
func (r *mongoCoachClientRepository) HasActiveLink(ctx context.Context, coachID, clientID primitive.ObjectID) (bool, error) {
	filter := bson.M{"coachId": coachID, "clientId": clientID, "isActive": true}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *mongoCoachClientRepository) findLinks(ctx context.Context, filter bson.M) ([]domain.CoachClient, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var links []domain.CoachClient
	if err = cursor.All(ctx, &links); err != nil {
		return nil, err
	}
	return links, nil
}

// EnsureCoachClientIndexes creates necessary indexes for the coach_clients collection.
func EnsureCoachClientIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// One link per coach-client pair; deactivation is a soft flag.
			Keys:    bson.D{{Key: "coachId", Value: 1}, {Key: "clientId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
