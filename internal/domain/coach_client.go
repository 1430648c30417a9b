package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachClient is the directed coach→client edge. One row per pair (unique),
// soft-deactivated rather than deleted so the relationship history survives.
type CoachClient struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID   primitive.ObjectID `bson:"coachId" json:"coachId"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
