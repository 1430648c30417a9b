package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Exercise is a library entity. Public exercises are visible to everyone;
// private ones only to their creator. Deletion is soft (IsActive=false) so
// workout exercises referencing a removed entry keep a resolvable id.
type Exercise struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Slug         string             `bson:"slug,omitempty" json:"slug,omitempty"`
	Instructions []string           `bson:"instructions,omitempty" json:"instructions,omitempty"`
	MuscleGroups []string           `bson:"muscleGroups,omitempty" json:"muscleGroups,omitempty"`
	Level        string             `bson:"level,omitempty" json:"level,omitempty"`
	Intensity    string             `bson:"intensity,omitempty" json:"intensity,omitempty"`
	VideoKey     string             `bson:"videoKey,omitempty" json:"-"` // object storage key

	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`

	IsActive   bool `bson:"isActive" json:"isActive"`
	IsPublic   bool `bson:"isPublic" json:"isPublic"`
	IsCustom   bool `bson:"isCustom" json:"isCustom"`
	IsVerified bool `bson:"isVerified" json:"isVerified"`

	Popularity int `bson:"popularity" json:"popularity"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// VisibleTo reports whether the exercise can be read by the given user.
func (e *Exercise) VisibleTo(userID primitive.ObjectID) bool {
	return e.IsPublic || e.CreatedBy == userID
}
