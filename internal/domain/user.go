package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Capability is a role tag a user may hold. Users can hold several at once
// (a coach may also own a gym), so roles are modelled as a set of flags
// rather than a single enum.
type Capability string

const (
	CapCoach    Capability = "coach"
	CapGymOwner Capability = "gym_owner"
	CapStaff    Capability = "staff"
)

// CoachProfile holds the coach-specific public profile, embedded in the user
// document. Present only when the user has the coach capability.
type CoachProfile struct {
	Bio               string   `bson:"bio,omitempty" json:"bio,omitempty"`
	Specialties       []string `bson:"specialties,omitempty" json:"specialties,omitempty"`
	YearsOfExperience int      `bson:"yearsOfExperience" json:"yearsOfExperience"`
	PriceCents        int64    `bson:"priceCents" json:"priceCents"`
	IsVerified        bool     `bson:"isVerified" json:"isVerified"`
}

// User represents any account on the platform: clients, coaches and gym owners.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"` // unique
	PasswordHash string             `bson:"passwordHash" json:"-"`
	FullName     string             `bson:"fullName" json:"fullName"`
	PhoneNumber  string             `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Biography    string             `bson:"biography,omitempty" json:"biography,omitempty"`

	IsCoach    bool `bson:"isCoach" json:"isCoach"`
	IsGymOwner bool `bson:"isGymOwner" json:"isGymOwner"`
	IsStaff    bool `bson:"isStaff" json:"isStaff"`
	IsActive   bool `bson:"isActive" json:"isActive"`

	CoachProfile *CoachProfile `bson:"coachProfile,omitempty" json:"coachProfile,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Capabilities returns the set of capability tags derived from the role flags.
func (u *User) Capabilities() []Capability {
	caps := make([]Capability, 0, 3)
	if u.IsCoach {
		caps = append(caps, CapCoach)
	}
	if u.IsGymOwner {
		caps = append(caps, CapGymOwner)
	}
	if u.IsStaff {
		caps = append(caps, CapStaff)
	}
	return caps
}

// HasCapability reports whether the user holds the given capability tag.
func (u *User) HasCapability(c Capability) bool {
	switch c {
	case CapCoach:
		return u.IsCoach
	case CapGymOwner:
		return u.IsGymOwner
	case CapStaff:
		return u.IsStaff
	}
	return false
}
