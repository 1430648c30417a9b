package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionStatus is the lifecycle state of a user subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionInactive  SubscriptionStatus = "inactive"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// SubscriptionPlan is a purchasable access tier.
type SubscriptionPlan struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	PriceCents   int64              `bson:"priceCents" json:"priceCents"`
	Currency     string             `bson:"currency" json:"currency"`
	DurationDays int                `bson:"durationDays" json:"durationDays"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Subscription is one user's access window under a plan. A successful renewal
// payment extends EndDate rather than creating a second document, so a user
// has at most one subscription per plan.
type Subscription struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID  `bson:"userId" json:"userId"`
	PlanID        primitive.ObjectID  `bson:"planId" json:"planId"`
	Status        SubscriptionStatus  `bson:"status" json:"status"`
	StartDate     time.Time           `bson:"startDate" json:"startDate"`
	EndDate       time.Time           `bson:"endDate" json:"endDate"`
	LastPaymentID *primitive.ObjectID `bson:"lastPaymentId,omitempty" json:"lastPaymentId,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// IsCurrent reports whether the subscription grants access at the given time.
func (s *Subscription) IsCurrent(now time.Time) bool {
	return s.Status == SubscriptionActive && now.Before(s.EndDate)
}
