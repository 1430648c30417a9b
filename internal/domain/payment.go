package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentType distinguishes what a transaction pays for.
type PaymentType string

const (
	PaymentTypeSubscription PaymentType = "subscription"
	PaymentTypeCoachService PaymentType = "coach_service"
)

// TransactionStatus is the lifecycle state of a payment transaction.
type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionPaid     TransactionStatus = "paid"
	TransactionFailed   TransactionStatus = "failed"
	TransactionRefunded TransactionStatus = "refunded"
)

// RequestStatus is the lifecycle state of a coach service request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestRejected  RequestStatus = "rejected"
	RequestPaid      RequestStatus = "paid"
	RequestCompleted RequestStatus = "completed"
)

// SplitType labels the beneficiary side of a revenue split row.
type SplitType string

const (
	SplitCoach    SplitType = "coach"
	SplitPlatform SplitType = "platform"
	SplitAI       SplitType = "ai"
)

// CoachService is a priced offering a coach sells to clients.
type CoachService struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID         primitive.ObjectID `bson:"coachId" json:"coachId"`
	Title           string             `bson:"title" json:"title"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	PriceCents      int64              `bson:"priceCents" json:"priceCents"`
	Currency        string             `bson:"currency" json:"currency"`
	DurationMinutes int                `bson:"durationMinutes" json:"durationMinutes"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CoachServiceRequest is a client's request to purchase a coach service.
// Title and price are denormalized from the service at creation time so the
// request keeps its terms even if the service changes later.
type CoachServiceRequest struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID   primitive.ObjectID  `bson:"clientId" json:"clientId"`
	ServiceID  primitive.ObjectID  `bson:"serviceId" json:"serviceId"`
	CoachID    primitive.ObjectID  `bson:"coachId" json:"coachId"`
	Title      string              `bson:"title" json:"title"`
	PriceCents int64               `bson:"priceCents" json:"priceCents"`
	Currency   string              `bson:"currency" json:"currency"`
	Status     RequestStatus       `bson:"status" json:"status"`
	PaymentID  *primitive.ObjectID `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	CreatedAt  time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// PaymentTransaction records one charge attempt. Amounts are integer cents so
// split arithmetic is exact. Immutable once created except for the status
// transition and metadata merge-updates.
type PaymentTransaction struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"userId" json:"userId"`

	AmountCents int64  `bson:"amountCents" json:"amountCents"`
	Currency    string `bson:"currency" json:"currency"`

	PaymentType PaymentType       `bson:"paymentType" json:"paymentType"`
	Status      TransactionStatus `bson:"status" json:"status"`

	Provider          string `bson:"provider" json:"provider"`
	ProviderPaymentID string `bson:"providerPaymentId,omitempty" json:"providerPaymentId,omitempty"`

	Metadata map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// RevenueSplit is one beneficiary's share of a paid transaction. Written only
// by the settlement pipeline, never edited.
type RevenueSplit struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TransactionID primitive.ObjectID `bson:"transactionId" json:"transactionId"`
	BeneficiaryID primitive.ObjectID `bson:"beneficiaryId" json:"beneficiaryId"`
	AmountCents   int64              `bson:"amountCents" json:"amountCents"`
	SplitType     SplitType          `bson:"splitType" json:"splitType"`
	Percentage    int                `bson:"percentage" json:"percentage"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
