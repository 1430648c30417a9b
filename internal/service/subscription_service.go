package service

import (
	"context"
	"errors"

	"peakform/coaching-platform/internal/apperr"
	"peakform/coaching-platform/internal/domain"
	"peakform/coaching-platform/internal/payments"
	"peakform/coaching-platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionService manages the plan catalog and user subscriptions.
// Activation and extension after payment happen in the settlement pipeline.
type SubscriptionService interface {
	ListPlans(ctx context.Context) ([]domain.SubscriptionPlan, error)
	Subscribe(ctx context.Context, userID, planID primitive.ObjectID) (checkoutURL string, err error)
	MySubscriptions(ctx context.Context, userID primitive.ObjectID) ([]domain.Subscription, error)
	Cancel(ctx context.Context, userID, planID primitive.ObjectID) (*domain.Subscription, error)
}

type subscriptionService struct {
	planRepo repository.SubscriptionPlanRepository
	subRepo  repository.SubscriptionRepository
	txRepo   repository.TransactionRepository
	userRepo repository.UserRepository
	gateway  payments.Gateway
}

// NewSubscriptionService creates a new instance of subscriptionService.
func NewSubscriptionService(
	planRepo repository.SubscriptionPlanRepository,
	subRepo repository.SubscriptionRepository,
	txRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	gateway payments.Gateway,
) SubscriptionService {
	return &subscriptionService{
		planRepo: planRepo,
		subRepo:  subRepo,
		txRepo:   txRepo,
		userRepo: userRepo,
		gateway:  gateway,
	}
}

// ListPlans lists purchasable plans, cheapest first.
func (s *subscriptionService) ListPlans(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	return s.planRepo.ListActive(ctx)
}

// Subscribe opens a checkout session for a plan. The subscription itself is
// created or extended only when the payment settles.
func (s *subscriptionService) Subscribe(ctx context.Context, userID, planID primitive.ObjectID) (string, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.NotFound("subscription plan not found")
		}
		return "", err
	}
	if !plan.IsActive {
		return "", apperr.NotFound("subscription plan not found")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	tx := &domain.PaymentTransaction{
		UserID:      userID,
		AmountCents: plan.PriceCents,
		Currency:    plan.Currency,
		PaymentType: domain.PaymentTypeSubscription,
		Status:      domain.TransactionPending,
		Metadata: map[string]string{
			"plan_id": plan.ID.Hex(),
		},
	}
	txID, err := s.txRepo.Create(ctx, tx)
	if err != nil {
		return "", err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutParams{
		AmountCents:   plan.PriceCents,
		Currency:      plan.Currency,
		ProductName:   plan.Title,
		CustomerEmail: user.Email,
		Metadata: map[string]string{
			"transaction_id": txID.Hex(),
			"plan_id":        plan.ID.Hex(),
		},
	})
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

// MySubscriptions lists the user's active subscriptions.
func (s *subscriptionService) MySubscriptions(ctx context.Context, userID primitive.ObjectID) ([]domain.Subscription, error) {
	return s.subRepo.GetActiveByUser(ctx, userID)
}

// Cancel marks the user's subscription under a plan as cancelled. Access
// already granted runs out at the existing end date.
func (s *subscriptionService) Cancel(ctx context.Context, userID, planID primitive.ObjectID) (*domain.Subscription, error) {
	sub, err := s.subRepo.GetByUserAndPlan(ctx, userID, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("subscription not found")
		}
		return nil, err
	}
	if sub.Status != domain.SubscriptionActive {
		return nil, apperr.BadRequest("subscription is not active")
	}

	sub.Status = domain.SubscriptionCancelled
	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}
