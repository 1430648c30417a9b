package service

import (
	"context"
	"errors"
	"time"

	"peakform/coaching-platform/internal/apperr"
	"peakform/coaching-platform/internal/domain"
	"peakform/coaching-platform/internal/payments"
	"peakform/coaching-platform/internal/repository"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentService settles verified payment events and reports transaction and
// earnings history. Settlement is idempotent: replaying an event produces no
// second side effect.
type PaymentService interface {
	HandleEvent(ctx context.Context, event *payments.Event) error
	ListMyTransactions(ctx context.Context, userID primitive.ObjectID, page Page) ([]domain.PaymentTransaction, int64, error)
	ListMyEarnings(ctx context.Context, beneficiaryID primitive.ObjectID, page Page) ([]domain.RevenueSplit, int64, error)
}

type paymentService struct {
	txRepo      repository.TransactionRepository
	splitRepo   repository.RevenueSplitRepository
	requestRepo repository.CoachServiceRequestRepository
	subRepo     repository.SubscriptionRepository
	planRepo    repository.SubscriptionPlanRepository
	txRunner    repository.TxRunner

	platformAccountID primitive.ObjectID
	coachPercentage   int
}

// NewPaymentService creates a new instance of paymentService. The platform
// account receives the platform side of every revenue split.
func NewPaymentService(
	txRepo repository.TransactionRepository,
	splitRepo repository.RevenueSplitRepository,
	requestRepo repository.CoachServiceRequestRepository,
	subRepo repository.SubscriptionRepository,
	planRepo repository.SubscriptionPlanRepository,
	txRunner repository.TxRunner,
	platformAccountID primitive.ObjectID,
	coachPercentage int,
) PaymentService {
	if coachPercentage <= 0 || coachPercentage > 100 {
		coachPercentage = 70
	}
	return &paymentService{
		txRepo:            txRepo,
		splitRepo:         splitRepo,
		requestRepo:       requestRepo,
		subRepo:           subRepo,
		planRepo:          planRepo,
		txRunner:          txRunner,
		platformAccountID: platformAccountID,
		coachPercentage:   coachPercentage,
	}
}

// HandleEvent applies a verified provider event. On checkout completion the
// transaction's pending-to-paid flip and every downstream effect commit in
// one transaction; a replayed event finds the flip already done and stops.
// Errors propagate so the provider retries delivery.
func (s *paymentService) HandleEvent(ctx context.Context, event *payments.Event) error {
	txID, err := primitive.ObjectIDFromHex(event.Metadata["transaction_id"])
	if err != nil {
		return apperr.BadRequest("event has no valid transaction reference")
	}

	switch event.Type {
	case payments.EventCheckoutCompleted:
		return s.settle(ctx, txID, event)
	case payments.EventCheckoutExpired:
		if err := s.txRepo.MarkFailed(ctx, txID); err != nil {
			if errors.Is(err, repository.ErrUpdateFailed) {
				// Already settled or already failed, nothing to do.
				return nil
			}
			return err
		}
		return nil
	default:
		return nil
	}
}

func (s *paymentService) settle(ctx context.Context, txID primitive.ObjectID, event *payments.Event) error {
	tx, err := s.txRepo.GetByID(ctx, txID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.BadRequest("unknown transaction")
		}
		return err
	}

	providerRef := event.PaymentIntentID
	if providerRef == "" {
		providerRef = event.SessionID
	}

	return s.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.txRepo.MarkPaid(ctx, tx.ID, providerRef); err != nil {
			if errors.Is(err, repository.ErrUpdateFailed) {
				// Duplicate delivery; the first one settled everything.
				log.Info().Str("transaction", tx.ID.Hex()).Msg("skipping replayed payment event")
				return nil
			}
			return err
		}

		switch tx.PaymentType {
		case domain.PaymentTypeSubscription:
			if err := s.activateOrExtend(ctx, tx, event.Metadata["plan_id"]); err != nil {
				return err
			}
			// No coach involved; the full amount is platform revenue.
			return s.writeSplit(ctx, tx.ID, s.platformAccountID, tx.AmountCents, domain.SplitPlatform, 100)
		case domain.PaymentTypeCoachService:
			return s.settleCoachService(ctx, tx, event.Metadata["coach_request_id"])
		default:
			return apperr.BadRequest("unknown payment type")
		}
	})
}

// activateOrExtend grants the plan window. An existing active subscription is
// extended by the plan duration; anything else becomes a fresh window.
func (s *paymentService) activateOrExtend(ctx context.Context, tx *domain.PaymentTransaction, planHex string) error {
	planID, err := primitive.ObjectIDFromHex(planHex)
	if err != nil {
		return apperr.BadRequest("event has no valid plan reference")
	}
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.BadRequest("unknown subscription plan")
		}
		return err
	}

	now := time.Now().UTC()
	duration := time.Duration(plan.DurationDays) * 24 * time.Hour
	txID := tx.ID

	sub, err := s.subRepo.GetByUserAndPlan(ctx, tx.UserID, planID)
	switch {
	case err == nil:
		if sub.IsCurrent(now) {
			sub.EndDate = sub.EndDate.Add(duration)
		} else {
			sub.Status = domain.SubscriptionActive
			sub.StartDate = now
			sub.EndDate = now.Add(duration)
		}
		sub.LastPaymentID = &txID
		return s.subRepo.Update(ctx, sub)
	case errors.Is(err, repository.ErrNotFound):
		sub = &domain.Subscription{
			UserID:        tx.UserID,
			PlanID:        planID,
			Status:        domain.SubscriptionActive,
			StartDate:     now,
			EndDate:       now.Add(duration),
			LastPaymentID: &txID,
		}
		_, err := s.subRepo.Create(ctx, sub)
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with another settlement; retry as an extension.
			return s.activateOrExtend(ctx, tx, planHex)
		}
		return err
	default:
		return err
	}
}

// settleCoachService marks the request paid and writes the two-sided revenue
// split between the coach and the platform account.
func (s *paymentService) settleCoachService(ctx context.Context, tx *domain.PaymentTransaction, requestHex string) error {
	requestID, err := primitive.ObjectIDFromHex(requestHex)
	if err != nil {
		return apperr.BadRequest("event has no valid service request reference")
	}
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.BadRequest("unknown service request")
		}
		return err
	}

	if err := s.requestRepo.UpdateStatus(ctx, requestID, domain.RequestAccepted, domain.RequestPaid); err != nil {
		if !errors.Is(err, repository.ErrUpdateFailed) {
			return err
		}
		// Tolerate a request already past accepted; the split below is
		// still guarded by its own uniqueness.
		if request.Status != domain.RequestPaid && request.Status != domain.RequestCompleted {
			return apperr.BadRequest("service request is not payable")
		}
	}
	if request.PaymentID == nil || *request.PaymentID != tx.ID {
		if err := s.requestRepo.SetPayment(ctx, requestID, tx.ID); err != nil {
			return err
		}
	}

	coachAmount, platformAmount := SplitAmount(tx.AmountCents, s.coachPercentage)
	if err := s.writeSplit(ctx, tx.ID, request.CoachID, coachAmount, domain.SplitCoach, s.coachPercentage); err != nil {
		return err
	}
	return s.writeSplit(ctx, tx.ID, s.platformAccountID, platformAmount, domain.SplitPlatform, 100-s.coachPercentage)
}

func (s *paymentService) writeSplit(ctx context.Context, txID, beneficiaryID primitive.ObjectID, amountCents int64, splitType domain.SplitType, percentage int) error {
	_, err := s.splitRepo.Create(ctx, &domain.RevenueSplit{
		TransactionID: txID,
		BeneficiaryID: beneficiaryID,
		AmountCents:   amountCents,
		SplitType:     splitType,
		Percentage:    percentage,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil
	}
	return err
}

// ListMyTransactions lists a user's transactions, newest first.
func (s *paymentService) ListMyTransactions(ctx context.Context, userID primitive.ObjectID, page Page) ([]domain.PaymentTransaction, int64, error) {
	return s.txRepo.ListByUser(ctx, userID, page.Offset(), page.Limit())
}

// ListMyEarnings lists revenue split rows credited to a beneficiary.
func (s *paymentService) ListMyEarnings(ctx context.Context, beneficiaryID primitive.ObjectID, page Page) ([]domain.RevenueSplit, int64, error) {
	return s.splitRepo.ListByBeneficiary(ctx, beneficiaryID, page.Offset(), page.Limit())
}

// SplitAmount divides an amount in cents between coach and platform. The
// coach share rounds half up; the platform takes the exact remainder so the
// two always sum back to the original amount.
func SplitAmount(amountCents int64, coachPercentage int) (coach, platform int64) {
	coach = (amountCents*int64(coachPercentage) + 50) / 100
	platform = amountCents - coach
	return coach, platform
}
