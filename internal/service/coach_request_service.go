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

// CoachRequestService manages coach service offerings and the client requests
// that purchase them.
type CoachRequestService interface {
	CreateService(ctx context.Context, coachID primitive.ObjectID, input CoachServiceInput) (*domain.CoachService, error)
	UpdateService(ctx context.Context, coachID, serviceID primitive.ObjectID, input CoachServiceInput) (*domain.CoachService, error)
	ListServices(ctx context.Context, viewerID, coachID primitive.ObjectID) ([]domain.CoachService, error)

	CreateRequest(ctx context.Context, clientID, serviceID primitive.ObjectID) (*domain.CoachServiceRequest, error)
	AcceptRequest(ctx context.Context, coachID, requestID primitive.ObjectID) (*domain.CoachServiceRequest, error)
	RejectRequest(ctx context.Context, coachID, requestID primitive.ObjectID) (*domain.CoachServiceRequest, error)
	PayRequest(ctx context.Context, clientID, requestID primitive.ObjectID) (checkoutURL string, err error)
	ListMyRequests(ctx context.Context, clientID primitive.ObjectID, page Page) ([]domain.CoachServiceRequest, int64, error)
	ListCoachRequests(ctx context.Context, coachID primitive.ObjectID, page Page) ([]domain.CoachServiceRequest, int64, error)
}

// CoachServiceInput carries the authorable service fields.
type CoachServiceInput struct {
	Title           string
	Description     string
	PriceCents      int64
	Currency        string
	DurationMinutes int
	IsActive        bool
}

type coachRequestService struct {
	serviceRepo repository.CoachServiceRepository
	requestRepo repository.CoachServiceRequestRepository
	txRepo      repository.TransactionRepository
	userRepo    repository.UserRepository
	gateway     payments.Gateway
}

// NewCoachRequestService creates a new instance of coachRequestService.
func NewCoachRequestService(
	serviceRepo repository.CoachServiceRepository,
	requestRepo repository.CoachServiceRequestRepository,
	txRepo repository.TransactionRepository,
	userRepo repository.UserRepository,
	gateway payments.Gateway,
) CoachRequestService {
	return &coachRequestService{
		serviceRepo: serviceRepo,
		requestRepo: requestRepo,
		txRepo:      txRepo,
		userRepo:    userRepo,
		gateway:     gateway,
	}
}

// CreateService adds a priced offering to the coach's catalog.
func (s *coachRequestService) CreateService(ctx context.Context, coachID primitive.ObjectID, input CoachServiceInput) (*domain.CoachService, error) {
	if input.Title == "" {
		return nil, apperr.BadRequest("service title is required")
	}
	if input.PriceCents <= 0 {
		return nil, apperr.BadRequest("service price must be positive")
	}

	svc := &domain.CoachService{
		CoachID:         coachID,
		Title:           input.Title,
		Description:     input.Description,
		PriceCents:      input.PriceCents,
		Currency:        normalizeCurrency(input.Currency),
		DurationMinutes: input.DurationMinutes,
		IsActive:        true,
	}
	if _, err := s.serviceRepo.Create(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// UpdateService modifies an offering owned by the coach.
func (s *coachRequestService) UpdateService(ctx context.Context, coachID, serviceID primitive.ObjectID, input CoachServiceInput) (*domain.CoachService, error) {
	svc, err := s.serviceRepo.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("service not found")
		}
		return nil, err
	}
	if svc.CoachID != coachID {
		return nil, apperr.Forbidden("you do not own this service")
	}
	if input.PriceCents <= 0 {
		return nil, apperr.BadRequest("service price must be positive")
	}

	if input.Title != "" {
		svc.Title = input.Title
	}
	svc.Description = input.Description
	svc.PriceCents = input.PriceCents
	svc.Currency = normalizeCurrency(input.Currency)
	svc.DurationMinutes = input.DurationMinutes
	svc.IsActive = input.IsActive

	if err := s.serviceRepo.Update(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// ListServices lists a coach's offerings. The owner sees inactive ones too.
func (s *coachRequestService) ListServices(ctx context.Context, viewerID, coachID primitive.ObjectID) ([]domain.CoachService, error) {
	activeOnly := viewerID != coachID
	return s.serviceRepo.GetByCoachID(ctx, coachID, activeOnly)
}

// CreateRequest opens a pending purchase request for an active service. The
// service's terms are denormalized onto the request so later price changes
// do not affect it.
func (s *coachRequestService) CreateRequest(ctx context.Context, clientID, serviceID primitive.ObjectID) (*domain.CoachServiceRequest, error) {
	svc, err := s.serviceRepo.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("service not found")
		}
		return nil, err
	}
	if !svc.IsActive {
		return nil, apperr.NotFound("service not found")
	}
	if svc.CoachID == clientID {
		return nil, apperr.BadRequest("cannot request your own service")
	}

	request := &domain.CoachServiceRequest{
		ClientID:   clientID,
		ServiceID:  svc.ID,
		CoachID:    svc.CoachID,
		Title:      svc.Title,
		PriceCents: svc.PriceCents,
		Currency:   svc.Currency,
		Status:     domain.RequestPending,
	}
	if _, err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// AcceptRequest moves a pending request to accepted, making it payable.
func (s *coachRequestService) AcceptRequest(ctx context.Context, coachID, requestID primitive.ObjectID) (*domain.CoachServiceRequest, error) {
	return s.decideRequest(ctx, coachID, requestID, domain.RequestAccepted)
}

// RejectRequest moves a pending request to rejected.
func (s *coachRequestService) RejectRequest(ctx context.Context, coachID, requestID primitive.ObjectID) (*domain.CoachServiceRequest, error) {
	return s.decideRequest(ctx, coachID, requestID, domain.RequestRejected)
}

func (s *coachRequestService) decideRequest(ctx context.Context, coachID, requestID primitive.ObjectID, to domain.RequestStatus) (*domain.CoachServiceRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("service request not found")
		}
		return nil, err
	}
	if request.CoachID != coachID {
		return nil, apperr.Forbidden("service request belongs to another coach")
	}

	if err := s.requestRepo.UpdateStatus(ctx, requestID, domain.RequestPending, to); err != nil {
		if errors.Is(err, repository.ErrUpdateFailed) {
			return nil, apperr.BadRequest("service request is not pending")
		}
		return nil, err
	}
	request.Status = to
	return request, nil
}

// PayRequest opens a checkout session for an accepted request. A pending
// transaction is linked to the request; the settlement pipeline flips it
// paid when the provider confirms.
func (s *coachRequestService) PayRequest(ctx context.Context, clientID, requestID primitive.ObjectID) (string, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.NotFound("service request not found")
		}
		return "", err
	}
	if request.ClientID != clientID {
		return "", apperr.Forbidden("service request belongs to another client")
	}
	if request.Status != domain.RequestAccepted {
		return "", apperr.BadRequest("service request is not accepted")
	}

	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		return "", err
	}

	tx := &domain.PaymentTransaction{
		UserID:      clientID,
		AmountCents: request.PriceCents,
		Currency:    request.Currency,
		PaymentType: domain.PaymentTypeCoachService,
		Status:      domain.TransactionPending,
		Metadata: map[string]string{
			"coach_request_id": request.ID.Hex(),
		},
	}
	txID, err := s.txRepo.Create(ctx, tx)
	if err != nil {
		return "", err
	}
	if err := s.requestRepo.SetPayment(ctx, request.ID, txID); err != nil {
		return "", err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutParams{
		AmountCents:   request.PriceCents,
		Currency:      request.Currency,
		ProductName:   request.Title,
		CustomerEmail: client.Email,
		Metadata: map[string]string{
			"transaction_id":   txID.Hex(),
			"coach_request_id": request.ID.Hex(),
		},
	})
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

// ListMyRequests lists the client's own requests, newest first.
func (s *coachRequestService) ListMyRequests(ctx context.Context, clientID primitive.ObjectID, page Page) ([]domain.CoachServiceRequest, int64, error) {
	return s.requestRepo.ListByClient(ctx, clientID, page.Offset(), page.Limit())
}

// ListCoachRequests lists requests addressed to the coach, newest first.
func (s *coachRequestService) ListCoachRequests(ctx context.Context, coachID primitive.ObjectID, page Page) ([]domain.CoachServiceRequest, int64, error) {
	return s.requestRepo.ListByCoach(ctx, coachID, page.Offset(), page.Limit())
}

func normalizeCurrency(currency string) string {
	if currency == "" {
		return "usd"
	}
	return currency
}
