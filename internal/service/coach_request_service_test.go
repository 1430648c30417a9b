package service

import (
	"context"
	"testing"

	"peakform/coaching-platform/internal/apperr"
	"peakform/coaching-platform/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type requestFixture struct {
	service  CoachRequestService
	services *fakeCoachServiceRepo
	requests *fakeRequestRepo
	txRepo   *fakeTransactionRepo
	gateway  *fakeGateway

	coach           *domain.User
	client          *domain.User
	coachingService *domain.CoachService
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()

	coach := &domain.User{Email: "coach@example.com", IsCoach: true, IsActive: true}
	client := &domain.User{Email: "client@example.com", IsActive: true}

	f := &requestFixture{
		services: newFakeCoachServiceRepo(),
		requests: newFakeRequestRepo(),
		txRepo:   newFakeTransactionRepo(),
		gateway:  &fakeGateway{},
		coach:    coach,
		client:   client,
	}
	users := newFakeUserRepo(coach, client)
	f.service = NewCoachRequestService(f.services, f.requests, f.txRepo, users, f.gateway)

	svc, err := f.service.CreateService(context.Background(), coach.ID, CoachServiceInput{
		Title:      "Monthly Coaching",
		PriceCents: 15000,
	})
	require.NoError(t, err)
	f.coachingService = svc
	return f
}

func TestCreateServiceValidation(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	assert.Equal(t, "usd", f.coachingService.Currency, "missing currency defaults")
	assert.True(t, f.coachingService.IsActive)

	_, err := f.service.CreateService(ctx, f.coach.ID, CoachServiceInput{Title: "", PriceCents: 100})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	_, err = f.service.CreateService(ctx, f.coach.ID, CoachServiceInput{Title: "Free", PriceCents: 0})
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestListServicesHidesInactiveFromOthers(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	_, err := f.service.UpdateService(ctx, f.coach.ID, f.coachingService.ID, CoachServiceInput{
		PriceCents: f.coachingService.PriceCents,
		IsActive:   false,
	})
	require.NoError(t, err)

	visible, err := f.service.ListServices(ctx, f.client.ID, f.coach.ID)
	require.NoError(t, err)
	assert.Empty(t, visible)

	own, err := f.service.ListServices(ctx, f.coach.ID, f.coach.ID)
	require.NoError(t, err)
	assert.Len(t, own, 1)
}

func TestCreateRequestDenormalizesTerms(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.CreateRequest(ctx, f.client.ID, f.coachingService.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, request.Status)
	assert.Equal(t, f.coach.ID, request.CoachID)
	assert.Equal(t, "Monthly Coaching", request.Title)
	assert.Equal(t, int64(15000), request.PriceCents)

	// A later price change must not touch the open request.
	_, err = f.service.UpdateService(ctx, f.coach.ID, f.coachingService.ID, CoachServiceInput{
		PriceCents: 99000,
		IsActive:   true,
	})
	require.NoError(t, err)

	stored, err := f.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(15000), stored.PriceCents)
}

func TestCreateRequestRejectsOwnService(t *testing.T) {
	f := newRequestFixture(t)

	_, err := f.service.CreateRequest(context.Background(), f.coach.ID, f.coachingService.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestAcceptAndRejectOnlyFromPending(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.CreateRequest(ctx, f.client.ID, f.coachingService.ID)
	require.NoError(t, err)

	accepted, err := f.service.AcceptRequest(ctx, f.coach.ID, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestAccepted, accepted.Status)

	_, err = f.service.RejectRequest(ctx, f.coach.ID, request.ID)
	require.Error(t, err, "a decided request cannot be re-decided")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestDecideForeignRequestForbidden(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.CreateRequest(ctx, f.client.ID, f.coachingService.ID)
	require.NoError(t, err)

	_, err = f.service.AcceptRequest(ctx, primitive.NewObjectID(), request.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestPayRequestOpensCheckoutWithPendingTransaction(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.CreateRequest(ctx, f.client.ID, f.coachingService.ID)
	require.NoError(t, err)
	_, err = f.service.AcceptRequest(ctx, f.coach.ID, request.ID)
	require.NoError(t, err)

	checkoutURL, err := f.service.PayRequest(ctx, f.client.ID, request.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, checkoutURL)

	stored, err := f.requests.GetByID(ctx, request.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PaymentID)

	tx, err := f.txRepo.GetByID(ctx, *stored.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionPending, tx.Status)
	assert.Equal(t, int64(15000), tx.AmountCents)
	assert.Equal(t, domain.PaymentTypeCoachService, tx.PaymentType)

	require.Len(t, f.gateway.sessions, 1)
	params := f.gateway.sessions[0]
	assert.Equal(t, tx.ID.Hex(), params.Metadata["transaction_id"])
	assert.Equal(t, request.ID.Hex(), params.Metadata["coach_request_id"])
	assert.Equal(t, f.client.Email, params.CustomerEmail)
}

func TestPayRequestRequiresAcceptedStatus(t *testing.T) {
	f := newRequestFixture(t)
	ctx := context.Background()

	request, err := f.service.CreateRequest(ctx, f.client.ID, f.coachingService.ID)
	require.NoError(t, err)

	_, err = f.service.PayRequest(ctx, f.client.ID, request.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	_, err = f.service.PayRequest(ctx, primitive.NewObjectID(), request.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}
