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

type assignmentFixture struct {
	service     AssignmentService
	assignments *fakeAssignmentRepo
	audit       *fakeAuditRepo
	users       *fakeUserRepo
	programs    *fakeProgramRepo
	links       *fakeCoachClientRepo
	requests    *fakeRequestRepo

	coach  *domain.User
	client *domain.User
	staff  *domain.User

	program *domain.WorkoutProgram
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()

	coach := &domain.User{Email: "coach@example.com", IsCoach: true, IsActive: true}
	client := &domain.User{Email: "client@example.com", IsActive: true}
	staff := &domain.User{Email: "staff@example.com", IsStaff: true, IsActive: true}

	f := &assignmentFixture{
		assignments: newFakeAssignmentRepo(),
		audit:       &fakeAuditRepo{},
		users:       newFakeUserRepo(coach, client, staff),
		programs:    newFakeProgramRepo(),
		links:       newFakeCoachClientRepo(),
		requests:    newFakeRequestRepo(),
		coach:       coach,
		client:      client,
		staff:       staff,
	}
	f.service = NewAssignmentService(f.assignments, f.audit, f.users, f.programs, f.links, f.requests, &fakeTxRunner{})

	f.program = &domain.WorkoutProgram{
		Title:     "Strength Base",
		Slug:      "strength-base",
		CreatedBy: coach.ID,
		IsActive:  true,
		IsPublic:  true,
	}
	_, err := f.programs.Create(context.Background(), f.program)
	require.NoError(t, err)

	return f
}

func (f *assignmentFixture) assign(t *testing.T, actor *domain.User) *domain.ProgramAssignment {
	t.Helper()
	assignment, err := f.service.Assign(context.Background(), actor, AssignInput{
		ClientID:  f.client.ID,
		ProgramID: f.program.ID,
	})
	require.NoError(t, err)
	return assignment
}

func TestAssignCreatesActiveAssignmentWithAudit(t *testing.T) {
	f := newAssignmentFixture(t)

	assignment := f.assign(t, f.coach)

	assert.True(t, assignment.IsActive)
	require.NotNil(t, assignment.CoachID)
	assert.Equal(t, f.coach.ID, *assignment.CoachID)

	entries, err := f.audit.GetByAssignmentID(context.Background(), assignment.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditAssigned, entries[0].Action)
	assert.Equal(t, f.coach.ID, entries[0].ActorID)
}

func TestAssignDuplicateIsRejected(t *testing.T) {
	f := newAssignmentFixture(t)
	f.assign(t, f.coach)

	_, err := f.service.Assign(context.Background(), f.coach, AssignInput{
		ClientID:  f.client.ID,
		ProgramID: f.program.ID,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestUnassignThenReassignReusesRow(t *testing.T) {
	f := newAssignmentFixture(t)
	first := f.assign(t, f.coach)

	unassigned, err := f.service.Unassign(context.Background(), f.coach, first.ID)
	require.NoError(t, err)
	assert.False(t, unassigned.IsActive)

	second := f.assign(t, f.coach)
	assert.Equal(t, first.ID, second.ID, "reassignment must reuse the historical row")
	assert.True(t, second.IsActive)

	// Trail is newest first.
	entries, err := f.audit.GetByAssignmentID(context.Background(), first.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, domain.AuditReassigned, entries[0].Action)
	assert.Equal(t, domain.AuditUnassigned, entries[1].Action)
	assert.Equal(t, domain.AuditAssigned, entries[2].Action)

	// The unassign and reassign entries carry the coach involved.
	assert.Equal(t, f.coach.ID.Hex(), entries[1].Meta["coachId"])
	assert.Equal(t, f.coach.ID.Hex(), entries[0].Meta["previousCoachId"])
}

func TestAssignForeignProgramForbiddenForCoach(t *testing.T) {
	f := newAssignmentFixture(t)

	other := &domain.User{ID: primitive.NewObjectID(), Email: "other@example.com", IsCoach: true, IsActive: true}
	f.users.users[other.ID] = other

	_, err := f.service.Assign(context.Background(), other, AssignInput{
		ClientID:  f.client.ID,
		ProgramID: f.program.ID,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestStaffAssignCarriesNoCoachAttribution(t *testing.T) {
	f := newAssignmentFixture(t)

	assignment := f.assign(t, f.staff)
	assert.Nil(t, assignment.CoachID)
}

func TestSelfAssignRequiresReachableProgram(t *testing.T) {
	f := newAssignmentFixture(t)

	private := &domain.WorkoutProgram{
		Title:     "Coach Draft",
		Slug:      "coach-draft",
		CreatedBy: f.coach.ID,
		IsActive:  true,
		IsPublic:  false,
	}
	_, err := f.programs.Create(context.Background(), private)
	require.NoError(t, err)

	_, err = f.service.Assign(context.Background(), f.client, AssignInput{
		ClientID:  f.client.ID,
		ProgramID: private.ID,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	assignment, err := f.service.Assign(context.Background(), f.client, AssignInput{
		ClientID:  f.client.ID,
		ProgramID: f.program.ID,
	})
	require.NoError(t, err)
	assert.Nil(t, assignment.CoachID)
}

func TestAssignConsumesPaidRequest(t *testing.T) {
	f := newAssignmentFixture(t)

	request := &domain.CoachServiceRequest{
		ClientID: f.client.ID,
		CoachID:  f.coach.ID,
		Status:   domain.RequestPaid,
	}
	requestID, err := f.requests.Create(context.Background(), request)
	require.NoError(t, err)

	assignment, err := f.service.Assign(context.Background(), f.coach, AssignInput{
		ClientID:       f.client.ID,
		ProgramID:      f.program.ID,
		CoachRequestID: &requestID,
	})
	require.NoError(t, err)
	require.NotNil(t, assignment.CoachServiceRequestID)
	assert.Equal(t, requestID, *assignment.CoachServiceRequestID)

	stored, err := f.requests.GetByID(context.Background(), requestID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestCompleted, stored.Status)

	entries, err := f.audit.GetByAssignmentID(context.Background(), assignment.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, requestID.Hex(), entries[0].Meta["coachServiceRequestId"])
}

func TestAssignRejectsUnpaidRequest(t *testing.T) {
	f := newAssignmentFixture(t)

	request := &domain.CoachServiceRequest{
		ClientID: f.client.ID,
		CoachID:  f.coach.ID,
		Status:   domain.RequestAccepted,
	}
	requestID, err := f.requests.Create(context.Background(), request)
	require.NoError(t, err)

	_, err = f.service.Assign(context.Background(), f.coach, AssignInput{
		ClientID:       f.client.ID,
		ProgramID:      f.program.ID,
		CoachRequestID: &requestID,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestUnassignByClientForbiddenWhenCoachAttributed(t *testing.T) {
	f := newAssignmentFixture(t)
	assignment := f.assign(t, f.coach)

	_, err := f.service.Unassign(context.Background(), f.client, assignment.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// Staff overrides the coach attribution.
	unassigned, err := f.service.Unassign(context.Background(), f.staff, assignment.ID)
	require.NoError(t, err)
	assert.False(t, unassigned.IsActive)
}

func TestUnassignInactiveAssignmentNotFound(t *testing.T) {
	f := newAssignmentFixture(t)
	assignment := f.assign(t, f.coach)

	_, err := f.service.Unassign(context.Background(), f.coach, assignment.ID)
	require.NoError(t, err)

	_, err = f.service.Unassign(context.Background(), f.coach, assignment.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGetHistoryAccessControl(t *testing.T) {
	f := newAssignmentFixture(t)
	f.assign(t, f.coach)

	ctx := context.Background()
	page := NewPage(1, 10)

	// Own history is always visible.
	rows, total, err := f.service.GetHistory(ctx, f.client, f.client.ID, HistoryFilter{}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, rows, 1)

	// A coach without an active roster link is shut out.
	_, _, err = f.service.GetHistory(ctx, f.coach, f.client.ID, HistoryFilter{}, page)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// With a roster link the coach sees only rows they coach.
	_, err = f.links.Create(ctx, &domain.CoachClient{
		CoachID:  f.coach.ID,
		ClientID: f.client.ID,
		IsActive: true,
	})
	require.NoError(t, err)

	rows, _, err = f.service.GetHistory(ctx, f.coach, f.client.ID, HistoryFilter{}, page)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].CoachID)
	assert.Equal(t, f.coach.ID, *rows[0].CoachID)

	// Staff sees everything.
	rows, _, err = f.service.GetHistory(ctx, f.staff, f.client.ID, HistoryFilter{}, page)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// An unrelated plain user sees nothing.
	stranger := &domain.User{ID: primitive.NewObjectID(), IsActive: true}
	_, _, err = f.service.GetHistory(ctx, stranger, f.client.ID, HistoryFilter{}, page)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestGetAuditTrailAccessControl(t *testing.T) {
	f := newAssignmentFixture(t)
	assignment := f.assign(t, f.coach)
	ctx := context.Background()

	entries, err := f.service.GetAuditTrail(ctx, f.client, assignment.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	stranger := &domain.User{ID: primitive.NewObjectID(), IsActive: true}
	_, err = f.service.GetAuditTrail(ctx, stranger, assignment.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestAssignInactiveClientOrProgramRejected(t *testing.T) {
	f := newAssignmentFixture(t)
	ctx := context.Background()

	f.client.IsActive = false
	require.NoError(t, f.users.Update(ctx, f.client))

	_, err := f.service.Assign(ctx, f.coach, AssignInput{ClientID: f.client.ID, ProgramID: f.program.ID})
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	f.client.IsActive = true
	require.NoError(t, f.users.Update(ctx, f.client))
	f.program.IsActive = false
	require.NoError(t, f.programs.Update(ctx, f.program))

	_, err = f.service.Assign(ctx, f.coach, AssignInput{ClientID: f.client.ID, ProgramID: f.program.ID})
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}
