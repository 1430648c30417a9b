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

type rosterFixture struct {
	svc    CoachClientService
	users  *fakeUserRepo
	links  *fakeCoachClientRepo
	coach  *domain.User
	client *domain.User
}

func newRosterFixture(t *testing.T) *rosterFixture {
	t.Helper()
	coach := &domain.User{
		ID:           primitive.NewObjectID(),
		Email:        "coach@example.com",
		FullName:     "Coach Carter",
		PasswordHash: "hashed",
		IsCoach:      true,
		IsActive:     true,
	}
	client := &domain.User{
		ID:           primitive.NewObjectID(),
		Email:        "client@example.com",
		FullName:     "Casey Client",
		PasswordHash: "hashed",
		IsActive:     true,
	}
	users := newFakeUserRepo(coach, client)
	links := newFakeCoachClientRepo()
	return &rosterFixture{
		svc:    NewCoachClientService(links, users),
		users:  users,
		links:  links,
		coach:  coach,
		client: client,
	}
}

func TestAddClient(t *testing.T) {
	f := newRosterFixture(t)

	link, err := f.svc.AddClient(context.Background(), f.coach.ID, "client@example.com", "prefers mornings")
	require.NoError(t, err)

	assert.Equal(t, f.coach.ID, link.CoachID)
	assert.Equal(t, f.client.ID, link.ClientID)
	assert.Equal(t, "prefers mornings", link.Notes)
	assert.True(t, link.IsActive)
}

func TestAddClientValidation(t *testing.T) {
	f := newRosterFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddClient(ctx, f.coach.ID, "", "")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	_, err = f.svc.AddClient(ctx, f.coach.ID, "nobody@example.com", "")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.svc.AddClient(ctx, f.coach.ID, "coach@example.com", "")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestAddClientTwice(t *testing.T) {
	f := newRosterFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddClient(ctx, f.coach.ID, "client@example.com", "")
	require.NoError(t, err)

	_, err = f.svc.AddClient(ctx, f.coach.ID, "client@example.com", "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestAddClientReactivatesRemovedLink(t *testing.T) {
	f := newRosterFixture(t)
	ctx := context.Background()

	first, err := f.svc.AddClient(ctx, f.coach.ID, "client@example.com", "old notes")
	require.NoError(t, err)
	require.NoError(t, f.svc.RemoveClient(ctx, f.coach.ID, f.client.ID))

	again, err := f.svc.AddClient(ctx, f.coach.ID, "client@example.com", "back again")
	require.NoError(t, err)

	// Same link row comes back instead of a duplicate.
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.IsActive)
	assert.Equal(t, "back again", again.Notes)
	assert.Len(t, f.links.links, 1)
}

func TestAddClientReactivationKeepsNotesWhenOmitted(t *testing.T) {
	f := newRosterFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddClient(ctx, f.coach.ID, "client@example.com", "old notes")
	require.NoError(t, err)
	require.NoError(t, f.svc.RemoveClient(ctx, f.coach.ID, f.client.ID))

	again, err := f.svc.AddClient(ctx, f.coach.ID, "client@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "old notes", again.Notes)
}

func TestRemoveClient(t *testing.T) {
	f := newRosterFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddClient(ctx, f.coach.ID, "client@example.com", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveClient(ctx, f.coach.ID, f.client.ID))

	active, err := f.links.HasActiveLink(ctx, f.coach.ID, f.client.ID)
	require.NoError(t, err)
	assert.False(t, active)

	// Removing again reports the client as gone.
	err = f.svc.RemoveClient(ctx, f.coach.ID, f.client.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestRemoveClientNotOnRoster(t *testing.T) {
	f := newRosterFixture(t)

	err := f.svc.RemoveClient(context.Background(), f.coach.ID, f.client.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateNotes(t *testing.T) {
	f := newRosterFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddClient(ctx, f.coach.ID, "client@example.com", "old")
	require.NoError(t, err)

	link, err := f.svc.UpdateNotes(ctx, f.coach.ID, f.client.ID, "new goals for Q4")
	require.NoError(t, err)
	assert.Equal(t, "new goals for Q4", link.Notes)

	require.NoError(t, f.svc.RemoveClient(ctx, f.coach.ID, f.client.ID))
	_, err = f.svc.UpdateNotes(ctx, f.coach.ID, f.client.ID, "too late")
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestMyClientsAndMyCoaches(t *testing.T) {
	f := newRosterFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddClient(ctx, f.coach.ID, "client@example.com", "notes")
	require.NoError(t, err)

	clients, err := f.svc.MyClients(ctx, f.coach.ID)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, f.client.ID, clients[0].User.ID)
	assert.Equal(t, "Casey Client", clients[0].User.FullName)
	assert.Empty(t, clients[0].User.PasswordHash)
	assert.Equal(t, "notes", clients[0].Link.Notes)

	coaches, err := f.svc.MyCoaches(ctx, f.client.ID)
	require.NoError(t, err)
	require.Len(t, coaches, 1)
	assert.Equal(t, f.coach.ID, coaches[0].User.ID)
	assert.Empty(t, coaches[0].User.PasswordHash)
}

func TestMyClientsSkipsDanglingLinks(t *testing.T) {
	f := newRosterFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddClient(ctx, f.coach.ID, "client@example.com", "")
	require.NoError(t, err)

	// A link whose far side no longer resolves is skipped, not fatal.
	ghost := &domain.CoachClient{
		ID:       primitive.NewObjectID(),
		CoachID:  f.coach.ID,
		ClientID: primitive.NewObjectID(),
		IsActive: true,
	}
	f.links.links[ghost.ID] = ghost

	clients, err := f.svc.MyClients(ctx, f.coach.ID)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, f.client.ID, clients[0].User.ID)
}
