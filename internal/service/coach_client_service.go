package service

import (
	"context"
	"errors"

	"peakform/coaching-platform/internal/apperr"
	"peakform/coaching-platform/internal/domain"
	"peakform/coaching-platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachClientService manages the roster links between coaches and clients.
type CoachClientService interface {
	AddClient(ctx context.Context, coachID primitive.ObjectID, clientEmail, notes string) (*domain.CoachClient, error)
	RemoveClient(ctx context.Context, coachID, clientID primitive.ObjectID) error
	UpdateNotes(ctx context.Context, coachID, clientID primitive.ObjectID, notes string) (*domain.CoachClient, error)
	MyClients(ctx context.Context, coachID primitive.ObjectID) ([]RosterEntry, error)
	MyCoaches(ctx context.Context, clientID primitive.ObjectID) ([]RosterEntry, error)
}

// RosterEntry joins a link with the user on its far side.
type RosterEntry struct {
	Link domain.CoachClient
	User domain.User
}

type coachClientService struct {
	linkRepo repository.CoachClientRepository
	userRepo repository.UserRepository
}

// NewCoachClientService creates a new instance of coachClientService.
func NewCoachClientService(linkRepo repository.CoachClientRepository, userRepo repository.UserRepository) CoachClientService {
	return &coachClientService{
		linkRepo: linkRepo,
		userRepo: userRepo,
	}
}

// AddClient links a client to the coach's roster by email. A previously
// removed link is reactivated instead of duplicated.
func (s *coachClientService) AddClient(ctx context.Context, coachID primitive.ObjectID, clientEmail, notes string) (*domain.CoachClient, error) {
	if clientEmail == "" {
		return nil, apperr.BadRequest("client email is required")
	}

	client, err := s.userRepo.GetByEmail(ctx, clientEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("no user with that email")
		}
		return nil, err
	}
	if client.ID == coachID {
		return nil, apperr.BadRequest("cannot add yourself as a client")
	}

	existing, err := s.linkRepo.GetByPair(ctx, coachID, client.ID)
	if err == nil {
		if existing.IsActive {
			return nil, apperr.BadRequest("client is already on your roster")
		}
		existing.IsActive = true
		if notes != "" {
			existing.Notes = notes
		}
		if err := s.linkRepo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	link := &domain.CoachClient{
		CoachID:  coachID,
		ClientID: client.ID,
		Notes:    notes,
		IsActive: true,
	}
	if _, err := s.linkRepo.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.BadRequest("client is already on your roster")
		}
		return nil, err
	}
	return link, nil
}

// RemoveClient deactivates the link between the coach and the client.
func (s *coachClientService) RemoveClient(ctx context.Context, coachID, clientID primitive.ObjectID) error {
	link, err := s.linkRepo.GetByPair(ctx, coachID, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("client is not on your roster")
		}
		return err
	}
	if !link.IsActive {
		return apperr.BadRequest("client is not on your roster")
	}

	link.IsActive = false
	return s.linkRepo.Update(ctx, link)
}

// UpdateNotes replaces the coach's private notes on a roster link.
func (s *coachClientService) UpdateNotes(ctx context.Context, coachID, clientID primitive.ObjectID, notes string) (*domain.CoachClient, error) {
	link, err := s.linkRepo.GetByPair(ctx, coachID, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("client is not on your roster")
		}
		return nil, err
	}
	if !link.IsActive {
		return nil, apperr.BadRequest("client is not on your roster")
	}

	link.Notes = notes
	if err := s.linkRepo.Update(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

// MyClients lists the coach's active roster with client details.
func (s *coachClientService) MyClients(ctx context.Context, coachID primitive.ObjectID) ([]RosterEntry, error) {
	links, err := s.linkRepo.GetClientsByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, links, func(l domain.CoachClient) primitive.ObjectID { return l.ClientID })
}

// MyCoaches lists the coaches a client is linked to.
func (s *coachClientService) MyCoaches(ctx context.Context, clientID primitive.ObjectID) ([]RosterEntry, error) {
	links, err := s.linkRepo.GetCoachesByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, links, func(l domain.CoachClient) primitive.ObjectID { return l.CoachID })
}

func (s *coachClientService) resolve(ctx context.Context, links []domain.CoachClient, far func(domain.CoachClient) primitive.ObjectID) ([]RosterEntry, error) {
	entries := make([]RosterEntry, 0, len(links))
	for _, link := range links {
		user, err := s.userRepo.GetByID(ctx, far(link))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Dangling link, skip rather than fail the whole roster.
				continue
			}
			return nil, err
		}
		user.PasswordHash = ""
		entries = append(entries, RosterEntry{Link: link, User: *user})
	}
	return entries, nil
}
