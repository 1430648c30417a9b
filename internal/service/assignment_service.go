package service

import (
	"context"
	"errors"
	"time"

	"peakform/coaching-platform/internal/apperr"
	"peakform/coaching-platform/internal/domain"
	"peakform/coaching-platform/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentService drives the assign/unassign state machine for programs
// and keeps its append-only audit trail.
type AssignmentService interface {
	Assign(ctx context.Context, actor *domain.User, input AssignInput) (*domain.ProgramAssignment, error)
	Unassign(ctx context.Context, actor *domain.User, assignmentID primitive.ObjectID) (*domain.ProgramAssignment, error)
	GetHistory(ctx context.Context, actor *domain.User, clientID primitive.ObjectID, filter HistoryFilter, page Page) ([]domain.ProgramAssignment, int64, error)
	GetAuditTrail(ctx context.Context, actor *domain.User, assignmentID primitive.ObjectID) ([]domain.AssignmentAudit, error)
}

// AssignInput identifies the client, the program and an optional paid
// service request the assignment fulfills.
type AssignInput struct {
	ClientID       primitive.ObjectID
	ProgramID      primitive.ObjectID
	CoachRequestID *primitive.ObjectID
}

// HistoryFilter narrows assignment history queries.
type HistoryFilter struct {
	IsActive  *bool
	ProgramID *primitive.ObjectID
	FromDate  *time.Time
	ToDate    *time.Time
}

type assignmentService struct {
	assignmentRepo repository.AssignmentRepository
	auditRepo      repository.AuditRepository
	userRepo       repository.UserRepository
	programRepo    repository.ProgramRepository
	linkRepo       repository.CoachClientRepository
	requestRepo    repository.CoachServiceRequestRepository
	txRunner       repository.TxRunner
}

// NewAssignmentService creates a new instance of assignmentService.
func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	auditRepo repository.AuditRepository,
	userRepo repository.UserRepository,
	programRepo repository.ProgramRepository,
	linkRepo repository.CoachClientRepository,
	requestRepo repository.CoachServiceRequestRepository,
	txRunner repository.TxRunner,
) AssignmentService {
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		auditRepo:      auditRepo,
		userRepo:       userRepo,
		programRepo:    programRepo,
		linkRepo:       linkRepo,
		requestRepo:    requestRepo,
		txRunner:       txRunner,
	}
}

// Assign activates a program for a client. A previously unassigned pair is
// reactivated in place and audited as REASSIGNED; a fresh pair creates a new
// row audited as ASSIGNED. All writes commit atomically, and the store's
// active-pair uniqueness converts a concurrent duplicate into a BadRequest.
func (s *assignmentService) Assign(ctx context.Context, actor *domain.User, input AssignInput) (*domain.ProgramAssignment, error) {
	client, err := s.userRepo.GetByID(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("client not found")
		}
		return nil, err
	}
	if !client.IsActive {
		return nil, apperr.BadRequest("client account is deactivated")
	}

	program, err := s.programRepo.GetByID(ctx, input.ProgramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("program not found")
		}
		return nil, err
	}
	if !program.IsActive {
		return nil, apperr.BadRequest("program is not active")
	}

	var coachID *primitive.ObjectID
	switch {
	case actor.ID == client.ID:
		// Self-assignment; the program must be reachable by the client.
		if !program.IsPublic && program.CreatedBy != actor.ID {
			return nil, apperr.NotFound("program not found")
		}
	case actor.HasCapability(domain.CapGymOwner) || actor.HasCapability(domain.CapStaff):
		// Unrestricted; assignment carries no coach attribution.
	case actor.HasCapability(domain.CapCoach):
		if program.CreatedBy != actor.ID {
			return nil, apperr.Forbidden("coaches may only assign their own programs")
		}
		id := actor.ID
		coachID = &id
	default:
		return nil, apperr.Forbidden("not allowed to assign programs")
	}

	var assignment *domain.ProgramAssignment
	err = s.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		meta := map[string]string{}
		if input.CoachRequestID != nil {
			if err := s.consumeRequest(ctx, actor, client.ID, *input.CoachRequestID); err != nil {
				return err
			}
			meta["coachServiceRequestId"] = input.CoachRequestID.Hex()
		}

		action := domain.AuditAssigned
		existing, err := s.assignmentRepo.GetLatest(ctx, client.ID, program.ID)
		switch {
		case err == nil && existing.IsActive:
			return apperr.BadRequest("program is already assigned to this client")
		case err == nil:
			// Reactivate the same row rather than inserting a duplicate.
			if existing.CoachID != nil {
				meta["previousCoachId"] = existing.CoachID.Hex()
			}
			existing.CoachID = coachID
			existing.CoachServiceRequestID = input.CoachRequestID
			existing.AssignedAt = time.Now().UTC()
			existing.IsActive = true
			if err := s.assignmentRepo.Reactivate(ctx, existing.ID, coachID, input.CoachRequestID, existing.AssignedAt); err != nil {
				if errors.Is(err, repository.ErrUpdateFailed) || errors.Is(err, repository.ErrDuplicate) {
					return apperr.BadRequest("program is already assigned to this client")
				}
				return err
			}
			assignment = existing
			action = domain.AuditReassigned
		case errors.Is(err, repository.ErrNotFound):
			assignment = &domain.ProgramAssignment{
				ClientID:              client.ID,
				ProgramID:             program.ID,
				CoachID:               coachID,
				CoachServiceRequestID: input.CoachRequestID,
			}
			if _, err := s.assignmentRepo.CreateActive(ctx, assignment); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return apperr.BadRequest("program is already assigned to this client")
				}
				return err
			}
		default:
			return err
		}

		audit := &domain.AssignmentAudit{
			ActorID:      actor.ID,
			ClientID:     client.ID,
			ProgramID:    program.ID,
			AssignmentID: assignment.ID,
			Action:       action,
		}
		if len(meta) > 0 {
			audit.Meta = meta
		}
		_, err = s.auditRepo.Create(ctx, audit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// consumeRequest validates and completes a paid service request inside the
// assignment transaction. The conditional paid-to-completed flip is the lock
// equivalent: the second of two racing assigns loses it.
func (s *assignmentService) consumeRequest(ctx context.Context, actor *domain.User, clientID, requestID primitive.ObjectID) error {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("service request not found")
		}
		return err
	}
	if request.CoachID != actor.ID {
		return apperr.Forbidden("service request belongs to another coach")
	}
	if request.ClientID != clientID {
		return apperr.BadRequest("service request belongs to another client")
	}
	if request.Status != domain.RequestPaid {
		return apperr.BadRequest("service request is not paid")
	}

	if err := s.requestRepo.UpdateStatus(ctx, requestID, domain.RequestPaid, domain.RequestCompleted); err != nil {
		if errors.Is(err, repository.ErrUpdateFailed) {
			return apperr.BadRequest("service request was already fulfilled")
		}
		return err
	}
	return nil
}

// Unassign deactivates an active assignment and audits it as UNASSIGNED.
func (s *assignmentService) Unassign(ctx context.Context, actor *domain.User, assignmentID primitive.ObjectID) (*domain.ProgramAssignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("assignment not found")
		}
		return nil, err
	}
	if !assignment.IsActive {
		return nil, apperr.NotFound("assignment is not active")
	}

	privileged := actor.HasCapability(domain.CapGymOwner) || actor.HasCapability(domain.CapStaff)
	if assignment.CoachID != nil {
		if *assignment.CoachID != actor.ID && !privileged {
			return nil, apperr.Forbidden("assignment belongs to another coach")
		}
	} else if assignment.ClientID != actor.ID && !privileged {
		return nil, apperr.Forbidden("not allowed to unassign this program")
	}

	err = s.txRunner.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.assignmentRepo.Deactivate(ctx, assignment.ID); err != nil {
			if errors.Is(err, repository.ErrUpdateFailed) {
				return apperr.NotFound("assignment is not active")
			}
			return err
		}
		audit := &domain.AssignmentAudit{
			ActorID:      actor.ID,
			ClientID:     assignment.ClientID,
			ProgramID:    assignment.ProgramID,
			AssignmentID: assignment.ID,
			Action:       domain.AuditUnassigned,
		}
		if assignment.CoachID != nil {
			audit.Meta = map[string]string{"coachId": assignment.CoachID.Hex()}
		}
		_, err := s.auditRepo.Create(ctx, audit)
		return err
	})
	if err != nil {
		return nil, err
	}

	assignment.IsActive = false
	return assignment, nil
}

// GetHistory returns a client's assignment history, newest first. Clients see
// their own rows; a coach sees only rows they coach, and only for clients on
// their active roster; gym owners and staff see everything.
func (s *assignmentService) GetHistory(ctx context.Context, actor *domain.User, clientID primitive.ObjectID, filter HistoryFilter, page Page) ([]domain.ProgramAssignment, int64, error) {
	repoFilter := repository.AssignmentFilter{
		ClientID:  &clientID,
		IsActive:  filter.IsActive,
		ProgramID: filter.ProgramID,
		FromDate:  filter.FromDate,
		ToDate:    filter.ToDate,
	}

	switch {
	case actor.ID == clientID:
		// Own history, unrestricted.
	case actor.HasCapability(domain.CapGymOwner) || actor.HasCapability(domain.CapStaff):
		// Unrestricted.
	case actor.HasCapability(domain.CapCoach):
		linked, err := s.linkRepo.HasActiveLink(ctx, actor.ID, clientID)
		if err != nil {
			return nil, 0, err
		}
		if !linked {
			return nil, 0, apperr.Forbidden("client is not on your roster")
		}
		id := actor.ID
		repoFilter.CoachID = &id
	default:
		return nil, 0, apperr.Forbidden("not allowed to view this history")
	}

	return s.assignmentRepo.ListHistory(ctx, repoFilter, page.Offset(), page.Limit())
}

// GetAuditTrail returns the audit entries of one assignment, newest first.
func (s *assignmentService) GetAuditTrail(ctx context.Context, actor *domain.User, assignmentID primitive.ObjectID) ([]domain.AssignmentAudit, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("assignment not found")
		}
		return nil, err
	}

	allowed := assignment.ClientID == actor.ID ||
		(assignment.CoachID != nil && *assignment.CoachID == actor.ID) ||
		actor.HasCapability(domain.CapGymOwner) || actor.HasCapability(domain.CapStaff)
	if !allowed {
		return nil, apperr.Forbidden("not allowed to view this assignment")
	}

	return s.auditRepo.GetByAssignmentID(ctx, assignmentID)
}
