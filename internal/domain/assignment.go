package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditAction labels an assignment state transition in the audit log.
type AuditAction string

const (
	AuditAssigned   AuditAction = "ASSIGNED"
	AuditUnassigned AuditAction = "UNASSIGNED"
	AuditReassigned AuditAction = "REASSIGNED"
)

// ProgramAssignment is the link between a client and a workout program.
// At most one active assignment may exist per (client, program) pair; this is
// enforced by a partial unique index, so a race between two assign calls
// surfaces as a duplicate-key error rather than a corrupt second row.
// Rows are never hard-deleted: unassignment flips IsActive off, and a later
// assignment of the same pair reactivates the same row.
type ProgramAssignment struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID  primitive.ObjectID  `bson:"clientId" json:"clientId"`
	ProgramID primitive.ObjectID  `bson:"programId" json:"programId"`
	CoachID   *primitive.ObjectID `bson:"coachId,omitempty" json:"coachId,omitempty"`

	// At most one assignment may fulfil a given coach service request.
	CoachServiceRequestID *primitive.ObjectID `bson:"coachServiceRequestId,omitempty" json:"coachServiceRequestId,omitempty"`

	AssignedAt time.Time `bson:"assignedAt" json:"assignedAt"`
	IsActive   bool      `bson:"isActive" json:"isActive"`
}

// AssignmentAudit is an append-only record of assignment transitions.
// Never mutated after creation.
type AssignmentAudit struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ActorID      primitive.ObjectID `bson:"actorId" json:"actorId"`
	ClientID     primitive.ObjectID `bson:"clientId" json:"clientId"`
	ProgramID    primitive.ObjectID `bson:"programId" json:"programId"`
	AssignmentID primitive.ObjectID `bson:"assignmentId" json:"assignmentId"`
	Action       AuditAction        `bson:"action" json:"action"`
	Meta         map[string]string  `bson:"meta,omitempty" json:"meta,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
