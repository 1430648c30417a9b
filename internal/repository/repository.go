package repository

import (
	"context"
	"time"

	"peakform/coaching-platform/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TxRunner executes a function inside a single database transaction. Writes
// performed through repositories with the supplied context either all commit
// or all roll back.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	ListCoaches(ctx context.Context, offset, limit int64) ([]domain.User, int64, error)
}

// CoachClientRepository manages coach-to-client links.
type CoachClientRepository interface {
	Create(ctx context.Context, link *domain.CoachClient) (primitive.ObjectID, error)
	GetByPair(ctx context.Context, coachID, clientID primitive.ObjectID) (*domain.CoachClient, error)
	Update(ctx context.Context, link *domain.CoachClient) error
	GetClientsByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.CoachClient, error)
	GetCoachesByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.CoachClient, error)
	HasActiveLink(ctx context.Context, coachID, clientID primitive.ObjectID) (bool, error)
}

// ExerciseRepository defines the interface for interacting with exercise data.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error)
	List(ctx context.Context, filter ExerciseFilter, offset, limit int64) ([]domain.Exercise, int64, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Deactivate(ctx context.Context, id, ownerID primitive.ObjectID) error
}

// ExerciseFilter narrows exercise listings. A nil ViewerID lists public
// exercises only; otherwise the viewer's own private exercises are included.
type ExerciseFilter struct {
	ViewerID     *primitive.ObjectID
	MuscleGroup  string
	Level        string
	Search       string
	IncludeOwned bool
}

// ProgramRepository manages workout programs and their nested sessions and
// per-session exercise rows.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.WorkoutProgram) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutProgram, error)
	Update(ctx context.Context, program *domain.WorkoutProgram) error
	Deactivate(ctx context.Context, id, ownerID primitive.ObjectID) error
	List(ctx context.Context, filter ProgramFilter, offset, limit int64) ([]domain.WorkoutProgram, int64, error)

	CreateSession(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error)
	GetSessionsByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.WorkoutSession, error)
	DetachSessionsFromProgram(ctx context.Context, programID primitive.ObjectID) error
	DeleteSessionsByProgramID(ctx context.Context, programID primitive.ObjectID) error

	CreateWorkoutExercises(ctx context.Context, rows []domain.WorkoutExercise) error
	GetWorkoutExercisesBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) ([]domain.WorkoutExercise, error)
	DeleteWorkoutExercisesBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) error
}

// ProgramFilter narrows program listings. IncludeInactive is honored only
// for owner-scoped listings so creators can see their drafts.
type ProgramFilter struct {
	ViewerID        *primitive.ObjectID
	OwnerID         *primitive.ObjectID
	Level           string
	Goal            string
	Search          string
	Published       *bool
	IncludeInactive bool
}

// AssignmentRepository manages program assignments. CreateActive must surface
// ErrDuplicate when an active assignment already exists for the same client
// and program pair.
type AssignmentRepository interface {
	CreateActive(ctx context.Context, assignment *domain.ProgramAssignment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramAssignment, error)
	GetActive(ctx context.Context, clientID, programID primitive.ObjectID) (*domain.ProgramAssignment, error)
	GetLatest(ctx context.Context, clientID, programID primitive.ObjectID) (*domain.ProgramAssignment, error)
	Reactivate(ctx context.Context, id primitive.ObjectID, coachID, requestID *primitive.ObjectID, assignedAt time.Time) error
	Deactivate(ctx context.Context, id primitive.ObjectID) error
	ListHistory(ctx context.Context, filter AssignmentFilter, offset, limit int64) ([]domain.ProgramAssignment, int64, error)
}

// AssignmentFilter narrows assignment history queries. FromDate and ToDate
// bound AssignedAt inclusively by calendar day.
type AssignmentFilter struct {
	ClientID  *primitive.ObjectID
	CoachID   *primitive.ObjectID
	ProgramID *primitive.ObjectID
	IsActive  *bool
	FromDate  *time.Time
	ToDate    *time.Time
}

// AuditRepository appends and reads assignment audit entries. Trails are
// returned newest first.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AssignmentAudit) (primitive.ObjectID, error)
	GetByAssignmentID(ctx context.Context, assignmentID primitive.ObjectID) ([]domain.AssignmentAudit, error)
}

// CoachServiceRepository manages coach service offerings.
type CoachServiceRepository interface {
	Create(ctx context.Context, svc *domain.CoachService) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachService, error)
	Update(ctx context.Context, svc *domain.CoachService) error
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID, activeOnly bool) ([]domain.CoachService, error)
}

// CoachServiceRequestRepository manages client purchase requests.
// UpdateStatus performs a conditional transition and reports ErrUpdateFailed
// when the document is no longer in the expected state.
type CoachServiceRequestRepository interface {
	Create(ctx context.Context, req *domain.CoachServiceRequest) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachServiceRequest, error)
	GetByPaymentID(ctx context.Context, paymentID primitive.ObjectID) (*domain.CoachServiceRequest, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.RequestStatus) error
	SetPayment(ctx context.Context, id, paymentID primitive.ObjectID) error
	ListByClient(ctx context.Context, clientID primitive.ObjectID, offset, limit int64) ([]domain.CoachServiceRequest, int64, error)
	ListByCoach(ctx context.Context, coachID primitive.ObjectID, offset, limit int64) ([]domain.CoachServiceRequest, int64, error)
}

// TransactionRepository manages payment transactions. MarkPaid flips a
// pending transaction to paid and reports ErrUpdateFailed when the document
// was not pending, which callers use to make settlement idempotent.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.PaymentTransaction) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PaymentTransaction, error)
	GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*domain.PaymentTransaction, error)
	MarkPaid(ctx context.Context, id primitive.ObjectID, providerPaymentID string) error
	MarkFailed(ctx context.Context, id primitive.ObjectID) error
	ListByUser(ctx context.Context, userID primitive.ObjectID, offset, limit int64) ([]domain.PaymentTransaction, int64, error)
}

// RevenueSplitRepository appends revenue split rows. Create must surface
// ErrDuplicate when a row with the same transaction and split type exists.
type RevenueSplitRepository interface {
	Create(ctx context.Context, split *domain.RevenueSplit) (primitive.ObjectID, error)
	GetByTransactionID(ctx context.Context, txID primitive.ObjectID) ([]domain.RevenueSplit, error)
	ListByBeneficiary(ctx context.Context, beneficiaryID primitive.ObjectID, offset, limit int64) ([]domain.RevenueSplit, int64, error)
}

// SubscriptionPlanRepository manages purchasable plans.
type SubscriptionPlanRepository interface {
	Create(ctx context.Context, plan *domain.SubscriptionPlan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SubscriptionPlan, error)
	ListActive(ctx context.Context) ([]domain.SubscriptionPlan, error)
}

// SubscriptionRepository manages user subscriptions, at most one per user
// and plan pair.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) (primitive.ObjectID, error)
	GetByUserAndPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.Subscription, error)
	GetActiveByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Subscription, error)
	Update(ctx context.Context, sub *domain.Subscription) error
}
