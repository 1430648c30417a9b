package service

import (
	"context"
	"strings"
	"time"

	"peakform/coaching-platform/internal/domain"
	"peakform/coaching-platform/internal/payments"
	"peakform/coaching-platform/internal/repository"
	"peakform/coaching-platform/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository implementations used across the service tests. They
// mirror the store's observable contract, including the sentinel errors the
// Mongo implementations surface on conflicts and failed conditional updates.

type fakeTxRunner struct {
	calls int
}

func (r *fakeTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return fn(ctx)
}

// --- users ---

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	copied := *user
	r.users[user.ID] = &copied
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) ListCoaches(ctx context.Context, offset, limit int64) ([]domain.User, int64, error) {
	var coaches []domain.User
	for _, u := range r.users {
		if u.IsCoach && u.IsActive {
			coaches = append(coaches, *u)
		}
	}
	return coaches, int64(len(coaches)), nil
}

// --- coach-client links ---

type fakeCoachClientRepo struct {
	links map[primitive.ObjectID]*domain.CoachClient
}

func newFakeCoachClientRepo() *fakeCoachClientRepo {
	return &fakeCoachClientRepo{links: make(map[primitive.ObjectID]*domain.CoachClient)}
}

func (r *fakeCoachClientRepo) Create(ctx context.Context, link *domain.CoachClient) (primitive.ObjectID, error) {
	for _, existing := range r.links {
		if existing.CoachID == link.CoachID && existing.ClientID == link.ClientID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	link.ID = primitive.NewObjectID()
	copied := *link
	r.links[link.ID] = &copied
	return link.ID, nil
}

func (r *fakeCoachClientRepo) GetByPair(ctx context.Context, coachID, clientID primitive.ObjectID) (*domain.CoachClient, error) {
	for _, link := range r.links {
		if link.CoachID == coachID && link.ClientID == clientID {
			copied := *link
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeCoachClientRepo) Update(ctx context.Context, link *domain.CoachClient) error {
	if _, ok := r.links[link.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *link
	r.links[link.ID] = &copied
	return nil
}

func (r *fakeCoachClientRepo) GetClientsByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.CoachClient, error) {
	var out []domain.CoachClient
	for _, link := range r.links {
		if link.CoachID == coachID && link.IsActive {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (r *fakeCoachClientRepo) GetCoachesByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.CoachClient, error) {
	var out []domain.CoachClient
	for _, link := range r.links {
		if link.ClientID == clientID && link.IsActive {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (r *fakeCoachClientRepo) HasActiveLink(ctx context.Context, coachID, clientID primitive.ObjectID) (bool, error) {
	for _, link := range r.links {
		if link.CoachID == coachID && link.ClientID == clientID && link.IsActive {
			return true, nil
		}
	}
	return false, nil
}

// --- exercises ---

type fakeExerciseRepo struct {
	exercises map[primitive.ObjectID]*domain.Exercise
}

func newFakeExerciseRepo(exercises ...*domain.Exercise) *fakeExerciseRepo {
	r := &fakeExerciseRepo{exercises: make(map[primitive.ObjectID]*domain.Exercise)}
	for _, e := range exercises {
		if e.ID.IsZero() {
			e.ID = primitive.NewObjectID()
		}
		r.exercises[e.ID] = e
	}
	return r
}

func (r *fakeExerciseRepo) Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	for _, existing := range r.exercises {
		if existing.Slug == exercise.Slug {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	exercise.ID = primitive.NewObjectID()
	copied := *exercise
	r.exercises[exercise.ID] = &copied
	return exercise.ID, nil
}

func (r *fakeExerciseRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	e, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeExerciseRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Exercise, error) {
	var out []domain.Exercise
	for _, id := range ids {
		if e, ok := r.exercises[id]; ok && e.IsActive {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeExerciseRepo) List(ctx context.Context, filter repository.ExerciseFilter, offset, limit int64) ([]domain.Exercise, int64, error) {
	var out []domain.Exercise
	for _, e := range r.exercises {
		if !e.IsActive {
			continue
		}
		if !e.IsPublic {
			if filter.ViewerID == nil || e.CreatedBy != *filter.ViewerID {
				continue
			}
		}
		out = append(out, *e)
	}
	return out, int64(len(out)), nil
}

func (r *fakeExerciseRepo) Update(ctx context.Context, exercise *domain.Exercise) error {
	if _, ok := r.exercises[exercise.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *exercise
	r.exercises[exercise.ID] = &copied
	return nil
}

func (r *fakeExerciseRepo) Deactivate(ctx context.Context, id, ownerID primitive.ObjectID) error {
	e, ok := r.exercises[id]
	if !ok || e.CreatedBy != ownerID {
		return repository.ErrNotFound
	}
	e.IsActive = false
	return nil
}

// --- programs ---

type fakeProgramRepo struct {
	programs map[primitive.ObjectID]*domain.WorkoutProgram
	sessions map[primitive.ObjectID]*domain.WorkoutSession
	rows     map[primitive.ObjectID]*domain.WorkoutExercise
	rowSeq   int
}

func newFakeProgramRepo() *fakeProgramRepo {
	return &fakeProgramRepo{
		programs: make(map[primitive.ObjectID]*domain.WorkoutProgram),
		sessions: make(map[primitive.ObjectID]*domain.WorkoutSession),
		rows:     make(map[primitive.ObjectID]*domain.WorkoutExercise),
	}
}

func (r *fakeProgramRepo) Create(ctx context.Context, program *domain.WorkoutProgram) (primitive.ObjectID, error) {
	for _, existing := range r.programs {
		if existing.Slug == program.Slug {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	program.ID = primitive.NewObjectID()
	program.CreatedAt = time.Now().UTC()
	copied := *program
	r.programs[program.ID] = &copied
	return program.ID, nil
}

func (r *fakeProgramRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutProgram, error) {
	p, ok := r.programs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeProgramRepo) Update(ctx context.Context, program *domain.WorkoutProgram) error {
	if _, ok := r.programs[program.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *program
	r.programs[program.ID] = &copied
	return nil
}

func (r *fakeProgramRepo) Deactivate(ctx context.Context, id, ownerID primitive.ObjectID) error {
	p, ok := r.programs[id]
	if !ok || p.CreatedBy != ownerID {
		return repository.ErrNotFound
	}
	p.IsActive = false
	return nil
}

func (r *fakeProgramRepo) List(ctx context.Context, filter repository.ProgramFilter, offset, limit int64) ([]domain.WorkoutProgram, int64, error) {
	var out []domain.WorkoutProgram
	for _, p := range r.programs {
		if !p.IsActive && !filter.IncludeInactive {
			continue
		}
		if filter.OwnerID != nil && p.CreatedBy != *filter.OwnerID {
			continue
		}
		if filter.ViewerID != nil && !p.IsPublic && p.CreatedBy != *filter.ViewerID {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProgramRepo) CreateSession(ctx context.Context, session *domain.WorkoutSession) (primitive.ObjectID, error) {
	session.ID = primitive.NewObjectID()
	copied := *session
	r.sessions[session.ID] = &copied
	return session.ID, nil
}

func (r *fakeProgramRepo) GetSessionsByProgramID(ctx context.Context, programID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	var out []domain.WorkoutSession
	for _, s := range r.sessions {
		if s.ProgramID != nil && *s.ProgramID == programID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeProgramRepo) DetachSessionsFromProgram(ctx context.Context, programID primitive.ObjectID) error {
	for _, s := range r.sessions {
		if s.ProgramID != nil && *s.ProgramID == programID {
			s.ProgramID = nil
		}
	}
	return nil
}

func (r *fakeProgramRepo) DeleteSessionsByProgramID(ctx context.Context, programID primitive.ObjectID) error {
	for id, s := range r.sessions {
		if s.ProgramID != nil && *s.ProgramID == programID {
			delete(r.sessions, id)
		}
	}
	return nil
}

func (r *fakeProgramRepo) CreateWorkoutExercises(ctx context.Context, rows []domain.WorkoutExercise) error {
	for i := range rows {
		rows[i].ID = primitive.NewObjectID()
		copied := rows[i]
		r.rows[rows[i].ID] = &copied
		r.rowSeq++
	}
	return nil
}

func (r *fakeProgramRepo) GetWorkoutExercisesBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) ([]domain.WorkoutExercise, error) {
	wanted := make(map[primitive.ObjectID]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		wanted[id] = true
	}
	var out []domain.WorkoutExercise
	for _, row := range r.rows {
		if wanted[row.SessionID] {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *fakeProgramRepo) DeleteWorkoutExercisesBySessionIDs(ctx context.Context, sessionIDs []primitive.ObjectID) error {
	wanted := make(map[primitive.ObjectID]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		wanted[id] = true
	}
	for id, row := range r.rows {
		if wanted[row.SessionID] {
			delete(r.rows, id)
		}
	}
	return nil
}

// --- assignments ---

type fakeAssignmentRepo struct {
	assignments map[primitive.ObjectID]*domain.ProgramAssignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[primitive.ObjectID]*domain.ProgramAssignment)}
}

func (r *fakeAssignmentRepo) CreateActive(ctx context.Context, assignment *domain.ProgramAssignment) (primitive.ObjectID, error) {
	for _, existing := range r.assignments {
		if existing.ClientID == assignment.ClientID && existing.ProgramID == assignment.ProgramID && existing.IsActive {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	assignment.ID = primitive.NewObjectID()
	assignment.IsActive = true
	assignment.AssignedAt = time.Now().UTC()
	copied := *assignment
	r.assignments[assignment.ID] = &copied
	return assignment.ID, nil
}

func (r *fakeAssignmentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramAssignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAssignmentRepo) GetActive(ctx context.Context, clientID, programID primitive.ObjectID) (*domain.ProgramAssignment, error) {
	for _, a := range r.assignments {
		if a.ClientID == clientID && a.ProgramID == programID && a.IsActive {
			copied := *a
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAssignmentRepo) GetLatest(ctx context.Context, clientID, programID primitive.ObjectID) (*domain.ProgramAssignment, error) {
	var latest *domain.ProgramAssignment
	for _, a := range r.assignments {
		if a.ClientID == clientID && a.ProgramID == programID {
			if latest == nil || a.AssignedAt.After(latest.AssignedAt) {
				latest = a
			}
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeAssignmentRepo) Reactivate(ctx context.Context, id primitive.ObjectID, coachID, requestID *primitive.ObjectID, assignedAt time.Time) error {
	a, ok := r.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if a.IsActive {
		return repository.ErrUpdateFailed
	}
	a.IsActive = true
	a.CoachID = coachID
	a.CoachServiceRequestID = requestID
	a.AssignedAt = assignedAt
	return nil
}

func (r *fakeAssignmentRepo) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	a, ok := r.assignments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !a.IsActive {
		return repository.ErrUpdateFailed
	}
	a.IsActive = false
	return nil
}

func (r *fakeAssignmentRepo) ListHistory(ctx context.Context, filter repository.AssignmentFilter, offset, limit int64) ([]domain.ProgramAssignment, int64, error) {
	var out []domain.ProgramAssignment
	for _, a := range r.assignments {
		if filter.ClientID != nil && a.ClientID != *filter.ClientID {
			continue
		}
		if filter.CoachID != nil && (a.CoachID == nil || *a.CoachID != *filter.CoachID) {
			continue
		}
		if filter.ProgramID != nil && a.ProgramID != *filter.ProgramID {
			continue
		}
		if filter.IsActive != nil && a.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

// --- audit ---

type fakeAuditRepo struct {
	entries []domain.AssignmentAudit
}

func (r *fakeAuditRepo) Create(ctx context.Context, entry *domain.AssignmentAudit) (primitive.ObjectID, error) {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now().UTC()
	r.entries = append(r.entries, *entry)
	return entry.ID, nil
}

func (r *fakeAuditRepo) GetByAssignmentID(ctx context.Context, assignmentID primitive.ObjectID) ([]domain.AssignmentAudit, error) {
	var out []domain.AssignmentAudit
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].AssignmentID == assignmentID {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}

// --- coach services ---

type fakeCoachServiceRepo struct {
	services map[primitive.ObjectID]*domain.CoachService
}

func newFakeCoachServiceRepo() *fakeCoachServiceRepo {
	return &fakeCoachServiceRepo{services: make(map[primitive.ObjectID]*domain.CoachService)}
}

func (r *fakeCoachServiceRepo) Create(ctx context.Context, svc *domain.CoachService) (primitive.ObjectID, error) {
	svc.ID = primitive.NewObjectID()
	copied := *svc
	r.services[svc.ID] = &copied
	return svc.ID, nil
}

func (r *fakeCoachServiceRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachService, error) {
	s, ok := r.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeCoachServiceRepo) Update(ctx context.Context, svc *domain.CoachService) error {
	if _, ok := r.services[svc.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *svc
	r.services[svc.ID] = &copied
	return nil
}

func (r *fakeCoachServiceRepo) GetByCoachID(ctx context.Context, coachID primitive.ObjectID, activeOnly bool) ([]domain.CoachService, error) {
	var out []domain.CoachService
	for _, s := range r.services {
		if s.CoachID != coachID {
			continue
		}
		if activeOnly && !s.IsActive {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

// --- coach service requests ---

type fakeRequestRepo struct {
	requests map[primitive.ObjectID]*domain.CoachServiceRequest
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[primitive.ObjectID]*domain.CoachServiceRequest)}
}

func (r *fakeRequestRepo) Create(ctx context.Context, req *domain.CoachServiceRequest) (primitive.ObjectID, error) {
	req.ID = primitive.NewObjectID()
	req.CreatedAt = time.Now().UTC()
	copied := *req
	r.requests[req.ID] = &copied
	return req.ID, nil
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.CoachServiceRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *req
	return &copied, nil
}

func (r *fakeRequestRepo) GetByPaymentID(ctx context.Context, paymentID primitive.ObjectID) (*domain.CoachServiceRequest, error) {
	for _, req := range r.requests {
		if req.PaymentID != nil && *req.PaymentID == paymentID {
			copied := *req
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRequestRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to domain.RequestStatus) error {
	req, ok := r.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if req.Status != from {
		return repository.ErrUpdateFailed
	}
	req.Status = to
	return nil
}

func (r *fakeRequestRepo) SetPayment(ctx context.Context, id, paymentID primitive.ObjectID) error {
	req, ok := r.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	req.PaymentID = &paymentID
	return nil
}

func (r *fakeRequestRepo) ListByClient(ctx context.Context, clientID primitive.ObjectID, offset, limit int64) ([]domain.CoachServiceRequest, int64, error) {
	var out []domain.CoachServiceRequest
	for _, req := range r.requests {
		if req.ClientID == clientID {
			out = append(out, *req)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRequestRepo) ListByCoach(ctx context.Context, coachID primitive.ObjectID, offset, limit int64) ([]domain.CoachServiceRequest, int64, error) {
	var out []domain.CoachServiceRequest
	for _, req := range r.requests {
		if req.CoachID == coachID {
			out = append(out, *req)
		}
	}
	return out, int64(len(out)), nil
}

// --- transactions ---

type fakeTransactionRepo struct {
	transactions map[primitive.ObjectID]*domain.PaymentTransaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{transactions: make(map[primitive.ObjectID]*domain.PaymentTransaction)}
}

func (r *fakeTransactionRepo) Create(ctx context.Context, tx *domain.PaymentTransaction) (primitive.ObjectID, error) {
	tx.ID = primitive.NewObjectID()
	tx.CreatedAt = time.Now().UTC()
	copied := *tx
	r.transactions[tx.ID] = &copied
	return tx.ID, nil
}

func (r *fakeTransactionRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PaymentTransaction, error) {
	tx, ok := r.transactions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *tx
	return &copied, nil
}

func (r *fakeTransactionRepo) GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*domain.PaymentTransaction, error) {
	for _, tx := range r.transactions {
		if tx.ProviderPaymentID == providerPaymentID {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeTransactionRepo) MarkPaid(ctx context.Context, id primitive.ObjectID, providerPaymentID string) error {
	tx, ok := r.transactions[id]
	if !ok {
		return repository.ErrNotFound
	}
	if tx.Status != domain.TransactionPending {
		return repository.ErrUpdateFailed
	}
	tx.Status = domain.TransactionPaid
	tx.ProviderPaymentID = providerPaymentID
	return nil
}

func (r *fakeTransactionRepo) MarkFailed(ctx context.Context, id primitive.ObjectID) error {
	tx, ok := r.transactions[id]
	if !ok {
		return repository.ErrNotFound
	}
	if tx.Status != domain.TransactionPending {
		return repository.ErrUpdateFailed
	}
	tx.Status = domain.TransactionFailed
	return nil
}

func (r *fakeTransactionRepo) ListByUser(ctx context.Context, userID primitive.ObjectID, offset, limit int64) ([]domain.PaymentTransaction, int64, error) {
	var out []domain.PaymentTransaction
	for _, tx := range r.transactions {
		if tx.UserID == userID {
			out = append(out, *tx)
		}
	}
	return out, int64(len(out)), nil
}

// --- revenue splits ---

type fakeSplitRepo struct {
	splits []domain.RevenueSplit
}

func (r *fakeSplitRepo) Create(ctx context.Context, split *domain.RevenueSplit) (primitive.ObjectID, error) {
	for _, existing := range r.splits {
		if existing.TransactionID == split.TransactionID && existing.SplitType == split.SplitType {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	split.ID = primitive.NewObjectID()
	split.CreatedAt = time.Now().UTC()
	r.splits = append(r.splits, *split)
	return split.ID, nil
}

func (r *fakeSplitRepo) GetByTransactionID(ctx context.Context, txID primitive.ObjectID) ([]domain.RevenueSplit, error) {
	var out []domain.RevenueSplit
	for _, s := range r.splits {
		if s.TransactionID == txID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSplitRepo) ListByBeneficiary(ctx context.Context, beneficiaryID primitive.ObjectID, offset, limit int64) ([]domain.RevenueSplit, int64, error) {
	var out []domain.RevenueSplit
	for _, s := range r.splits {
		if s.BeneficiaryID == beneficiaryID {
			out = append(out, s)
		}
	}
	return out, int64(len(out)), nil
}

// --- subscription plans ---

type fakePlanRepo struct {
	plans map[primitive.ObjectID]*domain.SubscriptionPlan
}

func newFakePlanRepo(plans ...*domain.SubscriptionPlan) *fakePlanRepo {
	r := &fakePlanRepo{plans: make(map[primitive.ObjectID]*domain.SubscriptionPlan)}
	for _, p := range plans {
		if p.ID.IsZero() {
			p.ID = primitive.NewObjectID()
		}
		r.plans[p.ID] = p
	}
	return r
}

func (r *fakePlanRepo) Create(ctx context.Context, plan *domain.SubscriptionPlan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	copied := *plan
	r.plans[plan.ID] = &copied
	return plan.ID, nil
}

func (r *fakePlanRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SubscriptionPlan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakePlanRepo) ListActive(ctx context.Context) ([]domain.SubscriptionPlan, error) {
	var out []domain.SubscriptionPlan
	for _, p := range r.plans {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

// --- subscriptions ---

type fakeSubscriptionRepo struct {
	subs map[primitive.ObjectID]*domain.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: make(map[primitive.ObjectID]*domain.Subscription)}
}

func (r *fakeSubscriptionRepo) Create(ctx context.Context, sub *domain.Subscription) (primitive.ObjectID, error) {
	for _, existing := range r.subs {
		if existing.UserID == sub.UserID && existing.PlanID == sub.PlanID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	sub.ID = primitive.NewObjectID()
	copied := *sub
	r.subs[sub.ID] = &copied
	return sub.ID, nil
}

func (r *fakeSubscriptionRepo) GetByUserAndPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.Subscription, error) {
	for _, sub := range r.subs {
		if sub.UserID == userID && sub.PlanID == planID {
			copied := *sub
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSubscriptionRepo) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Subscription, error) {
	var out []domain.Subscription
	for _, sub := range r.subs {
		if sub.UserID == userID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) Update(ctx context.Context, sub *domain.Subscription) error {
	if _, ok := r.subs[sub.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *sub
	r.subs[sub.ID] = &copied
	return nil
}

// --- payment gateway ---

type fakeGateway struct {
	sessions []payments.CheckoutParams
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, params payments.CheckoutParams) (*payments.CheckoutSession, error) {
	g.sessions = append(g.sessions, params)
	return &payments.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil
}

func (g *fakeGateway) VerifyEvent(payload []byte, sigHeader string) (*payments.Event, error) {
	return nil, &payments.ErrUnhandledEvent{Type: "test"}
}

// --- file storage ---

type fakeFileStorage struct {
	uploads   []string
	downloads []string
}

func (s *fakeFileStorage) GeneratePresignedUploadURL(ctx context.Context, objectKey, contentType string, expires time.Duration) (string, error) {
	s.uploads = append(s.uploads, objectKey)
	return "https://storage.example/upload/" + objectKey, nil
}

func (s *fakeFileStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	s.downloads = append(s.downloads, objectKey)
	return "https://storage.example/download/" + objectKey, nil
}

func (s *fakeFileStorage) DeleteObject(ctx context.Context, objectKey string) error {
	return nil
}

var _ storage.FileStorage = (*fakeFileStorage)(nil)
