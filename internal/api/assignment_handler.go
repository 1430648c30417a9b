package api

import (
	"fmt"
	"net/http"
	"time"

	"peakform/coaching-platform/internal/domain"
	"peakform/coaching-platform/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignmentHandler holds the assignment and auth service dependencies.
// The auth service loads the acting user so assignment permissions can be
// decided against the full capability set.
type AssignmentHandler struct {
	assignmentService service.AssignmentService
	authService       service.AuthService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(assignmentService service.AssignmentService, authService service.AuthService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService, authService: authService}
}

// --- Request/Response Structs ---

type AssignRequest struct {
	ClientID       string `json:"clientId" binding:"required"`
	ProgramID      string `json:"programId" binding:"required"`
	CoachRequestID string `json:"coachRequestId"`
}

type AssignmentResponse struct {
	ID             string    `json:"id"`
	ClientID       string    `json:"clientId"`
	ProgramID      string    `json:"programId"`
	CoachID        string    `json:"coachId,omitempty"`
	CoachRequestID string    `json:"coachRequestId,omitempty"`
	IsActive       bool      `json:"isActive"`
	AssignedAt     time.Time `json:"assignedAt"`
}

type AssignmentAuditResponse struct {
	ID           string            `json:"id"`
	AssignmentID string            `json:"assignmentId"`
	ClientID     string            `json:"clientId"`
	ProgramID    string            `json:"programId"`
	Action       string            `json:"action"`
	ActorID      string            `json:"actorId"`
	Meta         map[string]string `json:"meta,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// --- Handler Methods ---

// Assign godoc
// @Summary Assign a program to a client
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignment body AssignRequest true "Assignment details"
// @Success 201 {object} Envelope{data=AssignmentResponse}
// @Failure 400 {object} Envelope "Already assigned"
// @Failure 403 {object} Envelope "Program not owned by coach"
// @Router /assignments [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}
	programID, err := primitive.ObjectIDFromHex(req.ProgramID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID format")
		return
	}
	input := service.AssignInput{ClientID: clientID, ProgramID: programID}
	if req.CoachRequestID != "" {
		requestID, err := primitive.ObjectIDFromHex(req.CoachRequestID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid request ID format")
			return
		}
		input.CoachRequestID = &requestID
	}

	assignment, err := h.assignmentService.Assign(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "program assigned", MapAssignmentToResponse(assignment))
}

// Unassign godoc
// @Summary Deactivate an active assignment
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {object} Envelope{data=AssignmentResponse}
// @Failure 403 {object} Envelope
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Unassign(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	assignmentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid assignment ID format")
		return
	}

	assignment, err := h.assignmentService.Unassign(c.Request.Context(), actor, assignmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "program unassigned", MapAssignmentToResponse(assignment))
}

// History godoc
// @Summary List a client's assignment history
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Param is_active query bool false "Filter by active state"
// @Param program_id query string false "Filter by program"
// @Param from_date query string false "Inclusive start date (YYYY-MM-DD)"
// @Param to_date query string false "Inclusive end date (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} Envelope{data=Paginated}
// @Failure 403 {object} Envelope
// @Router /clients/{clientId}/assignments [get]
func (h *AssignmentHandler) History(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	clientID, err := primitive.ObjectIDFromHex(c.Param("clientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	filter, err := historyFilterFromQuery(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	page := pageFromQuery(c)

	assignments, total, err := h.assignmentService.GetHistory(c.Request.Context(), actor, clientID, filter, page)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		results = append(results, MapAssignmentToResponse(&assignments[i]))
	}
	respond(c, http.StatusOK, "assignment history", paginate(c, page, total, results))
}

// AuditTrail godoc
// @Summary List the audit entries of one assignment
// @Tags Assignments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 200 {object} Envelope{data=[]AssignmentAuditResponse}
// @Failure 403 {object} Envelope
// @Router /assignments/{id}/audit [get]
func (h *AssignmentHandler) AuditTrail(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	assignmentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid assignment ID format")
		return
	}

	entries, err := h.assignmentService.GetAuditTrail(c.Request.Context(), actor, assignmentID)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]AssignmentAuditResponse, 0, len(entries))
	for _, entry := range entries {
		results = append(results, AssignmentAuditResponse{
			ID:           entry.ID.Hex(),
			AssignmentID: entry.AssignmentID.Hex(),
			ClientID:     entry.ClientID.Hex(),
			ProgramID:    entry.ProgramID.Hex(),
			Action:       string(entry.Action),
			ActorID:      entry.ActorID.Hex(),
			Meta:         entry.Meta,
			CreatedAt:    entry.CreatedAt,
		})
	}
	respond(c, http.StatusOK, "audit trail", results)
}

func (h *AssignmentHandler) actor(c *gin.Context) (*domain.User, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return nil, false
	}
	actor, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return actor, true
}

func historyFilterFromQuery(c *gin.Context) (service.HistoryFilter, error) {
	var filter service.HistoryFilter
	if raw := c.Query("is_active"); raw != "" {
		active := raw == "true"
		filter.IsActive = &active
	}
	if raw := c.Query("program_id"); raw != "" {
		programID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid program_id %q", raw)
		}
		filter.ProgramID = &programID
	}
	if raw := c.Query("from_date"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, fmt.Errorf("invalid from_date %q, expected YYYY-MM-DD", raw)
		}
		filter.FromDate = &from
	}
	if raw := c.Query("to_date"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, fmt.Errorf("invalid to_date %q, expected YYYY-MM-DD", raw)
		}
		filter.ToDate = &to
	}
	return filter, nil
}

// MapAssignmentToResponse converts a domain ProgramAssignment to its DTO.
func MapAssignmentToResponse(assignment *domain.ProgramAssignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:         assignment.ID.Hex(),
		ClientID:   assignment.ClientID.Hex(),
		ProgramID:  assignment.ProgramID.Hex(),
		IsActive:   assignment.IsActive,
		AssignedAt: assignment.AssignedAt,
	}
	if assignment.CoachID != nil {
		resp.CoachID = assignment.CoachID.Hex()
	}
	if assignment.CoachServiceRequestID != nil {
		resp.CoachRequestID = assignment.CoachServiceRequestID.Hex()
	}
	return resp
}
