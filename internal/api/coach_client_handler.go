package api

import (
	"fmt"
	"net/http"
	"time"

	"peakform/coaching-platform/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachClientHandler holds the roster service dependency.
type CoachClientHandler struct {
	rosterService service.CoachClientService
}

// NewCoachClientHandler creates a new CoachClientHandler.
func NewCoachClientHandler(rosterService service.CoachClientService) *CoachClientHandler {
	return &CoachClientHandler{rosterService: rosterService}
}

// --- Request/Response Structs ---

type AddClientRequest struct {
	Email string `json:"email" binding:"required,email"`
	Notes string `json:"notes"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

type RosterEntryResponse struct {
	LinkID   string       `json:"linkId"`
	User     UserResponse `json:"user"`
	Notes    string       `json:"notes,omitempty"`
	LinkedAt time.Time    `json:"linkedAt"`
}

// --- Handler Methods ---

// AddClient godoc
// @Summary Add a client to the coach's roster
// @Tags Roster
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param client body AddClientRequest true "Client email"
// @Success 201 {object} Envelope
// @Failure 400 {object} Envelope "Already on roster"
// @Failure 404 {object} Envelope "No such user"
// @Router /coach/clients [post]
func (h *CoachClientHandler) AddClient(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	var req AddClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	link, err := h.rosterService.AddClient(c.Request.Context(), coachID, req.Email, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "client added", gin.H{"linkId": link.ID.Hex()})
}

// RemoveClient godoc
// @Summary Remove a client from the coach's roster
// @Tags Roster
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Success 200 {object} Envelope
// @Failure 404 {object} Envelope "Not on roster"
// @Router /coach/clients/{clientId} [delete]
func (h *CoachClientHandler) RemoveClient(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}
	clientID, err := primitive.ObjectIDFromHex(c.Param("clientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	if err := h.rosterService.RemoveClient(c.Request.Context(), coachID, clientID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "client removed", nil)
}

// UpdateNotes godoc
// @Summary Update roster notes for a client
// @Tags Roster
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Param notes body UpdateNotesRequest true "Notes"
// @Success 200 {object} Envelope
// @Router /coach/clients/{clientId}/notes [put]
func (h *CoachClientHandler) UpdateNotes(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}
	clientID, err := primitive.ObjectIDFromHex(c.Param("clientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return
	}

	var req UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	link, err := h.rosterService.UpdateNotes(c.Request.Context(), coachID, clientID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "notes updated", gin.H{"linkId": link.ID.Hex(), "notes": link.Notes})
}

// MyClients godoc
// @Summary List the coach's active clients
// @Tags Roster
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=[]RosterEntryResponse}
// @Router /coach/clients [get]
func (h *CoachClientHandler) MyClients(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	entries, err := h.rosterService.MyClients(c.Request.Context(), coachID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "clients", mapRosterEntries(entries))
}

// MyCoaches godoc
// @Summary List the coaches the caller is linked to
// @Tags Roster
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=[]RosterEntryResponse}
// @Router /users/me/coaches [get]
func (h *CoachClientHandler) MyCoaches(c *gin.Context) {
	clientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	entries, err := h.rosterService.MyCoaches(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "coaches", mapRosterEntries(entries))
}

func mapRosterEntries(entries []service.RosterEntry) []RosterEntryResponse {
	out := make([]RosterEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, RosterEntryResponse{
			LinkID:   entry.Link.ID.Hex(),
			User:     MapUserToResponse(&entry.User),
			Notes:    entry.Link.Notes,
			LinkedAt: entry.Link.CreatedAt,
		})
	}
	return out
}
