package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"peakform/coaching-platform/internal/domain"
	"peakform/coaching-platform/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachServiceHandler exposes the coach service catalog and the request
// lifecycle around it.
type CoachServiceHandler struct {
	requestService service.CoachRequestService
}

// NewCoachServiceHandler creates a new CoachServiceHandler.
func NewCoachServiceHandler(requestService service.CoachRequestService) *CoachServiceHandler {
	return &CoachServiceHandler{requestService: requestService}
}

// --- Request/Response Structs ---

type CoachServiceRequestBody struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	PriceCents      int64  `json:"priceCents" binding:"required,min=1"`
	Currency        string `json:"currency"`
	DurationMinutes int    `json:"durationMinutes"`
	IsActive        *bool  `json:"isActive"`
}

type CoachServiceResponse struct {
	ID              string    `json:"id"`
	CoachID         string    `json:"coachId"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	PriceCents      int64     `json:"priceCents"`
	Currency        string    `json:"currency"`
	DurationMinutes int       `json:"durationMinutes,omitempty"`
	IsActive        bool      `json:"isActive"`
	CreatedAt       time.Time `json:"createdAt"`
}

type CreateServiceRequestBody struct {
	ServiceID string `json:"serviceId" binding:"required"`
}

type ServiceRequestResponse struct {
	ID         string    `json:"id"`
	ClientID   string    `json:"clientId"`
	ServiceID  string    `json:"serviceId"`
	CoachID    string    `json:"coachId"`
	Title      string    `json:"title"`
	PriceCents int64     `json:"priceCents"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	PaymentID  string    `json:"paymentId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CheckoutResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

// --- Service catalog ---

// CreateService godoc
// @Summary Create a coach service offering
// @Tags Coach Services
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param service body CoachServiceRequestBody true "Service details"
// @Success 201 {object} Envelope{data=CoachServiceResponse}
// @Router /coach/services [post]
func (h *CoachServiceHandler) CreateService(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	var req CoachServiceRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	svc, err := h.requestService.CreateService(c.Request.Context(), coachID, serviceInputFromBody(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "service created", MapCoachServiceToResponse(svc))
}

// UpdateService godoc
// @Summary Update an owned coach service offering
// @Tags Coach Services
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Service ID"
// @Param service body CoachServiceRequestBody true "Service details"
// @Success 200 {object} Envelope{data=CoachServiceResponse}
// @Router /coach/services/{id} [put]
func (h *CoachServiceHandler) UpdateService(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}
	serviceID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid service ID format")
		return
	}

	var req CoachServiceRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	svc, err := h.requestService.UpdateService(c.Request.Context(), coachID, serviceID, serviceInputFromBody(req))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "service updated", MapCoachServiceToResponse(svc))
}

// ListServices godoc
// @Summary List a coach's service offerings
// @Tags Coach Services
// @Produce json
// @Security BearerAuth
// @Param coachId path string true "Coach ID"
// @Success 200 {object} Envelope{data=[]CoachServiceResponse}
// @Router /coaches/{coachId}/services [get]
func (h *CoachServiceHandler) ListServices(c *gin.Context) {
	viewerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}
	coachID, err := primitive.ObjectIDFromHex(c.Param("coachId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coach ID format")
		return
	}

	services, err := h.requestService.ListServices(c.Request.Context(), viewerID, coachID)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]CoachServiceResponse, 0, len(services))
	for i := range services {
		results = append(results, MapCoachServiceToResponse(&services[i]))
	}
	respond(c, http.StatusOK, "services", results)
}

// --- Request lifecycle ---

// CreateRequest godoc
// @Summary Request the purchase of a coach service
// @Tags Coach Services
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateServiceRequestBody true "Request details"
// @Success 201 {object} Envelope{data=ServiceRequestResponse}
// @Router /coach-requests [post]
func (h *CoachServiceHandler) CreateRequest(c *gin.Context) {
	clientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	var req CreateServiceRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	serviceID, err := primitive.ObjectIDFromHex(req.ServiceID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid service ID format")
		return
	}

	request, err := h.requestService.CreateRequest(c.Request.Context(), clientID, serviceID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "request created", MapServiceRequestToResponse(request))
}

// AcceptRequest godoc
// @Summary Accept a pending service request
// @Tags Coach Services
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} Envelope{data=ServiceRequestResponse}
// @Failure 400 {object} Envelope "Not pending"
// @Router /coach-requests/{id}/accept [post]
func (h *CoachServiceHandler) AcceptRequest(c *gin.Context) {
	h.decide(c, h.requestService.AcceptRequest, "request accepted")
}

// RejectRequest godoc
// @Summary Reject a pending service request
// @Tags Coach Services
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} Envelope{data=ServiceRequestResponse}
// @Failure 400 {object} Envelope "Not pending"
// @Router /coach-requests/{id}/reject [post]
func (h *CoachServiceHandler) RejectRequest(c *gin.Context) {
	h.decide(c, h.requestService.RejectRequest, "request rejected")
}

// PayRequest godoc
// @Summary Start checkout for an accepted service request
// @Tags Coach Services
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} Envelope{data=CheckoutResponse}
// @Failure 400 {object} Envelope "Not accepted"
// @Router /coach-requests/{id}/pay [post]
func (h *CoachServiceHandler) PayRequest(c *gin.Context) {
	clientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}
	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request ID format")
		return
	}

	checkoutURL, err := h.requestService.PayRequest(c.Request.Context(), clientID, requestID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "checkout session created", CheckoutResponse{CheckoutURL: checkoutURL})
}

// MyRequests godoc
// @Summary List the caller's own service requests
// @Tags Coach Services
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} Envelope{data=Paginated}
// @Router /coach-requests/my [get]
func (h *CoachServiceHandler) MyRequests(c *gin.Context) {
	h.list(c, h.requestService.ListMyRequests)
}

// IncomingRequests godoc
// @Summary List requests for the coach's services
// @Tags Coach Services
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} Envelope{data=Paginated}
// @Router /coach-requests/incoming [get]
func (h *CoachServiceHandler) IncomingRequests(c *gin.Context) {
	h.list(c, h.requestService.ListCoachRequests)
}

func (h *CoachServiceHandler) decide(c *gin.Context, decideFn func(context.Context, primitive.ObjectID, primitive.ObjectID) (*domain.CoachServiceRequest, error), message string) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}
	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request ID format")
		return
	}

	request, err := decideFn(c.Request.Context(), coachID, requestID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, message, MapServiceRequestToResponse(request))
}

func (h *CoachServiceHandler) list(c *gin.Context, listFn func(context.Context, primitive.ObjectID, service.Page) ([]domain.CoachServiceRequest, int64, error)) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}
	page := pageFromQuery(c)

	requests, total, err := listFn(c.Request.Context(), userID, page)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]ServiceRequestResponse, 0, len(requests))
	for i := range requests {
		results = append(results, MapServiceRequestToResponse(&requests[i]))
	}
	respond(c, http.StatusOK, "requests", paginate(c, page, total, results))
}

func serviceInputFromBody(req CoachServiceRequestBody) service.CoachServiceInput {
	input := service.CoachServiceInput{
		Title:           req.Title,
		Description:     req.Description,
		PriceCents:      req.PriceCents,
		Currency:        req.Currency,
		DurationMinutes: req.DurationMinutes,
		IsActive:        true,
	}
	if req.IsActive != nil {
		input.IsActive = *req.IsActive
	}
	return input
}

// MapCoachServiceToResponse converts a domain CoachService to its DTO.
func MapCoachServiceToResponse(svc *domain.CoachService) CoachServiceResponse {
	return CoachServiceResponse{
		ID:              svc.ID.Hex(),
		CoachID:         svc.CoachID.Hex(),
		Title:           svc.Title,
		Description:     svc.Description,
		PriceCents:      svc.PriceCents,
		Currency:        svc.Currency,
		DurationMinutes: svc.DurationMinutes,
		IsActive:        svc.IsActive,
		CreatedAt:       svc.CreatedAt,
	}
}

// MapServiceRequestToResponse converts a domain CoachServiceRequest to its DTO.
func MapServiceRequestToResponse(request *domain.CoachServiceRequest) ServiceRequestResponse {
	resp := ServiceRequestResponse{
		ID:         request.ID.Hex(),
		ClientID:   request.ClientID.Hex(),
		ServiceID:  request.ServiceID.Hex(),
		CoachID:    request.CoachID.Hex(),
		Title:      request.Title,
		PriceCents: request.PriceCents,
		Currency:   request.Currency,
		Status:     string(request.Status),
		CreatedAt:  request.CreatedAt,
	}
	if request.PaymentID != nil {
		resp.PaymentID = request.PaymentID.Hex()
	}
	return resp
}
