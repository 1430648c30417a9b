package api

import (
	"net/http"
	"time"

	"peakform/coaching-platform/internal/domain"
	"peakform/coaching-platform/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionHandler holds the subscription service dependency.
type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// --- Response Structs ---

type SubscriptionPlanResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	PriceCents   int64  `json:"priceCents"`
	Currency     string `json:"currency"`
	DurationDays int    `json:"durationDays"`
}

type SubscriptionResponse struct {
	ID        string    `json:"id"`
	PlanID    string    `json:"planId"`
	Status    string    `json:"status"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsCurrent bool      `json:"isCurrent"`
}

// --- Handler Methods ---

// ListPlans godoc
// @Summary List purchasable subscription plans
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} Envelope{data=[]SubscriptionPlanResponse}
// @Router /subscriptions/plans [get]
func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	plans, err := h.subscriptionService.ListPlans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]SubscriptionPlanResponse, 0, len(plans))
	for _, plan := range plans {
		results = append(results, SubscriptionPlanResponse{
			ID:           plan.ID.Hex(),
			Title:        plan.Title,
			Description:  plan.Description,
			PriceCents:   plan.PriceCents,
			Currency:     plan.Currency,
			DurationDays: plan.DurationDays,
		})
	}
	respond(c, http.StatusOK, "plans", results)
}

// Subscribe godoc
// @Summary Start checkout for a subscription plan
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {object} Envelope{data=CheckoutResponse}
// @Router /subscriptions/plans/{planId}/subscribe [post]
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	userID, planID, ok := h.ids(c)
	if !ok {
		return
	}

	checkoutURL, err := h.subscriptionService.Subscribe(c.Request.Context(), userID, planID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "checkout session created", CheckoutResponse{CheckoutURL: checkoutURL})
}

// MySubscriptions godoc
// @Summary List the caller's subscriptions
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope{data=[]SubscriptionResponse}
// @Router /subscriptions/my [get]
func (h *SubscriptionHandler) MySubscriptions(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}

	subs, err := h.subscriptionService.MySubscriptions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	results := make([]SubscriptionResponse, 0, len(subs))
	for i := range subs {
		results = append(results, MapSubscriptionToResponse(&subs[i], now))
	}
	respond(c, http.StatusOK, "subscriptions", results)
}

// Cancel godoc
// @Summary Cancel a subscription; access runs until the paid-up end date
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {object} Envelope{data=SubscriptionResponse}
// @Router /subscriptions/plans/{planId} [delete]
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID, planID, ok := h.ids(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.Cancel(c.Request.Context(), userID, planID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "subscription cancelled", MapSubscriptionToResponse(sub, time.Now()))
}

func (h *SubscriptionHandler) ids(c *gin.Context) (userID, planID primitive.ObjectID, ok bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return userID, planID, false
	}
	planID, err = primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format")
		return userID, planID, false
	}
	return userID, planID, true
}

// MapSubscriptionToResponse converts a domain Subscription to its DTO.
func MapSubscriptionToResponse(sub *domain.Subscription, now time.Time) SubscriptionResponse {
	return SubscriptionResponse{
		ID:        sub.ID.Hex(),
		PlanID:    sub.PlanID.Hex(),
		Status:    string(sub.Status),
		StartDate: sub.StartDate,
		EndDate:   sub.EndDate,
		IsCurrent: sub.IsCurrent(now),
	}
}
