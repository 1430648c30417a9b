package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"peakform/coaching-platform/internal/domain"
	"peakform/coaching-platform/internal/payments"
	"peakform/coaching-platform/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// PaymentHandler receives provider webhooks and exposes payment history.
type PaymentHandler struct {
	paymentService service.PaymentService
	gateway        payments.Gateway
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService service.PaymentService, gateway payments.Gateway) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, gateway: gateway}
}

// --- Response Structs ---

type TransactionResponse struct {
	ID          string    `json:"id"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	PaymentType string    `json:"paymentType"`
	Status      string    `json:"status"`
	Provider    string    `json:"provider"`
	CreatedAt   time.Time `json:"createdAt"`
}

type EarningResponse struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transactionId"`
	AmountCents   int64     `json:"amountCents"`
	SplitType     string    `json:"splitType"`
	Percentage    int       `json:"percentage"`
	CreatedAt     time.Time `json:"createdAt"`
}

// --- Handler Methods ---

// StripeWebhook godoc
// @Summary Receive Stripe checkout events
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} Envelope
// @Failure 400 {object} Envelope "Signature verification failed"
// @Router /payments/webhook/stripe [post]
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Failed to read webhook payload")
		return
	}

	event, err := h.gateway.VerifyEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		var unhandled *payments.ErrUnhandledEvent
		if errors.As(err, &unhandled) {
			respond(c, http.StatusOK, "event received", nil)
			return
		}
		log.Warn().Err(err).Msg("webhook signature verification failed")
		abortWithError(c, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	// A non-2xx response makes the provider retry the event later.
	if err := h.paymentService.HandleEvent(c.Request.Context(), event); err != nil {
		log.Error().Err(err).Str("session_id", event.SessionID).Msg("webhook settlement failed")
		abortWithError(c, http.StatusInternalServerError, "Failed to process event")
		return
	}
	respond(c, http.StatusOK, "event processed", nil)
}

// MyTransactions godoc
// @Summary List the caller's payment transactions
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} Envelope{data=Paginated}
// @Router /payments/transactions [get]
func (h *PaymentHandler) MyTransactions(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}
	page := pageFromQuery(c)

	transactions, total, err := h.paymentService.ListMyTransactions(c.Request.Context(), userID, page)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]TransactionResponse, 0, len(transactions))
	for i := range transactions {
		results = append(results, MapTransactionToResponse(&transactions[i]))
	}
	respond(c, http.StatusOK, "transactions", paginate(c, page, total, results))
}

// MyEarnings godoc
// @Summary List the caller's revenue split credits
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} Envelope{data=Paginated}
// @Router /payments/earnings [get]
func (h *PaymentHandler) MyEarnings(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid session")
		return
	}
	page := pageFromQuery(c)

	splits, total, err := h.paymentService.ListMyEarnings(c.Request.Context(), userID, page)
	if err != nil {
		respondError(c, err)
		return
	}

	results := make([]EarningResponse, 0, len(splits))
	for _, split := range splits {
		results = append(results, EarningResponse{
			ID:            split.ID.Hex(),
			TransactionID: split.TransactionID.Hex(),
			AmountCents:   split.AmountCents,
			SplitType:     string(split.SplitType),
			Percentage:    split.Percentage,
			CreatedAt:     split.CreatedAt,
		})
	}
	respond(c, http.StatusOK, "earnings", paginate(c, page, total, results))
}

// MapTransactionToResponse converts a domain PaymentTransaction to its DTO.
func MapTransactionToResponse(tx *domain.PaymentTransaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID.Hex(),
		AmountCents: tx.AmountCents,
		Currency:    tx.Currency,
		PaymentType: string(tx.PaymentType),
		Status:      string(tx.Status),
		Provider:    tx.Provider,
		CreatedAt:   tx.CreatedAt,
	}
}
