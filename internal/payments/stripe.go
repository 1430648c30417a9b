package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/webhook"
)

// stripeGateway implements Gateway on Stripe Checkout.
type stripeGateway struct {
	webhookSecret string
	successURL    string
	cancelURL     string
}

// NewStripeGateway creates a Gateway backed by Stripe. The secret key is set
// process-wide, matching how the stripe-go client is keyed.
func NewStripeGateway(secretKey, webhookSecret, successURL, cancelURL string) (Gateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	stripe.Key = secretKey
	return &stripeGateway{
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}, nil
}

// CreateCheckoutSession opens a Stripe Checkout session with an ad-hoc price
// so platform amounts never need pre-registered Stripe price objects.
func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	if p.AmountCents <= 0 {
		return nil, errors.New("checkout amount must be positive")
	}
	currency := p.Currency
	if currency == "" {
		currency = "usd"
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(p.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	if len(p.Metadata) > 0 {
		params.Metadata = p.Metadata
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyEvent authenticates the payload signature and decodes the checkout
// session events the platform settles on.
func (g *stripeGateway) VerifyEvent(payload []byte, sigHeader string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("verify webhook signature: %w", err)
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session event: %w", err)
		}
		out := &Event{
			Type:      EventType(event.Type),
			SessionID: sess.ID,
			Metadata:  sess.Metadata,
		}
		if sess.PaymentIntent != nil {
			out.PaymentIntentID = sess.PaymentIntent.ID
		}
		return out, nil
	default:
		return nil, &ErrUnhandledEvent{Type: string(event.Type)}
	}
}
