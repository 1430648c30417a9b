// Package payments abstracts the payment provider behind a small gateway
// interface so services and tests never touch provider SDK types directly.
package payments

import "context"

// CheckoutParams describes a one-off checkout for a platform purchase.
// Amounts are integer cents in the given currency.
type CheckoutParams struct {
	AmountCents   int64
	Currency      string
	ProductName   string
	CustomerEmail string
	Metadata      map[string]string
}

// CheckoutSession is the provider-hosted payment page the client is sent to.
type CheckoutSession struct {
	ID  string
	URL string
}

// EventType classifies verified webhook events the platform reacts to.
type EventType string

const (
	EventCheckoutCompleted EventType = "checkout.session.completed"
	EventCheckoutExpired   EventType = "checkout.session.expired"
)

// Event is a verified webhook notification. Metadata carries back whatever
// was attached to the checkout session, including the transaction reference.
type Event struct {
	Type            EventType
	SessionID       string
	PaymentIntentID string
	Metadata        map[string]string
}

// ErrUnhandledEvent marks event types the platform does not react to.
type ErrUnhandledEvent struct {
	Type string
}

func (e *ErrUnhandledEvent) Error() string {
	return "unhandled event type: " + e.Type
}

// Gateway is the payment provider boundary.
type Gateway interface {
	// CreateCheckoutSession opens a hosted payment page for the given amount.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	// VerifyEvent authenticates a raw webhook payload against its signature
	// header and decodes it. Returns *ErrUnhandledEvent for event types the
	// platform ignores.
	VerifyEvent(payload []byte, sigHeader string) (*Event, error)
}
