package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

// ErrSlotClaimed is returned by a Client when the payment collaborator
// reports the slot was claimed by someone else in the interim. The engine
// treats it identically to a lost hold acquisition.
var ErrSlotClaimed = errors.New("slot claimed during checkout creation")

// SessionRequest carries everything the payment collaborator needs to
// build a checkout page for one booking request.
type SessionRequest struct {
	BookingRequestID string
	OfferingID       string
	OfferingName     string
	EventDate        time.Time
	SelectedTime     string
	PriceCents       int64
	Currency         string
	ActorID          string
}

// Session is the created payment session: an id the webhook will echo back
// and the URL the caller is redirected to.
type Session struct {
	ID  string
	URL string
}

// Client creates payment sessions. The Stripe implementation is the
// production client; tests substitute fakes.
type Client interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
}

// StripeClient builds Stripe Checkout sessions. The API key is set
// globally at startup (stripe.Key).
type StripeClient struct {
	successURL string
	cancelURL  string
}

func NewStripeClient(successURL, cancelURL string) *StripeClient {
	return &StripeClient{successURL: successURL, cancelURL: cancelURL}
}

func (c *StripeClient) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	name := fmt.Sprintf("%s - %s %s", req.OfferingName,
		req.EventDate.Format("2006-01-02"), req.SelectedTime)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(c.successURL),
		CancelURL:         stripe.String(c.cancelURL),
		ClientReferenceID: stripe.String(req.BookingRequestID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.PriceCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(name),
					},
				},
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_request_id", req.BookingRequestID)
	params.AddMetadata("offering_id", req.OfferingID)
	params.AddMetadata("actor_id", req.ActorID)

	s, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("create stripe checkout session failed: %w", err)
	}

	return &Session{ID: s.ID, URL: s.URL}, nil
}
