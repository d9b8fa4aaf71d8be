// Package payment wraps the external card-payment processor. The
// service only ever creates payment intents and re-checks their status;
// card details never touch this backend, the client confirms the intent
// directly against the processor.
package payment

import (
	"context"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// Intent is the subset of a processor payment intent the handlers need:
// the id becomes the ledger transaction id, the client secret goes back
// to the browser for confirmation.
type Intent struct {
	ID           string `json:"transactionId"`
	ClientSecret string `json:"clientSecret"`
}

// StripeClient talks to Stripe. The zero value is unusable; construct
// with NewStripeClient.
type StripeClient struct {
	api *client.API
}

// NewStripeClient returns a client authenticated with the given secret
// API key.
func NewStripeClient(secretKey string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api}
}

// CreateIntent opens a payment intent for the given amount in the
// smallest currency unit (poisha). The returned client secret is handed
// to the browser, which confirms the card payment against it.
func (s *StripeClient) CreateIntent(ctx context.Context, amount uint32) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(amount)),
		Currency: stripe.String(string(stripe.CurrencyBDT)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// VerifySucceeded re-fetches an intent from the processor and reports
// whether the charge actually succeeded. The ledger trusts this check,
// not the client's claim, before recording a donation.
func (s *StripeClient) VerifySucceeded(ctx context.Context, intentID string) (bool, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return false, err
	}
	return pi.Status == stripe.PaymentIntentStatusSucceeded, nil
}
