package payments

import "context"

// IntentParams describes a payment intent to create. Amounts are in the
// smallest currency unit. Metadata is carried through to webhook events and
// drives reconciliation, so callers must fill the tracking keys.
type IntentParams struct {
	AmountCents int64
	Currency    string
	Description string
	Metadata    map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	AmountCents  int64
	Metadata     map[string]string
}

type PayoutParams struct {
	AmountCents int64
	Currency    string
	Description string
	Metadata    map[string]string
}

type Payout struct {
	ID     string
	Status string
}

// Provider abstracts the payment provider so handlers can run against a
// test double.
type Provider interface {
	CreateIntent(ctx context.Context, params IntentParams) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
	CreatePayout(ctx context.Context, params PayoutParams) (*Payout, error)
}

// Intent statuses this system branches on; other provider statuses mean
// the payment is still in flight.
const (
	IntentStatusSucceeded             = "succeeded"
	IntentStatusCanceled              = "canceled"
	IntentStatusRequiresPaymentMethod = "requires_payment_method"
)
