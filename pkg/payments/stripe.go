package payments

import (
	"context"

	"github.com/stripe/stripe-go/v82"
)

// StripeProvider talks to Stripe through the v82 client.
type StripeProvider struct {
	client *stripe.Client
}

func NewStripeProvider(secretKey string) *StripeProvider {
	return &StripeProvider{client: stripe.NewClient(secretKey)}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, params IntentParams) (*Intent, error) {
	create := &stripe.PaymentIntentCreateParams{
		Amount:      stripe.Int64(params.AmountCents),
		Currency:    stripe.String(params.Currency),
		Description: stripe.String(params.Description),
		Metadata:    params.Metadata,
	}
	pi, err := p.client.V1PaymentIntents.Create(ctx, create)
	if err != nil {
		return nil, err
	}
	return intentFromStripe(pi), nil
}

func (p *StripeProvider) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	pi, err := p.client.V1PaymentIntents.Retrieve(ctx, id, &stripe.PaymentIntentRetrieveParams{})
	if err != nil {
		return nil, err
	}
	return intentFromStripe(pi), nil
}

func (p *StripeProvider) CreatePayout(ctx context.Context, params PayoutParams) (*Payout, error) {
	create := &stripe.PayoutCreateParams{
		Amount:      stripe.Int64(params.AmountCents),
		Currency:    stripe.String(params.Currency),
		Description: stripe.String(params.Description),
		Metadata:    params.Metadata,
	}
	po, err := p.client.V1Payouts.Create(ctx, create)
	if err != nil {
		return nil, err
	}
	return &Payout{ID: po.ID, Status: string(po.Status)}, nil
}

func intentFromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountCents:  pi.Amount,
		Metadata:     pi.Metadata,
	}
}
