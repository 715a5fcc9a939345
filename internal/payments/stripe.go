package payments

import (
	"context"
	"fmt"

	"ticketbooth/internal/shared/config"
	"ticketbooth/pkg/logger"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// stripeAdapter charges a tokenized card directly. Unlike the hosted
// gateways there is no redirect; the charge settles inside CreatePayment.
type stripeAdapter struct {
	cfg config.StripeConfig
	log *logger.Logger
	sc  *client.API
}

func NewStripeAdapter(cfg config.StripeConfig, log *logger.Logger) Adapter {
	a := &stripeAdapter{cfg: cfg, log: log}
	if cfg.Configured() {
		a.sc = client.New(cfg.SecretKey, nil)
	}
	return a
}

func (a *stripeAdapter) Name() string {
	return "stripe"
}

func (a *stripeAdapter) CreatePayment(ctx context.Context, order Order, currency string, customer Customer) (*CreateResult, error) {
	if a.sc == nil {
		return nil, ErrConfigMissing
	}
	if order.CardToken == "" {
		return nil, fmt.Errorf("%w: no card token provided", ErrProviderRejected)
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(toCents(order.Amount)),
		Currency:           stripe.String(currency),
		PaymentMethod:      stripe.String(order.CardToken),
		Description:        stripe.String(order.Description),
		ConfirmationMethod: stripe.String("manual"),
		Confirm:            stripe.Bool(true),
		PaymentMethodTypes: []*string{stripe.String("card")},
		Metadata: map[string]string{
			"order": order.CommonOrder,
		},
	}
	params.Context = ctx

	pi, err := a.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%w: payment intent status %s", ErrProviderRejected, pi.Status)
	}

	payerRef := ""
	if pi.PaymentMethod != nil {
		payerRef = pi.PaymentMethod.ID
	}
	return &CreateResult{
		Direct:         true,
		TransactionID:  pi.ID,
		PayerReference: payerRef,
	}, nil
}

// VerifyStatus re-reads the payment intent. Direct charges settle at create
// time, so this only backs the status endpoint and replay checks.
func (a *stripeAdapter) VerifyStatus(ctx context.Context, reference string) (*StatusResult, error) {
	if a.sc == nil {
		return nil, ErrConfigMissing
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := a.sc.PaymentIntents.Get(reference, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}

	payerRef := ""
	if pi.PaymentMethod != nil {
		payerRef = pi.PaymentMethod.ID
	}
	return &StatusResult{
		Paid:           pi.Status == stripe.PaymentIntentStatusSucceeded,
		TransactionID:  pi.ID,
		PayerReference: payerRef,
		Amount:         float64(pi.Amount) / 100,
	}, nil
}
