package payments

import (
	"ticketbooth/internal/shared/config"
	"ticketbooth/pkg/logger"
)

// Registry holds the fixed set of gateway adapters keyed by payment method.
type Registry struct {
	adapters map[int]Adapter
}

// NewRegistry wires every known gateway from configuration. Unconfigured
// gateways are still registered; their adapters fail with ErrConfigMissing
// so the orchestrator can answer with a generic failure.
func NewRegistry(cfg *config.Config, log *logger.Logger) *Registry {
	return &Registry{
		adapters: map[int]Adapter{
			MethodPayPal:    NewPayPalAdapter(cfg.Gateways.PayPal, log),
			MethodBillplz:   NewBillplzAdapter(cfg.Gateways.Billplz, log),
			MethodCard:      NewStripeAdapter(cfg.Gateways.Stripe, log),
			MethodToyyibPay: NewToyyibPayAdapter(cfg.Gateways.ToyyibPay, log),
		},
	}
}

// Resolve returns the adapter for a payment method, or nil for an unknown
// method.
func (r *Registry) Resolve(method int) Adapter {
	return r.adapters[method]
}
