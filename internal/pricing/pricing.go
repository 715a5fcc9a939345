package pricing

import (
	"context"
	"math"

	"ticketbooth/internal/tickets"

	"github.com/google/uuid"
)

// Quote carries the per-unit price breakdown for one ticket class. Booking
// rows are stored per unit, so all figures here are per unit; multiply by
// the ordered quantity for line totals.
type Quote struct {
	UnitPrice      float64 `json:"unit_price"`
	Tax            float64 `json:"tax"`             // total tax per unit, including and excluding buckets
	NetPrice       float64 `json:"net_price"`       // what the customer pays per unit
	OrganiserPrice float64 `json:"organiser_price"` // what the organiser is owed per unit, before commission
	AdminTax       float64 `json:"admin_tax"`       // platform charges per unit, never paid out
}

// Calculate applies tax rules to a unit price.
//
// Excluding rules are added on top of the unit price, including rules are
// treated as already part of it. Admin rules count toward tax but are
// withheld from the organiser.
func Calculate(unitPrice float64, rules []tickets.TaxRule) Quote {
	var including, excluding, excludingNonAdmin, adminTax float64

	for _, rule := range rules {
		if !rule.Status {
			continue
		}

		var amount float64
		switch rule.RateType {
		case tickets.RateTypePercent:
			amount = unitPrice * rule.Rate / 100
		case tickets.RateTypeFixed:
			amount = rule.Rate
		default:
			continue
		}

		if rule.Applies == tickets.AppliesIncluding {
			including += amount
		} else {
			excluding += amount
			if !rule.IsAdminTax {
				excludingNonAdmin += amount
			}
		}
		if rule.IsAdminTax {
			adminTax += amount
		}
	}

	return Quote{
		UnitPrice:      round2(unitPrice),
		Tax:            round2(including + excluding),
		NetPrice:       round2(unitPrice + excluding),
		OrganiserPrice: round2(unitPrice + excludingNonAdmin),
		AdminTax:       round2(adminTax),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RuleSource loads the tax rules that apply to a ticket.
type RuleSource interface {
	TaxRulesForTicket(ctx context.Context, ticketID uuid.UUID) ([]tickets.TaxRule, error)
}

// Engine quotes tickets against their stored tax rules.
type Engine struct {
	rules RuleSource
}

func NewEngine(rules RuleSource) *Engine {
	return &Engine{rules: rules}
}

// QuoteTicket computes the per-unit breakdown for a ticket. A free ticket
// quotes as all zeroes regardless of attached rules.
func (e *Engine) QuoteTicket(ctx context.Context, ticket *tickets.Ticket) (Quote, error) {
	if ticket.IsFree() {
		return Quote{}, nil
	}

	rules, err := e.rules.TaxRulesForTicket(ctx, ticket.ID)
	if err != nil {
		return Quote{}, err
	}
	return Calculate(ticket.Price, rules), nil
}
