package promocodes

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

// Unit is one booking unit in a cart, as seen by the discount pass. Index
// refers back to the caller's unit slice.
type Unit struct {
	Index    int
	TicketID uuid.UUID
	NetPrice float64
	Code     string
}

// Discount is the per-unit price reduction produced for a redeemed code.
type Discount struct {
	Index       int
	Reward      float64
	PromocodeID uuid.UUID
	Code        string
}

// Usage is a redemption staged for commit. The quantity decrement and the
// usage row are only written when the order settles.
type Usage struct {
	PromocodeID uuid.UUID
	TicketID    uuid.UUID
	Code        string
}

// Applier resolves promocodes against a cart. Application is best effort:
// an unknown, exhausted, expired, out-of-scope or already-used code is
// skipped and the rest of the cart prices unchanged.
type Applier struct {
	repo Repository
	now  func() time.Time
}

func NewApplier(repo Repository) *Applier {
	return &Applier{repo: repo, now: time.Now}
}

// Apply computes the discounts for a cart. A fixed reward is divided evenly
// across the units of its ticket in the cart; a percent reward is charged
// per unit. Rewards are clamped so a unit's net price never goes negative.
func (a *Applier) Apply(ctx context.Context, userID uuid.UUID, units []Unit) ([]Discount, []Usage, error) {
	type lineKey struct {
		ticketID uuid.UUID
		code     string
	}

	grouped := make(map[lineKey][]Unit)
	for _, unit := range units {
		if unit.Code == "" {
			continue
		}
		key := lineKey{ticketID: unit.TicketID, code: unit.Code}
		grouped[key] = append(grouped[key], unit)
	}

	var discounts []Discount
	var usages []Usage
	for key, lineUnits := range grouped {
		promocode, err := a.repo.FindByCode(ctx, key.code)
		if err != nil || !promocode.IsRedeemable(a.now()) {
			continue
		}

		applies, err := a.repo.AppliesToTicket(ctx, promocode.ID, key.ticketID)
		if err != nil || !applies {
			continue
		}

		used, err := a.repo.HasUsage(ctx, userID, promocode.ID, key.ticketID)
		if err != nil || used {
			continue
		}

		for _, unit := range lineUnits {
			reward := perUnitReward(promocode, unit.NetPrice, len(lineUnits))
			if reward <= 0 {
				continue
			}
			discounts = append(discounts, Discount{
				Index:       unit.Index,
				Reward:      reward,
				PromocodeID: promocode.ID,
				Code:        promocode.Code,
			})
		}
		usages = append(usages, Usage{
			PromocodeID: promocode.ID,
			TicketID:    key.ticketID,
			Code:        promocode.Code,
		})
	}

	return discounts, usages, nil
}

func perUnitReward(promocode *Promocode, netPrice float64, unitsOfTicket int) float64 {
	var reward float64
	switch promocode.RewardType {
	case RewardTypeFixed:
		reward = promocode.Reward / float64(unitsOfTicket)
	case RewardTypePercent:
		reward = netPrice * promocode.Reward / 100
	default:
		return 0
	}

	if reward > netPrice {
		reward = netPrice
	}
	return math.Round(reward*100) / 100
}
