package promocodes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	promocodes map[string]*Promocode
	scope      map[uuid.UUID][]uuid.UUID // promocode -> scoped tickets, empty means global
	used       map[string]bool           // userID|promocodeID|ticketID
	findErr    error
}

func (f *fakeRepo) FindByCode(_ context.Context, code string) (*Promocode, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	promocode, ok := f.promocodes[code]
	if !ok {
		return nil, errors.New("record not found")
	}
	return promocode, nil
}

func (f *fakeRepo) AppliesToTicket(_ context.Context, promocodeID, ticketID uuid.UUID) (bool, error) {
	scoped, ok := f.scope[promocodeID]
	if !ok || len(scoped) == 0 {
		return true, nil
	}
	for _, id := range scoped {
		if id == ticketID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) HasUsage(_ context.Context, userID, promocodeID, ticketID uuid.UUID) (bool, error) {
	return f.used[userID.String()+"|"+promocodeID.String()+"|"+ticketID.String()], nil
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		promocodes: make(map[string]*Promocode),
		scope:      make(map[uuid.UUID][]uuid.UUID),
		used:       make(map[string]bool),
	}
}

func TestApplyFixedRewardSplitsAcrossUnits(t *testing.T) {
	repo := newFakeRepo()
	promo := &Promocode{ID: uuid.New(), Code: "SAVE30", RewardType: RewardTypeFixed, Reward: 30, Quantity: 5, Status: true}
	repo.promocodes[promo.Code] = promo

	ticketID := uuid.New()
	userID := uuid.New()
	units := []Unit{
		{Index: 0, TicketID: ticketID, NetPrice: 110, Code: "SAVE30"},
		{Index: 1, TicketID: ticketID, NetPrice: 110, Code: "SAVE30"},
	}

	applier := NewApplier(repo)
	discounts, usages, err := applier.Apply(context.Background(), userID, units)
	require.NoError(t, err)
	require.Len(t, discounts, 2)

	for _, discount := range discounts {
		assert.Equal(t, 15.0, discount.Reward)
		assert.Equal(t, promo.ID, discount.PromocodeID)
	}

	// One redemption per promocode and ticket, not per unit.
	require.Len(t, usages, 1)
	assert.Equal(t, ticketID, usages[0].TicketID)
}

func TestApplyPercentRewardPerUnit(t *testing.T) {
	repo := newFakeRepo()
	promo := &Promocode{ID: uuid.New(), Code: "TEN", RewardType: RewardTypePercent, Reward: 10, Quantity: 5, Status: true}
	repo.promocodes[promo.Code] = promo

	units := []Unit{
		{Index: 0, TicketID: uuid.New(), NetPrice: 110, Code: "TEN"},
	}

	applier := NewApplier(repo)
	discounts, _, err := applier.Apply(context.Background(), uuid.New(), units)
	require.NoError(t, err)
	require.Len(t, discounts, 1)
	assert.Equal(t, 11.0, discounts[0].Reward)
}

func TestApplyUnknownCodeSkipped(t *testing.T) {
	repo := newFakeRepo()
	units := []Unit{{Index: 0, TicketID: uuid.New(), NetPrice: 50, Code: "NOPE"}}

	applier := NewApplier(repo)
	discounts, usages, err := applier.Apply(context.Background(), uuid.New(), units)
	require.NoError(t, err)
	assert.Empty(t, discounts)
	assert.Empty(t, usages)
}

func TestApplyExhaustedCodeSkipped(t *testing.T) {
	repo := newFakeRepo()
	promo := &Promocode{ID: uuid.New(), Code: "GONE", RewardType: RewardTypeFixed, Reward: 10, Quantity: 0, Status: true}
	repo.promocodes[promo.Code] = promo
	units := []Unit{{Index: 0, TicketID: uuid.New(), NetPrice: 50, Code: "GONE"}}

	applier := NewApplier(repo)
	discounts, _, err := applier.Apply(context.Background(), uuid.New(), units)
	require.NoError(t, err)
	assert.Empty(t, discounts)
}

func TestApplyExpiredCodeSkipped(t *testing.T) {
	repo := newFakeRepo()
	past := time.Now().Add(-time.Hour)
	promo := &Promocode{ID: uuid.New(), Code: "LATE", RewardType: RewardTypeFixed, Reward: 10, Quantity: 5, Status: true, ExpiresAt: &past}
	repo.promocodes[promo.Code] = promo
	units := []Unit{{Index: 0, TicketID: uuid.New(), NetPrice: 50, Code: "LATE"}}

	applier := NewApplier(repo)
	discounts, _, err := applier.Apply(context.Background(), uuid.New(), units)
	require.NoError(t, err)
	assert.Empty(t, discounts)
}

func TestApplyOutOfScopeTicketSkipped(t *testing.T) {
	repo := newFakeRepo()
	promo := &Promocode{ID: uuid.New(), Code: "VIP", RewardType: RewardTypeFixed, Reward: 10, Quantity: 5, Status: true}
	repo.promocodes[promo.Code] = promo
	repo.scope[promo.ID] = []uuid.UUID{uuid.New()}

	units := []Unit{{Index: 0, TicketID: uuid.New(), NetPrice: 50, Code: "VIP"}}

	applier := NewApplier(repo)
	discounts, _, err := applier.Apply(context.Background(), uuid.New(), units)
	require.NoError(t, err)
	assert.Empty(t, discounts)
}

func TestApplyPriorUsageSkipped(t *testing.T) {
	repo := newFakeRepo()
	promo := &Promocode{ID: uuid.New(), Code: "ONCE", RewardType: RewardTypeFixed, Reward: 10, Quantity: 5, Status: true}
	repo.promocodes[promo.Code] = promo

	ticketID := uuid.New()
	userID := uuid.New()
	repo.used[userID.String()+"|"+promo.ID.String()+"|"+ticketID.String()] = true

	units := []Unit{{Index: 0, TicketID: ticketID, NetPrice: 50, Code: "ONCE"}}

	applier := NewApplier(repo)
	discounts, usages, err := applier.Apply(context.Background(), userID, units)
	require.NoError(t, err)
	assert.Empty(t, discounts)
	assert.Empty(t, usages)
}

func TestApplyLookupErrorDoesNotFailCart(t *testing.T) {
	repo := newFakeRepo()
	repo.findErr = errors.New("connection refused")
	units := []Unit{{Index: 0, TicketID: uuid.New(), NetPrice: 50, Code: "ANY"}}

	applier := NewApplier(repo)
	discounts, _, err := applier.Apply(context.Background(), uuid.New(), units)
	require.NoError(t, err)
	assert.Empty(t, discounts)
}

func TestApplyRewardClampedToNetPrice(t *testing.T) {
	repo := newFakeRepo()
	promo := &Promocode{ID: uuid.New(), Code: "BIG", RewardType: RewardTypeFixed, Reward: 500, Quantity: 5, Status: true}
	repo.promocodes[promo.Code] = promo

	units := []Unit{{Index: 0, TicketID: uuid.New(), NetPrice: 40, Code: "BIG"}}

	applier := NewApplier(repo)
	discounts, _, err := applier.Apply(context.Background(), uuid.New(), units)
	require.NoError(t, err)
	require.Len(t, discounts, 1)
	assert.Equal(t, 40.0, discounts[0].Reward)
}
