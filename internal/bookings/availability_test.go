package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"ticketbooth/internal/shared/config"
	"ticketbooth/internal/tickets"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTicketRepo struct {
	tickets       map[uuid.UUID]*tickets.Ticket
	rules         map[uuid.UUID][]tickets.TaxRule
	booked        map[string]int64 // ticketID|date
	bookedByUser  map[string]int64 // ticketID|userID|date
	seats         map[uuid.UUID]*tickets.Seat
	occupiedSeats map[string]bool // seatID|date
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets:       make(map[uuid.UUID]*tickets.Ticket),
		rules:         make(map[uuid.UUID][]tickets.TaxRule),
		booked:        make(map[string]int64),
		bookedByUser:  make(map[string]int64),
		seats:         make(map[uuid.UUID]*tickets.Seat),
		occupiedSeats: make(map[string]bool),
	}
}

func dateKey(id uuid.UUID, date time.Time) string {
	return id.String() + "|" + date.Format("2006-01-02")
}

func (f *fakeTicketRepo) GetTicketByID(_ context.Context, id uuid.UUID) (*tickets.Ticket, error) {
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return ticket, nil
}

func (f *fakeTicketRepo) GetTicketsByIDs(_ context.Context, ids []uuid.UUID) ([]tickets.Ticket, error) {
	var out []tickets.Ticket
	for _, id := range ids {
		if ticket, ok := f.tickets[id]; ok {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

func (f *fakeTicketRepo) TaxRulesForTicket(_ context.Context, ticketID uuid.UUID) ([]tickets.TaxRule, error) {
	return f.rules[ticketID], nil
}

func (f *fakeTicketRepo) BookedCount(_ context.Context, ticketID uuid.UUID, date time.Time) (int64, error) {
	return f.booked[dateKey(ticketID, date)], nil
}

func (f *fakeTicketRepo) CustomerBookedCount(_ context.Context, ticketID, customerID uuid.UUID, date time.Time) (int64, error) {
	return f.bookedByUser[ticketID.String()+"|"+customerID.String()+"|"+date.Format("2006-01-02")], nil
}

func (f *fakeTicketRepo) GetSeatByID(_ context.Context, id uuid.UUID) (*tickets.Seat, error) {
	seat, ok := f.seats[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return seat, nil
}

func (f *fakeTicketRepo) SeatOccupiedOn(_ context.Context, seatID uuid.UUID, date time.Time) (bool, error) {
	return f.occupiedSeats[dateKey(seatID, date)], nil
}

func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{MaxTicketQty: 10}
}

func requireAvailabilityError(t *testing.T, err error) *CheckoutError {
	t.Helper()
	require.Error(t, err)
	checkoutErr := AsCheckoutError(err)
	require.Equal(t, ErrKindAvailability, checkoutErr.Kind)
	return checkoutErr
}

func TestValidateRejectsWhenCapacityExhausted(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := &tickets.Ticket{ID: uuid.New(), Title: "General", Price: 50, Quantity: 5}
	repo.tickets[ticket.ID] = ticket

	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	repo.booked[dateKey(ticket.ID, date)] = 5

	validator := NewValidator(repo, testBookingConfig())
	err := validator.Validate(context.Background(), uuid.New(), date,
		[]Selection{{Ticket: ticket, Quantity: 1}}, false)

	checkoutErr := requireAvailabilityError(t, err)
	assert.Contains(t, checkoutErr.Message, "General")
}

func TestValidateRejectsSoldOutTicket(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := &tickets.Ticket{ID: uuid.New(), Title: "VIP", Price: 100, Quantity: 50, SoldOut: true}
	repo.tickets[ticket.ID] = ticket

	validator := NewValidator(repo, testBookingConfig())
	err := validator.Validate(context.Background(), uuid.New(), time.Now(),
		[]Selection{{Ticket: ticket, Quantity: 1}}, false)

	checkoutErr := requireAvailabilityError(t, err)
	assert.Contains(t, checkoutErr.Message, "sold out")
}

func TestValidateEnforcesCustomerLimit(t *testing.T) {
	repo := newFakeTicketRepo()
	limit := 2
	ticket := &tickets.Ticket{ID: uuid.New(), Title: "Early Bird", Price: 30, Quantity: 100, CustomerLimit: &limit}
	repo.tickets[ticket.ID] = ticket

	customerID := uuid.New()
	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	repo.bookedByUser[ticket.ID.String()+"|"+customerID.String()+"|"+date.Format("2006-01-02")] = 1

	validator := NewValidator(repo, testBookingConfig())

	// One unit already booked against a limit of two: one more passes,
	// two more do not.
	err := validator.Validate(context.Background(), customerID, date,
		[]Selection{{Ticket: ticket, Quantity: 1}}, false)
	assert.NoError(t, err)

	err = validator.Validate(context.Background(), customerID, date,
		[]Selection{{Ticket: ticket, Quantity: 2}}, false)
	requireAvailabilityError(t, err)
}

func TestValidateFallsBackToGlobalLimit(t *testing.T) {
	repo := newFakeTicketRepo()
	ticket := &tickets.Ticket{ID: uuid.New(), Title: "General", Price: 50, Quantity: 100}
	repo.tickets[ticket.ID] = ticket

	cfg := config.BookingConfig{MaxTicketQty: 3}
	validator := NewValidator(repo, cfg)

	err := validator.Validate(context.Background(), uuid.New(), time.Now(),
		[]Selection{{Ticket: ticket, Quantity: 4}}, false)
	requireAvailabilityError(t, err)
}

func TestValidateSeatConflictSameDateOnly(t *testing.T) {
	repo := newFakeTicketRepo()
	seatchartID := uuid.New()
	ticket := &tickets.Ticket{ID: uuid.New(), Title: "Balcony", Price: 80, Quantity: 40, SeatchartID: &seatchartID}
	repo.tickets[ticket.ID] = ticket

	seat := &tickets.Seat{ID: uuid.New(), SeatchartID: seatchartID, Name: "B12", Status: tickets.SeatStatusAvailable}
	repo.seats[seat.ID] = seat

	conflictDate := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	freeDate := time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC)
	repo.occupiedSeats[dateKey(seat.ID, conflictDate)] = true

	validator := NewValidator(repo, testBookingConfig())
	selection := []Selection{{Ticket: ticket, Quantity: 1, SeatIDs: []uuid.UUID{seat.ID}}}

	err := validator.Validate(context.Background(), uuid.New(), conflictDate, selection, false)
	checkoutErr := requireAvailabilityError(t, err)
	assert.Contains(t, checkoutErr.Message, "B12")

	// Seats are date scoped; the same seat books fine on another date.
	err = validator.Validate(context.Background(), uuid.New(), freeDate, selection, false)
	assert.NoError(t, err)
}

func TestValidateRejectsForeignSeat(t *testing.T) {
	repo := newFakeTicketRepo()
	seatchartID := uuid.New()
	ticket := &tickets.Ticket{ID: uuid.New(), Title: "Balcony", Price: 80, Quantity: 40, SeatchartID: &seatchartID}
	repo.tickets[ticket.ID] = ticket

	foreign := &tickets.Seat{ID: uuid.New(), SeatchartID: uuid.New(), Name: "Z1", Status: tickets.SeatStatusAvailable}
	repo.seats[foreign.ID] = foreign

	validator := NewValidator(repo, testBookingConfig())
	err := validator.Validate(context.Background(), uuid.New(), time.Now(),
		[]Selection{{Ticket: ticket, Quantity: 1, SeatIDs: []uuid.UUID{foreign.ID}}}, false)
	requireAvailabilityError(t, err)
}

func TestValidateBulkBypassesLimitsButNotSeats(t *testing.T) {
	repo := newFakeTicketRepo()
	seatchartID := uuid.New()
	ticket := &tickets.Ticket{ID: uuid.New(), Title: "Comp", Price: 0, Quantity: 2, SeatchartID: &seatchartID}
	repo.tickets[ticket.ID] = ticket

	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	repo.booked[dateKey(ticket.ID, date)] = 2 // full

	validator := NewValidator(repo, testBookingConfig())

	// Capacity and per-customer limits do not apply to bulk issuance.
	err := validator.Validate(context.Background(), uuid.New(), date,
		[]Selection{{Ticket: ticket, Quantity: 10}}, true)
	assert.NoError(t, err)

	// An occupied seat still blocks a bulk booking.
	seat := &tickets.Seat{ID: uuid.New(), SeatchartID: seatchartID, Name: "A1", Status: tickets.SeatStatusAvailable}
	repo.seats[seat.ID] = seat
	repo.occupiedSeats[dateKey(seat.ID, date)] = true

	err = validator.Validate(context.Background(), uuid.New(), date,
		[]Selection{{Ticket: ticket, Quantity: 1, SeatIDs: []uuid.UUID{seat.ID}}}, true)
	requireAvailabilityError(t, err)
}

func TestValidateMissingTicket(t *testing.T) {
	validator := NewValidator(newFakeTicketRepo(), testBookingConfig())
	err := validator.Validate(context.Background(), uuid.New(), time.Now(),
		[]Selection{{Ticket: nil, Quantity: 1}}, false)
	requireAvailabilityError(t, err)
}
