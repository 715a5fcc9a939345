package bookings

import (
	"context"
	"fmt"
	"time"

	"ticketbooth/internal/shared/config"
	"ticketbooth/internal/tickets"

	"github.com/google/uuid"
)

// Selection is one validated cart line: a resolved ticket, the requested
// unit count and any chosen seats.
type Selection struct {
	Ticket   *tickets.Ticket
	Quantity int
	SeatIDs  []uuid.UUID
}

// Validator checks cart lines against capacity, per-customer limits and
// seat occupancy for a booking date.
//
// The check is advisory: no lock is held between here and settlement. The
// settlement transaction re-checks capacity under a row lock, so a race
// that slips past this validator still cannot oversell.
type Validator struct {
	tickets tickets.Repository
	cfg     config.BookingConfig
}

func NewValidator(repo tickets.Repository, cfg config.BookingConfig) *Validator {
	return &Validator{tickets: repo, cfg: cfg}
}

// Validate checks every selection for one customer and date. Bulk bookings
// bypass the per-customer limit and capacity arithmetic but still require
// the ticket to exist and seats to be free.
func (v *Validator) Validate(ctx context.Context, customerID uuid.UUID, date time.Time, selections []Selection, bulk bool) error {
	for _, selection := range selections {
		ticket := selection.Ticket
		if ticket == nil {
			return availabilityError("ticket not found")
		}
		if selection.Quantity == 0 && len(selection.SeatIDs) == 0 {
			continue
		}

		if ticket.SoldOut {
			return availabilityError(fmt.Sprintf("ticket %q is sold out", ticket.Title))
		}

		if !bulk {
			if err := v.checkCustomerLimit(ctx, customerID, ticket, date, selection.Quantity); err != nil {
				return err
			}
			if err := v.checkCapacity(ctx, ticket, date, selection.Quantity); err != nil {
				return err
			}
		}

		if err := v.checkSeats(ctx, ticket, date, selection.SeatIDs); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) checkCustomerLimit(ctx context.Context, customerID uuid.UUID, ticket *tickets.Ticket, date time.Time, quantity int) error {
	limit := v.cfg.MaxTicketQty
	if ticket.CustomerLimit != nil {
		limit = *ticket.CustomerLimit
	}

	already, err := v.tickets.CustomerBookedCount(ctx, ticket.ID, customerID, date)
	if err != nil {
		return err
	}

	remaining := int64(limit) - already
	if remaining < 0 {
		remaining = 0
	}
	if int64(quantity) > remaining {
		return availabilityError(fmt.Sprintf("ticket %q allows %d more unit(s) for this customer on the selected date", ticket.Title, remaining))
	}
	return nil
}

func (v *Validator) checkCapacity(ctx context.Context, ticket *tickets.Ticket, date time.Time, quantity int) error {
	booked, err := v.tickets.BookedCount(ctx, ticket.ID, date)
	if err != nil {
		return err
	}

	available := int64(ticket.Quantity) - booked
	if available < 0 {
		available = 0
	}
	if int64(quantity) > available {
		return availabilityError(fmt.Sprintf("only %d unit(s) of ticket %q left for the selected date", available, ticket.Title))
	}
	return nil
}

func (v *Validator) checkSeats(ctx context.Context, ticket *tickets.Ticket, date time.Time, seatIDs []uuid.UUID) error {
	if len(seatIDs) == 0 {
		return nil
	}
	if ticket.SeatchartID == nil {
		return availabilityError(fmt.Sprintf("ticket %q has no seat chart", ticket.Title))
	}

	for _, seatID := range seatIDs {
		seat, err := v.tickets.GetSeatByID(ctx, seatID)
		if err != nil {
			return availabilityError("selected seat not found")
		}
		if seat.SeatchartID != *ticket.SeatchartID {
			return availabilityError(fmt.Sprintf("seat %q does not belong to ticket %q", seat.Name, ticket.Title))
		}
		if seat.Status != tickets.SeatStatusAvailable {
			return availabilityError(fmt.Sprintf("seat %q is not available", seat.Name))
		}

		// Seats are date scoped, not globally exclusive.
		occupied, err := v.tickets.SeatOccupiedOn(ctx, seatID, date)
		if err != nil {
			return err
		}
		if occupied {
			return availabilityError(fmt.Sprintf("seat %q is already taken for the selected date", seat.Name))
		}
	}
	return nil
}
