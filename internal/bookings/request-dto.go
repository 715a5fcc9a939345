package bookings

import (
	"time"

	"github.com/google/uuid"
)

// BookingRequest is the checkout submission. Ticket ids, quantities and
// promocodes are parallel slices, one entry per cart line.
type BookingRequest struct {
	EventID    uuid.UUID   `json:"event_id" binding:"required"`
	TicketIDs  []uuid.UUID `json:"ticket_id" binding:"required"`
	Quantities []int       `json:"quantity" binding:"required"`

	BookingDate string `json:"booking_date" binding:"required"` // YYYY-MM-DD
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`

	// BookingEndDate merges a repetitive event's occurrences into one
	// booking span. Empty means single-date booking.
	BookingEndDate string `json:"booking_end_date"`

	PaymentMethod  int  `json:"payment_method"`
	OfflinePayment bool `json:"offline_payment"`

	// CardToken is a tokenized card for direct-charge payment.
	CardToken string `json:"card_token"`

	Promocodes []string `json:"promocode"`

	// Seats maps a ticket id to the selected seat ids for that line.
	Seats map[string][]uuid.UUID `json:"seats"`

	Attendees []AttendeeInput `json:"attendees"`

	// CustomerID books on behalf of another account. Admins may use it for
	// anyone; organisers only for their own events.
	CustomerID *uuid.UUID `json:"customer_id"`

	// IsBulk marks an admin complimentary batch booking.
	IsBulk bool `json:"is_bulk"`
}

// AttendeeInput names the holder of one booking unit.
type AttendeeInput struct {
	TicketID uuid.UUID `json:"ticket_id" binding:"required"`
	Name     string    `json:"name" binding:"required"`
	Phone    string    `json:"phone"`
	Address  string    `json:"address"`
}

const dateLayout = "2006-01-02"

// Validate checks the request shape before any state is touched.
func (r *BookingRequest) Validate() error {
	if len(r.TicketIDs) == 0 {
		return validationError("at least one ticket is required")
	}
	if len(r.TicketIDs) != len(r.Quantities) {
		return validationError("ticket_id and quantity must have the same length")
	}
	if len(r.Promocodes) > 0 && len(r.Promocodes) != len(r.TicketIDs) {
		return validationError("promocode must be empty or match ticket_id length")
	}

	seen := make(map[uuid.UUID]bool, len(r.TicketIDs))
	for i, ticketID := range r.TicketIDs {
		if ticketID == uuid.Nil {
			return validationError("ticket_id must not be empty")
		}
		if seen[ticketID] {
			return validationError("duplicate ticket in cart")
		}
		seen[ticketID] = true
		if r.Quantities[i] < 0 {
			return validationError("quantity must not be negative")
		}
	}

	total := 0
	for _, quantity := range r.Quantities {
		total += quantity
	}
	if total == 0 {
		return validationError("at least one unit must be requested")
	}

	if _, err := time.Parse(dateLayout, r.BookingDate); err != nil {
		return validationError("booking_date must be formatted as YYYY-MM-DD")
	}
	if r.BookingEndDate != "" {
		if _, err := time.Parse(dateLayout, r.BookingEndDate); err != nil {
			return validationError("booking_end_date must be formatted as YYYY-MM-DD")
		}
	}

	for ticketKey, seatIDs := range r.Seats {
		if _, err := uuid.Parse(ticketKey); err != nil {
			return validationError("seats keys must be ticket ids")
		}
		unique := make(map[uuid.UUID]bool, len(seatIDs))
		for _, seatID := range seatIDs {
			if unique[seatID] {
				return validationError("duplicate seat in selection")
			}
			unique[seatID] = true
		}
	}

	return nil
}

// ParsedBookingDate returns the validated booking date.
func (r *BookingRequest) ParsedBookingDate() time.Time {
	date, _ := time.Parse(dateLayout, r.BookingDate)
	return date
}

// ParsedBookingEndDate returns the booking end date, falling back to the
// booking date for single-date bookings.
func (r *BookingRequest) ParsedBookingEndDate() time.Time {
	if r.BookingEndDate == "" {
		return r.ParsedBookingDate()
	}
	date, _ := time.Parse(dateLayout, r.BookingEndDate)
	return date
}

// SeatsForTicket returns the selected seats for one cart line.
func (r *BookingRequest) SeatsForTicket(ticketID uuid.UUID) []uuid.UUID {
	return r.Seats[ticketID.String()]
}

// PromocodeForLine returns the code supplied for cart line i, if any.
func (r *BookingRequest) PromocodeForLine(i int) string {
	if i < len(r.Promocodes) {
		return r.Promocodes[i]
	}
	return ""
}
