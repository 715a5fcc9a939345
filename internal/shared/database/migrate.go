package database

import (
	"ticketbooth/internal/bookings"
	"ticketbooth/internal/events"
	"ticketbooth/internal/promocodes"
	"ticketbooth/internal/tickets"
	"ticketbooth/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&users.User{},
		&events.Event{},
		&tickets.Ticket{},
		&tickets.TaxRule{},
		&tickets.TicketTax{},
		&tickets.Seatchart{},
		&tickets.Seat{},
		&promocodes.Promocode{},
		&promocodes.PromocodeTicket{},
		&promocodes.PromocodeUsage{},
		&bookings.Booking{},
		&bookings.Transaction{},
		&bookings.CommissionLine{},
		&bookings.Attendee{},
	)
}
