package tickets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	GetTicketByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	GetTicketsByIDs(ctx context.Context, ids []uuid.UUID) ([]Ticket, error)

	// TaxRulesForTicket returns the active rules linked to the ticket plus
	// the platform-wide admin rules.
	TaxRulesForTicket(ctx context.Context, ticketID uuid.UUID) ([]TaxRule, error)

	// BookedCount counts live booking units for a ticket on an occurrence
	// date. Refunded and soft-deleted units do not hold capacity.
	BookedCount(ctx context.Context, ticketID uuid.UUID, date time.Time) (int64, error)
	CustomerBookedCount(ctx context.Context, ticketID, customerID uuid.UUID, date time.Time) (int64, error)

	GetSeatByID(ctx context.Context, id uuid.UUID) (*Seat, error)
	SeatOccupiedOn(ctx context.Context, seatID uuid.UUID, date time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetTicketByID(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	var ticket Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) GetTicketsByIDs(ctx context.Context, ids []uuid.UUID) ([]Ticket, error) {
	var tickets []Ticket
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *repository) TaxRulesForTicket(ctx context.Context, ticketID uuid.UUID) ([]TaxRule, error) {
	var rules []TaxRule
	err := r.db.WithContext(ctx).
		Joins("JOIN ticket_taxes ON ticket_taxes.tax_rule_id = tax_rules.id").
		Where("ticket_taxes.ticket_id = ? AND tax_rules.status = ?", ticketID, true).
		Find(&rules).Error
	if err != nil {
		return nil, err
	}

	var adminRules []TaxRule
	err = r.db.WithContext(ctx).
		Where("is_admin_tax = ? AND status = ?", true, true).
		Find(&adminRules).Error
	if err != nil {
		return nil, err
	}

	// Admin rules apply everywhere; skip any already linked explicitly.
	linked := make(map[uuid.UUID]bool, len(rules))
	for _, rule := range rules {
		linked[rule.ID] = true
	}
	for _, rule := range adminRules {
		if !linked[rule.ID] {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func (r *repository) BookedCount(ctx context.Context, ticketID uuid.UUID, date time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("bookings").
		Where("ticket_id = ? AND event_start_date = ? AND is_refund = ? AND deleted_at IS NULL", ticketID, date.Format("2006-01-02"), false).
		Count(&count).Error
	return count, err
}

func (r *repository) CustomerBookedCount(ctx context.Context, ticketID, customerID uuid.UUID, date time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("bookings").
		Where("ticket_id = ? AND customer_id = ? AND event_start_date = ? AND is_refund = ? AND deleted_at IS NULL", ticketID, customerID, date.Format("2006-01-02"), false).
		Count(&count).Error
	return count, err
}

func (r *repository) GetSeatByID(ctx context.Context, id uuid.UUID) (*Seat, error) {
	var seat Seat
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&seat).Error
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *repository) SeatOccupiedOn(ctx context.Context, seatID uuid.UUID, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("attendees").
		Joins("JOIN bookings ON bookings.id = attendees.booking_id").
		Where("attendees.seat_id = ? AND bookings.event_start_date = ? AND bookings.is_refund = ? AND bookings.deleted_at IS NULL", seatID, date.Format("2006-01-02"), false).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
