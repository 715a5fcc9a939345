package bookings

import (
	"context"
	"fmt"
	"time"

	"ticketbooth/internal/pricing"
	"ticketbooth/internal/promocodes"
	"ticketbooth/internal/tickets"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Settlement is the payment outcome handed to FinalizeOrder. For direct
// settlements (free, offline, complimentary) the service supplies the
// common order token as a synthetic transaction id.
type Settlement struct {
	TxnID          string
	AmountPaid     float64
	Currency       string
	Gateway        string
	PayerReference string
	Paid           bool
	PaymentType    string
}

type Repository interface {
	// FinalizeOrder atomically commits a staged checkout. Replays with a
	// known common order or transaction id return ErrAlreadySettled.
	FinalizeOrder(ctx context.Context, session *Session, settle *Settlement) ([]Booking, error)

	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetBookingsByCommonOrder(ctx context.Context, commonOrder string) ([]Booking, error)
	ListBookingsByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]Booking, int64, error)
	ListBookingsByOrganiser(ctx context.Context, organiserID uuid.UUID, page, limit int) ([]Booking, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// FinalizeOrder runs the whole settlement inside one transaction:
// idempotency checks, a locked capacity re-check, then bookings,
// transaction, commission, promocode and attendee writes. Any failure rolls
// everything back.
func (r *repository) FinalizeOrder(ctx context.Context, session *Session, settle *Settlement) ([]Booking, error) {
	var committed []Booking

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Idempotency: a known common order means a duplicate callback or
		// a retried submit.
		var existing int64
		if err := tx.Model(&Booking{}).Where("common_order = ?", session.CommonOrder).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadySettled
		}

		if settle.TxnID != "" {
			if err := tx.Model(&Transaction{}).Where("txn_id = ?", settle.TxnID).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				return ErrAlreadySettled
			}
		}

		// Final capacity gate. The pre-payment availability check holds no
		// lock, so two checkouts can both pass it; the row lock here makes
		// the insert conditional on capacity actually remaining.
		if !session.IsBulk {
			if err := r.recheckCapacity(tx, session); err != nil {
				return err
			}
		}

		transaction := Transaction{
			TxnID:          settle.TxnID,
			CommonOrder:    session.CommonOrder,
			AmountPaid:     settle.AmountPaid,
			CurrencyCode:   settle.Currency,
			PaymentGateway: settle.Gateway,
			PayerReference: settle.PayerReference,
		}
		if err := tx.Create(&transaction).Error; err != nil {
			return err
		}

		startDate, err := time.Parse(dateLayout, session.EventStartDate)
		if err != nil {
			return fmt.Errorf("bad session start date: %w", err)
		}
		endDate, err := time.Parse(dateLayout, session.EventEndDate)
		if err != nil {
			return fmt.Errorf("bad session end date: %w", err)
		}

		rows := make([]Booking, 0, len(session.Units))
		for _, unit := range session.Units {
			rows = append(rows, Booking{
				CommonOrder:     session.CommonOrder,
				OrderNumber:     unit.OrderNumber,
				CustomerID:      session.CustomerID,
				OrganiserID:     session.OrganiserID,
				EventID:         session.EventID,
				TicketID:        unit.TicketID,
				TransactionID:   &transaction.ID,
				Quantity:        1,
				Price:           unit.Price,
				Tax:             unit.Tax,
				NetPrice:        unit.NetPrice,
				OrganiserPrice:  unit.OrganiserPrice,
				AdminTax:        unit.AdminTax,
				PromocodeID:     unit.PromocodeID,
				PromocodeReward: unit.PromocodeReward,
				Currency:        session.Currency,
				EventStartDate:  startDate,
				EventEndDate:    endDate,
				EventStartTime:  session.EventStartTime,
				EventEndTime:    session.EventEndTime,
				PaymentType:     settle.PaymentType,
				IsPaid:          settle.Paid,
				IsBulk:          session.IsBulk,
				Status:          BookingStatusConfirmed,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}

		// Re-read by common order for the generated ids; insertion order is
		// not guaranteed to survive the round trip.
		var inserted []Booking
		if err := tx.Where("common_order = ?", session.CommonOrder).
			Order("order_number ASC").Find(&inserted).Error; err != nil {
			return err
		}

		byOrderNumber := make(map[string]*Booking, len(inserted))
		for i := range inserted {
			byOrderNumber[inserted[i].OrderNumber] = &inserted[i]
		}

		monthYear := time.Now().Format("01-2006")
		for _, unit := range session.Units {
			booking := byOrderNumber[unit.OrderNumber]
			if booking == nil {
				return fmt.Errorf("booking row missing for order number %s", unit.OrderNumber)
			}

			if unit.NetPrice > 0 {
				split := pricing.CommissionFor(unit.OrganiserPrice, unit.AdminTax, session.CommissionPercent)
				line := CommissionLine{
					BookingID:        booking.ID,
					OrganiserID:      session.OrganiserID,
					EventID:          session.EventID,
					CustomerPaid:     split.CustomerPaid,
					OrganiserEarning: split.OrganiserEarning,
					AdminCommission:  split.AdminCommission,
					AdminTax:         split.AdminTax,
					MonthYear:        monthYear,
					Status:           settle.Paid,
				}
				if err := tx.Create(&line).Error; err != nil {
					return err
				}
			}

			attendee := Attendee{
				BookingID: booking.ID,
				TicketID:  unit.TicketID,
				Name:      unit.AttendeeName,
				Phone:     unit.AttendeePhone,
				Address:   unit.AttendeeAddress,
				SeatID:    unit.SeatID,
				SeatName:  unit.SeatName,
			}
			if attendee.Name != "" || attendee.SeatID != nil {
				if err := tx.Create(&attendee).Error; err != nil {
					return err
				}
			}
		}

		// Promocode quantities only move after a committed settlement;
		// abandoned carts never burn a redemption.
		for _, usage := range session.Usages {
			result := tx.Model(&promocodes.Promocode{}).
				Where("id = ? AND quantity > 0", usage.PromocodeID).
				UpdateColumn("quantity", gorm.Expr("quantity - 1"))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("promocode %s has no redemptions left", usage.Code)
			}

			record := promocodes.PromocodeUsage{
				UserID:      session.CustomerID,
				PromocodeID: usage.PromocodeID,
				TicketID:    usage.TicketID,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}

		committed = inserted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}

// recheckCapacity locks each ticket row and verifies the staged units still
// fit on the booking date.
func (r *repository) recheckCapacity(tx *gorm.DB, session *Session) error {
	requested := make(map[uuid.UUID]int)
	for _, unit := range session.Units {
		requested[unit.TicketID]++
	}

	for ticketID, count := range requested {
		var ticket tickets.Ticket
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", ticketID).First(&ticket).Error; err != nil {
			return err
		}

		var booked int64
		if err := tx.Model(&Booking{}).
			Where("ticket_id = ? AND event_start_date = ? AND is_refund = ?", ticketID, session.EventStartDate, false).
			Count(&booked).Error; err != nil {
			return err
		}

		if booked+int64(count) > int64(ticket.Quantity) {
			return availabilityError(fmt.Sprintf("ticket %q sold out while completing payment", ticket.Title))
		}
	}
	return nil
}

func (r *repository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetBookingsByCommonOrder(ctx context.Context, commonOrder string) ([]Booking, error) {
	var items []Booking
	err := r.db.WithContext(ctx).
		Where("common_order = ?", commonOrder).
		Order("order_number ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListBookingsByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]Booking, int64, error) {
	return r.listBookings(ctx, "customer_id = ?", customerID, page, limit)
}

func (r *repository) ListBookingsByOrganiser(ctx context.Context, organiserID uuid.UUID, page, limit int) ([]Booking, int64, error) {
	return r.listBookings(ctx, "organiser_id = ?", organiserID, page, limit)
}

func (r *repository) listBookings(ctx context.Context, cond string, arg interface{}, page, limit int) ([]Booking, int64, error) {
	var items []Booking
	var total int64

	query := r.db.WithContext(ctx).Model(&Booking{}).Where(cond, arg)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
