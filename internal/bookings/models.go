package bookings

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking is one settled unit of one ticket class. A checkout submission
// for quantity N produces N rows sharing a common order token; the token is
// the settlement idempotency key.
type Booking struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CommonOrder string    `gorm:"index;not null" json:"common_order"`
	OrderNumber string    `gorm:"uniqueIndex;not null" json:"order_number"`

	CustomerID  uuid.UUID `gorm:"type:uuid;index;not null" json:"customer_id"`
	OrganiserID uuid.UUID `gorm:"type:uuid;index;not null" json:"organiser_id"`
	EventID     uuid.UUID `gorm:"type:uuid;index;not null" json:"event_id"`
	TicketID    uuid.UUID `gorm:"type:uuid;index;not null" json:"ticket_id"`

	TransactionID *uuid.UUID `gorm:"type:uuid" json:"transaction_id,omitempty"`

	// Quantity is always 1; the column exists so per-order aggregates stay
	// plain sums.
	Quantity        int        `gorm:"not null;default:1" json:"quantity"`
	Price           float64    `gorm:"not null;default:0" json:"price"`
	Tax             float64    `gorm:"not null;default:0" json:"tax"`
	NetPrice        float64    `gorm:"not null;default:0" json:"net_price"`
	OrganiserPrice  float64    `gorm:"not null;default:0" json:"organiser_price"`
	AdminTax        float64    `gorm:"not null;default:0" json:"admin_tax"`
	PromocodeID     *uuid.UUID `gorm:"type:uuid" json:"promocode_id,omitempty"`
	PromocodeReward float64    `gorm:"not null;default:0" json:"promocode_reward"`
	Currency        string     `gorm:"type:varchar(10);not null" json:"currency"`

	EventStartDate time.Time `gorm:"type:date;index" json:"event_start_date"`
	EventEndDate   time.Time `gorm:"type:date" json:"event_end_date"`
	EventStartTime string    `gorm:"type:varchar(8)" json:"event_start_time"`
	EventEndTime   string    `gorm:"type:varchar(8)" json:"event_end_time"`

	PaymentType string `gorm:"type:varchar(10);not null" json:"payment_type"`
	IsPaid      bool   `gorm:"default:false" json:"is_paid"`
	IsBulk      bool   `gorm:"default:false" json:"is_bulk"`
	IsRefund    bool   `gorm:"default:false" json:"is_refund"`
	Status      string `gorm:"type:varchar(20);default:'confirmed'" json:"status"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// Transaction is the payment record for one settled order. TxnID is the
// gateway reference and is unique; a replayed callback that carries a known
// TxnID is skipped.
type Transaction struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TxnID          string    `gorm:"uniqueIndex;not null" json:"txn_id"`
	CommonOrder    string    `gorm:"index;not null" json:"common_order"`
	AmountPaid     float64   `gorm:"not null;default:0" json:"amount_paid"`
	CurrencyCode   string    `gorm:"type:varchar(10);not null" json:"currency_code"`
	PaymentGateway string    `gorm:"type:varchar(20);not null" json:"payment_gateway"`
	PayerReference string    `json:"payer_reference"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName sets the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}

// CommissionLine is the platform/organiser money split for one paid booking
// unit. Free units produce no line.
type CommissionLine struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"booking_id"`
	OrganiserID      uuid.UUID `gorm:"type:uuid;index;not null" json:"organiser_id"`
	EventID          uuid.UUID `gorm:"type:uuid;index;not null" json:"event_id"`
	CustomerPaid     float64   `gorm:"not null;default:0" json:"customer_paid"`
	OrganiserEarning float64   `gorm:"not null;default:0" json:"organiser_earning"`
	AdminCommission  float64   `gorm:"not null;default:0" json:"admin_commission"`
	AdminTax         float64   `gorm:"not null;default:0" json:"admin_tax"`

	// MonthYear buckets lines for payout reports, e.g. "08-2026".
	MonthYear string    `gorm:"type:varchar(8);index" json:"month_year"`
	Status    bool      `gorm:"default:false" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the table name for CommissionLine
func (CommissionLine) TableName() string {
	return "commission_lines"
}

// Attendee is the named holder of one booking unit, with the seat
// assignment for seat-chart tickets.
type Attendee struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID uuid.UUID  `gorm:"type:uuid;index;not null" json:"booking_id"`
	TicketID  uuid.UUID  `gorm:"type:uuid;not null" json:"ticket_id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address"`
	SeatID    *uuid.UUID `gorm:"type:uuid;index" json:"seat_id,omitempty"`
	SeatName  string     `json:"seat_name"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName sets the table name for Attendee
func (Attendee) TableName() string {
	return "attendees"
}
