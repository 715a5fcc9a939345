package tickets

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is a priced admission class for an event. Quantity is the total
// capacity per occurrence date; CustomerLimit caps units per customer per
// date when set.
type Ticket struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EventID       uuid.UUID  `gorm:"type:uuid;index;not null" json:"event_id"`
	Title         string     `gorm:"not null" json:"title"`
	Price         float64    `gorm:"not null;default:0" json:"price"`
	Quantity      int        `gorm:"not null;default:0" json:"quantity"`
	CustomerLimit *int       `json:"customer_limit,omitempty"`
	SoldOut       bool       `gorm:"default:false" json:"sold_out"`
	SeatchartID   *uuid.UUID `gorm:"type:uuid" json:"seatchart_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName sets the table name for Ticket
func (Ticket) TableName() string {
	return "tickets"
}

// IsFree reports whether the ticket has no price attached.
func (t *Ticket) IsFree() bool {
	return t.Price <= 0
}

// Tax rule rate types and application modes.
const (
	RateTypePercent = "percent"
	RateTypeFixed   = "fixed"

	AppliesIncluding = "including" // tax already part of the unit price
	AppliesExcluding = "excluding" // tax added on top of the unit price
)

// TaxRule is a tax or service charge applied to a ticket. Admin rules are
// platform-level charges that the organiser never receives.
type TaxRule struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title      string    `gorm:"not null" json:"title"`
	RateType   string    `gorm:"type:varchar(10);not null" json:"rate_type"`
	Rate       float64   `gorm:"not null" json:"rate"`
	Applies    string    `gorm:"type:varchar(10);not null;default:'excluding'" json:"applies"`
	IsAdminTax bool      `gorm:"default:false" json:"is_admin_tax"`
	Status     bool      `gorm:"default:true" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName sets the table name for TaxRule
func (TaxRule) TableName() string {
	return "tax_rules"
}

// TicketTax links a tax rule to a ticket.
type TicketTax struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TicketID  uuid.UUID `gorm:"type:uuid;index;not null" json:"ticket_id"`
	TaxRuleID uuid.UUID `gorm:"type:uuid;index;not null" json:"tax_rule_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the table name for TicketTax
func (TicketTax) TableName() string {
	return "ticket_taxes"
}

// Seatchart is a named seat layout attached to a ticket class.
type Seatchart struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EventID   uuid.UUID `gorm:"type:uuid;index;not null" json:"event_id"`
	Title     string    `gorm:"not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for Seatchart
func (Seatchart) TableName() string {
	return "seatcharts"
}

// Seat statuses
const (
	SeatStatusAvailable = "available"
	SeatStatusDisabled  = "disabled"
)

// Seat is a single selectable position in a seatchart.
type Seat struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SeatchartID uuid.UUID `gorm:"type:uuid;index;not null" json:"seatchart_id"`
	Name        string    `gorm:"not null" json:"name"`
	Status      string    `gorm:"type:varchar(20);default:'available'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName sets the table name for Seat
func (Seat) TableName() string {
	return "seats"
}
