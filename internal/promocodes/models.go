package promocodes

import (
	"time"

	"github.com/google/uuid"
)

// Reward types
const (
	RewardTypePercent = "percent"
	RewardTypeFixed   = "fixed"
)

// Promocode is a discount code with a limited number of redemptions.
// Quantity is the remaining redemption count and is only decremented once a
// booking actually settles.
type Promocode struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code       string     `gorm:"uniqueIndex;not null" json:"code"`
	RewardType string     `gorm:"type:varchar(10);not null" json:"reward_type"`
	Reward     float64    `gorm:"not null" json:"reward"`
	Quantity   int        `gorm:"not null;default:0" json:"quantity"`
	Status     bool       `gorm:"default:true" json:"status"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName sets the table name for Promocode
func (Promocode) TableName() string {
	return "promocodes"
}

// IsRedeemable checks status, remaining quantity and expiry.
func (p *Promocode) IsRedeemable(now time.Time) bool {
	if !p.Status || p.Quantity <= 0 {
		return false
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return false
	}
	return true
}

// PromocodeTicket scopes a promocode to a ticket class. A promocode with no
// scope rows applies to every ticket.
type PromocodeTicket struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PromocodeID uuid.UUID `gorm:"type:uuid;index;not null" json:"promocode_id"`
	TicketID    uuid.UUID `gorm:"type:uuid;index;not null" json:"ticket_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName sets the table name for PromocodeTicket
func (PromocodeTicket) TableName() string {
	return "promocode_tickets"
}

// PromocodeUsage records one redemption per customer, promocode and ticket.
type PromocodeUsage struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	PromocodeID uuid.UUID `gorm:"type:uuid;index;not null" json:"promocode_id"`
	TicketID    uuid.UUID `gorm:"type:uuid;not null" json:"ticket_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName sets the table name for PromocodeUsage
func (PromocodeUsage) TableName() string {
	return "promocode_usages"
}
