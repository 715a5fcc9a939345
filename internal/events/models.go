package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the read-only view the checkout engine needs. Event authoring and
// publishing are owned by a separate service.
type Event struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrganiserID uuid.UUID `gorm:"type:uuid;index;not null" json:"organiser_id"`
	Title       string    `gorm:"not null" json:"title"`
	Category    string    `json:"category"`
	ItemSKU     string    `json:"item_sku"`

	// Schedule. Repetitive events run on many dates; the booking date picks
	// the occurrence. Single events run once between start and end date.
	StartDate  time.Time `gorm:"type:date" json:"start_date"`
	EndDate    time.Time `gorm:"type:date" json:"end_date"`
	StartTime  string    `gorm:"type:varchar(8)" json:"start_time"`
	EndTime    string    `gorm:"type:varchar(8)" json:"end_time"`
	Repetitive bool      `gorm:"default:false" json:"repetitive"`

	SoldOut   bool      `gorm:"default:false" json:"sold_out"`
	Status    string    `gorm:"type:varchar(20);default:'published'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for Event
func (Event) TableName() string {
	return "events"
}

// IsPublished checks whether the event can accept bookings
func (e *Event) IsPublished() bool {
	return e.Status == "published"
}
