package bookings

import (
	"context"
	"fmt"
	"time"

	"ticketbooth/pkg/cache"

	"github.com/google/uuid"
)

// PendingUnit is one priced, not yet persisted booking unit.
type PendingUnit struct {
	OrderNumber     string     `json:"order_number"`
	TicketID        uuid.UUID  `json:"ticket_id"`
	Price           float64    `json:"price"`
	Tax             float64    `json:"tax"`
	NetPrice        float64    `json:"net_price"`
	OrganiserPrice  float64    `json:"organiser_price"`
	AdminTax        float64    `json:"admin_tax"`
	PromocodeID     *uuid.UUID `json:"promocode_id,omitempty"`
	PromocodeReward float64    `json:"promocode_reward"`

	AttendeeName    string     `json:"attendee_name,omitempty"`
	AttendeePhone   string     `json:"attendee_phone,omitempty"`
	AttendeeAddress string     `json:"attendee_address,omitempty"`
	SeatID          *uuid.UUID `json:"seat_id,omitempty"`
	SeatName        string     `json:"seat_name,omitempty"`
}

// StagedUsage is a promocode redemption waiting for settlement. The
// quantity decrement and the usage row are written only when the order
// commits.
type StagedUsage struct {
	PromocodeID uuid.UUID `json:"promocode_id"`
	TicketID    uuid.UUID `json:"ticket_id"`
	Code        string    `json:"code"`
}

// Session is the staged checkout state between pricing and settlement. It
// is owned by one in-flight checkout; a second checkout by the same
// customer overwrites nothing because the key is the common order token.
type Session struct {
	CommonOrder string    `json:"common_order"`
	CustomerID  uuid.UUID `json:"customer_id"`
	OrganiserID uuid.UUID `json:"organiser_id"`
	EventID     uuid.UUID `json:"event_id"`

	Currency          string  `json:"currency"`
	PaymentMethod     int     `json:"payment_method"`
	TotalAmount       float64 `json:"total_amount"`
	CommissionPercent float64 `json:"commission_percent"`
	IsBulk            bool    `json:"is_bulk"`

	EventStartDate string `json:"event_start_date"`
	EventEndDate   string `json:"event_end_date"`
	EventStartTime string `json:"event_start_time"`
	EventEndTime   string `json:"event_end_time"`

	Units  []PendingUnit `json:"units"`
	Usages []StagedUsage `json:"usages"`

	CreatedAt time.Time `json:"created_at"`
}

// SessionStore keeps staged checkouts in Redis keyed by common order, with
// a TTL so abandoned carts expire on their own.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, commonOrder string) (*Session, error)
	Discard(ctx context.Context, commonOrder string) error
}

type sessionStore struct {
	cache cache.Service
	ttl   time.Duration
}

func NewSessionStore(cacheService cache.Service, ttl time.Duration) SessionStore {
	return &sessionStore{cache: cacheService, ttl: ttl}
}

func sessionKey(commonOrder string) string {
	return fmt.Sprintf("ticketbooth:checkout:order:%s", commonOrder)
}

func (s *sessionStore) Save(ctx context.Context, session *Session) error {
	return s.cache.Set(ctx, sessionKey(session.CommonOrder), session, s.ttl)
}

func (s *sessionStore) Load(ctx context.Context, commonOrder string) (*Session, error) {
	var session Session
	if err := s.cache.Get(ctx, sessionKey(commonOrder), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *sessionStore) Discard(ctx context.Context, commonOrder string) error {
	return s.cache.Delete(ctx, sessionKey(commonOrder))
}
