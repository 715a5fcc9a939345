package bookings

import (
	"time"

	"github.com/google/uuid"
)

// CheckoutResult is the outcome of a checkout submission or a gateway
// callback: either a redirect URL to a hosted payment page, or a settled /
// failed envelope.
type CheckoutResult struct {
	Status      bool   `json:"status"`
	URL         string `json:"url,omitempty"`
	Message     string `json:"message"`
	CommonOrder string `json:"common_order,omitempty"`
}

// BookingResponse is one booking unit in API responses.
type BookingResponse struct {
	ID              uuid.UUID  `json:"id"`
	CommonOrder     string     `json:"common_order"`
	OrderNumber     string     `json:"order_number"`
	EventID         uuid.UUID  `json:"event_id"`
	TicketID        uuid.UUID  `json:"ticket_id"`
	CustomerID      uuid.UUID  `json:"customer_id"`
	Price           float64    `json:"price"`
	Tax             float64    `json:"tax"`
	NetPrice        float64    `json:"net_price"`
	PromocodeReward float64    `json:"promocode_reward,omitempty"`
	Currency        string     `json:"currency"`
	EventStartDate  string     `json:"event_start_date"`
	EventEndDate    string     `json:"event_end_date"`
	EventStartTime  string     `json:"event_start_time"`
	EventEndTime    string     `json:"event_end_time"`
	PaymentType     string     `json:"payment_type"`
	IsPaid          bool       `json:"is_paid"`
	Status          string     `json:"status"`
	TransactionID   *uuid.UUID `json:"transaction_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// PaginatedBookingsResponse wraps a booking listing page.
type PaginatedBookingsResponse struct {
	Bookings   []BookingResponse `json:"bookings"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

func toBookingResponse(b *Booking) BookingResponse {
	return BookingResponse{
		ID:              b.ID,
		CommonOrder:     b.CommonOrder,
		OrderNumber:     b.OrderNumber,
		EventID:         b.EventID,
		TicketID:        b.TicketID,
		CustomerID:      b.CustomerID,
		Price:           b.Price,
		Tax:             b.Tax,
		NetPrice:        b.NetPrice,
		PromocodeReward: b.PromocodeReward,
		Currency:        b.Currency,
		EventStartDate:  b.EventStartDate.Format(dateLayout),
		EventEndDate:    b.EventEndDate.Format(dateLayout),
		EventStartTime:  b.EventStartTime,
		EventEndTime:    b.EventEndTime,
		PaymentType:     b.PaymentType,
		IsPaid:          b.IsPaid,
		Status:          b.Status,
		TransactionID:   b.TransactionID,
		CreatedAt:       b.CreatedAt,
	}
}

func toBookingResponses(items []Booking) []BookingResponse {
	responses := make([]BookingResponse, 0, len(items))
	for i := range items {
		responses = append(responses, toBookingResponse(&items[i]))
	}
	return responses
}
