package bookings

// Booking statuses
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusRefunded  = "refunded"
)

// Payment types. Online means a real gateway transaction backs the booking;
// offline covers free, complimentary and pay-at-venue orders.
const (
	PaymentTypeOnline  = "online"
	PaymentTypeOffline = "offline"
)

// Gateway names used on transactions without a provider, for direct
// settlements.
const (
	GatewayOffline = "offline"
	GatewayFree    = "free"
)
