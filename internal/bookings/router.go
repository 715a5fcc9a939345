package bookings

import (
	"ticketbooth/internal/shared/config"
	"ticketbooth/internal/shared/middleware"
	"ticketbooth/internal/users"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth(cfg), middleware.RequireRoles(
		users.RoleAdmin, users.RoleOrganiser, users.RoleCustomer, users.RolePOS))
	{
		bookings.POST("", controller.CreateBooking)  // POST /api/v1/bookings
		bookings.GET("", controller.GetUserBookings) // GET  /api/v1/bookings
		bookings.GET("/:id", controller.GetBooking)  // GET  /api/v1/bookings/:id
	}

	// Gateway return/callback endpoints. The providers redirect the
	// customer's browser here, so these carry no JWT; every settlement is
	// re-verified server side against the provider.
	callbacks := rg.Group("/payments/callback")
	{
		callbacks.GET("/paypal", controller.PayPalCallback)       // GET /api/v1/payments/callback/paypal
		callbacks.GET("/billplz", controller.BillplzCallback)     // GET /api/v1/payments/callback/billplz
		callbacks.GET("/toyyibpay", controller.ToyyibPayCallback) // GET /api/v1/payments/callback/toyyibpay
	}
}
