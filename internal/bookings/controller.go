package bookings

import (
	"net/http"
	"strconv"

	"ticketbooth/internal/payments"
	"ticketbooth/internal/shared/utils/response"
	"ticketbooth/internal/users"
	"ticketbooth/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
	log     *logger.Logger
}

func NewController(service Service, log *logger.Logger) *Controller {
	return &Controller{service: service, log: log}
}

// actorFromContext reads the authenticated caller set by the JWT middleware.
func actorFromContext(ctx *gin.Context) (Actor, bool) {
	userIDInterface, exists := ctx.Get("user_id")
	if !exists {
		return Actor{}, false
	}
	userIDStr, ok := userIDInterface.(string)
	if !ok {
		return Actor{}, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return Actor{}, false
	}

	email, _ := ctx.Get("user_email")
	role, _ := ctx.Get("user_role")
	emailStr, _ := email.(string)
	roleStr, _ := role.(string)

	return Actor{ID: userID, Email: emailStr, Role: users.Role(roleStr)}, true
}

// CreateBooking handles POST /api/v1/bookings
func (c *Controller) CreateBooking(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req BookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondCheckout(ctx, false, "", "Invalid request body")
		return
	}

	result := c.service.Checkout(ctx.Request.Context(), actor, &req)
	response.RespondCheckout(ctx, result.Status, result.URL, result.Message)
}

// PayPalCallback handles GET /api/v1/payments/callback/paypal
//
// The return redirect carries our order token in "order" and the provider
// order id in "token".
func (c *Controller) PayPalCallback(ctx *gin.Context) {
	c.handleCallback(ctx, payments.MethodPayPal, ctx.Query("order"), ctx.Query("token"))
}

// BillplzCallback handles GET /api/v1/payments/callback/billplz
func (c *Controller) BillplzCallback(ctx *gin.Context) {
	reference := ctx.Query("billplz[id]")
	if reference == "" {
		reference = ctx.Query("billplz_id")
	}
	c.handleCallback(ctx, payments.MethodBillplz, ctx.Query("order"), reference)
}

// ToyyibPayCallback handles GET /api/v1/payments/callback/toyyibpay
//
// ToyyibPay echoes our external reference in "order_id" and the bill code
// in "billcode". Status is re-verified against the provider, never read
// from the query string.
func (c *Controller) ToyyibPayCallback(ctx *gin.Context) {
	commonOrder := ctx.Query("order_id")
	if commonOrder == "" {
		commonOrder = ctx.Query("order")
	}
	c.handleCallback(ctx, payments.MethodToyyibPay, commonOrder, ctx.Query("billcode"))
}

func (c *Controller) handleCallback(ctx *gin.Context, method int, commonOrder, reference string) {
	if commonOrder == "" || reference == "" {
		response.RespondCheckout(ctx, false, "", "Missing payment reference")
		return
	}

	result := c.service.HandleGatewayCallback(ctx.Request.Context(), method, commonOrder, reference)
	response.RespondCheckout(ctx, result.Status, result.URL, result.Message)
}

// GetBooking handles GET /api/v1/bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), actor, bookingID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Booking not found", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

// GetUserBookings handles GET /api/v1/bookings
func (c *Controller) GetUserBookings(ctx *gin.Context) {
	actor, ok := actorFromContext(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	listing, err := c.service.ListBookings(ctx.Request.Context(), actor, page, limit)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list bookings", nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved successfully", listing, nil)
}
