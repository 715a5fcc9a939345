// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"ticketbooth/internal/bookings"
	"ticketbooth/internal/events"
	"ticketbooth/internal/notifications"
	"ticketbooth/internal/payments"
	"ticketbooth/internal/pricing"
	"ticketbooth/internal/promocodes"
	"ticketbooth/internal/shared/config"
	"ticketbooth/internal/shared/database"
	"ticketbooth/internal/tickets"
	"ticketbooth/internal/users"
	"ticketbooth/pkg/cache"
	"ticketbooth/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	producer notifications.Producer
	log      *logger.Logger
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, producer notifications.Producer, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		producer: producer,
		log:      log,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupBookingRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "ticketbooth",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "ticketbooth",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}

// setupBookingRoutes wires the whole checkout pipeline: repositories,
// pricing, promocodes, gateway adapters and the settlement service.
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	db := r.db.GetPostgreSQL()

	userRepo := users.NewRepository(db)
	eventRepo := events.NewRepository(db)
	ticketRepo := tickets.NewRepository(db)
	promoRepo := promocodes.NewRepository(db)
	bookingRepo := bookings.NewRepository(db)

	cacheService := cache.NewService(r.db.GetRedisClient())
	sessionStore := bookings.NewSessionStore(cacheService, r.config.Redis.CheckoutSessionTTL)

	bookingService := bookings.NewService(
		bookingRepo,
		sessionStore,
		bookings.NewValidator(ticketRepo, r.config.Booking),
		pricing.NewEngine(ticketRepo),
		promocodes.NewApplier(promoRepo),
		payments.NewRegistry(r.config, r.log),
		userRepo,
		eventRepo,
		ticketRepo,
		r.producer,
		r.config,
		r.log,
	)

	bookingController := bookings.NewController(bookingService, r.log)
	bookings.SetupBookingRoutes(rg, bookingController, r.config)
}
