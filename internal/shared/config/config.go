package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application. It is loaded once at
// startup and passed into components as an immutable snapshot.
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// JWT configuration
	JWT JWTConfig

	// Booking rules
	Booking BookingConfig

	// Commission rules
	Commission CommissionConfig

	// Regional defaults
	Regional RegionalConfig

	// Payment gateway credentials
	Gateways GatewayConfig

	// Kafka (booking committed events)
	Kafka KafkaConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Logging
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	// TTL for staged checkout sessions
	CheckoutSessionTTL time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// BookingConfig holds booking validation rules
type BookingConfig struct {
	// MaxTicketQty is the global per-customer limit used when a ticket
	// carries no customer_limit of its own.
	MaxTicketQty int

	// PreBookingHours is the minimum number of hours before the event end
	// at which a booking may still be placed.
	PreBookingHours float64

	// Offline payment availability per role.
	OfflinePaymentOrganiser bool
	OfflinePaymentCustomer  bool
}

// CommissionConfig holds multi-vendor commission rules
type CommissionConfig struct {
	// AdminPercent is the platform commission in percent of organiser price.
	AdminPercent float64
}

// RegionalConfig holds regional defaults
type RegionalConfig struct {
	CurrencyDefault string
	Timezone        string
}

// GatewayConfig holds per-gateway secrets. An adapter is only eligible when
// all of its secrets are present; the orchestrator never reports which one
// is missing.
type GatewayConfig struct {
	PayPal    PayPalConfig
	Billplz   BillplzConfig
	ToyyibPay ToyyibPayConfig
	Stripe    StripeConfig
}

// PayPalConfig holds PayPal express-checkout credentials
type PayPalConfig struct {
	ClientID  string
	Secret    string
	BaseURL   string
	ReturnURL string
}

// Configured reports whether every required secret is present.
func (c PayPalConfig) Configured() bool {
	return c.ClientID != "" && c.Secret != ""
}

// BillplzConfig holds Billplz hosted-bill credentials
type BillplzConfig struct {
	CollectionID string
	SecretKey    string
	XSignature   string
	BaseURL      string
	RedirectURI  string
}

// Configured reports whether every required secret is present.
func (c BillplzConfig) Configured() bool {
	return c.CollectionID != "" && c.SecretKey != "" && c.RedirectURI != ""
}

// ToyyibPayConfig holds ToyyibPay hosted-bill credentials
type ToyyibPayConfig struct {
	CategoryCode string
	SecretKey    string
	BaseURL      string
}

// Configured reports whether every required secret is present.
func (c ToyyibPayConfig) Configured() bool {
	return c.SecretKey != "" && c.BaseURL != ""
}

// StripeConfig holds Stripe direct-charge credentials
type StripeConfig struct {
	SecretKey string
}

// Configured reports whether every required secret is present.
func (c StripeConfig) Configured() bool {
	return c.SecretKey != ""
}

// KafkaConfig holds Kafka producer configuration
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	BookingTopic string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	PublicRequests  int           `json:"public_requests"`
	BookingRequests int           `json:"booking_requests"`
	WhitelistedIPs  []string      `json:"whitelisted_ips"`
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		// Database configuration
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "ticketbooth_db"),
			User:     getEnv("DB_USER", "ticketbooth_user"),
			Password: getEnv("DB_PASSWORD", "ticketbooth_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},

		// Redis configuration
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),

			CheckoutSessionTTL: getDurationEnv("REDIS_CHECKOUT_SESSION_TTL", 30*time.Minute),
		},

		// JWT configuration
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
		},

		// Booking rules
		Booking: BookingConfig{
			MaxTicketQty:            getIntEnv("BOOKING_MAX_TICKET_QTY", 10),
			PreBookingHours:         getFloatEnv("BOOKING_PRE_BOOKING_HOURS", 0),
			OfflinePaymentOrganiser: getBoolEnv("BOOKING_OFFLINE_PAYMENT_ORGANISER", false),
			OfflinePaymentCustomer:  getBoolEnv("BOOKING_OFFLINE_PAYMENT_CUSTOMER", false),
		},

		// Commission rules
		Commission: CommissionConfig{
			AdminPercent: getFloatEnv("COMMISSION_ADMIN_PERCENT", 0),
		},

		// Regional defaults
		Regional: RegionalConfig{
			CurrencyDefault: getEnv("CURRENCY_DEFAULT", "USD"),
			Timezone:        getEnv("TIMEZONE_DEFAULT", "UTC"),
		},

		// Payment gateways
		Gateways: GatewayConfig{
			PayPal: PayPalConfig{
				ClientID:  getEnv("PAYPAL_CLIENT_ID", ""),
				Secret:    getEnv("PAYPAL_SECRET", ""),
				BaseURL:   getEnv("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"),
				ReturnURL: getEnv("PAYPAL_RETURN_URL", ""),
			},
			Billplz: BillplzConfig{
				CollectionID: getEnv("BILLPLZ_COLLECTION_ID", ""),
				SecretKey:    getEnv("BILLPLZ_SECRET_KEY", ""),
				XSignature:   getEnv("BILLPLZ_XSIGNATURE", ""),
				BaseURL:      getEnv("BILLPLZ_BASE_URL", "https://www.billplz-sandbox.com"),
				RedirectURI:  getEnv("BILLPLZ_REDIRECT_URI", ""),
			},
			ToyyibPay: ToyyibPayConfig{
				CategoryCode: getEnv("TOYYIBPAY_CATEGORY_CODE", ""),
				SecretKey:    getEnv("TOYYIBPAY_SECRET_KEY", ""),
				BaseURL:      getEnv("TOYYIBPAY_BASE_URL", "https://dev.toyyibpay.com"),
			},
			Stripe: StripeConfig{
				SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			},
		},

		// Kafka
		Kafka: KafkaConfig{
			Enabled:      getBoolEnv("KAFKA_ENABLED", false),
			Brokers:      getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			BookingTopic: getEnv("KAFKA_BOOKING_TOPIC", "booking.committed"),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:         getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:  getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests: getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:  getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 100),
			BookingRequests: getIntEnv("RATE_LIMIT_BOOKING_REQUESTS", 20),
			WhitelistedIPs:  getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getFloatEnv gets a float environment variable with a fallback value
func getFloatEnv(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
