package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance
func New() *Logger {
	// Get log level from environment
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	// Create handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Create handler based on environment
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		// Use text handler for development (more readable)
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		// Use JSON handler for production (structured)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	// Create logger
	logger := slog.New(handler)

	return &Logger{
		Logger: logger,
	}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID adds request ID to logger context
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("request_id", requestID)),
	}
}

// WithUserID adds user ID to logger context
func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("user_id", userID)),
	}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("error", err.Error())),
	}
}

// WithFields adds multiple fields to logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	)
}

// LogHTTPError logs an HTTP error
func (l *Logger) LogHTTPError(c *gin.Context, err error, statusCode int) {
	l.Logger.ErrorContext(c.Request.Context(),
		"HTTP Error",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", statusCode),
		slog.String("error", err.Error()),
		slog.String("ip", c.ClientIP()),
	)
}

// Checkout logging methods

// LogCheckoutStarted logs when a checkout submission passes validation
func (l *Logger) LogCheckoutStarted(ctx context.Context, commonOrder, eventID, customerID string) {
	l.Logger.InfoContext(ctx,
		"Checkout Started",
		slog.String("common_order", commonOrder),
		slog.String("event_id", eventID),
		slog.String("customer_id", customerID),
	)
}

// LogGatewayRedirect logs a handoff to a hosted payment page
func (l *Logger) LogGatewayRedirect(ctx context.Context, commonOrder, gateway string) {
	l.Logger.InfoContext(ctx,
		"Gateway Redirect",
		slog.String("common_order", commonOrder),
		slog.String("gateway", gateway),
	)
}

// LogGatewayError logs a gateway failure with its full detail
func (l *Logger) LogGatewayError(ctx context.Context, commonOrder, gateway string, err error) {
	l.Logger.ErrorContext(ctx,
		"Gateway Error",
		slog.String("common_order", commonOrder),
		slog.String("gateway", gateway),
		slog.String("error", err.Error()),
	)
}

// LogOrderSettled logs a committed settlement
func (l *Logger) LogOrderSettled(ctx context.Context, commonOrder, txnID string, units int) {
	l.Logger.InfoContext(ctx,
		"Order Settled",
		slog.String("common_order", commonOrder),
		slog.String("txn_id", txnID),
		slog.Int("units", units),
	)
}

// LogDuplicateSettlement logs a settlement replay that was skipped
func (l *Logger) LogDuplicateSettlement(ctx context.Context, commonOrder string) {
	l.Logger.WarnContext(ctx,
		"Duplicate Settlement Skipped",
		slog.String("common_order", commonOrder),
	)
}

// LogAmountMismatch flags a gateway-verified amount that differs from the
// staged order total, for reconciliation
func (l *Logger) LogAmountMismatch(ctx context.Context, commonOrder, gateway string, verified, expected float64) {
	l.Logger.WarnContext(ctx,
		"Settlement Amount Mismatch",
		slog.String("common_order", commonOrder),
		slog.String("gateway", gateway),
		slog.Float64("verified_amount", verified),
		slog.Float64("expected_amount", expected),
	)
}

// LogPromocodeSkipped logs a promocode that did not apply to a cart
func (l *Logger) LogPromocodeSkipped(ctx context.Context, code, reason string) {
	l.Logger.DebugContext(ctx,
		"Promocode Skipped",
		slog.String("code", code),
		slog.String("reason", reason),
	)
}

// Security logging methods

// LogAuthFailure logs failed authentication
func (l *Logger) LogAuthFailure(ctx context.Context, reason, ip string) {
	l.Logger.WarnContext(ctx,
		"Authentication Failure",
		slog.String("reason", reason),
		slog.String("ip", ip),
	)
}

// LogRateLimitExceeded logs rate limit exceeded
func (l *Logger) LogRateLimitExceeded(ctx context.Context, ip, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("ip", ip),
		slog.String("endpoint", endpoint),
	)
}

// Helper methods for common patterns

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.InfoContext(ctx, msg, args...)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2+2)
	args = append(args, slog.String("error", err.Error()))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

// DebugWithContext logs a debug message with context
func (l *Logger) DebugWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.DebugContext(ctx, msg, args...)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
