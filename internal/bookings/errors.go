package bookings

import "errors"

// ErrAlreadySettled is returned by the repository when a finalize attempt
// hits an existing common order or transaction id. Callers treat it as a
// no-op success.
var ErrAlreadySettled = errors.New("order already settled")

// CheckoutErrorKind classifies checkout failures. The kind decides how much
// detail the caller is shown.
type CheckoutErrorKind int

const (
	// ErrKindValidation is a bad request shape, rejected before any work.
	ErrKindValidation CheckoutErrorKind = iota

	// ErrKindAvailability is sold out, over capacity or a seat conflict.
	ErrKindAvailability

	// ErrKindTiming is an ended event or a pre-booking window violation.
	ErrKindTiming

	// ErrKindConfig is a missing gateway secret. The message shown to the
	// caller is generic; the detail goes to logs only.
	ErrKindConfig

	// ErrKindGateway is a provider rejection or network failure.
	ErrKindGateway

	// ErrKindSettlement is a rolled-back finalize transaction. Shown as a
	// generic failure, never exposing duplicate-key detail.
	ErrKindSettlement
)

// CheckoutError is a classified checkout failure. Message carries the
// internal detail; PublicMessage is what the caller may see.
type CheckoutError struct {
	Kind    CheckoutErrorKind
	Message string
}

func (e *CheckoutError) Error() string {
	return e.Message
}

// PublicMessage returns the caller-safe message for the error kind. Gateway
// messages pass through as the provider reported them; the adapters wrap
// them in sentinels that never carry credentials. Config and settlement
// failures stay generic.
func (e *CheckoutError) PublicMessage() string {
	switch e.Kind {
	case ErrKindValidation, ErrKindAvailability, ErrKindTiming, ErrKindGateway:
		return e.Message
	default:
		return "Booking failed. Please try again."
	}
}

func validationError(msg string) *CheckoutError {
	return &CheckoutError{Kind: ErrKindValidation, Message: msg}
}

func availabilityError(msg string) *CheckoutError {
	return &CheckoutError{Kind: ErrKindAvailability, Message: msg}
}

func timingError(msg string) *CheckoutError {
	return &CheckoutError{Kind: ErrKindTiming, Message: msg}
}

func configError(msg string) *CheckoutError {
	return &CheckoutError{Kind: ErrKindConfig, Message: msg}
}

func gatewayError(msg string) *CheckoutError {
	return &CheckoutError{Kind: ErrKindGateway, Message: msg}
}

func settlementError(msg string) *CheckoutError {
	return &CheckoutError{Kind: ErrKindSettlement, Message: msg}
}

// AsCheckoutError unwraps err into a CheckoutError, defaulting unclassified
// errors to the settlement kind.
func AsCheckoutError(err error) *CheckoutError {
	var checkoutErr *CheckoutError
	if errors.As(err, &checkoutErr) {
		return checkoutErr
	}
	return &CheckoutError{Kind: ErrKindSettlement, Message: err.Error()}
}
