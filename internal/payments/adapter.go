package payments

import (
	"context"
	"errors"
)

// Payment method identifiers carried in checkout requests. The numbering is
// fixed wire format shared with the storefront clients.
const (
	MethodPayPal    = 1
	MethodBillplz   = 2
	MethodCard      = 9
	MethodToyyibPay = 10
)

// Sentinel errors adapters return. The orchestrator maps all of them to a
// generic failure for the caller and keeps the detail in logs.
var (
	// ErrConfigMissing means the gateway's secrets are not configured.
	ErrConfigMissing = errors.New("payment gateway not configured")

	// ErrNetwork means the provider could not be reached.
	ErrNetwork = errors.New("payment gateway unreachable")

	// ErrProviderRejected means the provider answered but refused the request.
	ErrProviderRejected = errors.New("payment rejected by gateway")

	// ErrUnauthorized means the provider rejected our credentials.
	ErrUnauthorized = errors.New("payment gateway rejected credentials")
)

// Order is the gateway-facing view of a checkout: the order token used as
// the provider reference, the total to collect and a line description.
type Order struct {
	CommonOrder string
	Amount      float64
	Description string

	// CardToken is a tokenized payment method, used by direct-charge
	// gateways only.
	CardToken string
}

// Customer identifies the paying customer to the provider.
type Customer struct {
	Name  string
	Email string
	Phone string
}

// CreateResult is the outcome of starting a payment. Direct charges settle
// inside CreatePayment and carry no redirect; hosted flows return the URL
// the customer must be sent to.
type CreateResult struct {
	Direct      bool
	RedirectURL string

	// TransactionID and PayerReference are set for direct charges only.
	TransactionID  string
	PayerReference string
}

// StatusResult is the verified state of a payment, fetched from the
// provider after the customer returns from a hosted flow.
type StatusResult struct {
	Paid           bool
	TransactionID  string
	PayerReference string
	Amount         float64
}

// Adapter is one payment gateway. CreatePayment starts a payment for an
// order; VerifyStatus re-checks the payment server side by the provider
// reference, never trusting redirect query parameters.
type Adapter interface {
	Name() string
	CreatePayment(ctx context.Context, order Order, currency string, customer Customer) (*CreateResult, error)
	VerifyStatus(ctx context.Context, reference string) (*StatusResult, error)
}
