package response

type StandardApiResponse struct {
	Status     string      `json:"status"`           // "success" or "error"
	StatusCode int         `json:"status_code"`      // HTTP status code
	Message    string      `json:"message"`          // Human-readable message
	Data       interface{} `json:"data,omitempty"`   // Payload for success
	Errors     interface{} `json:"errors,omitempty"` // Validation or error details
}

// CheckoutEnvelope is the stable shape every booking submission and gateway
// callback resolves to, success or failure.
type CheckoutEnvelope struct {
	Status  bool   `json:"status"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message"`
}
