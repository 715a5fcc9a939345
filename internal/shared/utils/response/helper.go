package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondCheckout writes the checkout envelope. Gateways and browsers both
// consume it, so the HTTP code stays 200 unless the request itself was bad.
func RespondCheckout(c *gin.Context, ok bool, url, message string) {
	c.JSON(http.StatusOK, CheckoutEnvelope{
		Status:  ok,
		URL:     url,
		Message: message,
	})
}
