package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ticketbooth/internal/shared/config"
	"ticketbooth/pkg/logger"
)

// paypalAdapter drives the PayPal checkout-orders flow: create an order,
// send the customer to the approval link, then capture on return.
type paypalAdapter struct {
	cfg    config.PayPalConfig
	log    *logger.Logger
	client *http.Client
}

func NewPayPalAdapter(cfg config.PayPalConfig, log *logger.Logger) Adapter {
	return &paypalAdapter{
		cfg:    cfg,
		log:    log,
		client: &http.Client{Timeout: 20 * time.Second},
	}
}

func (a *paypalAdapter) Name() string {
	return "paypal"
}

func (a *paypalAdapter) token(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(a.cfg.ClientID, a.cfg.Secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %d", ErrProviderRejected, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}
	return body.AccessToken, nil
}

func (a *paypalAdapter) CreatePayment(ctx context.Context, order Order, currency string, customer Customer) (*CreateResult, error) {
	if !a.cfg.Configured() {
		return nil, ErrConfigMissing
	}

	accessToken, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	returnURL := a.cfg.ReturnURL + "?order=" + url.QueryEscape(order.CommonOrder)
	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": order.CommonOrder,
				"description":  order.Description,
				"amount": map[string]string{
					"currency_code": currency,
					"value":         fmt.Sprintf("%.2f", order.Amount),
				},
			},
		},
		"application_context": map[string]string{
			"return_url": returnURL,
			"cancel_url": returnURL,
		},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.cfg.BaseURL+"/v2/checkout/orders", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: create order returned %d", ErrProviderRejected, resp.StatusCode)
	}

	var body struct {
		ID    string `json:"id"`
		Links []struct {
			Rel  string `json:"rel"`
			Href string `json:"href"`
		} `json:"links"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}

	for _, link := range body.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			return &CreateResult{RedirectURL: link.Href}, nil
		}
	}
	return nil, fmt.Errorf("%w: no approval link in response", ErrProviderRejected)
}

// VerifyStatus captures the approved order and reads the capture outcome.
// The reference is the PayPal order id from the return redirect.
func (a *paypalAdapter) VerifyStatus(ctx context.Context, reference string) (*StatusResult, error) {
	if !a.cfg.Configured() {
		return nil, ErrConfigMissing
	}

	accessToken, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.cfg.BaseURL+"/v2/checkout/orders/"+url.PathEscape(reference)+"/capture", strings.NewReader("{}"))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: capture returned %d", ErrProviderRejected, resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
		Payer  struct {
			PayerID string `json:"payer_id"`
		} `json:"payer"`
		PurchaseUnits []struct {
			Payments struct {
				Captures []struct {
					ID     string `json:"id"`
					Status string `json:"status"`
					Amount struct {
						Value string `json:"value"`
					} `json:"amount"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}

	result := &StatusResult{
		Paid:           body.Status == "COMPLETED",
		TransactionID:  reference,
		PayerReference: body.Payer.PayerID,
	}
	for _, unit := range body.PurchaseUnits {
		for _, capture := range unit.Payments.Captures {
			if capture.ID != "" {
				result.TransactionID = capture.ID
			}
			fmt.Sscanf(capture.Amount.Value, "%f", &result.Amount)
		}
	}
	return result, nil
}
