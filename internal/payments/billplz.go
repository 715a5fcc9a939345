package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ticketbooth/internal/shared/config"
	"ticketbooth/pkg/logger"
)

// billplzAdapter drives the Billplz hosted-bill flow. Amounts on the wire
// are in cents; the secret key rides as the basic-auth username.
type billplzAdapter struct {
	cfg    config.BillplzConfig
	log    *logger.Logger
	client *http.Client
}

func NewBillplzAdapter(cfg config.BillplzConfig, log *logger.Logger) Adapter {
	return &billplzAdapter{
		cfg:    cfg,
		log:    log,
		client: &http.Client{Timeout: 20 * time.Second},
	}
}

func (a *billplzAdapter) Name() string {
	return "billplz"
}

func (a *billplzAdapter) CreatePayment(ctx context.Context, order Order, currency string, customer Customer) (*CreateResult, error) {
	if !a.cfg.Configured() {
		return nil, ErrConfigMissing
	}

	redirect := a.cfg.RedirectURI + "?order=" + url.QueryEscape(order.CommonOrder)
	form := url.Values{
		"collection_id":     {a.cfg.CollectionID},
		"email":             {customer.Email},
		"name":              {customer.Name},
		"amount":            {fmt.Sprintf("%d", toCents(order.Amount))},
		"description":       {order.Description},
		"reference_1_label": {"Order"},
		"reference_1":       {order.CommonOrder},
		"callback_url":      {redirect},
		"redirect_url":      {redirect},
	}
	if customer.Phone != "" {
		form.Set("mobile", customer.Phone)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.cfg.BaseURL+"/api/v3/bills", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(a.cfg.SecretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: create bill returned %d", ErrProviderRejected, resp.StatusCode)
	}

	var body struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}
	if body.URL == "" {
		return nil, fmt.Errorf("%w: no bill url in response", ErrProviderRejected)
	}
	return &CreateResult{RedirectURL: body.URL}, nil
}

// VerifyStatus fetches the bill by id and reads its paid flag. Redirect
// query parameters are never trusted.
func (a *billplzAdapter) VerifyStatus(ctx context.Context, reference string) (*StatusResult, error) {
	if !a.cfg.Configured() {
		return nil, ErrConfigMissing
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.cfg.BaseURL+"/api/v3/bills/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(a.cfg.SecretKey, "")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: get bill returned %d", ErrProviderRejected, resp.StatusCode)
	}

	var body struct {
		ID         string `json:"id"`
		Paid       bool   `json:"paid"`
		PaidAmount int64  `json:"paid_amount"`
		Email      string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}

	return &StatusResult{
		Paid:           body.Paid,
		TransactionID:  body.ID,
		PayerReference: body.Email,
		Amount:         float64(body.PaidAmount) / 100,
	}, nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
