package payments

import (
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

// toyyibpayAdapter drives the ToyyibPay hosted-bill flow. The API is form
// encoded throughout; the payment page is the base URL plus the bill code.
type toyyibpayAdapter struct {
	cfg    config.ToyyibPayConfig
	log    *logger.Logger
	client *http.Client
}

func NewToyyibPayAdapter(cfg config.ToyyibPayConfig, log *logger.Logger) Adapter {
	return &toyyibpayAdapter{
		cfg:    cfg,
		log:    log,
		client: &http.Client{Timeout: 20 * time.Second},
	}
}

func (a *toyyibpayAdapter) Name() string {
	return "toyyibpay"
}

func (a *toyyibpayAdapter) CreatePayment(ctx context.Context, order Order, currency string, customer Customer) (*CreateResult, error) {
	if !a.cfg.Configured() {
		return nil, ErrConfigMissing
	}

	form := url.Values{
		"userSecretKey":           {a.cfg.SecretKey},
		"categoryCode":            {a.cfg.CategoryCode},
		"billName":                {truncate(order.Description, 30)},
		"billDescription":         {order.Description},
		"billPriceSetting":        {"1"},
		"billPayorInfo":           {"1"},
		"billAmount":              {fmt.Sprintf("%d", toCents(order.Amount))},
		"billExternalReferenceNo": {order.CommonOrder},
		"billTo":                  {customer.Name},
		"billEmail":               {customer.Email},
		"billPhone":               {customer.Phone},
		"billPaymentChannel":      {"2"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.cfg.BaseURL+"/index.php/api/createBill", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: create bill returned %d", ErrProviderRejected, resp.StatusCode)
	}

	// Success answers with a one-element array of bill codes; failures
	// answer 200 with a bare error string.
	var body []struct {
		BillCode string `json:"BillCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}
	if len(body) == 0 || body[0].BillCode == "" {
		return nil, fmt.Errorf("%w: no bill code in response", ErrProviderRejected)
	}

	return &CreateResult{RedirectURL: a.cfg.BaseURL + "/" + body[0].BillCode}, nil
}

// VerifyStatus looks the bill's transactions up by bill code and reports
// paid only when a completed transaction exists.
func (a *toyyibpayAdapter) VerifyStatus(ctx context.Context, reference string) (*StatusResult, error) {
	if !a.cfg.Configured() {
		return nil, ErrConfigMissing
	}

	form := url.Values{"billCode": {reference}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.cfg.BaseURL+"/index.php/api/getBillTransactions", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: get transactions returned %d", ErrProviderRejected, resp.StatusCode)
	}

	var body []struct {
		BillPaymentStatus   string `json:"billpaymentStatus"`
		BillPaymentInvoice  string `json:"billpaymentInvoiceNo"`
		BillPaymentSettleID string `json:"billpaymentSettlementReferenceNo"`
		BillPaymentAmount   string `json:"billpaymentAmount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderRejected, err)
	}

	result := &StatusResult{TransactionID: reference}
	for _, txn := range body {
		// Status 1 means successful payment.
		if txn.BillPaymentStatus == "1" {
			result.Paid = true
			if txn.BillPaymentInvoice != "" {
				result.TransactionID = txn.BillPaymentInvoice
			}
			result.PayerReference = txn.BillPaymentSettleID
			fmt.Sscanf(txn.BillPaymentAmount, "%f", &result.Amount)
			break
		}
	}
	return result, nil
}

// truncate shortens s to at most max characters without splitting a
// multi-byte rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
