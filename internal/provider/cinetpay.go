package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"sunupay/internal/model"
)

const cinetPayBaseURL = "https://api-checkout.cinetpay.com/v2"

// CinetPay hosts the checkout page itself: initiation returns a payment URL
// and a token, while status checks are keyed on the transaction id the caller
// generated at initiation time.
type CinetPay struct {
	cfg    *Config
	client *resty.Client
}

// NewCinetPay creates a CinetPay adapter.
func NewCinetPay(cfg *Config) *CinetPay {
	client := resty.New().
		SetBaseURL(cinetPayBaseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Content-Type", "application/json")
	return &CinetPay{cfg: cfg, client: client}
}

// Name implements PaymentProvider.
func (p *CinetPay) Name() string { return NameCinetPay }

type cinetPayInitResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    *struct {
		PaymentToken string `json:"payment_token"`
		PaymentURL   string `json:"payment_url"`
	} `json:"data"`
}

type cinetPayCheckResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Status     string `json:"status"`
		OperatorID string `json:"operator_id"`
	} `json:"data"`
}

// InitiatePayment opens a hosted checkout session.
func (p *CinetPay) InitiatePayment(ctx context.Context, req *PaymentRequest) *PaymentResponse {
	transactionID := fmt.Sprintf("CP_%s_%d", req.OrderID, time.Now().UnixMilli())

	metadata, _ := json.Marshal(req.Metadata)
	body := map[string]any{
		"apikey":                p.cfg.APIKey,
		"site_id":               p.cfg.SiteID,
		"transaction_id":        transactionID,
		"amount":                req.Amount.InexactFloat64(),
		"currency":              currencyOr(req.Currency, "XOF"),
		"description":           fmt.Sprintf("Payment for order %s", req.OrderID),
		"notify_url":            req.CallbackURL,
		"return_url":            req.ReturnURL,
		"channels":              "ALL",
		"metadata":              string(metadata),
		"customer_name":         req.CustomerName,
		"customer_email":        req.CustomerEmail,
		"customer_phone_number": req.CustomerPhone,
		"lang":                  "FR",
	}

	var out cinetPayInitResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/payment")
	if err != nil {
		return failedResponse("", err)
	}

	if out.Code != "201" || out.Data == nil {
		return &PaymentResponse{
			TransactionID: transactionID,
			Status:        model.PaymentStatusFailed,
			Message:       out.Message,
			Raw:           resp.Body(),
		}
	}

	// The check endpoint is keyed on transaction_id, so that is what gets
	// stored as the provider reference.
	return &PaymentResponse{
		TransactionID:     transactionID,
		ProviderReference: transactionID,
		Status:            model.PaymentStatusPending,
		CheckoutURL:       out.Data.PaymentURL,
		Raw:               resp.Body(),
	}
}

// VerifyPayment checks a transaction. ACCEPTED together with code 00 is the
// only success signal.
func (p *CinetPay) VerifyPayment(ctx context.Context, providerRef string) *PaymentResponse {
	body := map[string]any{
		"apikey":         p.cfg.APIKey,
		"site_id":        p.cfg.SiteID,
		"transaction_id": providerRef,
	}

	var out cinetPayCheckResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/payment/check")
	if err != nil {
		return failedResponse(providerRef, err)
	}

	status := model.PaymentStatusPending
	switch {
	case out.Code == "00" && out.Data.Status == "ACCEPTED":
		status = model.PaymentStatusSuccess
	case out.Data.Status == "REFUSED", out.Data.Status == "EXPIRED":
		status = model.PaymentStatusFailed
	case out.Data.Status == "WAITING_FOR_CUSTOMER":
		status = model.PaymentStatusPending
	}

	ref := providerRef
	if out.Data.OperatorID != "" {
		ref = out.Data.OperatorID
	}

	return &PaymentResponse{
		TransactionID:     providerRef,
		ProviderReference: ref,
		Status:            status,
		Raw:               resp.Body(),
	}
}

// HandleWebhook pulls cpm_trans_id out of the notification (JSON or
// form-encoded) and re-verifies it, as CinetPay's own documentation requires.
func (p *CinetPay) HandleWebhook(ctx context.Context, payload []byte) *WebhookResult {
	transactionID := cinetPayWebhookID(payload)
	if transactionID == "" {
		return failedWebhookResult(fmt.Errorf("missing cpm_trans_id in cinetpay webhook"))
	}

	verification := p.VerifyPayment(ctx, transactionID)
	return &WebhookResult{
		TransactionID:     transactionID,
		ProviderReference: verification.ProviderReference,
		Status:            verification.Status,
		Raw:               mergeWebhookRaw(payload, verification.Raw),
	}
}

// ValidateCredentials runs a check on a transaction id that cannot exist.
// CinetPay answers bad keys with dedicated codes, so auth failures and
// not-found lookups are distinguishable.
func (p *CinetPay) ValidateCredentials(ctx context.Context) error {
	var out cinetPayCheckResponse
	_, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"apikey":         p.cfg.APIKey,
			"site_id":        p.cfg.SiteID,
			"transaction_id": fmt.Sprintf("val_check_%d", time.Now().UnixMilli()),
		}).
		SetResult(&out).
		Post("/payment/check")
	if err != nil {
		return fmt.Errorf("cinetpay unreachable: %w", err)
	}

	switch out.Code {
	case "602":
		return fmt.Errorf("invalid cinetpay api key")
	case "605":
		return fmt.Errorf("invalid cinetpay site id")
	}
	return nil
}

// cinetPayWebhookID handles both notification encodings.
func cinetPayWebhookID(payload []byte) string {
	var body struct {
		CpmTransID    string `json:"cpm_trans_id"`
		TransactionID string `json:"transaction_id"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.CpmTransID != "" {
			return body.CpmTransID
		}
		if body.TransactionID != "" {
			return body.TransactionID
		}
	}
	if values, err := url.ParseQuery(strings.TrimSpace(string(payload))); err == nil {
		if id := values.Get("cpm_trans_id"); id != "" {
			return id
		}
		return values.Get("transaction_id")
	}
	return ""
}

func currencyOr(currency, fallback string) string {
	if currency == "" {
		return fallback
	}
	return currency
}
