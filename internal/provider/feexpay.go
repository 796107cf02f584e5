package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"sunupay/internal/model"
)

const feexPayBaseURL = "https://api.feexpay.me"

// FeexPay has no direct-debit API: initiation creates a hosted payment link
// (FeexLink) the customer is redirected to, and reconciliation happens
// through the public transaction status endpoint.
type FeexPay struct {
	cfg    *Config
	client *resty.Client
}

// NewFeexPay creates a FeexPay adapter.
func NewFeexPay(cfg *Config) *FeexPay {
	client := resty.New().
		SetBaseURL(feexPayBaseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey)
	return &FeexPay{cfg: cfg, client: client}
}

// Name implements PaymentProvider.
func (p *FeexPay) Name() string { return NameFeexPay }

type feexPayLinkResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Link      string `json:"link"`
	Reference string `json:"reference"`
}

type feexPayStatusResponse struct {
	FinancialTransactionID string `json:"financialTransactionId"`
	ExternalID             string `json:"externalId"`
	Status                 string `json:"status"`
	Reason                 string `json:"reason"`
}

// InitiatePayment creates a payment link.
func (p *FeexPay) InitiatePayment(ctx context.Context, req *PaymentRequest) *PaymentResponse {
	customID := fmt.Sprintf("FEEX_%s_%d", req.OrderID, time.Now().UnixMilli())

	body := map[string]any{
		"shopId":             p.cfg.ShopID,
		"amount":             req.Amount.InexactFloat64(),
		"currency":           currencyOr(req.Currency, "XOF"),
		"description":        fmt.Sprintf("Payment for order %s", req.OrderID),
		"callback_url":       req.ReturnURL,
		"error_callback_url": req.CallbackURL + "?status=failed",
		"paymentMethod":      "ALL",
		"custom_id":          customID,
		"customerEmail":      req.CustomerEmail,
		"customerName":       req.CustomerName,
		"customerPhone":      req.CustomerPhone,
	}

	var out feexPayLinkResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/api/feexlink/api-create")
	if err != nil {
		return failedResponse("", err)
	}

	if !out.Success || out.Link == "" {
		return &PaymentResponse{
			TransactionID: customID,
			Status:        model.PaymentStatusFailed,
			Message:       out.Message,
			Raw:           resp.Body(),
		}
	}

	ref := out.Reference
	if ref == "" {
		ref = customID
	}

	return &PaymentResponse{
		TransactionID:     customID,
		ProviderReference: ref,
		Status:            model.PaymentStatusPending,
		CheckoutURL:       out.Link,
		Raw:               resp.Body(),
	}
}

// VerifyPayment queries the public transaction status endpoint.
func (p *FeexPay) VerifyPayment(ctx context.Context, providerRef string) *PaymentResponse {
	var out feexPayStatusResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/transactions/public/single/status/" + providerRef)
	if err != nil {
		return failedResponse(providerRef, err)
	}

	ref := providerRef
	if out.FinancialTransactionID != "" {
		ref = out.FinancialTransactionID
	}

	return &PaymentResponse{
		TransactionID:     providerRef,
		ProviderReference: ref,
		Status:            p.mapStatus(out.Status),
		Raw:               resp.Body(),
	}
}

// HandleWebhook extracts the reference from the notification and re-verifies
// it rather than trusting the payload's status field.
func (p *FeexPay) HandleWebhook(ctx context.Context, payload []byte) *WebhookResult {
	var body struct {
		Reference string `json:"reference"`
		OrderID   string `json:"order_id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.Reference == "" {
		return failedWebhookResult(fmt.Errorf("missing reference in feexpay webhook"))
	}

	verification := p.VerifyPayment(ctx, body.Reference)
	return &WebhookResult{
		TransactionID:     body.OrderID,
		ProviderReference: body.Reference,
		Status:            verification.Status,
		Raw:               mergeWebhookRaw(payload, verification.Raw),
	}
}

// ValidateCredentials checks the key format, then probes a transaction id
// that cannot exist: only an auth failure is treated as invalid credentials.
func (p *FeexPay) ValidateCredentials(ctx context.Context) error {
	if !strings.HasPrefix(p.cfg.APIKey, "fp_") {
		return fmt.Errorf("feexpay api keys start with fp_")
	}
	resp, err := p.client.R().
		SetContext(ctx).
		Get("/api/transactions/public/single/status/credential-check")
	if err != nil {
		return fmt.Errorf("feexpay unreachable: %w", err)
	}
	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		return fmt.Errorf("feexpay rejected the credentials")
	}
	return nil
}

func (p *FeexPay) mapStatus(status string) model.PaymentStatus {
	switch strings.ToUpper(status) {
	case "SUCCESSFUL":
		return model.PaymentStatusSuccess
	case "FAILED":
		return model.PaymentStatusFailed
	case "PENDING", "IN PENDING STATE":
		return model.PaymentStatusPending
	default:
		return model.PaymentStatusPending
	}
}
