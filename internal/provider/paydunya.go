package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"sunupay/internal/model"
)

const (
	payDunyaLiveURL    = "https://app.paydunya.com/api/v1"
	payDunyaSandboxURL = "https://app.paydunya.com/sandbox-api/v1"
)

// PayDunya drives the SoftCheckout invoice flow plus the SoftPay push charge
// layered on top of it. Mobile-money pushes are a two-step protocol: an
// invoice is created first, then the charge is triggered against its token.
type PayDunya struct {
	cfg    *Config
	client *resty.Client
}

// NewPayDunya creates a PayDunya adapter.
func NewPayDunya(cfg *Config) *PayDunya {
	base := payDunyaSandboxURL
	if cfg.live() {
		base = payDunyaLiveURL
	}
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(defaultTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("PAYDUNYA-MASTER-KEY", cfg.MasterKey).
		SetHeader("PAYDUNYA-PRIVATE-KEY", cfg.PrivateKey).
		SetHeader("PAYDUNYA-TOKEN", cfg.Token)
	return &PayDunya{cfg: cfg, client: client}
}

// Name implements PaymentProvider.
func (p *PayDunya) Name() string { return NamePayDunya }

type payDunyaInvoiceResponse struct {
	ResponseCode string `json:"response_code"`
	ResponseText string `json:"response_text"`
	Description  string `json:"description"`
	Token        string `json:"token"`
}

type payDunyaConfirmResponse struct {
	ResponseCode string `json:"response_code"`
	Status       string `json:"status"`
	Invoice      struct {
		Token       string `json:"token"`
		TotalAmount string `json:"total_amount"`
	} `json:"invoice"`
	CustomData map[string]any `json:"custom_data"`
}

type payDunyaSoftPayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  string `json:"status"`
	URL     string `json:"url"`
}

// InitiatePayment creates a SoftCheckout invoice and returns its token as the
// provider reference.
func (p *PayDunya) InitiatePayment(ctx context.Context, req *PaymentRequest) *PaymentResponse {
	body := map[string]any{
		"invoice": map[string]any{
			"total_amount": req.Amount.InexactFloat64(),
			"description":  fmt.Sprintf("Paiement commande %s", req.OrderID),
		},
		"store": map[string]any{
			"name": req.CustomerName,
		},
		"actions": map[string]any{
			"callback_url": req.CallbackURL,
			"return_url":   req.ReturnURL,
			"cancel_url":   req.ReturnURL,
		},
		"custom_data": map[string]any{
			"order_id": req.OrderID,
		},
	}

	var out payDunyaInvoiceResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/checkout-invoice/create")
	if err != nil {
		return failedResponse("", err)
	}

	if resp.IsError() || out.ResponseCode != "00" || out.Token == "" {
		return &PaymentResponse{
			TransactionID: req.OrderID,
			Status:        model.PaymentStatusFailed,
			Message:       out.Description,
			Raw:           resp.Body(),
		}
	}

	return &PaymentResponse{
		TransactionID:     req.OrderID,
		ProviderReference: out.Token,
		Status:            model.PaymentStatusPending,
		CheckoutURL:       out.ResponseText,
		Raw:               resp.Body(),
	}
}

// VerifyPayment confirms the invoice behind a token and maps the reported
// status onto the canonical enum.
func (p *PayDunya) VerifyPayment(ctx context.Context, providerRef string) *PaymentResponse {
	var out payDunyaConfirmResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/checkout-invoice/confirm/" + providerRef)
	if err != nil {
		return failedResponse(providerRef, err)
	}
	if resp.IsError() {
		return failedResponse(providerRef, fmt.Errorf("paydunya confirm: %s", resp.Status()))
	}

	return &PaymentResponse{
		TransactionID:     providerRef,
		ProviderReference: providerRef,
		Status:            p.mapStatus(out.Status),
		Raw:               resp.Body(),
	}
}

// ProcessSoftPay triggers the mobile-money push charge against an existing
// invoice token. PayDunya exposes one endpoint per operator and prefixes the
// body fields with the method code (orange-money-ci -> orange_money_ci_*).
func (p *PayDunya) ProcessSoftPay(ctx context.Context, invoiceToken, methodCode string, customer Customer) *PaymentResponse {
	prefix := strings.ReplaceAll(strings.ToLower(methodCode), "-", "_")

	body := map[string]any{
		"payment_token":               invoiceToken,
		prefix + "_customer_fullname": customer.Name,
		prefix + "_email":             customer.Email,
		prefix + "_phone_number":      customer.Phone,
		prefix + "_payment_token":     invoiceToken,
	}
	if customer.OTP != "" {
		body[prefix+"_otp"] = customer.OTP
	}

	var out payDunyaSoftPayResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/softpay/" + strings.ToLower(methodCode))
	if err != nil {
		return failedResponse(invoiceToken, err)
	}

	status := model.PaymentStatusPending
	if !out.Success || resp.IsError() {
		status = model.PaymentStatusFailed
	}
	if strings.EqualFold(out.Status, "completed") {
		status = model.PaymentStatusSuccess
	}

	return &PaymentResponse{
		TransactionID:     invoiceToken,
		ProviderReference: invoiceToken,
		Status:            status,
		CheckoutURL:       out.URL,
		Message:           out.Message,
		Raw:               resp.Body(),
	}
}

// HandleWebhook extracts the invoice token from the IPN body and re-verifies
// it against the confirm endpoint. The webhook's own status claim is never
// trusted.
func (p *PayDunya) HandleWebhook(ctx context.Context, payload []byte) *WebhookResult {
	token := payDunyaWebhookToken(payload)
	if token == "" {
		return failedWebhookResult(fmt.Errorf("missing invoice token in paydunya webhook"))
	}

	verification := p.VerifyPayment(ctx, token)
	return &WebhookResult{
		TransactionID:     token,
		ProviderReference: token,
		Status:            verification.Status,
		Raw:               mergeWebhookRaw(payload, verification.Raw),
	}
}

// ValidateCredentials confirms the key set by asking for a token that cannot
// exist: an auth failure and a not-found answer are distinguishable.
func (p *PayDunya) ValidateCredentials(ctx context.Context) error {
	resp, err := p.client.R().
		SetContext(ctx).
		Get("/checkout-invoice/confirm/credential-check")
	if err != nil {
		return fmt.Errorf("paydunya unreachable: %w", err)
	}
	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		return fmt.Errorf("paydunya rejected the credentials")
	}
	return nil
}

func (p *PayDunya) mapStatus(status string) model.PaymentStatus {
	switch strings.ToLower(status) {
	case "completed":
		return model.PaymentStatusSuccess
	case "cancelled":
		return model.PaymentStatusCancelled
	case "failed":
		return model.PaymentStatusFailed
	default:
		return model.PaymentStatusPending
	}
}

// payDunyaWebhookToken digs the invoice token out of the known IPN shapes.
func payDunyaWebhookToken(payload []byte) string {
	var body struct {
		Token string `json:"token"`
		Data  struct {
			Invoice struct {
				Token string `json:"token"`
			} `json:"invoice"`
		} `json:"data"`
		Invoice struct {
			Token string `json:"token"`
		} `json:"invoice"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	switch {
	case body.Token != "":
		return body.Token
	case body.Invoice.Token != "":
		return body.Invoice.Token
	default:
		return body.Data.Invoice.Token
	}
}

// mergeWebhookRaw keeps both the original payload and the verification body
// in the audit record.
func mergeWebhookRaw(payload, verification json.RawMessage) json.RawMessage {
	if len(payload) == 0 || !json.Valid(payload) {
		payload = json.RawMessage("null")
	}
	if len(verification) == 0 || !json.Valid(verification) {
		verification = json.RawMessage("null")
	}
	return rawOf(map[string]json.RawMessage{
		"webhook_original":  payload,
		"verification_data": verification,
	})
}
