package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"sunupay/internal/model"
)

const (
	pawaPayLiveURL    = "https://api.pawapay.io"
	pawaPaySandboxURL = "https://api.sandbox.pawapay.io"
)

// PawaPay pushes mobile-money deposits. The deposit id is caller-generated
// (a UUID) and doubles as the provider reference, which keeps initiation
// idempotent on the provider side.
type PawaPay struct {
	cfg    *Config
	client *resty.Client
}

// NewPawaPay creates a PawaPay adapter.
func NewPawaPay(cfg *Config) *PawaPay {
	base := pawaPaySandboxURL
	if cfg.live() {
		base = pawaPayLiveURL
	}
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(defaultTimeout).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey)
	return &PawaPay{cfg: cfg, client: client}
}

// Name implements PaymentProvider.
func (p *PawaPay) Name() string { return NamePawaPay }

type pawaPayDeposit struct {
	DepositID string `json:"depositId"`
	Status    string `json:"status"`
	Created   string `json:"created"`
	Reason    string `json:"reason"`
}

// InitiatePayment creates a deposit. The operator code (e.g. MTN_MOMO_CIV,
// ORANGE_CIV) comes from request metadata.
func (p *PawaPay) InitiatePayment(ctx context.Context, req *PaymentRequest) *PaymentResponse {
	depositID := req.Metadata["depositId"]
	if depositID == "" {
		depositID = uuid.NewString()
	}
	operator := req.Metadata["provider"]
	if operator == "" {
		operator = "MTN_MOMO_CIV"
	}

	body := map[string]any{
		"depositId": depositID,
		"amount":    req.Amount.String(),
		"currency":  req.Currency,
		"payer": map[string]any{
			"type": "MMO",
			"accountDetails": map[string]any{
				"phoneNumber": strings.TrimPrefix(req.CustomerPhone, "+"),
				"provider":    operator,
			},
		},
		"clientReferenceId": req.OrderID,
		"customerMessage":   fmt.Sprintf("Paiement %s", req.OrderID),
	}

	var out pawaPayDeposit
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/v2/deposits")
	if err != nil {
		return failedResponse(depositID, err)
	}

	if resp.IsError() {
		return &PaymentResponse{
			TransactionID:     depositID,
			ProviderReference: depositID,
			Status:            model.PaymentStatusFailed,
			Message:           out.Reason,
			Raw:               resp.Body(),
		}
	}

	return &PaymentResponse{
		TransactionID:     depositID,
		ProviderReference: depositID,
		Status:            p.mapStatus(out.Status),
		Raw:               resp.Body(),
	}
}

// VerifyPayment polls the deposit status endpoint. PawaPay answers the lookup
// with an array of status objects; the first entry is authoritative.
func (p *PawaPay) VerifyPayment(ctx context.Context, providerRef string) *PaymentResponse {
	resp, err := p.client.R().
		SetContext(ctx).
		Get("/v2/deposits/" + providerRef)
	if err != nil {
		return failedResponse(providerRef, err)
	}
	if resp.IsError() {
		return failedResponse(providerRef, fmt.Errorf("pawapay api error: %s", resp.Status()))
	}

	statusData, raw := pawaPayFirst(resp.Body())

	return &PaymentResponse{
		TransactionID:     providerRef,
		ProviderReference: providerRef,
		Status:            p.mapStatus(statusData.Status),
		Raw:               raw,
	}
}

// HandleWebhook extracts the deposit id from the callback and re-verifies it;
// the payload's status field is ignored on purpose.
func (p *PawaPay) HandleWebhook(ctx context.Context, payload []byte) *WebhookResult {
	var body struct {
		DepositID string `json:"depositId"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.DepositID == "" {
		return failedWebhookResult(fmt.Errorf("missing depositId in pawapay webhook"))
	}

	verification := p.VerifyPayment(ctx, body.DepositID)
	return &WebhookResult{
		TransactionID:     body.DepositID,
		ProviderReference: body.DepositID,
		Status:            verification.Status,
		Raw:               mergeWebhookRaw(payload, verification.Raw),
	}
}

// ValidateCredentials checks the API key against the active-configuration
// endpoint, which is read-only.
func (p *PawaPay) ValidateCredentials(ctx context.Context) error {
	resp, err := p.client.R().
		SetContext(ctx).
		Get("/v1/active-configuration")
	if err != nil {
		return fmt.Errorf("pawapay unreachable: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("pawapay rejected the credentials (code %d)", resp.StatusCode())
	}
	return nil
}

func (p *PawaPay) mapStatus(status string) model.PaymentStatus {
	switch strings.ToUpper(status) {
	case "COMPLETED":
		return model.PaymentStatusSuccess
	case "FAILED":
		return model.PaymentStatusFailed
	case "CANCELLED":
		return model.PaymentStatusCancelled
	case "ACCEPTED", "SUBMITTED", "PENDING":
		return model.PaymentStatusPending
	default:
		return model.PaymentStatusPending
	}
}

// pawaPayFirst unwraps the array shape of the deposit lookup response.
func pawaPayFirst(body []byte) (pawaPayDeposit, json.RawMessage) {
	var list []pawaPayDeposit
	if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
		return list[0], rawOf(list[0])
	}
	var single pawaPayDeposit
	_ = json.Unmarshal(body, &single)
	return single, body
}
