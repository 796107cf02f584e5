package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"sunupay/internal/model"
)

// Mock is an in-memory provider for demos and tests. It needs no
// configuration. The request metadata key "simulate" drives the outcome a
// later VerifyPayment reports: "success" (the default), "pending" or "fail".
type Mock struct {
	mu       sync.Mutex
	deposits map[string]model.PaymentStatus
}

// NewMock creates a mock adapter.
func NewMock() *Mock {
	return &Mock{deposits: make(map[string]model.PaymentStatus)}
}

// Name implements PaymentProvider.
func (p *Mock) Name() string { return NameMock }

// InitiatePayment registers an in-memory deposit and returns it PENDING.
func (p *Mock) InitiatePayment(ctx context.Context, req *PaymentRequest) *PaymentResponse {
	ref := "mock_" + uuid.NewString()

	final := model.PaymentStatusSuccess
	switch req.Metadata["simulate"] {
	case "fail":
		final = model.PaymentStatusFailed
	case "pending":
		final = model.PaymentStatusPending
	}

	p.mu.Lock()
	p.deposits[ref] = final
	p.mu.Unlock()

	return &PaymentResponse{
		TransactionID:     req.OrderID,
		ProviderReference: ref,
		Status:            model.PaymentStatusPending,
		Raw:               rawOf(map[string]string{"reference": ref, "status": "PENDING"}),
	}
}

// VerifyPayment reports the simulated outcome; unknown references fail.
func (p *Mock) VerifyPayment(ctx context.Context, providerRef string) *PaymentResponse {
	p.mu.Lock()
	status, ok := p.deposits[providerRef]
	p.mu.Unlock()

	if !ok {
		// An unknown reference is a real provider answer, not a transport
		// failure: the deposit does not exist on this side.
		msg := fmt.Sprintf("unknown mock reference %s", providerRef)
		return &PaymentResponse{
			TransactionID:     providerRef,
			ProviderReference: providerRef,
			Status:            model.PaymentStatusFailed,
			Message:           msg,
			Raw:               rawOf(map[string]string{"error": msg}),
		}
	}

	return &PaymentResponse{
		TransactionID:     providerRef,
		ProviderReference: providerRef,
		Status:            status,
		Raw:               rawOf(map[string]string{"reference": providerRef, "status": string(status)}),
	}
}

// HandleWebhook re-verifies the referenced deposit like the real adapters do.
func (p *Mock) HandleWebhook(ctx context.Context, payload []byte) *WebhookResult {
	var body struct {
		Reference string `json:"reference"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.Reference == "" {
		return failedWebhookResult(fmt.Errorf("missing reference in mock webhook"))
	}

	verification := p.VerifyPayment(ctx, body.Reference)
	return &WebhookResult{
		TransactionID:     body.Reference,
		ProviderReference: body.Reference,
		Status:            verification.Status,
		Raw:               mergeWebhookRaw(payload, verification.Raw),
	}
}
