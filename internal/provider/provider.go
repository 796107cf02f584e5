package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"sunupay/internal/model"
)

// Provider names accepted by the factory.
const (
	NameMock     = "mock"
	NamePayDunya = "paydunya"
	NamePawaPay  = "pawapay"
	NameCinetPay = "cinetpay"
	NameFeexPay  = "feexpay"
)

// defaultTimeout bounds every outbound provider call so one slow gateway
// cannot stall a reconciliation batch.
const defaultTimeout = 15 * time.Second

// PaymentRequest carries everything an adapter needs to create a
// provider-side invoice or deposit.
type PaymentRequest struct {
	Amount        decimal.Decimal
	Currency      string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	OrderID       string
	CallbackURL   string
	ReturnURL     string
	Metadata      map[string]string
}

// PaymentResponse is the canonical result of an adapter call. Raw preserves
// the provider's response verbatim for the audit trail; on transport errors
// it carries {"error": "..."} and Status is FAILED.
type PaymentResponse struct {
	TransactionID     string
	ProviderReference string
	Status            model.PaymentStatus
	CheckoutURL       string
	Message           string
	Raw               json.RawMessage
	// TransportError marks responses fabricated for calls that never got a
	// provider-side answer. Their Status is FAILED by construction and says
	// nothing about the invoice itself, so callers must not treat them as a
	// provider-reported failure.
	TransportError bool
}

// WebhookResult is what an adapter derives from an inbound webhook after
// re-verifying the transaction against the provider.
type WebhookResult struct {
	TransactionID     string
	ProviderReference string
	Status            model.PaymentStatus
	Raw               json.RawMessage
}

// Customer identifies the paying customer for a soft-pay push charge.
type Customer struct {
	Name    string
	Email   string
	Phone   string
	Country string
	OTP     string
}

// PaymentProvider is the contract every gateway adapter implements.
//
// None of the methods return an error: provider-reported business failures
// and transport failures alike come back as a FAILED response with the cause
// preserved in Raw, so callers never need provider-specific error handling.
type PaymentProvider interface {
	Name() string
	InitiatePayment(ctx context.Context, req *PaymentRequest) *PaymentResponse
	VerifyPayment(ctx context.Context, providerRef string) *PaymentResponse
	HandleWebhook(ctx context.Context, payload []byte) *WebhookResult
}

// SoftPayProcessor is implemented by providers that split invoice creation
// from the mobile-money push charge (PayDunya).
type SoftPayProcessor interface {
	ProcessSoftPay(ctx context.Context, invoiceToken, methodCode string, customer Customer) *PaymentResponse
}

// CredentialValidator is optionally implemented by adapters that can check a
// credential bundle with a cheap, side-effect-free call. A nil return means
// the credentials are usable.
type CredentialValidator interface {
	ValidateCredentials(ctx context.Context) error
}

// failedResponse builds the FAILED shape used for calls that produced no
// provider-reported status: network errors and non-2xx replies alike.
func failedResponse(ref string, err error) *PaymentResponse {
	raw, _ := json.Marshal(map[string]string{"error": err.Error()})
	return &PaymentResponse{
		TransactionID:     ref,
		ProviderReference: ref,
		Status:            model.PaymentStatusFailed,
		Message:           err.Error(),
		Raw:               raw,
		TransportError:    true,
	}
}

func failedWebhookResult(err error) *WebhookResult {
	raw, _ := json.Marshal(map[string]string{"error": err.Error()})
	return &WebhookResult{
		Status: model.PaymentStatusFailed,
		Raw:    raw,
	}
}

// rawOf marshals a decoded provider body back to JSON for the audit trail.
func rawOf(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(fmt.Sprintf("{%q:%q}", "error", err.Error()))
	}
	return raw
}
