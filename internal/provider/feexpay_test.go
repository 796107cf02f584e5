package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"sunupay/internal/model"
)

func newTestFeexPay(t *testing.T, handler http.HandlerFunc) *FeexPay {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewFeexPay(&Config{APIKey: "fp_key", ShopID: "shop"})
	p.client.SetBaseURL(srv.URL)
	return p
}

func TestFeexPay_MapStatus(t *testing.T) {
	p := &FeexPay{}

	tests := []struct {
		raw      string
		expected model.PaymentStatus
	}{
		{"SUCCESSFUL", model.PaymentStatusSuccess},
		{"successful", model.PaymentStatusSuccess},
		{"FAILED", model.PaymentStatusFailed},
		{"PENDING", model.PaymentStatusPending},
		{"IN PENDING STATE", model.PaymentStatusPending},
		{"WHO_KNOWS", model.PaymentStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.mapStatus(tt.raw))
		})
	}
}

func TestFeexPay_InitiatePayment(t *testing.T) {
	p := newTestFeexPay(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/feexlink/api-create", r.URL.Path)
		assert.Equal(t, "Bearer fp_key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"link":"https://pay.feexpay.me/x","reference":"fx-1"}`))
	})

	resp := p.InitiatePayment(context.Background(), &PaymentRequest{
		Amount:      decimal.NewFromInt(3000),
		OrderID:     "ORD-7",
		CallbackURL: "https://api.example/api/webhooks/feexpay",
		ReturnURL:   "https://api.example/checkout/success",
	})

	assert.Equal(t, model.PaymentStatusPending, resp.Status)
	assert.Equal(t, "fx-1", resp.ProviderReference)
	assert.Equal(t, "https://pay.feexpay.me/x", resp.CheckoutURL)
}

func TestFeexPay_InitiatePayment_NoLink(t *testing.T) {
	p := newTestFeexPay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"message":"shop not found"}`))
	})

	resp := p.InitiatePayment(context.Background(), &PaymentRequest{
		Amount:  decimal.NewFromInt(3000),
		OrderID: "ORD-7",
	})

	assert.Equal(t, model.PaymentStatusFailed, resp.Status)
	assert.Equal(t, "shop not found", resp.Message)
}

func TestFeexPay_VerifyPayment(t *testing.T) {
	p := newTestFeexPay(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/transactions/public/single/status/fx-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"financialTransactionId":"fin-9","status":"SUCCESSFUL"}`))
	})

	resp := p.VerifyPayment(context.Background(), "fx-1")

	assert.Equal(t, model.PaymentStatusSuccess, resp.Status)
	assert.Equal(t, "fin-9", resp.ProviderReference)
}

func TestFeexPay_HandleWebhook_ReverifiesInsteadOfTrusting(t *testing.T) {
	p := newTestFeexPay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"IN PENDING STATE"}`))
	})

	payload := []byte(`{"reference":"fx-1","status":"SUCCESSFUL"}`)
	result := p.HandleWebhook(context.Background(), payload)

	assert.Equal(t, model.PaymentStatusPending, result.Status)
	assert.Equal(t, "fx-1", result.ProviderReference)
}

func TestFeexPay_ValidateCredentials_KeyFormat(t *testing.T) {
	p := NewFeexPay(&Config{APIKey: "bad-prefix", ShopID: "shop"})

	err := p.ValidateCredentials(context.Background())
	assert.Error(t, err)
}

func TestFeexPay_ValidateCredentials(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{"not found means the key works", http.StatusNotFound, false},
		{"rejected key", http.StatusUnauthorized, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestFeexPay(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			err := p.ValidateCredentials(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
