package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sunupay/internal/model"
)

func newTestPawaPay(t *testing.T, handler http.HandlerFunc) *PawaPay {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewPawaPay(&Config{APIKey: "key", Mode: "sandbox"})
	p.client.SetBaseURL(srv.URL)
	return p
}

func TestPawaPay_MapStatus(t *testing.T) {
	p := &PawaPay{}

	tests := []struct {
		raw      string
		expected model.PaymentStatus
	}{
		{"COMPLETED", model.PaymentStatusSuccess},
		{"FAILED", model.PaymentStatusFailed},
		{"CANCELLED", model.PaymentStatusCancelled},
		{"ACCEPTED", model.PaymentStatusPending},
		{"SUBMITTED", model.PaymentStatusPending},
		{"PENDING", model.PaymentStatusPending},
		{"SOME_FUTURE_STATE", model.PaymentStatusPending},
		{"", model.PaymentStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.mapStatus(tt.raw))
		})
	}
}

func TestPawaPay_InitiatePayment(t *testing.T) {
	var gotBody map[string]any
	p := newTestPawaPay(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/deposits", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"depositId":"dep-1","status":"ACCEPTED"}`))
	})

	resp := p.InitiatePayment(context.Background(), &PaymentRequest{
		Amount:        decimal.NewFromInt(1500),
		Currency:      "XOF",
		CustomerPhone: "+2250701020304",
		OrderID:       "ORD-9",
		Metadata:      map[string]string{"depositId": "dep-1", "provider": "ORANGE_CIV"},
	})

	assert.Equal(t, model.PaymentStatusPending, resp.Status)
	assert.Equal(t, "dep-1", resp.ProviderReference)

	payer, ok := gotBody["payer"].(map[string]any)
	require.True(t, ok)
	details, ok := payer["accountDetails"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2250701020304", details["phoneNumber"])
	assert.Equal(t, "ORANGE_CIV", details["provider"])
}

func TestPawaPay_InitiatePayment_GeneratesDepositID(t *testing.T) {
	p := newTestPawaPay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ACCEPTED"}`))
	})

	resp := p.InitiatePayment(context.Background(), &PaymentRequest{
		Amount:  decimal.NewFromInt(1500),
		OrderID: "ORD-9",
	})

	assert.NotEmpty(t, resp.ProviderReference)
}

func TestPawaPay_VerifyPayment_UnwrapsArrayResponse(t *testing.T) {
	p := newTestPawaPay(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/deposits/dep-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"depositId":"dep-1","status":"COMPLETED"}]`))
	})

	resp := p.VerifyPayment(context.Background(), "dep-1")

	assert.Equal(t, model.PaymentStatusSuccess, resp.Status)
	assert.Equal(t, "dep-1", resp.ProviderReference)
}

func TestPawaPay_VerifyPayment_SingleObjectResponse(t *testing.T) {
	p := newTestPawaPay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"depositId":"dep-1","status":"FAILED","reason":"insufficient funds"}`))
	})

	resp := p.VerifyPayment(context.Background(), "dep-1")
	assert.Equal(t, model.PaymentStatusFailed, resp.Status)
}

func TestPawaPay_VerifyPayment_TransportError(t *testing.T) {
	p := NewPawaPay(&Config{APIKey: "key"})
	p.client.SetBaseURL("http://127.0.0.1:1")

	resp := p.VerifyPayment(context.Background(), "dep-1")
	assert.Equal(t, model.PaymentStatusFailed, resp.Status)
	assert.NotEmpty(t, resp.Message)
}

func TestPawaPay_HandleWebhook_ReverifiesInsteadOfTrusting(t *testing.T) {
	p := newTestPawaPay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"depositId":"dep-1","status":"SUBMITTED"}]`))
	})

	payload := []byte(`{"depositId":"dep-1","status":"COMPLETED"}`)
	result := p.HandleWebhook(context.Background(), payload)

	assert.Equal(t, model.PaymentStatusPending, result.Status)
	assert.Equal(t, "dep-1", result.ProviderReference)
}

func TestPawaPay_HandleWebhook_MissingDepositID(t *testing.T) {
	p := newTestPawaPay(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	result := p.HandleWebhook(context.Background(), []byte(`{}`))
	assert.Equal(t, model.PaymentStatusFailed, result.Status)
}

func TestPawaPay_ValidateCredentials(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{"valid key", http.StatusOK, false},
		{"rejected key", http.StatusForbidden, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPawaPay(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/active-configuration", r.URL.Path)
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
