package provider

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sunupay/internal/model"
)

func TestMock_SimulatedOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		simulate string
		expected model.PaymentStatus
	}{
		{"default is success", "", model.PaymentStatusSuccess},
		{"simulated failure", "fail", model.PaymentStatusFailed},
		{"simulated pending", "pending", model.PaymentStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewMock()

			req := &PaymentRequest{
				Amount:  decimal.NewFromInt(100),
				OrderID: "ORD-1",
			}
			if tt.simulate != "" {
				req.Metadata = map[string]string{"simulate": tt.simulate}
			}

			initResp := p.InitiatePayment(context.Background(), req)
			require.Equal(t, model.PaymentStatusPending, initResp.Status)
			require.NotEmpty(t, initResp.ProviderReference)

			verifyResp := p.VerifyPayment(context.Background(), initResp.ProviderReference)
			assert.Equal(t, tt.expected, verifyResp.Status)
		})
	}
}

func TestMock_VerifyPayment_UnknownReference(t *testing.T) {
	p := NewMock()

	resp := p.VerifyPayment(context.Background(), "mock_does_not_exist")
	assert.Equal(t, model.PaymentStatusFailed, resp.Status)
	// The provider answered: the reference simply does not exist.
	assert.False(t, resp.TransportError)
}

func TestMock_HandleWebhook(t *testing.T) {
	p := NewMock()

	initResp := p.InitiatePayment(context.Background(), &PaymentRequest{
		Amount:  decimal.NewFromInt(100),
		OrderID: "ORD-1",
	})

	result := p.HandleWebhook(context.Background(), []byte(`{"reference":"`+initResp.ProviderReference+`"}`))
	assert.Equal(t, model.PaymentStatusSuccess, result.Status)

	missing := p.HandleWebhook(context.Background(), []byte(`{}`))
	assert.Equal(t, model.PaymentStatusFailed, missing.Status)
}
