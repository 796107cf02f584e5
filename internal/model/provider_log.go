package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProviderLog type tags.
const (
	LogTypeSoftPayResponse = "SOFTPAY_RESPONSE"
	LogTypeSyncCheck       = "SYNC_CHECK"
	LogTypeWebhook         = "WEBHOOK"
	LogTypeInvoiceCreated  = "INVOICE_CREATED"
)

// ProviderLog is the append-only audit trail of raw provider responses.
// Payload is stored verbatim so the exchange can be replayed independently of
// the normalized status on the PaymentRecord. Rows are never mutated.
type ProviderLog struct {
	ID            uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	TransactionID uuid.UUID       `json:"transaction_id" gorm:"type:char(36);not null;index"`
	Type          string          `json:"type" gorm:"type:varchar(32);not null;index"`
	Payload       json.RawMessage `json:"payload" gorm:"type:json"`
	CreatedAt     time.Time       `json:"created_at"`
}

// BeforeCreate sets UUID before creating the record.
func (pl *ProviderLog) BeforeCreate(tx *gorm.DB) error {
	if pl.ID == uuid.Nil {
		pl.ID = uuid.New()
	}
	return nil
}
