package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus is the canonical status every provider-specific status is
// normalized into.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// Terminal reports whether the status is final for a payment attempt.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

// PaymentRecord represents one payment attempt routed through a provider.
//
// ProviderRef is nil until the first successful invoice creation and is stable
// once set; the only legal reset is when the provider reports the underlying
// invoice as cancelled or failed, which forces a fresh invoice on the next
// checkout attempt. CompletedAt is non-nil iff Status == SUCCESS.
type PaymentRecord struct {
	ID            uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	OrderID       string          `json:"order_id" gorm:"type:varchar(64);not null;index"`
	ApplicationID uuid.UUID       `json:"application_id" gorm:"type:char(36);not null;index"`
	Provider      string          `json:"provider" gorm:"type:varchar(32);not null;index"`
	ProviderRef   *string         `json:"provider_ref" gorm:"type:varchar(128);index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	Currency      string          `json:"currency" gorm:"type:varchar(8);not null;default:'XOF'"`
	Status        PaymentStatus   `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	CustomerName  string          `json:"customer_name" gorm:"type:varchar(128)"`
	CustomerEmail string          `json:"customer_email" gorm:"type:varchar(128)"`
	CustomerPhone string          `json:"customer_phone" gorm:"type:varchar(32)"`
	PaymentType   string          `json:"payment_type" gorm:"type:varchar(32)"`
	CompletedAt   *time.Time      `json:"completed_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"-" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (p *PaymentRecord) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
