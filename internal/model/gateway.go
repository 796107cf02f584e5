package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GatewayStatus indicates whether a tenant's gateway accepts new payments.
type GatewayStatus string

const (
	GatewayStatusActive   GatewayStatus = "active"
	GatewayStatusInactive GatewayStatus = "inactive"
)

// Gateway is a tenant-configured payment provider. At most one row may exist
// per (ApplicationID, Name); Config carries the provider-specific credential
// bundle (masterKey/privateKey/publicKey/token for PayDunya, apiKey+mode for
// PawaPay, apiKey+siteId for CinetPay, shopId+apiKey for FeexPay).
type Gateway struct {
	ID            uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	ApplicationID uuid.UUID       `json:"application_id" gorm:"type:char(36);not null;uniqueIndex:idx_gateway_app_name"`
	Name          string          `json:"name" gorm:"type:varchar(32);not null;uniqueIndex:idx_gateway_app_name"`
	APIKey        string          `json:"-" gorm:"type:varchar(255)"`
	APISecret     string          `json:"-" gorm:"type:varchar(255)"`
	Config        json.RawMessage `json:"-" gorm:"type:json"`
	Status        GatewayStatus   `json:"status" gorm:"type:varchar(16);not null;default:'active'"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"-" gorm:"index"`
}

// BeforeCreate sets UUID before creating the record.
func (g *Gateway) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// GatewayStats carries the derived health figures shown next to a gateway.
// They are computed from PaymentRecord counts, never stored.
type GatewayStats struct {
	Gateway
	SuccessRate string `json:"success_rate"`
	Uptime      string `json:"uptime"`
}
