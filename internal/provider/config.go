package provider

import (
	"encoding/json"

	"sunupay/internal/model"
)

// Config is the union of per-provider credential bundles parsed out of a
// Gateway row. Which fields matter depends on the provider; missing fields
// fall back to the gateway's top-level apiKey/apiSecret columns the same way
// the dashboard stores them.
type Config struct {
	// PayDunya
	MasterKey  string `json:"masterKey"`
	PrivateKey string `json:"privateKey"`
	PublicKey  string `json:"publicKey"`
	Token      string `json:"token"`
	// PawaPay / FeexPay / CinetPay
	APIKey string `json:"apiKey"`
	// CinetPay
	SiteID string `json:"siteId"`
	// FeexPay
	ShopID string `json:"shopId"`
	// All providers; "live" unless set otherwise.
	Mode string `json:"mode"`
}

// ConfigFromGateway parses the gateway's JSON config blob and applies the
// apiKey/apiSecret column fallbacks.
func ConfigFromGateway(g *model.Gateway) *Config {
	cfg := &Config{}
	if len(g.Config) > 0 {
		// An unparseable blob degrades to the column fallbacks below.
		_ = json.Unmarshal(g.Config, cfg)
	}
	if cfg.MasterKey == "" {
		cfg.MasterKey = g.APIKey
	}
	if cfg.PrivateKey == "" {
		cfg.PrivateKey = g.APISecret
	}
	if cfg.APIKey == "" {
		cfg.APIKey = g.APIKey
	}
	if cfg.Mode == "" {
		cfg.Mode = "live"
	}
	return cfg
}

func (c *Config) live() bool {
	return c == nil || c.Mode == "" || c.Mode == "live"
}
