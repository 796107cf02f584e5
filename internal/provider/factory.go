package provider

import (
	"strings"

	"sunupay/internal/errors"
)

// Factory resolves a provider name and a tenant credential bundle into a live
// adapter. Stateless and safe to call per request: instances are never cached
// across tenants because every call carries tenant-specific credentials.
type Factory interface {
	Provider(name string, cfg *Config) (PaymentProvider, error)
}

type factory struct{}

// NewFactory creates the default adapter factory.
func NewFactory() Factory {
	return factory{}
}

// Provider returns the adapter for a provider name. Names are matched
// lower-cased. Every provider except mock requires a configuration.
func (factory) Provider(name string, cfg *Config) (PaymentProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	if key != NameMock && cfg == nil {
		return nil, &errors.MissingConfigError{Provider: key}
	}

	switch key {
	case NameMock:
		return NewMock(), nil
	case NamePayDunya:
		if cfg.MasterKey == "" || cfg.PrivateKey == "" {
			return nil, &errors.MissingConfigError{Provider: key, Field: "masterKey/privateKey"}
		}
		return NewPayDunya(cfg), nil
	case NamePawaPay:
		if cfg.APIKey == "" {
			return nil, &errors.MissingConfigError{Provider: key, Field: "apiKey"}
		}
		return NewPawaPay(cfg), nil
	case NameCinetPay:
		if cfg.APIKey == "" || cfg.SiteID == "" {
			return nil, &errors.MissingConfigError{Provider: key, Field: "apiKey/siteId"}
		}
		return NewCinetPay(cfg), nil
	case NameFeexPay:
		if cfg.APIKey == "" || cfg.ShopID == "" {
			return nil, &errors.MissingConfigError{Provider: key, Field: "shopId/apiKey"}
		}
		return NewFeexPay(cfg), nil
	default:
		return nil, &errors.UnknownProviderError{Name: name}
	}
}
