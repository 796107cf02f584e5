package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"sunupay/internal/errors"
)

// WebhookReference extracts the provider's transaction identifier from an
// inbound webhook body without constructing an adapter. The orchestration
// layer needs the reference first to resolve which tenant gateway the webhook
// belongs to; only then can a credentialed adapter re-verify the payload.
func WebhookReference(name string, payload []byte) (string, error) {
	var ref string
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NamePayDunya:
		ref = payDunyaWebhookToken(payload)
	case NamePawaPay:
		var body struct {
			DepositID string `json:"depositId"`
		}
		_ = json.Unmarshal(payload, &body)
		ref = body.DepositID
	case NameCinetPay:
		ref = cinetPayWebhookID(payload)
	case NameFeexPay:
		var body struct {
			Reference string `json:"reference"`
		}
		_ = json.Unmarshal(payload, &body)
		ref = body.Reference
	case NameMock:
		var body struct {
			Reference string `json:"reference"`
		}
		_ = json.Unmarshal(payload, &body)
		ref = body.Reference
	default:
		return "", &errors.UnknownProviderError{Name: name}
	}

	if ref == "" {
		return "", fmt.Errorf("no transaction reference in %s webhook payload", name)
	}
	return ref, nil
}
