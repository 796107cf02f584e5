package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"sunupay/internal/errors"
	"sunupay/internal/model"
	"sunupay/internal/provider"
	"sunupay/internal/repository"
)

// WebhookService processes inbound provider notifications. The payload's own
// status claim is never trusted: the adapter re-verifies against the provider
// before anything is written, which is what makes forged webhooks harmless.
type WebhookService interface {
	ProcessWebhook(ctx context.Context, providerName string, payload []byte) (*provider.WebhookResult, error)
}

type webhookService struct {
	recordRepo  repository.PaymentRecordRepository
	gatewayRepo repository.GatewayRepository
	logRepo     repository.ProviderLogRepository
	factory     provider.Factory
	cache       GatewayCache
	logger      *zap.Logger
}

// NewWebhookService creates a new webhook service.
func NewWebhookService(
	recordRepo repository.PaymentRecordRepository,
	gatewayRepo repository.GatewayRepository,
	logRepo repository.ProviderLogRepository,
	factory provider.Factory,
	gatewayCache GatewayCache,
	logger *zap.Logger,
) WebhookService {
	return &webhookService{
		recordRepo:  recordRepo,
		gatewayRepo: gatewayRepo,
		logRepo:     logRepo,
		factory:     factory,
		cache:       gatewayCache,
		logger:      logger,
	}
}

// ProcessWebhook resolves the transaction behind a notification, re-verifies
// it through the tenant's adapter and applies the status-merge rule.
func (s *webhookService) ProcessWebhook(ctx context.Context, providerName string, payload []byte) (*provider.WebhookResult, error) {
	ref, err := provider.WebhookReference(providerName, payload)
	if err != nil {
		return nil, err
	}

	record, err := s.recordRepo.FindByProviderRef(ctx, ref)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, err
	}

	gateway, err := findGatewayCached(ctx, s.cache, s.gatewayRepo, record.ApplicationID, providerName)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrGatewayNotFound
		}
		return nil, err
	}

	adapter, err := s.factory.Provider(gateway.Name, provider.ConfigFromGateway(gateway))
	if err != nil {
		return nil, err
	}

	result := adapter.HandleWebhook(ctx, payload)

	// SUCCESS already on record is terminal; the webhook may race a sync
	// pass, and both derive status from the same provider source of truth.
	if record.Status != model.PaymentStatusSuccess {
		var completedAt *time.Time
		if result.Status == model.PaymentStatusSuccess {
			now := time.Now()
			completedAt = &now
		}
		if err := s.recordRepo.UpdateStatus(ctx, record.ID, result.Status, completedAt, ""); err != nil {
			return nil, err
		}
	}

	entry := &model.ProviderLog{
		TransactionID: record.ID,
		Type:          model.LogTypeWebhook,
		Payload:       result.Raw,
	}
	if err := s.logRepo.Create(ctx, entry); err != nil {
		s.logger.Warn("audit log write failed",
			zap.String("transaction_id", record.ID.String()), zap.Error(err))
	}

	s.logger.Info("webhook processed",
		zap.String("provider", providerName),
		zap.String("transaction_id", record.ID.String()),
		zap.String("status", string(result.Status)))

	return result, nil
}
