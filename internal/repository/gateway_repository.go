package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sunupay/internal/model"
)

// GatewayRepository defines gateway persistence operations.
type GatewayRepository interface {
	Create(ctx context.Context, gateway *model.Gateway) error
	Update(ctx context.Context, gateway *model.Gateway) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Gateway, error)
	FindByAppAndName(ctx context.Context, appID uuid.UUID, name string) (*model.Gateway, error)
	ListByApp(ctx context.Context, appID uuid.UUID) ([]model.Gateway, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.GatewayStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type gatewayRepository struct {
	db *gorm.DB
}

// NewGatewayRepository creates a new gateway repository.
func NewGatewayRepository(db *gorm.DB) GatewayRepository {
	return &gatewayRepository{db: db}
}

// Create creates a new gateway.
func (r *gatewayRepository) Create(ctx context.Context, gateway *model.Gateway) error {
	return r.db.WithContext(ctx).Create(gateway).Error
}

// Update saves a gateway.
func (r *gatewayRepository) Update(ctx context.Context, gateway *model.Gateway) error {
	return r.db.WithContext(ctx).Save(gateway).Error
}

// FindByID finds a gateway by ID.
func (r *gatewayRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Gateway, error) {
	var gateway model.Gateway
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&gateway).Error; err != nil {
		return nil, err
	}
	return &gateway, nil
}

// FindByAppAndName resolves the tenant's gateway for a provider name. Names
// are matched case-insensitively because the provider column on transactions
// mirrors what the dashboard stored.
func (r *gatewayRepository) FindByAppAndName(ctx context.Context, appID uuid.UUID, name string) (*model.Gateway, error) {
	var gateway model.Gateway
	err := r.db.WithContext(ctx).
		Where("application_id = ? AND LOWER(name) = LOWER(?)", appID, name).
		First(&gateway).Error
	if err != nil {
		return nil, err
	}
	return &gateway, nil
}

// ListByApp lists a tenant's gateways, newest first.
func (r *gatewayRepository) ListByApp(ctx context.Context, appID uuid.UUID) ([]model.Gateway, error) {
	var gateways []model.Gateway
	err := r.db.WithContext(ctx).
		Where("application_id = ?", appID).
		Order("created_at desc").
		Find(&gateways).Error
	return gateways, err
}

// UpdateStatus flips a gateway between active and inactive.
func (r *gatewayRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.GatewayStatus) error {
	return r.db.WithContext(ctx).Model(&model.Gateway{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Delete soft-deletes a gateway.
func (r *gatewayRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Gateway{}, "id = ?", id).Error
}
