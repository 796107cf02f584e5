package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sunupay/internal/model"
)

// ProviderLogRepository defines the append-only audit trail operations.
// There is deliberately no update or single-row delete: logs exist for
// forensic replay of what each provider actually returned.
type ProviderLogRepository interface {
	Create(ctx context.Context, log *model.ProviderLog) error
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.ProviderLog, error)
}

type providerLogRepository struct {
	db *gorm.DB
}

// NewProviderLogRepository creates a new provider log repository.
func NewProviderLogRepository(db *gorm.DB) ProviderLogRepository {
	return &providerLogRepository{db: db}
}

// Create appends a log entry.
func (r *providerLogRepository) Create(ctx context.Context, log *model.ProviderLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ListByTransaction returns the audit trail for a transaction, newest first.
func (r *providerLogRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.ProviderLog, error) {
	var logs []model.ProviderLog
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at desc").
		Find(&logs).Error
	return logs, err
}
