package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sunupay/internal/model"
)

// ListFilter narrows a paginated transaction listing.
type ListFilter struct {
	ApplicationID uuid.UUID
	Status        string
	Search        string
	Page          int
	PageSize      int
}

// PaymentRecordRepository defines payment record persistence operations.
type PaymentRecordRepository interface {
	Create(ctx context.Context, record *model.PaymentRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentRecord, error)
	FindByProviderRef(ctx context.Context, ref string) (*model.PaymentRecord, error)
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.PaymentRecord, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, name, email, phone string) error
	SetProviderRef(ctx context.Context, id uuid.UUID, ref *string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus, completedAt *time.Time, paymentType string) error
	List(ctx context.Context, filter ListFilter) ([]model.PaymentRecord, int64, error)
	CountByProvider(ctx context.Context, appID uuid.UUID, provider string, status model.PaymentStatus) (int64, error)
	LastByProvider(ctx context.Context, appID uuid.UUID, provider string) (*model.PaymentRecord, error)
	SumAmount(ctx context.Context, appID uuid.UUID, status model.PaymentStatus, since *time.Time) (decimal.Decimal, error)
}

type paymentRecordRepository struct {
	db *gorm.DB
}

// NewPaymentRecordRepository creates a new payment record repository.
func NewPaymentRecordRepository(db *gorm.DB) PaymentRecordRepository {
	return &paymentRecordRepository{db: db}
}

// Create creates a new payment record.
func (r *paymentRecordRepository) Create(ctx context.Context, record *model.PaymentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByID finds a payment record by ID.
func (r *paymentRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentRecord, error) {
	var record model.PaymentRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByProviderRef finds a payment record by the provider's reference.
func (r *paymentRecordRepository) FindByProviderRef(ctx context.Context, ref string) (*model.PaymentRecord, error) {
	var record model.PaymentRecord
	if err := r.db.WithContext(ctx).Where("provider_ref = ?", ref).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// FindPendingBefore returns at most limit PENDING records created before the
// cutoff, oldest first. This feeds the reconciliation sweep.
func (r *paymentRecordRepository) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.PaymentRecord, error) {
	var records []model.PaymentRecord
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.PaymentStatusPending, cutoff).
		Order("created_at asc").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// UpdateCustomer persists the customer identity fields independent of the
// payment outcome.
func (r *paymentRecordRepository) UpdateCustomer(ctx context.Context, id uuid.UUID, name, email, phone string) error {
	return r.db.WithContext(ctx).Model(&model.PaymentRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"customer_name":  name,
			"customer_email": email,
			"customer_phone": phone,
		}).Error
}

// SetProviderRef stores or clears the provider reference.
func (r *paymentRecordRepository) SetProviderRef(ctx context.Context, id uuid.UUID, ref *string) error {
	return r.db.WithContext(ctx).Model(&model.PaymentRecord{}).
		Where("id = ?", id).
		Update("provider_ref", ref).Error
}

// UpdateStatus writes the canonical status plus completedAt; paymentType is
// only touched when non-empty.
func (r *paymentRecordRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus, completedAt *time.Time, paymentType string) error {
	updates := map[string]any{
		"status":       status,
		"completed_at": completedAt,
	}
	if paymentType != "" {
		updates["payment_type"] = paymentType
	}
	return r.db.WithContext(ctx).Model(&model.PaymentRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// List returns a page of records plus the total count for the filter.
func (r *paymentRecordRepository) List(ctx context.Context, filter ListFilter) ([]model.PaymentRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.PaymentRecord{}).
		Where("application_id = ?", filter.ApplicationID)

	if filter.Status != "" && filter.Status != "ALL" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(
			"id LIKE ? OR customer_name LIKE ? OR customer_email LIKE ? OR order_id LIKE ?",
			like, like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 10
	}

	var records []model.PaymentRecord
	err := query.Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	return records, total, err
}

// CountByProvider counts records for a tenant's provider, optionally by status.
func (r *paymentRecordRepository) CountByProvider(ctx context.Context, appID uuid.UUID, provider string, status model.PaymentStatus) (int64, error) {
	query := r.db.WithContext(ctx).Model(&model.PaymentRecord{}).
		Where("application_id = ? AND LOWER(provider) = LOWER(?)", appID, provider)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

// LastByProvider returns the most recent record for a tenant's provider.
func (r *paymentRecordRepository) LastByProvider(ctx context.Context, appID uuid.UUID, provider string) (*model.PaymentRecord, error) {
	var record model.PaymentRecord
	err := r.db.WithContext(ctx).
		Where("application_id = ? AND LOWER(provider) = LOWER(?)", appID, provider).
		Order("created_at desc").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// SumAmount totals amounts for a tenant by status, optionally since a time.
func (r *paymentRecordRepository) SumAmount(ctx context.Context, appID uuid.UUID, status model.PaymentStatus, since *time.Time) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).Model(&model.PaymentRecord{}).
		Where("application_id = ? AND status = ?", appID, status)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}
	var sum decimal.NullDecimal
	if err := query.Select("SUM(amount)").Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
