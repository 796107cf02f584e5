package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sunupay/internal/errors"
	"sunupay/internal/model"
	"sunupay/internal/repository"
)

// TransactionStats summarizes a tenant's recent payment volume.
type TransactionStats struct {
	SuccessToday string `json:"success_today"`
	Pending      string `json:"pending"`
	Failed24h    string `json:"failed_24h"`
}

// TransactionService exposes read access to transactions and their audit
// trail for the dashboard.
type TransactionService interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.PaymentRecord, error)
	ListTransactions(ctx context.Context, filter repository.ListFilter) ([]model.PaymentRecord, int64, error)
	GetStats(ctx context.Context, appID uuid.UUID) (*TransactionStats, error)
	GetLogs(ctx context.Context, transactionID uuid.UUID) ([]model.ProviderLog, error)
}

type transactionService struct {
	recordRepo repository.PaymentRecordRepository
	logRepo    repository.ProviderLogRepository
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(
	recordRepo repository.PaymentRecordRepository,
	logRepo repository.ProviderLogRepository,
) TransactionService {
	return &transactionService{recordRepo: recordRepo, logRepo: logRepo}
}

// GetTransaction returns one payment record.
func (s *transactionService) GetTransaction(ctx context.Context, id uuid.UUID) (*model.PaymentRecord, error) {
	record, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, err
	}
	return record, nil
}

// ListTransactions returns a filtered page plus the total count.
func (s *transactionService) ListTransactions(ctx context.Context, filter repository.ListFilter) ([]model.PaymentRecord, int64, error) {
	return s.recordRepo.List(ctx, filter)
}

// GetStats sums success volume today, outstanding pending volume and failed
// volume over the last 24 hours.
func (s *transactionService) GetStats(ctx context.Context, appID uuid.UUID) (*TransactionStats, error) {
	now := time.Now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayAgo := now.Add(-24 * time.Hour)

	successToday, err := s.recordRepo.SumAmount(ctx, appID, model.PaymentStatusSuccess, &startOfToday)
	if err != nil {
		return nil, err
	}
	pending, err := s.recordRepo.SumAmount(ctx, appID, model.PaymentStatusPending, nil)
	if err != nil {
		return nil, err
	}
	failed, err := s.recordRepo.SumAmount(ctx, appID, model.PaymentStatusFailed, &dayAgo)
	if err != nil {
		return nil, err
	}

	return &TransactionStats{
		SuccessToday: successToday.StringFixed(0) + " FCFA",
		Pending:      pending.StringFixed(0) + " FCFA",
		Failed24h:    failed.StringFixed(0) + " FCFA",
	}, nil
}

// GetLogs returns the audit trail, newest first.
func (s *transactionService) GetLogs(ctx context.Context, transactionID uuid.UUID) ([]model.ProviderLog, error) {
	return s.logRepo.ListByTransaction(ctx, transactionID)
}
