package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sunupay/internal/errors"
	"sunupay/internal/model"
	"sunupay/internal/provider"
	"sunupay/internal/repository"
)

const (
	// stalledInitiationAge is how long a transaction may sit without a
	// provider reference before it is presumed dead.
	stalledInitiationAge = 30 * time.Minute
	// sweepMinAge keeps freshly-created transactions out of the sweep; the
	// webhook path normally settles them first.
	sweepMinAge = 5 * time.Minute
	// sweepBatchSize bounds one reconciliation pass.
	sweepBatchSize = 10
	// sweepLeaseKey coordinates sweeps across instances, best-effort.
	sweepLeaseKey = "sunupay:sync:sweep"
	sweepLeaseTTL = 30 * time.Second

	// Backoff for transactions whose sync keeps erroring, so a broken
	// provider integration is not reprocessed on every pass.
	syncBackoffBase = time.Minute
	syncBackoffMax  = 30 * time.Minute
)

// Leaser is the claim mechanism used to keep concurrent sweeps from piling
// onto the same batch. Acquisition is best-effort: syncs converge anyway
// because every path derives status from the provider itself.
type Leaser interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) bool
}

// SyncService re-verifies transactions against their provider of record.
type SyncService interface {
	SyncTransactionStatus(ctx context.Context, id uuid.UUID) (model.PaymentStatus, error)
	SyncAllPendingTransactions(ctx context.Context) (int, error)
}

type syncService struct {
	recordRepo  repository.PaymentRecordRepository
	gatewayRepo repository.GatewayRepository
	logRepo     repository.ProviderLogRepository
	factory     provider.Factory
	leaser      Leaser
	cache       GatewayCache
	logger      *zap.Logger

	mu       sync.Mutex
	backoffs map[uuid.UUID]*syncBackoff
}

type syncBackoff struct {
	failures    int
	nextAttempt time.Time
}

// NewSyncService creates a new sync service.
func NewSyncService(
	recordRepo repository.PaymentRecordRepository,
	gatewayRepo repository.GatewayRepository,
	logRepo repository.ProviderLogRepository,
	factory provider.Factory,
	leaser Leaser,
	gatewayCache GatewayCache,
	logger *zap.Logger,
) SyncService {
	return &syncService{
		recordRepo:  recordRepo,
		gatewayRepo: gatewayRepo,
		logRepo:     logRepo,
		factory:     factory,
		leaser:      leaser,
		cache:       gatewayCache,
		logger:      logger,
		backoffs:    make(map[uuid.UUID]*syncBackoff),
	}
}

// SyncTransactionStatus re-verifies one transaction. The provider is resolved
// from the transaction's own provider field, never caller-supplied.
func (s *syncService) SyncTransactionStatus(ctx context.Context, id uuid.UUID) (model.PaymentStatus, error) {
	record, err := s.recordRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", errors.ErrTransactionNotFound
		}
		return "", err
	}

	// SUCCESS is terminal and immutable.
	if record.Status == model.PaymentStatusSuccess {
		return model.PaymentStatusSuccess, nil
	}

	if record.ProviderRef == nil {
		// A stalled initiation that never reached the provider is presumed
		// dead once it is old enough; younger ones are still in the normal
		// latency window.
		if time.Since(record.CreatedAt) > stalledInitiationAge {
			if err := s.recordRepo.UpdateStatus(ctx, record.ID, model.PaymentStatusFailed, nil, ""); err != nil {
				return "", err
			}
			s.logger.Info("stalled initiation marked failed",
				zap.String("transaction_id", record.ID.String()))
			return model.PaymentStatusFailed, nil
		}
		return record.Status, nil
	}

	gateway, err := findGatewayCached(ctx, s.cache, s.gatewayRepo, record.ApplicationID, record.Provider)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", errors.ErrGatewayNotFound
		}
		return "", err
	}

	adapter, err := s.factory.Provider(gateway.Name, provider.ConfigFromGateway(gateway))
	if err != nil {
		return "", err
	}

	verification := adapter.VerifyPayment(ctx, *record.ProviderRef)

	var completedAt *time.Time
	if verification.Status == model.PaymentStatusSuccess {
		now := time.Now()
		completedAt = &now
	}
	if err := s.recordRepo.UpdateStatus(ctx, record.ID, verification.Status, completedAt, ""); err != nil {
		return "", err
	}

	s.appendSyncLog(ctx, record.ID, verification)

	s.logger.Info("transaction synced",
		zap.String("transaction_id", record.ID.String()),
		zap.String("provider", record.Provider),
		zap.String("status", string(verification.Status)))

	return verification.Status, nil
}

// SyncAllPendingTransactions is the reconciliation backstop for missed
// webhooks: it walks PENDING transactions past the minimum age, sequentially,
// one bounded batch per pass.
func (s *syncService) SyncAllPendingTransactions(ctx context.Context) (int, error) {
	if s.leaser != nil && !s.leaser.SetNX(ctx, sweepLeaseKey, []byte("1"), sweepLeaseTTL) {
		s.logger.Debug("sweep lease held elsewhere, skipping pass")
		return 0, nil
	}

	cutoff := time.Now().Add(-sweepMinAge)
	records, err := s.recordRepo.FindPendingBefore(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, record := range records {
		if s.inBackoff(record.ID) {
			continue
		}
		if _, err := s.SyncTransactionStatus(ctx, record.ID); err != nil {
			s.recordFailure(record.ID)
			s.logger.Warn("sync failed",
				zap.String("transaction_id", record.ID.String()), zap.Error(err))
			continue
		}
		s.clearBackoff(record.ID)
		count++
	}

	return count, nil
}

func (s *syncService) appendSyncLog(ctx context.Context, transactionID uuid.UUID, verification *provider.PaymentResponse) {
	payload := verification.Raw
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}
	entry := &model.ProviderLog{
		TransactionID: transactionID,
		Type:          model.LogTypeSyncCheck,
		Payload:       payload,
	}
	if err := s.logRepo.Create(ctx, entry); err != nil {
		s.logger.Warn("audit log write failed",
			zap.String("transaction_id", transactionID.String()), zap.Error(err))
	}
}

func (s *syncService) inBackoff(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.backoffs[id]
	return ok && time.Now().Before(b.nextAttempt)
}

func (s *syncService) recordFailure(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.backoffs[id]
	if !ok {
		b = &syncBackoff{}
		s.backoffs[id] = b
	}
	b.failures++
	delay := syncBackoffBase << uint(b.failures-1)
	if delay > syncBackoffMax {
		delay = syncBackoffMax
	}
	b.nextAttempt = time.Now().Add(delay)
}

func (s *syncService) clearBackoff(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.backoffs, id)
}
