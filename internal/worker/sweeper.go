package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sunupay/internal/service"
)

// Sweeper periodically runs the reconciliation pass over stuck PENDING
// transactions. It is the backstop for undelivered webhooks; the sweep and a
// webhook racing on the same transaction is fine because both converge to the
// provider's own status.
type Sweeper struct {
	syncService service.SyncService
	interval    time.Duration
	logger      *zap.Logger
	stop        chan struct{}
	done        chan struct{}
}

// NewSweeper creates a sweeper with the given pass interval.
func NewSweeper(syncService service.SyncService, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		syncService: syncService,
		interval:    interval,
		logger:      logger,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop asks the loop to exit and waits for the in-flight pass to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			count, err := s.syncService.SyncAllPendingTransactions(ctx)
			if err != nil {
				s.logger.Error("reconciliation pass failed", zap.Error(err))
				continue
			}
			if count > 0 {
				s.logger.Info("reconciliation pass finished", zap.Int("synced", count))
			}
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
