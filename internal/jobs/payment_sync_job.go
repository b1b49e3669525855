package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// PaymentSyncJobName is the name of the payment reconciliation job
const PaymentSyncJobName = "payment_sync"

// DefaultSyncMaxAge is the minimum age before a confirmed payment is
// re-checked against the accounting mirror. Slightly less than the default
// two-hour schedule to absorb cron timing variations.
const DefaultSyncMaxAge = 110 * time.Minute

// PaymentSyncService defines the interface for reconciling confirmed
// payments with the accounting system. This interface allows the job to
// call the service without importing the service package directly.
type PaymentSyncService interface {
	// SyncPendingPayments reconciles confirmed payments that were never
	// synced or were last synced longer than maxAge ago.
	// Returns counts for successfully synced and failed payments.
	SyncPendingPayments(ctx context.Context, maxAge time.Duration) (synced int, failed int, err error)
}

// PaymentSyncJob reconciles confirmed payments with the accounting mirror.
type PaymentSyncJob struct {
	syncService PaymentSyncService
	logger      *zap.Logger
	timeout     time.Duration
}

// NewPaymentSyncJob creates a new payment reconciliation job.
// The timeout controls how long one reconciliation pass is allowed to run.
func NewPaymentSyncJob(syncService PaymentSyncService, logger *zap.Logger, timeout time.Duration) *PaymentSyncJob {
	return &PaymentSyncJob{
		syncService: syncService,
		logger:      logger,
		timeout:     timeout,
	}
}

// Run executes one reconciliation pass.
// This is called by the scheduler according to the cron expression.
func (j *PaymentSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	j.logger.Info("starting payment reconciliation job")

	synced, failed, err := j.syncService.SyncPendingPayments(ctx, DefaultSyncMaxAge)
	if err != nil {
		j.logger.Error("payment reconciliation failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("payment reconciliation job completed",
		zap.Int("synced", synced),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)))
}

// RegisterPaymentSyncJob registers the payment reconciliation job with the
// scheduler. If runStartupSync is true, one pass runs immediately in a
// background goroutine so it doesn't block API startup.
func RegisterPaymentSyncJob(scheduler *Scheduler, syncService PaymentSyncService, logger *zap.Logger, cronExpr string, timeout time.Duration, runStartupSync bool) error {
	job := NewPaymentSyncJob(syncService, logger, timeout)

	if runStartupSync {
		go job.Run()
	}

	return scheduler.AddJob(PaymentSyncJobName, cronExpr, job.Run)
}
