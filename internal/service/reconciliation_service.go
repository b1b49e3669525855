package service

import (
	"context"
	"time"

	"github.com/payhub-app/payhub-api/internal/accounting"
	"github.com/payhub-app/payhub-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Максимальное количество платежей, обрабатываемых за один проход сверки.
const reconciliationBatchSize = 200

// ReconciliationService сверяет подтвержденные платежи с зеркалом
// бухгалтерской системы и сохраняет внешние идентификаторы транзакций.
type ReconciliationService struct {
	db          *gorm.DB
	paymentRepo *repository.PaymentRepository
	client      *accounting.Client
	logger      *zap.Logger
}

func NewReconciliationService(
	db *gorm.DB,
	paymentRepo *repository.PaymentRepository,
	client *accounting.Client,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		db:          db,
		paymentRepo: paymentRepo,
		client:      client,
		logger:      logger,
	}
}

// SyncPendingPayments ищет подтвержденные платежи, не сверенные с
// бухгалтерской системой дольше maxAge, и запрашивает по ним транзакции.
// Возвращает количество сверенных и необработанных платежей.
func (s *ReconciliationService) SyncPendingPayments(ctx context.Context, maxAge time.Duration) (synced int, failed int, err error) {
	if s.client == nil || !s.client.IsEnabled() {
		s.logger.Debug("Сверка с бухгалтерией отключена")
		return 0, 0, nil
	}

	olderThan := time.Now().Add(-maxAge)
	payments, err := s.paymentRepo.ListPendingSync(ctx, olderThan, reconciliationBatchSize)
	if err != nil {
		return 0, 0, err
	}

	if len(payments) == 0 {
		return 0, 0, nil
	}

	s.logger.Info("Запуск сверки платежей с бухгалтерией",
		zap.Int("count", len(payments)))

	for i := range payments {
		p := &payments[i]

		txn, lookupErr := s.client.FindTransaction(ctx, p.InternalNumber)
		if lookupErr != nil {
			s.logger.Warn("Сверка платежа не удалась",
				zap.String("payment_id", p.ID.String()),
				zap.String("internal_number", p.InternalNumber),
				zap.Error(lookupErr))
			failed++
			continue
		}

		if txn == nil {
			// Бухгалтерия еще не отразила платеж, попробуем в следующий раз
			continue
		}

		if markErr := s.paymentRepo.MarkSynced(ctx, p.ID, txn.ExternalID); markErr != nil {
			s.logger.Error("Не удалось сохранить результат сверки",
				zap.String("payment_id", p.ID.String()),
				zap.Error(markErr))
			failed++
			continue
		}

		s.logger.Info("Платеж сверен с бухгалтерией",
			zap.String("payment_id", p.ID.String()),
			zap.String("internal_number", p.InternalNumber),
			zap.String("external_id", txn.ExternalID))
		synced++
	}

	return synced, failed, nil
}
