package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/domain"
	"gorm.io/gorm"
)

// PaymentFilter narrows payment listings
type PaymentFilter struct {
	InvoiceID   *uuid.UUID
	Status      *domain.PaymentStatus
	Type        *domain.PaymentType
	CreatedByID *uuid.UUID
}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.WithContext(ctx).
		Preload("Invoice").
		Preload("Payer").
		Where("id = ?", id).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *PaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Payment{}, "id = ?", id).Error
}

func (r *PaymentRepository) List(ctx context.Context, page, pageSize int, filter *PaymentFilter) ([]domain.Payment, int64, error) {
	var payments []domain.Payment
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Preload("Invoice")

	if filter != nil {
		if filter.InvoiceID != nil {
			query = query.Where("invoice_id = ?", *filter.InvoiceID)
		}
		if filter.Status != nil {
			query = query.Where("status = ?", *filter.Status)
		}
		if filter.Type != nil {
			query = query.Where("type = ?", *filter.Type)
		}
		if filter.CreatedByID != nil {
			query = query.Where("created_by_id = ?", *filter.CreatedByID)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&payments).Error

	return payments, total, err
}

func (r *PaymentRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

// SumActiveByInvoice sums totals of payments counted against the invoice
// balance (everything except failed and cancelled).
func (r *PaymentRepository) SumActiveByInvoice(ctx context.Context, invoiceID uuid.UUID) (float64, error) {
	return sumActiveByInvoice(r.db.WithContext(ctx), invoiceID)
}

func sumActiveByInvoice(db *gorm.DB, invoiceID uuid.UUID) (float64, error) {
	var sum float64
	err := db.Model(&domain.Payment{}).
		Where("invoice_id = ? AND status NOT IN ?", invoiceID,
			[]domain.PaymentStatus{domain.PaymentStatusFailed, domain.PaymentStatusCancelled}).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&sum).Error
	return sum, err
}

// ListPendingSync returns completed payments whose accounting status has
// not been checked within the given interval.
func (r *PaymentRepository) ListPendingSync(ctx context.Context, olderThan time.Time, limit int) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.PaymentStatusCompleted).
		Where("last_sync_at IS NULL OR last_sync_at < ?", olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}

// MarkSynced records the accounting transaction id and sync time
func (r *PaymentRepository) MarkSynced(ctx context.Context, id uuid.UUID, externalID string) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"last_sync_at": now,
	}
	if externalID != "" {
		updates["external_id"] = externalID
	}
	return r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("id = ?", id).
		Updates(updates).Error
}
