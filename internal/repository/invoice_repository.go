package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/domain"
	"gorm.io/gorm"
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	Status     *domain.InvoiceStatus
	Type       *domain.InvoiceType
	SupplierID *uuid.UUID
	PayerID    *uuid.UUID
	ProjectID  *uuid.UUID
	Search     string
}

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func (r *InvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Payer").
		Preload("Project").
		Preload("MaterialPerson").
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepository) GetByIDWithPayments(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Payer").
		Preload("Project").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepository) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := r.db.WithContext(ctx).Where("number = ?", number).First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *InvoiceRepository) Update(ctx context.Context, invoice *domain.Invoice) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}

func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InvoiceStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *InvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Invoice{}, "id = ?", id).Error
}

func (r *InvoiceRepository) List(ctx context.Context, page, pageSize int, filter *InvoiceFilter) ([]domain.Invoice, int64, error) {
	var invoices []domain.Invoice
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Preload("Supplier").
		Preload("Payer").
		Preload("Project")

	query = applyInvoiceFilter(query, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("invoice_date DESC, created_at DESC").Find(&invoices).Error

	return invoices, total, err
}

// ListForExport returns all invoices matching the filter without pagination,
// with the relations the spreadsheet columns need.
func (r *InvoiceRepository) ListForExport(ctx context.Context, filter *InvoiceFilter) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	query := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Preload("Supplier").
		Preload("Payer").
		Preload("Project").
		Preload("MaterialPerson").
		Preload("Payments")

	query = applyInvoiceFilter(query, filter)

	err := query.Order("invoice_date DESC, created_at DESC").Find(&invoices).Error
	return invoices, err
}

func applyInvoiceFilter(query *gorm.DB, filter *InvoiceFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if filter.PayerID != nil {
		query = query.Where("payer_id = ?", *filter.PayerID)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(number) LIKE ? OR LOWER(description) LIKE ?", searchPattern, searchPattern)
	}
	return query
}

// CountPayments counts payments attached to the invoice
func (r *InvoiceRepository) CountPayments(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("invoice_id = ?", id).
		Count(&count).Error
	return count, err
}
