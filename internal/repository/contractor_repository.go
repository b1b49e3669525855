package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/domain"
	"gorm.io/gorm"
)

type ContractorRepository struct {
	db *gorm.DB
}

func NewContractorRepository(db *gorm.DB) *ContractorRepository {
	return &ContractorRepository{db: db}
}

func (r *ContractorRepository) Create(ctx context.Context, contractor *domain.Contractor) error {
	return r.db.WithContext(ctx).Create(contractor).Error
}

func (r *ContractorRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contractor, error) {
	var contractor domain.Contractor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&contractor).Error
	if err != nil {
		return nil, err
	}
	return &contractor, nil
}

func (r *ContractorRepository) GetByTaxID(ctx context.Context, taxID string) (*domain.Contractor, error) {
	var contractor domain.Contractor
	err := r.db.WithContext(ctx).Where("tax_id = ?", taxID).First(&contractor).Error
	if err != nil {
		return nil, err
	}
	return &contractor, nil
}

func (r *ContractorRepository) Update(ctx context.Context, contractor *domain.Contractor) error {
	return r.db.WithContext(ctx).Save(contractor).Error
}

func (r *ContractorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Contractor{}, "id = ?", id).Error
}

func (r *ContractorRepository) List(ctx context.Context, page, pageSize int, activeOnly bool) ([]domain.Contractor, int64, error) {
	var contractors []domain.Contractor
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Contractor{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("name ASC").Find(&contractors).Error

	return contractors, total, err
}

func (r *ContractorRepository) Search(ctx context.Context, searchQuery string, limit int) ([]domain.Contractor, error) {
	var contractors []domain.Contractor
	searchPattern := "%" + strings.ToLower(searchQuery) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR tax_id LIKE ?", searchPattern, searchPattern).
		Limit(limit).Order("name ASC").Find(&contractors).Error
	return contractors, err
}

// CountInvoiceRefs counts invoices referencing the contractor as supplier or payer
func (r *ContractorRepository) CountInvoiceRefs(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Invoice{}).
		Where("supplier_id = ? OR payer_id = ?", id, id).
		Count(&count).Error
	return count, err
}
