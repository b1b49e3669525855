package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/domain"
	"gorm.io/gorm"
)

type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

func (r *StatusRepository) Create(ctx context.Context, status *domain.Status) error {
	return r.db.WithContext(ctx).Create(status).Error
}

func (r *StatusRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Status, error) {
	var status domain.Status
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&status).Error
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *StatusRepository) GetByCode(ctx context.Context, entityType domain.StatusEntityType, code string) (*domain.Status, error) {
	var status domain.Status
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND code = ?", entityType, code).
		First(&status).Error
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *StatusRepository) Update(ctx context.Context, status *domain.Status) error {
	return r.db.WithContext(ctx).Save(status).Error
}

func (r *StatusRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Status{}, "id = ?", id).Error
}

// ListByEntityType returns status definitions for one entity family ordered
// for display
func (r *StatusRepository) ListByEntityType(ctx context.Context, entityType domain.StatusEntityType, activeOnly bool) ([]domain.Status, error) {
	var statuses []domain.Status
	query := r.db.WithContext(ctx).Where("entity_type = ?", entityType)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("order_index ASC, code ASC").Find(&statuses).Error
	return statuses, err
}

func (r *StatusRepository) ListAll(ctx context.Context) ([]domain.Status, error) {
	var statuses []domain.Status
	err := r.db.WithContext(ctx).
		Order("entity_type ASC, order_index ASC").
		Find(&statuses).Error
	return statuses, err
}
