package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/domain"
	"gorm.io/gorm"
)

type MaterialPersonRepository struct {
	db *gorm.DB
}

func NewMaterialPersonRepository(db *gorm.DB) *MaterialPersonRepository {
	return &MaterialPersonRepository{db: db}
}

func (r *MaterialPersonRepository) Create(ctx context.Context, person *domain.MaterialPerson) error {
	return r.db.WithContext(ctx).Create(person).Error
}

func (r *MaterialPersonRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.MaterialPerson, error) {
	var person domain.MaterialPerson
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&person).Error
	if err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *MaterialPersonRepository) Update(ctx context.Context, person *domain.MaterialPerson) error {
	return r.db.WithContext(ctx).Save(person).Error
}

func (r *MaterialPersonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.MaterialPerson{}, "id = ?", id).Error
}

func (r *MaterialPersonRepository) List(ctx context.Context, page, pageSize int, activeOnly bool) ([]domain.MaterialPerson, int64, error) {
	var persons []domain.MaterialPerson
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.MaterialPerson{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("full_name ASC").Find(&persons).Error

	return persons, total, err
}

func (r *MaterialPersonRepository) Search(ctx context.Context, searchQuery string, limit int) ([]domain.MaterialPerson, error) {
	var persons []domain.MaterialPerson
	searchPattern := "%" + strings.ToLower(searchQuery) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(full_name) LIKE ?", searchPattern).
		Limit(limit).Order("full_name ASC").Find(&persons).Error
	return persons, err
}
