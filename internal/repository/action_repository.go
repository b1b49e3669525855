package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/domain"
	"gorm.io/gorm"
)

// ActionRepository stores the immutable approval history. Records are only
// ever inserted and read.
type ActionRepository struct {
	db *gorm.DB
}

func NewActionRepository(db *gorm.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

func (r *ActionRepository) Create(ctx context.Context, action *domain.ApprovalAction) error {
	return r.db.WithContext(ctx).Create(action).Error
}

func (r *ActionRepository) ListForEntity(ctx context.Context, entityType domain.WorkflowEntityType, entityID uuid.UUID) ([]domain.ApprovalAction, error) {
	var actions []domain.ApprovalAction
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at ASC").
		Find(&actions).Error
	return actions, err
}

func (r *ActionRepository) ListForInstance(ctx context.Context, instanceID uuid.UUID) ([]domain.ApprovalAction, error) {
	var actions []domain.ApprovalAction
	err := r.db.WithContext(ctx).
		Where("instance_id = ?", instanceID).
		Order("created_at ASC").
		Find(&actions).Error
	return actions, err
}
