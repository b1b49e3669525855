package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/domain"
	"gorm.io/gorm"
)

type InstanceRepository struct {
	db *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

func (r *InstanceRepository) Create(ctx context.Context, instance *domain.WorkflowInstance) error {
	return r.db.WithContext(ctx).Create(instance).Error
}

func (r *InstanceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowInstance, error) {
	var instance domain.WorkflowInstance
	err := r.db.WithContext(ctx).
		Preload("Workflow").
		Preload("Workflow.Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&instance).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// GetActiveForEntity returns the non-terminal instance bound to an entity,
// gorm.ErrRecordNotFound when none is running.
func (r *InstanceRepository) GetActiveForEntity(ctx context.Context, entityType domain.WorkflowEntityType, entityID uuid.UUID) (*domain.WorkflowInstance, error) {
	var instance domain.WorkflowInstance
	err := r.db.WithContext(ctx).
		Preload("Workflow").
		Preload("Workflow.Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Where("status IN ?", []domain.InstanceStatus{domain.InstanceStatusNotStarted, domain.InstanceStatusInApproval}).
		First(&instance).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *InstanceRepository) ListForEntity(ctx context.Context, entityType domain.WorkflowEntityType, entityID uuid.UUID) ([]domain.WorkflowInstance, error) {
	var instances []domain.WorkflowInstance
	err := r.db.WithContext(ctx).
		Preload("Workflow").
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&instances).Error
	return instances, err
}

func (r *InstanceRepository) Update(ctx context.Context, instance *domain.WorkflowInstance) error {
	return r.db.WithContext(ctx).Save(instance).Error
}

// CountActiveByWorkflow counts non-terminal instances of a workflow
// definition; used to guard definition deletes.
func (r *InstanceRepository) CountActiveByWorkflow(ctx context.Context, workflowID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.WorkflowInstance{}).
		Where("workflow_id = ?", workflowID).
		Where("status IN ?", []domain.InstanceStatus{domain.InstanceStatusNotStarted, domain.InstanceStatusInApproval}).
		Count(&count).Error
	return count, err
}
