package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/domain"
	"gorm.io/gorm"
)

type WorkflowRepository struct {
	db *gorm.DB
}

func NewWorkflowRepository(db *gorm.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

func (r *WorkflowRepository) Create(ctx context.Context, workflow *domain.Workflow) error {
	return r.db.WithContext(ctx).Create(workflow).Error
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error) {
	var workflow domain.Workflow
	err := r.db.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&workflow).Error
	if err != nil {
		return nil, err
	}
	return &workflow, nil
}

func (r *WorkflowRepository) Update(ctx context.Context, workflow *domain.Workflow) error {
	return r.db.WithContext(ctx).Save(workflow).Error
}

func (r *WorkflowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Select("Stages").Delete(&domain.Workflow{BaseModel: domain.BaseModel{ID: id}}).Error
}

func (r *WorkflowRepository) List(ctx context.Context, activeOnly bool) ([]domain.Workflow, error) {
	var workflows []domain.Workflow
	query := r.db.WithContext(ctx).
		Preload("Stages", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("name ASC").Find(&workflows).Error
	return workflows, err
}

// GetStage returns a single stage of a workflow by its id
func (r *WorkflowRepository) GetStage(ctx context.Context, workflowID, stageID uuid.UUID) (*domain.WorkflowStage, error) {
	var stage domain.WorkflowStage
	err := r.db.WithContext(ctx).
		Where("id = ? AND workflow_id = ?", stageID, workflowID).
		First(&stage).Error
	if err != nil {
		return nil, err
	}
	return &stage, nil
}

// GetStageAtPosition returns the stage at a 1-based position
func (r *WorkflowRepository) GetStageAtPosition(ctx context.Context, workflowID uuid.UUID, position int) (*domain.WorkflowStage, error) {
	var stage domain.WorkflowStage
	err := r.db.WithContext(ctx).
		Where("workflow_id = ? AND position = ?", workflowID, position).
		First(&stage).Error
	if err != nil {
		return nil, err
	}
	return &stage, nil
}

// CountStages returns the number of stages in a workflow
func (r *WorkflowRepository) CountStages(ctx context.Context, workflowID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.WorkflowStage{}).
		Where("workflow_id = ?", workflowID).
		Count(&count).Error
	return count, err
}
