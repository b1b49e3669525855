package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WorkflowService manages approval route definitions and their stages.
// Stage positions are 1-based and contiguous; every write that touches
// more than one stage runs in a single transaction.
type WorkflowService struct {
	workflowRepo *repository.WorkflowRepository
	instanceRepo *repository.InstanceRepository
	db           *gorm.DB
	logger       *zap.Logger
}

func NewWorkflowService(
	workflowRepo *repository.WorkflowRepository,
	instanceRepo *repository.InstanceRepository,
	db *gorm.DB,
	logger *zap.Logger,
) *WorkflowService {
	return &WorkflowService{
		workflowRepo: workflowRepo,
		instanceRepo: instanceRepo,
		db:           db,
		logger:       logger,
	}
}

// Create creates a workflow with its stages in one transaction. Stage
// positions follow the request order starting at 1.
func (s *WorkflowService) Create(ctx context.Context, req *domain.CreateWorkflowRequest) (*domain.WorkflowDTO, error) {
	if len(req.Stages) == 0 {
		return nil, ErrWorkflowNoStages
	}
	if err := validateStageOrder(req.Stages); err != nil {
		return nil, err
	}

	workflow := &domain.Workflow{
		Name:         req.Name,
		Description:  req.Description,
		IsActive:     true,
		InvoiceTypes: pq.StringArray(req.InvoiceTypes),
	}
	for i, stageReq := range req.Stages {
		workflow.Stages = append(workflow.Stages, domain.WorkflowStage{
			Position:  i + 1,
			Name:      stageReq.Name,
			StageType: domain.StageType(stageReq.StageType),
			Roles:     pq.StringArray(stageReq.Roles),
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(workflow).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	s.logger.Info("workflow created",
		zap.String("workflow_id", workflow.ID.String()),
		zap.String("name", workflow.Name),
		zap.Int("stages", len(workflow.Stages)),
	)

	dto := domain.ToWorkflowDTO(workflow)
	return &dto, nil
}

// validateStageOrder rejects stage lists where a final stage is followed by
// further stages. At most one final stage is allowed and it must be last.
func validateStageOrder(stages []domain.StageRequest) error {
	for i, stage := range stages {
		if domain.StageType(stage.StageType) == domain.StageTypeFinal && i != len(stages)-1 {
			return fmt.Errorf("%w: завершающий этап должен быть последним", ErrInvalidInput)
		}
	}
	return nil
}

func (s *WorkflowService) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowDTO, error) {
	workflow, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	dto := domain.ToWorkflowDTO(workflow)
	return &dto, nil
}

func (s *WorkflowService) List(ctx context.Context, activeOnly bool) ([]domain.WorkflowDTO, error) {
	workflows, err := s.workflowRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	dtos := make([]domain.WorkflowDTO, len(workflows))
	for i := range workflows {
		dtos[i] = domain.ToWorkflowDTO(&workflows[i])
	}
	return dtos, nil
}

// Update patches workflow-level fields; stages are managed separately
func (s *WorkflowService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateWorkflowRequest) (*domain.WorkflowDTO, error) {
	workflow, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	if req.Name != nil {
		workflow.Name = *req.Name
	}
	if req.Description != nil {
		workflow.Description = *req.Description
	}
	if req.InvoiceTypes != nil {
		workflow.InvoiceTypes = pq.StringArray(req.InvoiceTypes)
	}
	if req.IsActive != nil {
		workflow.IsActive = *req.IsActive
	}

	if err := s.workflowRepo.Update(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	dto := domain.ToWorkflowDTO(workflow)
	return &dto, nil
}

// Delete removes a workflow definition. Definitions with running instances
// cannot be removed; deactivate them instead.
func (s *WorkflowService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.workflowRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get workflow: %w", err)
	}

	activeCount, err := s.instanceRepo.CountActiveByWorkflow(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count active instances: %w", err)
	}
	if activeCount > 0 {
		return ErrWorkflowInUse
	}

	if err := s.workflowRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	s.logger.Info("workflow deleted", zap.String("workflow_id", id.String()))
	return nil
}

// ReplaceStages rewrites the full stage list of a workflow in one
// transaction, repositioning from 1.
func (s *WorkflowService) ReplaceStages(ctx context.Context, id uuid.UUID, stages []domain.StageRequest) (*domain.WorkflowDTO, error) {
	if len(stages) == 0 {
		return nil, ErrWorkflowNoStages
	}
	if err := validateStageOrder(stages); err != nil {
		return nil, err
	}

	workflow, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workflow_id = ?", id).Delete(&domain.WorkflowStage{}).Error; err != nil {
			return err
		}
		for i, stageReq := range stages {
			stage := domain.WorkflowStage{
				WorkflowID: id,
				Position:   i + 1,
				Name:       stageReq.Name,
				StageType:  domain.StageType(stageReq.StageType),
				Roles:      pq.StringArray(stageReq.Roles),
			}
			if err := tx.Create(&stage).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace stages: %w", err)
	}

	s.logger.Info("workflow stages replaced",
		zap.String("workflow_id", id.String()),
		zap.Int("stages", len(stages)),
	)

	workflow, err = s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload workflow: %w", err)
	}
	dto := domain.ToWorkflowDTO(workflow)
	return &dto, nil
}

// ReorderStages rewrites positions of all stages from the given id order.
// The id set must match the workflow's stages exactly.
func (s *WorkflowService) ReorderStages(ctx context.Context, id uuid.UUID, req *domain.ReorderStagesRequest) (*domain.WorkflowDTO, error) {
	workflow, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	if len(req.StageIDs) != len(workflow.Stages) {
		return nil, fmt.Errorf("%w: список этапов не совпадает с маршрутом", ErrInvalidInput)
	}
	existing := make(map[uuid.UUID]*domain.WorkflowStage, len(workflow.Stages))
	for i := range workflow.Stages {
		existing[workflow.Stages[i].ID] = &workflow.Stages[i]
	}
	for _, stageID := range req.StageIDs {
		if _, ok := existing[stageID]; !ok {
			return nil, fmt.Errorf("%w: этап %s не принадлежит маршруту", ErrInvalidInput, stageID)
		}
	}
	// A final stage must stay last after the reorder
	for _, stageID := range req.StageIDs[:len(req.StageIDs)-1] {
		if existing[stageID].StageType == domain.StageTypeFinal {
			return nil, fmt.Errorf("%w: завершающий этап должен быть последним", ErrInvalidInput)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Two passes keep the unique (workflow_id, position) index happy:
		// park positions out of range first, then assign final values.
		for i, stageID := range req.StageIDs {
			if err := tx.Model(&domain.WorkflowStage{}).
				Where("id = ?", stageID).
				Update("position", -(i + 1)).Error; err != nil {
				return err
			}
		}
		for i, stageID := range req.StageIDs {
			if err := tx.Model(&domain.WorkflowStage{}).
				Where("id = ?", stageID).
				Update("position", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reorder stages: %w", err)
	}

	s.logger.Info("workflow stages reordered",
		zap.String("workflow_id", id.String()),
		zap.Int("stages", len(req.StageIDs)),
	)

	workflow, err = s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload workflow: %w", err)
	}
	dto := domain.ToWorkflowDTO(workflow)
	return &dto, nil
}

// FindForInvoiceType returns active workflows applicable to an invoice
// type. A workflow with an empty type list applies to every type.
func (s *WorkflowService) FindForInvoiceType(ctx context.Context, invoiceType domain.InvoiceType) ([]domain.WorkflowDTO, error) {
	workflows, err := s.workflowRepo.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	var dtos []domain.WorkflowDTO
	for i := range workflows {
		if workflowAppliesTo(&workflows[i], invoiceType) {
			dtos = append(dtos, domain.ToWorkflowDTO(&workflows[i]))
		}
	}
	return dtos, nil
}

func workflowAppliesTo(w *domain.Workflow, invoiceType domain.InvoiceType) bool {
	if len(w.InvoiceTypes) == 0 {
		return true
	}
	for _, t := range w.InvoiceTypes {
		if t == string(invoiceType) {
			return true
		}
	}
	return false
}
