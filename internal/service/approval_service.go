package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/auth"
	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ApprovalService runs workflow instances: it binds a route definition to
// an invoice or payment and moves it through the ordered stages. Every
// transition and the matching entity status change commit in one
// transaction, with an immutable history record.
type ApprovalService struct {
	instanceRepo *repository.InstanceRepository
	workflowRepo *repository.WorkflowRepository
	actionRepo   *repository.ActionRepository
	db           *gorm.DB
	logger       *zap.Logger
}

func NewApprovalService(
	instanceRepo *repository.InstanceRepository,
	workflowRepo *repository.WorkflowRepository,
	actionRepo *repository.ActionRepository,
	db *gorm.DB,
	logger *zap.Logger,
) *ApprovalService {
	return &ApprovalService{
		instanceRepo: instanceRepo,
		workflowRepo: workflowRepo,
		actionRepo:   actionRepo,
		db:           db,
		logger:       logger,
	}
}

// Start binds a workflow to an entity and opens the first stage. The
// entity moves to its pending status in the same transaction.
func (s *ApprovalService) Start(ctx context.Context, entityType domain.WorkflowEntityType, entityID uuid.UUID, workflowID uuid.UUID) (*domain.InstanceDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	workflow, err := s.workflowRepo.GetByID(ctx, workflowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}
	if !workflow.IsActive {
		return nil, ErrWorkflowInactive
	}
	if len(workflow.Stages) == 0 {
		return nil, ErrWorkflowNoStages
	}

	// One running route per entity
	if _, err := s.instanceRepo.GetActiveForEntity(ctx, entityType, entityID); err == nil {
		return nil, ErrInstanceAlreadyActive
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check active instance: %w", err)
	}

	instance := &domain.WorkflowInstance{
		WorkflowID:           workflowID,
		EntityType:           entityType,
		EntityID:             entityID,
		CurrentStagePosition: 1,
		StagesCompleted:      0,
		Status:               domain.InstanceStatusInApproval,
		StartedByID:          userCtx.UserID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch entityType {
		case domain.WorkflowEntityInvoice:
			var invoice domain.Invoice
			if err := tx.Where("id = ?", entityID).First(&invoice).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			if invoice.Status != domain.InvoiceStatusDraft {
				return fmt.Errorf("%w: счет уже в работе", ErrConflict)
			}
			if err := tx.Model(&invoice).Update("status", domain.InvoiceStatusPending).Error; err != nil {
				return err
			}
		case domain.WorkflowEntityPayment:
			var payment domain.Payment
			if err := tx.Where("id = ?", entityID).First(&payment).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			if payment.Status != domain.PaymentStatusDraft {
				return fmt.Errorf("%w: платеж уже в работе", ErrConflict)
			}
			if err := tx.Model(&payment).Update("status", domain.PaymentStatusPending).Error; err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown entity type %q", ErrInvalidInput, entityType)
		}

		if err := tx.Create(instance).Error; err != nil {
			return err
		}

		pos := 1
		action := &domain.ApprovalAction{
			InstanceID:    &instance.ID,
			EntityType:    entityType,
			EntityID:      entityID,
			StagePosition: &pos,
			Action:        domain.ActionSubmit,
			ActorID:       userCtx.UserID,
			ActorName:     userCtx.DisplayName,
		}
		return tx.Create(action).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to start workflow: %w", err)
	}

	s.logger.Info("согласование запущено",
		zap.String("instance_id", instance.ID.String()),
		zap.String("entity_type", string(entityType)),
		zap.String("entity_id", entityID.String()),
		zap.String("workflow", workflow.Name),
		zap.String("started_by", userCtx.DisplayName),
	)

	instance.Workflow = workflow
	dto := domain.ToInstanceDTO(instance)
	return &dto, nil
}

// Approve completes the current stage and advances the instance. The
// actor must hold one of the stage's roles. Completing the last stage
// finishes the route and marks the bound invoice approved. Final-type
// stages of payment routes are completed by confirming the payment, not
// here.
func (s *ApprovalService) Approve(ctx context.Context, instanceID uuid.UUID, comment string) (*domain.InstanceDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	instance, err := s.instanceRepo.GetByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	if instance.Status.IsTerminal() {
		return nil, ErrInstanceTerminal
	}

	stage := stageAt(instance.Workflow, instance.CurrentStagePosition)
	if stage == nil {
		return nil, fmt.Errorf("stage %d missing in workflow %s", instance.CurrentStagePosition, instance.WorkflowID)
	}
	if !stage.AllowsRole(userCtx.RolesAsStrings()) {
		return nil, ErrStageRoleMismatch
	}
	if stage.StageType == domain.StageTypeFinal && instance.EntityType == domain.WorkflowEntityPayment {
		return nil, ErrConfirmRequired
	}

	totalStages := len(instance.Workflow.Stages)
	isLast := instance.CurrentStagePosition >= totalStages

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pos := instance.CurrentStagePosition
		instance.StagesCompleted = pos
		if isLast {
			now := time.Now().UTC()
			instance.Status = domain.InstanceStatusApproved
			instance.CompletedAt = &now
		} else {
			instance.CurrentStagePosition = pos + 1
		}
		if err := tx.Save(instance).Error; err != nil {
			return err
		}

		if isLast && instance.EntityType == domain.WorkflowEntityInvoice {
			if err := tx.Model(&domain.Invoice{}).
				Where("id = ?", instance.EntityID).
				Update("status", domain.InvoiceStatusApproved).Error; err != nil {
				return err
			}
		}

		action := &domain.ApprovalAction{
			InstanceID:    &instance.ID,
			EntityType:    instance.EntityType,
			EntityID:      instance.EntityID,
			StagePosition: &pos,
			Action:        domain.ActionApprove,
			Comment:       comment,
			ActorID:       userCtx.UserID,
			ActorName:     userCtx.DisplayName,
		}
		return tx.Create(action).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to approve stage: %w", err)
	}

	s.logger.Info("этап согласован",
		zap.String("instance_id", instance.ID.String()),
		zap.Int("stage", instance.StagesCompleted),
		zap.Int("total_stages", totalStages),
		zap.Bool("completed", isLast),
		zap.String("approved_by", userCtx.DisplayName),
	)

	dto := domain.ToInstanceDTO(instance)
	return &dto, nil
}

// Reject stops the route at the current stage. A reason is mandatory.
// The bound entity moves to its rejected/failed status in the same
// transaction.
func (s *ApprovalService) Reject(ctx context.Context, instanceID uuid.UUID, comment string) (*domain.InstanceDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, ErrRejectCommentRequired
	}

	instance, err := s.instanceRepo.GetByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	if instance.Status.IsTerminal() {
		return nil, ErrInstanceTerminal
	}

	stage := stageAt(instance.Workflow, instance.CurrentStagePosition)
	if stage == nil {
		return nil, fmt.Errorf("stage %d missing in workflow %s", instance.CurrentStagePosition, instance.WorkflowID)
	}
	if !stage.AllowsRole(userCtx.RolesAsStrings()) {
		return nil, ErrStageRoleMismatch
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		pos := instance.CurrentStagePosition
		instance.Status = domain.InstanceStatusRejected
		instance.CompletedAt = &now
		if err := tx.Save(instance).Error; err != nil {
			return err
		}

		switch instance.EntityType {
		case domain.WorkflowEntityInvoice:
			if err := tx.Model(&domain.Invoice{}).
				Where("id = ?", instance.EntityID).
				Update("status", domain.InvoiceStatusRejected).Error; err != nil {
				return err
			}
		case domain.WorkflowEntityPayment:
			if err := tx.Model(&domain.Payment{}).
				Where("id = ?", instance.EntityID).
				Updates(map[string]interface{}{
					"status":  domain.PaymentStatusFailed,
					"comment": comment,
				}).Error; err != nil {
				return err
			}
		}

		action := &domain.ApprovalAction{
			InstanceID:    &instance.ID,
			EntityType:    instance.EntityType,
			EntityID:      instance.EntityID,
			StagePosition: &pos,
			Action:        domain.ActionReject,
			Comment:       comment,
			ActorID:       userCtx.UserID,
			ActorName:     userCtx.DisplayName,
		}
		return tx.Create(action).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reject: %w", err)
	}

	s.logger.Info("согласование отклонено",
		zap.String("instance_id", instance.ID.String()),
		zap.String("entity_id", instance.EntityID.String()),
		zap.String("comment", comment),
		zap.String("rejected_by", userCtx.DisplayName),
	)

	dto := domain.ToInstanceDTO(instance)
	return &dto, nil
}

// Cancel withdraws the route. Only whoever started it may cancel; the
// bound entity moves to cancelled in the same transaction.
func (s *ApprovalService) Cancel(ctx context.Context, instanceID uuid.UUID, comment string) (*domain.InstanceDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	instance, err := s.instanceRepo.GetByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	if instance.Status.IsTerminal() {
		return nil, ErrInstanceTerminal
	}
	if instance.StartedByID != userCtx.UserID {
		return nil, ErrPermissionDenied
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		pos := instance.CurrentStagePosition
		instance.Status = domain.InstanceStatusCancelled
		instance.CompletedAt = &now
		if err := tx.Save(instance).Error; err != nil {
			return err
		}

		switch instance.EntityType {
		case domain.WorkflowEntityInvoice:
			if err := tx.Model(&domain.Invoice{}).
				Where("id = ?", instance.EntityID).
				Update("status", domain.InvoiceStatusCancelled).Error; err != nil {
				return err
			}
		case domain.WorkflowEntityPayment:
			if err := tx.Model(&domain.Payment{}).
				Where("id = ?", instance.EntityID).
				Update("status", domain.PaymentStatusCancelled).Error; err != nil {
				return err
			}
		}

		action := &domain.ApprovalAction{
			InstanceID:    &instance.ID,
			EntityType:    instance.EntityType,
			EntityID:      instance.EntityID,
			StagePosition: &pos,
			Action:        domain.ActionCancel,
			Comment:       comment,
			ActorID:       userCtx.UserID,
			ActorName:     userCtx.DisplayName,
		}
		return tx.Create(action).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cancel: %w", err)
	}

	s.logger.Info("согласование отменено",
		zap.String("instance_id", instance.ID.String()),
		zap.String("entity_id", instance.EntityID.String()),
		zap.String("cancelled_by", userCtx.DisplayName),
	)

	dto := domain.ToInstanceDTO(instance)
	return &dto, nil
}

func (s *ApprovalService) GetByID(ctx context.Context, instanceID uuid.UUID) (*domain.InstanceDTO, error) {
	instance, err := s.instanceRepo.GetByID(ctx, instanceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	dto := domain.ToInstanceDTO(instance)
	return &dto, nil
}

// GetForEntity returns the current (or latest) instance for an entity
func (s *ApprovalService) GetForEntity(ctx context.Context, entityType domain.WorkflowEntityType, entityID uuid.UUID) (*domain.InstanceDTO, error) {
	instance, err := s.instanceRepo.GetActiveForEntity(ctx, entityType, entityID)
	if err == nil {
		dto := domain.ToInstanceDTO(instance)
		return &dto, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get active instance: %w", err)
	}

	instances, err := s.instanceRepo.ListForEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	if len(instances) == 0 {
		return nil, ErrNotFound
	}
	dto := domain.ToInstanceDTO(&instances[0])
	return &dto, nil
}

// History returns every recorded action for an entity in order
func (s *ApprovalService) History(ctx context.Context, entityType domain.WorkflowEntityType, entityID uuid.UUID) ([]domain.ApprovalActionDTO, error) {
	actions, err := s.actionRepo.ListForEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	dtos := make([]domain.ApprovalActionDTO, len(actions))
	for i := range actions {
		dtos[i] = domain.ToApprovalActionDTO(&actions[i])
	}
	return dtos, nil
}

func stageAt(w *domain.Workflow, position int) *domain.WorkflowStage {
	if w == nil {
		return nil
	}
	for i := range w.Stages {
		if w.Stages[i].Position == position {
			return &w.Stages[i]
		}
	}
	return nil
}
