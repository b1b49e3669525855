package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StatusService manages the table-driven status dictionary. Lifecycle
// transitions stay code-enforced; these rows carry the display name,
// color and ordering per entity family.
type StatusService struct {
	statusRepo *repository.StatusRepository
	db         *gorm.DB
	logger     *zap.Logger
}

func NewStatusService(statusRepo *repository.StatusRepository, db *gorm.DB, logger *zap.Logger) *StatusService {
	return &StatusService{statusRepo: statusRepo, db: db, logger: logger}
}

func (s *StatusService) Create(ctx context.Context, req *domain.CreateStatusRequest) (*domain.Status, error) {
	entityType := domain.StatusEntityType(req.EntityType)
	if !entityType.IsValid() {
		return nil, fmt.Errorf("%w: unknown entity type %q", ErrInvalidInput, req.EntityType)
	}

	if _, err := s.statusRepo.GetByCode(ctx, entityType, req.Code); err == nil {
		return nil, fmt.Errorf("%w: статус %q уже определен", ErrConflict, req.Code)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check status code: %w", err)
	}

	status := &domain.Status{
		EntityType: entityType,
		Code:       req.Code,
		Name:       req.Name,
		Color:      req.Color,
		OrderIndex: req.OrderIndex,
		IsFinal:    req.IsFinal,
		IsActive:   true,
	}
	if status.Color == "" {
		status.Color = "#9e9e9e"
	}

	if err := s.statusRepo.Create(ctx, status); err != nil {
		return nil, fmt.Errorf("failed to create status: %w", err)
	}

	s.logger.Info("статус создан",
		zap.String("status_id", status.ID.String()),
		zap.String("entity_type", string(status.EntityType)),
		zap.String("code", status.Code),
	)
	return status, nil
}

func (s *StatusService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Status, error) {
	status, err := s.statusRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return status, nil
}

func (s *StatusService) ListByEntityType(ctx context.Context, entityType domain.StatusEntityType, activeOnly bool) ([]domain.Status, error) {
	if !entityType.IsValid() {
		return nil, fmt.Errorf("%w: unknown entity type %q", ErrInvalidInput, entityType)
	}
	statuses, err := s.statusRepo.ListByEntityType(ctx, entityType, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	return statuses, nil
}

func (s *StatusService) ListAll(ctx context.Context) ([]domain.Status, error) {
	statuses, err := s.statusRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	return statuses, nil
}

func (s *StatusService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateStatusRequest) (*domain.Status, error) {
	status, err := s.statusRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	if req.Name != nil {
		status.Name = *req.Name
	}
	if req.Color != nil {
		status.Color = *req.Color
	}
	if req.OrderIndex != nil {
		status.OrderIndex = *req.OrderIndex
	}
	if req.IsFinal != nil {
		status.IsFinal = *req.IsFinal
	}
	if req.IsActive != nil {
		status.IsActive = *req.IsActive
	}

	if err := s.statusRepo.Update(ctx, status); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	return status, nil
}

// Delete removes a status definition unless live records still carry its
// code.
func (s *StatusService) Delete(ctx context.Context, id uuid.UUID) error {
	status, err := s.statusRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get status: %w", err)
	}

	var refs int64
	switch status.EntityType {
	case domain.StatusEntityInvoice:
		err = s.db.WithContext(ctx).Model(&domain.Invoice{}).
			Where("status = ?", status.Code).Count(&refs).Error
	case domain.StatusEntityPayment:
		err = s.db.WithContext(ctx).Model(&domain.Payment{}).
			Where("status = ?", status.Code).Count(&refs).Error
	}
	if err != nil {
		return fmt.Errorf("failed to count status refs: %w", err)
	}
	if refs > 0 {
		return ErrStatusInUse
	}

	if err := s.statusRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete status: %w", err)
	}

	s.logger.Info("статус удален",
		zap.String("status_id", id.String()),
		zap.String("code", status.Code),
	)
	return nil
}
