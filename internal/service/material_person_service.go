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

// MaterialPersonService manages the МОЛ directory
type MaterialPersonService struct {
	personRepo *repository.MaterialPersonRepository
	logger     *zap.Logger
}

func NewMaterialPersonService(personRepo *repository.MaterialPersonRepository, logger *zap.Logger) *MaterialPersonService {
	return &MaterialPersonService{personRepo: personRepo, logger: logger}
}

func (s *MaterialPersonService) Create(ctx context.Context, req *domain.CreateMaterialPersonRequest) (*domain.MaterialPerson, error) {
	person := &domain.MaterialPerson{
		FullName: req.FullName,
		Position: req.Position,
		Phone:    req.Phone,
		IsActive: true,
	}

	if err := s.personRepo.Create(ctx, person); err != nil {
		return nil, fmt.Errorf("failed to create material person: %w", err)
	}

	s.logger.Info("МОЛ создан",
		zap.String("person_id", person.ID.String()),
		zap.String("full_name", person.FullName),
	)
	return person, nil
}

func (s *MaterialPersonService) GetByID(ctx context.Context, id uuid.UUID) (*domain.MaterialPerson, error) {
	person, err := s.personRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get material person: %w", err)
	}
	return person, nil
}

func (s *MaterialPersonService) List(ctx context.Context, page, pageSize int, activeOnly bool) (*domain.PaginatedResponse, error) {
	persons, total, err := s.personRepo.List(ctx, page, pageSize, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list material persons: %w", err)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       persons,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func (s *MaterialPersonService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateMaterialPersonRequest) (*domain.MaterialPerson, error) {
	person, err := s.personRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get material person: %w", err)
	}

	if req.FullName != nil {
		person.FullName = *req.FullName
	}
	if req.Position != nil {
		person.Position = *req.Position
	}
	if req.Phone != nil {
		person.Phone = *req.Phone
	}
	if req.IsActive != nil {
		person.IsActive = *req.IsActive
	}

	if err := s.personRepo.Update(ctx, person); err != nil {
		return nil, fmt.Errorf("failed to update material person: %w", err)
	}
	return person, nil
}

func (s *MaterialPersonService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.personRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get material person: %w", err)
	}

	if err := s.personRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete material person: %w", err)
	}

	s.logger.Info("МОЛ удален", zap.String("person_id", id.String()))
	return nil
}
