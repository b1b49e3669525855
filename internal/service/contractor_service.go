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

// ErrContractorTaxIDTaken is returned when the tax id is already registered
var ErrContractorTaxIDTaken = errors.New("Контрагент с таким ИНН уже существует")

type ContractorService struct {
	contractorRepo *repository.ContractorRepository
	logger         *zap.Logger
}

func NewContractorService(contractorRepo *repository.ContractorRepository, logger *zap.Logger) *ContractorService {
	return &ContractorService{contractorRepo: contractorRepo, logger: logger}
}

func (s *ContractorService) Create(ctx context.Context, req *domain.CreateContractorRequest) (*domain.ContractorDTO, error) {
	if _, err := s.contractorRepo.GetByTaxID(ctx, req.TaxID); err == nil {
		return nil, ErrContractorTaxIDTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check tax id: %w", err)
	}

	contractor := &domain.Contractor{
		Name:     req.Name,
		TaxID:    req.TaxID,
		KPP:      req.KPP,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		IsActive: true,
	}

	if err := s.contractorRepo.Create(ctx, contractor); err != nil {
		return nil, fmt.Errorf("failed to create contractor: %w", err)
	}

	s.logger.Info("контрагент создан",
		zap.String("contractor_id", contractor.ID.String()),
		zap.String("name", contractor.Name),
		zap.String("tax_id", contractor.TaxID),
	)

	dto := domain.ToContractorDTO(contractor)
	return &dto, nil
}

func (s *ContractorService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContractorDTO, error) {
	contractor, err := s.contractorRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contractor: %w", err)
	}
	dto := domain.ToContractorDTO(contractor)
	return &dto, nil
}

func (s *ContractorService) List(ctx context.Context, page, pageSize int, activeOnly bool) (*domain.PaginatedResponse, error) {
	contractors, total, err := s.contractorRepo.List(ctx, page, pageSize, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list contractors: %w", err)
	}

	dtos := make([]domain.ContractorDTO, len(contractors))
	for i := range contractors {
		dtos[i] = domain.ToContractorDTO(&contractors[i])
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedResponse{
		Data:       dtos,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func (s *ContractorService) Search(ctx context.Context, query string, limit int) ([]domain.ContractorDTO, error) {
	contractors, err := s.contractorRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search contractors: %w", err)
	}
	dtos := make([]domain.ContractorDTO, len(contractors))
	for i := range contractors {
		dtos[i] = domain.ToContractorDTO(&contractors[i])
	}
	return dtos, nil
}

func (s *ContractorService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateContractorRequest) (*domain.ContractorDTO, error) {
	contractor, err := s.contractorRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get contractor: %w", err)
	}

	if req.Name != nil {
		contractor.Name = *req.Name
	}
	if req.KPP != nil {
		contractor.KPP = *req.KPP
	}
	if req.Email != nil {
		contractor.Email = *req.Email
	}
	if req.Phone != nil {
		contractor.Phone = *req.Phone
	}
	if req.Address != nil {
		contractor.Address = *req.Address
	}
	if req.IsActive != nil {
		contractor.IsActive = *req.IsActive
	}

	if err := s.contractorRepo.Update(ctx, contractor); err != nil {
		return nil, fmt.Errorf("failed to update contractor: %w", err)
	}

	dto := domain.ToContractorDTO(contractor)
	return &dto, nil
}

// Delete removes a contractor not referenced by any invoice; referenced
// ones are deactivated instead.
func (s *ContractorService) Delete(ctx context.Context, id uuid.UUID) error {
	contractor, err := s.contractorRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get contractor: %w", err)
	}

	refs, err := s.contractorRepo.CountInvoiceRefs(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count invoice refs: %w", err)
	}
	if refs > 0 {
		contractor.IsActive = false
		if err := s.contractorRepo.Update(ctx, contractor); err != nil {
			return fmt.Errorf("failed to deactivate contractor: %w", err)
		}
		s.logger.Info("контрагент деактивирован",
			zap.String("contractor_id", id.String()),
			zap.Int64("invoice_refs", refs),
		)
		return nil
	}

	if err := s.contractorRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contractor: %w", err)
	}

	s.logger.Info("контрагент удален", zap.String("contractor_id", id.String()))
	return nil
}
