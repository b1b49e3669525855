package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/auth"
	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InvoiceService manages purchase invoices. Amounts are derived on write:
// VAT = net * rate / 100, total = net + VAT, both rounded to kopecks.
type InvoiceService struct {
	invoiceRepo    *repository.InvoiceRepository
	contractorRepo *repository.ContractorRepository
	db             *gorm.DB
	logger         *zap.Logger
}

func NewInvoiceService(
	invoiceRepo *repository.InvoiceRepository,
	contractorRepo *repository.ContractorRepository,
	db *gorm.DB,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo:    invoiceRepo,
		contractorRepo: contractorRepo,
		db:             db,
		logger:         logger,
	}
}

func (s *InvoiceService) Create(ctx context.Context, req *domain.CreateInvoiceRequest) (*domain.InvoiceDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	invoiceType := domain.InvoiceType(req.Type)
	if !invoiceType.IsValid() {
		return nil, fmt.Errorf("%w: unknown invoice type %q", ErrInvalidInput, req.Type)
	}

	if _, err := s.contractorRepo.GetByID(ctx, req.SupplierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: поставщик не найден", ErrInvalidInput)
		}
		return nil, fmt.Errorf("failed to check supplier: %w", err)
	}
	if _, err := s.contractorRepo.GetByID(ctx, req.PayerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: плательщик не найден", ErrInvalidInput)
		}
		return nil, fmt.Errorf("failed to check payer: %w", err)
	}

	invoice := &domain.Invoice{
		Number:           req.Number,
		InvoiceDate:      req.InvoiceDate,
		SupplierID:       req.SupplierID,
		PayerID:          req.PayerID,
		ProjectID:        req.ProjectID,
		MaterialPersonID: req.MaterialPersonID,
		Type:             invoiceType,
		Status:           domain.InvoiceStatusDraft,
		NetAmount:        domain.Round2(req.NetAmount),
		VATRate:          req.VATRate,
		VATAmount:        domain.CalcVAT(req.NetAmount, req.VATRate),
		TotalAmount:      domain.CalcTotal(req.NetAmount, req.VATRate),
		Description:      req.Description,
		CreatedByID:      userCtx.UserID,
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.logger.Info("счет создан",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
		zap.Float64("total", invoice.TotalAmount),
		zap.String("created_by", userCtx.DisplayName),
	)

	invoice, err := s.invoiceRepo.GetByID(ctx, invoice.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload invoice: %w", err)
	}
	dto := domain.ToInvoiceDTO(invoice)
	return &dto, nil
}

func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*domain.InvoiceDTO, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	dto := domain.ToInvoiceDTO(invoice)
	return &dto, nil
}

func (s *InvoiceService) List(ctx context.Context, page, pageSize int, filter *repository.InvoiceFilter) (*domain.PaginatedResponse, error) {
	invoices, total, err := s.invoiceRepo.List(ctx, page, pageSize, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	dtos := make([]domain.InvoiceDTO, len(invoices))
	for i := range invoices {
		dtos[i] = domain.ToInvoiceDTO(&invoices[i])
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

// Update patches a draft invoice. Amount fields are recalculated when net
// or the VAT rate changes.
func (s *InvoiceService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateInvoiceRequest) (*domain.InvoiceDTO, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	if invoice.Status != domain.InvoiceStatusDraft {
		return nil, ErrInvoiceNotDraft
	}

	if req.Number != nil {
		invoice.Number = *req.Number
	}
	if req.InvoiceDate != nil {
		invoice.InvoiceDate = *req.InvoiceDate
	}
	if req.SupplierID != nil {
		invoice.SupplierID = *req.SupplierID
	}
	if req.PayerID != nil {
		invoice.PayerID = *req.PayerID
	}
	if req.ProjectID != nil {
		invoice.ProjectID = req.ProjectID
	}
	if req.MaterialPersonID != nil {
		invoice.MaterialPersonID = req.MaterialPersonID
	}
	if req.Type != nil {
		invoiceType := domain.InvoiceType(*req.Type)
		if !invoiceType.IsValid() {
			return nil, fmt.Errorf("%w: unknown invoice type %q", ErrInvalidInput, *req.Type)
		}
		invoice.Type = invoiceType
	}
	if req.NetAmount != nil {
		invoice.NetAmount = domain.Round2(*req.NetAmount)
	}
	if req.VATRate != nil {
		invoice.VATRate = *req.VATRate
	}
	if req.NetAmount != nil || req.VATRate != nil {
		invoice.VATAmount = domain.CalcVAT(invoice.NetAmount, invoice.VATRate)
		invoice.TotalAmount = domain.CalcTotal(invoice.NetAmount, invoice.VATRate)
	}
	if req.Description != nil {
		invoice.Description = *req.Description
	}

	// Preloaded relations must not be written back stale
	invoice.Supplier = nil
	invoice.Payer = nil
	invoice.Project = nil
	invoice.MaterialPerson = nil

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	invoice, err = s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload invoice: %w", err)
	}
	dto := domain.ToInvoiceDTO(invoice)
	return &dto, nil
}

// Delete removes an invoice. Invoices with payments cannot be removed.
func (s *InvoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.invoiceRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get invoice: %w", err)
	}

	paymentCount, err := s.invoiceRepo.CountPayments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count payments: %w", err)
	}
	if paymentCount > 0 {
		return ErrInvoiceHasPayments
	}

	if err := s.invoiceRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	s.logger.Info("счет удален", zap.String("invoice_id", id.String()))
	return nil
}
