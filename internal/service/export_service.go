package service

import (
	"context"
	"fmt"
	"time"

	"github.com/payhub-app/payhub-api/internal/export"
	"github.com/payhub-app/payhub-api/internal/repository"
	"go.uber.org/zap"
)

// ExportService renders invoice registers for download
type ExportService struct {
	invoiceRepo *repository.InvoiceRepository
	exporter    *export.ExcelExporter
	logger      *zap.Logger
}

func NewExportService(invoiceRepo *repository.InvoiceRepository, exporter *export.ExcelExporter, logger *zap.Logger) *ExportService {
	return &ExportService{
		invoiceRepo: invoiceRepo,
		exporter:    exporter,
		logger:      logger,
	}
}

// ExportInvoices renders all invoices matching the filter into an .xlsx
// workbook and returns the file name and bytes.
func (s *ExportService) ExportInvoices(ctx context.Context, filter *repository.InvoiceFilter) (string, []byte, error) {
	invoices, err := s.invoiceRepo.ListForExport(ctx, filter)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load invoices for export: %w", err)
	}

	data, err := s.exporter.InvoiceRegister(invoices, export.InvoiceColumns())
	if err != nil {
		return "", nil, fmt.Errorf("failed to render export: %w", err)
	}

	filename := export.Filename("invoices", time.Now())

	s.logger.Info("выгрузка счетов подготовлена",
		zap.String("filename", filename),
		zap.Int("invoices", len(invoices)),
	)

	return filename, data, nil
}
