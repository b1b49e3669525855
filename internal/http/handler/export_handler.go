package handler

import (
	"fmt"
	"net/http"

	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/service"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler handles HTTP requests for registry exports
type ExportHandler struct {
	exportService *service.ExportService
	logger        *zap.Logger
}

// NewExportHandler creates a new export handler instance
func NewExportHandler(
	exportService *service.ExportService,
	logger *zap.Logger,
) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		logger:        logger,
	}
}

// ExportInvoices godoc
// @Summary Export invoice register
// @Description Export the invoice register to an Excel workbook. The same filters as the invoice list apply.
// @Tags Export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param status query string false "Filter by status" Enums(draft, pending, approved, rejected, paid, cancelled)
// @Param type query string false "Filter by type" Enums(goods, services, works, advance)
// @Param supplierId query string false "Filter by supplier" format(uuid)
// @Param payerId query string false "Filter by payer" format(uuid)
// @Param projectId query string false "Filter by project" format(uuid)
// @Param search query string false "Search by invoice number"
// @Success 200 {file} binary
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /invoices/export [get]
func (h *ExportHandler) ExportInvoices(w http.ResponseWriter, r *http.Request) {
	filter := parseInvoiceFilter(r)

	filename, content, err := h.exportService.ExportInvoices(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to export invoices", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to export invoices",
		})
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
