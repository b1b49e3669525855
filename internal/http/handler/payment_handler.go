package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/repository"
	"github.com/payhub-app/payhub-api/internal/service"
	"go.uber.org/zap"
)

// PaymentHandler handles HTTP requests for payment operations
type PaymentHandler struct {
	paymentService *service.PaymentService
	logger         *zap.Logger
}

// NewPaymentHandler creates a new payment handler instance
func NewPaymentHandler(
	paymentService *service.PaymentService,
	logger *zap.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// List godoc
// @Summary List payments
// @Description Get paginated list of payments with optional filters
// @Tags Payments
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param invoiceId query string false "Filter by invoice" format(uuid)
// @Param status query string false "Filter by status" Enums(draft, pending, completed, failed, cancelled)
// @Param type query string false "Filter by type" Enums(debt, advance, tax)
// @Param createdById query string false "Filter by author" format(uuid)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.PaymentDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /payments [get]
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filter := &repository.PaymentFilter{}
	if invoiceID, err := uuid.Parse(r.URL.Query().Get("invoiceId")); err == nil {
		filter.InvoiceID = &invoiceID
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.PaymentStatus(status)
		filter.Status = &s
	}
	if paymentType := r.URL.Query().Get("type"); paymentType != "" {
		t := domain.PaymentType(paymentType)
		filter.Type = &t
	}
	if createdByID, err := uuid.Parse(r.URL.Query().Get("createdById")); err == nil {
		filter.CreatedByID = &createdByID
	}

	result, err := h.paymentService.List(r.Context(), page, pageSize, filter)
	if err != nil {
		h.logger.Error("failed to list payments", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list payments",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get payment by ID
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID" format(uuid)
// @Success 200 {object} domain.PaymentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /payments/{id} [get]
func (h *PaymentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid payment ID format",
		})
		return
	}

	payment, err := h.paymentService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Payment not found",
			})
			return
		}
		h.logger.Error("failed to get payment", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get payment",
		})
		return
	}

	respondJSON(w, http.StatusOK, payment)
}

// Create godoc
// @Summary Create payment
// @Description Create a draft payment against an invoice. The payment amount must not exceed the remaining invoice balance.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body domain.CreatePaymentRequest true "Payment data"
// @Success 201 {object} domain.PaymentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Balance exceeded or invoice not payable"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /payments [post]
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	payment, err := h.paymentService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Invoice not found",
			})
			return
		}
		if errors.Is(err, service.ErrBalanceExceeded) || errors.Is(err, service.ErrInvoiceNotPayable) {
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: err.Error(),
			})
			return
		}
		if errors.Is(err, service.ErrInvalidInput) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to create payment", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create payment",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/payments/"+payment.ID.String())
	respondJSON(w, http.StatusCreated, payment)
}

// Submit godoc
// @Summary Submit payment for approval
// @Description Move a draft payment to pending status
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID" format(uuid)
// @Param request body domain.ActionRequest false "Optional comment"
// @Success 200 {object} domain.PaymentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Payment is not a draft"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /payments/{id}/submit [post]
func (h *PaymentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, "submit", h.paymentService.Submit)
}

// Confirm godoc
// @Summary Confirm payment
// @Description Mark a fully approved payment as completed. Requires a role allowed on the final stage of the approval route if one is active.
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID" format(uuid)
// @Param request body domain.ActionRequest false "Optional comment"
// @Success 200 {object} domain.PaymentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse "Role not allowed on the final stage"
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Already confirmed or not pending"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /payments/{id}/confirm [post]
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, "confirm", h.paymentService.Confirm)
}

// Reject godoc
// @Summary Reject payment
// @Description Reject a pending payment. A comment explaining the rejection is mandatory.
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID" format(uuid)
// @Param request body domain.RejectRequest true "Rejection comment"
// @Success 200 {object} domain.PaymentDTO
// @Failure 400 {object} domain.ErrorResponse "Missing comment"
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Payment is not pending"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /payments/{id}/reject [post]
func (h *PaymentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid payment ID format",
		})
		return
	}

	var req domain.RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	payment, err := h.paymentService.Reject(r.Context(), id, req.Comment)
	if err != nil {
		h.respondPaymentError(w, err, "failed to reject payment")
		return
	}

	respondJSON(w, http.StatusOK, payment)
}

// Cancel godoc
// @Summary Cancel payment
// @Description Cancel a payment. Only its author or an administrator may cancel, and completed payments cannot be cancelled.
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID" format(uuid)
// @Param request body domain.ActionRequest false "Optional comment"
// @Success 200 {object} domain.PaymentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse "Not the author"
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Payment is in a terminal state"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /payments/{id}/cancel [post]
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.runAction(w, r, "cancel", h.paymentService.Cancel)
}

// runAction parses the payment id and optional comment body, then delegates
// to the given lifecycle operation.
func (h *PaymentHandler) runAction(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	fn func(ctx context.Context, id uuid.UUID, comment string) (*domain.PaymentDTO, error),
) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid payment ID format",
		})
		return
	}

	var req domain.ActionRequest
	if r.Body != nil {
		// Body is optional for lifecycle actions
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	payment, err := fn(r.Context(), id, req.Comment)
	if err != nil {
		h.respondPaymentError(w, err, "failed to "+name+" payment")
		return
	}

	respondJSON(w, http.StatusOK, payment)
}

// respondPaymentError maps payment lifecycle errors to HTTP statuses
func (h *PaymentHandler) respondPaymentError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
			Error:   "Not Found",
			Message: "Payment not found",
		})
	case errors.Is(err, service.ErrRejectCommentRequired):
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrNotPaymentCreator),
		errors.Is(err, service.ErrStageRoleMismatch),
		errors.Is(err, service.ErrPermissionDenied):
		respondJSON(w, http.StatusForbidden, domain.ErrorResponse{
			Error:   "Forbidden",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrPaymentAlreadyConfirmed),
		errors.Is(err, service.ErrPaymentNotPending),
		errors.Is(err, service.ErrPaymentTerminal),
		errors.Is(err, service.ErrConflict):
		respondJSON(w, http.StatusConflict, domain.ErrorResponse{
			Error:   "Conflict",
			Message: err.Error(),
		})
	default:
		h.logger.Error(logMsg, zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Payment operation failed",
		})
	}
}

// Delete godoc
// @Summary Delete payment
// @Description Delete a payment. Only draft or cancelled payments can be deleted.
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Payment is not deletable"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /payments/{id} [delete]
func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid payment ID format",
		})
		return
	}

	if err := h.paymentService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Payment not found",
			})
			return
		}
		if errors.Is(err, service.ErrPaymentNotDeletable) {
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to delete payment", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete payment",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
