package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/service"
	"go.uber.org/zap"
)

// ApprovalHandler handles HTTP requests for approval route operations
type ApprovalHandler struct {
	approvalService *service.ApprovalService
	logger          *zap.Logger
}

// NewApprovalHandler creates a new approval handler instance
func NewApprovalHandler(
	approvalService *service.ApprovalService,
	logger *zap.Logger,
) *ApprovalHandler {
	return &ApprovalHandler{
		approvalService: approvalService,
		logger:          logger,
	}
}

// parseEntityParams extracts and validates the entityType/entityId pair
func parseEntityParams(w http.ResponseWriter, r *http.Request) (domain.WorkflowEntityType, uuid.UUID, bool) {
	entityType := domain.WorkflowEntityType(chi.URLParam(r, "entityType"))
	if !entityType.IsValid() {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid entity type",
		})
		return "", uuid.Nil, false
	}

	entityID, err := uuid.Parse(chi.URLParam(r, "entityId"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid entity ID format",
		})
		return "", uuid.Nil, false
	}

	return entityType, entityID, true
}

// Start godoc
// @Summary Start approval route
// @Description Bind a workflow to an invoice or payment and move the entity into approval
// @Tags Approvals
// @Accept json
// @Produce json
// @Param entityType path string true "Entity type" Enums(invoice, payment)
// @Param entityId path string true "Entity ID" format(uuid)
// @Param request body domain.StartWorkflowRequest true "Workflow to start"
// @Success 201 {object} domain.InstanceDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Route already active or entity not a draft"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /approvals/{entityType}/{entityId}/start [post]
func (h *ApprovalHandler) Start(w http.ResponseWriter, r *http.Request) {
	entityType, entityID, ok := parseEntityParams(w, r)
	if !ok {
		return
	}

	var req domain.StartWorkflowRequest
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

	instance, err := h.approvalService.Start(r.Context(), entityType, entityID, req.WorkflowID)
	if err != nil {
		h.respondApprovalError(w, err, "failed to start approval route")
		return
	}

	respondJSON(w, http.StatusCreated, instance)
}

// GetForEntity godoc
// @Summary Get approval route for entity
// @Description Get the active approval route for an entity, or the latest one if none is active
// @Tags Approvals
// @Accept json
// @Produce json
// @Param entityType path string true "Entity type" Enums(invoice, payment)
// @Param entityId path string true "Entity ID" format(uuid)
// @Success 200 {object} domain.InstanceDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /approvals/{entityType}/{entityId} [get]
func (h *ApprovalHandler) GetForEntity(w http.ResponseWriter, r *http.Request) {
	entityType, entityID, ok := parseEntityParams(w, r)
	if !ok {
		return
	}

	instance, err := h.approvalService.GetForEntity(r.Context(), entityType, entityID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "No approval route for entity",
			})
			return
		}
		h.logger.Error("failed to get approval route", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get approval route",
		})
		return
	}

	respondJSON(w, http.StatusOK, instance)
}

// History godoc
// @Summary Get approval history for entity
// @Description Get all approval actions recorded for an entity in chronological order
// @Tags Approvals
// @Accept json
// @Produce json
// @Param entityType path string true "Entity type" Enums(invoice, payment)
// @Param entityId path string true "Entity ID" format(uuid)
// @Success 200 {array} domain.ApprovalActionDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /approvals/{entityType}/{entityId}/history [get]
func (h *ApprovalHandler) History(w http.ResponseWriter, r *http.Request) {
	entityType, entityID, ok := parseEntityParams(w, r)
	if !ok {
		return
	}

	history, err := h.approvalService.History(r.Context(), entityType, entityID)
	if err != nil {
		h.logger.Error("failed to get approval history", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get approval history",
		})
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// GetInstance godoc
// @Summary Get approval route by ID
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Instance ID" format(uuid)
// @Success 200 {object} domain.InstanceDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /approvals/instances/{id} [get]
func (h *ApprovalHandler) GetInstance(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid instance ID format",
		})
		return
	}

	instance, err := h.approvalService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Approval route not found",
			})
			return
		}
		h.logger.Error("failed to get approval route", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get approval route",
		})
		return
	}

	respondJSON(w, http.StatusOK, instance)
}

// Approve godoc
// @Summary Approve current stage
// @Description Approve the current stage of an approval route. Requires a role allowed at that stage. Advances the route or completes it on the last stage.
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Instance ID" format(uuid)
// @Param request body domain.ActionRequest false "Optional comment"
// @Success 200 {object} domain.InstanceDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse "Role not allowed on the stage"
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Route finished or requires payment confirmation"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /approvals/instances/{id}/approve [post]
func (h *ApprovalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid instance ID format",
		})
		return
	}

	var req domain.ActionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	instance, err := h.approvalService.Approve(r.Context(), id, req.Comment)
	if err != nil {
		h.respondApprovalError(w, err, "failed to approve stage")
		return
	}

	respondJSON(w, http.StatusOK, instance)
}

// Reject godoc
// @Summary Reject approval route
// @Description Reject the route. The bound entity is moved to its rejected state and the mandatory comment is recorded.
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Instance ID" format(uuid)
// @Param request body domain.RejectRequest true "Rejection comment"
// @Success 200 {object} domain.InstanceDTO
// @Failure 400 {object} domain.ErrorResponse "Missing comment"
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Route already finished"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /approvals/instances/{id}/reject [post]
func (h *ApprovalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid instance ID format",
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

	instance, err := h.approvalService.Reject(r.Context(), id, req.Comment)
	if err != nil {
		h.respondApprovalError(w, err, "failed to reject route")
		return
	}

	respondJSON(w, http.StatusOK, instance)
}

// Cancel godoc
// @Summary Cancel approval route
// @Description Cancel an active route. Only the user who started it or an administrator may cancel.
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Instance ID" format(uuid)
// @Param request body domain.ActionRequest false "Optional comment"
// @Success 200 {object} domain.InstanceDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse "Not the initiator"
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Route already finished"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /approvals/instances/{id}/cancel [post]
func (h *ApprovalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid instance ID format",
		})
		return
	}

	var req domain.ActionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	instance, err := h.approvalService.Cancel(r.Context(), id, req.Comment)
	if err != nil {
		h.respondApprovalError(w, err, "failed to cancel route")
		return
	}

	respondJSON(w, http.StatusOK, instance)
}

// respondApprovalError maps approval lifecycle errors to HTTP statuses
func (h *ApprovalHandler) respondApprovalError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
			Error:   "Not Found",
			Message: "Approval route or entity not found",
		})
	case errors.Is(err, service.ErrRejectCommentRequired):
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrWorkflowInactive),
		errors.Is(err, service.ErrWorkflowNoStages):
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrStageRoleMismatch),
		errors.Is(err, service.ErrPermissionDenied):
		respondJSON(w, http.StatusForbidden, domain.ErrorResponse{
			Error:   "Forbidden",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrInstanceAlreadyActive),
		errors.Is(err, service.ErrInstanceTerminal),
		errors.Is(err, service.ErrConfirmRequired),
		errors.Is(err, service.ErrConflict):
		respondJSON(w, http.StatusConflict, domain.ErrorResponse{
			Error:   "Conflict",
			Message: err.Error(),
		})
	default:
		h.logger.Error(logMsg, zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Approval operation failed",
		})
	}
}
