package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/service"
	"go.uber.org/zap"
)

// WorkflowHandler handles HTTP requests for approval workflow definitions
type WorkflowHandler struct {
	workflowService *service.WorkflowService
	logger          *zap.Logger
}

// NewWorkflowHandler creates a new workflow handler instance
func NewWorkflowHandler(
	workflowService *service.WorkflowService,
	logger *zap.Logger,
) *WorkflowHandler {
	return &WorkflowHandler{
		workflowService: workflowService,
		logger:          logger,
	}
}

// List godoc
// @Summary List workflows
// @Description Get workflow definitions, optionally filtered by activity or applicable invoice type
// @Tags Workflows
// @Accept json
// @Produce json
// @Param activeOnly query bool false "Only active workflows" default(false)
// @Param invoiceType query string false "Filter by applicable invoice type" Enums(goods, services, works, advance)
// @Success 200 {array} domain.WorkflowDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /workflows [get]
func (h *WorkflowHandler) List(w http.ResponseWriter, r *http.Request) {
	if invoiceType := r.URL.Query().Get("invoiceType"); invoiceType != "" {
		t := domain.InvoiceType(invoiceType)
		if !t.IsValid() {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: "Invalid invoice type",
			})
			return
		}
		workflows, err := h.workflowService.FindForInvoiceType(r.Context(), t)
		if err != nil {
			h.logger.Error("failed to find workflows for invoice type", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
				Error:   "Internal Server Error",
				Message: "Failed to list workflows",
			})
			return
		}
		respondJSON(w, http.StatusOK, workflows)
		return
	}

	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("activeOnly"))
	workflows, err := h.workflowService.List(r.Context(), activeOnly)
	if err != nil {
		h.logger.Error("failed to list workflows", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list workflows",
		})
		return
	}

	respondJSON(w, http.StatusOK, workflows)
}

// GetByID godoc
// @Summary Get workflow by ID
// @Description Get a workflow definition with its ordered stages
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID" format(uuid)
// @Success 200 {object} domain.WorkflowDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /workflows/{id} [get]
func (h *WorkflowHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid workflow ID format",
		})
		return
	}

	workflow, err := h.workflowService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Workflow not found",
			})
			return
		}
		h.logger.Error("failed to get workflow", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get workflow",
		})
		return
	}

	respondJSON(w, http.StatusOK, workflow)
}

// Create godoc
// @Summary Create workflow
// @Description Create a workflow definition with ordered stages. A final stage, if present, must be last. Admin only.
// @Tags Workflows
// @Accept json
// @Produce json
// @Param request body domain.CreateWorkflowRequest true "Workflow data"
// @Success 201 {object} domain.WorkflowDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /workflows [post]
func (h *WorkflowHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateWorkflowRequest
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

	workflow, err := h.workflowService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) || errors.Is(err, service.ErrWorkflowNoStages) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to create workflow", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create workflow",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/workflows/"+workflow.ID.String())
	respondJSON(w, http.StatusCreated, workflow)
}

// Update godoc
// @Summary Update workflow
// @Description Update workflow-level fields. Stages are managed through the stages endpoints. Admin only.
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID" format(uuid)
// @Param request body domain.UpdateWorkflowRequest true "Workflow data"
// @Success 200 {object} domain.WorkflowDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /workflows/{id} [put]
func (h *WorkflowHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid workflow ID format",
		})
		return
	}

	var req domain.UpdateWorkflowRequest
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

	workflow, err := h.workflowService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Workflow not found",
			})
			return
		}
		h.logger.Error("failed to update workflow", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update workflow",
		})
		return
	}

	respondJSON(w, http.StatusOK, workflow)
}

// Delete godoc
// @Summary Delete workflow
// @Description Delete a workflow definition and its stages. Workflows with active approval routes cannot be deleted. Admin only.
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Workflow has active routes"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /workflows/{id} [delete]
func (h *WorkflowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid workflow ID format",
		})
		return
	}

	if err := h.workflowService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Workflow not found",
			})
			return
		}
		if errors.Is(err, service.ErrWorkflowInUse) {
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to delete workflow", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete workflow",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReplaceStages godoc
// @Summary Replace workflow stages
// @Description Replace the full stage list of a workflow. Positions are assigned from the given order. Admin only.
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID" format(uuid)
// @Param request body []domain.StageRequest true "Ordered stages"
// @Success 200 {object} domain.WorkflowDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /workflows/{id}/stages [put]
func (h *WorkflowHandler) ReplaceStages(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid workflow ID format",
		})
		return
	}

	var stages []domain.StageRequest
	if err := json.NewDecoder(r.Body).Decode(&stages); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid request body",
		})
		return
	}

	for _, stage := range stages {
		if err := validate.Struct(stage); err != nil {
			respondValidationError(w, err)
			return
		}
	}

	workflow, err := h.workflowService.ReplaceStages(r.Context(), id, stages)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Workflow not found",
			})
			return
		}
		if errors.Is(err, service.ErrInvalidInput) || errors.Is(err, service.ErrWorkflowNoStages) {
			respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to replace workflow stages", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to replace workflow stages",
		})
		return
	}

	respondJSON(w, http.StatusOK, workflow)
}

// ReorderStages godoc
// @Summary Reorder workflow stages
// @Description Rewrite stage positions from the given stage ID order. The set of IDs must match the existing stages and a final stage must stay last. Admin only.
// @Tags Workflows
// @Accept json
// @Produce json
// @Param id path string true "Workflow ID" format(uuid)
// @Param request body domain.ReorderStagesRequest true "Ordered stage IDs"
// @Success 200 {object} domain.WorkflowDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /workflows/{id}/stages/reorder [post]
func (h *WorkflowHandler) ReorderStages(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid workflow ID format",
		})
		return
	}

	var req domain.ReorderStagesRequest
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

	workflow, err := h.workflowService.ReorderStages(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Workflow not found",
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
		h.logger.Error("failed to reorder workflow stages", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to reorder workflow stages",
		})
		return
	}

	respondJSON(w, http.StatusOK, workflow)
}
