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

// StatusHandler handles HTTP requests for status dictionary operations
type StatusHandler struct {
	statusService *service.StatusService
	logger        *zap.Logger
}

// NewStatusHandler creates a new status handler instance
func NewStatusHandler(
	statusService *service.StatusService,
	logger *zap.Logger,
) *StatusHandler {
	return &StatusHandler{
		statusService: statusService,
		logger:        logger,
	}
}

// List godoc
// @Summary List status definitions
// @Description Get status definitions, optionally filtered by entity type
// @Tags Statuses
// @Accept json
// @Produce json
// @Param entityType query string false "Entity type" Enums(invoice, payment, project)
// @Param activeOnly query bool false "Only active statuses" default(false)
// @Success 200 {array} domain.Status
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /statuses [get]
func (h *StatusHandler) List(w http.ResponseWriter, r *http.Request) {
	entityType := r.URL.Query().Get("entityType")
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("activeOnly"))

	if entityType == "" {
		statuses, err := h.statusService.ListAll(r.Context())
		if err != nil {
			h.logger.Error("failed to list statuses", zap.Error(err))
			respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
				Error:   "Internal Server Error",
				Message: "Failed to list statuses",
			})
			return
		}
		respondJSON(w, http.StatusOK, statuses)
		return
	}

	et := domain.StatusEntityType(entityType)
	if !et.IsValid() {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid entity type",
		})
		return
	}

	statuses, err := h.statusService.ListByEntityType(r.Context(), et, activeOnly)
	if err != nil {
		h.logger.Error("failed to list statuses", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list statuses",
		})
		return
	}

	respondJSON(w, http.StatusOK, statuses)
}

// GetByID godoc
// @Summary Get status definition by ID
// @Tags Statuses
// @Accept json
// @Produce json
// @Param id path string true "Status ID" format(uuid)
// @Success 200 {object} domain.Status
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /statuses/{id} [get]
func (h *StatusHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid status ID format",
		})
		return
	}

	status, err := h.statusService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Status not found",
			})
			return
		}
		h.logger.Error("failed to get status", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get status",
		})
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// Create godoc
// @Summary Create status definition
// @Description Create a new status for an entity family. Admin only.
// @Tags Statuses
// @Accept json
// @Produce json
// @Param request body domain.CreateStatusRequest true "Status data"
// @Success 201 {object} domain.Status
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Duplicate code for entity type"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /statuses [post]
func (h *StatusHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateStatusRequest
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

	status, err := h.statusService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
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
		h.logger.Error("failed to create status", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create status",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/statuses/"+status.ID.String())
	respondJSON(w, http.StatusCreated, status)
}

// Update godoc
// @Summary Update status definition
// @Description Update a status definition. Admin only.
// @Tags Statuses
// @Accept json
// @Produce json
// @Param id path string true "Status ID" format(uuid)
// @Param request body domain.UpdateStatusRequest true "Status data"
// @Success 200 {object} domain.Status
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /statuses/{id} [put]
func (h *StatusHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid status ID format",
		})
		return
	}

	var req domain.UpdateStatusRequest
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

	status, err := h.statusService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Status not found",
			})
			return
		}
		h.logger.Error("failed to update status", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update status",
		})
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// Delete godoc
// @Summary Delete status definition
// @Description Delete a status definition. Statuses referenced by live records cannot be deleted. Admin only.
// @Tags Statuses
// @Accept json
// @Produce json
// @Param id path string true "Status ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Status is in use"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /statuses/{id} [delete]
func (h *StatusHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid status ID format",
		})
		return
	}

	if err := h.statusService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Status not found",
			})
			return
		}
		if errors.Is(err, service.ErrStatusInUse) {
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to delete status", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete status",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
