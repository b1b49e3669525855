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

// MaterialPersonHandler handles HTTP requests for materially responsible person records
type MaterialPersonHandler struct {
	materialPersonService *service.MaterialPersonService
	logger                *zap.Logger
}

// NewMaterialPersonHandler creates a new material person handler instance
func NewMaterialPersonHandler(
	materialPersonService *service.MaterialPersonService,
	logger *zap.Logger,
) *MaterialPersonHandler {
	return &MaterialPersonHandler{
		materialPersonService: materialPersonService,
		logger:                logger,
	}
}

// List godoc
// @Summary List materially responsible persons
// @Tags MaterialPersons
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param activeOnly query bool false "Only active records" default(false)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.MaterialPerson}
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /material-persons [get]
func (h *MaterialPersonHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("activeOnly"))

	result, err := h.materialPersonService.List(r.Context(), page, pageSize, activeOnly)
	if err != nil {
		h.logger.Error("failed to list material persons", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list material persons",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get materially responsible person by ID
// @Tags MaterialPersons
// @Accept json
// @Produce json
// @Param id path string true "Record ID" format(uuid)
// @Success 200 {object} domain.MaterialPerson
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /material-persons/{id} [get]
func (h *MaterialPersonHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid material person ID format",
		})
		return
	}

	person, err := h.materialPersonService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Material person not found",
			})
			return
		}
		h.logger.Error("failed to get material person", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get material person",
		})
		return
	}

	respondJSON(w, http.StatusOK, person)
}

// Create godoc
// @Summary Create materially responsible person
// @Tags MaterialPersons
// @Accept json
// @Produce json
// @Param request body domain.CreateMaterialPersonRequest true "Record data"
// @Success 201 {object} domain.MaterialPerson
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /material-persons [post]
func (h *MaterialPersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMaterialPersonRequest
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

	person, err := h.materialPersonService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create material person", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create material person",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/material-persons/"+person.ID.String())
	respondJSON(w, http.StatusCreated, person)
}

// Update godoc
// @Summary Update materially responsible person
// @Tags MaterialPersons
// @Accept json
// @Produce json
// @Param id path string true "Record ID" format(uuid)
// @Param request body domain.UpdateMaterialPersonRequest true "Record data"
// @Success 200 {object} domain.MaterialPerson
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /material-persons/{id} [put]
func (h *MaterialPersonHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid material person ID format",
		})
		return
	}

	var req domain.UpdateMaterialPersonRequest
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

	person, err := h.materialPersonService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Material person not found",
			})
			return
		}
		h.logger.Error("failed to update material person", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update material person",
		})
		return
	}

	respondJSON(w, http.StatusOK, person)
}

// Delete godoc
// @Summary Delete materially responsible person
// @Tags MaterialPersons
// @Accept json
// @Produce json
// @Param id path string true "Record ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /material-persons/{id} [delete]
func (h *MaterialPersonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid material person ID format",
		})
		return
	}

	if err := h.materialPersonService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Material person not found",
			})
			return
		}
		h.logger.Error("failed to delete material person", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete material person",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
