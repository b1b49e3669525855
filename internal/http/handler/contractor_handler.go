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

// ContractorHandler handles HTTP requests for contractor operations
type ContractorHandler struct {
	contractorService *service.ContractorService
	logger            *zap.Logger
}

// NewContractorHandler creates a new contractor handler instance
func NewContractorHandler(
	contractorService *service.ContractorService,
	logger *zap.Logger,
) *ContractorHandler {
	return &ContractorHandler{
		contractorService: contractorService,
		logger:            logger,
	}
}

// List godoc
// @Summary List contractors
// @Description Get paginated list of contractors
// @Tags Contractors
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param activeOnly query bool false "Only active contractors" default(false)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ContractorDTO}
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contractors [get]
func (h *ContractorHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("activeOnly"))

	result, err := h.contractorService.List(r.Context(), page, pageSize, activeOnly)
	if err != nil {
		h.logger.Error("failed to list contractors", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list contractors",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Search godoc
// @Summary Search contractors
// @Description Search contractors by name or tax ID
// @Tags Contractors
// @Accept json
// @Produce json
// @Param q query string true "Search query"
// @Param limit query int false "Max results" default(20)
// @Success 200 {array} domain.ContractorDTO
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contractors/search [get]
func (h *ContractorHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	result, err := h.contractorService.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("failed to search contractors", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to search contractors",
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get contractor by ID
// @Tags Contractors
// @Accept json
// @Produce json
// @Param id path string true "Contractor ID" format(uuid)
// @Success 200 {object} domain.ContractorDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contractors/{id} [get]
func (h *ContractorHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid contractor ID format",
		})
		return
	}

	contractor, err := h.contractorService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Contractor not found",
			})
			return
		}
		h.logger.Error("failed to get contractor", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to get contractor",
		})
		return
	}

	respondJSON(w, http.StatusOK, contractor)
}

// Create godoc
// @Summary Create contractor
// @Tags Contractors
// @Accept json
// @Produce json
// @Param request body domain.CreateContractorRequest true "Contractor data"
// @Success 201 {object} domain.ContractorDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Duplicate tax ID"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contractors [post]
func (h *ContractorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateContractorRequest
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

	contractor, err := h.contractorService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrContractorTaxIDTaken) {
			respondJSON(w, http.StatusConflict, domain.ErrorResponse{
				Error:   "Conflict",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to create contractor", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to create contractor",
		})
		return
	}

	w.Header().Set("Location", "/api/v1/contractors/"+contractor.ID.String())
	respondJSON(w, http.StatusCreated, contractor)
}

// Update godoc
// @Summary Update contractor
// @Tags Contractors
// @Accept json
// @Produce json
// @Param id path string true "Contractor ID" format(uuid)
// @Param request body domain.UpdateContractorRequest true "Contractor data"
// @Success 200 {object} domain.ContractorDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contractors/{id} [put]
func (h *ContractorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid contractor ID format",
		})
		return
	}

	var req domain.UpdateContractorRequest
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

	contractor, err := h.contractorService.Update(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Contractor not found",
			})
			return
		}
		h.logger.Error("failed to update contractor", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to update contractor",
		})
		return
	}

	respondJSON(w, http.StatusOK, contractor)
}

// Delete godoc
// @Summary Delete contractor
// @Description Delete a contractor. Contractors referenced by invoices are deactivated instead of removed.
// @Tags Contractors
// @Accept json
// @Produce json
// @Param id path string true "Contractor ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /contractors/{id} [delete]
func (h *ContractorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid contractor ID format",
		})
		return
	}

	if err := h.contractorService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Contractor not found",
			})
			return
		}
		h.logger.Error("failed to delete contractor", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete contractor",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
