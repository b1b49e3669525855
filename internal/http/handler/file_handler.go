package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/service"
	"go.uber.org/zap"
)

// maxMultipartMemory bounds the in-memory part of multipart parsing (32 MB)
const maxMultipartMemory = 32 << 20

// FileHandler handles HTTP requests for invoice and payment attachments
type FileHandler struct {
	fileService *service.FileService
	logger      *zap.Logger
}

// NewFileHandler creates a new file handler instance
func NewFileHandler(
	fileService *service.FileService,
	logger *zap.Logger,
) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		logger:      logger,
	}
}

// Upload godoc
// @Summary Upload attachment
// @Description Upload a file and bind it to an invoice or payment
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param entityType path string true "Entity type" Enums(invoice, payment)
// @Param entityId path string true "Entity ID" format(uuid)
// @Param file formData file true "File to upload"
// @Success 201 {object} domain.AttachmentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 413 {object} domain.ErrorResponse "File too large"
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /files/{entityType}/{entityId} [post]
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	entityType, entityID, ok := parseEntityParams(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid multipart form",
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Missing file field",
		})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	attachment, err := h.fileService.Upload(r.Context(), entityType, entityID, header.Filename, contentType, header.Size, file)
	if err != nil {
		if errors.Is(err, service.ErrFileTooLarge) {
			respondJSON(w, http.StatusRequestEntityTooLarge, domain.ErrorResponse{
				Error:   "Request Entity Too Large",
				Message: err.Error(),
			})
			return
		}
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Entity not found",
			})
			return
		}
		h.logger.Error("failed to upload file", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to upload file",
		})
		return
	}

	respondJSON(w, http.StatusCreated, attachment)
}

// List godoc
// @Summary List attachments for entity
// @Tags Files
// @Accept json
// @Produce json
// @Param entityType path string true "Entity type" Enums(invoice, payment)
// @Param entityId path string true "Entity ID" format(uuid)
// @Success 200 {array} domain.AttachmentDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /files/{entityType}/{entityId} [get]
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	entityType, entityID, ok := parseEntityParams(w, r)
	if !ok {
		return
	}

	attachments, err := h.fileService.ListForEntity(r.Context(), entityType, entityID)
	if err != nil {
		h.logger.Error("failed to list attachments", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to list attachments",
		})
		return
	}

	respondJSON(w, http.StatusOK, attachments)
}

// Download godoc
// @Summary Download attachment
// @Description Stream the attachment content with its original filename
// @Tags Files
// @Produce application/octet-stream
// @Param id path string true "Attachment ID" format(uuid)
// @Success 200 {file} binary
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /files/{id}/download [get]
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid attachment ID format",
		})
		return
	}

	attachment, reader, err := h.fileService.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Attachment not found",
			})
			return
		}
		h.logger.Error("failed to download attachment", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to download attachment",
		})
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", attachment.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.Filename))
	if attachment.Size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", attachment.Size))
	}

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Warn("attachment stream interrupted",
			zap.String("attachment_id", id.String()),
			zap.Error(err))
	}
}

// Delete godoc
// @Summary Delete attachment
// @Tags Files
// @Accept json
// @Produce json
// @Param id path string true "Attachment ID" format(uuid)
// @Success 204 "No Content"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /files/{id} [delete]
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid attachment ID format",
		})
		return
	}

	if err := h.fileService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondJSON(w, http.StatusNotFound, domain.ErrorResponse{
				Error:   "Not Found",
				Message: "Attachment not found",
			})
			return
		}
		h.logger.Error("failed to delete attachment", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, domain.ErrorResponse{
			Error:   "Internal Server Error",
			Message: "Failed to delete attachment",
		})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
