package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/payhub-app/payhub-api/internal/auth"
	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/repository"
	"github.com/payhub-app/payhub-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrFileTooLarge is returned when an upload exceeds the configured limit
var ErrFileTooLarge = errors.New("Файл превышает допустимый размер")

// FileService manages attachments bound to invoices and payments. Bytes
// live in object storage, metadata in the attachments table.
type FileService struct {
	attachmentRepo *repository.AttachmentRepository
	store          storage.Storage
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewFileService(
	attachmentRepo *repository.AttachmentRepository,
	store storage.Storage,
	maxUploadSizeMB int64,
	logger *zap.Logger,
) *FileService {
	return &FileService{
		attachmentRepo: attachmentRepo,
		store:          store,
		maxUploadBytes: maxUploadSizeMB * 1024 * 1024,
		logger:         logger,
	}
}

// Upload stores the file and records its metadata. The folder is derived
// from the owning entity type.
func (s *FileService) Upload(ctx context.Context, entityType domain.WorkflowEntityType, entityID uuid.UUID, filename, contentType string, size int64, data io.Reader) (*domain.AttachmentDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	if s.maxUploadBytes > 0 && size > s.maxUploadBytes {
		return nil, ErrFileTooLarge
	}

	folder := domain.FolderInvoices
	if entityType == domain.WorkflowEntityPayment {
		folder = domain.FolderPayments
	}

	storagePath, written, err := s.store.Upload(ctx, domain.BucketAttachments, folder, filename, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	attachment := &domain.Attachment{
		EntityType:  entityType,
		EntityID:    entityID,
		Filename:    filename,
		ContentType: contentType,
		Size:        written,
		Bucket:      domain.BucketAttachments,
		StoragePath: storagePath,
		UploadedBy:  userCtx.UserID,
	}

	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		// Orphaned object cleanup; the metadata row is the source of truth
		if delErr := s.store.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to clean up orphaned object",
				zap.String("storage_path", storagePath),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}

	s.logger.Info("файл загружен",
		zap.String("attachment_id", attachment.ID.String()),
		zap.String("entity_type", string(entityType)),
		zap.String("entity_id", entityID.String()),
		zap.String("filename", filename),
		zap.Int64("size", written),
	)

	dto := domain.ToAttachmentDTO(attachment)
	return &dto, nil
}

// Download streams the file bytes. The caller must close the reader.
func (s *FileService) Download(ctx context.Context, id uuid.UUID) (*domain.Attachment, io.ReadCloser, error) {
	attachment, err := s.attachmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get attachment: %w", err)
	}

	reader, err := s.store.Download(ctx, attachment.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download file: %w", err)
	}
	return attachment, reader, nil
}

func (s *FileService) ListForEntity(ctx context.Context, entityType domain.WorkflowEntityType, entityID uuid.UUID) ([]domain.AttachmentDTO, error) {
	attachments, err := s.attachmentRepo.ListForEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	dtos := make([]domain.AttachmentDTO, len(attachments))
	for i := range attachments {
		dtos[i] = domain.ToAttachmentDTO(&attachments[i])
	}
	return dtos, nil
}

// Delete removes the metadata row and the stored object
func (s *FileService) Delete(ctx context.Context, id uuid.UUID) error {
	attachment, err := s.attachmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get attachment: %w", err)
	}

	if err := s.attachmentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	if err := s.store.Delete(ctx, attachment.StoragePath); err != nil {
		s.logger.Warn("failed to delete stored object",
			zap.String("storage_path", attachment.StoragePath),
			zap.Error(err),
		)
	}

	s.logger.Info("файл удален",
		zap.String("attachment_id", id.String()),
		zap.String("filename", attachment.Filename),
	)
	return nil
}
