package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/payhub-app/payhub-api/internal/auth"
	"github.com/payhub-app/payhub-api/internal/domain"
	"github.com/payhub-app/payhub-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService отражает пользователей из токенов в локальную таблицу
// и отдает их список для назначения ролей согласования.
type UserService struct {
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo *repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, logger: logger}
}

// Me возвращает профиль текущего пользователя, создавая или обновляя
// локальную запись по данным токена.
func (s *UserService) Me(ctx context.Context) (*domain.User, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	user := &domain.User{
		ID:          userCtx.UserID,
		Email:       userCtx.Email,
		DisplayName: userCtx.DisplayName,
		Roles:       pq.StringArray(userCtx.RolesAsStrings()),
		IsActive:    true,
	}

	if err := s.userRepo.Upsert(ctx, user); err != nil {
		s.logger.Error("Не удалось сохранить профиль пользователя",
			zap.String("user_id", userCtx.UserID.String()),
			zap.Error(err))
		return nil, err
	}

	if err := s.userRepo.TouchLastLogin(ctx, userCtx.UserID); err != nil {
		s.logger.Warn("Не удалось обновить время входа",
			zap.String("user_id", userCtx.UserID.String()),
			zap.Error(err))
	}

	return s.userRepo.GetByID(ctx, userCtx.UserID)
}

// GetByID возвращает пользователя по идентификатору.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// List возвращает всех известных пользователей.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.List(ctx)
}
