package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/connectsphere/backend/internal/logger"
	"github.com/connectsphere/backend/internal/models"
	"github.com/connectsphere/backend/internal/pkg/apperror"
	"github.com/connectsphere/backend/internal/repository"
	"github.com/connectsphere/backend/internal/validation"
)

// AuthUserRepository — нужная аутентификации часть репозитория пользователей.
type AuthUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
}

// AuthService отвечает за регистрацию, вход и обновление сессии.
type AuthService struct {
	users  AuthUserRepository
	tokens *TokenManager
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users AuthUserRepository, tokens *TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register создаёт пользователя и выпускает пару токенов.
func (s *AuthService) Register(ctx context.Context, email, username, password, displayName string) (*models.User, *TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)
	displayName = strings.TrimSpace(displayName)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInvalidArgument, err.Error())
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInvalidArgument, err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInvalidArgument, err.Error())
	}
	if displayName == "" {
		displayName = username
	}
	if err := validation.ValidateLength("имя", displayName, validation.MinDisplayNameLength, validation.MaxDisplayNameLength); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInvalidArgument, err.Error())
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, nil, apperror.New(apperror.ErrCodeConflict, "пользователь с таким email уже существует")
	} else if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось проверить email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обработать пароль")
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		DisplayName:  displayName,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать пользователя")
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токены")
	}

	if logger.Log != nil {
		logger.Log.WithField("user_id", user.ID).Info("user registered")
	}
	return user, pair, nil
}

// Login проверяет учётные данные и выпускает пару токенов.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, apperror.ErrInvalidCredentials
		}
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось найти пользователя")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apperror.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, nil, apperror.New(apperror.ErrCodeForbidden, "аккаунт деактивирован")
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токены")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		// Не критично для входа, просто логируем.
		if logger.Log != nil {
			logger.Log.WithField("user_id", user.ID).WithError(err).Warn("failed to update last login")
		}
	}

	return user, pair, nil
}

// Refresh обменивает refresh токен на новую пару.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.User, *TokenPair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "refresh токен невалиден")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "refresh токен невалиден")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, apperror.ErrUnauthorized
		}
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось найти пользователя")
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токены")
	}

	return user, pair, nil
}
