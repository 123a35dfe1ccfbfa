package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/connectsphere/backend/internal/models"
	"github.com/connectsphere/backend/internal/pkg/apperror"
	"github.com/connectsphere/backend/internal/repository"
)

// mockAuthRepository реализует AuthUserRepository для тестов.
type mockAuthRepository struct {
	usersByEmail map[string]*models.User
	usersByID    map[uuid.UUID]*models.User
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[uuid.UUID]*models.User),
	}
}

func (m *mockAuthRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.IsActive = true
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockAuthRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	if user, ok := m.usersByID[id]; ok {
		now := time.Now()
		user.LastLoginAt = &now
	}
	return nil
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	repo := newMockAuthRepository()
	tokenManager := NewTokenManager("access", "refresh", time.Minute, time.Hour)
	service := NewAuthService(repo, tokenManager)

	ctx := context.Background()
	user, pair, err := service.Register(ctx, "test@example.com", "testuser", "password123", "")
	if err != nil {
		t.Fatalf("register вернул ошибку: %v", err)
	}

	if user.ID == uuid.Nil {
		t.Fatalf("user ID должен быть установлен")
	}
	if user.Role != models.RoleUser {
		t.Fatalf("новый пользователь должен получать роль user, получили %q", user.Role)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("ожидалась пара токенов")
	}

	loginUser, loginPair, err := service.Login(ctx, "test@example.com", "password123")
	if err != nil {
		t.Fatalf("login вернул ошибку: %v", err)
	}
	if loginUser.ID != user.ID {
		t.Fatalf("login вернул другого пользователя")
	}
	if loginPair.AccessToken == "" {
		t.Fatalf("ожидался access токен")
	}
	if loginUser.LastLoginAt == nil {
		t.Fatalf("last_login_at должен обновляться при входе")
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := newMockAuthRepository()
	tokenManager := NewTokenManager("access", "refresh", time.Minute, time.Hour)
	service := NewAuthService(repo, tokenManager)

	ctx := context.Background()
	if _, _, err := service.Register(ctx, "user@example.com", "someuser", "password123", ""); err != nil {
		t.Fatalf("register вернул ошибку: %v", err)
	}

	_, _, err := service.Login(ctx, "user@example.com", "wrong-password")
	if err != apperror.ErrInvalidCredentials {
		t.Fatalf("ожидалась ошибка неверных учётных данных, получили %v", err)
	}
}

func TestAuthService_Refresh(t *testing.T) {
	repo := newMockAuthRepository()
	tokenManager := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	service := NewAuthService(repo, tokenManager)

	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		Username:     "someuser",
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		IsActive:     true,
	}
	repo.usersByEmail[user.Email] = user
	repo.usersByID[user.ID] = user

	tokenPair, err := tokenManager.GeneratePair(user)
	if err != nil {
		t.Fatalf("не удалось сгенерировать токены: %v", err)
	}

	refreshedUser, newPair, err := service.Refresh(ctx, tokenPair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh вернул ошибку: %v", err)
	}
	if refreshedUser.ID != user.ID {
		t.Fatalf("refresh вернул другого пользователя")
	}
	if newPair.AccessToken == "" {
		t.Fatalf("ожидался новый access токен")
	}
}
