package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/connectsphere/backend/internal/models"
	"github.com/connectsphere/backend/internal/service"
)

type mockBanStates struct {
	mock.Mock
}

func (m *mockBanStates) State(ctx context.Context, userID uuid.UUID) (*models.BanState, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BanState), args.Error(1)
}

func newTestTokens() *service.TokenManager {
	return service.NewTokenManager("test-access-secret", "test-refresh-secret", time.Hour, 24*time.Hour)
}

func accessTokenFor(t *testing.T, tokens *service.TokenManager, userID uuid.UUID, role string) string {
	t.Helper()
	pair, err := tokens.GeneratePair(&models.User{ID: userID, Role: role})
	assert.NoError(t, err)
	return pair.AccessToken
}

func newEnforcedRouter(tokens *service.TokenManager, states BanStateSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(BanEnforcement(tokens, states))
	handler := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	r.GET("/api/feed", handler)
	r.GET("/api/auth/me", handler)
	r.GET("/profile-page", handler)
	return r
}

func TestBanEnforcement_NoTokenPassesThrough(t *testing.T) {
	states := new(mockBanStates)
	r := newEnforcedRouter(newTestTokens(), states)

	req, _ := http.NewRequest("GET", "/api/feed", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	states.AssertNotCalled(t, "State", mock.Anything, mock.Anything)
}

func TestBanEnforcement_NotBannedPassesThrough(t *testing.T) {
	tokens := newTestTokens()
	states := new(mockBanStates)
	userID := uuid.New()
	states.On("State", mock.Anything, userID).Return(&models.BanState{}, nil)

	r := newEnforcedRouter(tokens, states)
	req, _ := http.NewRequest("GET", "/api/feed", nil)
	req.Header.Set("Authorization", "Bearer "+accessTokenFor(t, tokens, userID, models.RoleUser))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(HeaderUserBanned))
}

func TestBanEnforcement_ActiveBanAPIRejected(t *testing.T) {
	tokens := newTestTokens()
	states := new(mockBanStates)
	userID := uuid.New()
	reason := "спам"
	until := time.Now().Add(time.Hour).Truncate(time.Second)
	states.On("State", mock.Anything, userID).Return(&models.BanState{Reason: &reason, Until: &until}, nil)

	r := newEnforcedRouter(tokens, states)
	req, _ := http.NewRequest("GET", "/api/feed", nil)
	req.Header.Set("Authorization", "Bearer "+accessTokenFor(t, tokens, userID, models.RoleUser))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "аккаунт заблокирован", body["error"])
	assert.Equal(t, reason, body["reason"])
	assert.Equal(t, until.Format(time.RFC3339), body["bannedUntil"])
}

func TestBanEnforcement_PermanentBanHasNullUntil(t *testing.T) {
	tokens := newTestTokens()
	states := new(mockBanStates)
	userID := uuid.New()
	reason := "спам"
	states.On("State", mock.Anything, userID).Return(&models.BanState{Reason: &reason}, nil)

	r := newEnforcedRouter(tokens, states)
	req, _ := http.NewRequest("GET", "/api/feed", nil)
	req.Header.Set("Authorization", "Bearer "+accessTokenFor(t, tokens, userID, models.RoleUser))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Nil(t, body["bannedUntil"])
}

func TestBanEnforcement_ActiveBanPageRedirected(t *testing.T) {
	tokens := newTestTokens()
	states := new(mockBanStates)
	userID := uuid.New()
	reason := "спам"
	states.On("State", mock.Anything, userID).Return(&models.BanState{Reason: &reason}, nil)

	r := newEnforcedRouter(tokens, states)
	req, _ := http.NewRequest("GET", "/profile-page", nil)
	req.Header.Set("Authorization", "Bearer "+accessTokenFor(t, tokens, userID, models.RoleUser))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, BannedPagePath, w.Header().Get("Location"))
}

func TestBanEnforcement_ActiveBanAllowListedGetsHeaders(t *testing.T) {
	tokens := newTestTokens()
	states := new(mockBanStates)
	userID := uuid.New()
	reason := "спам"
	until := time.Now().Add(time.Hour).Truncate(time.Second)
	states.On("State", mock.Anything, userID).Return(&models.BanState{Reason: &reason, Until: &until}, nil)

	r := newEnforcedRouter(tokens, states)
	req, _ := http.NewRequest("GET", "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+accessTokenFor(t, tokens, userID, models.RoleUser))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get(HeaderUserBanned))
	assert.Equal(t, until.Format(time.RFC3339), w.Header().Get(HeaderUserBannedUntil))
}

func TestBanEnforcement_ExpiredBanPassesThrough(t *testing.T) {
	tokens := newTestTokens()
	states := new(mockBanStates)
	userID := uuid.New()
	reason := "спам"
	until := time.Now().Add(-time.Hour)
	states.On("State", mock.Anything, userID).Return(&models.BanState{Reason: &reason, Until: &until}, nil)

	r := newEnforcedRouter(tokens, states)
	req, _ := http.NewRequest("GET", "/api/feed", nil)
	req.Header.Set("Authorization", "Bearer "+accessTokenFor(t, tokens, userID, models.RoleUser))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBanEnforcement_ModeratorGetsRoleHeader(t *testing.T) {
	tokens := newTestTokens()
	states := new(mockBanStates)
	userID := uuid.New()
	states.On("State", mock.Anything, userID).Return(&models.BanState{}, nil)

	r := newEnforcedRouter(tokens, states)
	req, _ := http.NewRequest("GET", "/api/feed", nil)
	req.Header.Set("Authorization", "Bearer "+accessTokenFor(t, tokens, userID, models.RoleModerator))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleModerator, w.Header().Get(HeaderUserRole))
}

func TestBanEnforcement_StateLookupFailureFailsOpen(t *testing.T) {
	tokens := newTestTokens()
	states := new(mockBanStates)
	userID := uuid.New()
	states.On("State", mock.Anything, userID).Return(nil, errors.New("db down"))

	r := newEnforcedRouter(tokens, states)
	req, _ := http.NewRequest("GET", "/api/feed", nil)
	req.Header.Set("Authorization", "Bearer "+accessTokenFor(t, tokens, userID, models.RoleUser))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBanEnforcement_InvalidTokenPassesThrough(t *testing.T) {
	states := new(mockBanStates)
	r := newEnforcedRouter(newTestTokens(), states)

	req, _ := http.NewRequest("GET", "/api/feed", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	states.AssertNotCalled(t, "State", mock.Anything, mock.Anything)
}
