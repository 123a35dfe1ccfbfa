package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestModerationHandler_UpdateReport_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ModerationHandler{}
	r.PATCH("/moderation/reports", handler.UpdateReport)

	req, _ := http.NewRequest("PATCH", "/moderation/reports", strings.NewReader(`{"reportId":1,"status":"under_review"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestModerationHandler_IssueBan_InvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	handler := &ModerationHandler{}
	r.POST("/moderation/bans", handler.IssueBan)

	req, _ := http.NewRequest("POST", "/moderation/bans", strings.NewReader(`{"userId":"not-a-uuid"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModerationHandler_LiftBan_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ModerationHandler{}
	r.PATCH("/moderation/bans", handler.LiftBan)

	req, _ := http.NewRequest("PATCH", "/moderation/bans", strings.NewReader(`{"banId":"`+uuid.New().String()+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandler_Submit_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReportHandler{}
	r.POST("/reports", handler.Submit)

	req, _ := http.NewRequest("POST", "/reports", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandler_Submit_InvalidReportedID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	handler := &ReportHandler{}
	r.POST("/reports", handler.Submit)

	req, _ := http.NewRequest("POST", "/reports", strings.NewReader(`{"reportedUserId":"bad","category":"spam"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
