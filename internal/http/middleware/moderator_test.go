package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/connectsphere/backend/internal/models"
)

func newModeratorRouter(role string, withRole bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if withRole {
		r.Use(func(c *gin.Context) {
			c.Set(ContextRoleKey, role)
			c.Next()
		})
	}
	r.Use(RequireModerator())
	r.GET("/moderation/reports", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRequireModerator_NoRole(t *testing.T) {
	r := newModeratorRouter("", false)

	req, _ := http.NewRequest("GET", "/moderation/reports", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireModerator_RegularUser(t *testing.T) {
	r := newModeratorRouter(models.RoleUser, true)

	req, _ := http.NewRequest("GET", "/moderation/reports", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireModerator_Moderator(t *testing.T) {
	r := newModeratorRouter(models.RoleModerator, true)

	req, _ := http.NewRequest("GET", "/moderation/reports", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
