package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/connectsphere/backend/internal/models"
)

// RequireModerator пропускает только модераторов. Ставится после
// AuthMiddleware и срабатывает до хэндлера, поэтому ни одна мутация
// модерации не начнётся без проверки прав.
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get(ContextRoleKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}

		role, ok := raw.(string)
		if !ok || role != models.RoleModerator {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "требуются права модератора"})
			return
		}

		c.Next()
	}
}
