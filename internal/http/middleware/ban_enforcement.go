package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/connectsphere/backend/internal/logger"
	"github.com/connectsphere/backend/internal/models"
	"github.com/connectsphere/backend/internal/service"
)

// BannedPagePath — страница "вы заблокированы", доступная всегда.
const BannedPagePath = "/banned"

// Заголовки, через которые страницы получают сведения о блокировке.
const (
	HeaderUserBanned      = "x-user-banned"
	HeaderUserBannedUntil = "x-user-banned-until"
	HeaderUserRole        = "x-user-role"
)

// Маршруты, доступные заблокированному пользователю: аутентификация,
// страница блокировки, статика и health check.
var allowedPrefixes = []string{
	"/api/auth",
	BannedPagePath,
	"/media",
	"/health",
}

// BanStateSource отдаёт проекцию блокировки пользователя.
type BanStateSource interface {
	State(ctx context.Context, userID uuid.UUID) (*models.BanState, error)
}

func allowListed(path string) bool {
	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func apiPath(path string) bool {
	return strings.HasPrefix(path, "/api/")
}

// BanEnforcement выполняется на каждом входящем запросе до хэндлера.
// Чистое чтение и ветвление, без мутаций — безопасно на ретраях.
// Запрос без сессии проходит насквозь; заблокированный пользователь
// получает 403 (API), редирект на страницу блокировки (страницы) либо
// информационные заголовки (allow-list).
func BanEnforcement(tokens *service.TokenManager, states BanStateSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.Next()
			return
		}

		userID, role, err := tokens.ParseAccess(strings.TrimPrefix(auth, "Bearer "))
		if err != nil || userID == uuid.Nil {
			// Невалидный токен отклонит AuthMiddleware, здесь не блокируем.
			c.Next()
			return
		}

		state, err := states.State(c.Request.Context(), userID)
		if err != nil {
			// Недоступность хранилища не должна отрезать всех
			// пользователей: пропускаем и логируем.
			if logger.Log != nil {
				logger.Log.WithFields(logrus.Fields{
					"user_id": userID,
					"path":    c.Request.URL.Path,
				}).WithError(err).Error("ban state lookup failed")
			}
			c.Next()
			return
		}

		now := time.Now()
		if !state.ActiveAt(now) {
			if role == models.RoleModerator {
				c.Header(HeaderUserRole, models.RoleModerator)
			}
			c.Next()
			return
		}

		path := c.Request.URL.Path
		switch {
		case allowListed(path):
			c.Header(HeaderUserBanned, "true")
			if state.Until != nil {
				c.Header(HeaderUserBannedUntil, state.Until.Format(time.RFC3339))
			}
			c.Next()
		case apiPath(path):
			body := gin.H{
				"error":  "аккаунт заблокирован",
				"reason": state.Reason,
			}
			if state.Until != nil {
				body["bannedUntil"] = state.Until.Format(time.RFC3339)
			} else {
				body["bannedUntil"] = nil
			}
			c.AbortWithStatusJSON(http.StatusForbidden, body)
		default:
			c.Redirect(http.StatusFound, BannedPagePath)
			c.Abort()
		}
	}
}
