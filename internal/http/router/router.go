package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/connectsphere/backend/internal/config"
	"github.com/connectsphere/backend/internal/http/handlers"
	"github.com/connectsphere/backend/internal/http/middleware"
	"github.com/connectsphere/backend/internal/service"
)

const bannedPage = `<!DOCTYPE html>
<html lang="ru">
<head><meta charset="utf-8"><title>Аккаунт заблокирован</title></head>
<body>
<h1>Аккаунт заблокирован</h1>
<p>Ваш аккаунт временно или навсегда заблокирован за нарушение правил сообщества.</p>
</body>
</html>`

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	reportHandler *handlers.ReportHandler,
	moderationHandler *handlers.ModerationHandler,
	mediaHandler *handlers.MediaHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
	banStates middleware.BanStateSource,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.BanEnforcement(tokenManager, banStates))

	r.GET("/health", healthHandler.Health)
	r.GET(middleware.BannedPagePath, func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(bannedPage))
	})
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// Лента модерации проверяет токен и роль сама, до апгрейда соединения
	api.GET("/moderation/ws", wsHandler.Handle)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", userHandler.Me)
		protected.GET("/users/:id", middleware.UUIDValidator("id"), userHandler.GetByID)

		reportRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
		protected.POST("/reports", reportRateLimit, reportHandler.Submit)
		protected.GET("/reports", reportHandler.ListMy)

		protected.POST("/media/evidence", mediaHandler.UploadEvidence)
	}

	// Маршруты модерации
	moderation := api.Group("/moderation")
	moderation.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireModerator())
	{
		moderation.GET("/reports", moderationHandler.ListReports)
		moderation.PATCH("/reports", moderationHandler.UpdateReport)
		moderation.GET("/bans", moderationHandler.ListBans)
		moderation.POST("/bans", moderationHandler.IssueBan)
		moderation.PATCH("/bans", moderationHandler.LiftBan)
	}

	return r
}
