package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/connectsphere/backend/internal/cache"
	"github.com/connectsphere/backend/internal/config"
	"github.com/connectsphere/backend/internal/db"
	httpHandlers "github.com/connectsphere/backend/internal/http/handlers"
	httpRouter "github.com/connectsphere/backend/internal/http/router"
	"github.com/connectsphere/backend/internal/logger"
	"github.com/connectsphere/backend/internal/repository"
	"github.com/connectsphere/backend/internal/service"
	"github.com/connectsphere/backend/internal/storage"
	"github.com/connectsphere/backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	evidenceStorage, err := storage.NewEvidenceStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Кэш проекции блокировок. Без Redis читаем проекцию напрямую из БД.
	var banCache service.BanStateCache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewBanStateCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.BanCacheTTL)
		if err != nil {
			log.Fatalf("main: ошибка подключения к Redis: %v", err)
		}
		defer redisCache.Close()
		banCache = redisCache
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	reportRepo := repository.NewReportRepository(dbConn)
	banRepo := repository.NewBanRepository(dbConn)

	// Вебсокеты — лента событий модерации.
	hub := ws.NewHub(ctx)
	go hub.Run()

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	reportService := service.NewReportService(reportRepo, userRepo, hub)
	banService := service.NewBanService(banRepo, userRepo, banCache, hub)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	userHandler := httpHandlers.NewUserHandler(userRepo)
	reportHandler := httpHandlers.NewReportHandler(reportService)
	moderationHandler := httpHandlers.NewModerationHandler(reportService, banService)
	mediaHandler := httpHandlers.NewMediaHandler(evidenceStorage)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, userHandler, reportHandler, moderationHandler, mediaHandler, wsHandler, healthHandler, tokenManager, banService)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
