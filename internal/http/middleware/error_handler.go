package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/connectsphere/backend/internal/logger"
	"github.com/connectsphere/backend/internal/pkg/apperror"
	"github.com/connectsphere/backend/internal/repository"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Маскирует внутренние ошибки и возвращает понятные сообщения клиенту.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()

		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Request error")
		}

		statusCode := http.StatusInternalServerError
		message := "внутренняя ошибка сервера"

		if appErr, ok := apperror.AsAppError(err.Err); ok {
			statusCode = appErr.HTTPStatus
			message = appErr.Message
		} else if errors.Is(err.Err, repository.ErrUserNotFound) {
			statusCode = http.StatusNotFound
			message = "пользователь не найден"
		} else if errors.Is(err.Err, repository.ErrReportNotFound) {
			statusCode = http.StatusNotFound
			message = "жалоба не найдена"
		} else if errors.Is(err.Err, repository.ErrBanNotFound) {
			statusCode = http.StatusNotFound
			message = "блокировка не найдена"
		}

		c.JSON(statusCode, gin.H{"error": message})
	}
}
