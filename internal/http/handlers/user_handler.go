package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/connectsphere/backend/internal/http/handlers/common"
	"github.com/connectsphere/backend/internal/repository"
)

// UserHandler обслуживает просмотр профилей.
type UserHandler struct {
	users *repository.UserRepository
}

// NewUserHandler создаёт новый хэндлер.
func NewUserHandler(users *repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

// Me обрабатывает GET /api/profile — профиль текущего пользователя.
func (h *UserHandler) Me(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			common.RespondError(c, http.StatusNotFound, "пользователь не найден")
			return
		}
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetByID обрабатывает GET /api/users/:id — публичная карточка пользователя.
func (h *UserHandler) GetByID(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	summary, err := h.users.GetSummary(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			common.RespondError(c, http.StatusNotFound, "пользователь не найден")
			return
		}
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
