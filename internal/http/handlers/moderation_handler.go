package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/connectsphere/backend/internal/dto"
	"github.com/connectsphere/backend/internal/http/handlers/common"
	"github.com/connectsphere/backend/internal/models"
	"github.com/connectsphere/backend/internal/service"
)

// ModerationHandler обслуживает очередь жалоб и блокировки.
// Все маршруты закрыты RequireModerator.
type ModerationHandler struct {
	reports *service.ReportService
	bans    *service.BanService
}

// NewModerationHandler создаёт новый хэндлер.
func NewModerationHandler(reports *service.ReportService, bans *service.BanService) *ModerationHandler {
	return &ModerationHandler{reports: reports, bans: bans}
}

// ListReports обрабатывает GET /api/moderation/reports?status=.
func (h *ModerationHandler) ListReports(c *gin.Context) {
	status := c.Query("status")

	reports, err := h.reports.List(c.Request.Context(), status)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	if reports == nil {
		reports = []models.ReportWithUsers{}
	}

	c.JSON(http.StatusOK, dto.ReportListResponse{Reports: reports})
}

// UpdateReport обрабатывает PATCH /api/moderation/reports.
func (h *ModerationHandler) UpdateReport(c *gin.Context) {
	moderatorID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.reports.Transition(c.Request.Context(), moderatorID, req.ReportID, req.Status, req.ResolutionNote); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK)
}

// ListBans обрабатывает GET /api/moderation/bans?status=active.
func (h *ModerationHandler) ListBans(c *gin.Context) {
	bans, setupRequired, err := h.bans.ListActive(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	if bans == nil {
		bans = []models.Ban{}
	}

	c.JSON(http.StatusOK, dto.BanListResponse{Bans: bans, SetupRequired: setupRequired})
}

// IssueBan обрабатывает POST /api/moderation/bans.
func (h *ModerationHandler) IssueBan(c *gin.Context) {
	moderatorID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.IssueBanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		common.RespondBadRequest(c, "неверный формат идентификатора пользователя")
		return
	}

	if _, err := h.bans.Issue(c.Request.Context(), moderatorID, service.IssueBanInput{
		UserID:    userID,
		Reason:    req.Reason,
		ExpiresAt: req.ExpiresAt,
	}); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusCreated)
}

// LiftBan обрабатывает PATCH /api/moderation/bans.
func (h *ModerationHandler) LiftBan(c *gin.Context) {
	moderatorID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.LiftBanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	banID, err := uuid.Parse(req.BanID)
	if err != nil {
		common.RespondBadRequest(c, "неверный формат идентификатора блокировки")
		return
	}

	if err := h.bans.Lift(c.Request.Context(), moderatorID, banID, req.LiftReason); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK)
}
