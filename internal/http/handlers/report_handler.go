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

// ReportHandler обслуживает жалобы со стороны обычного пользователя.
type ReportHandler struct {
	svc *service.ReportService
}

// NewReportHandler создаёт новый хэндлер.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Submit обрабатывает POST /api/reports.
func (h *ReportHandler) Submit(c *gin.Context) {
	reporterID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	reportedID, err := uuid.Parse(req.ReportedUserID)
	if err != nil {
		common.RespondBadRequest(c, "неверный формат идентификатора пользователя")
		return
	}

	if _, err := h.svc.Submit(c.Request.Context(), reporterID, service.SubmitReportInput{
		ReportedUserID: reportedID,
		Category:       req.Category,
		Description:    req.Description,
		EvidenceURLs:   req.EvidenceURLs,
	}); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusCreated)
}

// ListMy обрабатывает GET /api/reports — жалобы текущего пользователя.
func (h *ReportHandler) ListMy(c *gin.Context) {
	reporterID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.GetPagination(c)
	reports, err := h.svc.ListMy(c.Request.Context(), reporterID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
