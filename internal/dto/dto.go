package dto

import (
	"github.com/connectsphere/backend/internal/models"
	"github.com/connectsphere/backend/internal/service"
)

// ErrorResponse — единый формат тела ошибки.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse — единый формат успешной мутации.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// AuthResponse — ответ register/login/refresh.
type AuthResponse struct {
	User   *models.User       `json:"user"`
	Tokens *service.TokenPair `json:"tokens"`
}

// SubmitReportRequest — тело POST /api/reports.
type SubmitReportRequest struct {
	ReportedUserID string   `json:"reportedUserId" binding:"required,uuid"`
	Category       string   `json:"category" binding:"required"`
	Description    *string  `json:"description"`
	EvidenceURLs   []string `json:"evidenceUrls"`
}

// UpdateReportRequest — тело PATCH /api/moderation/reports.
type UpdateReportRequest struct {
	ReportID       int64   `json:"reportId" binding:"required"`
	Status         string  `json:"status" binding:"required"`
	ResolutionNote *string `json:"resolutionNote"`
}

// IssueBanRequest — тело POST /api/moderation/bans.
type IssueBanRequest struct {
	UserID    string  `json:"userId" binding:"required,uuid"`
	Reason    *string `json:"reason"`
	ExpiresAt *string `json:"expiresAt"`
}

// LiftBanRequest — тело PATCH /api/moderation/bans.
type LiftBanRequest struct {
	BanID      string  `json:"banId" binding:"required,uuid"`
	LiftReason *string `json:"liftReason"`
}

// ReportListResponse — тело ответа GET /api/moderation/reports.
type ReportListResponse struct {
	Reports []models.ReportWithUsers `json:"reports"`
}

// BanListResponse — тело ответа GET /api/moderation/bans.
// SetupRequired сигнализирует, что таблицы модерации не развёрнуты.
type BanListResponse struct {
	Bans          []models.Ban `json:"bans"`
	SetupRequired bool         `json:"setupRequired,omitempty"`
}

// UploadResponse — тело ответа загрузки доказательства.
type UploadResponse struct {
	URL  string `json:"url"`
	Size int64  `json:"size"`
}
