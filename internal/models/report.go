package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	ReportStatusPending     = "pending"
	ReportStatusUnderReview = "under_review"
	ReportStatusActionTaken = "action_taken"
	ReportStatusDismissed   = "dismissed"

	ReportCategoryHarassment    = "harassment_or_bullying"
	ReportCategoryHate          = "hate_or_violence"
	ReportCategorySexual        = "sexual_or_graphic_content"
	ReportCategoryFraud         = "fraud_or_scam"
	ReportCategoryImpersonation = "impersonation"
	ReportCategorySpam          = "spam"
	ReportCategoryOther         = "other"
)

var reportStatuses = map[string]bool{
	ReportStatusPending:     true,
	ReportStatusUnderReview: true,
	ReportStatusActionTaken: true,
	ReportStatusDismissed:   true,
}

var reportCategories = map[string]bool{
	ReportCategoryHarassment:    true,
	ReportCategoryHate:          true,
	ReportCategorySexual:        true,
	ReportCategoryFraud:         true,
	ReportCategoryImpersonation: true,
	ReportCategorySpam:          true,
	ReportCategoryOther:         true,
}

// ValidReportStatus проверяет, что статус входит в закрытый набор.
func ValidReportStatus(status string) bool {
	return reportStatuses[status]
}

// ValidReportCategory проверяет, что категория входит в закрытый набор.
func ValidReportCategory(category string) bool {
	return reportCategories[category]
}

// TerminalReportStatus — статусы, фиксирующие резолюцию жалобы.
func TerminalReportStatus(status string) bool {
	return status == ReportStatusActionTaken || status == ReportStatusDismissed
}

// Report описывает жалобу пользователя на другого пользователя.
// ReportedID допускает NULL: при удалении аккаунта жалобы анонимизируются,
// но остаются доступными модераторам.
type Report struct {
	ID             int64          `db:"id" json:"id"`
	ReporterID     uuid.UUID      `db:"reporter_id" json:"reporter_id"`
	ReportedID     *uuid.UUID     `db:"reported_id" json:"reported_id,omitempty"`
	Category       string         `db:"category" json:"category"`
	Description    *string        `db:"description" json:"description,omitempty"`
	EvidenceURLs   pq.StringArray `db:"evidence_urls" json:"evidence_urls"`
	Status         string         `db:"status" json:"status"`
	ResolutionNote *string        `db:"resolution_note" json:"resolution_note,omitempty"`
	ResolvedBy     *uuid.UUID     `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time     `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// ReportWithUsers — жалоба, обогащённая профилями участников для дашборда.
type ReportWithUsers struct {
	Report
	Reporter *UserSummary `json:"reporter,omitempty"`
	Reported *UserSummary `json:"reported,omitempty"`
}
