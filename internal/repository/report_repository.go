package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/connectsphere/backend/internal/models"
)

// ErrReportNotFound возвращается, когда жалоба не найдена.
var ErrReportNotFound = errors.New("report not found")

// ReportRepository отвечает за работу с таблицей reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository создаёт экземпляр репозитория.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create вставляет новую жалобу. Статус выставляет БД (pending),
// что бы ни пришло от клиента.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (reporter_id, reported_id, category, description, evidence_urls)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		report.ReporterID, report.ReportedID, report.Category, report.Description, report.EvidenceURLs,
	).Scan(&report.ID, &report.Status, &report.CreatedAt); err != nil {
		return fmt.Errorf("report repository: create %w", err)
	}

	return nil
}

// GetByID возвращает жалобу по идентификатору.
func (r *ReportRepository) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	var report models.Report
	err := r.db.GetContext(ctx, &report, `SELECT * FROM reports WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("report repository: get by id %w", err)
	}
	return &report, nil
}

// reportUserRow — плоская строка для выборки жалобы вместе с профилями участников.
type reportUserRow struct {
	models.Report
	ReporterUsername    *string    `db:"reporter_username"`
	ReporterDisplayName *string    `db:"reporter_display_name"`
	ReporterAvatarURL   *string    `db:"reporter_avatar_url"`
	ReportedUsername    *string    `db:"reported_username"`
	ReportedDisplayName *string    `db:"reported_display_name"`
	ReportedAvatarURL   *string    `db:"reported_avatar_url"`
}

func (row *reportUserRow) toReportWithUsers() models.ReportWithUsers {
	result := models.ReportWithUsers{Report: row.Report}
	if row.ReporterUsername != nil {
		result.Reporter = &models.UserSummary{
			ID:          row.ReporterID,
			Username:    *row.ReporterUsername,
			DisplayName: deref(row.ReporterDisplayName),
			AvatarURL:   row.ReporterAvatarURL,
		}
	}
	// Reported может отсутствовать: аккаунт удалён, жалоба анонимизирована.
	if row.ReportedID != nil && row.ReportedUsername != nil {
		result.Reported = &models.UserSummary{
			ID:          *row.ReportedID,
			Username:    *row.ReportedUsername,
			DisplayName: deref(row.ReportedDisplayName),
			AvatarURL:   row.ReportedAvatarURL,
		}
	}
	return result
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// List возвращает жалобы, новые первыми, с обогащением профилями.
// Пустой status означает "все статусы".
func (r *ReportRepository) List(ctx context.Context, status string, limit int) ([]models.ReportWithUsers, error) {
	query := `
		SELECT r.id, r.reporter_id, r.reported_id, r.category, r.description, r.evidence_urls,
			r.status, r.resolution_note, r.resolved_by, r.resolved_at, r.created_at,
			ru.username AS reporter_username, ru.display_name AS reporter_display_name, ru.avatar_url AS reporter_avatar_url,
			du.username AS reported_username, du.display_name AS reported_display_name, du.avatar_url AS reported_avatar_url
		FROM reports r
		JOIN users ru ON ru.id = r.reporter_id
		LEFT JOIN users du ON du.id = r.reported_id
	`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE r.status = $1 ORDER BY r.created_at DESC LIMIT $2`
		args = append(args, status, limit)
	} else {
		query += ` ORDER BY r.created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	var rows []reportUserRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("report repository: list %w", err)
	}

	reports := make([]models.ReportWithUsers, 0, len(rows))
	for i := range rows {
		reports = append(reports, rows[i].toReportWithUsers())
	}
	return reports, nil
}

// ListByReporter возвращает жалобы, поданные пользователем.
func (r *ReportRepository) ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.Report, error) {
	var reports []models.Report
	err := r.db.SelectContext(ctx, &reports, `
		SELECT * FROM reports WHERE reporter_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, reporterID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("report repository: list by reporter %w", err)
	}
	return reports, nil
}

// UpdateStatus — единственная точка записи полей status/resolution_note/
// resolved_by/resolved_at. Терминальные статусы фиксируют резолюцию,
// остальные очищают её.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id int64, status string, note *string, resolvedBy *uuid.UUID, resolvedAt *time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE reports
		SET status = $2, resolution_note = $3, resolved_by = $4, resolved_at = $5
		WHERE id = $1
	`, id, status, note, resolvedBy, resolvedAt)
	if err != nil {
		return fmt.Errorf("report repository: update status %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("report repository: update status rows affected %w", err)
	}
	if affected == 0 {
		return ErrReportNotFound
	}
	return nil
}
