package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/connectsphere/backend/internal/logger"
	"github.com/connectsphere/backend/internal/models"
	"github.com/connectsphere/backend/internal/pkg/apperror"
	"github.com/connectsphere/backend/internal/repository"
	"github.com/connectsphere/backend/internal/validation"
)

// Максимальный размер страницы дашборда модератора.
const moderationPageSize = 200

// ReportRepository описывает хранилище жалоб.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id int64) (*models.Report, error)
	List(ctx context.Context, status string, limit int) ([]models.ReportWithUsers, error)
	ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.Report, error)
	UpdateStatus(ctx context.Context, id int64, status string, note *string, resolvedBy *uuid.UUID, resolvedAt *time.Time) error
}

// UserDirectory — нужная жалобам часть репозитория пользователей.
type UserDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// EventPublisher рассылает события модерации подключённым модераторам.
// Доставка best-effort: сбои не влияют на результат операции.
type EventPublisher interface {
	PublishToModerators(event string, data interface{})
}

// SubmitReportInput — входные данные подачи жалобы.
type SubmitReportInput struct {
	ReportedUserID uuid.UUID
	Category       string
	Description    *string
	EvidenceURLs   []string
}

// ReportService реализует подачу жалоб и их жизненный цикл.
type ReportService struct {
	repo   ReportRepository
	users  UserDirectory
	events EventPublisher
}

// NewReportService создаёт сервис жалоб.
func NewReportService(repo ReportRepository, users UserDirectory, events EventPublisher) *ReportService {
	return &ReportService{repo: repo, users: users, events: events}
}

// Submit принимает жалобу от любого авторизованного пользователя.
// Статус всегда pending, что бы ни прислал клиент.
func (s *ReportService) Submit(ctx context.Context, reporterID uuid.UUID, in SubmitReportInput) (*models.Report, error) {
	if in.ReportedUserID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeInvalidArgument, "reportedUserId обязателен")
	}
	if in.ReportedUserID == reporterID {
		return nil, apperror.ErrSelfReport
	}
	if !models.ValidReportCategory(in.Category) {
		return nil, apperror.New(apperror.ErrCodeInvalidArgument, "неизвестная категория жалобы")
	}

	description := validation.NormalizeOptionalText(in.Description)
	if description != nil {
		if err := validation.ValidateLength("описание", *description, 0, validation.MaxReportDescriptionLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeInvalidArgument, err.Error())
		}
	}

	evidence, err := validation.NormalizeEvidenceURLs(in.EvidenceURLs)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInvalidArgument, err.Error())
	}

	exists, err := s.users.Exists(ctx, in.ReportedUserID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось проверить пользователя")
	}
	if !exists {
		return nil, apperror.ErrUserNotFound
	}

	reportedID := in.ReportedUserID
	report := &models.Report{
		ReporterID:   reporterID,
		ReportedID:   &reportedID,
		Category:     in.Category,
		Description:  description,
		EvidenceURLs: pq.StringArray(evidence),
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить жалобу")
	}

	if s.events != nil {
		s.events.PublishToModerators("report.created", report)
	}

	if logger.Log != nil {
		logger.Log.WithField("report_id", report.ID).Info("report submitted")
	}
	return report, nil
}

// List возвращает жалобы для дашборда модератора, новые первыми.
// Пустой статус означает "все"; невалидный отклоняется.
func (s *ReportService) List(ctx context.Context, status string) ([]models.ReportWithUsers, error) {
	if status != "" && !models.ValidReportStatus(status) {
		return nil, apperror.New(apperror.ErrCodeInvalidArgument, "неизвестный статус жалобы")
	}

	reports, err := s.repo.List(ctx, status, moderationPageSize)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить список жалоб")
	}
	return reports, nil
}

// ListMy возвращает жалобы, поданные пользователем.
func (s *ReportService) ListMy(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.Report, error) {
	reports, err := s.repo.ListByReporter(ctx, reporterID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить список жалоб")
	}
	return reports, nil
}

// Transition переводит жалобу в новый статус. Единственная точка записи
// status/resolution_note/resolved_by/resolved_at: терминальные статусы
// (action_taken, dismissed) фиксируют резолюцию, остальные очищают её.
func (s *ReportService) Transition(ctx context.Context, moderatorID uuid.UUID, reportID int64, status string, note *string) error {
	if !models.ValidReportStatus(status) {
		return apperror.New(apperror.ErrCodeInvalidArgument, "неизвестный статус жалобы")
	}

	note = validation.NormalizeOptionalText(note)
	if note != nil {
		if err := validation.ValidateLength("резолюция", *note, 0, validation.MaxResolutionNoteLength); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeInvalidArgument, err.Error())
		}
	}

	var resolvedBy *uuid.UUID
	var resolvedAt *time.Time
	if models.TerminalReportStatus(status) {
		now := time.Now()
		resolvedBy = &moderatorID
		resolvedAt = &now
	}

	if err := s.repo.UpdateStatus(ctx, reportID, status, note, resolvedBy, resolvedAt); err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return apperror.ErrReportNotFound
		}
		if logger.Log != nil {
			logger.Log.WithField("report_id", reportID).WithError(err).Error("report transition failed")
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обновить жалобу")
	}

	return nil
}
