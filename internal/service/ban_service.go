package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/connectsphere/backend/internal/logger"
	"github.com/connectsphere/backend/internal/models"
	"github.com/connectsphere/backend/internal/pkg/apperror"
	"github.com/connectsphere/backend/internal/repository"
	"github.com/connectsphere/backend/internal/validation"
)

// BanRepository описывает хранилище блокировок. Issue и Lift атомарно
// поддерживают проекцию ban_reason/banned_until на строке пользователя.
type BanRepository interface {
	Issue(ctx context.Context, ban *models.Ban) error
	Lift(ctx context.Context, banID, liftedBy uuid.UUID, reason string) (uuid.UUID, bool, error)
	ListActive(ctx context.Context, limit int) ([]models.Ban, error)
}

// BanStateReader читает проекцию блокировки из хранилища пользователей.
type BanStateReader interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	GetBanState(ctx context.Context, id uuid.UUID) (*models.BanState, error)
}

// BanStateCache — необязательный кэш проекции (Redis).
type BanStateCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.BanState, bool, error)
	Set(ctx context.Context, userID uuid.UUID, state *models.BanState) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// IssueBanInput — входные данные выдачи блокировки.
type IssueBanInput struct {
	UserID    uuid.UUID
	Reason    *string
	ExpiresAt *string
}

// BanService реализует выдачу, снятие и чтение блокировок.
type BanService struct {
	bans   BanRepository
	users  BanStateReader
	cache  BanStateCache
	events EventPublisher
}

// NewBanService создаёт сервис блокировок. cache и events могут быть nil.
func NewBanService(bans BanRepository, users BanStateReader, cache BanStateCache, events EventPublisher) *BanService {
	return &BanService{bans: bans, users: users, cache: cache, events: events}
}

// parseExpiry принимает RFC3339 либо дату без времени.
func parseExpiry(raw string) (*time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	return nil, errors.New("невалидная дата окончания блокировки")
}

// Issue выдаёт блокировку: предыдущая активная закрывается автоматически
// (supersede), проекция пересчитывается в той же транзакции.
func (s *BanService) Issue(ctx context.Context, moderatorID uuid.UUID, in IssueBanInput) (*models.Ban, error) {
	if in.UserID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeInvalidArgument, "userId обязателен")
	}

	var expiresAt *time.Time
	if in.ExpiresAt != nil && *in.ExpiresAt != "" {
		parsed, err := parseExpiry(*in.ExpiresAt)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeInvalidArgument, err.Error())
		}
		expiresAt = parsed
	}

	reason := validation.NormalizeOptionalText(in.Reason)
	if reason == nil {
		fallback := models.BanReasonDefault
		reason = &fallback
	}
	if err := validation.ValidateLength("причина", *reason, 0, validation.MaxBanReasonLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInvalidArgument, err.Error())
	}

	exists, err := s.users.Exists(ctx, in.UserID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось проверить пользователя")
	}
	if !exists {
		return nil, apperror.ErrUserNotFound
	}

	ban := &models.Ban{
		UserID:    in.UserID,
		Reason:    reason,
		CreatedBy: moderatorID,
		ExpiresAt: expiresAt,
	}
	if err := s.bans.Issue(ctx, ban); err != nil {
		if logger.Log != nil {
			logger.Log.WithField("user_id", in.UserID).WithError(err).Error("ban issue failed")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выдать блокировку")
	}

	s.invalidateState(ctx, in.UserID)
	if s.events != nil {
		s.events.PublishToModerators("ban.issued", ban)
	}

	if logger.Log != nil {
		logger.Log.WithField("ban_id", ban.ID).WithField("user_id", ban.UserID).Info("ban issued")
	}
	return ban, nil
}

// Lift досрочно снимает блокировку. Повторное снятие идемпотентно.
func (s *BanService) Lift(ctx context.Context, moderatorID, banID uuid.UUID, liftReason *string) error {
	if banID == uuid.Nil {
		return apperror.New(apperror.ErrCodeInvalidArgument, "banId обязателен")
	}

	reason := validation.NormalizeOptionalText(liftReason)
	if reason == nil {
		fallback := models.LiftReasonDefault
		reason = &fallback
	}

	userID, lifted, err := s.bans.Lift(ctx, banID, moderatorID, *reason)
	if err != nil {
		if logger.Log != nil {
			logger.Log.WithField("ban_id", banID).WithError(err).Error("ban lift failed")
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось снять блокировку")
	}

	if userID != uuid.Nil {
		s.invalidateState(ctx, userID)
		if lifted && s.events != nil {
			s.events.PublishToModerators("ban.lifted", map[string]interface{}{
				"ban_id":  banID,
				"user_id": userID,
			})
		}
	}

	return nil
}

// ListActive возвращает действующие блокировки. Второй результат — признак
// отсутствия таблицы bans (миграции не применены): ошибка развёртывания,
// а не состояние данных.
func (s *BanService) ListActive(ctx context.Context) ([]models.Ban, bool, error) {
	bans, err := s.bans.ListActive(ctx, moderationPageSize)
	if err != nil {
		if repository.IsUndefinedTable(err) {
			return []models.Ban{}, true, nil
		}
		return nil, false, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить список блокировок")
	}
	return bans, false, nil
}

// State возвращает проекцию блокировки пользователя: сперва кэш, затем БД.
// Используется enforcement middleware на каждом запросе.
func (s *BanService) State(ctx context.Context, userID uuid.UUID) (*models.BanState, error) {
	if s.cache != nil {
		if state, hit, err := s.cache.Get(ctx, userID); err == nil && hit {
			return state, nil
		}
		// Ошибки кэша не фатальны — читаем из БД.
	}

	state, err := s.users.GetBanState(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Сессия указывает на несуществующего пользователя —
			// считаем его незаблокированным, доступ отрежет авторизация.
			return &models.BanState{}, nil
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, state); err != nil && logger.Log != nil {
			logger.Log.WithField("user_id", userID).WithError(err).Warn("ban state cache set failed")
		}
	}

	return state, nil
}

func (s *BanService) invalidateState(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil && logger.Log != nil {
		logger.Log.WithField("user_id", userID).WithError(err).Warn("ban state cache invalidation failed")
	}
}
