package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/connectsphere/backend/internal/models"
)

// ErrBanNotFound возвращается, когда запись о блокировке не найдена.
var ErrBanNotFound = errors.New("ban not found")

// pgUndefinedTable — код ошибки PostgreSQL "relation does not exist".
const pgUndefinedTable = "42P01"

// IsUndefinedTable распознаёт отсутствие таблицы bans: это ошибка
// развёртывания (миграции не применены), а не состояние данных.
func IsUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUndefinedTable
}

// BanRepository отвечает за таблицу bans и согласованную с ней проекцию
// ban_reason/banned_until на строке пользователя. Все мутации выполняются
// в одной транзакции, чтобы блокировка и её проекция не расходились.
type BanRepository struct {
	db *sqlx.DB
}

// NewBanRepository создаёт экземпляр репозитория.
func NewBanRepository(db *sqlx.DB) *BanRepository {
	return &BanRepository{db: db}
}

// Issue выдаёт новую блокировку: закрывает все незакрытые записи пользователя
// (supersede), вставляет новую и пересчитывает проекцию — атомарно.
// Частичный уникальный индекс на (user_id) WHERE lifted_at IS NULL служит
// защитой от гонки двух одновременных выдач.
func (r *BanRepository) Issue(ctx context.Context, ban *models.Ban) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ban repository: issue begin tx %w", err)
	}
	defer tx.Rollback()

	// Supersede: закрываем все записи с lifted_at IS NULL, даже если
	// инвариант "не более одной" нарушен и таких записей несколько.
	_, err = tx.ExecContext(ctx, `
		UPDATE bans
		SET lifted_at = NOW(), lifted_by = $2, lift_reason = $3
		WHERE user_id = $1 AND lifted_at IS NULL
	`, ban.UserID, ban.CreatedBy, models.LiftReasonSuperseded)
	if err != nil {
		return fmt.Errorf("ban repository: issue supersede %w", err)
	}

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO bans (user_id, reason, created_by, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, ban.UserID, ban.Reason, ban.CreatedBy, ban.ExpiresAt).Scan(&ban.ID, &ban.CreatedAt)
	if err != nil {
		return fmt.Errorf("ban repository: issue insert %w", err)
	}

	if err := refreshBanProjection(ctx, tx, ban.UserID); err != nil {
		return fmt.Errorf("ban repository: issue refresh projection %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ban repository: issue commit %w", err)
	}
	return nil
}

// Lift досрочно снимает блокировку. Повторное снятие идемпотентно: уже
// снятая запись не перезаписывается, но проекция пересчитывается для
// пользователя, которому принадлежит запись. Если записи нет вовсе,
// возвращается (uuid.Nil, false, nil) и проекция не трогается.
func (r *BanRepository) Lift(ctx context.Context, banID, liftedBy uuid.UUID, reason string) (uuid.UUID, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("ban repository: lift begin tx %w", err)
	}
	defer tx.Rollback()

	var userID uuid.UUID
	lifted := true
	err = tx.QueryRowxContext(ctx, `
		UPDATE bans
		SET lifted_at = NOW(), lifted_by = $2, lift_reason = $3
		WHERE id = $1 AND lifted_at IS NULL
		RETURNING user_id
	`, banID, liftedBy, reason).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		// Запись уже снята либо не существует.
		lifted = false
		err = tx.QueryRowxContext(ctx, `SELECT user_id FROM bans WHERE id = $1`, banID).Scan(&userID)
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, false, nil
		}
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("ban repository: lift %w", err)
	}

	if err := refreshBanProjection(ctx, tx, userID); err != nil {
		return uuid.Nil, false, fmt.Errorf("ban repository: lift refresh projection %w", err)
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, false, fmt.Errorf("ban repository: lift commit %w", err)
	}
	return userID, lifted, nil
}

// refreshBanProjection пересчитывает ban_reason/banned_until пользователя из
// актуальной активной блокировки. Идемпотентна: безопасно вызывать повторно.
func refreshBanProjection(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) error {
	var reason *string
	var until sql.NullTime
	err := tx.QueryRowxContext(ctx, `
		SELECT reason, expires_at FROM bans
		WHERE user_id = $1 AND lifted_at IS NULL AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY created_at DESC
		LIMIT 1
	`, userID).Scan(&reason, &until)
	if errors.Is(err, sql.ErrNoRows) {
		// Активной блокировки нет — проекция очищается.
		_, err = tx.ExecContext(ctx, `UPDATE users SET ban_reason = NULL, banned_until = NULL WHERE id = $1`, userID)
		return err
	}
	if err != nil {
		return err
	}

	// Блокировка без причины всё равно должна отражаться в проекции,
	// иначе enforcement сочтёт пользователя незаблокированным.
	if reason == nil {
		fallback := models.BanReasonDefault
		reason = &fallback
	}

	var untilValue interface{}
	if until.Valid {
		untilValue = until.Time
	}
	_, err = tx.ExecContext(ctx, `UPDATE users SET ban_reason = $2, banned_until = $3 WHERE id = $1`, userID, reason, untilValue)
	return err
}

// GetByID возвращает запись о блокировке.
func (r *BanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ban, error) {
	var ban models.Ban
	err := r.db.GetContext(ctx, &ban, `SELECT * FROM bans WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ban repository: get by id %w", err)
	}
	return &ban, nil
}

// ListActive возвращает действующие блокировки, новые первыми.
func (r *BanRepository) ListActive(ctx context.Context, limit int) ([]models.Ban, error) {
	var bans []models.Ban
	err := r.db.SelectContext(ctx, &bans, `
		SELECT * FROM bans
		WHERE lifted_at IS NULL AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		// IsUndefinedTable различает отсутствие таблицы и прочие сбои
		// и работает сквозь обёртку благодаря errors.As.
		return nil, fmt.Errorf("ban repository: list active %w", err)
	}
	return bans, nil
}

// ListByUser возвращает историю блокировок пользователя.
func (r *BanRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Ban, error) {
	var bans []models.Ban
	err := r.db.SelectContext(ctx, &bans, `
		SELECT * FROM bans WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ban repository: list by user %w", err)
	}
	return bans, nil
}
