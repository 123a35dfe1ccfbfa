package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
)

// User описывает сущность пользователя платформы.
// Поля BanReason/BannedUntil — денормализованная проекция активной блокировки,
// обновляется атомарно вместе с записями в таблице bans.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	DisplayName  string     `db:"display_name" json:"display_name"`
	Bio          *string    `db:"bio" json:"bio,omitempty"`
	AvatarURL    *string    `db:"avatar_url" json:"avatar_url,omitempty"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	BanReason    *string    `db:"ban_reason" json:"ban_reason,omitempty"`
	BannedUntil  *time.Time `db:"banned_until" json:"banned_until,omitempty"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// UserSummary — облегчённая проекция профиля для обогащения списков жалоб.
type UserSummary struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	DisplayName string    `db:"display_name" json:"display_name"`
	AvatarURL   *string   `db:"avatar_url" json:"avatar_url,omitempty"`
}

// BanState — проекция состояния блокировки пользователя.
type BanState struct {
	Reason *string    `json:"reason"`
	Until  *time.Time `json:"until"`
}

// ActiveAt сообщает, действует ли блокировка в момент now.
// Истечение срока не требует отдельной записи: блокировка перестаёт
// действовать сама, как только now превышает Until.
func (s *BanState) ActiveAt(now time.Time) bool {
	if s == nil || s.Reason == nil {
		return false
	}
	return s.Until == nil || s.Until.After(now)
}
