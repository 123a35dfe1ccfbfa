package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	// BanReasonDefault используется, если модератор не указал причину.
	BanReasonDefault = "Violation of community guidelines"
	// LiftReasonSuperseded проставляется при автоматическом закрытии
	// предыдущей блокировки в момент выдачи новой.
	LiftReasonSuperseded = "Superseded by moderator"
	// LiftReasonDefault используется при досрочном снятии без причины.
	LiftReasonDefault = "Lifted by moderator"
)

// Ban описывает запись о блокировке пользователя.
type Ban struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	Reason     *string    `db:"reason" json:"reason,omitempty"`
	CreatedBy  uuid.UUID  `db:"created_by" json:"created_by"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt  *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	LiftedAt   *time.Time `db:"lifted_at" json:"lifted_at,omitempty"`
	LiftedBy   *uuid.UUID `db:"lifted_by" json:"lifted_by,omitempty"`
	LiftReason *string    `db:"lift_reason" json:"lift_reason,omitempty"`
}

// ActiveAt сообщает, действует ли блокировка в момент now.
// "Активность" — вычисляемый предикат, а не хранимое состояние: истёкшая
// блокировка перестаёт действовать без отдельной записи о снятии.
func (b *Ban) ActiveAt(now time.Time) bool {
	if b.LiftedAt != nil {
		return false
	}
	return b.ExpiresAt == nil || b.ExpiresAt.After(now)
}
