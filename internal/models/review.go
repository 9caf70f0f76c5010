package models

import (
	"time"

	"github.com/google/uuid"
)

// Review описывает отзыв заказчика об исполнителе по завершённому заказу.
type Review struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OrderID   uuid.UUID `db:"order_id" json:"order_id"`
	AuthorID  uuid.UUID `db:"author_id" json:"author_id"`
	TargetID  uuid.UUID `db:"target_id" json:"target_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RatingSummary содержит агрегат по отзывам пользователя.
// Пересчитывается целиком по всем отзывам, а не инкрементально.
type RatingSummary struct {
	Average         float64 `db:"average"`
	ReviewCount     int     `db:"review_count"`
	CompletedOrders int     `db:"completed_orders"`
}
