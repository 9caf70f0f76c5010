package models

import (
	"time"

	"github.com/google/uuid"
)

// Order описывает заказ на услугу.
// ExecutorID заполняется только после принятия предложения и
// обнуляется при отмене заказа.
type Order struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	CustomerID   uuid.UUID  `db:"customer_id" json:"customer_id"`
	ExecutorID   *uuid.UUID `db:"executor_id" json:"executor_id,omitempty"`
	CategoryID   uuid.UUID  `db:"category_id" json:"category_id"`
	Title        string     `db:"title" json:"title"`
	Description  *string    `db:"description" json:"description,omitempty"`
	DesiredPrice float64    `db:"desired_price" json:"desired_price"`
	DueDate      time.Time  `db:"due_date" json:"due_date"`
	Status       string     `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`

	OffersCount *int `db:"offers_count" json:"offers_count,omitempty"`
}

// IsTerminal сообщает, находится ли заказ в конечном статусе.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCanceled
}

// Offer представляет предложение исполнителя по заказу.
type Offer struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	OrderID       uuid.UUID  `db:"order_id" json:"order_id"`
	ExecutorID    uuid.UUID  `db:"executor_id" json:"executor_id"`
	Price         float64    `db:"price" json:"price"`
	EstimatedTime int        `db:"estimated_time" json:"estimated_time"` // В часах
	StartDate     *time.Time `db:"start_date" json:"start_date,omitempty"`
	Status        string     `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`

	// Рейтинг исполнителя подгружается для показа заказчику.
	ExecutorRating *float64 `db:"executor_rating" json:"executor_rating,omitempty"`
}
