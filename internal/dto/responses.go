package dto

import (
	"github.com/ignatzorin/services-backend/internal/models"
)

// ErrorResponse стандартный формат ошибки.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse стандартный формат успешного ответа с сообщением.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AuthResponse возвращается при регистрации и входе.
type AuthResponse struct {
	User   *models.User `json:"user"`
	Tokens interface{}  `json:"tokens"`
}

// OrderListResponse группирует заказы пользователя по его роли в них.
type OrderListResponse struct {
	AsCustomer []models.Order `json:"as_customer"`
	AsExecutor []models.Order `json:"as_executor"`
}

// AcceptOfferResponse возвращает результат принятия предложения.
type AcceptOfferResponse struct {
	Order *models.Order `json:"order"`
	Offer *models.Offer `json:"offer"`
}

// RatingResponse возвращает агрегат рейтинга пользователя.
type RatingResponse struct {
	Average         float64 `json:"average"`
	ReviewCount     int     `json:"review_count"`
	CompletedOrders int     `json:"completed_orders"`
}

// UnreadCountResponse возвращает число непрочитанных уведомлений.
type UnreadCountResponse struct {
	Unread int `json:"unread"`
}
