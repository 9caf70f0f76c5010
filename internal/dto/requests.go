package dto

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest описывает тело запроса веб-регистрации.
type RegisterRequest struct {
	Username string    `json:"username" binding:"required"`
	Password string    `json:"password" binding:"required"`
	Name     string    `json:"name" binding:"required"`
	Role     string    `json:"role"`
	CityID   uuid.UUID `json:"city_id" binding:"required"`
}

// LoginRequest описывает тело запроса входа.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ExternalLoginRequest описывает запрос внешнего шлюза (бот, интеграции).
type ExternalLoginRequest struct {
	AccountID int64     `json:"account_id" binding:"required"`
	Name      string    `json:"name" binding:"required"`
	Username  *string   `json:"username"`
	Role      string    `json:"role"`
	CityID    uuid.UUID `json:"city_id" binding:"required"`
}

// RefreshRequest описывает запрос обновления токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest описывает редактируемые поля профиля.
type UpdateProfileRequest struct {
	Name     *string    `json:"name"`
	Username *string    `json:"username"`
	CityID   *uuid.UUID `json:"city_id"`
}

// SetCategoriesRequest описывает запрос замены категорий исполнителя.
type SetCategoriesRequest struct {
	CategoryIDs []uuid.UUID `json:"category_ids" binding:"required"`
}

// AdminSetRoleRequest описывает административную смену роли.
type AdminSetRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// AdminSetAdminRequest описывает выдачу или снятие прав администратора.
type AdminSetAdminRequest struct {
	IsAdmin bool `json:"is_admin"`
}

// CreateOrderRequest описывает тело запроса создания заказа.
type CreateOrderRequest struct {
	CategoryID   uuid.UUID `json:"category_id" binding:"required"`
	Title        string    `json:"title" binding:"required"`
	Description  *string   `json:"description"`
	DesiredPrice float64   `json:"desired_price" binding:"required"`
	DueDate      time.Time `json:"due_date" binding:"required"`
}

// UpdateOrderRequest описывает тело запроса редактирования заказа.
type UpdateOrderRequest struct {
	CategoryID   uuid.UUID `json:"category_id" binding:"required"`
	Title        string    `json:"title" binding:"required"`
	Description  *string   `json:"description"`
	DesiredPrice float64   `json:"desired_price" binding:"required"`
	DueDate      time.Time `json:"due_date" binding:"required"`
}

// CreateOfferRequest описывает тело запроса создания предложения.
type CreateOfferRequest struct {
	Price         float64    `json:"price" binding:"required"`
	EstimatedTime int        `json:"estimated_time" binding:"required"`
	StartDate     *time.Time `json:"start_date"`
}

// UpdateOfferRequest описывает тело запроса редактирования предложения.
type UpdateOfferRequest struct {
	Price         float64    `json:"price" binding:"required"`
	EstimatedTime int        `json:"estimated_time" binding:"required"`
	StartDate     *time.Time `json:"start_date"`
}

// CreateReviewRequest описывает тело запроса создания отзыва.
type CreateReviewRequest struct {
	Rating  int     `json:"rating" binding:"required"`
	Comment *string `json:"comment"`
}

// CreateCatalogEntryRequest описывает добавление записи в справочник.
type CreateCatalogEntryRequest struct {
	Name string `json:"name" binding:"required"`
}
