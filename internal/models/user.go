package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User описывает пользователя платформы.
// Основная роль ровно одна (заказчик или исполнитель), админская
// способность ортогональна ей и выдаётся отдельно.
type User struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	AccountID       *int64     `db:"account_id" json:"account_id,omitempty"`
	Name            string     `db:"name" json:"name"`
	Username        *string    `db:"username" json:"username,omitempty"`
	PasswordHash    *string    `db:"password_hash" json:"-"`
	Role            string     `db:"role" json:"role"`
	IsAdmin         bool       `db:"is_admin" json:"is_admin"`
	CityID          uuid.UUID  `db:"city_id" json:"city_id"`
	Rating          float64    `db:"rating" json:"rating"`
	CompletedOrders int        `db:"completed_orders" json:"completed_orders"`
	LastSeenAt      *time.Time `db:"last_seen_at" json:"last_seen_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`

	// Категории загружаются отдельным запросом.
	Categories []Category `json:"categories,omitempty"`
}

// NewUser создаёт пользователя с проверкой инварианта ролей.
// AccountID присутствует только у пользователей, пришедших через внешний
// шлюз; у веб-регистраций он отсутствует.
func NewUser(accountID *int64, name string, username *string, role string, cityID uuid.UUID) (*User, error) {
	if _, ok := ValidRoles[role]; !ok {
		return nil, fmt.Errorf("models: некорректная роль %q", role)
	}
	return &User{
		AccountID: accountID,
		Name:      name,
		Username:  username,
		Role:      role,
		CityID:    cityID,
	}, nil
}

// SetRole меняет основную роль с проверкой инварианта.
func (u *User) SetRole(role string) error {
	if _, ok := ValidRoles[role]; !ok {
		return fmt.Errorf("models: некорректная роль %q", role)
	}
	u.Role = role
	return nil
}

// OppositeRole возвращает противоположную основную роль.
func (u *User) OppositeRole() string {
	if u.Role == RoleCustomer {
		return RoleExecutor
	}
	return RoleCustomer
}

// IsCustomer сообщает, является ли пользователь заказчиком.
func (u *User) IsCustomer() bool {
	return u.Role == RoleCustomer
}

// IsExecutor сообщает, является ли пользователь исполнителем.
func (u *User) IsExecutor() bool {
	return u.Role == RoleExecutor
}

// Session представляет сохранённую сессию пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
