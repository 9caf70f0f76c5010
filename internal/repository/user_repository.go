package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/services-backend/internal/models"
	"github.com/ignatzorin/services-backend/internal/repository/common"
)

// UserRepository отвечает за работу с пользователями и их сессиями.
type UserRepository struct {
	db *sqlx.DB
}

// Ошибки уровня репозитория.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrDuplicateUser     = errors.New("user already exists")
	ErrDuplicateUsername = errors.New("username already taken")
)

// NewUserRepository создаёт новый экземпляр.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `
	id, account_id, name, username, password_hash, role, is_admin, city_id,
	rating, completed_orders, last_seen_at, created_at, updated_at
`

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}
	return &user, nil
}

// GetByAccountID возвращает пользователя по внешнему идентификатору аккаунта.
func (r *UserRepository) GetByAccountID(ctx context.Context, accountID int64) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE account_id = $1`
	if err := r.db.GetContext(ctx, &user, query, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by account id %w", err)
	}
	return &user, nil
}

// GetByUsername возвращает пользователя по логину.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by username %w", err)
	}
	return &user, nil
}

// Create сохраняет пользователя и возвращает сгенерированные поля.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (account_id, name, username, password_hash, role, is_admin, city_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, rating, completed_orders, created_at, updated_at
	`
	err := r.db.QueryRowxContext(
		ctx,
		query,
		user.AccountID,
		user.Name,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.IsAdmin,
		user.CityID,
	).Scan(&user.ID, &user.Rating, &user.CompletedOrders, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("user repository: insert user %w", err)
	}
	return nil
}

// UpdateProfile изменяет имя, логин и город пользователя.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $1,
		    username = $2,
		    city_id = $3,
		    updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query, user.Name, user.Username, user.CityID, user.ID).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("user repository: update profile %w", err)
	}
	return nil
}

// SetRole меняет основную роль пользователя.
func (r *UserRepository) SetRole(ctx context.Context, userID uuid.UUID, role string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, role, userID)
	if err != nil {
		return fmt.Errorf("user repository: set role %w", err)
	}
	return requireRow(result, ErrUserNotFound)
}

// SetAdmin выдаёт или забирает админскую способность.
func (r *UserRepository) SetAdmin(ctx context.Context, userID uuid.UUID, isAdmin bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET is_admin = $1, updated_at = NOW() WHERE id = $2`, isAdmin, userID)
	if err != nil {
		return fmt.Errorf("user repository: set admin %w", err)
	}
	return requireRow(result, ErrUserNotFound)
}

// SetAdminByAccountID выдаёт админскую способность по внешнему аккаунту.
// Возвращает true, если пользователь найден и обновлён.
func (r *UserRepository) SetAdminByAccountID(ctx context.Context, accountID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET is_admin = TRUE, updated_at = NOW() WHERE account_id = $1`, accountID)
	if err != nil {
		return false, fmt.Errorf("user repository: set admin by account %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("user repository: set admin rows affected %w", err)
	}
	return rows > 0, nil
}

// UpdateRatingStats записывает пересчитанный агрегат рейтинга.
func (r *UserRepository) UpdateRatingStats(ctx context.Context, userID uuid.UUID, rating float64, completedOrders int) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET rating = $1,
		    completed_orders = $2,
		    updated_at = NOW()
		WHERE id = $3
	`, rating, completedOrders, userID)
	if err != nil {
		return fmt.Errorf("user repository: update rating stats %w", err)
	}
	return requireRow(result, ErrUserNotFound)
}

// TouchLastSeen отмечает время последней активности пользователя.
func (r *UserRepository) TouchLastSeen(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_seen_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("user repository: touch last seen %w", err)
	}
	return nil
}

// SetCategories заменяет набор категорий пользователя в одной транзакции.
func (r *UserRepository) SetCategories(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_categories WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("user repository: clear categories %w", err)
		}

		if len(categoryIDs) == 0 {
			return nil
		}

		// Batch INSERT категорий одним запросом
		query := `INSERT INTO user_categories (user_id, category_id) VALUES `
		values := make([]interface{}, 0, len(categoryIDs)*2)
		for i, categoryID := range categoryIDs {
			if i > 0 {
				query += ", "
			}
			query += fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2)
			values = append(values, userID, categoryID)
		}
		query += " ON CONFLICT DO NOTHING"

		if _, err := tx.ExecContext(ctx, query, values...); err != nil {
			return fmt.Errorf("user repository: insert categories %w", err)
		}
		return nil
	})
}

// ListCategories возвращает категории пользователя.
func (r *UserRepository) ListCategories(ctx context.Context, userID uuid.UUID) ([]models.Category, error) {
	query := `
		SELECT c.id, c.name, c.created_at
		FROM categories c
		JOIN user_categories uc ON uc.category_id = c.id
		WHERE uc.user_id = $1
		ORDER BY c.name
	`
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query, userID); err != nil {
		return nil, fmt.Errorf("user repository: list categories %w", err)
	}
	return categories, nil
}

// ListExecutorIDsByCategory возвращает исполнителей, подписанных на категорию.
func (r *UserRepository) ListExecutorIDsByCategory(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `
		SELECT u.id
		FROM users u
		JOIN user_categories uc ON uc.user_id = u.id
		WHERE u.role = $1 AND uc.category_id = $2
	`
	if err := r.db.SelectContext(ctx, &ids, query, models.RoleExecutor, categoryID); err != nil {
		return nil, fmt.Errorf("user repository: list executors by category %w", err)
	}
	return ids, nil
}

// ListCategoryIDs возвращает идентификаторы категорий пользователя.
func (r *UserRepository) ListCategoryIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `SELECT category_id FROM user_categories WHERE user_id = $1`
	if err := r.db.SelectContext(ctx, &ids, query, userID); err != nil {
		return nil, fmt.Errorf("user repository: list category ids %w", err)
	}
	return ids, nil
}

// Delete удаляет пользователя. Охрана от удаления с незакрытыми заказами
// выполняется на уровне сервиса до вызова.
func (r *UserRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("user repository: delete %w", err)
	}
	return requireRow(result, ErrUserNotFound)
}

// CreateSession сохраняет сессию обновления токена.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO user_sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(
		ctx,
		query,
		session.UserID,
		session.RefreshToken,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return fmt.Errorf("user repository: insert session %w", err)
	}
	return nil
}

// GetSessionByToken возвращает живую сессию по refresh-токену.
func (r *UserRepository) GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	var session models.Session
	query := `SELECT * FROM user_sessions WHERE refresh_token = $1 AND expires_at > $2`
	if err := r.db.GetContext(ctx, &session, query, refreshToken, time.Now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("user repository: get session %w", err)
	}
	return &session, nil
}

// DeleteSession удаляет сессию по refresh-токену.
func (r *UserRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE refresh_token = $1`, refreshToken)
	if err != nil {
		return fmt.Errorf("user repository: delete session %w", err)
	}
	return nil
}

// DeleteUserSessions удаляет все сессии пользователя.
func (r *UserRepository) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("user repository: delete user sessions %w", err)
	}
	return nil
}

// requireRow проверяет, что запрос затронул хотя бы одну строку.
func requireRow(result sql.Result, missErr error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: rows affected %w", err)
	}
	if rows == 0 {
		return missErr
	}
	return nil
}
