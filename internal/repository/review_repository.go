package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/services-backend/internal/models"
)

// ReviewRepository отвечает за работу с отзывами.
type ReviewRepository struct {
	db *sqlx.DB
}

// Ошибки уровня репозитория.
var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("review already exists for this order")
)

// NewReviewRepository создаёт новый экземпляр.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create сохраняет отзыв и возвращает сгенерированные поля.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (order_id, author_id, target_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(
		ctx,
		query,
		review.OrderID,
		review.AuthorID,
		review.TargetID,
		review.Rating,
		review.Comment,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReview
		}
		return fmt.Errorf("review repository: insert review %w", err)
	}
	return nil
}

// GetByOrderID возвращает отзыв по заказу.
func (r *ReviewRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Review, error) {
	var review models.Review
	query := `SELECT * FROM reviews WHERE order_id = $1`
	if err := r.db.GetContext(ctx, &review, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("review repository: get by order %w", err)
	}
	return &review, nil
}

// ListByTarget возвращает отзывы, полученные пользователем.
func (r *ReviewRepository) ListByTarget(ctx context.Context, targetID uuid.UUID) ([]models.Review, error) {
	query := `SELECT * FROM reviews WHERE target_id = $1 ORDER BY created_at DESC`
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, targetID); err != nil {
		return nil, fmt.Errorf("review repository: list by target %w", err)
	}
	return reviews, nil
}

// AggregateForTarget пересчитывает агрегат по полному набору отзывов:
// средняя оценка и число заказов, по которым получен хотя бы один отзыв.
// Пересчёт от полного набора делает операцию идемпотентной.
func (r *ReviewRepository) AggregateForTarget(ctx context.Context, targetID uuid.UUID) (*models.RatingSummary, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0)          AS average,
		       COUNT(*)                          AS review_count,
		       COUNT(DISTINCT order_id)          AS completed_orders
		FROM reviews
		WHERE target_id = $1
	`
	var summary models.RatingSummary
	if err := r.db.GetContext(ctx, &summary, query, targetID); err != nil {
		return nil, fmt.Errorf("review repository: aggregate %w", err)
	}
	return &summary, nil
}
