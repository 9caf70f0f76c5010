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

// OfferRepository отвечает за работу с предложениями исполнителей.
type OfferRepository struct {
	db *sqlx.DB
}

// ErrDuplicateOffer возвращается при повторном предложении того же
// исполнителя на тот же заказ (нарушение уникального индекса).
var ErrDuplicateOffer = errors.New("offer already exists for this order")

// NewOfferRepository создаёт новый экземпляр.
func NewOfferRepository(db *sqlx.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

const offerColumns = `
	id, order_id, executor_id, price, estimated_time, start_date, status, created_at, updated_at
`

// GetByID возвращает предложение по идентификатору.
func (r *OfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`
	if err := r.db.GetContext(ctx, &offer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("offer repository: get by id %w", err)
	}
	return &offer, nil
}

// Create сохраняет предложение и возвращает сгенерированные поля.
func (r *OfferRepository) Create(ctx context.Context, offer *models.Offer) error {
	query := `
		INSERT INTO offers (order_id, executor_id, price, estimated_time, start_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(
		ctx,
		query,
		offer.OrderID,
		offer.ExecutorID,
		offer.Price,
		offer.EstimatedTime,
		offer.StartDate,
		offer.Status,
	).Scan(&offer.ID, &offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateOffer
		}
		return fmt.Errorf("offer repository: insert offer %w", err)
	}
	return nil
}

// UpdateFields изменяет условия предложения, пока оно в статусе pending.
func (r *OfferRepository) UpdateFields(ctx context.Context, offer *models.Offer) error {
	query := `
		UPDATE offers
		SET price = $1,
		    estimated_time = $2,
		    start_date = $3,
		    updated_at = NOW()
		WHERE id = $4 AND status = $5
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(
		ctx,
		query,
		offer.Price,
		offer.EstimatedTime,
		offer.StartDate,
		offer.ID,
		models.OfferStatusPending,
	).Scan(&offer.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.classifyMiss(ctx, offer.ID)
		}
		return fmt.Errorf("offer repository: update offer %w", err)
	}
	return nil
}

// Reject условно переводит предложение из pending в rejected.
func (r *OfferRepository) Reject(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	query := `
		UPDATE offers
		SET status = $1,
		    updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + offerColumns
	err := r.db.QueryRowxContext(ctx, query, models.OfferStatusRejected, id, models.OfferStatusPending).StructScan(&offer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.classifyMiss(ctx, id)
		}
		return nil, fmt.Errorf("offer repository: reject offer %w", err)
	}
	return &offer, nil
}

// Delete удаляет предложение, пока оно в статусе pending.
func (r *OfferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM offers WHERE id = $1 AND status = $2`, id, models.OfferStatusPending)
	if err != nil {
		return fmt.Errorf("offer repository: delete %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("offer repository: delete rows affected %w", err)
	}
	if rowsAffected == 0 {
		return r.classifyMiss(ctx, id)
	}
	return nil
}

// ListByOrder возвращает предложения по заказу вместе с рейтингом авторов.
func (r *OfferRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Offer, error) {
	query := `
		SELECT f.id, f.order_id, f.executor_id, f.price, f.estimated_time, f.start_date,
		       f.status, f.created_at, f.updated_at,
		       u.rating AS executor_rating
		FROM offers f
		JOIN users u ON u.id = f.executor_id
		WHERE f.order_id = $1
		ORDER BY f.created_at ASC
	`
	var offers []models.Offer
	if err := r.db.SelectContext(ctx, &offers, query, orderID); err != nil {
		return nil, fmt.Errorf("offer repository: list by order %w", err)
	}
	return offers, nil
}

// ListByExecutor возвращает предложения исполнителя.
func (r *OfferRepository) ListByExecutor(ctx context.Context, executorID uuid.UUID) ([]models.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE executor_id = $1 ORDER BY created_at DESC`
	var offers []models.Offer
	if err := r.db.SelectContext(ctx, &offers, query, executorID); err != nil {
		return nil, fmt.Errorf("offer repository: list by executor %w", err)
	}
	return offers, nil
}

// classifyMiss различает отсутствие предложения и ушедший статус.
func (r *OfferRepository) classifyMiss(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM offers WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("offer repository: classify miss %w", err)
	}
	if !exists {
		return ErrOfferNotFound
	}
	return ErrStatusChanged
}
