package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/services-backend/internal/models"
	"github.com/ignatzorin/services-backend/internal/repository/common"
)

// OrderRepository отвечает за работу с заказами.
type OrderRepository struct {
	db *sqlx.DB
}

// Ошибки уровня репозитория.
var (
	ErrOrderNotFound = errors.New("order not found")
	ErrOfferNotFound = errors.New("offer not found")

	// ErrStatusChanged возвращается условными обновлениями, когда заказ
	// существует, но его статус уже успел измениться.
	ErrStatusChanged = errors.New("order status changed")
)

// NewOrderRepository создаёт новый экземпляр.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `
	id, customer_id, executor_id, category_id, title, description,
	desired_price, due_date, status, created_at, updated_at
`

// GetByID возвращает заказ по идентификатору.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id %w", err)
	}
	return &order, nil
}

// Create сохраняет заказ и возвращает сгенерированные поля.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (customer_id, category_id, title, description, desired_price, due_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		order.CustomerID,
		order.CategoryID,
		order.Title,
		order.Description,
		order.DesiredPrice,
		order.DueDate,
		order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("order repository: insert order %w", err)
	}
	return nil
}

// UpdateFields изменяет редактируемые поля заказа.
// Обновление условное: проходит только пока заказ в статусе pending.
func (r *OrderRepository) UpdateFields(ctx context.Context, order *models.Order) error {
	query := `
		UPDATE orders
		SET title = $1,
		    description = $2,
		    desired_price = $3,
		    due_date = $4,
		    category_id = $5,
		    updated_at = NOW()
		WHERE id = $6 AND status = $7
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(
		ctx,
		query,
		order.Title,
		order.Description,
		order.DesiredPrice,
		order.DueDate,
		order.CategoryID,
		order.ID,
		models.OrderStatusPending,
	).Scan(&order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.classifyMiss(ctx, order.ID)
		}
		return fmt.Errorf("order repository: update order %w", err)
	}
	return nil
}

// AcceptOffer атомарно принимает предложение: переводит заказ из pending в
// in_progress, назначает исполнителя, помечает предложение принятым и
// отклоняет остальные ожидающие предложения по заказу. Всё в одной
// транзакции; гонка двух одновременных принятий разрешается условным
// обновлением статуса заказа.
func (r *OrderRepository) AcceptOffer(ctx context.Context, orderID, offerID, executorID uuid.UUID) (*models.Order, *models.Offer, error) {
	var order models.Order
	var offer models.Offer

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		orderQuery := `
			UPDATE orders
			SET status = $1,
			    executor_id = $2,
			    updated_at = NOW()
			WHERE id = $3 AND status = $4
			RETURNING ` + orderColumns
		err := tx.QueryRowxContext(ctx, orderQuery, models.OrderStatusInProgress, executorID, orderID, models.OrderStatusPending).StructScan(&order)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return r.classifyMiss(ctx, orderID)
			}
			return fmt.Errorf("order repository: accept order %w", err)
		}

		offerQuery := `
			UPDATE offers
			SET status = $1,
			    updated_at = NOW()
			WHERE id = $2 AND order_id = $3 AND status = $4
			RETURNING id, order_id, executor_id, price, estimated_time, start_date, status, created_at, updated_at
		`
		err = tx.QueryRowxContext(ctx, offerQuery, models.OfferStatusAccepted, offerID, orderID, models.OfferStatusPending).StructScan(&offer)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOfferNotFound
			}
			return fmt.Errorf("order repository: accept offer %w", err)
		}

		// Остальные ожидающие предложения по заказу отклоняются каскадно.
		_, err = tx.ExecContext(ctx, `
			UPDATE offers
			SET status = $1, updated_at = NOW()
			WHERE order_id = $2 AND status = $3
		`, models.OfferStatusRejected, orderID, models.OfferStatusPending)
		if err != nil {
			return fmt.Errorf("order repository: reject sibling offers %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &order, &offer, nil
}

// Cancel условно переводит заказ в canceled из одного из допустимых
// статусов и очищает назначенного исполнителя. Возвращает заказ в
// состоянии до обновления исполнителя (executor_id уже очищен).
func (r *OrderRepository) Cancel(ctx context.Context, orderID uuid.UUID, fromStatuses []string) (*models.Order, *uuid.UUID, error) {
	var order models.Order
	var prevExecutor *uuid.UUID

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		// Запоминаем исполнителя до очистки, чтобы уведомить его об отмене.
		var prevExecutorRow uuid.NullUUID
		err := tx.GetContext(ctx, &prevExecutorRow, `SELECT executor_id FROM orders WHERE id = $1`, orderID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("order repository: load executor %w", err)
		}
		if prevExecutorRow.Valid {
			id := prevExecutorRow.UUID
			prevExecutor = &id
		}

		query := `
			UPDATE orders
			SET status = $1,
			    executor_id = NULL,
			    updated_at = NOW()
			WHERE id = $2 AND status = ANY($3)
			RETURNING ` + orderColumns
		err = tx.QueryRowxContext(ctx, query, models.OrderStatusCanceled, orderID, pq.Array(fromStatuses)).StructScan(&order)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrStatusChanged
			}
			return fmt.Errorf("order repository: cancel order %w", err)
		}

		// Ожидающие предложения по отменённому заказу больше не актуальны.
		_, err = tx.ExecContext(ctx, `
			UPDATE offers
			SET status = $1, updated_at = NOW()
			WHERE order_id = $2 AND status = $3
		`, models.OfferStatusRejected, orderID, models.OfferStatusPending)
		if err != nil {
			return fmt.Errorf("order repository: reject pending offers %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &order, prevExecutor, nil
}

// Complete условно переводит заказ из in_progress в completed.
func (r *OrderRepository) Complete(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `
		UPDATE orders
		SET status = $1,
		    updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + orderColumns
	err := r.db.QueryRowxContext(ctx, query, models.OrderStatusCompleted, orderID, models.OrderStatusInProgress).StructScan(&order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.classifyMiss(ctx, orderID)
		}
		return nil, fmt.Errorf("order repository: complete order %w", err)
	}
	return &order, nil
}

// ListAvailableParams содержит фильтры списка доступных заказов.
type ListAvailableParams struct {
	ExecutorID  uuid.UUID
	CategoryIDs []uuid.UUID
	Limit       int
	Offset      int
}

// ListAvailable возвращает ожидающие заказы, на которые исполнитель может
// откликнуться: чужие pending заказы без его собственного предложения.
func (r *OrderRepository) ListAvailable(ctx context.Context, params ListAvailableParams) ([]models.Order, error) {
	query := `
		SELECT o.id, o.customer_id, o.executor_id, o.category_id, o.title, o.description,
		       o.desired_price, o.due_date, o.status, o.created_at, o.updated_at,
		       COALESCE(offer_counts.count, 0) AS offers_count
		FROM orders o
		LEFT JOIN (
			SELECT order_id, COUNT(*) AS count
			FROM offers
			GROUP BY order_id
		) offer_counts ON o.id = offer_counts.order_id
		WHERE o.status = $1
		  AND o.customer_id <> $2
		  AND NOT EXISTS (
			SELECT 1 FROM offers f
			WHERE f.order_id = o.id AND f.executor_id = $2
		  )
	`
	args := []interface{}{models.OrderStatusPending, params.ExecutorID}
	argIndex := 3

	if len(params.CategoryIDs) > 0 {
		query += fmt.Sprintf(" AND o.category_id = ANY($%d)", argIndex)
		args = append(args, pq.Array(params.CategoryIDs))
		argIndex++
	}

	query += " ORDER BY o.created_at DESC"

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("order repository: list available %w", err)
	}
	return orders, nil
}

// ListByCustomer возвращает заказы заказчика с количеством предложений.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	query := `
		SELECT o.id, o.customer_id, o.executor_id, o.category_id, o.title, o.description,
		       o.desired_price, o.due_date, o.status, o.created_at, o.updated_at,
		       COALESCE(offer_counts.count, 0) AS offers_count
		FROM orders o
		LEFT JOIN (
			SELECT order_id, COUNT(*) AS count
			FROM offers
			GROUP BY order_id
		) offer_counts ON o.id = offer_counts.order_id
		WHERE o.customer_id = $1
		ORDER BY o.created_at DESC
	`
	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders, query, customerID); err != nil {
		return nil, fmt.Errorf("order repository: list by customer %w", err)
	}
	return orders, nil
}

// ListByExecutor возвращает заказы, назначенные исполнителю.
func (r *OrderRepository) ListByExecutor(ctx context.Context, executorID uuid.UUID) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE executor_id = $1 ORDER BY created_at DESC`
	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders, query, executorID); err != nil {
		return nil, fmt.Errorf("order repository: list by executor %w", err)
	}
	return orders, nil
}

// Delete удаляет заказ; предложения и отзывы удаляются каскадно на уровне БД.
func (r *OrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("order repository: delete %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("order repository: delete rows affected %w", err)
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// CountNonTerminalByUser считает незакрытые заказы, где пользователь
// участвует как заказчик или исполнитель. Используется охраной удаления.
func (r *OrderRepository) CountNonTerminalByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM orders
		WHERE (customer_id = $1 OR executor_id = $1)
		  AND status IN ($2, $3)
	`
	if err := r.db.GetContext(ctx, &count, query, userID, models.OrderStatusPending, models.OrderStatusInProgress); err != nil {
		return 0, fmt.Errorf("order repository: count non-terminal %w", err)
	}
	return count, nil
}

// classifyMiss различает отсутствие заказа и ушедший статус после того,
// как условное обновление не затронуло ни одной строки.
func (r *OrderRepository) classifyMiss(ctx context.Context, orderID uuid.UUID) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID); err != nil {
		return fmt.Errorf("order repository: classify miss %w", err)
	}
	if !exists {
		return ErrOrderNotFound
	}
	return ErrStatusChanged
}
