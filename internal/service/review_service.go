package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ignatzorin/services-backend/internal/authz"
	"github.com/ignatzorin/services-backend/internal/goroutine"
	"github.com/ignatzorin/services-backend/internal/models"
	"github.com/ignatzorin/services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/services-backend/internal/repository"
	"github.com/ignatzorin/services-backend/internal/validation"
)

// ReviewRepository описывает взаимодействие сервиса с хранилищем отзывов.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Review, error)
	ListByTarget(ctx context.Context, targetID uuid.UUID) ([]models.Review, error)
	AggregateForTarget(ctx context.Context, targetID uuid.UUID) (*models.RatingSummary, error)
}

// OrderRepoForReviews описывает минимальный контракт с хранилищем заказов.
type OrderRepoForReviews interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// UserRepoForReviews записывает пересчитанный агрегат рейтинга.
type UserRepoForReviews interface {
	UpdateRatingStats(ctx context.Context, userID uuid.UUID, rating float64, completedOrders int) error
}

// ReviewService содержит бизнес-логику отзывов и пересчёта рейтинга.
type ReviewService struct {
	repo   ReviewRepository
	orders OrderRepoForReviews
	users  UserRepoForReviews
	hub    WSNotifier
}

// NewReviewService создаёт новый сервис отзывов.
func NewReviewService(repo ReviewRepository, orders OrderRepoForReviews, users UserRepoForReviews) *ReviewService {
	return &ReviewService{repo: repo, orders: orders, users: users}
}

// SetHub устанавливает WebSocket hub для отправки уведомлений.
func (s *ReviewService) SetHub(hub WSNotifier) {
	s.hub = hub
}

// CreateReviewInput описывает входные данные отзыва.
type CreateReviewInput struct {
	OrderID uuid.UUID
	Rating  int
	Comment *string
}

// CreateReview создаёт отзыв заказчика об исполнителе по завершённому
// заказу и синхронно пересчитывает рейтинг исполнителя.
func (s *ReviewService) CreateReview(ctx context.Context, actor authz.Actor, in CreateReviewInput) (*models.Review, error) {
	if err := validation.ValidateRating(in.Rating); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidateReviewComment(in.Comment); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	order, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.NotFound("заказ не найден")
		}
		return nil, apperror.Persistence(err)
	}

	if order.Status != models.OrderStatusCompleted {
		return nil, apperror.InvalidTransition("заказ", order.Status, "создание отзыва")
	}
	if err := authz.Allow(actor, authz.ActionReviewCreate, orderResource(order)); err != nil {
		return nil, err
	}
	if order.ExecutorID == nil {
		return nil, apperror.Validation("у заказа нет назначенного исполнителя")
	}

	review := &models.Review{
		OrderID:  in.OrderID,
		AuthorID: order.CustomerID,
		TargetID: *order.ExecutorID,
		Rating:   in.Rating,
		Comment:  in.Comment,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, apperror.Conflict("отзыв по этому заказу уже оставлен")
		}
		return nil, apperror.Persistence(err)
	}

	if err := s.RecomputeRating(ctx, review.TargetID); err != nil {
		return nil, err
	}

	s.notify(review.TargetID, "reviews.new", map[string]interface{}{
		"order_id": review.OrderID,
		"rating":   review.Rating,
	})

	return review, nil
}

// RecomputeRating пересчитывает агрегат рейтинга от полного набора отзывов.
// Повторный вызов на том же наборе даёт тот же результат.
func (s *ReviewService) RecomputeRating(ctx context.Context, targetID uuid.UUID) error {
	summary, err := s.repo.AggregateForTarget(ctx, targetID)
	if err != nil {
		return apperror.Persistence(err)
	}
	if err := s.users.UpdateRatingStats(ctx, targetID, summary.Average, summary.CompletedOrders); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.NotFound("пользователь не найден")
		}
		return apperror.Persistence(err)
	}
	return nil
}

// GetOrderReview возвращает отзыв по заказу.
func (s *ReviewService) GetOrderReview(ctx context.Context, orderID uuid.UUID) (*models.Review, error) {
	review, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, apperror.NotFound("отзыв не найден")
		}
		return nil, apperror.Persistence(err)
	}
	return review, nil
}

// ListUserReviews возвращает отзывы, полученные пользователем.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID uuid.UUID) ([]models.Review, error) {
	reviews, err := s.repo.ListByTarget(ctx, userID)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return reviews, nil
}

// GetUserRating возвращает агрегат рейтинга пользователя.
func (s *ReviewService) GetUserRating(ctx context.Context, userID uuid.UUID) (*models.RatingSummary, error) {
	summary, err := s.repo.AggregateForTarget(ctx, userID)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return summary, nil
}

// notify отправляет событие одному пользователю в режиме fire-and-forget.
func (s *ReviewService) notify(userID uuid.UUID, event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	goroutine.SafeGo(func() {
		_ = s.hub.BroadcastToUser(userID, event, data)
	})
}
