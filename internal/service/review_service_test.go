package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/services-backend/internal/authz"
	"github.com/ignatzorin/services-backend/internal/models"
	"github.com/ignatzorin/services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/services-backend/internal/repository"
)

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	if args.Error(0) == nil {
		review.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockReviewRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByTarget(ctx context.Context, targetID uuid.UUID) ([]models.Review, error) {
	args := m.Called(ctx, targetID)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockReviewRepo) AggregateForTarget(ctx context.Context, targetID uuid.UUID) (*models.RatingSummary, error) {
	args := m.Called(ctx, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RatingSummary), args.Error(1)
}

type mockOrderRepoForReviews struct {
	mock.Mock
}

func (m *mockOrderRepoForReviews) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

type mockUserRepoForReviews struct {
	mock.Mock
}

func (m *mockUserRepoForReviews) UpdateRatingStats(ctx context.Context, userID uuid.UUID, rating float64, completedOrders int) error {
	args := m.Called(ctx, userID, rating, completedOrders)
	return args.Error(0)
}

func completedOrder(customerID, executorID uuid.UUID) *models.Order {
	return &models.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		ExecutorID: &executorID,
		Status:     models.OrderStatusCompleted,
	}
}

func TestReviewService_CreateReview_Success(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	orderRepo := new(mockOrderRepoForReviews)
	userRepo := new(mockUserRepoForReviews)
	svc := NewReviewService(reviewRepo, orderRepo, userRepo)
	ctx := context.Background()

	customerID := uuid.New()
	executorID := uuid.New()
	order := completedOrder(customerID, executorID)

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	reviewRepo.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)
	reviewRepo.On("AggregateForTarget", ctx, executorID).
		Return(&models.RatingSummary{Average: 4.0, ReviewCount: 3, CompletedOrders: 3}, nil)
	userRepo.On("UpdateRatingStats", ctx, executorID, 4.0, 3).Return(nil)

	actor := authz.Actor{ID: customerID, Role: models.RoleCustomer}
	comment := "Отличная работа!"
	review, err := svc.CreateReview(ctx, actor, CreateReviewInput{
		OrderID: order.ID,
		Rating:  5,
		Comment: &comment,
	})

	assert.NoError(t, err)
	assert.NotNil(t, review)
	assert.Equal(t, executorID, review.TargetID)
	assert.Equal(t, customerID, review.AuthorID)
	assert.Equal(t, 5, review.Rating)
	userRepo.AssertCalled(t, "UpdateRatingStats", ctx, executorID, 4.0, 3)
}

func TestReviewService_CreateReview_InvalidRating(t *testing.T) {
	svc := NewReviewService(new(mockReviewRepo), new(mockOrderRepoForReviews), new(mockUserRepoForReviews))

	actor := authz.Actor{ID: uuid.New(), Role: models.RoleCustomer}
	_, err := svc.CreateReview(context.Background(), actor, CreateReviewInput{
		OrderID: uuid.New(),
		Rating:  6,
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestReviewService_CreateReview_OrderNotCompleted(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	orderRepo := new(mockOrderRepoForReviews)
	svc := NewReviewService(reviewRepo, orderRepo, new(mockUserRepoForReviews))
	ctx := context.Background()

	customerID := uuid.New()
	executorID := uuid.New()
	order := completedOrder(customerID, executorID)
	order.Status = models.OrderStatusInProgress

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

	actor := authz.Actor{ID: customerID, Role: models.RoleCustomer}
	_, err := svc.CreateReview(ctx, actor, CreateReviewInput{OrderID: order.ID, Rating: 4})

	assert.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
	reviewRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReviewService_CreateReview_OnlyCustomer(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	orderRepo := new(mockOrderRepoForReviews)
	svc := NewReviewService(reviewRepo, orderRepo, new(mockUserRepoForReviews))
	ctx := context.Background()

	customerID := uuid.New()
	executorID := uuid.New()
	order := completedOrder(customerID, executorID)

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

	// Исполнитель не может оставить отзыв сам о себе.
	actor := authz.Actor{ID: executorID, Role: models.RoleExecutor}
	_, err := svc.CreateReview(ctx, actor, CreateReviewInput{OrderID: order.ID, Rating: 5})

	assert.Error(t, err)
	assert.True(t, apperror.IsPermissionDenied(err))
	reviewRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReviewService_CreateReview_Duplicate(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	orderRepo := new(mockOrderRepoForReviews)
	userRepo := new(mockUserRepoForReviews)
	svc := NewReviewService(reviewRepo, orderRepo, userRepo)
	ctx := context.Background()

	customerID := uuid.New()
	executorID := uuid.New()
	order := completedOrder(customerID, executorID)

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	reviewRepo.On("Create", ctx, mock.AnythingOfType("*models.Review")).
		Return(repository.ErrDuplicateReview)

	actor := authz.Actor{ID: customerID, Role: models.RoleCustomer}
	_, err := svc.CreateReview(ctx, actor, CreateReviewInput{OrderID: order.ID, Rating: 4})

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	userRepo.AssertNotCalled(t, "UpdateRatingStats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_RecomputeRating_FullSet(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	userRepo := new(mockUserRepoForReviews)
	svc := NewReviewService(reviewRepo, new(mockOrderRepoForReviews), userRepo)
	ctx := context.Background()

	targetID := uuid.New()

	// Отзывы 5, 3, 4 дают среднее ровно 4.0.
	reviewRepo.On("AggregateForTarget", ctx, targetID).
		Return(&models.RatingSummary{Average: 4.0, ReviewCount: 3, CompletedOrders: 3}, nil)
	userRepo.On("UpdateRatingStats", ctx, targetID, 4.0, 3).Return(nil)

	err := svc.RecomputeRating(ctx, targetID)

	assert.NoError(t, err)
	userRepo.AssertExpectations(t)
}
