package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/services-backend/internal/authz"
	"github.com/ignatzorin/services-backend/internal/models"
	"github.com/ignatzorin/services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/services-backend/internal/repository"
)

type mockOfferRepo struct {
	mock.Mock
}

func (m *mockOfferRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *mockOfferRepo) Create(ctx context.Context, offer *models.Offer) error {
	args := m.Called(ctx, offer)
	if args.Error(0) == nil {
		offer.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockOfferRepo) UpdateFields(ctx context.Context, offer *models.Offer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

func (m *mockOfferRepo) Reject(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}

func (m *mockOfferRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOfferRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Offer, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]models.Offer), args.Error(1)
}

func (m *mockOfferRepo) ListByExecutor(ctx context.Context, executorID uuid.UUID) ([]models.Offer, error) {
	args := m.Called(ctx, executorID)
	return args.Get(0).([]models.Offer), args.Error(1)
}

type mockOrderRepoForOffers struct {
	mock.Mock
}

func (m *mockOrderRepoForOffers) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepoForOffers) AcceptOffer(ctx context.Context, orderID, offerID, executorID uuid.UUID) (*models.Order, *models.Offer, error) {
	args := m.Called(ctx, orderID, offerID, executorID)
	var order *models.Order
	if args.Get(0) != nil {
		order = args.Get(0).(*models.Order)
	}
	var offer *models.Offer
	if args.Get(1) != nil {
		offer = args.Get(1).(*models.Offer)
	}
	return order, offer, args.Error(2)
}

func pendingOffer(orderID, executorID uuid.UUID) *models.Offer {
	return &models.Offer{
		ID:            uuid.New(),
		OrderID:       orderID,
		ExecutorID:    executorID,
		Price:         2500,
		EstimatedTime: 8,
		Status:        models.OfferStatusPending,
	}
}

func TestOfferService_CreateOffer_Success(t *testing.T) {
	offerRepo := new(mockOfferRepo)
	orderRepo := new(mockOrderRepoForOffers)
	svc := NewOfferService(offerRepo, orderRepo)
	ctx := context.Background()

	customerID := uuid.New()
	executorID := uuid.New()
	order := pendingOrder(customerID, time.Now())

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	offerRepo.On("Create", ctx, mock.AnythingOfType("*models.Offer")).Return(nil)

	actor := authz.Actor{ID: executorID, Role: models.RoleExecutor}
	offer, err := svc.CreateOffer(ctx, actor, CreateOfferInput{
		OrderID:       order.ID,
		Price:         2500,
		EstimatedTime: 8,
	})

	assert.NoError(t, err)
	assert.NotNil(t, offer)
	assert.Equal(t, executorID, offer.ExecutorID)
	assert.Equal(t, models.OfferStatusPending, offer.Status)
}

func TestOfferService_CreateOffer_OwnOrderForbidden(t *testing.T) {
	offerRepo := new(mockOfferRepo)
	orderRepo := new(mockOrderRepoForOffers)
	svc := NewOfferService(offerRepo, orderRepo)
	ctx := context.Background()

	customerID := uuid.New()
	order := pendingOrder(customerID, time.Now())

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

	// Заказчик переключился в роль исполнителя, но заказ его собственный.
	actor := authz.Actor{ID: customerID, Role: models.RoleExecutor}
	_, err := svc.CreateOffer(ctx, actor, CreateOfferInput{
		OrderID:       order.ID,
		Price:         2500,
		EstimatedTime: 8,
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsPermissionDenied(err))
	offerRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOfferService_CreateOffer_OrderNotPending(t *testing.T) {
	offerRepo := new(mockOfferRepo)
	orderRepo := new(mockOrderRepoForOffers)
	svc := NewOfferService(offerRepo, orderRepo)
	ctx := context.Background()

	order := pendingOrder(uuid.New(), time.Now())
	order.Status = models.OrderStatusInProgress

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

	actor := authz.Actor{ID: uuid.New(), Role: models.RoleExecutor}
	_, err := svc.CreateOffer(ctx, actor, CreateOfferInput{
		OrderID:       order.ID,
		Price:         2500,
		EstimatedTime: 8,
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestOfferService_CreateOffer_Duplicate(t *testing.T) {
	offerRepo := new(mockOfferRepo)
	orderRepo := new(mockOrderRepoForOffers)
	svc := NewOfferService(offerRepo, orderRepo)
	ctx := context.Background()

	order := pendingOrder(uuid.New(), time.Now())

	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	offerRepo.On("Create", ctx, mock.AnythingOfType("*models.Offer")).
		Return(repository.ErrDuplicateOffer)

	actor := authz.Actor{ID: uuid.New(), Role: models.RoleExecutor}
	_, err := svc.CreateOffer(ctx, actor, CreateOfferInput{
		OrderID:       order.ID,
		Price:         2500,
		EstimatedTime: 8,
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestOfferService_CreateOffer_InvalidPrice(t *testing.T) {
	svc := NewOfferService(new(mockOfferRepo), new(mockOrderRepoForOffers))

	actor := authz.Actor{ID: uuid.New(), Role: models.RoleExecutor}
	_, err := svc.CreateOffer(context.Background(), actor, CreateOfferInput{
		OrderID:       uuid.New(),
		Price:         0,
		EstimatedTime: 8,
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestOfferService_UpdateOffer_OnlyAuthor(t *testing.T) {
	offerRepo := new(mockOfferRepo)
	svc := NewOfferService(offerRepo, new(mockOrderRepoForOffers))
	ctx := context.Background()

	executorID := uuid.New()
	offer := pendingOffer(uuid.New(), executorID)

	offerRepo.On("GetByID", ctx, offer.ID).Return(offer, nil)

	stranger := authz.Actor{ID: uuid.New(), Role: models.RoleExecutor}
	_, err := svc.UpdateOffer(ctx, stranger, UpdateOfferInput{
		OfferID:       offer.ID,
		Price:         3000,
		EstimatedTime: 10,
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsPermissionDenied(err))
	offerRepo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything)
}

func TestOfferService_DeleteOffer_NotPending(t *testing.T) {
	offerRepo := new(mockOfferRepo)
	svc := NewOfferService(offerRepo, new(mockOrderRepoForOffers))
	ctx := context.Background()

	executorID := uuid.New()
	offer := pendingOffer(uuid.New(), executorID)
	offer.Status = models.OfferStatusAccepted

	offerRepo.On("GetByID", ctx, offer.ID).Return(offer, nil)

	actor := authz.Actor{ID: executorID, Role: models.RoleExecutor}
	err := svc.DeleteOffer(ctx, actor, offer.ID)

	assert.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestOfferService_AcceptOffer_Success(t *testing.T) {
	offerRepo := new(mockOfferRepo)
	orderRepo := new(mockOrderRepoForOffers)
	svc := NewOfferService(offerRepo, orderRepo)
	ctx := context.Background()

	customerID := uuid.New()
	executorID := uuid.New()
	order := pendingOrder(customerID, time.Now())
	offer := pendingOffer(order.ID, executorID)
	rival := pendingOffer(order.ID, uuid.New())

	updatedOrder := *order
	updatedOrder.Status = models.OrderStatusInProgress
	updatedOrder.ExecutorID = &executorID
	acceptedOffer := *offer
	acceptedOffer.Status = models.OfferStatusAccepted

	offerRepo.On("GetByID", ctx, offer.ID).Return(offer, nil)
	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	offerRepo.On("ListByOrder", ctx, order.ID).Return([]models.Offer{*offer, *rival}, nil)
	orderRepo.On("AcceptOffer", ctx, order.ID, offer.ID, executorID).
		Return(&updatedOrder, &acceptedOffer, nil)

	actor := authz.Actor{ID: customerID, Role: models.RoleCustomer}
	gotOrder, gotOffer, err := svc.AcceptOffer(ctx, actor, offer.ID)

	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusInProgress, gotOrder.Status)
	assert.Equal(t, &executorID, gotOrder.ExecutorID)
	assert.Equal(t, models.OfferStatusAccepted, gotOffer.Status)
}

func TestOfferService_AcceptOffer_OnlyOrderOwner(t *testing.T) {
	offerRepo := new(mockOfferRepo)
	orderRepo := new(mockOrderRepoForOffers)
	svc := NewOfferService(offerRepo, orderRepo)
	ctx := context.Background()

	order := pendingOrder(uuid.New(), time.Now())
	offer := pendingOffer(order.ID, uuid.New())

	offerRepo.On("GetByID", ctx, offer.ID).Return(offer, nil)
	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

	stranger := authz.Actor{ID: uuid.New(), Role: models.RoleCustomer}
	_, _, err := svc.AcceptOffer(ctx, stranger, offer.ID)

	assert.Error(t, err)
	assert.True(t, apperror.IsPermissionDenied(err))
	orderRepo.AssertNotCalled(t, "AcceptOffer", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOfferService_AcceptOffer_RaceLostToConcurrentAccept(t *testing.T) {
	offerRepo := new(mockOfferRepo)
	orderRepo := new(mockOrderRepoForOffers)
	svc := NewOfferService(offerRepo, orderRepo)
	ctx := context.Background()

	customerID := uuid.New()
	order := pendingOrder(customerID, time.Now())
	offer := pendingOffer(order.ID, uuid.New())

	offerRepo.On("GetByID", ctx, offer.ID).Return(offer, nil)
	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	offerRepo.On("ListByOrder", ctx, order.ID).Return([]models.Offer{*offer}, nil)
	orderRepo.On("AcceptOffer", ctx, order.ID, offer.ID, offer.ExecutorID).
		Return(nil, nil, repository.ErrStatusChanged)

	actor := authz.Actor{ID: customerID, Role: models.RoleCustomer}
	_, _, err := svc.AcceptOffer(ctx, actor, offer.ID)

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestOfferService_RejectOffer_Success(t *testing.T) {
	offerRepo := new(mockOfferRepo)
	orderRepo := new(mockOrderRepoForOffers)
	svc := NewOfferService(offerRepo, orderRepo)
	ctx := context.Background()

	customerID := uuid.New()
	order := pendingOrder(customerID, time.Now())
	offer := pendingOffer(order.ID, uuid.New())

	rejected := *offer
	rejected.Status = models.OfferStatusRejected

	offerRepo.On("GetByID", ctx, offer.ID).Return(offer, nil)
	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)
	offerRepo.On("Reject", ctx, offer.ID).Return(&rejected, nil)

	actor := authz.Actor{ID: customerID, Role: models.RoleCustomer}
	got, err := svc.RejectOffer(ctx, actor, offer.ID)

	assert.NoError(t, err)
	assert.Equal(t, models.OfferStatusRejected, got.Status)
}

func TestOfferService_RejectOffer_AlreadyProcessed(t *testing.T) {
	offerRepo := new(mockOfferRepo)
	orderRepo := new(mockOrderRepoForOffers)
	svc := NewOfferService(offerRepo, orderRepo)
	ctx := context.Background()

	customerID := uuid.New()
	order := pendingOrder(customerID, time.Now())
	offer := pendingOffer(order.ID, uuid.New())
	offer.Status = models.OfferStatusRejected

	offerRepo.On("GetByID", ctx, offer.ID).Return(offer, nil)
	orderRepo.On("GetByID", ctx, order.ID).Return(order, nil)

	actor := authz.Actor{ID: customerID, Role: models.RoleCustomer}
	_, err := svc.RejectOffer(ctx, actor, offer.ID)

	assert.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}
