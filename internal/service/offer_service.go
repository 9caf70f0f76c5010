package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/services-backend/internal/authz"
	"github.com/ignatzorin/services-backend/internal/goroutine"
	"github.com/ignatzorin/services-backend/internal/models"
	"github.com/ignatzorin/services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/services-backend/internal/repository"
	"github.com/ignatzorin/services-backend/internal/validation"
)

// OfferRepository описывает взаимодействие сервиса с хранилищем предложений.
type OfferRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	Create(ctx context.Context, offer *models.Offer) error
	UpdateFields(ctx context.Context, offer *models.Offer) error
	Reject(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Offer, error)
	ListByExecutor(ctx context.Context, executorID uuid.UUID) ([]models.Offer, error)
}

// OrderRepoForOffers описывает операции над заказами, нужные предложениям.
type OrderRepoForOffers interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	AcceptOffer(ctx context.Context, orderID, offerID, executorID uuid.UUID) (*models.Order, *models.Offer, error)
}

// OfferService содержит бизнес-логику жизненного цикла предложений.
type OfferService struct {
	repo   OfferRepository
	orders OrderRepoForOffers
	hub    WSNotifier
}

// NewOfferService создаёт новый сервис предложений.
func NewOfferService(repo OfferRepository, orders OrderRepoForOffers) *OfferService {
	return &OfferService{repo: repo, orders: orders}
}

// SetHub устанавливает WebSocket hub для отправки уведомлений.
func (s *OfferService) SetHub(hub WSNotifier) {
	s.hub = hub
}

// CreateOfferInput описывает входные данные предложения.
type CreateOfferInput struct {
	OrderID       uuid.UUID
	Price         float64
	EstimatedTime int
	StartDate     *time.Time
}

// UpdateOfferInput описывает редактируемые условия предложения.
type UpdateOfferInput struct {
	OfferID       uuid.UUID
	Price         float64
	EstimatedTime int
	StartDate     *time.Time
}

// CreateOffer создаёт предложение исполнителя по ожидающему заказу.
func (s *OfferService) CreateOffer(ctx context.Context, actor authz.Actor, in CreateOfferInput) (*models.Offer, error) {
	if err := s.validateOfferInput(in.Price, in.EstimatedTime); err != nil {
		return nil, err
	}

	order, err := s.loadOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, apperror.InvalidTransition("заказ", order.Status, "создание предложения")
	}
	if err := authz.Allow(actor, authz.ActionOfferCreate, orderResource(order)); err != nil {
		return nil, err
	}

	offer := &models.Offer{
		OrderID:       in.OrderID,
		ExecutorID:    actor.ID,
		Price:         in.Price,
		EstimatedTime: in.EstimatedTime,
		StartDate:     in.StartDate,
		Status:        models.OfferStatusPending,
	}

	if err := s.repo.Create(ctx, offer); err != nil {
		if errors.Is(err, repository.ErrDuplicateOffer) {
			return nil, apperror.Conflict("вы уже оставили предложение по этому заказу")
		}
		return nil, apperror.Persistence(err)
	}

	// Заказчик узнаёт о новом предложении.
	s.notify(order.CustomerID, "offers.new", map[string]interface{}{
		"order_id": order.ID,
		"offer_id": offer.ID,
		"price":    offer.Price,
	})

	return offer, nil
}

// UpdateOffer меняет условия предложения, пока оно ожидает решения.
func (s *OfferService) UpdateOffer(ctx context.Context, actor authz.Actor, in UpdateOfferInput) (*models.Offer, error) {
	if err := s.validateOfferInput(in.Price, in.EstimatedTime); err != nil {
		return nil, err
	}

	offer, err := s.loadOffer(ctx, in.OfferID)
	if err != nil {
		return nil, err
	}
	if err := authz.Allow(actor, authz.ActionOfferEdit, offerResource(offer)); err != nil {
		return nil, err
	}
	if offer.Status != models.OfferStatusPending {
		return nil, apperror.InvalidTransition("предложение", offer.Status, "редактирование")
	}

	offer.Price = in.Price
	offer.EstimatedTime = in.EstimatedTime
	offer.StartDate = in.StartDate

	if err := s.repo.UpdateFields(ctx, offer); err != nil {
		return nil, s.mapConditionalErr(err, "редактирование")
	}
	return offer, nil
}

// DeleteOffer отзывает предложение, пока оно ожидает решения.
func (s *OfferService) DeleteOffer(ctx context.Context, actor authz.Actor, offerID uuid.UUID) error {
	offer, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return err
	}
	if err := authz.Allow(actor, authz.ActionOfferDelete, offerResource(offer)); err != nil {
		return err
	}
	if offer.Status != models.OfferStatusPending {
		return apperror.InvalidTransition("предложение", offer.Status, "удаление")
	}
	if err := s.repo.Delete(ctx, offerID); err != nil {
		return s.mapConditionalErr(err, "удаление")
	}
	return nil
}

// AcceptOffer принимает предложение: заказ переходит в работу, автор
// назначается исполнителем, остальные предложения отклоняются. Гонка двух
// одновременных принятий разрешается условным обновлением статуса заказа.
func (s *OfferService) AcceptOffer(ctx context.Context, actor authz.Actor, offerID uuid.UUID) (*models.Order, *models.Offer, error) {
	offer, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, nil, err
	}

	order, err := s.loadOrder(ctx, offer.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if err := authz.Allow(actor, authz.ActionOfferAccept, orderResource(order)); err != nil {
		return nil, nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, nil, apperror.InvalidTransition("заказ", order.Status, "принятие предложения")
	}
	if offer.Status != models.OfferStatusPending {
		return nil, nil, apperror.InvalidTransition("предложение", offer.Status, "принятие")
	}

	// Запоминаем соперников до принятия, чтобы уведомить их об отклонении.
	siblings, err := s.repo.ListByOrder(ctx, offer.OrderID)
	if err != nil {
		return nil, nil, apperror.Persistence(err)
	}

	updatedOrder, acceptedOffer, err := s.orders.AcceptOffer(ctx, offer.OrderID, offerID, offer.ExecutorID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			return nil, nil, apperror.NotFound("заказ не найден")
		case errors.Is(err, repository.ErrStatusChanged):
			return nil, nil, apperror.Conflict("заказ уже принят или отменён")
		case errors.Is(err, repository.ErrOfferNotFound):
			return nil, nil, apperror.Conflict("предложение уже обработано")
		default:
			return nil, nil, apperror.Persistence(err)
		}
	}

	s.notify(acceptedOffer.ExecutorID, "offers.accepted", map[string]interface{}{
		"order_id": updatedOrder.ID,
		"offer_id": acceptedOffer.ID,
		"title":    updatedOrder.Title,
	})
	for _, sibling := range siblings {
		if sibling.ID == acceptedOffer.ID || sibling.Status != models.OfferStatusPending {
			continue
		}
		s.notify(sibling.ExecutorID, "offers.rejected", map[string]interface{}{
			"order_id": updatedOrder.ID,
			"offer_id": sibling.ID,
		})
	}

	return updatedOrder, acceptedOffer, nil
}

// RejectOffer отклоняет отдельное предложение по ожидающему заказу.
func (s *OfferService) RejectOffer(ctx context.Context, actor authz.Actor, offerID uuid.UUID) (*models.Offer, error) {
	offer, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}

	order, err := s.loadOrder(ctx, offer.OrderID)
	if err != nil {
		return nil, err
	}
	if err := authz.Allow(actor, authz.ActionOfferReject, orderResource(order)); err != nil {
		return nil, err
	}
	if offer.Status != models.OfferStatusPending {
		return nil, apperror.InvalidTransition("предложение", offer.Status, "отклонение")
	}

	rejected, err := s.repo.Reject(ctx, offerID)
	if err != nil {
		return nil, s.mapConditionalErr(err, "отклонение")
	}

	s.notify(rejected.ExecutorID, "offers.rejected", map[string]interface{}{
		"order_id": order.ID,
		"offer_id": rejected.ID,
	})

	return rejected, nil
}

// ListMyOffers возвращает предложения исполнителя.
func (s *OfferService) ListMyOffers(ctx context.Context, actor authz.Actor) ([]models.Offer, error) {
	offers, err := s.repo.ListByExecutor(ctx, actor.ID)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return offers, nil
}

// loadOffer загружает предложение, переводя ошибку отсутствия в таксономию.
func (s *OfferService) loadOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error) {
	offer, err := s.repo.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, repository.ErrOfferNotFound) {
			return nil, apperror.NotFound("предложение не найдено")
		}
		return nil, apperror.Persistence(err)
	}
	return offer, nil
}

// loadOrder загружает заказ, переводя ошибку отсутствия в таксономию.
func (s *OfferService) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.NotFound("заказ не найден")
		}
		return nil, apperror.Persistence(err)
	}
	return order, nil
}

// validateOfferInput проверяет пользовательские поля предложения.
func (s *OfferService) validateOfferInput(price float64, estimatedTime int) error {
	if err := validation.ValidatePrice("цена предложения", price); err != nil {
		return apperror.Validation(err.Error())
	}
	if err := validation.ValidateEstimatedTime(estimatedTime); err != nil {
		return apperror.Validation(err.Error())
	}
	return nil
}

// mapConditionalErr переводит промах условного обновления в таксономию.
func (s *OfferService) mapConditionalErr(err error, action string) error {
	switch {
	case errors.Is(err, repository.ErrOfferNotFound):
		return apperror.NotFound("предложение не найдено")
	case errors.Is(err, repository.ErrStatusChanged):
		return apperror.Conflict("статус предложения изменился, действие " + action + " не выполнено")
	default:
		return apperror.Persistence(err)
	}
}

// notify отправляет событие одному пользователю в режиме fire-and-forget.
func (s *OfferService) notify(userID uuid.UUID, event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	goroutine.SafeGo(func() {
		_ = s.hub.BroadcastToUser(userID, event, data)
	})
}

// offerResource собирает поля владения предложением для проверки доступа.
func offerResource(offer *models.Offer) authz.Resource {
	executorID := offer.ExecutorID
	return authz.Resource{ExecutorID: &executorID}
}
