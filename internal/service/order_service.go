package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/services-backend/internal/authz"
	"github.com/ignatzorin/services-backend/internal/goroutine"
	"github.com/ignatzorin/services-backend/internal/logger"
	"github.com/ignatzorin/services-backend/internal/models"
	"github.com/ignatzorin/services-backend/internal/pkg/apperror"
	"github.com/ignatzorin/services-backend/internal/repository"
	"github.com/ignatzorin/services-backend/internal/validation"
)

// OrderRepository описывает взаимодействие сервиса с хранилищем заказов.
type OrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	UpdateFields(ctx context.Context, order *models.Order) error
	Cancel(ctx context.Context, orderID uuid.UUID, fromStatuses []string) (*models.Order, *uuid.UUID, error)
	Complete(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListAvailable(ctx context.Context, params repository.ListAvailableParams) ([]models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
	ListByExecutor(ctx context.Context, executorID uuid.UUID) ([]models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OfferRepoForOrders описывает минимальный контракт с хранилищем предложений.
type OfferRepoForOrders interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Offer, error)
}

// CatalogRepoForOrders проверяет существование категории при создании заказа.
type CatalogRepoForOrders interface {
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

// UserRepoForOrders поставляет адресатов уведомлений о новых заказах.
type UserRepoForOrders interface {
	ListExecutorIDsByCategory(ctx context.Context, categoryID uuid.UUID) ([]uuid.UUID, error)
}

// WSNotifier интерфейс для отправки WebSocket уведомлений.
type WSNotifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data interface{}) error
}

// OrderService содержит бизнес-логику жизненного цикла заказов.
type OrderService struct {
	repo    OrderRepository
	offers  OfferRepoForOrders
	catalog CatalogRepoForOrders
	users   UserRepoForOrders
	hub     WSNotifier

	// Окно свободной отмены после создания заказа. Граница исключающая:
	// ровно на краю окна отмена уже не проходит.
	cancelGraceWindow time.Duration

	// Источник времени, подменяемый в тестах.
	now func() time.Time
}

// NewOrderService создаёт новый сервис заказов.
func NewOrderService(repo OrderRepository, offers OfferRepoForOrders, catalog CatalogRepoForOrders, users UserRepoForOrders, cancelGraceWindow time.Duration) *OrderService {
	return &OrderService{
		repo:              repo,
		offers:            offers,
		catalog:           catalog,
		users:             users,
		cancelGraceWindow: cancelGraceWindow,
		now:               time.Now,
	}
}

// SetHub устанавливает WebSocket hub для отправки уведомлений.
func (s *OrderService) SetHub(hub WSNotifier) {
	s.hub = hub
}

// CreateOrderInput описывает входные данные создания заказа.
type CreateOrderInput struct {
	CategoryID   uuid.UUID
	Title        string
	Description  *string
	DesiredPrice float64
	DueDate      time.Time
}

// UpdateOrderInput описывает входные данные редактирования заказа.
type UpdateOrderInput struct {
	OrderID      uuid.UUID
	CategoryID   uuid.UUID
	Title        string
	Description  *string
	DesiredPrice float64
	DueDate      time.Time
}

// CreateOrder создаёт заказ в статусе pending.
func (s *OrderService) CreateOrder(ctx context.Context, actor authz.Actor, in CreateOrderInput) (*models.Order, error) {
	if err := authz.Allow(actor, authz.ActionOrderCreate, authz.Resource{}); err != nil {
		return nil, err
	}
	if err := s.validateOrderInput(in.Title, in.Description, in.DesiredPrice, in.DueDate); err != nil {
		return nil, err
	}

	if _, err := s.catalog.GetCategoryByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, apperror.Validation("категория не найдена")
		}
		return nil, apperror.Persistence(err)
	}

	order := &models.Order{
		CustomerID:   actor.ID,
		CategoryID:   in.CategoryID,
		Title:        in.Title,
		Description:  in.Description,
		DesiredPrice: in.DesiredPrice,
		DueDate:      in.DueDate,
		Status:       models.OrderStatusPending,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, apperror.Persistence(err)
	}

	// Исполнители подходящей категории узнают о новом заказе.
	s.notifyCategoryExecutors(ctx, order)

	return order, nil
}

// GetOrder возвращает заказ с учётом правил видимости: участники и админ
// видят заказ всегда, исполнители — пока он ожидает предложений.
func (s *OrderService) GetOrder(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == models.OrderStatusPending && actor.Role == models.RoleExecutor {
		return order, nil
	}

	if err := authz.Allow(actor, authz.ActionOrderView, orderResource(order)); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrder редактирует поля заказа, пока он в статусе pending.
func (s *OrderService) UpdateOrder(ctx context.Context, actor authz.Actor, in UpdateOrderInput) (*models.Order, error) {
	order, err := s.loadOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if err := authz.Allow(actor, authz.ActionOrderEdit, orderResource(order)); err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, apperror.InvalidTransition("заказ", order.Status, "редактирование")
	}
	if err := s.validateOrderInput(in.Title, in.Description, in.DesiredPrice, in.DueDate); err != nil {
		return nil, err
	}

	if in.CategoryID != order.CategoryID {
		if _, err := s.catalog.GetCategoryByID(ctx, in.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, apperror.Validation("категория не найдена")
			}
			return nil, apperror.Persistence(err)
		}
	}

	order.Title = in.Title
	order.Description = in.Description
	order.DesiredPrice = in.DesiredPrice
	order.DueDate = in.DueDate
	order.CategoryID = in.CategoryID

	if err := s.repo.UpdateFields(ctx, order); err != nil {
		return nil, s.mapConditionalErr(err, "редактирование")
	}
	return order, nil
}

// CancelOrder отменяет заказ. Заказчик может отменить собственный pending
// заказ внутри окна отмены; админ — любой незакрытый заказ в любое время.
func (s *OrderService) CancelOrder(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authz.Allow(actor, authz.ActionOrderCancel, orderResource(order)); err != nil {
		return nil, err
	}

	fromStatuses := []string{models.OrderStatusPending}
	if actor.IsAdmin {
		fromStatuses = []string{models.OrderStatusPending, models.OrderStatusInProgress}
	}

	if !contains(fromStatuses, order.Status) {
		return nil, apperror.InvalidTransition("заказ", order.Status, "отмена")
	}

	if !actor.IsAdmin {
		// Окно отмены отсчитывается от создания заказа; граница исключающая.
		elapsed := s.now().Sub(order.CreatedAt)
		if elapsed >= s.cancelGraceWindow {
			return nil, apperror.PermissionDenied("окно отмены истекло, обратитесь к администратору")
		}
	}

	canceled, prevExecutor, err := s.repo.Cancel(ctx, orderID, fromStatuses)
	if err != nil {
		return nil, s.mapConditionalErr(err, "отмена")
	}

	// Назначенный исполнитель узнаёт об отмене.
	if prevExecutor != nil {
		s.notify(*prevExecutor, "orders.canceled", map[string]interface{}{
			"order_id": canceled.ID,
			"title":    canceled.Title,
		})
	}

	return canceled, nil
}

// CompleteOrder переводит заказ из in_progress в completed.
// Завершает заказ назначенный исполнитель (или админ).
func (s *OrderService) CompleteOrder(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authz.Allow(actor, authz.ActionOrderComplete, orderResource(order)); err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusInProgress {
		return nil, apperror.InvalidTransition("заказ", order.Status, "завершение")
	}

	completed, err := s.repo.Complete(ctx, orderID)
	if err != nil {
		return nil, s.mapConditionalErr(err, "завершение")
	}

	// Заказчик узнаёт о завершении и может оставить отзыв.
	s.notify(completed.CustomerID, "orders.completed", map[string]interface{}{
		"order_id": completed.ID,
		"title":    completed.Title,
	})

	return completed, nil
}

// ListAvailable возвращает доступные заказы для исполнителя.
func (s *OrderService) ListAvailable(ctx context.Context, actor authz.Actor, params repository.ListAvailableParams) ([]models.Order, error) {
	if err := authz.Allow(actor, authz.ActionOrdersBrowse, authz.Resource{}); err != nil {
		return nil, err
	}
	params.ExecutorID = actor.ID
	orders, err := s.repo.ListAvailable(ctx, params)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return orders, nil
}

// ListMyOrders возвращает заказы пользователя: созданные им и назначенные ему.
func (s *OrderService) ListMyOrders(ctx context.Context, actor authz.Actor) ([]models.Order, []models.Order, error) {
	asCustomer, err := s.repo.ListByCustomer(ctx, actor.ID)
	if err != nil {
		return nil, nil, apperror.Persistence(err)
	}
	asExecutor, err := s.repo.ListByExecutor(ctx, actor.ID)
	if err != nil {
		return nil, nil, apperror.Persistence(err)
	}
	return asCustomer, asExecutor, nil
}

// ListOrderOffers возвращает предложения по заказу его заказчику.
func (s *OrderService) ListOrderOffers(ctx context.Context, actor authz.Actor, orderID uuid.UUID) ([]models.Offer, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authz.Allow(actor, authz.ActionOffersView, orderResource(order)); err != nil {
		return nil, err
	}
	offers, err := s.offers.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperror.Persistence(err)
	}
	return offers, nil
}

// DeleteOrder удаляет pending заказ заказчика; предложения удаляются
// каскадно. Админ может удалить заказ в любом статусе.
func (s *OrderService) DeleteOrder(ctx context.Context, actor authz.Actor, orderID uuid.UUID) error {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if err := authz.Allow(actor, authz.ActionOrderEdit, orderResource(order)); err != nil {
		return err
	}
	if !actor.IsAdmin && order.Status != models.OrderStatusPending {
		return apperror.InvalidTransition("заказ", order.Status, "удаление")
	}
	if err := s.repo.Delete(ctx, orderID); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return apperror.NotFound("заказ не найден")
		}
		return apperror.Persistence(err)
	}
	return nil
}

// loadOrder загружает заказ, переводя ошибку отсутствия в таксономию.
func (s *OrderService) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.NotFound("заказ не найден")
		}
		return nil, apperror.Persistence(err)
	}
	return order, nil
}

// validateOrderInput проверяет пользовательские поля заказа.
func (s *OrderService) validateOrderInput(title string, description *string, price float64, dueDate time.Time) error {
	if err := validation.ValidateOrderTitle(title); err != nil {
		return apperror.Validation(err.Error())
	}
	if err := validation.ValidateOrderDescription(description); err != nil {
		return apperror.Validation(err.Error())
	}
	if err := validation.ValidatePrice("цена", price); err != nil {
		return apperror.Validation(err.Error())
	}
	if err := validation.ValidateDueDate(dueDate, s.now()); err != nil {
		return apperror.Validation(err.Error())
	}
	return nil
}

// mapConditionalErr переводит промах условного обновления в таксономию:
// заказ исчез — NotFound, статус успел уйти — Conflict.
func (s *OrderService) mapConditionalErr(err error, action string) error {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		return apperror.NotFound("заказ не найден")
	case errors.Is(err, repository.ErrStatusChanged):
		return apperror.Conflict("статус заказа изменился, действие " + action + " не выполнено")
	default:
		return apperror.Persistence(err)
	}
}

// notifyCategoryExecutors рассылает событие о новом заказе исполнителям
// категории. Рассылка не влияет на результат основного действия.
func (s *OrderService) notifyCategoryExecutors(ctx context.Context, order *models.Order) {
	if s.hub == nil || s.users == nil {
		return
	}
	orderID := order.ID
	categoryID := order.CategoryID
	title := order.Title
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		ids, err := s.users.ListExecutorIDsByCategory(ctx, categoryID)
		if err != nil {
			if logger.Log != nil {
				logger.Log.WithField("error", err.Error()).Warn("order service: не удалось получить адресатов уведомления")
			}
			return
		}
		for _, id := range ids {
			_ = s.hub.BroadcastToUser(id, "orders.new", map[string]interface{}{
				"order_id": orderID,
				"title":    title,
			})
		}
	})
}

// notify отправляет событие одному пользователю в режиме fire-and-forget.
func (s *OrderService) notify(userID uuid.UUID, event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	goroutine.SafeGo(func() {
		_ = s.hub.BroadcastToUser(userID, event, data)
	})
}

// orderResource собирает поля владения заказом для проверки доступа.
func orderResource(order *models.Order) authz.Resource {
	return authz.Resource{CustomerID: order.CustomerID, ExecutorID: order.ExecutorID}
}

// contains сообщает, входит ли значение в срез.
func contains(values []string, v string) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}
