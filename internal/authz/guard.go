package authz

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/services-backend/internal/models"
	"github.com/ignatzorin/services-backend/internal/pkg/apperror"
)

// Action перечисляет проверяемые действия над заказами и предложениями.
type Action string

const (
	ActionOrderCreate    Action = "order.create"
	ActionOrderEdit      Action = "order.edit"
	ActionOrderCancel    Action = "order.cancel"
	ActionOrderComplete  Action = "order.complete"
	ActionOrderView      Action = "order.view"
	ActionOrdersBrowse   Action = "orders.browse"
	ActionOfferCreate    Action = "offer.create"
	ActionOfferEdit      Action = "offer.edit"
	ActionOfferDelete    Action = "offer.delete"
	ActionOfferAccept    Action = "offer.accept"
	ActionOfferReject    Action = "offer.reject"
	ActionOffersView     Action = "offers.view"
	ActionReviewCreate   Action = "review.create"
	ActionUserManage     Action = "user.manage"
	ActionCatalogManage  Action = "catalog.manage"
)

// Actor описывает вызывающего: идентификатор, основная роль и админский флаг.
type Actor struct {
	ID      uuid.UUID
	Role    string
	IsAdmin bool
}

// ActorFromUser собирает Actor из модели пользователя.
func ActorFromUser(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, IsAdmin: u.IsAdmin}
}

// Resource описывает поля владения ресурсом, существенные для решения.
// Для заказа CustomerID — владелец, ExecutorID — назначенный исполнитель.
// Для предложения ExecutorID — его автор, CustomerID — владелец заказа.
type Resource struct {
	CustomerID uuid.UUID
	ExecutorID *uuid.UUID
}

// Allow — единственная точка принятия решений о доступе.
// Чистая функция: либо nil (разрешено), либо ошибка PermissionDenied.
// Админ проходит любую проверку; частично применённых мутаций не бывает,
// поскольку Allow вызывается до любого изменения состояния.
func Allow(actor Actor, action Action, res Resource) error {
	if actor.IsAdmin {
		return nil
	}

	switch action {
	case ActionOrderCreate:
		if actor.Role != models.RoleCustomer {
			return apperror.PermissionDenied("только заказчики могут создавать заказы")
		}
		return nil

	case ActionOrderEdit, ActionOrderCancel, ActionOfferAccept, ActionOfferReject, ActionOffersView, ActionReviewCreate:
		if actor.ID != res.CustomerID {
			return apperror.PermissionDenied("действие доступно только заказчику этого заказа")
		}
		return nil

	case ActionOrderComplete:
		if res.ExecutorID == nil || actor.ID != *res.ExecutorID {
			return apperror.PermissionDenied("завершить заказ может только назначенный исполнитель")
		}
		return nil

	case ActionOfferCreate:
		if actor.Role != models.RoleExecutor {
			return apperror.PermissionDenied("только исполнители могут создавать предложения")
		}
		if actor.ID == res.CustomerID {
			return apperror.PermissionDenied("нельзя создать предложение на собственный заказ")
		}
		return nil

	case ActionOfferEdit, ActionOfferDelete:
		if res.ExecutorID == nil || actor.ID != *res.ExecutorID {
			return apperror.PermissionDenied("предложение может менять только его автор")
		}
		return nil

	case ActionOrderView:
		if actor.ID == res.CustomerID {
			return nil
		}
		if res.ExecutorID != nil && actor.ID == *res.ExecutorID {
			return nil
		}
		return apperror.PermissionDenied("заказ виден только его участникам")

	case ActionOrdersBrowse:
		if actor.Role != models.RoleExecutor {
			return apperror.PermissionDenied("список доступных заказов виден только исполнителям")
		}
		return nil

	case ActionUserManage, ActionCatalogManage:
		return apperror.PermissionDenied("действие доступно только администратору")
	}

	return apperror.PermissionDenied("действие не разрешено")
}
