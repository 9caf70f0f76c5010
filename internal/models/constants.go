package models

// OrderStatus константы статусов заказов
const (
	OrderStatusPending    = "pending"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCanceled   = "canceled"
)

// OfferStatus константы статусов предложений
const (
	OfferStatusPending  = "pending"
	OfferStatusAccepted = "accepted"
	OfferStatusRejected = "rejected"
)

// Role константы основных ролей пользователя
const (
	RoleCustomer = "customer"
	RoleExecutor = "executor"
)

// ValidOrderStatuses список валидных статусов заказов
var ValidOrderStatuses = map[string]struct{}{
	OrderStatusPending:    {},
	OrderStatusInProgress: {},
	OrderStatusCompleted:  {},
	OrderStatusCanceled:   {},
}

// ValidOfferStatuses список валидных статусов предложений
var ValidOfferStatuses = map[string]struct{}{
	OfferStatusPending:  {},
	OfferStatusAccepted: {},
	OfferStatusRejected: {},
}

// ValidRoles список валидных основных ролей
var ValidRoles = map[string]struct{}{
	RoleCustomer: {},
	RoleExecutor: {},
}
