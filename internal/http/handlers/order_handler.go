package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/services-backend/internal/dto"
	"github.com/ignatzorin/services-backend/internal/http/handlers/common"
	"github.com/ignatzorin/services-backend/internal/repository"
	"github.com/ignatzorin/services-backend/internal/service"
)

// OrderHandler предоставляет HTTP слой для работы с заказами.
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler создаёт хэндлер.
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create обрабатывает POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateOrderRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), actor, service.CreateOrderInput{
		CategoryID:   req.CategoryID,
		Title:        req.Title,
		Description:  req.Description,
		DesiredPrice: req.DesiredPrice,
		DueDate:      req.DueDate,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// Get обрабатывает GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), actor, orderID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// Update обрабатывает PUT /api/orders/:id.
func (h *OrderHandler) Update(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateOrderRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.UpdateOrder(c.Request.Context(), actor, service.UpdateOrderInput{
		OrderID:      orderID,
		CategoryID:   req.CategoryID,
		Title:        req.Title,
		Description:  req.Description,
		DesiredPrice: req.DesiredPrice,
		DueDate:      req.DueDate,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// Cancel обрабатывает POST /api/orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.CancelOrder(c.Request.Context(), actor, orderID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// Complete обрабатывает POST /api/orders/:id/complete.
func (h *OrderHandler) Complete(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.CompleteOrder(c.Request.Context(), actor, orderID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// Delete обрабатывает DELETE /api/orders/:id.
func (h *OrderHandler) Delete(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.orders.DeleteOrder(c.Request.Context(), actor, orderID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "заказ удалён", nil)
}

// ListAvailable обрабатывает GET /api/orders/available.
// Поддерживает фильтр по категориям и пагинацию.
func (h *OrderHandler) ListAvailable(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.GetPagination(c)
	params := repository.ListAvailableParams{
		Limit:  limit,
		Offset: offset,
	}

	for _, raw := range c.QueryArray("category_id") {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.RespondBadRequest(c, "category_id должен быть валидным UUID")
			return
		}
		params.CategoryIDs = append(params.CategoryIDs, id)
	}

	orders, err := h.orders.ListAvailable(c.Request.Context(), actor, params)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// ListMy обрабатывает GET /api/orders/my.
func (h *OrderHandler) ListMy(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	asCustomer, asExecutor, err := h.orders.ListMyOrders(c.Request.Context(), actor)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OrderListResponse{
		AsCustomer: asCustomer,
		AsExecutor: asExecutor,
	})
}

// ListOffers обрабатывает GET /api/orders/:id/offers.
func (h *OrderHandler) ListOffers(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	offers, err := h.orders.ListOrderOffers(c.Request.Context(), actor, orderID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, offers)
}
