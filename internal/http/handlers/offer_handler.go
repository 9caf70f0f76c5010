package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/services-backend/internal/dto"
	"github.com/ignatzorin/services-backend/internal/http/handlers/common"
	"github.com/ignatzorin/services-backend/internal/service"
)

// OfferHandler предоставляет HTTP слой для работы с предложениями.
type OfferHandler struct {
	offers *service.OfferService
}

// NewOfferHandler создаёт хэндлер.
func NewOfferHandler(offers *service.OfferService) *OfferHandler {
	return &OfferHandler{offers: offers}
}

// Create обрабатывает POST /api/orders/:id/offers.
func (h *OfferHandler) Create(c *gin.Context) {
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

	var req dto.CreateOfferRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	offer, err := h.offers.CreateOffer(c.Request.Context(), actor, service.CreateOfferInput{
		OrderID:       orderID,
		Price:         req.Price,
		EstimatedTime: req.EstimatedTime,
		StartDate:     req.StartDate,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, offer)
}

// Update обрабатывает PUT /api/offers/:id.
func (h *OfferHandler) Update(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	offerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateOfferRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	offer, err := h.offers.UpdateOffer(c.Request.Context(), actor, service.UpdateOfferInput{
		OfferID:       offerID,
		Price:         req.Price,
		EstimatedTime: req.EstimatedTime,
		StartDate:     req.StartDate,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// Delete обрабатывает DELETE /api/offers/:id.
func (h *OfferHandler) Delete(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	offerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.offers.DeleteOffer(c.Request.Context(), actor, offerID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "предложение отозвано", nil)
}

// Accept обрабатывает POST /api/offers/:id/accept.
func (h *OfferHandler) Accept(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	offerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, offer, err := h.offers.AcceptOffer(c.Request.Context(), actor, offerID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AcceptOfferResponse{Order: order, Offer: offer})
}

// Reject обрабатывает POST /api/offers/:id/reject.
func (h *OfferHandler) Reject(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	offerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	offer, err := h.offers.RejectOffer(c.Request.Context(), actor, offerID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// ListMy обрабатывает GET /api/offers/my.
func (h *OfferHandler) ListMy(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	offers, err := h.offers.ListMyOffers(c.Request.Context(), actor)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, offers)
}
