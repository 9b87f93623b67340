package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/domain/model"
	"github.com/polkiloo/paycore/internal/server/http/dto"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade    OrderFacade
	validator *BodyValidator
	logger    *zap.Logger
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade, validator *BodyValidator, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{facade: facade, validator: validator, logger: logger}
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := orderIDParam(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	order, err := h.facade.Order(c.Request.Context(), CurrentUserID(c), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// RetryPayment handles POST /api/orders/:id/retry-payment.
func (h *OrderHandler) RetryPayment(c *gin.Context) {
	id, err := orderIDParam(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	res, err := h.facade.RetryPayment(c.Request.Context(), CurrentUserID(c), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.RetryPaymentResponse{
		OrderID:         res.Order.ID,
		OrderNumber:     res.Order.Number,
		PaymentIntentID: res.Reference,
		ClientSecret:    res.PaymentHandle,
		Amount:          res.AmountMinor,
		Currency:        res.Currency,
	})
}

// UpdateStatus handles POST /api/admin/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, err := orderIDParam(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	body, err := readBody(c, h.validator, SchemaOrderStatus)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	var req dto.UpdateOrderStatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(c, h.logger, domainErrors.NewValidationError("malformed JSON body"))
		return
	}

	order, err := h.facade.UpdateOrderStatus(c.Request.Context(), CurrentUserID(c), id, model.OrderStatus(req.Status))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}
