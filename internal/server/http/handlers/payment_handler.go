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

// PaymentHandler serves checkout and confirmation endpoints.
type PaymentHandler struct {
	facade    PaymentFacade
	validator *BodyValidator
	logger    *zap.Logger
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(facade PaymentFacade, validator *BodyValidator, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{facade: facade, validator: validator, logger: logger}
}

// CreateIntent handles POST /api/create-payment-intent.
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	body, err := readBody(c, h.validator, SchemaCreatePaymentIntent)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	var req dto.CreatePaymentIntentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(c, h.logger, domainErrors.NewValidationError("malformed JSON body"))
		return
	}

	res, err := h.facade.CreatePaymentIntent(c.Request.Context(), CurrentUserID(c), toDraft(req.OrderData), toCustomer(req.CustomerInfo))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.CreatePaymentIntentResponse{
		ClientSecret:    res.PaymentHandle,
		PaymentIntentID: res.Reference,
		OrderID:         res.Order.ID,
		OrderNumber:     res.Order.Number,
		Amount:          res.AmountMinor,
		Currency:        res.Currency,
	})
}

// Confirm handles POST /api/confirm-payment.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	body, err := readBody(c, h.validator, SchemaConfirmPayment)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	var req dto.ConfirmPaymentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(c, h.logger, domainErrors.NewValidationError("malformed JSON body"))
		return
	}

	conf, err := h.facade.ConfirmPayment(c.Request.Context(), CurrentUserID(c), req.PaymentIntentID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ConfirmPaymentResponse{
		Success: conf.Transaction.Status == model.TransactionStatusSucceeded,
		Order:   toOrderResponse(conf.Order),
		PaymentIntent: dto.PaymentIntentResponse{
			ID:                conf.Transaction.Reference,
			Status:            string(conf.GatewayStatus),
			TransactionStatus: string(conf.Transaction.Status),
		},
	})
}

// ProcessWallet handles POST /api/process-gcash-payment.
func (h *PaymentHandler) ProcessWallet(c *gin.Context) {
	body, err := readBody(c, h.validator, SchemaProcessWallet)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	var req dto.WalletPaymentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(c, h.logger, domainErrors.NewValidationError("malformed JSON body"))
		return
	}

	conf, err := h.facade.ProcessWalletPayment(c.Request.Context(), CurrentUserID(c), toDraft(req.OrderData), toCustomer(req.CustomerInfo))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	succeeded := conf.Transaction.Status == model.TransactionStatusSucceeded
	message := "Payment is pending"
	switch conf.Transaction.Status {
	case model.TransactionStatusSucceeded:
		message = "Payment successful"
	case model.TransactionStatusCancelled:
		message = "Payment was cancelled"
	}
	c.JSON(http.StatusOK, dto.WalletPaymentResponse{
		Success:         succeeded,
		OrderID:         conf.Order.ID,
		OrderNumber:     conf.Order.Number,
		ReferenceNumber: conf.Transaction.Reference,
		Status:          string(conf.Transaction.Status),
		Message:         message,
	})
}
